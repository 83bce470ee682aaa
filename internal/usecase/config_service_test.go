package usecase

import (
	"context"
	"errors"
	"testing"

	"SqueezeWatch/internal/scoring"
)

func TestConfigServiceReload(t *testing.T) {
	store := &fakeConfigStore{kv: map[string]string{
		scoring.KeyThresholdBullish: "75",
		KeyCBTriggerPct:             "120",
		KeyCBTriggerDays:            "20",
	}}
	svc := NewConfigService(store, nil)

	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := svc.Scorer().Config().BullishThreshold; got != 75 {
		t.Fatalf("bullish threshold = %d, want 75", got)
	}
	cb := svc.CBDefaults()
	if cb.TriggerRatio != 1.20 || cb.TriggerDays != 20 {
		t.Fatalf("cb defaults = %+v, want 1.20/20", cb)
	}
}

func TestConfigServiceReloadKeepsPreviousOnInvalid(t *testing.T) {
	store := &fakeConfigStore{kv: map[string]string{}}
	svc := NewConfigService(store, nil)

	store.kv[scoring.KeyWeightBorrow] = "0.90" // breaks the weight-sum invariant
	if err := svc.Reload(context.Background()); !errors.Is(err, scoring.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	// The previous (default) configuration stays active.
	if got := svc.Scorer().Config().WeightBorrow; got != 0.35 {
		t.Fatalf("active weight = %.2f, want untouched 0.35", got)
	}
}

func TestConfigServiceUpdatePersistsAndReloads(t *testing.T) {
	store := &fakeConfigStore{}
	svc := NewConfigService(store, nil)

	if err := svc.Update(context.Background(), scoring.KeyThresholdBearish, "35"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := svc.Scorer().Config().BearishThreshold; got != 35 {
		t.Fatalf("bearish threshold = %d, want 35", got)
	}
	if store.kv[scoring.KeyThresholdBearish] != "35" {
		t.Fatalf("value not persisted")
	}
}

func TestConfigServiceInvalidCBParams(t *testing.T) {
	store := &fakeConfigStore{kv: map[string]string{KeyCBTriggerDays: "-5"}}
	svc := NewConfigService(store, nil)
	if err := svc.Reload(context.Background()); !errors.Is(err, scoring.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
