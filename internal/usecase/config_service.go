package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"SqueezeWatch/internal/cbtrigger"
	domrepo "SqueezeWatch/internal/domain/repository"
	"SqueezeWatch/internal/scoring"
	applogger "SqueezeWatch/pkg/logger"
)

// Config keys for the global CB trigger defaults, used when an issuance row
// carries no bond-specific clause.
const (
	KeyCBTriggerPct  = "CB_TRIGGER_THRESHOLD_PCT" // percent, e.g. 130
	KeyCBTriggerDays = "CB_TRIGGER_DAYS_REQUIRED"
)

// ConfigService holds the runtime-adjustable scoring and CB configuration.
// Invalid configurations are rejected at reload time and the previous one
// stays active; scoring code never re-validates per call.
type ConfigService struct {
	store  domrepo.ConfigStore
	log    *applogger.Logger
	scorer atomic.Pointer[scoring.Scorer]
	cb     atomic.Pointer[cbtrigger.Params]
}

// NewConfigService starts from defaults; call Reload to pick up stored values.
func NewConfigService(store domrepo.ConfigStore, log *applogger.Logger) *ConfigService {
	s := &ConfigService{store: store, log: log}
	scorer, _ := scoring.NewScorer(scoring.DefaultConfig())
	s.scorer.Store(scorer)
	cb := cbtrigger.DefaultParams()
	s.cb.Store(&cb)
	return s
}

// Scorer returns the active scorer.
func (s *ConfigService) Scorer() *scoring.Scorer { return s.scorer.Load() }

// CBDefaults returns the global CB trigger parameters.
func (s *ConfigService) CBDefaults() cbtrigger.Params { return *s.cb.Load() }

// Reload re-reads the config store and swaps in the new configuration
// atomically. A store failure or invalid configuration leaves the active
// one in place.
func (s *ConfigService) Reload(ctx context.Context) error {
	kv, err := s.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg, err := scoring.FromKV(kv)
	if err != nil {
		return err
	}
	scorer, err := scoring.NewScorer(cfg)
	if err != nil {
		return err
	}

	cb, err := cbParamsFromKV(kv)
	if err != nil {
		return err
	}

	s.scorer.Store(scorer)
	s.cb.Store(&cb)
	if s.log != nil {
		s.log.Info("configuration reloaded",
			applogger.Int("keys", len(kv)),
			applogger.Int("bullish_threshold", cfg.BullishThreshold),
			applogger.Int("cb_trigger_days", cb.TriggerDays),
		)
	}
	return nil
}

// Update persists one key and reloads. The write sticks even if the merged
// configuration is rejected; the active config only changes on success.
func (s *ConfigService) Update(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	return s.Reload(ctx)
}

func cbParamsFromKV(kv map[string]string) (cbtrigger.Params, error) {
	p := cbtrigger.DefaultParams()
	if raw, ok := kv[KeyCBTriggerPct]; ok {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct <= 0 {
			return p, fmt.Errorf("%w: %s=%q", scoring.ErrInvalidConfig, KeyCBTriggerPct, raw)
		}
		p.TriggerRatio = pct / 100
	}
	if raw, ok := kv[KeyCBTriggerDays]; ok {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return p, fmt.Errorf("%w: %s=%q", scoring.ErrInvalidConfig, KeyCBTriggerDays, raw)
		}
		p.TriggerDays = days
	}
	return p, nil
}
