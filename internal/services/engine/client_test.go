package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SqueezeWatch/internal/domain/models"
)

func TestGetSignalSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/engine/signal" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Ticker string `json:"ticker"`
			Date   string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.SqueezeSignal{
			Ticker:    req.Ticker,
			TradeDate: "2026-01-05",
			Score:     78,
			Trend:     models.TrendBullish,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	sig, err := c.GetSignal(context.Background(), "7203", "2026-01-05")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if sig.Ticker != "7203" || sig.Score != 78 || sig.Trend != models.TrendBullish {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if !c.Health().Available() {
		t.Fatalf("health should remain available after success")
	}
}

func TestTransportFailureFlipsAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens anymore

	c := NewClient(url, 200*time.Millisecond)
	_, err := c.GetSignal(context.Background(), "7203", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if c.Health().Available() {
		t.Fatalf("connection failure must flip availability")
	}

	// Inside the recovery window the call short-circuits.
	_, err = c.GetSignal(context.Background(), "7203", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable inside recovery window, got %v", err)
	}
}

func TestOptimisticRetryAfterRecoveryWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.SqueezeSignal{Ticker: "7203", Score: 55})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithRecoveryWindow(10*time.Millisecond))
	c.Health().MarkFailure(time.Now())

	time.Sleep(20 * time.Millisecond)

	sig, err := c.GetSignal(context.Background(), "7203", "")
	if err != nil {
		t.Fatalf("retry after window: %v", err)
	}
	if sig.Score != 55 {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if !c.Health().Available() {
		t.Fatalf("success must restore availability")
	}
}

func TestRejectedRequestKeepsAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad ticker", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithRecoveryWindow(10*time.Millisecond))
	c.Health().MarkFailure(time.Now())
	time.Sleep(20 * time.Millisecond)

	_, err := c.GetSignal(context.Background(), "bad", "")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	// Any HTTP response proves the engine is reachable.
	if !c.Health().Available() {
		t.Fatalf("a 4xx response must restore availability")
	}
}

func TestServerErrorClassifiedInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.GetBatchSignals(context.Background(), []string{"7203"}, "")
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if !c.Health().Available() {
		t.Fatalf("a 5xx response must not flip availability")
	}
}

func TestCancellationDoesNotMutateHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSignal(ctx, "7203", "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !c.Health().Available() {
		t.Fatalf("cancellation is not evidence of unavailability")
	}
}

func TestReloadConfig(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/engine/config/reload" {
			called = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.ReloadConfig(context.Background()); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if !called {
		t.Fatalf("reload endpoint not hit")
	}
}

func TestHealthShouldAttempt(t *testing.T) {
	h := NewHealth()
	now := time.Now()

	if !h.ShouldAttempt(now, time.Minute) {
		t.Fatalf("fresh health must allow attempts")
	}

	h.MarkFailure(now)
	if h.ShouldAttempt(now.Add(30*time.Second), time.Minute) {
		t.Fatalf("inside window must not attempt")
	}
	if !h.ShouldAttempt(now.Add(time.Minute), time.Minute) {
		t.Fatalf("at window boundary must attempt again")
	}

	h.MarkSuccess()
	if !h.ShouldAttempt(now, time.Minute) {
		t.Fatalf("after success must attempt")
	}
}
