package middleware

import (
	"sync"
	"testing"
	"time"

	"SqueezeWatch/internal/domain/models"
)

type captureSink struct {
	mu   sync.Mutex
	sigs []models.SqueezeSignal
}

func (c *captureSink) BroadcastSignal(sig models.SqueezeSignal) {
	c.mu.Lock()
	c.sigs = append(c.sigs, sig)
	c.mu.Unlock()
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sigs)
}

func validSignal(ticker string) models.SqueezeSignal {
	return models.SqueezeSignal{Ticker: ticker, TradeDate: "2026-01-05", Score: 80, Trend: models.TrendBullish}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestPipelineDeliversToSink(t *testing.T) {
	sink := &captureSink{}
	p := NewBroadcastPipeline(sink, nil)
	p.Start()
	defer p.Stop()

	p.BroadcastSignal(validSignal("7203"))
	waitFor(t, func() bool { return sink.count() == 1 })
}

func TestPipelineDropsInvalidSignals(t *testing.T) {
	sink := &captureSink{}
	p := NewBroadcastPipeline(sink, nil)
	p.Start()
	defer p.Stop()

	p.BroadcastSignal(models.SqueezeSignal{TradeDate: "2026-01-05", Score: 50})  // no ticker
	p.BroadcastSignal(models.SqueezeSignal{Ticker: "7203", Score: 50})           // no date
	p.BroadcastSignal(models.SqueezeSignal{Ticker: "7203", TradeDate: "2026-01-05", Score: 150})
	p.BroadcastSignal(validSignal("7203"))

	waitFor(t, func() bool { return sink.count() == 1 })
	if sink.count() != 1 {
		t.Fatalf("invalid signals must be dropped, delivered %d", sink.count())
	}
}

func TestPipelineAllowsDegradedWithoutScore(t *testing.T) {
	sink := &captureSink{}
	p := NewBroadcastPipeline(sink, nil)
	p.Start()
	defer p.Stop()

	p.BroadcastSignal(models.SqueezeSignal{Ticker: "7203", TradeDate: "2026-01-05", Trend: models.TrendDegraded})
	waitFor(t, func() bool { return sink.count() == 1 })
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	sink := &captureSink{}
	p := NewBroadcastPipeline(sink, nil, WithMaxRPS(1))
	p.Start()
	defer p.Stop()

	// Two immediate broadcasts for the same ticker: second throttled.
	p.BroadcastSignal(validSignal("7203"))
	p.BroadcastSignal(validSignal("7203"))
	// A different ticker is unaffected.
	p.BroadcastSignal(validSignal("9984"))

	waitFor(t, func() bool { return sink.count() == 2 })
	time.Sleep(20 * time.Millisecond)
	if sink.count() != 2 {
		t.Fatalf("throttled duplicate delivered, got %d", sink.count())
	}
}

func TestPipelineStopIdempotent(t *testing.T) {
	p := NewBroadcastPipeline(&captureSink{}, nil)
	p.Start()
	p.Stop()
	p.Stop() // second stop must not panic
}
