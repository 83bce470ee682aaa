package middleware

import (
	"fmt"
	"sync"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
)

// Sink is the minimal fanout interface the pipeline needs.
type Sink interface {
	BroadcastSignal(sig models.SqueezeSignal)
}

// BroadcastPipeline sits between the scoring pipeline and the live feed.
// It validates, throttles per ticker, and buffers bursts so a nightly batch
// of hundreds of signals does not flood subscribers at once.
type BroadcastPipeline struct {
	sink     Sink
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan models.SqueezeSignal
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-ticker last accepted time
}

type PipelineOption func(*BroadcastPipeline)

// WithMaxRPS sets the max broadcasts per second per ticker.
func WithMaxRPS(n int) PipelineOption {
	return func(p *BroadcastPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the burst buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *BroadcastPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewBroadcastPipeline creates a new pipeline in front of sink.
func NewBroadcastPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *BroadcastPipeline {
	p := &BroadcastPipeline{
		sink:     sink,
		metrics:  metrics,
		maxRPS:   10,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.SqueezeSignal, p.bufSize)
	return p
}

// Start launches background draining of buffered signals.
func (p *BroadcastPipeline) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-p.stopCh:
				return
			case sig := <-p.bufCh:
				p.sink.BroadcastSignal(sig)
			}
		}
	}()
}

// Stop stops the background draining.
func (p *BroadcastPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// BroadcastSignal validates, throttles, and enqueues the signal for fanout.
func (p *BroadcastPipeline) BroadcastSignal(sig models.SqueezeSignal) {
	if err := validateSignal(sig); err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("broadcast_validate")
		}
		return
	}
	if !p.allow(sig.Ticker, time.Now()) {
		if p.metrics != nil {
			p.metrics.RecordError("broadcast_throttle")
		}
		return
	}

	select {
	case p.bufCh <- sig:
	default:
		if p.metrics != nil {
			p.metrics.RecordError("broadcast_buffer_full")
		}
	}
}

func validateSignal(sig models.SqueezeSignal) error {
	if sig.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if sig.TradeDate == "" {
		return fmt.Errorf("trade date empty")
	}
	if sig.Trend != models.TrendDegraded && (sig.Score < 0 || sig.Score > 100) {
		return fmt.Errorf("score out of range: %d", sig.Score)
	}
	return nil
}

func (p *BroadcastPipeline) allow(ticker string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[ticker]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}
