package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	domsvc "SqueezeWatch/internal/domain/service"
	xhttp "SqueezeWatch/pkg/http"
	applogger "SqueezeWatch/pkg/logger"
)

// Client invokes the out-of-process scoring engine over HTTP and shields
// callers from transient unavailability. All callers in the process share
// one Health record; cancellation of an in-flight call never mutates it.
type Client struct {
	baseURL  string
	http     *xhttp.Client
	health   *Health
	recovery time.Duration
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithRecoveryWindow overrides the optimistic-retry window (default 1m).
func WithRecoveryWindow(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.recovery = d
		}
	}
}

// WithMetrics wires a metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger wires a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient builds a client for the engine at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:  baseURL,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		health:   NewHealth(),
		recovery: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health exposes the shared availability record.
func (c *Client) Health() *Health { return c.health }

type signalReq struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date,omitempty"`
}

type batchReq struct {
	Tickers []string `json:"tickers"`
	Date    string   `json:"date,omitempty"`
}

type topReq struct {
	Date     string `json:"date,omitempty"`
	Limit    int    `json:"limit"`
	MinScore int    `json:"min_score"`
}

// GetSignal scores a single ticker.
func (c *Client) GetSignal(ctx context.Context, ticker, tradeDate string) (*models.SqueezeSignal, error) {
	var out models.SqueezeSignal
	if err := c.post(ctx, "/engine/signal", signalReq{Ticker: ticker, Date: tradeDate}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBatchSignals scores many tickers; every input ticker appears in the
// result or is marked missing by the engine.
func (c *Client) GetBatchSignals(ctx context.Context, tickers []string, tradeDate string) (*models.BatchSignals, error) {
	var out models.BatchSignals
	if err := c.post(ctx, "/engine/signals/batch", batchReq{Tickers: tickers, Date: tradeDate}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTopCandidates returns the ranked candidate list for a date.
func (c *Client) GetTopCandidates(ctx context.Context, tradeDate string, limit, minScore int) (*models.TopCandidates, error) {
	var out models.TopCandidates
	if err := c.post(ctx, "/engine/candidates/top", topReq{Date: tradeDate, Limit: limit, MinScore: minScore}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadConfig asks the engine to re-read scoring configuration from the store.
func (c *Client) ReloadConfig(ctx context.Context) error {
	return c.post(ctx, "/engine/config/reload", struct{}{}, nil)
}

// post runs one engine call with availability tracking and failure
// classification.
func (c *Client) post(ctx context.Context, path string, payload, dest interface{}) error {
	now := time.Now()
	if !c.health.ShouldAttempt(now, c.recovery) {
		return fmt.Errorf("%w: inside recovery window since %s", ErrUnavailable, c.health.LastFailure().Format(time.RFC3339))
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	})
	if err != nil {
		// A cancelled call is not evidence of unavailability.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.health.MarkFailure(time.Now())
		c.recordUp(false)
		if c.log != nil {
			c.log.Warn("engine unreachable", applogger.String("path", path), applogger.Error(err))
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Any HTTP response proves the engine is reachable.
	c.health.MarkSuccess()
	c.recordUp(true)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrInternal, err)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrInvalidRequest, resp.StatusCode, body)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrInternal, resp.StatusCode, body)
	}
}

func (c *Client) recordUp(up bool) {
	if c.metrics != nil {
		c.metrics.RecordEngineUp(up)
	}
}

var _ domsvc.SignalEngine = (*Client)(nil)
