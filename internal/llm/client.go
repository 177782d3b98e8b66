package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/observability"
)

// maxPromptTokens is the client-side prompt budget, sized to the smallest
// context window among the supported providers.
const maxPromptTokens = 32768

// StatusFunc receives advisory status text for observers (UI). The pipeline's
// correctness never depends on these notifications being observed.
type StatusFunc func(msg string)

// Client serializes all provider traffic for one generation run. Requests
// are placed on a single-consumer queue and drained one at a time: the
// generation is chatty and must respect provider-side rate limits, not
// throughput.
//
// Invariant: at most one provider request is in flight at any time.
type Client struct {
	provider  Provider
	cfg       config.ProviderConfig
	log       *zap.Logger
	metrics   *observability.ModelClientMetrics
	estimator *TokenEstimator
	status    StatusFunc

	requests  chan *pending
	closeOnce sync.Once
	closed    chan struct{}
}

// pending is one queued request awaiting the worker.
type pending struct {
	ctx    context.Context
	req    Request
	result chan outcome
}

// outcome is the worker's reply to a pending request.
type outcome struct {
	resp Response
	err  error
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMetrics attaches Prometheus instruments to the client.
func WithMetrics(m *observability.ModelClientMetrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithEstimator attaches a prompt token estimator enabling the budget guard.
func WithEstimator(e *TokenEstimator) ClientOption {
	return func(c *Client) { c.estimator = e }
}

// WithStatusFunc attaches an observer callback for status text.
func WithStatusFunc(fn StatusFunc) ClientOption {
	return func(c *Client) { c.status = fn }
}

// NewClient constructs a Client and starts its worker goroutine.
//
// Precondition: provider and logger must not be nil; cfg must be validated.
func NewClient(provider Provider, cfg config.ProviderConfig, logger *zap.Logger, opts ...ClientOption) *Client {
	if provider == nil {
		panic("llm.NewClient: provider must not be nil")
	}
	if logger == nil {
		panic("llm.NewClient: logger must not be nil")
	}
	c := &Client{
		provider: provider,
		cfg:      cfg,
		log:      logger,
		requests: make(chan *pending),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.drain()
	return c
}

// Send queues one completion request and blocks until it resolves or ctx is
// cancelled. An in-flight provider call is allowed to complete rather than
// being forcibly aborted; cancellation between queue and dispatch is honored
// immediately.
//
// Postcondition: on success, content is non-empty and tokens is the
// provider-reported total (0 if the provider reports no usage).
func (c *Client) Send(ctx context.Context, prompt, system string) (content string, tokens int, err error) {
	if estimate := c.estimator.Count(system + prompt); estimate > maxPromptTokens {
		return "", 0, fmt.Errorf("llm.Client.Send: estimated %d prompt tokens (budget %d): %w",
			estimate, maxPromptTokens, ErrPromptTooLarge)
	}

	p := &pending{
		ctx: ctx,
		req: Request{
			System:      system,
			Prompt:      prompt,
			Model:       c.cfg.Model,
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		},
		result: make(chan outcome, 1),
	}

	select {
	case c.requests <- p:
	case <-ctx.Done():
		return "", 0, ctx.Err()
	case <-c.closed:
		return "", 0, ErrClientClosed
	}

	select {
	case out := <-p.result:
		if out.err != nil {
			return "", 0, out.err
		}
		return out.resp.Content, out.resp.TokensUsed(), nil
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

// Close stops the worker. Requests queued after Close fail with
// ErrClientClosed; the in-flight request, if any, completes normally.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// drain is the single queue consumer. It enforces the inter-request delay
// measured from the moment the previous request returned, so a slow prior
// request shortens or eliminates the wait.
func (c *Client) drain() {
	var lastReturn time.Time
	for {
		select {
		case <-c.closed:
			return
		case p := <-c.requests:
			if p.ctx.Err() != nil {
				p.result <- outcome{err: p.ctx.Err()}
				continue
			}
			if !lastReturn.IsZero() {
				if wait := c.cfg.RequestDelay - time.Since(lastReturn); wait > 0 {
					time.Sleep(wait)
				}
			}
			out := c.dispatch(p.ctx, p.req)
			lastReturn = time.Now()
			p.result <- out
		}
	}
}

// dispatch runs the bounded retry loop for one request.
//
// Postcondition: on exhaustion, the returned error matches ErrRetriesExhausted
// and carries the last provider error text.
func (c *Client) dispatch(ctx context.Context, req Request) outcome {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		start := time.Now()
		resp, err := c.provider.Complete(ctx, req)
		elapsed := time.Since(start)

		if err == nil {
			c.metrics.ObserveRequest(c.provider.Name(), req.Model, "success",
				elapsed.Seconds(), resp.PromptTokens, resp.CompletionTokens)
			c.log.Debug("model request succeeded",
				zap.String("provider", c.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Int("tokens", resp.TokensUsed()),
				zap.Duration("elapsed", elapsed),
			)
			return outcome{resp: resp}
		}

		lastErr = err
		c.metrics.ObserveRequest(c.provider.Name(), req.Model, "error", elapsed.Seconds(), 0, 0)
		c.log.Warn("model request failed",
			zap.String("provider", c.provider.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err),
		)
		c.notify(fmt.Sprintf("request failed (attempt %d/%d): %v", attempt, c.cfg.MaxRetries, err))

		if ctx.Err() != nil {
			return outcome{err: ctx.Err()}
		}
		if attempt < c.cfg.MaxRetries {
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return outcome{err: ctx.Err()}
			}
		}
	}
	return outcome{err: fmt.Errorf("llm.Client: %d attempts failed, last error: %v: %w",
		c.cfg.MaxRetries, lastErr, ErrRetriesExhausted)}
}

// notify forwards status text to the observer callback, if any.
func (c *Client) notify(msg string) {
	if c.status != nil {
		c.status(msg)
	}
}
