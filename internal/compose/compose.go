// Package compose turns retrieved groundwater facts into the answer's
// explanation text.
//
// A completion Service is injected; the deterministic Template service is
// always wired as the fallback, so composition never fails and never
// blocks an answer on a provider outage. Numeric facts reach the model
// only through the grounded segments; whatever comes back is used as
// explanation prose, never as a source of numbers.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bhujal-ai/bhujal/internal/log"
)

// Request carries everything one composition needs: the user's question,
// the answer language, the grounded fact segments phrased by retrieval,
// and the rendered data table when one exists.
type Request struct {
	Query    string
	Language string   // i18n language tag
	Segments []string // grounded statements; the only carrier of numbers
	Table    string   // markdown table shown to the model for context
}

// Service composes explanation text for one answer. Implementations are
// interchangeable; the Template service implements the same interface as
// the hosted providers.
type Service interface {
	// Name identifies the implementation in logs and traces.
	Name() string
	// Available reports whether the service can accept calls now, e.g.
	// whether its credential is present. Called per turn, so a missing
	// key degrades answers instead of failing startup.
	Available() bool
	// Complete returns the composed explanation.
	Complete(ctx context.Context, req Request) (string, error)
}

// RetryConfig configures retry behavior for completion calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for hosted completion APIs.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Config wires a Composer.
type Config struct {
	// Primary is the hosted completion service; nil means fallback only.
	Primary Service
	// Fallback defaults to the Template service.
	Fallback Service
	// Timeout bounds one composition including retries. Zero uses a default.
	Timeout time.Duration
	// Limiter proactively rate-limits primary calls (nil = default).
	Limiter *rate.Limiter
	// Retry uses DefaultRetryConfig when zero.
	Retry  RetryConfig
	Logger log.Logger
}

const defaultTimeout = 30 * time.Second

// Composer runs the primary service with a timeout, rate limit and
// bounded retries, and falls back to the deterministic service on any
// failure. Compose never returns an error.
type Composer struct {
	primary  Service
	fallback Service
	limiter  *rate.Limiter
	timeout  time.Duration
	retry    RetryConfig
	logger   log.Logger
}

// New builds a Composer from cfg, applying defaults for anything unset.
func New(cfg Config) *Composer {
	fallback := cfg.Fallback
	if fallback == nil {
		fallback = Template{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := cfg.Limiter
	if limiter == nil {
		// 30 calls/minute sustained with a small burst.
		limiter = rate.NewLimiter(rate.Limit(0.5), 5)
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Composer{
		primary:  cfg.Primary,
		fallback: fallback,
		limiter:  limiter,
		timeout:  timeout,
		retry:    retry,
		logger:   logger,
	}
}

// Compose returns the explanation text and the name of the service that
// produced it. Any primary failure (unavailable, error, timeout, empty
// output) degrades to the fallback; the caller never sees an error.
func (c *Composer) Compose(ctx context.Context, req Request) (text, service string) {
	if c.primary == nil || !c.primary.Available() {
		return c.composeFallback(ctx, req), c.fallback.Name()
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.completeWithRetry(cctx, req)
	if err != nil {
		c.logger.Warn("completion failed, composing deterministically",
			"service", c.primary.Name(), "error", err)
		return c.composeFallback(ctx, req), c.fallback.Name()
	}

	out = StripSpuriousSources(out)
	if strings.TrimSpace(out) == "" {
		c.logger.Warn("empty completion, composing deterministically",
			"service", c.primary.Name())
		return c.composeFallback(ctx, req), c.fallback.Name()
	}
	return out, c.primary.Name()
}

func (c *Composer) composeFallback(ctx context.Context, req Request) string {
	out, err := c.fallback.Complete(ctx, req)
	if err != nil {
		// Template cannot error; a custom fallback that does still must
		// not take the answer down with it.
		return strings.Join(req.Segments, "\n\n")
	}
	return out
}

// completeWithRetry executes the primary service with exponential
// backoff. Each attempt is rate limited so retries cannot stampede a
// provider that is already throttling us.
func (c *Composer) completeWithRetry(ctx context.Context, req Request) (string, error) {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		out, err := c.primary.Complete(ctx, req)
		if err == nil {
			c.logger.Debug("completion succeeded",
				"service", c.primary.Name(),
				"attempts", attempt+1,
				"elapsed", time.Since(start))
			return out, nil
		}
		lastErr = err

		if !retryableError(err) {
			return "", fmt.Errorf("complete: %w", err)
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying completion",
			"attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}
	return "", fmt.Errorf("complete after %d retries (elapsed %v): %w",
		c.retry.MaxRetries, time.Since(start), lastErr)
}

// retryableError reports whether an error is worth another attempt.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()

	// Throttling.
	if containsAny(s, "rate limit", "quota exceeded", "429") {
		return true
	}
	// Transient server errors.
	if containsAny(s, "500", "502", "503", "504", "unavailable", "overloaded") {
		return true
	}
	// Network hiccups.
	if containsAny(s, "connection reset", "timeout", "temporary") {
		return true
	}
	return false
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
