package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/sony/gobreaker"
)

// Classifier defaults.
const (
	DefaultTimeout            = 20 * time.Second
	DefaultBreakerMaxFailures = 5
	DefaultBreakerOpenTimeout = 30 * time.Second
)

// FallbackClassifier wraps a provider Client with a per-call timeout, a rate
// limiter and a circuit breaker. It never retries: one failed call is one
// failed classification.
type FallbackClassifier struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
	limiter *rateLimiter
	logger  *slog.Logger
	timeout time.Duration
}

// NewClassifier creates a provider client from cfg and wraps it.
func NewClassifier(cfg Config, logger *slog.Logger) (*FallbackClassifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback client: %w", err)
	}

	return NewFallbackClassifier(client, cfg, logger), nil
}

// NewFallbackClassifier wraps an existing client.
func NewFallbackClassifier(client Client, cfg Config, logger *slog.Logger) *FallbackClassifier {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultBreakerMaxFailures
	}

	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout == 0 {
		openTimeout = DefaultBreakerOpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        "fallback-" + cfg.Provider,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("fallback circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &FallbackClassifier{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
		timeout: timeout,
	}
}

// Classify ranks the candidate labels for text, highest score first.
// Errors wrap common.ErrFallbackUnavailable when the breaker is open and
// context.DeadlineExceeded when the call timed out.
func (c *FallbackClassifier) Classify(ctx context.Context, text string, labels []string) (model.LabelRankings, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		rankings, rankErr := c.client.Rank(ctx, text, labels)
		if rankErr != nil {
			return nil, rankErr
		}
		if validateErr := rankings.Validate(); validateErr != nil {
			return nil, fmt.Errorf("invalid rankings: %w", validateErr)
		}
		return rankings, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", common.ErrFallbackUnavailable, err)
		}
		c.logger.Warn("fallback classification failed",
			"error", err,
			"elapsed", time.Since(start))
		return nil, err
	}

	rankings, ok := result.(model.LabelRankings)
	if !ok {
		return nil, fmt.Errorf("unexpected fallback result type %T", result)
	}
	rankings.Sort()

	c.logger.Debug("fallback classification complete",
		"top_label", rankings[0].Label,
		"top_score", rankings[0].Score,
		"elapsed", time.Since(start))

	return rankings, nil
}

// State reports the circuit breaker state.
func (c *FallbackClassifier) State() string {
	return c.breaker.State().String()
}
