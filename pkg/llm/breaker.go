package llm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the provider circuit breaker.
type BreakerConfig struct {
	// Failures is the number of consecutive provider failures before the circuit trips.
	Failures uint32
	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration
}

// BreakerGenerator wraps a Generator with a circuit breaker so an unhealthy
// provider fails fast instead of holding every search until its deadline.
type BreakerGenerator struct {
	next   Generator
	cb     *gobreaker.CircuitBreaker[*Response]
	logger *zap.Logger
}

var _ Generator = (*BreakerGenerator)(nil)

// NewBreakerGenerator wraps next with a circuit breaker.
func NewBreakerGenerator(next Generator, cfg BreakerConfig, logger *zap.Logger) *BreakerGenerator {
	if cfg.Failures == 0 {
		cfg.Failures = 5
	}
	logger = logger.Named("llm-breaker")

	settings := gobreaker.Settings{
		Name:        next.Provider(),
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("LLM circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: countsAsSuccess,
	}

	return &BreakerGenerator{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker[*Response](settings),
		logger: logger,
	}
}

// countsAsSuccess decides which outcomes keep the circuit closed. Only
// transient provider failures count against it; a rejected request, a
// cancelled caller or an expired caller deadline says nothing about
// provider health. Providers report their own timeouts as *Error values.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return !llmErr.Retryable
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Generate forwards to the wrapped Generator unless the circuit is open.
func (b *BreakerGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		return b.next.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		llmErr := NewError(ErrorTypeUnavailable, "circuit open", err)
		llmErr.Provider = b.next.Provider()
		llmErr.Model = b.next.Model()
		return nil, llmErr
	}
	return resp, err
}

// State returns the breaker state for health reporting.
func (b *BreakerGenerator) State() string {
	return b.cb.State().String()
}

func (b *BreakerGenerator) Model() string    { return b.next.Model() }
func (b *BreakerGenerator) Provider() string { return b.next.Provider() }
