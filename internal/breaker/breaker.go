package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	logx "eopbot/pkg/logx"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// Config defines circuit breaker configuration.
// Zero values fall back to DefaultConfig.
type Config struct {
	Name string
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
	// Disabled turns the wrapper into a pass-through.
	Disabled bool
}

func DefaultConfig(name string) Config {
	return Config{
		Name:     name,
		Failures: 5,
		Cooldown: 30 * time.Second,
	}
}

// Breaker guards an unreliable upstream so a dead endpoint fails fast
// instead of stalling every caller.
type Breaker struct {
	cb  *gobreaker.TwoStepCircuitBreaker
	log logx.Logger
}

func New(cfg Config, log logx.Logger) *Breaker {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Disabled {
		return &Breaker{log: log}
	}
	def := DefaultConfig(cfg.Name)
	if cfg.Failures == 0 {
		cfg.Failures = def.Failures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	threshold := cfg.Failures
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				logx.String("breaker", name),
				logx.String("from", from.String()),
				logx.String("to", to.String()),
			)
		},
	}
	return &Breaker{cb: gobreaker.NewTwoStepCircuitBreaker(settings), log: log}
}

// Do runs fn unless the breaker is open. A non-nil error from fn counts as a
// failure; context cancellation by the caller does not.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if b == nil || b.cb == nil {
		return fn(ctx)
	}
	done, err := b.cb.Allow()
	if err != nil {
		return ErrOpen
	}
	err = fn(ctx)
	done(err == nil || errors.Is(err, context.Canceled))
	return err
}

// State reports the breaker state ("closed" when disabled).
func (b *Breaker) State() string {
	if b == nil || b.cb == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}
