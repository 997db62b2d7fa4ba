// Package retry implements the backoff used by clients waiting for a daemon.
package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/stopwatchd/internal/config"
	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

// Policy holds backoff settings. It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// DefaultPolicy is exponential from 50ms, capped at 1s, eight retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffExponential, Initial: 50 * time.Millisecond, Max: time.Second, MaxRetries: 8}
}

// NewPolicy builds a policy; zero or unknown values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds the client dial policy.
func FromConfig(c config.ClientConfig) Policy {
	return NewPolicy(c.RetryBackoff, c.RetryInitial, c.RetryMax, c.MaxRetries)
}

// Delay returns the wait before retry number retryCount (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffLinear:
		d = time.Duration(retryCount) * p.Initial
	default:
		if retryCount > 30 {
			return p.Max
		}
		d = p.Initial << (retryCount - 1)
	}
	return min(d, p.Max)
}

// Do calls fn until it succeeds, the retries are used up, ctx ends, or fn
// returns an error that is classified as not retryable. The last error is
// returned.
func (p Policy) Do(ctx context.Context, clock clockwork.Clock, fn func(attempt int) error) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "retry canceled").
					WithCause(err).
					Build()
			case <-clock.After(p.Delay(attempt)):
			}
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if ce, ok := ferrors.AsClassified(err); ok && !ce.CanRetry() {
			return err
		}
	}
	return err
}
