package errclass

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
	defaultMaxDelay    = 2 * time.Second
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Hooks let the session layer react to failures that must not be retried.
type Hooks struct {
	// OnAuth is called when the session is no longer valid; the caller is
	// expected to sign the user out.
	OnAuth func(ctx context.Context, err error)
	// OnPermission is called when tenant membership or row access was denied;
	// cached membership for the actor must be dropped.
	OnPermission func(ctx context.Context, err error)
}

// Guard applies one classification and retry policy to every backend call
// that reads or writes reservation data.
type Guard struct {
	policy Policy
	hooks  Hooks
	log    *zap.Logger
}

func NewGuard(policy Policy, hooks Hooks, log *zap.Logger) *Guard {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{policy: policy, hooks: hooks, log: log}
}

// Do runs fn, retrying transient failures with exponential backoff. Any
// returned error is normalized to its category sentinel.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		cat := Classify(err)
		switch cat {
		case CategoryAuth:
			g.log.Warn("backend rejected session", zap.String("op", op), zap.Error(err))
			if g.hooks.OnAuth != nil {
				g.hooks.OnAuth(ctx, err)
			}
			return Normalize(err)
		case CategoryPermission:
			g.log.Warn("backend denied access", zap.String("op", op), zap.Error(err))
			if g.hooks.OnPermission != nil {
				g.hooks.OnPermission(ctx, err)
			}
			return Normalize(err)
		}

		if !cat.Retryable() || ctx.Err() != nil {
			return Normalize(err)
		}
		if attempt == g.policy.MaxAttempts {
			break
		}

		delay := g.policy.backoff(attempt)
		g.log.Info("retrying backend call",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return Normalize(err)
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrTransient, op, g.policy.MaxAttempts, err)
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
