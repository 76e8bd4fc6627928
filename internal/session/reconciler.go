package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/relay"
)

// reconciler is the outbound activity. It owns LastKnownState for one session.
type reconciler struct {
	*session

	last bool

	// pending is a remote value whose Write failed and will be retried.
	pending      *bool
	pendingTries int
}

func (r *reconciler) run(ctx context.Context) error {
	timer := time.NewTimer(r.period)
	defer timer.Stop()

	for {
		if err := r.pollLocal(ctx); err != nil {
			return err
		}

		waitStart := time.Now()
		resetTimer(timer, r.period)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := r.retryPending(ctx); err != nil {
				return err
			}
			continue
		case text := <-r.box.ch:
			if err := r.handle(ctx, text); err != nil {
				return err
			}
		}

		if remaining := r.period - time.Since(waitStart); remaining > 0 {
			resetTimer(timer, remaining)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// pollLocal publishes the indicator when it differs from LastKnownState.
func (r *reconciler) pollLocal(ctx context.Context) error {
	local, err := r.read(ctx)
	if err != nil {
		return err
	}
	if local == r.last {
		return nil
	}

	r.pending = nil
	if err := r.conn.Send(ctx, relay.Encode(local)); err != nil {
		return fmt.Errorf("send local state: %w", err)
	}
	r.last = local
	r.metrics.IncSent()
	r.logger.Info("local caps lock changed", "on", local)
	return nil
}

func (r *reconciler) handle(ctx context.Context, text string) error {
	desired, ok := relay.Decode(text)
	if !ok {
		r.metrics.IncMalformed()
		r.logger.Debug("ignoring malformed relay message", "payload", truncate(text, 32))
		return nil
	}

	r.pending = nil
	r.pendingTries = 0
	return r.apply(ctx, desired)
}

func (r *reconciler) retryPending(ctx context.Context) error {
	if r.pending == nil {
		return nil
	}
	return r.apply(ctx, *r.pending)
}

// apply re-reads the indicator right before writing so a message that merely
// echoes the current state never touches it.
func (r *reconciler) apply(ctx context.Context, desired bool) error {
	current, err := r.read(ctx)
	if err != nil {
		return err
	}
	if current == desired {
		r.pending = nil
		r.metrics.IncEcho()
		return nil
	}

	changed, err := indicator.Set(ctx, r.adapter, desired)
	if err != nil {
		r.metrics.IncWriteFailure()
		r.pendingTries++
		if r.pendingTries < r.attempts {
			r.pending = &desired
			r.logger.Warn("failed to apply remote caps lock state; will retry", "on", desired, "attempt", r.pendingTries, "error", err.Error())
		} else {
			r.pending = nil
			r.logger.Error("failed to apply remote caps lock state; giving up", "on", desired, "attempts", r.pendingTries, "error", err.Error())
		}
		return nil
	}

	r.pending = nil
	if !changed {
		// A local press got there first; the next poll publishes it.
		r.metrics.IncEcho()
		return nil
	}
	r.last = desired
	r.metrics.IncApplied()
	r.metrics.SetIndicator(desired)
	r.cue.Play(desired)
	r.logger.Info("applied remote caps lock state", "on", desired)
	return nil
}

func (r *reconciler) read(ctx context.Context) (bool, error) {
	on, err := r.adapter.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: %w", ErrIndicator, err)
	}
	r.metrics.SetIndicator(on)
	return on, nil
}

func resetTimer(t *time.Timer, d time.Duration) {
	t.Stop()
	select {
	case <-t.C:
	default:
	}
	t.Reset(d)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
