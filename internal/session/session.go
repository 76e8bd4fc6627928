// Package session keeps the local caps lock and the relay in agreement: a
// Controller supervises reconnects and each session runs one receiver and
// one reconciler.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/metrics"
	"github.com/rbright/capsync/internal/relay"
)

// ErrIndicator marks a failed indicator read. It ends the controller instead
// of triggering a reconnect.
var ErrIndicator = errors.New("caps lock indicator unavailable")

// Cue is notified after a remote state is applied locally.
type Cue interface {
	Play(on bool)
}

type noopCue struct{}

func (noopCue) Play(bool) {}

// session is one live relay connection and its two activities.
type session struct {
	conn     relay.Conn
	adapter  indicator.Adapter
	box      *mailbox
	logger   *slog.Logger
	metrics  metrics.Recorder
	cue      Cue
	period   time.Duration
	attempts int
}

// run sends the baseline, then runs the receiver and reconciler until either
// ends. The other is cancelled, the connection closed, and both joined before
// run returns.
func (s *session) run(ctx context.Context) error {
	baseline, err := s.adapter.Read(ctx)
	if err != nil {
		_ = s.conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrIndicator, err)
	}
	if err := s.conn.Send(ctx, relay.Encode(baseline)); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("send baseline: %w", err)
	}
	s.metrics.IncSent()
	s.metrics.SetIndicator(baseline)
	s.logger.Info("sent baseline", "on", baseline)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec := &reconciler{session: s, last: baseline}
	errs := make(chan error, 2)
	go func() { errs <- s.receive(ctx) }()
	go func() { errs <- rec.run(ctx) }()

	first := <-errs
	cancel()
	_ = s.conn.Close()
	second := <-errs

	if errors.Is(second, ErrIndicator) {
		return second
	}
	return first
}
