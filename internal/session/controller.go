package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/capsync/internal/fsm"
	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/ipc"
	"github.com/rbright/capsync/internal/metrics"
	"github.com/rbright/capsync/internal/relay"
)

// Options wires a Controller. Zero durations and sizes fall back to defaults.
type Options struct {
	Dialer        relay.Dialer
	Indicator     indicator.Adapter
	Logger        *slog.Logger
	Metrics       metrics.Recorder
	Cue           Cue
	PollInterval  time.Duration
	RetryDelay    time.Duration
	QueueSize     int
	ApplyAttempts int
}

// Controller is the supervisor: it dials, runs one session at a time, and
// reconnects forever.
type Controller struct {
	dialer     relay.Dialer
	adapter    indicator.Adapter
	logger     *slog.Logger
	tally      *tally
	cue        Cue
	period     time.Duration
	retryDelay time.Duration
	queueSize  int
	attempts   int

	mu        sync.RWMutex
	state     fsm.State
	sessionID string
	since     time.Time
	lastErr   string
}

// NewController constructs a supervisor with safe default fallbacks.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	cue := opts.Cue
	if cue == nil {
		cue = noopCue{}
	}
	period := opts.PollInterval
	if period <= 0 {
		period = 50 * time.Millisecond
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	attempts := opts.ApplyAttempts
	if attempts <= 0 {
		attempts = 1
	}

	return &Controller{
		dialer:     opts.Dialer,
		adapter:    opts.Indicator,
		logger:     logger,
		tally:      newTally(recorder),
		cue:        cue,
		period:     period,
		retryDelay: retryDelay,
		queueSize:  queueSize,
		attempts:   attempts,
		state:      fsm.StateDisconnected,
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	c.since = time.Now()
	return nil
}

// Run loops until ctx is cancelled. Failed dials wait the fixed retry delay;
// ended sessions reconnect at once. Only an indicator failure returns an error.
func (c *Controller) Run(ctx context.Context) error {
	if c.dialer == nil || c.adapter == nil {
		return errors.New("session controller requires a dialer and an indicator")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		sessionID := uuid.NewString()
		logger := c.logger.With("session_id", sessionID)
		_ = c.transition(fsm.EventDial)

		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			_ = c.transition(fsm.EventDialFailed)
			if ctx.Err() != nil {
				return nil
			}
			c.tally.IncDialFailure()
			c.setLastError(err)
			logger.Warn("relay connect failed", "error", err.Error(), "retry_in", c.retryDelay.String())
			if !sleep(ctx, c.retryDelay) {
				return nil
			}
			continue
		}

		_ = c.transition(fsm.EventConnected)
		c.setSessionID(sessionID)
		c.tally.IncSession()
		c.tally.SetConnected(true)
		logger.Info("relay session established")

		s := &session{
			conn:     conn,
			adapter:  c.adapter,
			box:      newMailbox(c.queueSize),
			logger:   logger,
			metrics:  c.tally,
			cue:      c.cue,
			period:   c.period,
			attempts: c.attempts,
		}
		err = s.run(ctx)

		c.tally.SetConnected(false)
		c.setSessionID("")
		_ = c.transition(fsm.EventDrop)

		switch {
		case errors.Is(err, ErrIndicator):
			c.setLastError(err)
			logger.Error("caps lock indicator failed; stopping", "error", err.Error())
			return err
		case ctx.Err() != nil:
			logger.Info("relay session closed")
			return nil
		default:
			if err != nil {
				c.setLastError(err)
			}
			logger.Warn("relay session ended; reconnecting", "error", errString(err))
		}
	}
}

// Status is a point-in-time view of the controller.
type Status struct {
	State     fsm.State
	SessionID string
	Since     time.Time
	// Indicator is nil until the first successful read.
	Indicator     *bool
	DialFailures  uint64
	Sessions      uint64
	Sent          uint64
	Received      uint64
	Applied       uint64
	Echoes        uint64
	Malformed     uint64
	Dropped       uint64
	WriteFailures uint64
	LastError     string
}

// Status returns a snapshot of state and counters.
func (c *Controller) Status() Status {
	c.mu.RLock()
	st := Status{State: c.state, SessionID: c.sessionID, Since: c.since, LastError: c.lastErr}
	c.mu.RUnlock()

	c.tally.fill(&st)
	return st
}

// Summary renders Status as one human-readable line.
func (s Status) Summary() string {
	indicatorText := "unknown"
	if s.Indicator != nil {
		indicatorText = "off"
		if *s.Indicator {
			indicatorText = "on"
		}
	}
	return fmt.Sprintf(
		"state=%s caps_lock=%s sessions=%d dial_failures=%d sent=%d received=%d applied=%d echoes=%d malformed=%d dropped=%d write_failures=%d",
		s.State, indicatorText, s.Sessions, s.DialFailures, s.Sent, s.Received, s.Applied, s.Echoes, s.Malformed, s.Dropped, s.WriteFailures,
	)
}

// Handle serves IPC commands for the running daemon.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		st := c.Status()
		return ipc.Response{OK: true, State: string(st.State), Message: st.Summary()}
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

func (c *Controller) setLastError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// tally counts events for Status and forwards them to the configured recorder.
type tally struct {
	next metrics.Recorder

	dialFailures  atomic.Uint64
	sessions      atomic.Uint64
	sent          atomic.Uint64
	received      atomic.Uint64
	applied       atomic.Uint64
	echoes        atomic.Uint64
	malformed     atomic.Uint64
	dropped       atomic.Uint64
	writeFailures atomic.Uint64
	// indicator is -1 before the first read, then 0 or 1.
	indicator atomic.Int32
}

var _ metrics.Recorder = (*tally)(nil)

func newTally(next metrics.Recorder) *tally {
	t := &tally{next: next}
	t.indicator.Store(-1)
	return t
}

func (t *tally) IncDialFailure() {
	t.dialFailures.Add(1)
	t.next.IncDialFailure()
}

func (t *tally) IncSession() {
	t.sessions.Add(1)
	t.next.IncSession()
}

func (t *tally) SetConnected(connected bool) { t.next.SetConnected(connected) }

func (t *tally) IncSent() {
	t.sent.Add(1)
	t.next.IncSent()
}

func (t *tally) IncReceived() {
	t.received.Add(1)
	t.next.IncReceived()
}

func (t *tally) IncApplied() {
	t.applied.Add(1)
	t.next.IncApplied()
}

func (t *tally) IncEcho() {
	t.echoes.Add(1)
	t.next.IncEcho()
}

func (t *tally) IncMalformed() {
	t.malformed.Add(1)
	t.next.IncMalformed()
}

func (t *tally) IncMailboxDropped() {
	t.dropped.Add(1)
	t.next.IncMailboxDropped()
}

func (t *tally) IncWriteFailure() {
	t.writeFailures.Add(1)
	t.next.IncWriteFailure()
}

func (t *tally) SetIndicator(on bool) {
	v := int32(0)
	if on {
		v = 1
	}
	t.indicator.Store(v)
	t.next.SetIndicator(on)
}

func (t *tally) fill(st *Status) {
	st.DialFailures = t.dialFailures.Load()
	st.Sessions = t.sessions.Load()
	st.Sent = t.sent.Load()
	st.Received = t.received.Load()
	st.Applied = t.applied.Load()
	st.Echoes = t.echoes.Load()
	st.Malformed = t.malformed.Load()
	st.Dropped = t.dropped.Load()
	st.WriteFailures = t.writeFailures.Load()
	if v := t.indicator.Load(); v >= 0 {
		on := v == 1
		st.Indicator = &on
	}
}
