package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/capsync/internal/fsm"
	"github.com/rbright/capsync/internal/metrics"
	"github.com/rbright/capsync/internal/relay"
)

type fakeAdapter struct {
	mu        sync.Mutex
	on        bool
	reads     int
	writes    int
	wroteAt   []time.Time
	readErr   error
	writeErrs []error
}

func (a *fakeAdapter) Read(context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads++
	if a.readErr != nil {
		return false, a.readErr
	}
	return a.on, nil
}

func (a *fakeAdapter) Write(_ context.Context, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writes++
	if len(a.writeErrs) > 0 {
		err := a.writeErrs[0]
		a.writeErrs = a.writeErrs[1:]
		if err != nil {
			return err
		}
	}
	a.on = on
	a.wroteAt = append(a.wroteAt, time.Now())
	return nil
}

// writeTimes returns when each successful Write happened.
func (a *fakeAdapter) writeTimes() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Time(nil), a.wroteAt...)
}

// racingAdapter behaves as if the user pressed caps lock to the desired value
// between the reconciler's read and its write.
type racingAdapter struct {
	*fakeAdapter
}

func (a racingAdapter) Set(_ context.Context, on bool) (bool, error) {
	a.set(on)
	return false, nil
}

// set simulates the user pressing caps lock.
func (a *fakeAdapter) set(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.on = on
}

func (a *fakeAdapter) get() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.on
}

func (a *fakeAdapter) counts() (reads, writes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads, a.writes
}

func (a *fakeAdapter) failReads(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readErr = err
}

var errConnReset = errors.New("connection reset by peer")

type fakeConn struct {
	sent    chan string
	inbound chan string

	failSends atomic.Bool
	closes    atomic.Int32

	closeOnce sync.Once
	closed    chan struct{}
	dropOnce  sync.Once
	dropped   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sent:    make(chan string, 64),
		inbound: make(chan string, 64),
		closed:  make(chan struct{}),
		dropped: make(chan struct{}),
	}
}

func (c *fakeConn) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return relay.ErrClosed
	default:
	}
	if c.failSends.Load() {
		return errConnReset
	}
	c.sent <- text
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case text := <-c.inbound:
		return text, nil
	case <-c.dropped:
		return "", errConnReset
	case <-c.closed:
		return "", relay.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// drop simulates the relay going away.
func (c *fakeConn) drop() {
	c.dropOnce.Do(func() { close(c.dropped) })
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu        sync.Mutex
	failures  int
	dialTimes []time.Time
	conns     chan *fakeConn
}

func newFakeDialer(failures int) *fakeDialer {
	return &fakeDialer{failures: failures, conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context) (relay.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialTimes = append(d.dialTimes, time.Now())
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) times() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.dialTimes...)
}

type fakeCue struct {
	played chan bool
}

func (c *fakeCue) Play(on bool) {
	select {
	case c.played <- on:
	default:
	}
}

func newTestSession(adapter *fakeAdapter, conn *fakeConn, period time.Duration, attempts int) (*session, *tally) {
	tl := newTally(metrics.NoopRecorder{})
	return &session{
		conn:     conn,
		adapter:  adapter,
		box:      newMailbox(64),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  tl,
		cue:      noopCue{},
		period:   period,
		attempts: attempts,
	}, tl
}

func expectSent(t *testing.T, conn *fakeConn, want string) {
	t.Helper()
	select {
	case got := <-conn.sent:
		if got != want {
			t.Fatalf("sent %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for send of %q", want)
	}
}

func expectNothingSent(t *testing.T, conn *fakeConn, wait time.Duration) {
	t.Helper()
	select {
	case got := <-conn.sent:
		t.Fatalf("unexpected send %q", got)
	case <-time.After(wait):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitForState(t *testing.T, ctrl *Controller, desired fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == desired {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current=%s)", desired, ctrl.State())
}

func nextConn(t *testing.T, d *fakeDialer) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a relay connection")
		return nil
	}
}
