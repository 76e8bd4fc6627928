// Package indicator reads and drives the local caps lock state.
package indicator

import (
	"context"
	"errors"

	"github.com/rbright/capsync/internal/config"
)

// ErrUnsupported reports a platform without a caps lock adapter.
var ErrUnsupported = errors.New("caps lock indicator is not supported on this platform")

// Adapter is the boundary to the OS caps lock primitive.
type Adapter interface {
	Read(ctx context.Context) (bool, error)
	// Write sets the indicator; it does nothing when the indicator already matches.
	Write(ctx context.Context, on bool) error
}

// Setter is an Adapter that can report whether setting the indicator changed it.
type Setter interface {
	Set(ctx context.Context, on bool) (changed bool, err error)
}

// Set drives a to on and reports whether the indicator changed. Adapters that
// are not a Setter are assumed to have changed it.
func Set(ctx context.Context, a Adapter, on bool) (bool, error) {
	if s, ok := a.(Setter); ok {
		return s.Set(ctx, on)
	}
	if err := a.Write(ctx, on); err != nil {
		return false, err
	}
	return true, nil
}

// New returns the adapter for the current platform after checking its preconditions.
func New(cfg config.IndicatorConfig) (Adapter, error) {
	return newPlatform(cfg)
}

// toggling adapts platforms that can only flip the indicator into an Adapter.
type toggling struct {
	state  func(context.Context) (bool, error)
	toggle func(context.Context) error
}

func (t toggling) Read(ctx context.Context) (bool, error) {
	return t.state(ctx)
}

func (t toggling) Write(ctx context.Context, on bool) error {
	_, err := t.Set(ctx, on)
	return err
}

func (t toggling) Set(ctx context.Context, on bool) (bool, error) {
	current, err := t.state(ctx)
	if err != nil {
		return false, err
	}
	if current == on {
		return false, nil
	}
	if err := t.toggle(ctx); err != nil {
		return false, err
	}
	return true, nil
}
