package fsm

import "fmt"

type State string

type Event string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateActive       State = "active"
)

const (
	EventDial       Event = "dial"
	EventConnected  Event = "connected"
	EventDialFailed Event = "dial_failed"
	EventDrop       Event = "drop"
)

// Transition returns the state event leads to from current, or an error for
// a pair the table does not allow.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateDisconnected:
		switch event {
		case EventDial:
			return StateConnecting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateConnecting:
		switch event {
		case EventConnected:
			return StateActive, nil
		case EventDialFailed:
			return StateDisconnected, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateActive:
		switch event {
		case EventDrop:
			return StateDisconnected, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
