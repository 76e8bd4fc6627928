package session

// mailbox hands relay messages from the receiver to the reconciler. It is
// bounded; a full mailbox discards its oldest entry so put never blocks.
type mailbox struct {
	ch chan string
}

func newMailbox(size int) *mailbox {
	if size < 1 {
		size = 1
	}
	return &mailbox{ch: make(chan string, size)}
}

// put enqueues text and reports how many older messages were discarded.
func (m *mailbox) put(text string) int {
	dropped := 0
	for {
		select {
		case m.ch <- text:
			return dropped
		default:
		}
		select {
		case <-m.ch:
			dropped++
		default:
		}
	}
}

func (m *mailbox) len() int {
	return len(m.ch)
}
