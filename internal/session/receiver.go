package session

import "context"

// receive forwards every relay message, unmodified and in order, into the
// mailbox until the connection fails or ctx ends.
func (s *session) receive(ctx context.Context) error {
	for {
		text, err := s.conn.Receive(ctx)
		if err != nil {
			return err
		}
		s.metrics.IncReceived()
		if dropped := s.box.put(text); dropped > 0 {
			s.metrics.IncMailboxDropped()
			s.logger.Warn("mailbox full; dropped oldest relay message", "dropped", dropped)
		}
	}
}
