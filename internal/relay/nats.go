package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSDialer uses core NATS pub/sub on one subject as the broadcast relay.
type NATSDialer struct {
	URL          string
	Subject      string
	ClientName   string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dial connects and subscribes to the relay subject.
func (d *NATSDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &natsConn{
		subject:      d.Subject,
		writeTimeout: d.WriteTimeout,
		messages:     make(chan *nats.Msg, 64),
		closed:       make(chan struct{}),
	}

	name := d.ClientName
	if name == "" {
		name = "capsync"
	}
	nc, err := nats.Connect(
		d.URL,
		nats.Name(name),
		nats.Timeout(d.DialTimeout),
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) { c.markClosed() }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.nc = nc

	sub, err := nc.ChanSubscribe(d.Subject, c.messages)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %q: %w", d.Subject, err)
	}
	c.sub = sub

	// The subscription must be live before the baseline is published.
	if err := nc.FlushTimeout(d.DialTimeout); err != nil {
		nc.Close()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}

	return c, nil
}

type natsConn struct {
	nc           *nats.Conn
	sub          *nats.Subscription
	subject      string
	writeTimeout time.Duration
	messages     chan *nats.Msg

	closeOnce sync.Once
	closed    chan struct{}
}

func (c *natsConn) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Send publishes text on the subject and flushes within the write timeout.
func (c *natsConn) Send(ctx context.Context, text string) error {
	select {
	case <-c.closed:
		return fmt.Errorf("nats send: %w", ErrClosed)
	default:
	}

	if err := c.nc.Publish(c.subject, []byte(text)); err != nil {
		return fmt.Errorf("nats send: %w", err)
	}
	sendCtx, cancel := sendContext(ctx, c.writeTimeout)
	defer cancel()
	if err := c.nc.FlushWithContext(sendCtx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Receive returns the next message on the subject.
func (c *natsConn) Receive(ctx context.Context) (string, error) {
	select {
	case msg := <-c.messages:
		return string(msg.Data), nil
	case <-c.closed:
		if err := c.nc.LastError(); err != nil {
			return "", fmt.Errorf("nats receive: %w: %v", ErrClosed, err)
		}
		return "", fmt.Errorf("nats receive: %w", ErrClosed)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close drops the subscription and the connection.
func (c *natsConn) Close() error {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	c.nc.Close()
	c.markClosed()
	return nil
}
