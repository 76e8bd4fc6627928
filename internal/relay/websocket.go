package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer connects to a ws:// or wss:// relay endpoint.
type WebsocketDialer struct {
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Header       http.Header
}

// Dial performs the websocket handshake.
func (d *WebsocketDialer) Dial(ctx context.Context) (Conn, error) {
	dialCtx, cancel := sendContext(ctx, d.DialTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.DialTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, resp, err := dialer.DialContext(dialCtx, d.URL, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", d.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	return NewWebsocketConn(conn, d.WriteTimeout), nil
}

// WebsocketConn adapts a gorilla connection to Conn. The relay server uses it
// for accepted connections too.
type WebsocketConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebsocketConn wraps an established connection, client or server side.
func NewWebsocketConn(conn *websocket.Conn, writeTimeout time.Duration) *WebsocketConn {
	return &WebsocketConn{conn: conn, writeTimeout: writeTimeout}
}

// Send writes one text frame within the write timeout.
func (c *WebsocketConn) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sendCtx, cancel := sendContext(ctx, c.writeTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := sendCtx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("websocket send: %w", classify(err))
	}
	return nil
}

// Receive returns the next text frame, skipping binary frames.
func (c *WebsocketConn) Receive(ctx context.Context) (string, error) {
	// Unblock the read when ctx ends; the connection is unusable afterwards.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		mt, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("websocket receive: %w", classify(err))
		}
		if mt != websocket.TextMessage {
			continue
		}
		return string(payload), nil
	}
}

// Close sends a close frame and closes the socket.
func (c *WebsocketConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// classify maps orderly close conditions onto ErrClosed.
func classify(err error) error {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		return fmt.Errorf("%w: %v", ErrClosed, err)
	case errors.Is(err, net.ErrClosed), errors.Is(err, websocket.ErrCloseSent):
		return fmt.Errorf("%w: %v", ErrClosed, err)
	default:
		return err
	}
}
