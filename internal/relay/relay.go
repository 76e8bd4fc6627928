// Package relay carries caps lock state to and from a broadcast relay.
//
// A Conn is one live session. The transport never retries; reconnecting is
// the caller's job.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rbright/capsync/internal/config"
	"github.com/rbright/capsync/internal/version"
	"google.golang.org/grpc"
)

// ErrClosed reports an orderly close by either side.
var ErrClosed = errors.New("relay connection closed")

// Dialer opens one session with the relay.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is a persistent text connection. Send and Receive may run concurrently
// with each other but neither may be called concurrently with itself.
type Conn interface {
	Send(ctx context.Context, text string) error
	Receive(ctx context.Context) (string, error)
	Close() error
}

// NewDialer selects a transport by the URL scheme of cfg.URL.
func NewDialer(cfg config.RelayConfig) (Dialer, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return &WebsocketDialer{
			URL:          u.String(),
			DialTimeout:  cfg.DialTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
			Header:       http.Header{"User-Agent": []string{version.UserAgent()}},
		}, nil
	case "nats", "tls":
		return &NATSDialer{
			URL:          u.String(),
			Subject:      cfg.Subject,
			ClientName:   version.UserAgent(),
			DialTimeout:  cfg.DialTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
		}, nil
	case "grpc", "grpcs":
		return &GRPCDialer{
			Target:       u.Host,
			TLS:          strings.EqualFold(u.Scheme, "grpcs"),
			DialTimeout:  cfg.DialTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
			Options:      []grpc.DialOption{grpc.WithUserAgent(version.UserAgent())},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}
}

// sendContext bounds a send by the write timeout without extending ctx.
func sendContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
