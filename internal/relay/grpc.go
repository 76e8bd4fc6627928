package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCDialer opens a capsync.v1.Relay/Stream bidirectional stream.
type GRPCDialer struct {
	Target       string
	TLS          bool
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// Options are appended after the transport credentials.
	Options []grpc.DialOption
}

// Dial waits for the client to become ready and opens the stream.
func (d *GRPCDialer) Dial(ctx context.Context) (Conn, error) {
	creds := insecure.NewCredentials()
	if d.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, d.Options...)

	conn, err := grpc.NewClient(d.Target, opts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", d.Target, err)
	}

	dialCtx, cancel := sendContext(ctx, d.DialTimeout)
	defer cancel()

	conn.Connect()
	if err := waitForReady(dialCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect grpc %s: %w", d.Target, err)
	}

	// The stream outlives Dial's ctx; Close ends it.
	streamCtx, streamCancel := context.WithCancel(context.Background())
	stream, err := conn.NewStream(
		streamCtx,
		&grpc.StreamDesc{StreamName: grpcStreamName, ServerStreams: true, ClientStreams: true},
		grpcStreamPath,
	)
	if err != nil {
		streamCancel()
		_ = conn.Close()
		return nil, fmt.Errorf("open relay stream: %w", err)
	}

	return &grpcConn{
		conn:         conn,
		stream:       stream,
		cancel:       streamCancel,
		writeTimeout: d.WriteTimeout,
	}, nil
}

// waitForReady blocks until the gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}

type grpcConn struct {
	conn         *grpc.ClientConn
	stream       grpc.ClientStream
	cancel       context.CancelFunc
	writeTimeout time.Duration

	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Send writes one StringValue message.
func (c *grpcConn) Send(ctx context.Context, text string) error {
	sendCtx, cancel := sendContext(ctx, c.writeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		c.sendMu.Lock()
		defer c.sendMu.Unlock()
		done <- c.stream.SendMsg(wrapperspb.String(text))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("grpc send: %w", classifyGRPC(err))
		}
		return nil
	case <-sendCtx.Done():
		// A stuck SendMsg only returns once the stream is torn down.
		c.cancel()
		return fmt.Errorf("grpc send: %w", sendCtx.Err())
	}
}

// Receive returns the next message; ErrClosed when the server ends the stream.
func (c *grpcConn) Receive(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()

	msg := new(wrapperspb.StringValue)
	if err := c.stream.RecvMsg(msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("grpc receive: %w", classifyGRPC(err))
	}
	return msg.GetValue(), nil
}

// Close ends the stream and the client connection.
func (c *grpcConn) Close() error {
	c.closeOnce.Do(func() {
		// CloseSend must not race a SendMsg; skip the half-close if one is in flight.
		if c.sendMu.TryLock() {
			_ = c.stream.CloseSend()
			c.sendMu.Unlock()
		}
		c.cancel()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func classifyGRPC(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrClosed
	}
	if status.Code(err) == codes.Canceled {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
