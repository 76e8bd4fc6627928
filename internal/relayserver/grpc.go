package relayserver

import (
	"context"
	"errors"
	"io"

	"github.com/rbright/capsync/internal/relay"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCService implements relay.StreamServer on top of a Hub.
type GRPCService struct {
	Hub *Hub
}

var _ relay.StreamServer = (*GRPCService)(nil)

// Register attaches the relay service to srv.
func (s *GRPCService) Register(srv *grpc.Server) {
	srv.RegisterService(&relay.ServiceDesc, s)
}

// Stream joins one client stream to the hub until either side ends it.
func (s *GRPCService) Stream(stream grpc.ServerStream) error {
	return s.Hub.Serve(stream.Context(), &serverStreamConn{stream: stream})
}

// serverStreamConn adapts a server-side stream to relay.Conn. Closing is
// implicit: the stream ends when the handler returns.
type serverStreamConn struct {
	stream grpc.ServerStream
}

func (c *serverStreamConn) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.stream.SendMsg(wrapperspb.String(text))
}

func (c *serverStreamConn) Receive(context.Context) (string, error) {
	msg := new(wrapperspb.StringValue)
	if err := c.stream.RecvMsg(msg); err != nil {
		if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
			return "", relay.ErrClosed
		}
		return "", err
	}
	return msg.GetValue(), nil
}

func (c *serverStreamConn) Close() error {
	return nil
}
