package relayserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"
)

// Options configures Run.
type Options struct {
	Listen     string
	GRPCListen string
	Echo       bool
	// Hub, when set, is used instead of a fresh hub and Echo is ignored.
	Hub    *Hub
	Logger *slog.Logger
	// Ready, when set, receives the bound websocket address once listening.
	Ready func(addr string)
}

// Run serves the relay until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(opts.Echo, logger)
	}

	lis, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Listen, err)
	}
	httpServer := &http.Server{
		Handler:           NewRouter(hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var grpcServer *grpc.Server
	var grpcLis net.Listener
	if opts.GRPCListen != "" {
		grpcLis, err = net.Listen("tcp", opts.GRPCListen)
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("listen %s: %w", opts.GRPCListen, err)
		}
		grpcServer = grpc.NewServer()
		(&GRPCService{Hub: hub}).Register(grpcServer)
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("relay listening", "addr", lis.Addr().String(), "path", "/ws", "echo", hub.echo)
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("websocket relay: %w", err)
		}
	}()

	if grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("relay grpc listening", "addr", grpcLis.Addr().String())
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc relay: %w", err)
			}
		}()
	}

	if opts.Ready != nil {
		opts.Ready(lis.Addr().String())
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = httpServer.Close()
	if grpcServer != nil {
		grpcServer.Stop()
	}
	wg.Wait()

	logger.Info("relay stopped")
	return runErr
}
