package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rbright/capsync/internal/config"
	"github.com/rbright/capsync/internal/cue"
	"github.com/rbright/capsync/internal/indicator"
	"github.com/rbright/capsync/internal/ipc"
	"github.com/rbright/capsync/internal/logging"
	"github.com/rbright/capsync/internal/metrics"
	"github.com/rbright/capsync/internal/relay"
	"github.com/rbright/capsync/internal/session"
)

const reloadDebounce = 250 * time.Millisecond

func (r Runner) commandRun(ctx context.Context, loaded config.Loaded, logs logging.Runtime) int {
	logger := logs.Logger

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("acquire runtime socket failed", "path", socketPath, "error", err.Error())
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	d := &daemon{
		logger:       logger,
		logs:         logs,
		recorder:     metrics.NoopRecorder{},
		newIndicator: r.Indicator,
	}
	if d.newIndicator == nil {
		d.newIndicator = indicator.New
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if listen := loaded.Config.Metrics.Listen; listen != "" {
		reg := prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(reg)
		go func() {
			if err := metrics.Serve(ctx, listen, reg, logger); err != nil {
				logger.Error("metrics server failed", "error", err.Error())
			}
		}()
	}

	ctrl, err := d.build(loaded.Config)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("startup failed", "error", err.Error())
		return 1
	}

	ipcErr := make(chan error, 1)
	go func() { ipcErr <- ipc.Serve(ctx, listener, d) }()

	if loaded.Config.Log.StatusInterval() > 0 {
		stop, err := startStatusJob(loaded.Config.Log.StatusInterval(), d.status, logger)
		if err != nil {
			logger.Warn("status job disabled", "error", err.Error())
		} else {
			defer stop()
		}
	}

	reloads := make(chan config.Config, 1)
	if loaded.Exists {
		d.watch(ctx, loaded.Path, reloads)
	}

	logger.Info("capsync running", "relay", loaded.Config.Relay.URL, "socket", socketPath)
	runErr := d.run(ctx, ctrl, reloads)

	cancel()
	if err := <-ipcErr; err != nil {
		logger.Error("ipc server failed", "error", err.Error())
	}

	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	logger.Info("capsync stopped")
	return 0
}

// daemon owns the current controller and swaps it when the config changes.
type daemon struct {
	logger       *slog.Logger
	logs         logging.Runtime
	recorder     metrics.Recorder
	newIndicator func(config.IndicatorConfig) (indicator.Adapter, error)

	current atomic.Pointer[session.Controller]
}

// build constructs a controller from cfg. Failures here are preconditions.
func (d *daemon) build(cfg config.Config) (*session.Controller, error) {
	adapter, err := d.newIndicator(cfg.Indicator)
	if err != nil {
		return nil, fmt.Errorf("caps lock indicator: %w", err)
	}
	dialer, err := relay.NewDialer(cfg.Relay)
	if err != nil {
		return nil, err
	}

	return session.NewController(session.Options{
		Dialer:        dialer,
		Indicator:     adapter,
		Logger:        d.logger,
		Metrics:       d.recorder,
		Cue:           cue.New(cfg.Cue, d.logger),
		PollInterval:  cfg.Sync.PollInterval(),
		RetryDelay:    cfg.Sync.RetryDelay(),
		QueueSize:     cfg.Sync.QueueSize,
		ApplyAttempts: cfg.Sync.ApplyAttempts,
	}), nil
}

// run drives ctrl until ctx ends or it fails, restarting it on each valid reload.
func (d *daemon) run(ctx context.Context, ctrl *session.Controller, reloads <-chan config.Config) error {
	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		d.current.Store(ctrl)
		go func(c *session.Controller) { done <- c.Run(runCtx) }(ctrl)

		next, err := d.awaitReload(done, reloads)
		cancel()
		if next == nil {
			return err
		}
		<-done
		ctrl = next
	}
}

func (d *daemon) awaitReload(done <-chan error, reloads <-chan config.Config) (*session.Controller, error) {
	for {
		select {
		case err := <-done:
			return nil, err
		case cfg := <-reloads:
			next, err := d.build(cfg)
			if err != nil {
				d.logger.Error("config reload rejected; keeping current config", "error", err.Error())
				continue
			}
			if err := d.logs.SetLevel(cfg.Log.Level); err != nil {
				d.logger.Debug("log level unchanged", "error", err.Error())
			}
			d.logger.Info("config reloaded; restarting sync", "relay", cfg.Relay.URL)
			return next, nil
		}
	}
}

// watch feeds valid configs into reloads. Only the newest pending config is kept.
func (d *daemon) watch(ctx context.Context, path string, reloads chan config.Config) {
	watcher, err := config.NewWatcher(path, reloadDebounce, d.logger)
	if err != nil {
		d.logger.Warn("config hot reload disabled", "error", err.Error())
		return
	}

	go func() {
		_ = watcher.Run(ctx, func() {
			loaded, err := config.Load(path)
			if err != nil {
				d.logger.Error("config reload failed; keeping current config", "error", err.Error())
				return
			}
			for _, w := range loaded.Warnings {
				d.logger.Warn("config warning", "line", w.Line, "message", w.Message)
			}
			select {
			case <-reloads:
			default:
			}
			reloads <- loaded.Config
		})
	}()
}

// Handle serves IPC requests against whichever controller is current.
func (d *daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	ctrl := d.current.Load()
	if ctrl == nil {
		return ipc.Response{OK: false, Error: errNotStarted.Error()}
	}
	return ctrl.Handle(ctx, req)
}

var errNotStarted = errors.New("sync has not started")

func (d *daemon) status() (session.Status, bool) {
	ctrl := d.current.Load()
	if ctrl == nil {
		return session.Status{}, false
	}
	return ctrl.Status(), true
}
