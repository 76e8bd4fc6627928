package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rbright/capsync/internal/session"
)

// startStatusJob logs a status summary every interval. The returned func
// stops the scheduler.
func startStatusJob(interval time.Duration, status func() (session.Status, bool), logger *slog.Logger) (func(), error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create status scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(logStatus, status, logger),
		gocron.WithName("sync-status"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule status job: %w", err)
	}

	s.Start()
	return func() { _ = s.Shutdown() }, nil
}

func logStatus(status func() (session.Status, bool), logger *slog.Logger) {
	st, ok := status()
	if !ok {
		return
	}
	logger.Info("sync status",
		"state", st.State,
		"session_id", st.SessionID,
		"since", st.Since.Format(time.RFC3339),
		"summary", st.Summary(),
		"last_error", st.LastError,
	)
}
