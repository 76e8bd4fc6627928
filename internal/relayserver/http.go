package relayserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rbright/capsync/internal/relay"
)

const sendTimeout = 5 * time.Second

// NewRouter serves the websocket relay at /ws and a liveness probe at /healthz.
func NewRouter(hub *Hub, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(accessLog(logger))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Error("failed to upgrade", "error", err.Error())
			return
		}
		if err := hub.Serve(req.Context(), relay.NewWebsocketConn(conn, sendTimeout)); err != nil {
			logger.Debug("websocket peer ended", "remote", req.RemoteAddr, "error", err.Error())
		}
	})
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})

	return r
}

// accessLog logs one line per handled request.
func accessLog(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, req)
			logger.Info("handled", "method", req.Method, "url", req.URL.String(), "duration", m.Duration, "status", m.Code)
		})
	}
}
