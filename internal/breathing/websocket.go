package breathing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/recovery-coach/internal/identity"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// StreamHandler runs a server-side breathing session over a WebSocket.
// Clients send {"type":"start"}, {"type":"stop"},
// {"type":"select","exercise":"box"} or {"type":"ping"}; the server
// answers with state frames after every transition.
type StreamHandler struct {
	catalog       *Catalog
	sm            *StreamManager
	clock         Clock
	allowedOrigin string
	isDev         bool
}

// NewStreamHandler creates a new breathing stream handler.
func NewStreamHandler(catalog *Catalog, sm *StreamManager, allowedOrigin string, isDev bool) *StreamHandler {
	return &StreamHandler{
		catalog:       catalog,
		sm:            sm,
		clock:         RealClock(),
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// SetClock replaces the tick source.
func (h *StreamHandler) SetClock(clock Clock) {
	h.clock = clock
}

type clientFrame struct {
	Type     string `json:"type"`
	Exercise string `json:"exercise,omitempty"`
}

type serverFrame struct {
	Type     string    `json:"type"`
	Event    string    `json:"event,omitempty"`
	Status   *Status   `json:"status,omitempty"`
	Exercise *Exercise `json:"exercise,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Breathing stream request", "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	streamKey := identity.CookieSessionID(r)
	if streamKey == "" {
		streamKey = identity.NewSessionID()
	}
	h.sm.Register(streamKey, ws)
	defer h.sm.Unregister(streamKey, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	initial := h.catalog.Get(r.URL.Query().Get("exercise"))
	session := NewSession(initial)
	runner := NewRunner(session, h.catalog, h.clock, func(st Status, ev Event) {
		frameType := "state"
		if ev == EventCompleted {
			frameType = "complete"
		}
		if err := h.write(ctx, ws, serverFrame{Type: frameType, Event: ev.String(), Status: &st}); err != nil {
			slog.Debug("Failed to write breathing state", "error", err, "session_id", sessionID)
			cancel()
		}
	})

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Breathing runner stopped", "error", err, "session_id", sessionID)
		}
	}()

	if err := h.write(ctx, ws, serverFrame{Type: "exercise", Exercise: initial}); err != nil {
		slog.Debug("Failed to send initial exercise", "error", err, "session_id", sessionID)
		cancel()
	}

	h.readLoop(ctx, ws, runner, sessionID)
	cancel()
	<-runDone
	slog.Info("Breathing stream ended", "session_id", sessionID)
}

func (h *StreamHandler) readLoop(ctx context.Context, ws *websocket.Conn, runner *Runner, sessionID string) {
	for {
		var msg clientFrame
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Breathing stream closed by client", "session_id", sessionID)
			} else {
				slog.Warn("Breathing stream read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var err error
		switch msg.Type {
		case "start":
			_, err = runner.Start(ctx)
		case "stop":
			_, err = runner.Stop(ctx)
		case "select":
			var st Status
			st, err = runner.Select(ctx, msg.Exercise)
			if err == nil {
				err = h.write(ctx, ws, serverFrame{Type: "exercise", Exercise: h.catalog.Get(st.ExerciseID)})
			}
		case "ping":
			err = h.write(ctx, ws, serverFrame{Type: "pong"})
		default:
			err = h.write(ctx, ws, serverFrame{Type: "error", Error: "unknown message type"})
		}

		if errors.Is(err, ErrSessionActive) {
			text := "stop the exercise before changing it"
			if msg.Type == "start" {
				text = "exercise is already running"
			}
			if writeErr := h.write(ctx, ws, serverFrame{Type: "error", Error: text}); writeErr != nil {
				return
			}
			continue
		}
		if err != nil {
			slog.Debug("Breathing stream command failed", "type", msg.Type, "error", err, "session_id", sessionID)
			return
		}
	}
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *StreamHandler) write(ctx context.Context, ws *websocket.Conn, frame serverFrame) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, ws, frame)
}
