package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/recovery-coach/internal/api"
	"github.com/ashureev/recovery-coach/internal/identity"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (10MB).
const defaultMaxRequestBodySize = 10 << 20

const (
	msgChatFailed  = "Unable to process your message. Please try again."
	msgInvalidKey  = "Invalid API key. Please check your server configuration."
	msgBodyTooBig  = "request body too large"
	msgInvalidBody = "invalid request body"
)

// Handler serves POST /api/chat.
type Handler struct {
	svc         *Service
	maxBodySize int64
	isDev       bool
}

// NewHandler creates a chat handler. isDev adds upstream error details to
// failure responses.
func NewHandler(svc *Service, maxBodySize int64, isDev bool) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &Handler{svc: svc, maxBodySize: maxBodySize, isDev: isDev}
}

// RegisterRoutes registers POST /api/chat behind the given middlewares.
func (h *Handler) RegisterRoutes(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.With(mws...).Post("/api/chat", h.HandleChat)
}

// HandleChat handles POST /api/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			api.Error(w, http.StatusRequestEntityTooLarge, msgBodyTooBig)
			return
		}
		api.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	req.SessionID = identity.SanitizeSessionID(req.SessionID)
	if req.SessionID == "" {
		if sid := identity.SessionIDFromContext(r.Context()); sid != identity.DefaultSessionIDValue {
			req.SessionID = sid
		}
	}
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("chat request",
		"request_id", reqID,
		"session_id", req.SessionID,
		"message_count", len(req.Messages),
	)

	resp, err := h.svc.Reply(r.Context(), req)
	if err != nil {
		h.writeError(w, err, reqID)
		return
	}
	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, reqID string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		api.Error(w, http.StatusBadRequest, verr.Message)
		return
	case errors.Is(err, ErrUpstreamAuth):
		slog.Error("model rejected credentials", "request_id", reqID, "error", err)
		h.writeFailure(w, http.StatusUnauthorized, msgInvalidKey, err)
		return
	default:
		slog.Error("chat relay failed", "request_id", reqID, "error", err)
		h.writeFailure(w, http.StatusInternalServerError, msgChatFailed, err)
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if h.isDev {
		body["details"] = err.Error()
	}
	api.JSON(w, status, body)
}
