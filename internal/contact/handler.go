package contact

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

const (
	defaultMaxRequestBodySize = 10 << 20

	msgSaved      = "Thank you! We'll be in touch soon."
	msgSaveFailed = "Unable to save your information. Please try again."
)

// Handler serves POST /api/collect-contact.
type Handler struct {
	svc         *Service
	maxBodySize int64
	isDev       bool
}

// NewHandler creates a contact capture handler.
func NewHandler(svc *Service, maxBodySize int64, isDev bool) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &Handler{svc: svc, maxBodySize: maxBodySize, isDev: isDev}
}

// RegisterRoutes registers the contact routes behind the given middlewares.
// /api/collect-email is kept for older clients.
func (h *Handler) RegisterRoutes(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(mws...)
		r.Post("/api/collect-contact", h.HandleCollect)
		r.Post("/api/collect-email", h.HandleCollect)
	})
}

// HandleCollect handles POST /api/collect-contact and its legacy alias.
func (h *Handler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.SessionID = identity.SanitizeSessionID(sub.SessionID)
	if sub.SessionID == "" {
		if sid := identity.SessionIDFromContext(r.Context()); sid != identity.DefaultSessionIDValue {
			sub.SessionID = sid
		}
	}

	if _, err := h.svc.Submit(r.Context(), sub); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			api.Error(w, http.StatusBadRequest, verr.Message)
			return
		}
		slog.Error("contact save failed", "request_id", chiMiddleware.GetReqID(r.Context()), "error", err)
		body := map[string]string{"error": msgSaveFailed}
		if h.isDev {
			body["details"] = err.Error()
		}
		api.JSON(w, http.StatusInternalServerError, body)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msgSaved,
	})
}
