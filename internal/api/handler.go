// Package api provides HTTP handlers for the recovery coach API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/recovery-coach/internal/breathing"
	"github.com/ashureev/recovery-coach/internal/domain"
)

// Pinger verifies database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PublicConfig is the client-visible subset of server configuration.
type PublicConfig struct {
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	BreathingStream bool   `json:"breathingStream"`
}

// Handler serves the read-only API endpoints.
type Handler struct {
	catalog *breathing.Catalog
	db      Pinger
	public  PublicConfig
}

// NewHandler creates a new Handler. A nil catalog uses the built-in one.
func NewHandler(catalog *breathing.Catalog, db Pinger, public PublicConfig) *Handler {
	if catalog == nil {
		catalog = breathing.DefaultCatalog()
	}
	return &Handler{catalog: catalog, db: db, public: public}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the read-only API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/crisis-resources", h.CrisisResources)
		r.Get("/exercises", h.ListExercises)
		r.Get("/exercise/{id}", h.GetExercise)
		r.Get("/breathing-exercise/{id}", h.GetExercise)
		r.Get("/config", h.GetConfig)
	})
}

// Health reports liveness. A failing database ping downgrades the status
// without failing the request.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "ok",
		"message": "Recovery Coach API is running",
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("health: database ping failed", "error", err)
			resp["database"] = "unavailable"
		} else {
			resp["database"] = "ok"
		}
	}
	JSON(w, http.StatusOK, resp)
}

// CrisisResources returns the static hotline list.
func (h *Handler) CrisisResources(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string][]domain.CrisisResource{
		"resources": domain.CrisisResources(),
	})
}

// GetExercise returns one exercise definition. Unknown ids get the default.
func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.catalog.Get(chi.URLParam(r, "id")))
}

type exerciseSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Cycles       int    `json:"cycles"`
	TotalSeconds int    `json:"totalSeconds"`
}

// ListExercises returns a summary of every exercise in display order.
func (h *Handler) ListExercises(w http.ResponseWriter, _ *http.Request) {
	ids := h.catalog.IDs()
	out := make([]exerciseSummary, 0, len(ids))
	for _, id := range ids {
		ex := h.catalog.Get(id)
		out = append(out, exerciseSummary{
			ID:           ex.ID(),
			Name:         ex.Name(),
			Description:  ex.Description(),
			Cycles:       ex.Cycles(),
			TotalSeconds: int(ex.TotalDuration().Seconds()),
		})
	}
	JSON(w, http.StatusOK, out)
}

// GetConfig returns client-visible configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.public)
}
