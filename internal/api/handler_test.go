//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(db Pinger) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, db, PublicConfig{Provider: "anthropic", Model: "claude-test", BreathingStream: true}).RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Expected JSON content type, got %q", ct)
	}
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return w.Code
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestHealth(t *testing.T) {
	var got map[string]string
	if code := get(t, newTestRouter(fakePinger{}), "/api/health", &got); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if got["status"] != "ok" || got["database"] != "ok" {
		t.Errorf("Unexpected health body: %v", got)
	}

	got = nil
	get(t, newTestRouter(fakePinger{err: errors.New("closed")}), "/api/health", &got)
	if got["status"] != "ok" || got["database"] != "unavailable" {
		t.Errorf("Unexpected degraded health body: %v", got)
	}
}

func TestGetExercise(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		path   string
		name   string
		steps  int
		cycles float64
	}{
		{path: "/api/exercise/box", name: "Box Breathing", steps: 4, cycles: 4},
		{path: "/api/exercise/4-7-8", name: "4-7-8 Breathing", steps: 3, cycles: 4},
		{path: "/api/breathing-exercise/calm", name: "Calming Breath", steps: 2, cycles: 6},
		{path: "/api/exercise/unknown", name: "Calming Breath", steps: 2, cycles: 6},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var got map[string]any
			if code := get(t, router, tt.path, &got); code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", code)
			}
			if got["name"] != tt.name {
				t.Errorf("Expected name %q, got %v", tt.name, got["name"])
			}
			steps, _ := got["steps"].([]any)
			if len(steps) != tt.steps {
				t.Errorf("Expected %d steps, got %d", tt.steps, len(steps))
			}
			if got["cycles"] != tt.cycles {
				t.Errorf("Expected %v cycles, got %v", tt.cycles, got["cycles"])
			}
		})
	}
}

func TestListExercises(t *testing.T) {
	var got []exerciseSummary
	get(t, newTestRouter(nil), "/api/exercises", &got)

	if len(got) != 3 {
		t.Fatalf("Expected 3 exercises, got %d", len(got))
	}
	if got[0].ID != "box" || got[0].TotalSeconds != 64 {
		t.Errorf("Unexpected box summary: %+v", got[0])
	}
	if got[2].ID != "calm" || got[2].TotalSeconds != 60 {
		t.Errorf("Unexpected calm summary: %+v", got[2])
	}
}

func TestCrisisResources(t *testing.T) {
	var got struct {
		Resources []struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
			Type  string `json:"type"`
		} `json:"resources"`
	}
	get(t, newTestRouter(nil), "/api/crisis-resources", &got)

	if len(got.Resources) != 4 {
		t.Fatalf("Expected 4 resources, got %d", len(got.Resources))
	}
	if got.Resources[0].Phone != "988" || got.Resources[0].Type != "crisis" {
		t.Errorf("Unexpected first resource: %+v", got.Resources[0])
	}
}

func TestGetConfig(t *testing.T) {
	var got PublicConfig
	get(t, newTestRouter(nil), "/api/config", &got)
	if got.Provider != "anthropic" || !got.BreathingStream {
		t.Errorf("Unexpected config: %+v", got)
	}
}
