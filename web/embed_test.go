package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html": {Data: []byte("<html>coach</html>")},
		"app.js":     {Data: []byte("console.log('hi')")},
	}
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSPAHandlerServesFiles(t *testing.T) {
	h := spaHandler(testFS())

	w := serve(h, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = serve(h, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coach")
}

func TestSPAHandlerFallsBackToIndex(t *testing.T) {
	w := serve(spaHandler(testFS()), "/breathe/box")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coach")
}

func TestSPAHandlerUnknownAPIPath(t *testing.T) {
	w := serve(spaHandler(testFS()), "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestEmbeddedIndexPresent(t *testing.T) {
	w := serve(SPAHandler(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recovery Coach")
}
