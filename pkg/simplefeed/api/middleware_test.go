package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("Hello"))
	})
	wrapped := middleware.RequestID(RequestLogger(logger, "/api")(handler))

	t.Run("logs matching paths", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "Hello", rr.Body.String())

		entries := logEntries(t, &buf)
		require.Len(t, entries, 1)
		entry := entries[0]
		assert.Equal(t, "HTTP request", entry["msg"])
		assert.Equal(t, http.MethodPost, entry["method"])
		assert.Equal(t, "/api/posts", entry["path"])
		assert.Equal(t, float64(http.StatusCreated), entry["status"])
		assert.Equal(t, float64(5), entry["bytes"])
		assert.NotEmpty(t, entry["request_id"])
		assert.Contains(t, entry, "duration")
	})

	t.Run("skips other paths", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Empty(t, logEntries(t, &buf))
	})

	t.Run("empty prefix logs everything", func(t *testing.T) {
		buf.Reset()
		all := RequestLogger(logger, "")(handler)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		all.ServeHTTP(httptest.NewRecorder(), req)

		entries := logEntries(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "/health", entries[0]["path"])
	})

	t.Run("implicit 200", func(t *testing.T) {
		buf.Reset()
		ok := RequestLogger(logger, "/api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))

		ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		entries := logEntries(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, float64(http.StatusOK), entries[0]["status"])
	})
}
