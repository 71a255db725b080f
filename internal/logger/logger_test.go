package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("forwarded", `for="203.0.113.9";proto=https`)
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r.Header.Set("x-real-ip", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(r))

	r.Header.Set("x-forwarded-for", "192.0.2.7, 10.0.0.2")
	assert.Equal(t, "192.0.2.7", ClientIP(r))
}

func TestAccessMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug, "json")
	h := AccessMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid region: x"))
	}))
	r := httptest.NewRequest(http.MethodGet, "/ip-ranges?region=x", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "http_access", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "/ip-ranges", rec["path"])
	assert.Equal(t, "region=x", rec["query"])
	assert.Equal(t, float64(400), rec["status"])
	assert.Equal(t, float64(len("Invalid region: x")), rec["bytes"])
}

func TestUseReplacesDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, "text")
	Use(l)
	t.Cleanup(func() { Use(nil) })
	assert.Same(t, l, L())
}
