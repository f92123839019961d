package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	l.Info("hello", FieldRecordID, "txn_1")
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, ComponentLedger, entry[FieldComponent])
	assert.Equal(t, "txn_1", entry[FieldRecordID])
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf}).WithComponent(ComponentHTTP)
	l.Info("x")
	assert.Equal(t, 1, strings.Count(buf.String(), "component="))
	assert.Contains(t, buf.String(), "component=http")
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())

	mine := New(DefaultConfig())
	assert.Same(t, mine, FromContext(WithLogger(context.Background(), mine)))
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	var seen *Logger
	h := Middleware(base)(RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		seen.Info("inside")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	require.NotNil(t, seen)
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/summary?x=1", nil)
	sl.LogHTTPEnd(ctx, req, http.StatusNotFound, 12, "1.2.3.4")
	sl.LogRecordSaved(ctx, "created", "txn_1", "expense", "12.50", "Food")
	sl.LogError(ctx, "boom", errors.New("bad"), ComponentStorage, OpUpdate, nil)

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status_code":404`)
	assert.Contains(t, out, `"outcome":"created"`)
	assert.Contains(t, out, `"error":"bad"`)
	assert.Contains(t, out, `"component":"storage"`)
}
