package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/klauspost/compress/gzip"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{"WARNING", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestLogger_LevelFilterAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, InfoLevel).With(String("scene", "default"))

	logger.Debug("hidden")
	logger.Info("render complete", Int("rows", 801), Duration("elapsed", 1500*time.Millisecond))
	logger.Printf("Rendering %dx%d\n", 1201, 801)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %s", len(entries), buf.String())
	}

	first := entries[0]
	if first["message"] != "render complete" || first["level"] != "info" || first["scene"] != "default" {
		t.Errorf("unexpected entry: %v", first)
	}
	if first["rows"] != float64(801) || first["elapsed_ms"] != float64(1500) {
		t.Errorf("unexpected fields: %v", first)
	}
	if entries[1]["message"] != "Rendering 1201x801" {
		t.Errorf("unexpected Printf message: %q", entries[1]["message"])
	}
}

func TestLogger_WithDoesNotModifyParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger(&buf, DebugLevel)
	_ = parent.With(String("child", "yes"))

	parent.Info("plain")
	entries := decodeLines(t, &buf)
	if _, ok := entries[0]["child"]; ok {
		t.Errorf("parent picked up child field: %v", entries[0])
	}
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, DebugLevel)

	var fromCtx *Logger
	handler := HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		fromCtx.Info("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scenes", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("expected request ID to be echoed, got %q", rec.Header().Get(RequestIDHeader))
	}
	if fromCtx == nil || fromCtx == base {
		t.Fatal("expected a derived logger in the request context")
	}
	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e[RequestIDField] != "req-42" {
			t.Errorf("entry missing request id: %v", e)
		}
	}
	if entries[1]["path"] != "/api/scenes" {
		t.Errorf("unexpected request entry: %v", entries[1])
	}

	// A missing header gets a generated ID
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("expected a generated UUID, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRotatingWriter_RotatesAndCompresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "raytracer.log")
	w, err := openRotatingWriter(path, 16, 2, true)
	if err != nil {
		t.Fatalf("openRotatingWriter failed: %v", err)
	}
	defer w.Close()

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	for _, line := range []string{"first line 1234\n", "second line 123\n", "third line 1234\n", "fourth line 123\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	backups, err := listBackups(path)
	if err != nil {
		t.Fatalf("listBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after cleanup, got %v", backups)
	}

	// The oldest surviving backup holds the second line
	f, err := os.Open(backups[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("backup is not gzip: %v", err)
	}
	var content bytes.Buffer
	if _, err := content.ReadFrom(gz); err != nil {
		t.Fatal(err)
	}
	if content.String() != "second line 123\n" {
		t.Errorf("unexpected backup content %q", content.String())
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(current) != "fourth line 123\n" {
		t.Errorf("unexpected current content %q", current)
	}
}

func TestNew_InvalidRotation(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Path: filepath.Join(t.TempDir(), "x.log"), MaxSizeMB: 0}
	if _, err := New(cfg, "test"); err == nil {
		t.Error("expected an error for a zero max size")
	}
	if _, err := New(config.LoggingConfig{Level: "loud"}, "test"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestRotatingWriter_KeepsWritingWhenRotationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raytracer.log")
	w, err := openRotatingWriter(path, 16, 0, false)
	if err != nil {
		t.Fatalf("openRotatingWriter failed: %v", err)
	}
	defer w.Close()

	const layout = "20060102T150405.000000000"
	blocked := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return blocked }

	// A directory at the rotated name makes the rename fail
	if err := os.MkdirAll(filepath.Join(path+"."+blocked.Format(layout), "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	lines := []string{"first line 1234\n", "second line 123\n", "third line 1234\n"}
	for _, line := range lines {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(current) != strings.Join(lines, "") {
		t.Errorf("unexpected current content %q", current)
	}

	// With the way clear the next write rotates everything written so far
	unblocked := blocked.Add(time.Second)
	w.now = func() time.Time { return unblocked }
	if _, err := w.Write([]byte("fourth line 123\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rotated, err := os.ReadFile(path + "." + unblocked.Format(layout))
	if err != nil {
		t.Fatalf("expected a rotated file: %v", err)
	}
	if string(rotated) != strings.Join(lines, "") {
		t.Errorf("unexpected rotated content %q", rotated)
	}
	if current, _ := os.ReadFile(path); string(current) != "fourth line 123\n" {
		t.Errorf("unexpected current content %q", current)
	}
}
