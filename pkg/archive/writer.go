package archive

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

const (
	// Version is the archive layout version written to the manifest
	Version = 1

	manifestFile = "manifest.json"
	eventsFile   = "events.jsonl.sz"
	rowsFile     = "rows.bin.zst"
)

var (
	// ErrClosed is returned when appending to a closed writer
	ErrClosed = errors.New("archive writer closed")

	idCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// Metadata describes the render an archive belongs to
type Metadata struct {
	RenderID   string `json:"render_id"`
	Scene      string `json:"scene"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	MaxDepth   int    `json:"max_depth"`
	StartDepth int    `json:"start_depth"`
}

// Manifest describes the archive layout so readers can locate its streams
type Manifest struct {
	Version    int                   `json:"version"`
	CreatedAt  string                `json:"created_at"`
	Render     Metadata              `json:"render"`
	EventsPath string                `json:"events_path"`
	RowsPath   string                `json:"rows_path"`
	Rows       int                   `json:"rows"`
	Events     int                   `json:"events"`
	Stats      *renderer.RenderStats `json:"stats,omitempty"`
}

// Writer streams rendered rows and trace events to an archive directory.
// Rows go to a zstd stream of length-prefixed float64 records, events to a
// snappy-framed JSON lines stream. Writer is safe for concurrent use and
// implements core.TraceHook so it can be attached to a render directly.
type Writer struct {
	mu          sync.Mutex
	dir         string
	manifest    Manifest
	eventFile   *os.File
	eventStream *snappy.Writer
	rowFile     *os.File
	rowStream   *zstd.Encoder
	hookErr     error
	closed      bool
}

// NewWriter creates a new archive directory under root and opens its streams
func NewWriter(root string, meta Metadata, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := idCleaner.ReplaceAllString(meta.RenderID, "")
	if cleaned == "" {
		cleaned = "render"
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, err
	}
	rowFile, err := os.Create(filepath.Join(dir, rowsFile))
	if err != nil {
		eventFile.Close()
		return nil, err
	}
	rowStream, err := zstd.NewWriter(rowFile)
	if err != nil {
		eventFile.Close()
		rowFile.Close()
		return nil, err
	}

	w := &Writer{
		dir: dir,
		manifest: Manifest{
			Version:    Version,
			CreatedAt:  created.Format(time.RFC3339Nano),
			Render:     meta,
			EventsPath: eventsFile,
			RowsPath:   rowsFile,
		},
		eventFile:   eventFile,
		eventStream: snappy.NewBufferedWriter(eventFile),
		rowFile:     rowFile,
		rowStream:   rowStream,
	}

	if err := w.writeManifest(); err != nil {
		w.rowStream.Close()
		w.rowFile.Close()
		w.eventStream.Close()
		w.eventFile.Close()
		return nil, err
	}
	return w, nil
}

// Directory returns the archive directory
func (w *Writer) Directory() string {
	return w.dir
}

// AppendRow writes one rendered row. Each record is a little-endian header of
// row index and pixel count followed by three float64 values per pixel.
func (w *Writer) AppendRow(y int, colors []core.Vec3) error {
	buf := make([]byte, 8+len(colors)*24)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(y))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(colors)))
	off := 8
	for _, c := range colors {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(c.X))
		binary.LittleEndian.PutUint64(buf[off+8:], math.Float64bits(c.Y))
		binary.LittleEndian.PutUint64(buf[off+16:], math.Float64bits(c.Z))
		off += 24
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := w.rowStream.Write(buf); err != nil {
		return fmt.Errorf("failed to write row %d: %w", y, err)
	}
	w.manifest.Rows++
	return nil
}

// AppendEvent writes one trace event as a JSON line
func (w *Writer) AppendEvent(event core.TraceEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := w.eventStream.Write(line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	w.manifest.Events++
	return nil
}

// OnTraceEvent archives the event. Write failures are kept and reported by Close.
func (w *Writer) OnTraceEvent(event core.TraceEvent) {
	if err := w.AppendEvent(event); err != nil {
		w.mu.Lock()
		if w.hookErr == nil {
			w.hookErr = err
		}
		w.mu.Unlock()
	}
}

// SetStats records the render statistics in the manifest written on Close
func (w *Writer) SetStats(stats renderer.RenderStats) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.manifest.Stats = &stats
}

// Manifest returns a copy of the current manifest
func (w *Writer) Manifest() Manifest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.manifest
}

// Close flushes both streams, rewrites the manifest with final counts and
// releases the files. It returns the first error encountered.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	firstErr := w.hookErr
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(w.eventStream.Close())
	keep(w.eventFile.Close())
	keep(w.rowStream.Close())
	keep(w.rowFile.Close())
	keep(w.writeManifest())
	return firstErr
}

// writeManifest persists the manifest; callers must hold the mutex or own w exclusively
func (w *Writer) writeManifest() error {
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, manifestFile), data, 0o644)
}
