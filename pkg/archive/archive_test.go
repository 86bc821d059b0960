package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/archive"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

type quietLogger struct{}

func (quietLogger) Printf(string, ...interface{}) {}

func fixedClock() time.Time {
	return time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
}

func TestWriter_DirectoryName(t *testing.T) {
	root := t.TempDir()
	w, err := archive.NewWriter(root, archive.Metadata{RenderID: "a/b c"}, fixedClock)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()

	expected := filepath.Join(root, "abc-20240710T120000Z")
	if w.Directory() != expected {
		t.Errorf("Expected directory %s, got %s", expected, w.Directory())
	}
	if _, err := os.Stat(filepath.Join(expected, "manifest.json")); err != nil {
		t.Errorf("Manifest not written on creation: %v", err)
	}
}

func TestWriter_RequiresRoot(t *testing.T) {
	if _, err := archive.NewWriter("", archive.Metadata{}, nil); err == nil {
		t.Error("Expected an error for an empty root")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	rows := map[int][]core.Vec3{
		0: {core.NewVec3(1, 2, 3), core.NewVec3(-0.5, 300.25, 0)},
		1: {core.NewVec3(255, 255, 255), core.NewVec3(0, 0, 0)},
	}
	events := []core.TraceEvent{
		{Kind: core.EventHit, Depth: 0, Primitive: "ball", Point: core.NewVec3(0, 0, -10), Distance: 9},
		{Kind: core.EventRefract, Depth: 0, Primitive: "ball", Angle: 0.25, Value: 0.5},
	}

	w, err := archive.NewWriter(t.TempDir(), archive.Metadata{RenderID: "round-trip", Width: 2, Height: 2}, fixedClock)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	// Rows arrive in completion order
	for _, y := range []int{1, 0} {
		if err := w.AppendRow(y, rows[y]); err != nil {
			t.Fatalf("AppendRow(%d) failed: %v", y, err)
		}
	}
	for _, e := range events {
		w.OnTraceEvent(e)
	}
	w.SetStats(renderer.RenderStats{Width: 2, Height: 2, TotalPixels: 4})
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := archive.Open(w.Directory())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	manifest := r.Manifest()
	if manifest.Rows != 2 || manifest.Events != 2 {
		t.Errorf("Expected 2 rows and 2 events in manifest, got %d and %d", manifest.Rows, manifest.Events)
	}
	if manifest.Stats == nil || manifest.Stats.TotalPixels != 4 {
		t.Errorf("Expected stats in manifest, got %+v", manifest.Stats)
	}

	var order []int
	err = r.ReadRows(func(y int, colors []core.Vec3) error {
		order = append(order, y)
		for x, c := range colors {
			if c != rows[y][x] {
				t.Errorf("Row %d pixel %d: expected %v, got %v", y, x, rows[y][x], c)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 0 {
		t.Errorf("Expected rows in write order [1 0], got %v", order)
	}

	var got []core.TraceEvent
	if err := r.ReadEvents(func(e core.TraceEvent) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, events[i], got[i])
		}
	}
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := archive.NewWriter(t.TempDir(), archive.Metadata{}, fixedClock)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.AppendRow(0, nil); !errors.Is(err, archive.ErrClosed) {
		t.Errorf("Expected ErrClosed from AppendRow, got %v", err)
	}
	if err := w.AppendEvent(core.TraceEvent{}); !errors.Is(err, archive.ErrClosed) {
		t.Errorf("Expected ErrClosed from AppendEvent, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := archive.Open(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist for a missing manifest, got %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"version": 99}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.Open(dir); !errors.Is(err, archive.ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for an unknown version, got %v", err)
	}
}

func TestImage_RejectsMismatchedRows(t *testing.T) {
	w, err := archive.NewWriter(t.TempDir(), archive.Metadata{Width: 3, Height: 1}, fixedClock)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.AppendRow(0, []core.Vec3{{}}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := archive.Open(w.Directory())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := r.Image(); err == nil || !strings.Contains(err.Error(), "row 0") {
		t.Errorf("Expected a row size error, got %v", err)
	}
}

func TestArchive_ParallelRender(t *testing.T) {
	s := scene.NewDefaultScene(renderer.CameraConfig{Width: 30, Height: 20})
	rt, err := renderer.NewRaytracer(s, renderer.DefaultRenderOptions(), quietLogger{})
	if err != nil {
		t.Fatalf("NewRaytracer failed: %v", err)
	}
	width, height := rt.ImageSize()

	w, err := archive.NewWriter(t.TempDir(), archive.Metadata{RenderID: "default", Scene: "default", Width: width, Height: height}, fixedClock)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	rendered := renderer.NewFloatSink(width, height)
	stats, err := rt.RenderParallel(context.Background(), rendered, func(row renderer.RowResult) {
		if err := w.AppendRow(row.Y, row.Colors); err != nil {
			t.Errorf("AppendRow failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("RenderParallel failed: %v", err)
	}
	w.SetStats(stats)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := archive.Open(w.Directory())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	restored, err := r.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	for i := range rendered.Pix {
		if restored.Pix[i] != rendered.Pix[i] {
			t.Fatalf("Restored image differs at %d: %f vs %f", i, restored.Pix[i], rendered.Pix[i])
		}
	}
	if r.Manifest().Rows != height {
		t.Errorf("Expected %d rows in manifest, got %d", height, r.Manifest().Rows)
	}
}
