package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/archive"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "start", "row", "console", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderStart announces a render and the image size the client should allocate
type RenderStart struct {
	RenderID       string `json:"renderId"`
	Scene          string `json:"scene"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	MaxDepth       int    `json:"maxDepth"`
	PrimitiveCount int    `json:"primitiveCount"`
}

// RowUpdate carries one finished row as base64 encoded RGB bytes
type RowUpdate struct {
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	ImageData string `json:"imageData"`
}

// RenderComplete reports the statistics of a finished render
type RenderComplete struct {
	RenderID  string               `json:"renderId"`
	ElapsedMs int64                `json:"elapsedMs"`
	Stats     renderer.RenderStats `json:"stats"`
	Archive   string               `json:"archive,omitempty"`
}

// sseStream serializes all writes to one SSE response in a single goroutine
type sseStream struct {
	w       http.ResponseWriter
	events  chan SSEEvent
	console chan ConsoleMessage
	done    chan struct{}
}

func newSSEStream(w http.ResponseWriter) *sseStream {
	return &sseStream{
		w:       w,
		events:  make(chan SSEEvent, 100),
		console: make(chan ConsoleMessage, 50),
		done:    make(chan struct{}),
	}
}

// run writes events until the event channel is closed or the client disconnects
func (st *sseStream) run(ctx context.Context) {
	defer close(st.done)
	for {
		select {
		case event, ok := <-st.events:
			if !ok {
				return
			}
			if err := st.write(event); err != nil {
				return
			}

		case msg := <-st.console:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := st.write(SSEEvent{Type: "console", Data: string(data)}); err != nil {
				return
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

func (st *sseStream) write(event SSEEvent) error {
	if _, err := fmt.Fprintf(st.w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := st.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// send queues an event, giving up when the client disconnects
func (st *sseStream) send(ctx context.Context, eventType string, payload any) {
	var data string
	if s, ok := payload.(string); ok {
		data = s
	} else {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return
		}
		data = string(encoded)
	}
	select {
	case st.events <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
	}
}

// finish stops accepting events and waits for the writer to drain
func (st *sseStream) finish() {
	close(st.events)
	<-st.done
}

// handleRender renders a scene and streams finished rows via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)

	ctx := r.Context()
	stream := newSSEStream(w)
	go stream.run(ctx)
	defer stream.finish()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		stream.send(ctx, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := s.newID()
	logger := logging.FromContext(ctx).With(logging.String("render_id", renderID), logging.String("scene", req.Scene))
	webLogger := NewWebLogger(renderID, stream.console, logger)

	sceneObj, rt, err := s.newRaytracer(req, webLogger)
	if err != nil {
		logger.Warn("render rejected", logging.Error(err))
		stream.send(ctx, "error", err.Error())
		return
	}

	width, height := rt.ImageSize()
	stream.send(ctx, "start", RenderStart{
		RenderID:       renderID,
		Scene:          req.Scene,
		Width:          width,
		Height:         height,
		MaxDepth:       sceneObj.GetMaxDepth(),
		PrimitiveCount: sceneObj.GetPrimitiveCount(),
	})

	writer, err := s.openArchive(renderID, req, sceneObj, width, height)
	if err != nil {
		logger.Error("failed to open archive", logging.Error(err))
	}

	startTime := time.Now()
	stats, err := rt.RenderParallel(ctx, renderer.NewImageSink(width, height), func(row renderer.RowResult) {
		if writer != nil {
			if err := writer.AppendRow(row.Y, row.Colors); err != nil {
				logger.Error("failed to archive row", logging.Int("y", row.Y), logging.Error(err))
			}
		}
		stream.send(ctx, "row", RowUpdate{Y: row.Y, Width: width, ImageData: base64.StdEncoding.EncodeToString(encodeRGB(row.Colors))})
	})

	complete := RenderComplete{RenderID: renderID, ElapsedMs: time.Since(startTime).Milliseconds(), Stats: stats}
	if writer != nil {
		writer.SetStats(stats)
		if closeErr := writer.Close(); closeErr != nil {
			logger.Error("failed to close archive", logging.Error(closeErr))
		} else {
			complete.Archive = writer.Directory()
		}
	}

	if err != nil {
		logger.Info("render stopped", logging.Error(err))
		stream.send(ctx, "error", fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	logger.Info("render complete", logging.Duration("elapsed", stats.Elapsed), logging.Any("events", stats.Events))
	stream.send(ctx, "complete", complete)
}

// openArchive starts an archive for the render when an archive directory is configured
func (s *Server) openArchive(renderID string, req *RenderRequest, sceneObj *scene.Scene, width, height int) (*archive.Writer, error) {
	if s.cfg.ArchiveDir == "" {
		return nil, nil
	}
	return archive.NewWriter(s.cfg.ArchiveDir, archive.Metadata{
		RenderID:   renderID,
		Scene:      req.Scene,
		Width:      width,
		Height:     height,
		MaxDepth:   sceneObj.GetMaxDepth(),
		StartDepth: req.StartDepth,
	}, nil)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// encodeRGB clamps a row of colors to 8-bit RGB triples
func encodeRGB(colors []core.Vec3) []byte {
	rgb := make([]byte, 0, len(colors)*3)
	for _, c := range colors {
		px := renderer.ColorToRGBA(c)
		rgb = append(rgb, px.R, px.G, px.B)
	}
	return rgb
}
