package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/golang/snappy"
	"github.com/gorilla/websocket"
)

const (
	rowHeaderSize = 8
	writeWait     = 10 * time.Second
	maxControlMsg = 512
)

// ErrBadFrame is returned when a row frame does not decode
var ErrBadFrame = errors.New("malformed row frame")

// StreamMessage is a JSON control message on the render WebSocket.
// The server sends "start", "complete" and "error"; clients may send "cancel".
type StreamMessage struct {
	Type     string          `json:"type"`
	Start    *RenderStart    `json:"start,omitempty"`
	Complete *RenderComplete `json:"complete,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// EncodeRowFrame builds the binary frame for one row: a little-endian header
// of row index and pixel count followed by RGB bytes, snappy compressed
func EncodeRowFrame(y int, rgb []byte) []byte {
	raw := make([]byte, rowHeaderSize+len(rgb))
	binary.LittleEndian.PutUint32(raw[0:4], uint32(y))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(rgb)/3))
	copy(raw[rowHeaderSize:], rgb)
	return snappy.Encode(nil, raw)
}

// DecodeRowFrame reverses EncodeRowFrame
func DecodeRowFrame(frame []byte) (y, width int, rgb []byte, err error) {
	raw, err := snappy.Decode(nil, frame)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	if len(raw) < rowHeaderSize {
		return 0, 0, nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(raw))
	}
	y = int(binary.LittleEndian.Uint32(raw[0:4]))
	width = int(binary.LittleEndian.Uint32(raw[4:8]))
	rgb = raw[rowHeaderSize:]
	if len(rgb) != width*3 {
		return 0, 0, nil, fmt.Errorf("%w: %d pixels but %d color bytes", ErrBadFrame, width, len(rgb))
	}
	return y, width, rgb, nil
}

// discardSink drops pixels; the stream forwards rows as they finish
type discardSink struct{}

func (discardSink) SetPixel(int, int, core.Vec3) {}

// handleStream renders a scene and streams rows over a WebSocket as binary frames
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := logging.FromContext(r.Context())
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readControl(conn, cancel)
	go s.keepAlive(ctx, conn)

	renderID := s.newID()
	logger = logger.With(logging.String("render_id", renderID), logging.String("scene", req.Scene))

	sceneObj, rt, err := s.newRaytracer(req, logger)
	if err != nil {
		logger.Warn("render rejected", logging.Error(err))
		writeControl(conn, StreamMessage{Type: "error", Error: err.Error()})
		closeNormal(conn)
		return
	}

	width, height := rt.ImageSize()
	start := &RenderStart{
		RenderID:       renderID,
		Scene:          req.Scene,
		Width:          width,
		Height:         height,
		MaxDepth:       sceneObj.GetMaxDepth(),
		PrimitiveCount: sceneObj.GetPrimitiveCount(),
	}
	if err := writeControl(conn, StreamMessage{Type: "start", Start: start}); err != nil {
		return
	}

	startTime := time.Now()
	stats, err := rt.RenderParallel(ctx, discardSink{}, func(row renderer.RowResult) {
		if ctx.Err() != nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, EncodeRowFrame(row.Y, encodeRGB(row.Colors))); err != nil {
			logger.Info("stream write failed", logging.Error(err))
			cancel()
		}
	})
	if err != nil {
		logger.Info("render stopped", logging.Error(err))
		writeControl(conn, StreamMessage{Type: "error", Error: err.Error()})
		closeNormal(conn)
		return
	}

	logger.Info("render complete", logging.Duration("elapsed", stats.Elapsed), logging.Any("events", stats.Events))
	writeControl(conn, StreamMessage{
		Type:     "complete",
		Complete: &RenderComplete{RenderID: renderID, ElapsedMs: time.Since(startTime).Milliseconds(), Stats: stats},
	})
	closeNormal(conn)
}

// readControl consumes client messages, cancelling the render on a "cancel"
// message or when the connection drops
func readControl(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxControlMsg)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var msg StreamMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == "cancel" {
			return
		}
	}
}

// keepAlive pings the client until ctx is done. WriteControl may run
// concurrently with the row writer.
func (s *Server) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeControl(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func closeNormal(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
