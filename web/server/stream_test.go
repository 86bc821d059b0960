package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/gorilla/websocket"
)

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestRowFrame_RoundTrip(t *testing.T) {
	rgb := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255}
	y, width, decoded, err := DecodeRowFrame(EncodeRowFrame(42, rgb))
	if err != nil {
		t.Fatalf("DecodeRowFrame failed: %v", err)
	}
	if y != 42 || width != 3 || !bytes.Equal(decoded, rgb) {
		t.Errorf("Unexpected frame: y=%d width=%d rgb=%v", y, width, decoded)
	}
}

func TestRowFrame_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"not snappy", []byte{0xff, 0xff, 0xff}},
		{"short header", snappy.Encode(nil, []byte{1, 2, 3})},
		{"truncated colors", EncodeRowFrame(1, []byte{1, 2, 3, 4})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, err := DecodeRowFrame(tt.frame); !errors.Is(err, ErrBadFrame) {
				t.Errorf("Expected ErrBadFrame, got %v", err)
			}
		})
	}
}

func TestHandleStream_RendersAllRows(t *testing.T) {
	srv := newTestServer(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/api/ws?scene=glass&width=16&height=8"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	var start StreamMessage
	if err := conn.ReadJSON(&start); err != nil {
		t.Fatalf("Failed to read start message: %v", err)
	}
	if start.Type != "start" || start.Start == nil || start.Start.Width != 17 || start.Start.Height != 9 {
		t.Fatalf("Unexpected start message %+v", start)
	}

	rows := make(map[int]bool)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Stream ended before completion: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			y, width, _, err := DecodeRowFrame(data)
			if err != nil {
				t.Fatalf("Bad row frame: %v", err)
			}
			if width != 17 {
				t.Errorf("Row %d: expected 17 pixels, got %d", y, width)
			}
			rows[y] = true
			continue
		}

		if !strings.Contains(string(data), `"complete"`) {
			t.Fatalf("Unexpected control message %s", data)
		}
		break
	}
	if len(rows) != 9 {
		t.Errorf("Expected 9 distinct rows, got %d", len(rows))
	}

	// The server closes normally after completion
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected a normal close, got %v", err)
	}
}

func TestHandleStream_UnknownScene(t *testing.T) {
	srv := newTestServer(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/api/ws?scene=nope"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if msg.Type != "error" || !strings.Contains(msg.Error, "unknown scene") {
		t.Errorf("Expected an unknown scene error, got %+v", msg)
	}
}

func TestHandleStream_RejectsBeforeUpgrade(t *testing.T) {
	srv := newTestServer(t, testConfig())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/api/ws?height=-1"), nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("Expected a bad handshake, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %v", resp)
	}
}

func TestHandleStream_OriginCheck(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://ok.example"}
	srv := newTestServer(t, cfg)
	url := wsURL(srv.URL, "/api/ws?width=4&height=2")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("Expected the foreign origin to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://ok.example"}})
	if err != nil {
		t.Fatalf("Expected the allowed origin to connect: %v", err)
	}
	conn.Close()
}
