package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// ProbeResponse is the JSON response for a single-pixel probe
type ProbeResponse struct {
	Scene string   `json:"scene"`
	RGB   [3]uint8 `json:"rgb"`
	renderer.ProbeResult
}

// handleProbe traces one pixel and returns every step the ray took
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	logger := logging.FromContext(r.Context())
	_, rt, err := s.newRaytracer(req, logger)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}

	result, err := rt.ProbePixel(pixelX, pixelY)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	logger.Debug("pixel probed",
		logging.String("scene", req.Scene),
		logging.String("pixel", fmt.Sprintf("%d,%d", pixelX, pixelY)),
		logging.Int("events", len(result.Events)))

	px := renderer.ColorToRGBA(result.Color)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ProbeResponse{
		Scene:       req.Scene,
		RGB:         [3]uint8{px.R, px.G, px.B},
		ProbeResult: result,
	})
}
