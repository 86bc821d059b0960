package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// Server handles web requests for the raytracer
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	health   *health.Server
	upgrader websocket.Upgrader
	newID    func() string
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene name (e.g., "default" or "json:mirrors")
	Width      int    `json:"width"`      // Camera sweep width, 0 keeps the scene's
	Height     int    `json:"height"`     // Camera sweep height, 0 keeps the scene's
	MaxDepth   int    `json:"maxDepth"`   // Recursion bound, 0 keeps the scene's
	StartDepth int    `json:"startDepth"` // Depth primary rays start at
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.L()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		health: health.NewServer(),
		newID:  uuid.NewString,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return s
}

// Handler returns the HTTP handler serving all API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/ws", s.handleStream)
	mux.HandleFunc("/api/probe", s.handleProbe)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/health", s.handleHealth)
	return logging.HTTPMiddleware(s.logger)(mux)
}

// Start serves HTTP, and the gRPC health service when configured, until ctx
// is cancelled or a listener fails
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		s.logger.Info("http server listening", logging.String("addr", s.cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if s.cfg.GRPCAddress != "" {
		listener, err := net.Listen("tcp", s.cfg.GRPCAddress)
		if err != nil {
			httpServer.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, s.health)
		go func() {
			s.logger.Info("grpc health service listening", logging.String("addr", s.cfg.GRPCAddress))
			if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errChan <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
	}

	s.health.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// checkOrigin allows every origin unless an allow list is configured
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleHealth reports the gRPC health status as protobuf JSON
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.health.Check(r.Context(), &healthpb.HealthCheckRequest{})
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	data, err := protojson.Marshal(resp)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	w.Write(data)
}

// handleScenes lists built-in and JSON scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes()
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list scenes", logging.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(response)
}

// parseRenderRequest parses the scene parameters shared by render, stream and probe
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}
	if err := validateSceneName(req.Scene); err != nil {
		return nil, err
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 1, s.cfg.MaxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, 1, s.cfg.MaxImageSize); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", s.cfg.MaxDepth, 0, 64); err != nil {
		return nil, err
	}
	if req.StartDepth, err = parseIntParam(query, "startDepth", 0, 0, 64); err != nil {
		return nil, err
	}
	return req, nil
}

// errSceneName never echoes the requested name
var errSceneName = errors.New("scene must be a built-in name or json:<name>")

// validateSceneName limits network requests to built-in scenes and files
// directly inside scenes/. Raw file paths are accepted by the CLI only.
func validateSceneName(name string) error {
	if base, ok := strings.CutPrefix(name, "json:"); ok {
		if base == "" || strings.ContainsAny(base, `/\`) || strings.Contains(base, "..") {
			return errSceneName
		}
		if err := loaders.ValidateScenePath("scenes/" + base + ".json"); err != nil {
			return errSceneName
		}
		return nil
	}
	if strings.HasSuffix(name, ".json") || strings.ContainsAny(name, `/\`) {
		return errSceneName
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// newRaytracer creates the scene a request names and a raytracer over it
func (s *Server) newRaytracer(req *RenderRequest, logger core.Logger) (*scene.Scene, *renderer.Raytracer, error) {
	sceneObj, err := scene.ByName(req.Scene, renderer.CameraConfig{Width: req.Width, Height: req.Height})
	if err != nil {
		return nil, nil, err
	}
	if req.MaxDepth > 0 {
		sceneObj.MaxDepth = req.MaxDepth
	}

	options := renderer.DefaultRenderOptions()
	options.StartDepth = req.StartDepth
	options.Workers = s.cfg.Workers
	rt, err := renderer.NewRaytracer(sceneObj, options, logger)
	if err != nil {
		return nil, nil, err
	}
	return sceneObj, rt, nil
}

// statusFor maps request errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, scene.ErrUnknownScene):
		return http.StatusNotFound
	case errors.Is(err, renderer.ErrInvalidOptions), errors.Is(err, renderer.ErrPixelOutOfBounds):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
