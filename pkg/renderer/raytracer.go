package renderer

import (
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

var (
	// ErrInvalidOptions is returned for render options outside their valid range
	ErrInvalidOptions = errors.New("invalid render options")

	// ErrPixelOutOfBounds is returned when a probe targets a pixel outside the image
	ErrPixelOutOfBounds = errors.New("pixel out of bounds")
)

// Scene interface to avoid circular imports
type Scene interface {
	TraceRay(origin, direction core.Vec3, depth int, refractiveIndex float64) core.Vec3
	GetCameraConfig() CameraConfig
	GetMaxDepth() int

	// WithTraceHook returns a copy of the scene that reports trace events to hook
	WithTraceHook(hook core.TraceHook) Scene
}

// RenderOptions contains per-render settings
type RenderOptions struct {
	StartDepth  int            // Depth primary rays start at; 0 <= StartDepth <= scene max depth
	Workers     int            // Number of parallel workers (0 = use CPU count)
	CountEvents bool           // Count trace events into RenderStats.Events
	Hook        core.TraceHook // Extra hook that sees every trace event, may be nil
}

// DefaultRenderOptions returns sensible default values
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		StartDepth:  0,
		Workers:     0,
		CountEvents: true,
	}
}

// Raytracer handles the rendering process
type Raytracer struct {
	scene   Scene // scene as given, used for probes
	traced  Scene // scene with the render hooks attached
	camera  *Camera
	options RenderOptions
	counter *CountingHook
	logger  core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(scene Scene, options RenderOptions, logger core.Logger) (*Raytracer, error) {
	if options.StartDepth < 0 || options.StartDepth > scene.GetMaxDepth() {
		return nil, fmt.Errorf("%w: start depth %d outside [0, %d]", ErrInvalidOptions, options.StartDepth, scene.GetMaxDepth())
	}
	if options.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, options.Workers)
	}

	camera, err := NewCamera(scene.GetCameraConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}

	if logger == nil {
		logger = NewDefaultLogger()
	}

	rt := &Raytracer{
		scene:   scene,
		traced:  scene,
		camera:  camera,
		options: options,
		logger:  logger,
	}

	var hooks core.MultiHook
	if options.CountEvents {
		rt.counter = &CountingHook{}
		hooks = append(hooks, rt.counter)
	}
	if options.Hook != nil {
		hooks = append(hooks, options.Hook)
	}
	if len(hooks) > 0 {
		rt.traced = scene.WithTraceHook(hooks)
	}

	return rt, nil
}

// Camera returns the camera primary rays are generated with
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// ImageSize returns the dimensions of the rendered image
func (rt *Raytracer) ImageSize() (width, height int) {
	return rt.camera.ImageSize()
}

// TracePixel traces the primary ray through pixel (x, y) and returns its raw color
func (rt *Raytracer) TracePixel(x, y int) core.Vec3 {
	return rt.tracePixel(rt.traced, x, y)
}

func (rt *Raytracer) tracePixel(scene Scene, x, y int) core.Vec3 {
	ray := rt.camera.GetRay(x, y)
	return scene.TraceRay(ray.Origin, ray.Direction, rt.options.StartDepth, core.AirRefractiveIndex)
}

// traceRow traces every pixel of row y, left to right
func (rt *Raytracer) traceRow(y int) []core.Vec3 {
	width, _ := rt.ImageSize()
	colors := make([]core.Vec3, width)
	for x := range colors {
		colors[x] = rt.TracePixel(x, y)
	}
	return colors
}

// Render sweeps the full pixel grid sequentially, writing each pixel to sink once
func (rt *Raytracer) Render(sink PixelSink) RenderStats {
	start := time.Now()
	width, height := rt.ImageSize()

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			sink.SetPixel(x, y, rt.TracePixel(x, y))
		}
	}

	stats := rt.newStats(1, time.Since(start))
	rt.logger.Printf("Rendered %dx%d in %v\n", width, height, stats.Elapsed)
	return stats
}

// newStats builds render statistics for a finished render
func (rt *Raytracer) newStats(workers int, elapsed time.Duration) RenderStats {
	width, height := rt.ImageSize()
	stats := RenderStats{
		Width:       width,
		Height:      height,
		TotalPixels: width * height,
		Workers:     workers,
		Elapsed:     elapsed,
	}
	if rt.counter != nil {
		stats.Events = rt.counter.Snapshot()
		rt.counter.Reset()
	}
	return stats
}
