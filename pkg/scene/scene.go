package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// ErrEmptyScene is returned by Validate for scenes without primitives
var ErrEmptyScene = errors.New("scene has no primitives")

// Scene contains all the elements needed for rendering. A scene is read-only
// while it is being rendered; workers share it without locks.
type Scene struct {
	Primitives   []geometry.Primitive // Traced in order; ties go to the earlier primitive
	Lights       []core.Vec3          // Point light positions
	CameraConfig renderer.CameraConfig
	MaxDepth     int  // Rays deeper than this return core.RecursionLimitColor
	DiffuseAll   bool // Average diffuse over all lights instead of using the first

	hook core.TraceHook
}

// New creates an empty scene with the default camera and recursion bound
func New() *Scene {
	return &Scene{
		Primitives:   make([]geometry.Primitive, 0),
		Lights:       make([]core.Vec3, 0),
		CameraConfig: renderer.DefaultCameraConfig(),
		MaxDepth:     core.DefaultMaxDepth,
	}
}

// Add appends primitives to the scene
func (s *Scene) Add(primitives ...geometry.Primitive) {
	s.Primitives = append(s.Primitives, primitives...)
}

// AddLight adds a point light
func (s *Scene) AddLight(position core.Vec3) {
	s.Lights = append(s.Lights, position)
}

// Validate checks that the scene can be rendered
func (s *Scene) Validate() error {
	if len(s.Primitives) == 0 {
		return ErrEmptyScene
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", s.MaxDepth)
	}
	for i, light := range s.Lights {
		if light.IsNaN() {
			return fmt.Errorf("light %d has a NaN position", i)
		}
	}
	if _, err := renderer.NewCamera(s.CameraConfig); err != nil {
		return fmt.Errorf("invalid camera: %w", err)
	}
	return nil
}

// Nearest returns the closest primitive hit by the ray and its distance.
// ok is false when every primitive misses.
func (s *Scene) Nearest(ray core.Ray) (primitive geometry.Primitive, t float64, ok bool) {
	t = math.Inf(1)
	for _, candidate := range s.Primitives {
		d := candidate.Intersect(ray)
		if !geometry.IsHit(d) {
			continue
		}
		// Strict comparison keeps the first primitive on ties
		if d < t {
			primitive, t, ok = candidate, d, true
		}
	}
	return primitive, t, ok
}

// TraceRay returns the color seen along a ray at the given recursion depth
func (s *Scene) TraceRay(origin, direction core.Vec3, depth int, refractiveIndex float64) core.Vec3 {
	if depth > s.MaxDepth {
		s.emit(core.TraceEvent{Kind: core.EventRecursionLimit, Depth: depth, Point: origin, Direction: direction})
		return core.RecursionLimitColor
	}

	primitive, t, ok := s.Nearest(core.NewRay(origin, direction))
	if !ok {
		s.emit(core.TraceEvent{Kind: core.EventMiss, Depth: depth, Point: origin, Direction: direction})
		return core.BackgroundColor
	}

	s.emit(core.TraceEvent{
		Kind:      core.EventHit,
		Depth:     depth,
		Primitive: primitive.Label(),
		Point:     origin.Add(direction.Multiply(t)),
		Direction: direction,
		Distance:  t,
	})

	return primitive.Shade(s, material.Interaction{
		Origin:          origin,
		Direction:       direction,
		Distance:        t,
		Depth:           depth,
		RefractiveIndex: refractiveIndex,
		Label:           primitive.Label(),
	})
}

// ShadowFactor returns the fraction of lights visible from point, in [0, 1].
// A scene without lights is fully lit.
func (s *Scene) ShadowFactor(point core.Vec3) float64 {
	if len(s.Lights) == 0 {
		return 1
	}

	lit := 0
	for _, light := range s.Lights {
		if s.lightVisible(point, light) {
			lit++
		}
	}
	return float64(lit) / float64(len(s.Lights))
}

// lightVisible reports whether nothing blocks the segment from point to light
func (s *Scene) lightVisible(point, light core.Vec3) bool {
	toLight := light.Subtract(point)
	distance := toLight.Length()
	if distance < core.Epsilon {
		return true
	}

	_, t, ok := s.Nearest(core.NewRay(point, toLight.Multiply(1/distance)))
	return !ok || t > distance
}

// LightPositions returns the point light positions
func (s *Scene) LightPositions() []core.Vec3 {
	return s.Lights
}

// DiffuseAllLights reports whether diffuse shading averages over every light
func (s *Scene) DiffuseAllLights() bool {
	return s.DiffuseAll
}

// Hook returns the trace hook, nil when none is installed
func (s *Scene) Hook() core.TraceHook {
	return s.hook
}

// WithHook returns a shallow copy of the scene reporting trace events to hook
func (s *Scene) WithHook(hook core.TraceHook) *Scene {
	c := *s
	c.hook = hook
	return &c
}

// WithTraceHook is WithHook for the renderer's Scene interface
func (s *Scene) WithTraceHook(hook core.TraceHook) renderer.Scene {
	return s.WithHook(hook)
}

// GetCameraConfig returns the camera configuration
func (s *Scene) GetCameraConfig() renderer.CameraConfig {
	return s.CameraConfig
}

// GetMaxDepth returns the recursion bound
func (s *Scene) GetMaxDepth() int {
	return s.MaxDepth
}

// GetPrimitiveCount returns the number of primitives in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Primitives)
}

func (s *Scene) emit(event core.TraceEvent) {
	if s.hook != nil {
		s.hook.OnTraceEvent(event)
	}
}
