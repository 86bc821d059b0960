package geometry

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// Primitive is a shape the tracer can hit and shade: Sphere, Plane or Checkerboard
type Primitive interface {
	// Intersect returns the distance to the nearest hit at or beyond core.Epsilon
	// along the ray, or NaN when the ray misses.
	Intersect(ray core.Ray) float64

	// Normal returns the outward normal at a point on the surface
	Normal(point core.Vec3) core.Vec3

	// Shade computes the color seen at the hit described by in
	Shade(tracer material.Tracer, in material.Interaction) core.Vec3

	// Label names the primitive in trace events
	Label() string
}

// Miss is the distance reported for rays that do not hit a primitive
var Miss = math.NaN()

// IsHit reports whether an intersection distance is a usable hit
func IsHit(t float64) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0) && t >= core.Epsilon
}
