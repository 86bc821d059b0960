package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material *material.Material
	Name     string
}

// NewSphere creates a new sphere. The radius must be positive.
func NewSphere(center core.Vec3, radius float64, mat *material.Material) (*Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("sphere radius %v: %w", radius, core.ErrInvalidGeometry)
	}
	if mat == nil {
		mat = material.Default()
	}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}, nil
}

// Intersect solves the ray-sphere quadratic analytically
func (s *Sphere) Intersect(ray core.Ray) float64 {
	// Vector from sphere center to ray origin
	sub := ray.Origin.Subtract(s.Center)
	l := -ray.Direction.Dot(sub)

	discriminant := l*l - (sub.LengthSquared() - s.Radius*s.Radius)
	if discriminant < 0 {
		return Miss
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	if root := l - sqrtD; root >= core.Epsilon {
		return root
	}
	if root := l + sqrtD; root >= core.Epsilon {
		return root
	}
	return Miss
}

// Normal returns the outward normal (from center to point)
func (s *Sphere) Normal(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Normalize()
}

// Span returns the sphere's diameter
func (s *Sphere) Span() (float64, bool) {
	return 2 * s.Radius, true
}

// Shade delegates to the sphere's material
func (s *Sphere) Shade(tracer material.Tracer, in material.Interaction) core.Vec3 {
	return s.Material.Shade(s, tracer, in)
}

// Label names the sphere in trace events
func (s *Sphere) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return "sphere"
}
