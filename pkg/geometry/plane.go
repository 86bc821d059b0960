package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// parallelThreshold is the smallest |n·d| treated as a real crossing
const parallelThreshold = 1e-12

// Plane represents an infinite plane defined by a point and normal: n·x = Offset
type Plane struct {
	UnitNormal core.Vec3 // Normal vector, normalized on construction
	Offset     float64   // Signed offset n·p for any point p on the plane
	Material   *material.Material
	Name       string
}

// NewPlane creates a new plane through point with the given normal
func NewPlane(normal, point core.Vec3, mat *material.Material) (*Plane, error) {
	n, err := normal.NormalizeChecked()
	if err != nil {
		return nil, fmt.Errorf("plane normal: %w", err)
	}
	if mat == nil {
		mat = material.Default()
	}
	return &Plane{
		UnitNormal: n,
		Offset:     n.Dot(point),
		Material:   mat,
	}, nil
}

// Intersect solves n·(o + t·d) = Offset for t
func (p *Plane) Intersect(ray core.Ray) float64 {
	denominator := p.UnitNormal.Dot(ray.Direction)

	// Ray parallel to the plane never crosses it
	if math.Abs(denominator) < parallelThreshold {
		return Miss
	}

	t := (p.Offset - p.UnitNormal.Dot(ray.Origin)) / denominator
	if t < core.Epsilon {
		return Miss
	}
	return t
}

// Normal returns the plane's constant normal
func (p *Plane) Normal(core.Vec3) core.Vec3 {
	return p.UnitNormal
}

// Span reports that a plane has no thickness to absorb light over
func (p *Plane) Span() (float64, bool) {
	return 0, false
}

// Shade delegates to the plane's material
func (p *Plane) Shade(tracer material.Tracer, in material.Interaction) core.Vec3 {
	return p.Material.Shade(p, tracer, in)
}

// Label names the plane in trace events
func (p *Plane) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return "plane"
}
