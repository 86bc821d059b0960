package geometry

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

const (
	// DefaultTileSize is the period of the checker pattern along X and Z
	DefaultTileSize = 200.0

	// DefaultAmbientFloor keeps shadowed light tiles from going fully dark
	DefaultAmbientFloor = 0.5
)

// Checkerboard is a plane shaded with a procedural checker pattern. It uses the
// plane for intersection and normals and replaces the material shading entirely.
type Checkerboard struct {
	Plane        *Plane
	TileSize     float64
	AmbientFloor float64
	LightColor   core.Vec3
	DarkColor    core.Vec3
	Name         string
}

// NewCheckerboard creates a checkerboard over the plane through point with the given normal
func NewCheckerboard(normal, point core.Vec3) (*Checkerboard, error) {
	plane, err := NewPlane(normal, point, nil)
	if err != nil {
		return nil, err
	}
	return &Checkerboard{
		Plane:        plane,
		TileSize:     DefaultTileSize,
		AmbientFloor: DefaultAmbientFloor,
		LightColor:   core.White,
		DarkColor:    core.Black,
	}, nil
}

// Intersect delegates to the underlying plane
func (c *Checkerboard) Intersect(ray core.Ray) float64 {
	return c.Plane.Intersect(ray)
}

// Normal delegates to the underlying plane
func (c *Checkerboard) Normal(point core.Vec3) core.Vec3 {
	return c.Plane.Normal(point)
}

// Shade returns the light color scaled by the shadow factor plus the ambient floor
// on light tiles, and the dark color on the others
func (c *Checkerboard) Shade(tracer material.Tracer, in material.Interaction) core.Vec3 {
	point := in.Point()
	if !c.IsLightTile(point) {
		return c.DarkColor
	}

	shadow := tracer.ShadowFactor(point)
	if hook := tracer.Hook(); hook != nil {
		hook.OnTraceEvent(core.TraceEvent{Kind: core.EventShadow, Depth: in.Depth, Primitive: c.Label(), Point: point, Value: shadow})
	}
	return c.LightColor.Multiply(shadow + c.AmbientFloor)
}

// IsLightTile reports whether the X and Z tile parities of a point agree
func (c *Checkerboard) IsLightTile(point core.Vec3) bool {
	half := c.TileSize / 2
	return (math.Floor(mod(point.X, c.TileSize)) < half) == (math.Floor(mod(point.Z, c.TileSize)) < half)
}

// Label names the checkerboard in trace events
func (c *Checkerboard) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return "checkerboard"
}

// mod returns the non-negative remainder of x/n
func mod(x, n float64) float64 {
	return math.Mod(math.Mod(x, n)+n, n)
}
