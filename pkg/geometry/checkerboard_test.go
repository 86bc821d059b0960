package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
)

// shadowTracer reports a fixed shadow factor and traces nothing
type shadowTracer struct {
	shadow float64
}

func (s shadowTracer) TraceRay(core.Vec3, core.Vec3, int, float64) core.Vec3 { return core.Black }
func (s shadowTracer) ShadowFactor(core.Vec3) float64                        { return s.shadow }
func (s shadowTracer) LightPositions() []core.Vec3                           { return nil }
func (s shadowTracer) DiffuseAllLights() bool                                { return false }
func (s shadowTracer) Hook() core.TraceHook                                  { return nil }

func TestCheckerboard_IsLightTile(t *testing.T) {
	board, err := NewCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0))
	if err != nil {
		t.Fatalf("NewCheckerboard: %v", err)
	}

	tests := []struct {
		point    core.Vec3
		expected bool
	}{
		{core.NewVec3(50, 0, 50), true},
		{core.NewVec3(150, 0, 150), true},
		{core.NewVec3(150, 0, 50), false},
		{core.NewVec3(50, 0, 150), false},
		{core.NewVec3(-50, 0, -50), true},  // both wrap to 150
		{core.NewVec3(-50, 0, 50), false},  // 150 vs 50
		{core.NewVec3(250, 0, -350), true}, // 50 vs 50
		{core.NewVec3(99.9, 0, 100.1), false},
	}

	for _, tt := range tests {
		if got := board.IsLightTile(tt.point); got != tt.expected {
			t.Errorf("IsLightTile(%v) = %t, want %t", tt.point, got, tt.expected)
		}
	}
}

func TestCheckerboard_Shade(t *testing.T) {
	board, err := NewCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0))
	if err != nil {
		t.Fatalf("NewCheckerboard: %v", err)
	}

	tests := []struct {
		name     string
		x, z     float64
		shadow   float64
		expected core.Vec3
	}{
		{"lit light tile", 50, 50, 1, core.White.Multiply(1.5)},
		{"shadowed light tile", 50, 50, 0, core.White.Multiply(0.5)},
		{"half lit light tile", 50, 50, 0.5, core.White},
		{"dark tile ignores light", 150, 50, 1, core.Black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := material.Interaction{
				Origin:    core.NewVec3(tt.x, 100, tt.z),
				Direction: core.NewVec3(0, -1, 0),
				Distance:  100,
			}
			got := board.Shade(shadowTracer{shadow: tt.shadow}, in)
			if got.Subtract(tt.expected).Length() > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCheckerboard_DelegatesIntersection(t *testing.T) {
	board, err := NewCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0))
	if err != nil {
		t.Fatalf("NewCheckerboard: %v", err)
	}
	ray := core.NewRay(core.NewVec3(0, 50, 0), core.NewVec3(0, -1, 0))

	if d := board.Intersect(ray); math.Abs(d-board.Plane.Intersect(ray)) > 0 || math.Abs(d-50) > 1e-9 {
		t.Errorf("Expected plane intersection at 50, got %f", d)
	}
	if board.Normal(ray.At(50)) != core.NewVec3(0, 1, 0) {
		t.Errorf("Expected plane normal, got %v", board.Normal(ray.At(50)))
	}
}
