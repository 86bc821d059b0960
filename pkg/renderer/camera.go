package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Position  core.Vec3 // Eye position
	Direction core.Vec3 // Facing direction
	Left      core.Vec3 // Points to the left of the image; Up = Direction × Left
	FOV       float64   // Horizontal field of view in radians
	Width     int       // Horizontal pixel span; the image is Width+1 pixels wide
	Height    int       // Vertical pixel span; the image is Height+1 pixels tall
}

// DefaultCameraConfig returns the camera of the classic demo scene
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position:  core.NewVec3(0, 50, 100),
		Direction: core.NewVec3(0, 0, -1),
		Left:      core.NewVec3(-1, 0, 0),
		FOV:       math.Pi / 2,
		Width:     1201,
		Height:    801,
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	zero := core.Vec3{}
	if override.Position != zero {
		result.Position = override.Position
	}
	if override.Direction != zero {
		result.Direction = override.Direction
	}
	if override.Left != zero {
		result.Left = override.Left
	}
	if override.FOV != 0 {
		result.FOV = override.FOV
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	return result
}

// Camera generates primary ray directions by rotating the facing direction
// first around Up (horizontal sweep) and then around Left (vertical sweep)
type Camera struct {
	config    CameraConfig
	direction core.Vec3
	left      core.Vec3
	up        core.Vec3
}

// NewCamera validates the configuration and creates a camera
func NewCamera(config CameraConfig) (*Camera, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("camera size %dx%d: %w", config.Width, config.Height, core.ErrInvalidGeometry)
	}
	if !(config.FOV > 0) || config.FOV >= 2*math.Pi {
		return nil, fmt.Errorf("camera fov %v: %w", config.FOV, core.ErrInvalidGeometry)
	}

	direction, err := config.Direction.NormalizeChecked()
	if err != nil {
		return nil, fmt.Errorf("camera direction: %w", err)
	}
	left, err := config.Left.NormalizeChecked()
	if err != nil {
		return nil, fmt.Errorf("camera left: %w", err)
	}
	up, err := direction.Cross(left).NormalizeChecked()
	if err != nil {
		return nil, fmt.Errorf("camera left is parallel to direction: %w", err)
	}

	return &Camera{
		config:    config,
		direction: direction,
		left:      left,
		up:        up,
	}, nil
}

// DirectionAt returns the unit direction of the primary ray through pixel (x, y).
// Both sweep angles are scaled by Width so pixels stay square.
func (c *Camera) DirectionAt(x, y int) core.Vec3 {
	fov := c.config.FOV
	w := float64(c.config.Width)
	h := float64(c.config.Height)

	horizontal := fov/2 - fov*float64(x)/w
	vertical := -fov/2*h/w + fov*float64(y)/w

	return c.direction.
		RotateAround(c.up, horizontal).
		RotateAround(c.left, vertical).
		Normalize()
}

// GetRay returns the primary ray through pixel (x, y)
func (c *Camera) GetRay(x, y int) core.Ray {
	return core.NewRay(c.config.Position, c.DirectionAt(x, y))
}

// GetCameraForward returns the unit facing direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.direction
}

// GetUp returns the unit up vector (Direction × Left)
func (c *Camera) GetUp() core.Vec3 {
	return c.up
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// ImageSize returns the dimensions of the rendered image: the pixel grid
// [0, Width] × [0, Height] is swept inclusively
func (c *Camera) ImageSize() (width, height int) {
	return c.config.Width + 1, c.config.Height + 1
}
