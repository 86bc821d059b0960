package loaders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// ErrInvalidScene is returned for scene descriptions that cannot be built
var ErrInvalidScene = errors.New("invalid scene description")

// Object types accepted in scene descriptions
const (
	TypeSphere       = "sphere"
	TypePlane        = "plane"
	TypeCheckerboard = "checkerboard"
)

// SceneDescription is the parsed form of a JSON scene file
type SceneDescription struct {
	// Metadata shown in scene listings
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`

	Camera           *CameraDescription  `json:"camera,omitempty"`
	MaxDepth         int                 `json:"max_depth,omitempty"`
	DiffuseAllLights bool                `json:"diffuse_all_lights,omitempty"`
	Lights           []Vector            `json:"lights"`
	Objects          []ObjectDescription `json:"objects"`
}

// CameraDescription overrides the default camera. Missing fields keep their defaults.
type CameraDescription struct {
	Position  *Vector  `json:"position,omitempty"`
	Direction *Vector  `json:"direction,omitempty"`
	Left      *Vector  `json:"left,omitempty"`
	FOV       *float64 `json:"fov,omitempty"` // radians
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
}

// ObjectDescription describes one primitive. Spheres use Center and Radius;
// planes and checkerboards use Normal and Point. Checkerboards take no material.
type ObjectDescription struct {
	Type     string              `json:"type"`
	Name     string              `json:"name,omitempty"`
	Center   *Vector             `json:"center,omitempty"`
	Radius   float64             `json:"radius,omitempty"`
	Normal   *Vector             `json:"normal,omitempty"`
	Point    *Vector             `json:"point,omitempty"`
	Material MaterialDescription `json:"material"`
}

// MaterialDescription uses the option keys of the original scene format
type MaterialDescription struct {
	KReflect        float64 `json:"k_reflect,omitempty"`
	CReflect        *Color  `json:"c_reflect,omitempty"`
	KRefract        float64 `json:"k_refract,omitempty"`
	CRefract        *Color  `json:"c_refract,omitempty"`
	RefractiveIndex float64 `json:"a_refr,omitempty"`
	KAmbient        float64 `json:"k_ambient,omitempty"`
	CAmbient        *Color  `json:"c_ambient,omitempty"`
	KDiffuse        float64 `json:"k_diffuse,omitempty"`
	CDiffuse        *Color  `json:"c_diffuse,omitempty"`
}

// Vector is a JSON [x, y, z] triple
type Vector [3]float64

// Vec3 converts the triple to a core.Vec3
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Color is an RGB triple in [0, 255]. In JSON it is either [r, g, b] or one of
// the names in core.NamedColors.
type Color core.Vec3

// UnmarshalJSON accepts a color name or an [r, g, b] array
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		named, ok := core.NamedColors[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("%w: unknown color %q", ErrInvalidScene, name)
		}
		*c = Color(named)
		return nil
	}

	var rgb [3]float64
	if err := json.Unmarshal(data, &rgb); err != nil {
		return fmt.Errorf("%w: color must be a name or [r, g, b]: %v", ErrInvalidScene, err)
	}
	*c = Color(core.NewVec3(rgb[0], rgb[1], rgb[2]))
	return nil
}

// Vec3 returns the color as a core.Vec3, or nil when c is nil
func (c *Color) Vec3() *core.Vec3 {
	if c == nil {
		return nil
	}
	v := core.Vec3(*c)
	return &v
}

// ParseScene parses a JSON scene description from an io.Reader
func ParseScene(reader io.Reader) (*SceneDescription, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	var desc SceneDescription
	if err := decoder.Decode(&desc); err != nil {
		if errors.Is(err, ErrInvalidScene) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// LoadScene loads and parses a JSON scene file
func LoadScene(filename string) (*SceneDescription, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	// Fall back to the file name when the scene has no name of its own
	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return desc, nil
}

// Validate checks the structural rules that JSON decoding cannot express
func (d *SceneDescription) Validate() error {
	if d.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative, got %d", ErrInvalidScene, d.MaxDepth)
	}
	if d.Camera != nil && (d.Camera.Width < 0 || d.Camera.Height < 0) {
		return fmt.Errorf("%w: camera size must not be negative", ErrInvalidScene)
	}

	for i, obj := range d.Objects {
		switch obj.Type {
		case TypeSphere:
			if obj.Center == nil {
				return fmt.Errorf("%w: object %d: sphere needs a center", ErrInvalidScene, i)
			}
		case TypePlane, TypeCheckerboard:
			if obj.Normal == nil {
				return fmt.Errorf("%w: object %d: %s needs a normal", ErrInvalidScene, i, obj.Type)
			}
			// The checker pattern replaces shading, so a material would be ignored
			if obj.Type == TypeCheckerboard && obj.Material != (MaterialDescription{}) {
				return fmt.Errorf("%w: object %d: checkerboard does not take a material", ErrInvalidScene, i)
			}
		default:
			return fmt.Errorf("%w: object %d: unknown type %q", ErrInvalidScene, i, obj.Type)
		}
	}
	return nil
}

// ValidateScenePath restricts scene files requested over the network to the
// scenes/ directory and the .json extension
func ValidateScenePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	cleanPath := filepath.ToSlash(filepath.Clean(filename))
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid file path: directory traversal not allowed")
	}
	if !strings.HasPrefix(cleanPath, "scenes/") {
		return fmt.Errorf("file path must be in scenes/ directory")
	}
	if filepath.Ext(cleanPath) != ".json" {
		return fmt.Errorf("invalid file extension: only .json files are allowed")
	}
	return nil
}
