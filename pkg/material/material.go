package material

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// ErrInvalidMaterial is returned for coefficients outside [0, 1] or non-finite values
var ErrInvalidMaterial = errors.New("invalid material")

// Config lists the recognized material options. Zero values select the defaults:
// k coefficients 0, colors white, no refraction tint, refractive index 1.
type Config struct {
	KReflect        float64
	CReflect        *core.Vec3
	KRefract        float64
	CRefract        *core.Vec3
	RefractiveIndex float64
	KAmbient        float64
	CAmbient        *core.Vec3
	KDiffuse        float64
	CDiffuse        *core.Vec3
}

// Material holds the weighted shading coefficients of a primitive.
// The four k coefficients never sum to more than 1.
type Material struct {
	KReflect float64
	KRefract float64
	KAmbient float64
	KDiffuse float64

	CReflect core.Vec3 // Tint applied to reflected light (white = none)
	CRefract core.Vec3 // Color light fades to while travelling through the body
	CAmbient core.Vec3
	CDiffuse core.Vec3

	HasRefractTint  bool
	RefractiveIndex float64
}

// New creates a material from a config, applying defaults and energy normalization
func New(cfg Config) (*Material, error) {
	coefficients := []struct {
		name  string
		value float64
	}{
		{"k_reflect", cfg.KReflect},
		{"k_refract", cfg.KRefract},
		{"k_ambient", cfg.KAmbient},
		{"k_diffuse", cfg.KDiffuse},
	}
	for _, c := range coefficients {
		if math.IsNaN(c.value) || c.value < 0 || c.value > 1 {
			return nil, fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidMaterial, c.name, c.value)
		}
	}

	refractiveIndex := cfg.RefractiveIndex
	if refractiveIndex == 0 {
		refractiveIndex = 1
	}
	if math.IsNaN(refractiveIndex) || math.IsInf(refractiveIndex, 0) || refractiveIndex < 0 {
		return nil, fmt.Errorf("%w: a_refr must be positive, got %v", ErrInvalidMaterial, cfg.RefractiveIndex)
	}

	m := &Material{
		KReflect:        cfg.KReflect,
		KRefract:        cfg.KRefract,
		KAmbient:        cfg.KAmbient,
		KDiffuse:        cfg.KDiffuse,
		CReflect:        colorOrWhite(cfg.CReflect),
		CAmbient:        colorOrWhite(cfg.CAmbient),
		CDiffuse:        colorOrWhite(cfg.CDiffuse),
		RefractiveIndex: refractiveIndex,
	}
	if cfg.CRefract != nil {
		m.CRefract = *cfg.CRefract
		m.HasRefractTint = true
	}

	m.normalize()
	return m, nil
}

// Must panics if err is non-nil. Intended for built-in scenes with constant coefficients.
func Must(m *Material, err error) *Material {
	if err != nil {
		panic(err)
	}
	return m
}

// Default returns a material with all defaults: it contributes nothing
func Default() *Material {
	return Must(New(Config{}))
}

// Sum returns the total of the four k coefficients
func (m *Material) Sum() float64 {
	return m.KReflect + m.KRefract + m.KAmbient + m.KDiffuse
}

// normalize rescales the coefficients so they sum to 1 when they exceed it
func (m *Material) normalize() {
	total := m.Sum()
	if total <= 1 {
		return
	}
	m.KReflect /= total
	m.KRefract /= total
	m.KAmbient /= total
	m.KDiffuse /= total
}

func colorOrWhite(c *core.Vec3) core.Vec3 {
	if c == nil {
		return core.White
	}
	return *c
}

// Color returns a pointer to a color, for filling Config literals
func Color(r, g, b float64) *core.Vec3 {
	c := core.NewVec3(r, g, b)
	return &c
}
