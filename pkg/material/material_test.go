package material

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

func TestNew_Defaults(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if m.KReflect != 0 || m.KRefract != 0 || m.KAmbient != 0 || m.KDiffuse != 0 {
		t.Errorf("Expected zero coefficients, got %+v", m)
	}
	if m.CReflect != core.White || m.CAmbient != core.White || m.CDiffuse != core.White {
		t.Errorf("Expected white colors by default, got %+v", m)
	}
	if m.HasRefractTint {
		t.Error("Expected no refraction tint by default")
	}
	if m.RefractiveIndex != 1 {
		t.Errorf("Expected refractive index 1, got %f", m.RefractiveIndex)
	}
}

func TestNew_EnergyNormalization(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected [4]float64
	}{
		{
			name:     "sum above one is rescaled",
			config:   Config{KReflect: 0.6, KRefract: 0.6},
			expected: [4]float64{0.5, 0.5, 0, 0},
		},
		{
			name:     "all four saturated",
			config:   Config{KReflect: 1, KRefract: 1, KAmbient: 1, KDiffuse: 1},
			expected: [4]float64{0.25, 0.25, 0.25, 0.25},
		},
		{
			name:     "sum below one is kept",
			config:   Config{KReflect: 0.2, KDiffuse: 0.3},
			expected: [4]float64{0.2, 0, 0, 0.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.config)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			got := [4]float64{m.KReflect, m.KRefract, m.KAmbient, m.KDiffuse}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-12 {
					t.Errorf("Expected %v, got %v", tt.expected, got)
					break
				}
			}
			if m.Sum() > 1+1e-12 {
				t.Errorf("Coefficients sum to %f", m.Sum())
			}
		})
	}
}

func TestNew_InvalidCoefficients(t *testing.T) {
	configs := []Config{
		{KReflect: -0.1},
		{KRefract: 1.5},
		{KAmbient: math.NaN()},
		{KDiffuse: 2},
		{RefractiveIndex: -1},
		{RefractiveIndex: math.Inf(1)},
	}

	for _, cfg := range configs {
		if _, err := New(cfg); !errors.Is(err, ErrInvalidMaterial) {
			t.Errorf("Expected ErrInvalidMaterial for %+v, got %v", cfg, err)
		}
	}
}

func TestNew_RefractTint(t *testing.T) {
	m := Must(New(Config{KRefract: 0.6, CRefract: Color(255, 0, 0), RefractiveIndex: 1.6}))
	if !m.HasRefractTint || m.CRefract != core.NewVec3(255, 0, 0) {
		t.Errorf("Expected red refraction tint, got %+v", m)
	}
	if m.RefractiveIndex != 1.6 {
		t.Errorf("Expected refractive index 1.6, got %f", m.RefractiveIndex)
	}
}
