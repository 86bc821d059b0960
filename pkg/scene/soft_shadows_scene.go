package scene

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// softLightGrid is the number of point lights along each side of the light panel
const softLightGrid = 3

// NewSoftShadowsScene approximates an area light with a grid of point lights.
// Shadow factors become fractional in the penumbra and diffuse shading averages
// over every light.
func NewSoftShadowsScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	s := New()
	if len(cameraOverrides) > 0 {
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}
	s.DiffuseAll = true

	orange := material.Must(material.New(material.Config{
		KDiffuse: 0.8,
		CDiffuse: material.Color(255, 140, 0),
		KAmbient: 0.2,
		CAmbient: material.Color(90, 50, 0),
	}))
	pearl := material.Must(material.New(material.Config{
		KDiffuse: 0.6,
		KReflect: 0.3,
		KAmbient: 0.1,
	}))

	s.Add(
		mustSphere(core.NewVec3(-60, 35, -120), 35, orange, "orange sphere"),
		mustSphere(core.NewVec3(60, 25, -80), 25, pearl, "pearl sphere"),
		mustCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), "floor"),
	)

	// Light panel centered above and in front of the spheres
	const spacing = 30.0
	center := core.NewVec3(0, 180, 0)
	offset := spacing * float64(softLightGrid-1) / 2
	for i := 0; i < softLightGrid; i++ {
		for j := 0; j < softLightGrid; j++ {
			s.AddLight(center.Add(core.NewVec3(float64(i)*spacing-offset, 0, float64(j)*spacing-offset)))
		}
	}

	return s
}
