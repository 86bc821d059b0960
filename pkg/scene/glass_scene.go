package scene

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// NewGlassScene creates a row of refractive spheres with increasing refractive
// index in front of a matte wall
func NewGlassScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	s := New()
	if len(cameraOverrides) > 0 {
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}

	water := material.Must(material.New(material.Config{
		KReflect:        0.1,
		KRefract:        0.9,
		RefractiveIndex: 1.33,
		CRefract:        material.Color(40, 80, 255),
	}))
	crownGlass := material.Must(material.New(material.Config{
		KReflect:        0.1,
		KRefract:        0.9,
		RefractiveIndex: 1.5,
	}))
	diamond := material.Must(material.New(material.Config{
		KReflect:        0.2,
		KRefract:        0.8,
		RefractiveIndex: 2.42,
		CRefract:        material.Color(0, 255, 120),
	}))
	wall := material.Must(material.New(material.Config{
		KDiffuse: 0.8,
		CDiffuse: material.Color(200, 190, 170),
		KAmbient: 0.2,
		CAmbient: material.Color(127, 127, 127),
	}))

	s.Add(
		mustSphere(core.NewVec3(-110, 40, -150), 40, water, "water sphere"),
		mustSphere(core.NewVec3(0, 40, -150), 40, crownGlass, "crown glass sphere"),
		mustSphere(core.NewVec3(110, 40, -150), 40, diamond, "diamond sphere"),
		mustCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), "floor"),
		mustPlane(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -400), wall, "back wall"),
	)
	s.AddLight(core.NewVec3(0, 200, 100))

	return s
}
