package scene

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// NewDefaultScene creates the classic demo: a red-tinted glass sphere next to a
// mirror sphere, standing on a checkerboard under a half-mirror ceiling
func NewDefaultScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	s := New()
	if len(cameraOverrides) > 0 {
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}

	// Create materials
	redGlass := material.Must(material.New(material.Config{
		KReflect:        0.2,
		KRefract:        0.6,
		RefractiveIndex: 1.6,
		CRefract:        material.Color(255, 0, 0),
	}))
	mirror := material.Must(material.New(material.Config{
		KReflect: 0.8,
		KAmbient: 0.2,
	}))
	halfMirror := material.Must(material.New(material.Config{
		KReflect: 0.5,
	}))

	glassSphere := mustSphere(core.NewVec3(-50, 50, -100), 50, redGlass, "glass sphere")
	mirrorSphere := mustSphere(core.NewVec3(50, 50, -100), 50, mirror, "mirror sphere")
	floor := mustCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), "floor")
	ceiling := mustPlane(core.NewVec3(0, -1, 0), core.NewVec3(0, 100, 0), halfMirror, "ceiling")

	s.Add(glassSphere, mirrorSphere, floor, ceiling)
	s.AddLight(core.NewVec3(200, 99, 200))

	return s
}

// mustSphere creates a named sphere from constants known to be valid
func mustSphere(center core.Vec3, radius float64, mat *material.Material, name string) *geometry.Sphere {
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		panic(err)
	}
	sphere.Name = name
	return sphere
}

// mustPlane creates a named plane from constants known to be valid
func mustPlane(normal, point core.Vec3, mat *material.Material, name string) *geometry.Plane {
	plane, err := geometry.NewPlane(normal, point, mat)
	if err != nil {
		panic(err)
	}
	plane.Name = name
	return plane
}

// mustCheckerboard creates a named checkerboard from constants known to be valid
func mustCheckerboard(normal, point core.Vec3, name string) *geometry.Checkerboard {
	board, err := geometry.NewCheckerboard(normal, point)
	if err != nil {
		panic(err)
	}
	board.Name = name
	return board
}
