package scene

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// NewCorridorScene creates two perfect mirrors facing each other across a
// checkerboard corridor. Rays caught between the mirrors run into the recursion
// bound, so the far end of the corridor shows the recursion limit color.
func NewCorridorScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	s := New()
	if len(cameraOverrides) > 0 {
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}

	perfectMirror := material.Must(material.New(material.Config{KReflect: 1}))
	matteBlue := material.Must(material.New(material.Config{
		KDiffuse: 0.7,
		CDiffuse: material.Color(60, 90, 220),
		KAmbient: 0.3,
		CAmbient: material.Color(20, 30, 80),
	}))

	backMirror := mustPlane(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -300), perfectMirror, "back mirror")
	frontMirror := mustPlane(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 300), perfectMirror, "front mirror")
	floor := mustCheckerboard(core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), "floor")
	ball := mustSphere(core.NewVec3(0, 40, -100), 40, matteBlue, "ball")

	s.Add(backMirror, frontMirror, floor, ball)
	s.AddLight(core.NewVec3(0, 90, 0))

	return s
}
