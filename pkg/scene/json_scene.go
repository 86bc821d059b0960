package scene

import (
	"fmt"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/geometry"
	"github.com/df07/go-whitted-raytracer/pkg/loaders"
	"github.com/df07/go-whitted-raytracer/pkg/material"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
)

// NewJSONScene creates a scene from a JSON scene file
func NewJSONScene(filepath string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	desc, err := loaders.LoadScene(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene file: %w", err)
	}

	s, err := FromDescription(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}
	if len(cameraOverrides) > 0 {
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, cameraOverrides[0])
	}
	return s, nil
}

// FromDescription builds a scene from a parsed scene description
func FromDescription(desc *loaders.SceneDescription) (*Scene, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	s := New()
	s.DiffuseAll = desc.DiffuseAllLights
	if desc.MaxDepth > 0 {
		s.MaxDepth = desc.MaxDepth
	}

	if err := convertCamera(desc.Camera, s); err != nil {
		return nil, fmt.Errorf("failed to convert camera: %w", err)
	}

	for _, light := range desc.Lights {
		s.AddLight(light.Vec3())
	}

	for i := range desc.Objects {
		primitive, err := convertObject(&desc.Objects[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert object %d: %w", i, err)
		}
		s.Add(primitive)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// convertCamera applies the description's camera fields over the default camera
func convertCamera(cam *loaders.CameraDescription, s *Scene) error {
	if cam == nil {
		return nil
	}

	var override renderer.CameraConfig
	if cam.Position != nil {
		override.Position = cam.Position.Vec3()
	}
	if cam.Direction != nil {
		override.Direction = cam.Direction.Vec3()
	}
	if cam.Left != nil {
		override.Left = cam.Left.Vec3()
	}
	if cam.FOV != nil {
		if *cam.FOV <= 0 {
			return fmt.Errorf("fov must be positive, got %v", *cam.FOV)
		}
		override.FOV = *cam.FOV
	}
	override.Width = cam.Width
	override.Height = cam.Height

	s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, override)
	return nil
}

// convertMaterial maps description keys onto a material config
func convertMaterial(desc *loaders.MaterialDescription) (*material.Material, error) {
	return material.New(material.Config{
		KReflect:        desc.KReflect,
		CReflect:        desc.CReflect.Vec3(),
		KRefract:        desc.KRefract,
		CRefract:        desc.CRefract.Vec3(),
		RefractiveIndex: desc.RefractiveIndex,
		KAmbient:        desc.KAmbient,
		CAmbient:        desc.CAmbient.Vec3(),
		KDiffuse:        desc.KDiffuse,
		CDiffuse:        desc.CDiffuse.Vec3(),
	})
}

// convertObject creates the primitive an object description names
func convertObject(obj *loaders.ObjectDescription) (geometry.Primitive, error) {
	switch obj.Type {
	case loaders.TypeSphere:
		mat, err := convertMaterial(&obj.Material)
		if err != nil {
			return nil, err
		}
		sphere, err := geometry.NewSphere(obj.Center.Vec3(), obj.Radius, mat)
		if err != nil {
			return nil, err
		}
		sphere.Name = obj.Name
		return sphere, nil

	case loaders.TypePlane:
		mat, err := convertMaterial(&obj.Material)
		if err != nil {
			return nil, err
		}
		plane, err := geometry.NewPlane(obj.Normal.Vec3(), pointOrOrigin(obj.Point), mat)
		if err != nil {
			return nil, err
		}
		plane.Name = obj.Name
		return plane, nil

	case loaders.TypeCheckerboard:
		// Validate rejects checkerboard materials; the pattern replaces shading
		board, err := geometry.NewCheckerboard(obj.Normal.Vec3(), pointOrOrigin(obj.Point))
		if err != nil {
			return nil, err
		}
		board.Name = obj.Name
		return board, nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", loaders.ErrInvalidScene, obj.Type)
	}
}

func pointOrOrigin(p *loaders.Vector) core.Vec3 {
	if p == nil {
		return core.Vec3{}
	}
	return p.Vec3()
}
