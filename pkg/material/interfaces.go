package material

import (
	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Surface is the geometric side of a shaded primitive
type Surface interface {
	// Normal returns the outward surface normal at a point on the surface
	Normal(point core.Vec3) core.Vec3

	// Span returns the characteristic distance across the body (a sphere's
	// diameter), used to scale light absorption. Open surfaces report false.
	Span() (float64, bool)
}

// Tracer resolves secondary rays and light queries against the scene being rendered
type Tracer interface {
	TraceRay(origin, direction core.Vec3, depth int, refractiveIndex float64) core.Vec3
	ShadowFactor(point core.Vec3) float64
	LightPositions() []core.Vec3
	DiffuseAllLights() bool
	Hook() core.TraceHook // nil when nobody is listening
}

// Interaction describes a ray that reached its nearest hit
type Interaction struct {
	Origin          core.Vec3 // Origin of the incoming ray
	Direction       core.Vec3 // Unit direction of the incoming ray
	Distance        float64   // Hit distance along the ray
	Depth           int       // Recursion depth of the incoming ray
	RefractiveIndex float64   // Refractive index of the medium the ray travels in
	Label           string    // Name of the hit primitive, used in trace events
}

// Point returns the hit point
func (in Interaction) Point() core.Vec3 {
	return in.Origin.Add(in.Direction.Multiply(in.Distance))
}

// emit forwards an event to the tracer's hook if one is installed
func emit(tracer Tracer, event core.TraceEvent) {
	if hook := tracer.Hook(); hook != nil {
		hook.OnTraceEvent(event)
	}
}
