package material

import (
	"math"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// Shade computes the color seen along an interaction by summing the weighted
// reflect, refract, ambient and diffuse contributions. Reflect, ambient and
// diffuse only apply when the surface is viewed from outside.
func (m *Material) Shade(surface Surface, tracer Tracer, in Interaction) core.Vec3 {
	point := in.Point()
	normal := surface.Normal(point)
	exit := normal.Dot(in.Direction) > 0

	var result core.Vec3
	if m.KReflect > 0 && !exit {
		result.AddScaledInPlace(m.reflect(tracer, in, point, normal), m.KReflect)
	}
	if m.KRefract > 0 {
		// A transparent body's own outgoing ray is not weighted again
		weight := m.KRefract
		if exit {
			weight = 1
		}
		result.AddScaledInPlace(m.refract(surface, tracer, in, point, normal), weight)
	}
	if m.KAmbient > 0 && !exit {
		emit(tracer, core.TraceEvent{Kind: core.EventAmbient, Depth: in.Depth, Primitive: in.Label, Point: point})
		result.AddScaledInPlace(m.CAmbient, m.KAmbient)
	}
	if m.KDiffuse > 0 && !exit {
		result.AddScaledInPlace(m.diffuse(tracer, in, point, normal), m.KDiffuse)
	}

	core.AssertFinite(result, in.Label)
	return result
}

// reflect traces the mirror reflection of the incoming ray
func (m *Material) reflect(tracer Tracer, in Interaction, point, normal core.Vec3) core.Vec3 {
	direction := reflectVector(in.Direction, normal).Normalize()
	emit(tracer, core.TraceEvent{Kind: core.EventReflect, Depth: in.Depth, Primitive: in.Label, Point: point, Direction: direction})

	traced := tracer.TraceRay(point, direction, in.Depth+1, in.RefractiveIndex)
	return traced.MultiplyVec(m.CReflect.Multiply(1.0 / 255))
}

// refract bends the incoming ray with Snell's law and traces it through the surface.
// Total internal reflection falls back to the reflection path.
func (m *Material) refract(surface Surface, tracer Tracer, in Interaction, point, normal core.Vec3) core.Vec3 {
	d := in.Direction
	theta1 := math.Acos(clampUnit(d.Dot(normal)))

	from, to := in.RefractiveIndex, m.RefractiveIndex
	entering := theta1 >= math.Pi/2
	if entering {
		theta1 = math.Pi - theta1
	} else {
		from, to = m.RefractiveIndex, core.AirRefractiveIndex
	}

	theta2 := math.Asin(from / to * math.Sin(theta1))
	if math.IsNaN(theta2) {
		emit(tracer, core.TraceEvent{Kind: core.EventTotalReflection, Depth: in.Depth, Primitive: in.Label, Point: point, Angle: theta1})
		return m.reflect(tracer, in, point, normal)
	}

	sign := 1.0
	if !entering {
		sign = -1
	}
	direction := d
	if axis, err := d.Cross(normal).Multiply(sign).NormalizeChecked(); err == nil {
		direction = d.RotateAround(axis, theta2-theta1).Normalize()
	}
	// A degenerate axis means the ray runs along the normal and passes straight through

	absorption := 0.0
	if !entering && m.HasRefractTint {
		if span, ok := surface.Span(); ok && span > 0 {
			absorption = math.Min(1, math.Pow(in.Distance/span, 10))
		}
	}

	emit(tracer, core.TraceEvent{
		Kind:      core.EventRefract,
		Depth:     in.Depth,
		Primitive: in.Label,
		Point:     point,
		Direction: direction,
		Angle:     theta1,
		Value:     absorption,
	})

	traced := tracer.TraceRay(point, direction, in.Depth+1, to)
	if absorption == 0 {
		return traced
	}
	return traced.Multiply(1 - absorption).Add(m.CRefract.Multiply(absorption))
}

// diffuse returns the Lambertian term for the first light, or the average over
// all lights when the tracer asks for it
func (m *Material) diffuse(tracer Tracer, in Interaction, point, normal core.Vec3) core.Vec3 {
	if normal.Dot(in.Direction) > 0 {
		return core.Black
	}

	lights := tracer.LightPositions()
	if len(lights) == 0 {
		return core.Black
	}
	if !tracer.DiffuseAllLights() {
		lights = lights[:1]
	}

	intensity := 0.0
	for _, light := range lights {
		toLight, err := light.Subtract(point).NormalizeChecked()
		if err != nil {
			continue // light sits on the surface
		}
		intensity += math.Abs(normal.Dot(toLight))
	}
	intensity /= float64(len(lights))

	emit(tracer, core.TraceEvent{Kind: core.EventDiffuse, Depth: in.Depth, Primitive: in.Label, Point: point, Value: intensity})
	return m.CDiffuse.Multiply(intensity)
}

// reflectVector calculates the reflection of a vector v off a surface with normal n
func reflectVector(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// clampUnit keeps rounding noise from pushing a cosine outside acos's domain
func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
