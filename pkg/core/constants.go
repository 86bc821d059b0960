package core

const (
	// Epsilon rejects intersections this close to a ray's own origin
	Epsilon = 1e-9

	// DefaultMaxDepth bounds reflection and refraction chains
	DefaultMaxDepth = 16

	// AirRefractiveIndex is the refractive index of the medium primary rays start in
	AirRefractiveIndex = 1.0
)

var (
	White = NewVec3(255, 255, 255)
	Black = NewVec3(0, 0, 0)
	Gray  = NewVec3(127, 127, 127)

	// BackgroundColor is returned for rays that hit nothing
	BackgroundColor = NewVec3(0, 255, 255)

	// RecursionLimitColor marks rays that exceeded the recursion bound
	RecursionLimitColor = NewVec3(255, 0, 255)
)

// NamedColors maps the color names accepted by scene descriptions
var NamedColors = map[string]Vec3{
	"black": Black,
	"white": White,
	"gray":  Gray,
}
