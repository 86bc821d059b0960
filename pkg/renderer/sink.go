package renderer

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/fogleman/gg"
)

// PixelSink receives traced colors. Sinks must accept pixels in any order and
// from several goroutines at once.
type PixelSink interface {
	SetPixel(x, y int, color core.Vec3)
}

// ColorToRGBA clamps a raw color to [0, 255] per channel and rounds it to 8 bits
func ColorToRGBA(c core.Vec3) color.RGBA {
	c = c.Clamp(0, 255)
	return color.RGBA{
		R: uint8(math.Round(c.X)),
		G: uint8(math.Round(c.Y)),
		B: uint8(math.Round(c.Z)),
		A: 255,
	}
}

// ImageSink writes pixels into an in-memory RGBA image. Distinct pixels occupy
// distinct bytes, so concurrent writes need no lock.
type ImageSink struct {
	img *image.RGBA
}

// NewImageSink creates an image sink of the given size
func NewImageSink(width, height int) *ImageSink {
	return &ImageSink{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// SetPixel stores the clamped color
func (s *ImageSink) SetPixel(x, y int, c core.Vec3) {
	s.img.SetRGBA(x, y, ColorToRGBA(c))
}

// Image returns the underlying image
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}

// CanvasSink draws pixels on a gg drawing context, the way a browser canvas
// receives fillRect calls
type CanvasSink struct {
	mu  sync.Mutex
	ctx *gg.Context
}

// NewCanvasSink creates a canvas of the given size
func NewCanvasSink(width, height int) *CanvasSink {
	return &CanvasSink{ctx: gg.NewContext(width, height)}
}

// SetPixel paints one pixel. gg.Context is not safe for concurrent use.
func (s *CanvasSink) SetPixel(x, y int, c core.Vec3) {
	rgba := ColorToRGBA(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.SetRGB255(int(rgba.R), int(rgba.G), int(rgba.B))
	s.ctx.SetPixel(x, y)
}

// SavePNG writes the canvas to a PNG file
func (s *CanvasSink) SavePNG(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.SavePNG(path)
}

// Image returns the canvas contents
func (s *CanvasSink) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Image()
}

// FloatSink keeps the raw, unclamped colors as three float64 values per pixel
// in row-major order
type FloatSink struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFloatSink creates a float sink of the given size
func NewFloatSink(width, height int) *FloatSink {
	return &FloatSink{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*3),
	}
}

// SetPixel stores the raw color
func (s *FloatSink) SetPixel(x, y int, c core.Vec3) {
	i := (y*s.Width + x) * 3
	s.Pix[i] = c.X
	s.Pix[i+1] = c.Y
	s.Pix[i+2] = c.Z
}

// At returns the raw color stored for pixel (x, y)
func (s *FloatSink) At(x, y int) core.Vec3 {
	i := (y*s.Width + x) * 3
	return core.NewVec3(s.Pix[i], s.Pix[i+1], s.Pix[i+2])
}

// Row returns the raw colors of row y as a slice of the backing buffer
func (s *FloatSink) Row(y int) []float64 {
	start := y * s.Width * 3
	return s.Pix[start : start+s.Width*3]
}

// MultiSink fans each pixel out to several sinks
type MultiSink []PixelSink

// SetPixel forwards the pixel to every sink
func (m MultiSink) SetPixel(x, y int, c core.Vec3) {
	for _, sink := range m {
		sink.SetPixel(x, y, c)
	}
}
