package archive

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt is returned when an archive stream does not decode
var ErrCorrupt = errors.New("corrupt archive")

// Reader reads back an archive written by Writer
type Reader struct {
	dir      string
	manifest Manifest
}

// Open reads the manifest of the archive in dir
func Open(dir string) (*Reader, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrCorrupt, err)
	}
	if manifest.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, manifest.Version)
	}
	return &Reader{dir: dir, manifest: manifest}, nil
}

// Manifest returns the archive manifest
func (r *Reader) Manifest() Manifest {
	return r.manifest
}

// ReadRows calls fn for every archived row in write order
func (r *Reader) ReadRows(fn func(y int, colors []core.Vec3) error) error {
	file, err := os.Open(filepath.Join(r.dir, r.manifest.RowsPath))
	if err != nil {
		return err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return err
	}
	defer decoder.Close()

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: row header: %v", ErrCorrupt, err)
		}
		y := int(binary.LittleEndian.Uint32(header[0:4]))
		count := int(binary.LittleEndian.Uint32(header[4:8]))

		body := make([]byte, count*24)
		if _, err := io.ReadFull(decoder, body); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrCorrupt, y, err)
		}
		colors := make([]core.Vec3, count)
		for i := range colors {
			off := i * 24
			colors[i] = core.NewVec3(
				math.Float64frombits(binary.LittleEndian.Uint64(body[off:])),
				math.Float64frombits(binary.LittleEndian.Uint64(body[off+8:])),
				math.Float64frombits(binary.LittleEndian.Uint64(body[off+16:])),
			)
		}
		if err := fn(y, colors); err != nil {
			return err
		}
	}
}

// ReadEvents calls fn for every archived trace event in write order
func (r *Reader) ReadEvents(fn func(core.TraceEvent) error) error {
	file, err := os.Open(filepath.Join(r.dir, r.manifest.EventsPath))
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	for scanner.Scan() {
		var event core.TraceEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return fmt.Errorf("%w: event: %v", ErrCorrupt, err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: events: %v", ErrCorrupt, err)
	}
	return nil
}

// Image rebuilds the raw float image from the archived rows
func (r *Reader) Image() (*renderer.FloatSink, error) {
	width, height := r.manifest.Render.Width, r.manifest.Render.Height
	sink := renderer.NewFloatSink(width, height)
	err := r.ReadRows(func(y int, colors []core.Vec3) error {
		if y < 0 || y >= height || len(colors) != width {
			return fmt.Errorf("%w: row %d has %d pixels, image is %dx%d", ErrCorrupt, y, len(colors), width, height)
		}
		for x, c := range colors {
			sink.SetPixel(x, y, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sink, nil
}
