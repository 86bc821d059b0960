package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/archive"
	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/pkg/renderer"
	"github.com/df07/go-whitted-raytracer/pkg/scene"
	"github.com/google/uuid"
)

// cliOptions holds the parsed command line
type cliOptions struct {
	Scene       string
	Width       int
	Height      int
	MaxDepth    int
	StartDepth  int
	Workers     int
	OutputDir   string
	ArchiveDir  string
	TraceEvents bool
	Probe       string
	Help        bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := &cliOptions{}
	fs := newFlagSet(opts, cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	// Show help if requested
	if opts.Help {
		printHelp(os.Stdout, fs)
		return
	}

	logger, err := logging.New(cfg.Logging, "raytracer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("render failed", logging.Error(err))
		os.Exit(1)
	}
}

// newFlagSet registers the command line flags, using cfg for defaults
func newFlagSet(opts *cliOptions, cfg *config.Config) *flag.FlagSet {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.StringVar(&opts.Scene, "scene", "default", "Scene: built-in name, json:<name> or path to a .json scene")
	fs.IntVar(&opts.Width, "width", 0, "Camera sweep width (0 keeps the scene's)")
	fs.IntVar(&opts.Height, "height", 0, "Camera sweep height (0 keeps the scene's)")
	fs.IntVar(&opts.MaxDepth, "depth", cfg.MaxDepth, "Recursion limit (0 keeps the scene's)")
	fs.IntVar(&opts.StartDepth, "start-depth", 0, "Depth primary rays start at")
	fs.IntVar(&opts.Workers, "workers", cfg.Workers, "Number of render workers (0 = one per CPU)")
	fs.StringVar(&opts.OutputDir, "out", cfg.OutputDir, "Output directory")
	fs.StringVar(&opts.ArchiveDir, "archive", cfg.ArchiveDir, "Write a render archive under this directory")
	fs.BoolVar(&opts.TraceEvents, "trace-events", false, "Archive every trace event of the render (with -archive)")
	fs.StringVar(&opts.Probe, "probe", "", "Trace the single pixel \"x,y\" and print its events instead of rendering")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")
	return fs
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Whitted Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	if response, err := scene.ListAllScenes(); err == nil {
		for _, group := range response.Groups {
			for _, info := range group.Scenes {
				fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.Description)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output will be saved to <out>/<scene>/render_<timestamp>.png")
}

// run renders the selected scene to a PNG, or probes one pixel when requested.
// A failed run removes its archive.
func run(ctx context.Context, opts *cliOptions, logger *logging.Logger, stdout io.Writer) (err error) {
	sceneObj, err := scene.ByName(opts.Scene, renderer.CameraConfig{Width: opts.Width, Height: opts.Height})
	if err != nil {
		return err
	}
	if opts.MaxDepth > 0 {
		sceneObj.MaxDepth = opts.MaxDepth
	}

	var probeX, probeY int
	if opts.Probe != "" {
		if probeX, probeY, err = parsePixel(opts.Probe); err != nil {
			return err
		}
	}

	camera, err := renderer.NewCamera(sceneObj.GetCameraConfig())
	if err != nil {
		return err
	}
	width, height := camera.ImageSize()

	renderID := uuid.NewString()
	logger = logger.With(logging.String("render_id", renderID), logging.String("scene", opts.Scene))

	options := renderer.DefaultRenderOptions()
	options.StartDepth = opts.StartDepth
	options.Workers = opts.Workers

	var writer *archive.Writer
	if opts.ArchiveDir != "" {
		writer, err = archive.NewWriter(opts.ArchiveDir, archive.Metadata{
			RenderID:   renderID,
			Scene:      opts.Scene,
			Width:      width,
			Height:     height,
			MaxDepth:   sceneObj.GetMaxDepth(),
			StartDepth: opts.StartDepth,
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
		defer func() {
			if closeErr := writer.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close archive: %w", closeErr)
			}
			if err != nil {
				os.RemoveAll(writer.Directory())
				return
			}
			logger.Info("archive written", logging.String("dir", writer.Directory()))
		}()
		if opts.Probe != "" || opts.TraceEvents {
			options.Hook = writer
		}
	}

	rt, err := renderer.NewRaytracer(sceneObj, options, logger)
	if err != nil {
		return err
	}

	if opts.Probe != "" {
		return probe(rt, probeX, probeY, stdout)
	}

	canvas := renderer.NewCanvasSink(width, height)
	logger.Info("rendering", logging.Int("width", width), logging.Int("height", height), logging.Int("max_depth", sceneObj.GetMaxDepth()))

	var onRow func(renderer.RowResult)
	if writer != nil {
		onRow = func(row renderer.RowResult) {
			if err := writer.AppendRow(row.Y, row.Colors); err != nil {
				logger.Error("failed to archive row", logging.Int("y", row.Y), logging.Error(err))
			}
		}
	}
	stats, err := rt.RenderParallel(ctx, canvas, onRow)
	if err != nil {
		return err
	}
	if writer != nil {
		writer.SetStats(stats)
	}

	// Create output directory for this scene
	outputDir := filepath.Join(opts.OutputDir, sceneDirName(opts.Scene))
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", time.Now().Format("20060102_150405")))
	if err := canvas.SavePNG(filename); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}

	logger.Info("render saved",
		logging.String("file", filename),
		logging.Duration("elapsed", stats.Elapsed),
		logging.Any("events", stats.Events))
	fmt.Fprintln(stdout, filename)
	return nil
}

// probe traces one pixel and prints the result as JSON. Its events reach the
// archive through the raytracer's hook.
func probe(rt *renderer.Raytracer, x, y int, stdout io.Writer) error {
	result, err := rt.ProbePixel(x, y)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

var errBadPixel = errors.New("pixel must be given as x,y")

// parsePixel parses "x,y" into integer pixel coordinates
func parsePixel(spec string) (int, int, error) {
	xs, ys, ok := strings.Cut(spec, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w, got %q", errBadPixel, spec)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("%w, got %q", errBadPixel, spec)
	}
	return x, y, nil
}

// sceneDirName turns a scene name or path into a directory name
func sceneDirName(name string) string {
	if strings.HasSuffix(name, ".json") {
		name = strings.TrimSuffix(filepath.Base(name), ".json")
	}
	return strings.ReplaceAll(name, ":", "-")
}
