package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// RowTask represents a row rendering task for the worker pool
type RowTask struct {
	Y      int
	TaskID int // For deterministic ordering
}

// RowResult contains the colors traced for one row
type RowResult struct {
	TaskID int
	Y      int
	Colors []core.Vec3 // One raw color per pixel, indexed by x
	Error  error
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// Workers share the raytracer; scenes are read-only while rendering.
func NewWorkerPool(raytracer *Raytracer, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// Buffer every row so submitting never blocks
	_, rows := raytracer.ImageSize()

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, rows),
		resultQueue: make(chan RowResult, rows),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			raytracer:   raytracer,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row result
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop. Cancellation is only observed between rows.
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- RowResult{TaskID: task.TaskID, Y: task.Y, Error: err}
			continue
		}

		w.resultQueue <- RowResult{
			TaskID: task.TaskID,
			Y:      task.Y,
			Colors: w.raytracer.traceRow(task.Y),
		}
	}
}

// RenderParallel renders all rows on a worker pool. Each finished row is written
// to sink and then passed to onRow (which may be nil). Rows arrive in completion
// order, not top to bottom. A cancelled context stops the render between rows
// and its error is returned.
func (rt *Raytracer) RenderParallel(ctx context.Context, sink PixelSink, onRow func(RowResult)) (RenderStats, error) {
	start := time.Now()
	width, height := rt.ImageSize()

	pool := NewWorkerPool(rt, rt.options.Workers)
	pool.Start(ctx)
	defer pool.Stop()

	for y := 0; y < height; y++ {
		pool.SubmitTask(RowTask{Y: y, TaskID: y})
	}

	var firstErr error
	for i := 0; i < height; i++ {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			if firstErr == nil {
				firstErr = result.Error
			}
			continue
		}

		for x, color := range result.Colors {
			sink.SetPixel(x, result.Y, color)
		}
		if onRow != nil {
			onRow(result)
		}
	}

	stats := rt.newStats(pool.GetNumWorkers(), time.Since(start))
	if firstErr != nil {
		return stats, fmt.Errorf("render cancelled: %w", firstErr)
	}

	rt.logger.Printf("Rendered %dx%d in %v with %d workers\n", width, height, stats.Elapsed, stats.Workers)
	return stats, nil
}
