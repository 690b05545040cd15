package temporal

import (
	"image"
	"runtime"
	"sync"
)

// tileTask is one tile of one frame.
type tileTask struct {
	TaskID int
	Bounds image.Rectangle
	Job    *frameJob
}

// tileResult carries the per-tile counters back to the frame barrier.
type tileResult struct {
	TaskID int
	Stats  Stats
}

// workerPool runs tile tasks on a fixed set of goroutines. Tiles of a frame
// never overlap, so workers write the shared output slot without locking.
type workerPool struct {
	taskQueue   chan tileTask
	resultQueue chan tileResult
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

func newWorkerPool(numWorkers, maxTiles int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &workerPool{
		taskQueue:   make(chan tileTask, maxTiles),
		resultQueue: make(chan tileResult, maxTiles),
		numWorkers:  numWorkers,
	}
}

func (wp *workerPool) Start() {
	wp.startOnce.Do(func() {
		for i := 0; i < wp.numWorkers; i++ {
			wp.wg.Add(1)
			go wp.run()
		}
	})
}

// Stop drains the workers. Safe to call more than once.
func (wp *workerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

func (wp *workerPool) Submit(t tileTask) { wp.taskQueue <- t }

func (wp *workerPool) Result() (tileResult, bool) {
	r, ok := <-wp.resultQueue
	return r, ok
}

func (wp *workerPool) run() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.resultQueue <- tileResult{
			TaskID: task.TaskID,
			Stats:  task.Job.resolveTile(task.Bounds),
		}
	}
}

// tileGrid covers a width x height image with tiles of at most tileSize.
func tileGrid(width, height, tileSize int) []image.Rectangle {
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize
	tiles := make([]image.Rectangle, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0 := tx * tileSize
			y0 := ty * tileSize
			tiles = append(tiles, image.Rect(x0, y0, min(x0+tileSize, width), min(y0+tileSize, height)))
		}
	}
	return tiles
}
