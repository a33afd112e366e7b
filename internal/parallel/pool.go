// Package parallel provides a bounded worker pool for running independent
// presolve jobs concurrently. Each Problem is single-threaded by contract,
// so parallelism lives one level up: whole problems (scenario batches,
// subproblem portfolios) are submitted as tasks and processed by a fixed
// number of workers with backpressure on submission.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned when submitting to a pool that was shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shut down")

// WorkerPool runs submitted tasks on a fixed set of goroutines. The task
// channel is buffered at twice the worker count; a full buffer blocks
// Submit, which bounds the amount of queued presolve work.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a pool with the given number of workers.
// A non-positive count defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()

	for {
		select {
		case task, ok := <-wp.taskChan:
			if !ok {
				return
			}
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit hands a task to the pool, blocking while the queue is full.
// Returns the context error if ctx ends first, or ErrPoolShutdown if the
// pool was shut down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops the workers after their current task and waits for them.
// Safe to call more than once.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}
