package concurrent

import (
	"runtime"
	"sync"
)

type JobFunc[J any, R any] func(job J) R

// WorkerPool runs a fixed set of jobs on numWorkers goroutines. The job
// queue is buffered to hold every job, so all jobs are queued (AddJob, then
// Close) before Start. Results arrive in completion order.
type WorkerPool[J any, R any] struct {
	numWorkers int
	jobQueue   chan J
	results    chan R
	wg         sync.WaitGroup
}

// NewWorkerPool. numWorkers <= 0 uses GOMAXPROCS workers.
func NewWorkerPool[J any, R any](numWorkers, jobQueueSize int) *WorkerPool[J, R] {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool[J, R]{
		numWorkers: numWorkers,
		jobQueue:   make(chan J, jobQueueSize),
		results:    make(chan R, jobQueueSize),
	}
}

func (wp *WorkerPool[J, R]) worker(jobFunc JobFunc[J, R]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job)
	}
}

func (wp *WorkerPool[J, R]) Start(jobFunc JobFunc[J, R]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

func (wp *WorkerPool[J, R]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[J, R]) AddJob(job J) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[J, R]) CollectResults() chan R {
	return wp.results
}

func (wp *WorkerPool[J, R]) Close() {
	close(wp.jobQueue)
}

// ForEachIndex calls fn(i) for i in [0, n) on a pool of numWorkers workers
// and blocks until every call returned. fn must only touch state owned by
// index i.
func ForEachIndex(numWorkers, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	if n == 1 {
		fn(0)
		return
	}
	workers := NewWorkerPool[int, struct{}](min(numWorkers, n), n)
	for i := 0; i < n; i++ {
		workers.AddJob(i)
	}
	workers.Close()
	workers.Start(func(i int) struct{} {
		fn(i)
		return struct{}{}
	})
	workers.Wait()
}
