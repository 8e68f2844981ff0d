package ingest

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool
type Job interface {
	Execute(ctx context.Context) JobResult
}

// JobResult is the outcome of a job execution
type JobResult interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers. Jobs inherit the context the
// pool was created with, so canceling it stops the batch.
type Pool struct {
	workers   int
	jobQueue  chan Job
	results   chan JobResult
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a worker pool bound to ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers*2),
		results:  make(chan JobResult, workers*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job for execution
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job:
	}
}

// Close marks the queue complete. No Submit may follow. The results channel
// closes once the workers drain the remaining jobs.
func (p *Pool) Close() {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

// Results returns the channel job results arrive on. Callers that submit more
// jobs than the queue buffers must drain it while submitting, or the workers
// stall on delivery.
func (p *Pool) Results() <-chan JobResult {
	return p.results
}

// Wait closes the queue, waits for all submitted jobs, and returns their
// results in completion order
func (p *Pool) Wait() []JobResult {
	p.Close()

	var results []JobResult
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown cancels outstanding work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
