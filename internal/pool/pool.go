package pool

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidSize = errors.New("pool size must be at least 1")

// Job is one unit of work run by a worker
type Job func()

// PanicHandler receives the value recovered from a panicking job
type PanicHandler func(worker int, recovered any)

type Option func(*Pool)

// WithPanicHandler reports recovered job panics to h
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) {
		p.onPanic = h
	}
}

// Pool runs jobs on a fixed set of workers that all pull from one queue.
// Jobs go to whichever worker is idle first; there is no ordering across
// workers.
type Pool struct {
	size    int
	jobs    *Queue[Job]
	workers []*worker
	onPanic PanicHandler
	once    sync.Once
}

type worker struct {
	id   int
	done chan struct{}
}

// New starts size workers
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	p := &Pool{
		size:    size,
		jobs:    NewQueue[Job](),
		workers: make([]*worker, 0, size),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < size; i++ {
		w := &worker{id: i, done: make(chan struct{})}
		p.workers = append(p.workers, w)
		go p.run(w)
	}

	return p, nil
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of queued jobs no worker has picked up yet
func (p *Pool) Pending() int {
	return p.jobs.Len()
}

// Execute queues job. It returns ErrClosed once Close has been called.
func (p *Pool) Execute(job Job) error {
	return p.jobs.Push(job)
}

// Close stops accepting jobs, lets the queued ones finish and waits for
// every worker, in the order they were started.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.jobs.Close()
	})
	for _, w := range p.workers {
		<-w.done
	}
}

func (p *Pool) run(w *worker) {
	defer close(w.done)

	for {
		job, ok := p.jobs.Pop()
		if !ok {
			return
		}
		p.runJob(w, job)
	}
}

func (p *Pool) runJob(w *worker, job Job) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(w.id, r)
		}
	}()

	job()
}
