package worker

import (
	"sync"

	"github.com/futurehomeno/cliffhanger/root"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrStopped is returned when a job is submitted to a worker which is not running.
var ErrStopped = errors.New("worker: not running")

// Worker runs submitted jobs one at a time on a single goroutine.
// Blocking NIU calls are handed over to it, so the routing and task goroutines never issue overlapping calls.
type Worker interface {
	root.Service

	// Do runs the job on the worker goroutine and waits for its result.
	Do(job func() error) error
}

type request struct {
	job    func() error
	result chan error
}

type worker struct {
	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
	queue   chan request
}

// New creates a new worker. It has to be started before any job can be submitted.
func New() Worker {
	return &worker{}
}

func (w *worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	w.queue = make(chan request)

	go w.run(w.queue, w.done, w.stopped)

	w.running = true

	log.Debug("worker: started")

	return nil
}

func (w *worker) Stop() error {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()

		return nil
	}

	close(w.done)
	w.running = false
	stopped := w.stopped

	w.mu.Unlock()

	// Wait for the job in progress, if any.
	<-stopped

	log.Debug("worker: stopped")

	return nil
}

func (w *worker) Do(job func() error) error {
	w.mu.Lock()

	if !w.running {
		w.mu.Unlock()

		return ErrStopped
	}

	queue, done := w.queue, w.done

	w.mu.Unlock()

	req := request{job: job, result: make(chan error, 1)}

	select {
	case queue <- req:
	case <-done:
		return ErrStopped
	}

	return <-req.result
}

func (w *worker) run(queue <-chan request, done, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-done:
			return
		case req := <-queue:
			req.result <- w.execute(req.job)
		}
	}
}

func (w *worker) execute(job func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("worker: job panicked")

			err = errors.Errorf("worker: job panicked: %v", r)
		}
	}()

	return job()
}
