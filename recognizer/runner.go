package recognizer

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
)

// Dispatcher runs fn on the interactive context, e.g. fyne.Do. A nil
// Dispatcher calls fn directly on the worker goroutine.
type Dispatcher func(fn func())

// runnerQueueSize bounds the submissions waiting behind the active run.
const runnerQueueSize = 16

type job struct {
	ctx    context.Context
	img    image.Image
	onDone func(Result)
	onFail func(error)
}

// Runner owns a Pipeline and executes submissions one at a time on a single
// worker goroutine, so the classifier engine never sees concurrent runs.
type Runner struct {
	pipeline *Pipeline
	dispatch Dispatcher
	logger   *log.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

// NewRunner starts the worker goroutine.
func NewRunner(pipeline *Pipeline, dispatch Dispatcher, logger *log.Logger) *Runner {
	r := &Runner{
		pipeline: pipeline,
		dispatch: dispatch,
		logger:   logger,
		jobs:     make(chan job, runnerQueueSize),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

var (
	// ErrRunnerClosed is returned by Submit after Close.
	ErrRunnerClosed = errors.New("runner is closed")
	// ErrRunnerBusy is returned by Submit when the queue is full.
	ErrRunnerBusy = errors.New("runner queue is full")
)

// Submit queues a recognition of img. Exactly one of onDone or onFail is
// invoked through the dispatcher, unless ctx is cancelled while the glyphs are
// being classified, in which case neither is. Submit never blocks.
func (r *Runner) Submit(ctx context.Context, img image.Image, onDone func(Result), onFail func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	select {
	case r.jobs <- job{ctx: ctx, img: img, onDone: onDone, onFail: onFail}:
		return nil
	default:
		return ErrRunnerBusy
	}
}

// Close stops accepting work and waits for queued runs to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	for j := range r.jobs {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	res, err := r.pipeline.Recognize(j.ctx, j.img)
	switch {
	case errors.Is(err, ErrCancelled):
		r.logf("recognition cancelled after %d glyphs; no result delivered", res.Classified)
	case err != nil:
		if j.onFail != nil {
			r.deliver(func() { j.onFail(err) })
		}
	default:
		if j.onDone != nil {
			r.deliver(func() { j.onDone(res) })
		}
	}
}

func (r *Runner) deliver(fn func()) {
	if r.dispatch == nil {
		fn()
		return
	}
	r.dispatch(fn)
}

func (r *Runner) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
