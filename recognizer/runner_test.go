package recognizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func TestRunnerDeliversResultThroughDispatcher(t *testing.T) {
	seg := fakeSegmenter{glyphs: glyphImages(2), boxes: []BoundingBox{box(0, 0, 5, 5), box(10, 0, 5, 5)}}
	p := newTestPipeline(t, seg, newFakeClassifier([]string{"h", "i"}, []float32{0.6, 0.8}))

	var dispatched atomic.Int32
	r := NewRunner(p, func(fn func()) {
		dispatched.Add(1)
		fn()
	}, nil)
	defer r.Close()

	done := make(chan Result, 1)
	failed := make(chan error, 1)
	if err := r.Submit(context.Background(), nil, func(res Result) { done <- res }, func(err error) { failed <- err }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res := waitFor(t, done)
	if res.Text != "hi" || !approx(res.MeanConfidence, 0.7) {
		t.Errorf("result = %+v", res)
	}
	r.Close()
	if dispatched.Load() != 1 {
		t.Errorf("dispatched %d times, want 1", dispatched.Load())
	}
	if len(failed) != 0 {
		t.Error("failure callback must not fire on success")
	}
}

func TestRunnerDeliversFailure(t *testing.T) {
	p := newTestPipeline(t, fakeSegmenter{}, newFakeClassifier([]string{"a"}, []float32{1}))
	r := NewRunner(p, nil, nil)
	defer r.Close()

	failed := make(chan error, 1)
	if err := r.Submit(context.Background(), nil, func(Result) { t.Error("unexpected result") }, func(err error) { failed <- err }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := waitFor(t, failed); !errors.Is(err, ErrUnrecognizableImage) {
		t.Errorf("expected ErrUnrecognizableImage, got %v", err)
	}
}

func TestRunnerCancelledRunDeliversNothing(t *testing.T) {
	seg := fakeSegmenter{glyphs: glyphImages(3), boxes: []BoundingBox{box(0, 0, 5, 5), box(10, 0, 5, 5), box(20, 0, 5, 5)}}
	cls := newFakeClassifier([]string{"a"}, []float32{1})
	p := newTestPipeline(t, seg, cls)

	var callbacks atomic.Int32
	r := NewRunner(p, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cls.onCall = func(n int) {
		if n == 0 {
			cancel()
		}
	}
	if err := r.Submit(ctx, nil, func(Result) { callbacks.Add(1) }, func(error) { callbacks.Add(1) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r.Close()
	if callbacks.Load() != 0 {
		t.Errorf("%d callbacks fired for a cancelled run", callbacks.Load())
	}
	if cls.count() != 1 {
		t.Errorf("classifier called %d times, want 1", cls.count())
	}
}

func TestRunnerSerializesSubmissions(t *testing.T) {
	seg := fakeSegmenter{glyphs: glyphImages(1), boxes: []BoundingBox{box(0, 0, 5, 5)}}
	p := newTestPipeline(t, seg, newFakeClassifier([]string{"a"}, []float32{1}))
	r := NewRunner(p, nil, nil)

	var order []int
	for i := 0; i < 5; i++ {
		if err := r.Submit(context.Background(), nil, func(Result) { order = append(order, i) }, nil); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	r.Close()
	if len(order) != 5 {
		t.Fatalf("delivered %d results, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestRunnerClosed(t *testing.T) {
	p := newTestPipeline(t, fakeSegmenter{}, newFakeClassifier([]string{"a"}, []float32{1}))
	r := NewRunner(p, nil, nil)
	r.Close()
	r.Close()
	if err := r.Submit(context.Background(), nil, nil, nil); !errors.Is(err, ErrRunnerClosed) {
		t.Errorf("expected ErrRunnerClosed, got %v", err)
	}
}

func TestRunnerSubmitDoesNotBlockWhenFull(t *testing.T) {
	seg := fakeSegmenter{glyphs: glyphImages(1), boxes: []BoundingBox{box(0, 0, 5, 5)}}
	cls := newFakeClassifier([]string{"a"}, []float32{1})
	started := make(chan struct{})
	release := make(chan struct{})
	cls.onCall = func(n int) {
		if n == 0 {
			close(started)
			<-release
		}
	}
	r := NewRunner(newTestPipeline(t, seg, cls), nil, nil)

	var delivered atomic.Int32
	onDone := func(Result) { delivered.Add(1) }
	if err := r.Submit(context.Background(), nil, onDone, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, started)
	for i := 0; i < runnerQueueSize; i++ {
		if err := r.Submit(context.Background(), nil, onDone, nil); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- r.Submit(context.Background(), nil, onDone, nil) }()
	if err := waitFor(t, errc); !errors.Is(err, ErrRunnerBusy) {
		t.Errorf("expected ErrRunnerBusy, got %v", err)
	}

	close(release)
	r.Close()
	if got := delivered.Load(); got != runnerQueueSize+1 {
		t.Errorf("delivered %d results, want %d", got, runnerQueueSize+1)
	}
}
