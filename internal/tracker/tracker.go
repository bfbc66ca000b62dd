// Package tracker models the lifecycle of one asynchronous request:
// loading, data, and a normalized error.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

// State is the observable snapshot of a tracked operation. At steady state at
// most one of Data and Error is set.
type State[T any] struct {
	Data    *T
	Loading bool
	Error   *models.OperationError
}

// FetchFunc performs the request for key.
type FetchFunc[T any] func(ctx context.Context, key string) (*T, error)

// ClassifyFunc normalizes a fetch failure into the error taxonomy.
type ClassifyFunc func(err error) *models.OperationError

// Listener observes every committed state change.
type Listener[T any] func(key string, s State[T])

// Tracker owns one operation. Run and Reset bump a generation counter, and a
// completion is committed only if its generation is still current, so a late
// response never overwrites a reset or a newer run.
type Tracker[T any] struct {
	name     string
	fetch    FetchFunc[T]
	classify ClassifyFunc

	mu         sync.Mutex
	state      State[T]
	key        string
	generation uint64
	listeners  []Listener[T]

	// notifyMu keeps listener calls in commit order.
	notifyMu sync.Mutex
}

// New creates a tracker named name for log output.
func New[T any](name string, fetch FetchFunc[T], classify ClassifyFunc) *Tracker[T] {
	if classify == nil {
		classify = defaultClassify
	}
	return &Tracker[T]{
		name:     name,
		fetch:    fetch,
		classify: classify,
	}
}

// OnChange registers a listener. Listeners must not call back into the tracker.
func (t *Tracker[T]) OnChange(l Listener[T]) {
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

// Run starts a request for key. Loading is set and any previous data or error
// is cleared before Run returns; the request itself runs in the background.
// The returned channel is closed once the request settles, whether or not its
// result was committed.
func (t *Tracker[T]) Run(ctx context.Context, key string) <-chan struct{} {
	t.notifyMu.Lock()
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.key = key
	t.state = State[T]{Loading: true}
	snap, listeners := t.state, t.listenersLocked()
	t.mu.Unlock()
	notify(listeners, key, snap)
	t.notifyMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.settle(ctx, gen, key)
	}()
	return done
}

// RunSync is Run followed by waiting for the request to settle. It returns the
// state as observed right after settling.
func (t *Tracker[T]) RunSync(ctx context.Context, key string) State[T] {
	<-t.Run(ctx, key)
	return t.State()
}

func (t *Tracker[T]) settle(ctx context.Context, gen uint64, key string) {
	var (
		data *T
		err  error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s request panicked: %v", t.name, r)
			}
		}()
		data, err = t.fetch(ctx, key)
	}()

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	if gen != t.generation {
		current := t.generation
		t.mu.Unlock()
		fmt.Printf("[Tracker %s] Ignoring stale result for %s (generation %d, current %d)\n", t.name, key, gen, current)
		return
	}
	if err != nil {
		t.state = State[T]{Error: t.classify(err)}
	} else {
		t.state = State[T]{Data: data}
	}
	snap, listeners := t.state, t.listenersLocked()
	t.mu.Unlock()

	if snap.Error != nil {
		fmt.Printf("[Tracker %s] Request for %s failed: %s\n", t.name, key, snap.Error.Message)
	}
	notify(listeners, key, snap)
}

// Reset clears data, loading, and error. An in-flight request keeps running
// but its result is discarded.
func (t *Tracker[T]) Reset() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	t.generation++
	key := t.key
	t.key = ""
	t.state = State[T]{}
	snap, listeners := t.state, t.listenersLocked()
	t.mu.Unlock()

	notify(listeners, key, snap)
}

// State returns the current snapshot.
func (t *Tracker[T]) State() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Key returns the key of the request the tracker currently expects, or "".
func (t *Tracker[T]) Key() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key
}

func (t *Tracker[T]) listenersLocked() []Listener[T] {
	out := make([]Listener[T], len(t.listeners))
	copy(out, t.listeners)
	return out
}

func notify[T any](listeners []Listener[T], key string, s State[T]) {
	for _, l := range listeners {
		l(key, s)
	}
}

func defaultClassify(err error) *models.OperationError {
	return &models.OperationError{
		Message: err.Error(),
		Kind:    models.ErrorKindAnalysis,
	}
}
