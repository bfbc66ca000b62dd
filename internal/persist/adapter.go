// Package persist saves a fixed projection of the client state to durable
// key-value storage and seeds the store from it on start.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
)

// DefaultNamespaceKey is the key the projection is stored under.
const DefaultNamespaceKey = "analysis-app-storage"

// Adapter connects a store to a KV backend.
type Adapter struct {
	kv    KV
	codec Codec
	key   string

	mu        sync.Mutex
	lastErr   error
	saves     int
	unsubFunc func()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCodec selects the serialization format. JSON is the default.
func WithCodec(c Codec) Option {
	return func(a *Adapter) { a.codec = c }
}

// WithKey overrides the namespace key.
func WithKey(key string) Option {
	return func(a *Adapter) { a.key = key }
}

// NewAdapter creates an adapter over kv.
func NewAdapter(kv KV, opts ...Option) *Adapter {
	a := &Adapter{
		kv:    kv,
		codec: JSONCodec{},
		key:   DefaultNamespaceKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load reads the stored projection and hydrates a full state from it.
// Missing or unreadable data yields the initial state; the second return
// value reports whether prior state was found.
func (a *Adapter) Load(ctx context.Context) (store.State, bool) {
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return store.InitialState(), false
	}
	if err != nil {
		fmt.Printf("[Persist] Warning: failed to read %s, starting fresh: %v\n", a.key, err)
		return store.InitialState(), false
	}

	p, err := a.codec.Decode(data)
	if err != nil {
		fmt.Printf("[Persist] Warning: discarding corrupt state under %s: %v\n", a.key, err)
		return store.InitialState(), false
	}
	return store.Hydrate(p), true
}

// Open loads prior state, builds a store from it, and attaches the adapter.
func (a *Adapter) Open(ctx context.Context) (*store.Store, bool) {
	initial, restored := a.Load(ctx)
	st := store.New(initial)
	a.Attach(st)
	return st, restored
}

// Save writes the projection of s.
func (a *Adapter) Save(ctx context.Context, s store.State) error {
	data, err := a.codec.Encode(store.Project(s))
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// Attach subscribes the adapter to st so every change is saved. A previous
// attachment is released first.
func (a *Adapter) Attach(st *store.Store) {
	a.Detach()
	unsub := st.Subscribe(func(s store.State) {
		err := a.Save(context.Background(), s)
		a.mu.Lock()
		a.lastErr = err
		if err == nil {
			a.saves++
		}
		a.mu.Unlock()
		if err != nil {
			fmt.Printf("[Persist] Error: %v\n", err)
		}
	})
	a.mu.Lock()
	a.unsubFunc = unsub
	a.mu.Unlock()
}

// Detach stops saving changes.
func (a *Adapter) Detach() {
	a.mu.Lock()
	unsub := a.unsubFunc
	a.unsubFunc = nil
	a.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Clear removes the stored projection.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.kv.Delete(ctx, a.key)
}

// LastError returns the error from the most recent automatic save.
func (a *Adapter) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Saves returns how many automatic saves succeeded.
func (a *Adapter) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}
