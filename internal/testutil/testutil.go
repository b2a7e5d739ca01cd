// Package testutil provides shared test helpers for stores and backends.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/starford/nuage/internal/kv"
	"github.com/starford/nuage/internal/notestore"
)

// ErrInjected is returned by Faulty when a failure is switched on.
var ErrInjected = errors.New("injected failure")

// Faulty wraps a Provider and fails reads or writes on demand.
type Faulty struct {
	kv.Provider

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	setCalls int
}

// NewFaulty wraps p.
func NewFaulty(p kv.Provider) *Faulty { return &Faulty{Provider: p} }

// FailGets toggles read failures.
func (f *Faulty) FailGets(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = on
}

// FailSets toggles write failures.
func (f *Faulty) FailSets(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = on
}

// SetCalls returns how many writes reached the wrapped provider.
func (f *Faulty) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *Faulty) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Provider.Get(ctx, key)
}

func (f *Faulty) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failSet
	if !fail {
		f.setCalls++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Provider.Set(ctx, key, value)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore returns a store on a fresh in-memory backend, plus the backend.
func TestStore(t *testing.T, opts ...notestore.Option) (*notestore.Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	opts = append([]notestore.Option{notestore.WithLogger(DiscardLogger())}, opts...)
	return notestore.New(mem, opts...), mem
}

// TestFaultyStore returns a store whose backend can be told to fail.
func TestFaultyStore(t *testing.T, opts ...notestore.Option) (*notestore.Store, *Faulty) {
	t.Helper()
	f := NewFaulty(kv.NewMemory())
	opts = append([]notestore.Option{notestore.WithLogger(DiscardLogger())}, opts...)
	return notestore.New(f, opts...), f
}
