// Package checksum remembers what this process last wrote to each key so
// file watchers can tell their own writes from outside edits.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/starford/nuage/internal/kv"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tracker maps keys to the digest of their last known content.
type Tracker struct {
	mu   sync.Mutex
	sums map[string]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sums: make(map[string]string)}
}

// Record stores data as the known content of key.
func (t *Tracker) Record(key string, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sums[key] = Sum(data)
}

// Forget drops key.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sums, key)
}

// Known reports whether data is the known content of key.
func (t *Tracker) Known(key string, data []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	sum, ok := t.sums[key]
	return ok && sum == Sum(data)
}

// Observe records data and reports whether it differs from what was known.
func (t *Tracker) Observe(key string, data []byte) (changed bool) {
	sum := Sum(data)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sums[key] == sum {
		return false
	}
	t.sums[key] = sum
	return true
}

// Wrap returns a provider that records every successful write through p.
func (t *Tracker) Wrap(p kv.Provider) kv.Provider {
	return &tracked{Provider: p, t: t}
}

type tracked struct {
	kv.Provider
	t *Tracker
}

func (p *tracked) Set(ctx context.Context, key string, value []byte) error {
	// Record first: the watcher may see the file before Set returns.
	prev, had := p.t.swap(key, Sum(value))
	if err := p.Provider.Set(ctx, key, value); err != nil {
		if had {
			p.t.swap(key, prev)
		} else {
			p.t.Forget(key)
		}
		return err
	}
	return nil
}

func (t *Tracker) swap(key, sum string) (prev string, had bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, had = t.sums[key]
	t.sums[key] = sum
	return prev, had
}

func (p *tracked) Delete(ctx context.Context, key string) error {
	if err := p.Provider.Delete(ctx, key); err != nil {
		return err
	}
	// A removed key is known to be empty.
	p.t.Record(key, nil)
	return nil
}
