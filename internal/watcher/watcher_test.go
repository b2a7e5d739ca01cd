package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/nuage/internal/checksum"
	"github.com/starford/nuage/internal/kv"
)

type change struct {
	key     string
	removed bool
}

type env struct {
	fs      *kv.FS
	tracker *checksum.Tracker
	store   kv.Provider

	mu      sync.Mutex
	changes []change
}

func (e *env) record(_ context.Context, key string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, change{key: key, removed: data == nil})
}

func (e *env) snapshot() []change {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]change(nil), e.changes...)
}

func startWatcher(t *testing.T) *env {
	t.Helper()
	fs, err := kv.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tr := checksum.NewTracker()
	e := &env{fs: fs, tracker: tr, store: tr.Wrap(fs)}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := New(fs, tr, WithDebounce(30*time.Millisecond), WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, e.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return e
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_ExternalWriteReported(t *testing.T) {
	e := startWatcher(t)

	if err := os.WriteFile(filepath.Join(e.fs.Root(), "notes.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return len(e.snapshot()) > 0
	}, "external write not reported")
	if got := e.snapshot(); len(got) > 0 && (got[0].key != "notes" || got[0].removed) {
		t.Errorf("change = %+v", got[0])
	}
}

func TestWatcher_OwnWriteIgnored(t *testing.T) {
	e := startWatcher(t)

	if err := e.store.Set(context.Background(), "notes", []byte(`[{"id":1}]`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := e.snapshot(); len(got) != 0 {
		t.Errorf("own write reported: %+v", got)
	}
}

func TestWatcher_ExternalRemoveReported(t *testing.T) {
	e := startWatcher(t)
	ctx := context.Background()

	if err := e.store.Set(ctx, "notes", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := os.Remove(filepath.Join(e.fs.Root(), "notes.json")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		got := e.snapshot()
		return len(got) == 1 && got[0].removed
	}, "external remove not reported")
}

func TestWatcher_IgnoresNonKeyFiles(t *testing.T) {
	e := startWatcher(t)

	for _, name := range []string{"notes.txt", ".nuage-tmp-123", "bad name.json"} {
		if err := os.WriteFile(filepath.Join(e.fs.Root(), name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(300 * time.Millisecond)
	if got := e.snapshot(); len(got) != 0 {
		t.Errorf("non-key files reported: %+v", got)
	}
}
