package checksum

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/nuage/internal/kv"
)

func TestSum(t *testing.T) {
	got := Sum([]byte("[]"))
	if len(got) != 64 {
		t.Fatalf("digest length = %d", len(got))
	}
	if got != Sum([]byte("[]")) || got == Sum([]byte("[ ]")) {
		t.Error("digest is not content-addressed")
	}
}

func TestTrackerObserve(t *testing.T) {
	tr := NewTracker()
	if tr.Known("notes", []byte("a")) {
		t.Fatal("unknown key reported as known")
	}
	if !tr.Observe("notes", []byte("a")) {
		t.Error("first observation should be a change")
	}
	if tr.Observe("notes", []byte("a")) {
		t.Error("same content should not be a change")
	}
	if !tr.Observe("notes", []byte("b")) {
		t.Error("new content should be a change")
	}
	tr.Forget("notes")
	if tr.Known("notes", []byte("b")) {
		t.Error("forgotten key still known")
	}
}

type failingSet struct{ kv.Provider }

func (failingSet) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestWrapRecordsWrites(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	p := tr.Wrap(kv.NewMemory())

	if err := p.Set(ctx, "notes", []byte("[1]")); err != nil {
		t.Fatal(err)
	}
	if !tr.Known("notes", []byte("[1]")) {
		t.Error("write not recorded")
	}
	if err := p.Delete(ctx, "notes"); err != nil {
		t.Fatal(err)
	}
	if tr.Observe("notes", nil) {
		t.Error("own delete reported as a change")
	}
}

func TestWrapRestoresOnFailure(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	tr.Record("notes", []byte("[1]"))
	p := tr.Wrap(failingSet{kv.NewMemory()})

	if err := p.Set(ctx, "notes", []byte("[2]")); err == nil {
		t.Fatal("expected error")
	}
	if !tr.Known("notes", []byte("[1]")) {
		t.Error("previous digest not restored")
	}
	if err := p.Set(ctx, "other", []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	if tr.Known("other", []byte("x")) {
		t.Error("failed write still recorded")
	}
}
