package widget_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/sse"
	"github.com/starford/nuage/internal/testutil"
	"github.com/starford/nuage/internal/widget"
)

func TestSnapshotEmpty(t *testing.T) {
	store, _ := testutil.TestStore(t)
	v, err := widget.Snapshot(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Empty || v.Title != widget.Placeholder {
		t.Errorf("snapshot = %+v, want placeholder", v)
	}
}

func TestSnapshotNewest(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	f := record.NewFactory(func() time.Time { return clock })
	store, _ := testutil.TestStore(t)

	older, _ := f.NewText("older", "first")
	clock = clock.Add(time.Hour)
	newer, _ := f.NewAudio("", "", "file:///a.m4a", "00:42")

	// Stored order puts the older note first.
	if err := store.SaveAll(ctx, []models.Note{older, newer}); err != nil {
		t.Fatal(err)
	}
	v, err := widget.Snapshot(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if v.ID != newer.ID {
		t.Fatalf("id = %v, want %v", v.ID, newer.ID)
	}
	if v.Title != record.AudioPlaceholder || v.Text != record.AudioPlaceholder+" (00:42)" {
		t.Errorf("view = %+v", v)
	}
}

func TestSnapshotTextAndDrawing(t *testing.T) {
	f := record.NewFactory(time.Now)
	drawing, _ := f.NewDrawing("", record.EncodeDrawingPayload([]byte("<svg/>")))
	untitled, _ := f.NewText("", "line one\nline two")

	for _, tc := range []struct {
		note      models.Note
		wantTitle string
		wantText  string
	}{
		{drawing, record.DrawingPlaceholder, record.DrawingPlaceholder},
		{untitled, "line one", "line one\nline two"},
	} {
		store, _ := testutil.TestStore(t)
		if err := store.Create(context.Background(), tc.note); err != nil {
			t.Fatal(err)
		}
		v, err := widget.Snapshot(context.Background(), store)
		if err != nil {
			t.Fatal(err)
		}
		if v.Title != tc.wantTitle || v.Text != tc.wantText {
			t.Errorf("view = %+v, want %q / %q", v, tc.wantTitle, tc.wantText)
		}
	}
}

func TestSnapshotLoadFailure(t *testing.T) {
	store, faulty := testutil.TestFaultyStore(t)
	faulty.FailGets(true)
	v, err := widget.Snapshot(context.Background(), store)
	if !apperr.IsKind(err, apperr.KindStorageUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !v.Empty {
		t.Errorf("expected placeholder view, got %+v", v)
	}
}

type countingPublisher struct {
	mu      sync.Mutex
	changes []string
}

func (p *countingPublisher) PublishChange(count int, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, source)
}

type counter map[string]int

func (c counter) FeedEvent(source string) { c[source]++ }

func TestFeedPublishesAfterEverySave(t *testing.T) {
	ctx := context.Background()
	store, _ := testutil.TestStore(t)
	pub := &countingPublisher{}
	c := counter{}
	feed := widget.NewFeed(pub, widget.WithCounter(c), widget.WithLogger(testutil.DiscardLogger()))
	store.OnSaved(feed.OnSaved)

	n, _ := record.NewText("a", "")
	if err := store.Create(ctx, n); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Delete(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	feed.External(0)

	want := []string{widget.SourceStore, widget.SourceStore, widget.SourceExternal}
	if strings.Join(pub.changes, ",") != strings.Join(want, ",") {
		t.Errorf("changes = %v, want %v", pub.changes, want)
	}
	if c[widget.SourceStore] != 2 || c[widget.SourceExternal] != 1 {
		t.Errorf("counter = %v", c)
	}
}

func TestFeedFailedSaveDoesNotPublish(t *testing.T) {
	store, faulty := testutil.TestFaultyStore(t)
	pub := &countingPublisher{}
	store.OnSaved(widget.NewFeed(pub, widget.WithLogger(testutil.DiscardLogger())).OnSaved)

	faulty.FailSets(true)
	n, _ := record.NewText("a", "")
	if err := store.Create(context.Background(), n); err == nil {
		t.Fatal("expected write failure")
	}
	if len(pub.changes) != 0 {
		t.Errorf("published %v after failed save", pub.changes)
	}
}

func TestFeedOverBroker(t *testing.T) {
	b := sse.NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	store, _ := testutil.TestStore(t)
	store.OnSaved(widget.NewFeed(b, widget.WithLogger(testutil.DiscardLogger())).OnSaved)
	n, _ := record.NewText("a", "")
	if err := store.Create(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
		case <-timeout:
			t.Fatalf("timeout, got %v", got)
		}
	}
	if !strings.Contains(got[0], "event: "+sse.TypeNoteSaved) || !strings.Contains(got[1], "event: "+sse.TypeWidgetRefresh) {
		t.Errorf("events = %q", got)
	}
}
