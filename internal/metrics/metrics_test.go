package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/starford/nuage/internal/apperr"
)

func TestObserveStore(t *testing.T) {
	m := New()
	m.ObserveStore("notestore.save", time.Millisecond, nil)
	m.ObserveStore("notestore.save", time.Millisecond, nil)
	m.ObserveStore("notestore.load", time.Millisecond,
		apperr.Wrap(apperr.KindStorageUnavailable, "notestore.load", errors.New("disk gone")))

	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("notestore.save", "ok")); got != 2 {
		t.Errorf("save ok = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.storeOps); got != 2 {
		t.Errorf("series = %d, want 2", got)
	}
	if got := testutil.CollectAndCount(m.storeDuration); got != 2 {
		t.Errorf("histograms = %d, want 2", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	m := New()
	m.SetNoteCount(7)
	m.LegacyMigrated(3)
	m.LegacyMigrated(2)
	m.FeedEvent("store")
	m.FeedEvent("external")
	m.FeedEvent("store")

	if got := testutil.ToFloat64(m.notes); got != 7 {
		t.Errorf("notes = %v", got)
	}
	if got := testutil.ToFloat64(m.migrated); got != 5 {
		t.Errorf("migrated = %v", got)
	}
	if got := testutil.ToFloat64(m.feedEvents.WithLabelValues("store")); got != 2 {
		t.Errorf("store events = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetNoteCount(1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "nuage_notes 1") {
		t.Errorf("body missing gauge:\n%s", w.Body.String())
	}
}
