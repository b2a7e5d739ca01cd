// Package widget serves the home-screen widget and floating bubble. Widgets
// never write: they query Snapshot whenever the feed tells them to refresh.
package widget

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
)

// Placeholder is shown when there are no notes.
const Placeholder = "No notes yet"

// Loader reads the note collection.
type Loader interface {
	LoadAll(ctx context.Context) ([]models.Note, error)
}

// View is what a widget displays.
type View struct {
	ID    models.ID         `json:"id,omitempty"`
	Title string            `json:"title"`
	Text  string            `json:"text"`
	Type  models.Type       `json:"type,omitempty"`
	Date  *models.Timestamp `json:"date,omitempty"`
	Empty bool              `json:"empty"`
}

// Snapshot returns the view of the newest note. On a load failure it returns
// the placeholder view along with the error.
func Snapshot(ctx context.Context, store Loader) (View, error) {
	notes, err := store.LoadAll(ctx)
	if err != nil || len(notes) == 0 {
		return View{Title: Placeholder, Empty: true}, err
	}
	return viewOf(newest(notes)), nil
}

// newest picks the note with the latest date; ties go to the one stored first.
func newest(notes []models.Note) models.Note {
	best := notes[0]
	for _, n := range notes[1:] {
		if best.Date.Before(n.Date) {
			best = n
		}
	}
	return best
}

func viewOf(n models.Note) View {
	date := n.Date
	v := View{ID: n.ID, Title: n.Title, Type: n.Type, Date: &date}
	switch n.Type {
	case models.TypeDrawing:
		v.Text = record.DrawingPlaceholder
	case models.TypeAudio:
		v.Text = strings.TrimSpace(n.Content)
		if v.Text == "" {
			v.Text = record.AudioPlaceholder
		}
		if n.Duration != "" {
			v.Text += " (" + n.Duration + ")"
		}
	default:
		v.Text = n.Content
	}
	if v.Title == "" {
		v.Title = firstLine(v.Text)
	}
	return v
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}

// Publisher broadcasts change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishChange(count int, source string)
}

// Counter counts published events. *metrics.Metrics implements it.
type Counter interface {
	FeedEvent(source string)
}

// Sources of a change.
const (
	SourceStore    = "store"
	SourceExternal = "external"
)

// Feed turns saves into refresh notifications.
type Feed struct {
	pub     Publisher
	counter Counter
	logger  *slog.Logger
}

// Option configures a Feed.
type Option func(*Feed)

// WithCounter attaches an event counter.
func WithCounter(c Counter) Option {
	return func(f *Feed) { f.counter = c }
}

// WithLogger sets the feed's logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

// NewFeed returns a Feed publishing to pub.
func NewFeed(pub Publisher, opts ...Option) *Feed {
	f := &Feed{pub: pub, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnSaved matches notestore.SavedFunc; register it with Store.OnSaved.
func (f *Feed) OnSaved(_ context.Context, notes []models.Note) {
	f.publish(len(notes), SourceStore)
}

// External reports a change written by another process.
func (f *Feed) External(count int) {
	f.publish(count, SourceExternal)
}

func (f *Feed) publish(count int, source string) {
	f.pub.PublishChange(count, source)
	if f.counter != nil {
		f.counter.FeedEvent(source)
	}
	f.logger.Debug("widget refresh published", slog.Int("count", count), slog.String("source", source))
}
