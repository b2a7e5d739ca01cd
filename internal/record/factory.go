package record

import (
	"strings"
	"sync"
	"time"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
)

// IDGenerator hands out millisecond-timestamp ids that strictly increase within
// a process, even when two notes are created in the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator returns a generator reading the given clock.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() models.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return models.ID(ms)
}

// Observe raises the generator's floor so ids never collide with ones loaded from storage.
func (g *IDGenerator) Observe(ids ...models.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if int64(id) > g.last {
			g.last = int64(id)
		}
	}
}

// Factory constructs new notes. The zero value is not usable; use NewFactory.
type Factory struct {
	ids *IDGenerator
	now func() time.Time
}

// NewFactory returns a Factory drawing ids and dates from the same clock.
func NewFactory(now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{ids: NewIDGenerator(now), now: now}
}

// IDs exposes the factory's generator.
func (f *Factory) IDs() *IDGenerator { return f.ids }

func (f *Factory) meta(title string) Meta {
	return Meta{ID: f.ids.Next(), Title: strings.TrimSpace(title), Date: models.At(f.now())}
}

// NewText creates a text note. Title and content may not both be blank.
func (f *Factory) NewText(title, content string) (models.Note, error) {
	v := Text{Meta: f.meta(title), Body: content}
	if err := v.validate("record.new_text"); err != nil {
		return models.Note{}, err
	}
	return v.Note(), nil
}

// NewDrawing creates a drawing note from the signature pad's encoded image.
func (f *Factory) NewDrawing(title, payload string) (models.Note, error) {
	v := Drawing{Meta: f.meta(title), Payload: payload}
	if blank(v.Title) {
		v.Title = DrawingPlaceholder
	}
	if err := v.validate("record.new_drawing"); err != nil {
		return models.Note{}, err
	}
	return v.Note(), nil
}

// NewAudio creates a note from the audio screen. Without a recording the
// screen saves what was typed as a text note; a "00:00" duration means no
// recording time was measured and is dropped.
func (f *Factory) NewAudio(title, content, assetURL, duration string) (models.Note, error) {
	const op = "record.new_audio"
	if blank(title) && blank(content) && blank(assetURL) {
		return models.Note{}, apperr.Validation(op, "content", "add text or record a voice note")
	}
	meta := f.meta(title)
	if blank(meta.Title) {
		meta.Title = AudioPlaceholder
	}
	var v Variant
	if blank(assetURL) {
		v = Text{Meta: meta, Body: strings.TrimSpace(content)}
	} else {
		if duration == "00:00" {
			duration = ""
		}
		v = Audio{Meta: meta, URL: strings.TrimSpace(assetURL), Duration: duration, Caption: strings.TrimSpace(content)}
	}
	if err := v.validate(op); err != nil {
		return models.Note{}, err
	}
	return v.Note(), nil
}

// Patch lists the fields an edit replaces. Nil fields keep their current value.
type Patch struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	URL      *string   `json:"url,omitempty"`
	Duration *string   `json:"duration,omitempty"`
	Color    *string   `json:"color,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// UpdateInPlace returns the edited copy of existing: same id and type, date
// refreshed to now (never earlier than the original), other fields from patch.
func (f *Factory) UpdateInPlace(existing models.Note, p Patch) (models.Note, error) {
	n := existing.Clone()
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.URL != nil {
		n.URL = *p.URL
	}
	if p.Duration != nil {
		n.Duration = *p.Duration
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Tags != nil {
		n.Tags = nil
		if len(*p.Tags) > 0 {
			n.Tags = append([]string(nil), (*p.Tags)...)
		}
	}
	now := models.At(f.now())
	if now.Before(existing.Date) {
		now = existing.Date
	}
	n.Date = now

	v, err := FromNote(n)
	if err != nil {
		return models.Note{}, err
	}
	out := v.Note()
	out.IsTaskList, out.Tasks, out.Extra = n.IsTaskList, n.Tasks, n.Extra
	return out, nil
}

// defaultFactory backs the package-level helpers. Its IDGenerator is never
// fed stored ids, so those helpers only guarantee ordering within the process;
// services that load a collection use their own Factory and call IDs().Observe.
var defaultFactory = NewFactory(time.Now)

// NewText creates a text note with the process-wide factory.
func NewText(title, content string) (models.Note, error) {
	return defaultFactory.NewText(title, content)
}

// NewDrawing creates a drawing note with the process-wide factory.
func NewDrawing(title, payload string) (models.Note, error) {
	return defaultFactory.NewDrawing(title, payload)
}

// NewAudio creates an audio note with the process-wide factory.
func NewAudio(title, content, assetURL, duration string) (models.Note, error) {
	return defaultFactory.NewAudio(title, content, assetURL, duration)
}

// UpdateInPlace applies p with the process-wide factory's clock.
func UpdateInPlace(existing models.Note, p Patch) (models.Note, error) {
	return defaultFactory.UpdateInPlace(existing, p)
}
