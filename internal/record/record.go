// Package record builds and validates notes as tagged variants.
//
// A persisted models.Note is a flat record whose Content and URL mean different
// things per Type. Variant lifts it into Text, Drawing or Audio so each kind's
// required fields are checked when the value is constructed, not at every
// call site that reads it.
package record

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
)

// Placeholder titles used when the user leaves the title empty.
const (
	DrawingPlaceholder = "Drawing"
	AudioPlaceholder   = "Voice note"
)

// DrawingPrefix marks a drawing payload: an SVG document, base64 encoded.
const DrawingPrefix = "data:image/svg+xml;base64,"

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	durationRe = regexp.MustCompile(`^\d{2,}:\d{2}$`)
)

// Meta holds the fields every variant carries.
type Meta struct {
	ID    models.ID        `json:"id"`
	Title string           `json:"title"`
	Date  models.Timestamp `json:"date"`
	Color string           `json:"color"`
	Tags  []string         `json:"tags"`
}

// Variant is one of Text, Drawing or Audio.
type Variant interface {
	Base() Meta
	Type() models.Type
	// Note flattens the variant into its persisted form.
	Note() models.Note
	validate(op string) error
}

// Text is a plain-text note.
type Text struct {
	Meta
	Body string `json:"content"`
}

// Drawing is a vector sketch captured by the signature pad.
type Drawing struct {
	Meta
	Payload string `json:"content"`
}

// Audio references a recording stored outside the collection.
type Audio struct {
	Meta
	URL      string `json:"url"`
	Duration string `json:"duration"`
	Caption  string `json:"content"`
}

func (t Text) Base() Meta        { return t.Meta }
func (t Text) Type() models.Type { return models.TypeText }
func (t Text) Note() models.Note {
	return t.Meta.note(models.TypeText, t.Body)
}

func (d Drawing) Base() Meta        { return d.Meta }
func (d Drawing) Type() models.Type { return models.TypeDrawing }
func (d Drawing) Note() models.Note {
	return d.Meta.note(models.TypeDrawing, d.Payload)
}

func (a Audio) Base() Meta        { return a.Meta }
func (a Audio) Type() models.Type { return models.TypeAudio }
func (a Audio) Note() models.Note {
	n := a.Meta.note(models.TypeAudio, a.Caption)
	n.URL = a.URL
	n.Duration = a.Duration
	return n
}

func (m Meta) note(t models.Type, content string) models.Note {
	n := models.Note{
		ID:      m.ID,
		Title:   m.Title,
		Content: content,
		Date:    m.Date,
		Type:    t,
		Color:   m.Color,
	}
	if len(m.Tags) > 0 {
		n.Tags = append([]string(nil), m.Tags...)
	}
	return n
}

func (m *Meta) validateMeta(op string) error {
	return wrapValidation(op, validation.ValidateStruct(m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Color, validation.Match(hexColorRe).Error("must be a #rrggbb color")),
	))
}

func (t Text) validate(op string) error {
	if err := t.Meta.validateMeta(op); err != nil {
		return err
	}
	if blank(t.Title) && blank(t.Body) {
		return apperr.Validation(op, "content", "title or content is required")
	}
	return nil
}

func (d Drawing) validate(op string) error {
	if err := d.Meta.validateMeta(op); err != nil {
		return err
	}
	return wrapValidation(op, validation.ValidateStruct(&d,
		validation.Field(&d.Payload,
			validation.Required.Error("drawing is empty"),
			validation.By(hasDrawingPrefix),
		),
	))
}

func (a Audio) validate(op string) error {
	if err := a.Meta.validateMeta(op); err != nil {
		return err
	}
	return wrapValidation(op, validation.ValidateStruct(&a,
		validation.Field(&a.URL, validation.Required.Error("recording is missing")),
		validation.Field(&a.Duration, validation.Match(durationRe).Error("must be mm:ss")),
	))
}

func hasDrawingPrefix(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, DrawingPrefix) {
		return validation.NewError("validation_drawing_prefix", "must be an encoded SVG image")
	}
	return nil
}

// FromNote lifts a persisted record into its variant, enforcing the variant's rules.
func FromNote(n models.Note) (Variant, error) {
	const op = "record.from_note"
	meta := Meta{ID: n.ID, Title: n.Title, Date: n.Date, Color: n.Color, Tags: n.Tags}
	var v Variant
	switch n.Type {
	case models.TypeText:
		v = Text{Meta: meta, Body: n.Content}
	case models.TypeDrawing:
		v = Drawing{Meta: meta, Payload: n.Content}
	case models.TypeAudio:
		v = Audio{Meta: meta, URL: n.URL, Duration: n.Duration, Caption: n.Content}
	default:
		return nil, apperr.Validation(op, "type", "unknown note type "+string(n.Type))
	}
	if err := v.validate(op); err != nil {
		return nil, err
	}
	return v, nil
}

func wrapValidation(op string, err error) error {
	if err == nil {
		return nil
	}
	return &apperr.Error{Kind: apperr.KindValidation, Op: op, Msg: err.Error(), Err: err}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
