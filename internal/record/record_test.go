package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
)

// fixedClock returns a clock frozen at t that can be advanced by tests.
func fixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func svgPayload() string {
	return EncodeDrawingPayload([]byte(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0L1 1"/></svg>`))
}

func TestNewTextValidation(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.NewText("", "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.NewText("   ", "\n\t")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "whitespace-only must be rejected")

	n, err := f.NewText("t", "")
	require.NoError(t, err)
	assert.Equal(t, models.TypeText, n.Type)
	assert.Equal(t, "t", n.Title)

	n, err = f.NewText("", "only body")
	require.NoError(t, err)
	assert.Equal(t, "only body", n.Content)
}

func TestNewDrawingValidation(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.NewDrawing("t", "not-a-valid-prefix")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.NewDrawing("t", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	n, err := f.NewDrawing("", svgPayload())
	require.NoError(t, err)
	assert.Equal(t, models.TypeDrawing, n.Type)
	assert.Equal(t, DrawingPlaceholder, n.Title)
}

func TestNewAudioValidation(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.NewAudio("", "", "", "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	n, err := f.NewAudio("", "", "file://a.m4a", "00:05")
	require.NoError(t, err)
	assert.Equal(t, models.TypeAudio, n.Type)
	assert.Equal(t, AudioPlaceholder, n.Title)
	assert.Equal(t, "file://a.m4a", n.URL)
	assert.Equal(t, "00:05", n.Duration)

	_, err = f.NewAudio("", "", "file://a.m4a", "5 seconds")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestNewAudioWithoutRecordingIsText(t *testing.T) {
	f := NewFactory(nil)
	n, err := f.NewAudio("", "remember the milk", "", "00:00")
	require.NoError(t, err)
	assert.Equal(t, models.TypeText, n.Type)
	assert.Equal(t, AudioPlaceholder, n.Title)
	assert.Empty(t, n.URL)
	assert.Empty(t, n.Duration)
}

func TestIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	clock, _ := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	f := NewFactory(clock)

	seen := make(map[models.ID]struct{})
	for i := 0; i < 500; i++ {
		var (
			n   models.Note
			err error
		)
		switch i % 3 {
		case 0:
			n, err = f.NewText("t", "c")
		case 1:
			n, err = f.NewDrawing("d", svgPayload())
		default:
			n, err = f.NewAudio("a", "", "file://x.m4a", "")
		}
		require.NoError(t, err)
		_, dup := seen[n.ID]
		require.False(t, dup, "duplicate id %d", n.ID)
		seen[n.ID] = struct{}{}
	}
}

func TestIDGeneratorObserve(t *testing.T) {
	clock, _ := fixedClock(time.UnixMilli(1000))
	g := NewIDGenerator(clock)
	g.Observe(5000)
	assert.Equal(t, models.ID(5001), g.Next())
}

func TestUpdateInPlacePreservesIdentity(t *testing.T) {
	clock, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	f := NewFactory(clock)

	orig, err := f.NewText("old", "body")
	require.NoError(t, err)

	advance(time.Minute)
	title := "X"
	upd, err := f.UpdateInPlace(orig, Patch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, orig.ID, upd.ID)
	assert.Equal(t, orig.Type, upd.Type)
	assert.Equal(t, "X", upd.Title)
	assert.Equal(t, "body", upd.Content)
	assert.False(t, upd.Date.Before(orig.Date))
	assert.True(t, upd.Date.Time().After(orig.Date.Time()))
}

func TestUpdateInPlaceNeverMovesDateBackwards(t *testing.T) {
	clock, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	f := NewFactory(clock)
	orig, err := f.NewText("t", "")
	require.NoError(t, err)

	advance(-time.Hour)
	body := "later"
	upd, err := f.UpdateInPlace(orig, Patch{Content: &body})
	require.NoError(t, err)
	assert.Equal(t, orig.Date, upd.Date)
}

func TestUpdateInPlaceRevalidates(t *testing.T) {
	f := NewFactory(nil)
	d, err := f.NewDrawing("d", svgPayload())
	require.NoError(t, err)

	bad := "plain text"
	_, err = f.UpdateInPlace(d, Patch{Content: &bad})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestFromNoteRoundTrip(t *testing.T) {
	f := NewFactory(nil)
	a, err := f.NewAudio("memo", "caption", "file://m.m4a", "01:30")
	require.NoError(t, err)

	v, err := FromNote(a)
	require.NoError(t, err)
	audio, ok := v.(Audio)
	require.True(t, ok, "want Audio, got %T", v)
	assert.Equal(t, "file://m.m4a", audio.URL)
	assert.Equal(t, a, v.Note())

	_, err = FromNote(models.Note{ID: 1, Type: "video"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDecodeDrawingPayload(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)

	got, err := DecodeDrawingPayload(EncodeDrawingPayload(svg))
	require.NoError(t, err)
	assert.Equal(t, svg, got)

	for _, bad := range []string{"", "data:image/png;base64,AAAA", DrawingPrefix, DrawingPrefix + "!!!not base64!!!"} {
		_, err := DecodeDrawingPayload(bad)
		assert.True(t, apperr.IsKind(err, apperr.KindDecode), "input %q", bad)
		assert.ErrorIs(t, err, ErrInvalidDrawing)
	}
}

func TestValidPenColor(t *testing.T) {
	assert.NoError(t, ValidPenColor("#ffa500"))
	assert.Error(t, ValidPenColor("#123456"))
	assert.Error(t, ValidPenColor(""))
}

func TestShareText(t *testing.T) {
	date := models.At(time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC))
	cases := []struct {
		name string
		note models.Note
		want string
	}{
		{"text", models.Note{Title: "courses", Content: "lait", Date: date, Type: models.TypeText},
			"Title: courses\nDate: 05/03/2024 09:07\nContent: lait"},
		{"audio", models.Note{Title: "standup", Content: "caption", Date: date, Type: models.TypeAudio, URL: "/api/assets/rec.m4a"},
			"Title: standup\nDate: 05/03/2024 09:07\nLink: /api/assets/rec.m4a"},
		{"drawing without link", models.Note{Title: "sketch", Content: svgPayload(), Date: date, Type: models.TypeDrawing},
			"Title: sketch\nDate: 05/03/2024 09:07"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShareText(tc.note, time.UTC))
		})
	}
}

func TestUpdateInPlaceKeepsTaskList(t *testing.T) {
	clock, _ := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	f := NewFactory(clock)
	n, err := f.NewText("courses", "")
	require.NoError(t, err)
	n.IsTaskList = true
	n.Tasks = []models.Task{{ID: "1", Text: "lait"}}

	done := "done"
	edited, err := f.UpdateInPlace(n, Patch{Content: &done})
	require.NoError(t, err)
	assert.True(t, edited.IsTaskList)
	assert.Equal(t, n.Tasks, edited.Tasks)
}
