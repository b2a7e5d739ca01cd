// Package capture adapts drawing and audio capture devices to ctx-aware calls.
package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
)

// EraserColor is the pen color used while erasing.
const EraserColor = "#FFFFFF"

// ErrEmptySignature is returned when the pad reports that nothing was drawn.
var ErrEmptySignature = errors.New("capture: nothing drawn")

// SignaturePad is a drawing canvas. ReadSignature eventually calls exactly one
// of its callbacks, possibly from another goroutine.
type SignaturePad interface {
	ReadSignature(onOK func(payload string), onEmpty func())
	ClearSignature()
	Undo()
	ChangePenColor(color string)
}

// AwaitSignature asks the pad for its content and waits for the answer.
func AwaitSignature(ctx context.Context, pad SignaturePad) (string, error) {
	type result struct {
		payload string
		empty   bool
	}
	ch := make(chan result, 1)
	var once sync.Once
	send := func(r result) { once.Do(func() { ch <- r }) }

	pad.ReadSignature(
		func(payload string) { send(result{payload: payload}) },
		func() { send(result{empty: true}) },
	)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.empty || r.payload == "" {
			return "", ErrEmptySignature
		}
		return r.payload, nil
	}
}

// SetPen switches the pad to color, or to the eraser when erasing is set.
func SetPen(pad SignaturePad, color string, erasing bool) error {
	if erasing {
		pad.ChangePenColor(EraserColor)
		return nil
	}
	if err := record.ValidPenColor(color); err != nil {
		return err
	}
	pad.ChangePenColor(color)
	return nil
}

// DrawingNote reads the pad and builds a drawing note from it.
func DrawingNote(ctx context.Context, pad SignaturePad, f *record.Factory, title string) (models.Note, error) {
	payload, err := AwaitSignature(ctx, pad)
	if errors.Is(err, ErrEmptySignature) {
		return models.Note{}, apperr.Validation("capture.drawing", "content", "nothing drawn")
	}
	if err != nil {
		return models.Note{}, err
	}
	return f.NewDrawing(title, payload)
}
