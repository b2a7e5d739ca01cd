package record

import (
	"encoding/base64"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/nuage/internal/apperr"
)

// ErrInvalidDrawing is the cause of every DecodeDrawingPayload failure.
var ErrInvalidDrawing = errors.New("invalid drawing")

// DecodeDrawingPayload returns the SVG document held by a drawing note's content.
// Malformed input yields a KindDecode error; callers render an "invalid drawing"
// placeholder instead of failing the whole list.
func DecodeDrawingPayload(content string) ([]byte, error) {
	const op = "record.decode_drawing"
	if !strings.HasPrefix(content, DrawingPrefix) {
		return nil, &apperr.Error{Kind: apperr.KindDecode, Op: op, Msg: "missing image prefix", Err: ErrInvalidDrawing}
	}
	encoded := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, strings.TrimPrefix(content, DrawingPrefix))
	if encoded == "" {
		return nil, &apperr.Error{Kind: apperr.KindDecode, Op: op, Msg: "empty image", Err: ErrInvalidDrawing}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some canvases drop the trailing padding.
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if rawErr != nil {
			return nil, &apperr.Error{Kind: apperr.KindDecode, Op: op, Msg: err.Error(), Err: ErrInvalidDrawing}
		}
	}
	return data, nil
}

// EncodeDrawingPayload wraps an SVG document the way the signature pad does.
func EncodeDrawingPayload(svg []byte) string {
	return DrawingPrefix + base64.StdEncoding.EncodeToString(svg)
}

// Palette is the set of pen colors offered on the drawing screen.
var Palette = []string{
	"#000000",
	"#FF0000",
	"#00FF00",
	"#0000FF",
	"#FFFF00",
	"#FFA500",
	"#800080",
}

// ValidPenColor reports whether color is one of the palette entries.
func ValidPenColor(color string) error {
	in := make([]any, len(Palette))
	for i, c := range Palette {
		in[i] = c
	}
	err := validation.Validate(strings.ToUpper(color), validation.Required, validation.In(in...))
	if err != nil {
		return apperr.Validation("record.pen_color", "color", err.Error())
	}
	return nil
}
