package screen

import (
	"sort"
	"strings"

	"github.com/starford/nuage/internal/models"
)

// Filter narrows a list the way the "all notes" screen does.
type Filter struct {
	// Type keeps only notes of this type; empty keeps all.
	Type models.Type
	// Query matches title, content or any tag, case-insensitively.
	Query string
}

// Apply returns the matching notes, newest date first. Notes with equal or
// unknown dates keep their stored relative order.
func (f Filter) Apply(notes []models.Note) []models.Note {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if q != "" && !matches(n, q) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}

func matches(n models.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	// Drawing content is an encoded image; searching it only yields noise.
	if n.Type != models.TypeDrawing && strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
