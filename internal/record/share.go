package record

import (
	"strings"
	"time"

	"github.com/starford/nuage/internal/models"
)

// ShareText renders n as the plain text handed to the system share sheet.
// Text notes carry their content; recordings and drawings with a URL carry
// the link instead.
func ShareText(n models.Note, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(n.Title)
	b.WriteString("\nDate: ")
	b.WriteString(n.Date.Display(loc))
	switch {
	case n.Type == models.TypeText:
		b.WriteString("\nContent: ")
		b.WriteString(n.Content)
	case n.URL != "":
		b.WriteString("\nLink: ")
		b.WriteString(n.URL)
	}
	return b.String()
}
