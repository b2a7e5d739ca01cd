package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// storageLayout is the canonical on-disk date format: RFC 3339, UTC, milliseconds.
const storageLayout = "2006-01-02T15:04:05.000Z07:00"

// DisplayLayout is the dd/mm/yyyy hh:mm form shown in note lists.
const DisplayLayout = "02/01/2006 15:04"

// legacyLayouts are the non-ISO date strings older screens wrote. Day-first is
// tried before month-first since the app shipped with a French locale.
var legacyLayouts = []string{
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"1/2/2006 15:04",
	"2/1/2006",
	"1/2/2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a note date. Internally always UTC with millisecond precision.
// A string that no known layout accepts is kept verbatim so it survives a
// load/save cycle unchanged.
type Timestamp struct {
	t   time.Time
	raw string
}

// At builds a Timestamp from t, normalised to UTC milliseconds.
func At(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

// Time returns the parsed instant; zero when the timestamp is unset or unparseable.
func (ts Timestamp) Time() time.Time { return ts.t }

// IsZero reports whether no instant is known.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Raw returns the original text of an unparseable timestamp.
func (ts Timestamp) Raw() string { return ts.raw }

// Before orders timestamps; unknown instants sort before known ones.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// Display formats the timestamp for humans in loc.
func (ts Timestamp) Display(loc *time.Location) string {
	if ts.t.IsZero() {
		if ts.raw != "" {
			return ts.raw
		}
		return "unknown date"
	}
	return ts.t.In(loc).Format(DisplayLayout)
}

func (ts Timestamp) String() string {
	if ts.t.IsZero() {
		return ts.raw
	}
	return ts.t.Format(storageLayout)
}

// ParseTimestamp accepts the canonical format and every legacy layout.
// Layouts without a zone are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return At(t), nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return At(t), nil
		}
	}
	return Timestamp{raw: s}, fmt.Errorf("note date: unrecognised format %q", s)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("note date: %w", err)
	}
	// Unknown layouts are preserved rather than failing the whole collection.
	parsed, _ := ParseTimestamp(s, time.Local)
	*ts = parsed
	return nil
}
