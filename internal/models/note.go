// Package models defines the persisted note record and its wire encoding.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Type discriminates how Content and URL are interpreted.
type Type string

const (
	TypeText    Type = "text"
	TypeDrawing Type = "drawing"
	TypeAudio   Type = "audio"
)

// Valid reports whether t is one of the known note types.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeDrawing, TypeAudio:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown type names. An empty string is kept as-is;
// readers treat it as text via Note.Normalize.
func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("note type: %w", err)
	}
	if s != "" && !Type(s).Valid() {
		return fmt.Errorf("note type: unknown %q", s)
	}
	*t = Type(s)
	return nil
}

// ID is the note identifier: a millisecond timestamp, unique within the collection.
// Older producers stored it either as a JSON number or as a numeric string.
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses the decimal form of an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("note id: %w", err)
	}
	return ID(n), nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("note id: %w", err)
		}
		v, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = v
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	v, err := n.Int64()
	if err != nil {
		// Date.now() never produces fractions, but tolerate 1.7e12 style numbers.
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("note id: %w", err)
		}
		v = int64(f)
	}
	*id = ID(v)
	return nil
}

// Note is one element of the persisted collection under the "notes" key.
type Note struct {
	ID       ID        `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Date     Timestamp `json:"date"`
	Type     Type      `json:"type"`
	URL      string    `json:"url,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Color    string    `json:"color,omitempty"`
	Tags     []string  `json:"tags,omitempty"`

	IsTaskList bool   `json:"isTaskList,omitempty"`
	Tasks      []Task `json:"tasks,omitempty"`

	// Extra keeps fields this version does not know so a rewrite of the
	// collection never drops them.
	Extra map[string]json.RawMessage `json:"-"`
}

// Normalize fills defaults older producers left out: a record without a type is text.
func (n *Note) Normalize() {
	if n.Type == "" {
		n.Type = TypeText
	}
}

// Clone returns a copy of n that shares no slices or maps with it.
func (n Note) Clone() Note {
	if n.Tags != nil {
		n.Tags = append([]string(nil), n.Tags...)
	}
	if n.Tasks != nil {
		n.Tasks = append([]Task(nil), n.Tasks...)
	}
	if n.Extra != nil {
		extra := make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			extra[k] = append(json.RawMessage(nil), v...)
		}
		n.Extra = extra
	}
	return n
}

// CloneAll copies a collection. The result is never nil.
func CloneAll(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// IndexOf returns the position of the note with id, or -1.
func IndexOf(notes []Note, id ID) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

// DuplicateID returns the first id that appears more than once.
func DuplicateID(notes []Note) (ID, bool) {
	seen := make(map[ID]struct{}, len(notes))
	for _, n := range notes {
		if _, ok := seen[n.ID]; ok {
			return n.ID, true
		}
		seen[n.ID] = struct{}{}
	}
	return 0, false
}
