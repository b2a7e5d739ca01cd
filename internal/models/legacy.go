package models

import (
	"encoding/json"
	"time"
)

// Storage keys of the persisted collections.
const (
	NotesKey  = "notes"
	LegacyKey = "@notes_list"
)

// LegacyNote is the record shape stored under LegacyKey: type and date may be missing.
type LegacyNote struct {
	ID       ID        `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Date     Timestamp `json:"date"`
	Type     Type      `json:"type"`
	URL      string    `json:"url,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Color    string    `json:"color,omitempty"`
	Tags     []string  `json:"tags,omitempty"`

	IsTaskList bool                       `json:"isTaskList,omitempty"`
	Tasks      []Task                     `json:"tasks,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

func (l *LegacyNote) UnmarshalJSON(b []byte) error {
	type plain LegacyNote
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownFields(b)
	if err != nil {
		return err
	}
	p.Extra = extra
	*l = LegacyNote(p)
	return nil
}

// Upgrade maps a legacy record onto the current schema. A missing type becomes
// text; a missing or unreadable date becomes now.
func (l LegacyNote) Upgrade(now time.Time) Note {
	n := Note{
		ID:       l.ID,
		Title:    l.Title,
		Content:  l.Content,
		Date:     l.Date,
		Type:     l.Type,
		URL:      l.URL,
		Duration: l.Duration,
		Color:    l.Color,
		Tags:     l.Tags,

		IsTaskList: l.IsTaskList,
		Tasks:      l.Tasks,
		Extra:      l.Extra,
	}
	n.Normalize()
	if n.Date.IsZero() {
		n.Date = At(now)
	}
	return n
}
