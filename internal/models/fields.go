package models

import (
	"encoding/json"
	"fmt"
)

// Task is one checklist entry of a task-list note.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts a numeric task id as well as a string one.
func (t *Task) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Text      string          `json:"text"`
		Completed bool            `json:"completed"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("note task: %w", err)
	}
	t.Text, t.Completed, t.ID = raw.Text, raw.Completed, ""
	if len(raw.ID) == 0 || string(raw.ID) == "null" {
		return nil
	}
	if raw.ID[0] == '"' {
		if err := json.Unmarshal(raw.ID, &t.ID); err != nil {
			return fmt.Errorf("note task id: %w", err)
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.ID, &n); err != nil {
		return fmt.Errorf("note task id: %w", err)
	}
	t.ID = n.String()
	return nil
}

// knownFields are the JSON keys Note and LegacyNote decode themselves.
var knownFields = map[string]struct{}{
	"id": {}, "title": {}, "content": {}, "date": {}, "type": {},
	"url": {}, "duration": {}, "color": {}, "tags": {},
	"isTaskList": {}, "tasks": {},
}

// unknownFields returns the members of the object b that knownFields does not
// name, or nil when there are none.
func unknownFields(b []byte) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range all {
		if _, ok := knownFields[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// MarshalJSON writes the known fields followed by any preserved unknown ones.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	b, err := json.Marshal(plain(n))
	if err != nil || len(n.Extra) == 0 {
		return b, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range n.Extra {
		if _, known := knownFields[k]; !known {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func (n *Note) UnmarshalJSON(b []byte) error {
	type plain Note
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownFields(b)
	if err != nil {
		return err
	}
	p.Extra = extra
	*n = Note(p)
	return nil
}
