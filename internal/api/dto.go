package api

import (
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/widget"
)

// CreateTextRequest is the request body for creating a text note.
type CreateTextRequest struct {
	Title   string   `json:"title" example:"Groceries"`
	Content string   `json:"content" example:"milk, eggs"`
	Color   string   `json:"color,omitempty" example:"#FFA500"`
	Tags    []string `json:"tags,omitempty" example:"home"`
}

// CreateDrawingRequest is the request body for saving a drawing.
type CreateDrawingRequest struct {
	Title   string `json:"title" example:"Sketch"`
	Content string `json:"content" example:"data:image/svg+xml;base64,PHN2Zy8+" validate:"required"`
}

// CreateAudioRequest is the request body for the audio screen. Without a URL
// the note is saved as text.
type CreateAudioRequest struct {
	Title    string `json:"title" example:"Standup"`
	Content  string `json:"content" example:"talk about the release"`
	URL      string `json:"url,omitempty" example:"/api/assets/rec-1.m4a"`
	Duration string `json:"duration,omitempty" example:"01:12"`
}

// PatchNoteRequest lists the fields to replace; absent fields are kept.
type PatchNoteRequest = record.Patch

// Note is the stored note shape.
type Note = models.Note

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []Note `json:"notes" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// ClearResponse reports how many notes a clear removed.
type ClearResponse struct {
	Removed int `json:"removed" example:"12" validate:"required"`
}

// AssetUploadResponse is returned after a successful recording upload.
type AssetUploadResponse struct {
	Filename string `json:"filename" example:"rec-1.m4a" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/api/assets/rec-1.m4a" validate:"required"`
}

// WidgetResponse is what the home-screen widget shows.
type WidgetResponse = widget.View
