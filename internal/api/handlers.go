package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/screen"
	"github.com/starford/nuage/internal/widget"
)

const maxBodyBytes = 10 << 20

// NoteStore is the part of notestore.Store the handlers use.
type NoteStore interface {
	LoadAll(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, id models.ID) (models.Note, error)
	Create(ctx context.Context, n models.Note) error
	Edit(ctx context.Context, id models.ID, fn func(models.Note) (models.Note, error)) (models.Note, error)
	Delete(ctx context.Context, id models.ID) (models.Note, error)
	Clear(ctx context.Context) ([]models.Note, error)
}

// Handler holds API route handlers.
type Handler struct {
	store   NoteStore
	factory *record.Factory
	assets  *AssetHandler
}

// NewHandler creates a new Handler. Recordings of deleted notes are removed
// from assets; a nil assets leaves them in place.
func NewHandler(store NoteStore, factory *record.Factory, assets *AssetHandler) *Handler {
	return &Handler{store: store, factory: factory, assets: assets}
}

// noteID extracts the note id from the URL.
func noteID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	id, err := models.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			type	query		string	false	"Note type"	Enums(text, drawing, audio)
//	@Param			q		query		string	false	"Search title, content and tags"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := screen.Filter{Type: models.Type(q.Get("type")), Query: q.Get("q")}
	if filter.Type != "" && !filter.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("type must be text, drawing or audio"))
		return
	}

	notes, err := h.store.LoadAll(r.Context())
	if err != nil {
		writeError(w, apperr.ActionLoad, err)
		return
	}
	notes = filter.Apply(notes)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperr.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateText handles POST /api/notes/text.
//
//	@Summary		Create a text note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTextRequest	true	"Note to create"
//	@Success		201		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/text [post]
func (h *Handler) CreateText(w http.ResponseWriter, r *http.Request) {
	var req CreateTextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.factory.NewText(req.Title, req.Content)
	if err == nil && (req.Color != "" || len(req.Tags) > 0) {
		n.Color, n.Tags = req.Color, req.Tags
		var v record.Variant
		if v, err = record.FromNote(n); err == nil {
			n = v.Note()
		}
	}
	h.create(w, r, n, err)
}

// CreateDrawing handles POST /api/notes/drawing.
//
//	@Summary		Save a drawing
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDrawingRequest	true	"Drawing to save"
//	@Success		201		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/drawing [post]
func (h *Handler) CreateDrawing(w http.ResponseWriter, r *http.Request) {
	var req CreateDrawingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.factory.NewDrawing(req.Title, req.Content)
	h.create(w, r, n, err)
}

// CreateAudio handles POST /api/notes/audio.
//
//	@Summary		Save a voice note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateAudioRequest	true	"Voice note to save"
//	@Success		201		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/audio [post]
func (h *Handler) CreateAudio(w http.ResponseWriter, r *http.Request) {
	var req CreateAudioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.factory.NewAudio(req.Title, req.Content, req.URL, req.Duration)
	h.create(w, r, n, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, n models.Note, err error) {
	if err == nil {
		err = h.store.Create(r.Context(), n)
	}
	if err != nil {
		writeError(w, apperr.ActionSave, err)
		return
	}
	slog.Debug("note created", slog.String("id", n.ID.String()), slog.String("type", string(n.Type)))
	writeJSON(w, http.StatusCreated, n)
}

// PatchNote handles PATCH /api/notes/{id}.
//
//	@Summary		Edit a note in place
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Note id"
//	@Param			body	body		PatchNoteRequest	true	"Fields to replace"
//	@Success		200		{object}	Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) PatchNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var patch PatchNoteRequest
	if !decodeBody(w, r, &patch) {
		return
	}
	note, err := h.store.Edit(r.Context(), id, func(existing models.Note) (models.Note, error) {
		return h.factory.UpdateInPlace(existing, patch)
	})
	if err != nil {
		writeError(w, apperr.ActionSave, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, apperr.ActionDelete, err)
		return
	}
	h.assets.RemoveRecording(removed)
	w.WriteHeader(http.StatusNoContent)
}

// ClearNotes handles DELETE /api/notes.
//
//	@Summary		Delete every note
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	ClearResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [delete]
func (h *Handler) ClearNotes(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Clear(r.Context())
	if err != nil {
		writeError(w, apperr.ActionDelete, err)
		return
	}
	for _, n := range removed {
		h.assets.RemoveRecording(n)
	}
	writeJSON(w, http.StatusOK, ClearResponse{Removed: len(removed)})
}

// ShareNote handles GET /api/notes/{id}/share.
//
//	@Summary		Plain-text rendering for the share sheet
//	@Tags			notes
//	@Produce		plain
//	@Param			id	path	int	true	"Note id"
//	@Success		200	"Share text"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/share [get]
func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperr.ActionLoad, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, record.ShareText(note, time.Local))
}

// Drawing handles GET /api/notes/{id}/drawing.
//
//	@Summary		Render a drawing note as SVG
//	@Tags			notes
//	@Produce		image/svg+xml
//	@Param			id	path	int	true	"Note id"
//	@Success		200	"SVG image"
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/drawing [get]
func (h *Handler) Drawing(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperr.ActionLoad, err)
		return
	}
	if note.Type != models.TypeDrawing {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(record.ErrInvalidDrawing.Error()))
		return
	}
	svg, err := record.DecodeDrawingPayload(note.Content)
	if err != nil {
		writeError(w, apperr.ActionLoad, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	// Drawings are user content; keep scripts inside them inert.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// Widget handles GET /api/widget. Load failures show the placeholder.
//
//	@Summary		Newest note for the home-screen widget
//	@Tags			widget
//	@Produce		json
//	@Success		200	{object}	WidgetResponse
//	@Security		BearerAuth
//	@Router			/widget [get]
func (h *Handler) Widget(w http.ResponseWriter, r *http.Request) {
	view, err := widget.Snapshot(r.Context(), h.store)
	if err != nil {
		slog.Warn("widget snapshot failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, view)
}
