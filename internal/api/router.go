package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nuage/internal/record"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// assetsDir is where uploaded recordings are kept.
func NewRouter(store NoteStore, factory *record.Factory, authEnabled bool, token string, sseHandler http.Handler, assetsDir string) chi.Router {
	ah := NewAssetHandler(assetsDir)
	h := NewHandler(store, factory, ah)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Delete("/notes", h.ClearNotes)
	r.Post("/notes/text", h.CreateText)
	r.Post("/notes/drawing", h.CreateDrawing)
	r.Post("/notes/audio", h.CreateAudio)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.PatchNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Get("/notes/{id}/drawing", h.Drawing)
	r.Get("/notes/{id}/share", h.ShareNote)

	// Recordings.
	r.Post("/assets", ah.Upload)
	r.Get("/assets/{filename}", ah.ServeFile)

	// Widget.
	r.Get("/widget", h.Widget)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
