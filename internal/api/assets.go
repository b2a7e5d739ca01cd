package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nuage/internal/models"
)

const (
	maxUploadBytes = 50 << 20 // 50 MB
	assetsURL      = "/api/assets/"
)

// audioExts lists the recording formats the audio screen produces or plays.
var audioExts = map[string]string{
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/aac",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
}

// AssetHandler serves and accepts recordings.
type AssetHandler struct {
	dir string
}

// NewAssetHandler creates a handler storing files in dir.
func NewAssetHandler(dir string) *AssetHandler {
	return &AssetHandler{dir: dir}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the assets dir.
func (h *AssetHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, filepath.Clean(h.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes assets directory")
	}
	return abs, nil
}

// RemoveRecording deletes the uploaded file behind an audio note. Notes
// pointing elsewhere are left alone; a missing file is not an error.
func (h *AssetHandler) RemoveRecording(n models.Note) {
	if h == nil || n.Type != models.TypeAudio || !strings.HasPrefix(n.URL, assetsURL) {
		return
	}
	abs, err := h.safeName(strings.TrimPrefix(n.URL, assetsURL))
	if err != nil {
		slog.Warn("recording not removed", slog.String("url", n.URL), slog.String("error", err.Error()))
		return
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("remove recording failed", slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	slog.Debug("recording removed", slog.String("path", abs))
}

// ServeFile handles GET /api/assets/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); errors.Is(statErr, fs.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if ct, ok := audioExts[strings.ToLower(filepath.Ext(abs))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/assets (multipart/form-data, field "file").
// Existing recordings are never overwritten.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, ok := audioExts[strings.ToLower(filepath.Ext(abs))]; !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported audio format"))
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create assets dir"))
		return
	}

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		writeJSON(w, http.StatusConflict, errorBody("asset already exists"))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		_ = os.Remove(abs)
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	name := filepath.Base(abs)
	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		Filename: name,
		Size:     written,
		URL:      assetsURL + name,
	})
}
