// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/screen"
	"github.com/starford/nuage/internal/widget"
)

const formatURI = "nuage://note-format"

// NoteStore is the part of notestore.Store the tools use.
type NoteStore interface {
	LoadAll(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, id models.ID) (models.Note, error)
	Create(ctx context.Context, n models.Note) error
	Delete(ctx context.Context, id models.ID) (models.Note, error)
	Clear(ctx context.Context) ([]models.Note, error)
}

// Server wraps the MCP server with note tools.
type Server struct {
	mcp     *server.MCPServer
	store   NoteStore
	factory *record.Factory
}

// New creates a new MCP server with all note tools registered.
func New(store NoteStore, factory *record.Factory, version string) *Server {
	s := &Server{store: store, factory: factory}

	s.mcp = server.NewMCPServer(
		"nuage",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, newest first, optionally filtered by type or a search query."),
		mcp.WithString("type", mcp.Description("Only notes of this type"), mcp.Enum("text", "drawing", "audio")),
		mcp.WithString("query", mcp.Description("Case-insensitive match on title, content and tags")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note record as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_text_note",
		mcp.WithDescription("Create a text note. Title or content must be non-blank. "+
			"See get_note_format or the "+formatURI+" resource for the record format."),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body")),
	), s.createTextNote)

	s.mcp.AddTool(mcp.NewTool("create_drawing_note",
		mcp.WithDescription("Save an SVG image as a drawing note."),
		mcp.WithString("svg", mcp.Required(), mcp.Description("SVG document text")),
		mcp.WithString("title", mcp.Description("Drawing title")),
	), s.createDrawingNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("clear_notes",
		mcp.WithDescription("Delete every note. Pass confirm=true; nothing is removed otherwise."),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
	), s.clearNotes)

	s.mcp.AddTool(mcp.NewTool("share_note",
		mcp.WithDescription("Render a note as the plain text used for sharing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.shareNote)

	s.mcp.AddTool(mcp.NewTool("widget_snapshot",
		mcp.WithDescription("Return what the home-screen widget currently shows."),
	), s.widgetSnapshot)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the note record format. Call this before creating notes."),
	), s.getNoteFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format",
			mcp.WithResourceDescription("Stored note record format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(action apperr.Action, err error) *mcp.CallToolResult {
	if apperr.IsKind(err, apperr.KindNotFound) {
		return mcp.NewToolResultError("note not found")
	}
	return mcp.NewToolResultError(apperr.NoticeFor(action, err).Message)
}

func requireID(req mcp.CallToolRequest) (models.ID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, err
	}
	id, err := models.ParseID(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", raw)
	}
	return id, nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := screen.Filter{
		Type:  models.Type(req.GetString("type", "")),
		Query: req.GetString("query", ""),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return mcp.NewToolResultError("type must be text, drawing or audio"), nil
	}
	notes, err := s.store.LoadAll(ctx)
	if err != nil {
		return errorResult(apperr.ActionLoad, err), nil
	}
	return jsonResult(filter.Apply(notes)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return errorResult(apperr.ActionLoad, err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) createTextNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.factory.NewText(req.GetString("title", ""), req.GetString("content", ""))
	return s.create(ctx, n, err), nil
}

func (s *Server) createDrawingNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svg, err := req.RequireString("svg")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.Contains(svg, "<svg") {
		return mcp.NewToolResultError("svg must be an SVG document"), nil
	}
	n, err := s.factory.NewDrawing(req.GetString("title", ""), record.EncodeDrawingPayload([]byte(svg)))
	return s.create(ctx, n, err), nil
}

func (s *Server) create(ctx context.Context, n models.Note, err error) *mcp.CallToolResult {
	if err == nil {
		err = s.store.Create(ctx, n)
	}
	if err != nil {
		return errorResult(apperr.ActionSave, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID))
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.store.Delete(ctx, id); err != nil {
		return errorResult(apperr.ActionDelete, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) clearNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !req.GetBool("confirm", false) {
		return mcp.NewToolResultError("confirm must be true to delete every note"), nil
	}
	removed, err := s.store.Clear(ctx)
	if err != nil {
		return errorResult(apperr.ActionDelete, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cleared: %d", len(removed))), nil
}

func (s *Server) shareNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return errorResult(apperr.ActionLoad, err), nil
	}
	return mcp.NewToolResultText(record.ShareText(n, time.Local)), nil
}

func (s *Server) widgetSnapshot(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := widget.Snapshot(ctx, s.store)
	if err != nil {
		return errorResult(apperr.ActionLoad, err), nil
	}
	return jsonResult(view), nil
}

func (s *Server) getNoteFormat(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
