package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/notestore"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/testutil"
	"github.com/starford/nuage/internal/widget"
)

func testServer(t *testing.T) (*Server, *notestore.Store) {
	t.Helper()
	store, _ := testutil.TestStore(t)
	return New(store, record.NewFactory(time.Now), "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_text_note":
		result, err = srv.createTextNote(ctx, req)
	case "create_drawing_note":
		result, err = srv.createDrawingNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "clear_notes":
		result, err = srv.clearNotes(ctx, req)
	case "share_note":
		result, err = srv.shareNote(ctx, req)
	case "widget_snapshot":
		result, err = srv.widgetSnapshot(ctx, req)
	case "get_note_format":
		result, err = srv.getNoteFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createdID(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	id, ok := strings.CutPrefix(resultText(r), "created: ")
	if !ok {
		t.Fatalf("create result = %q", resultText(r))
	}
	return id
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_text_note", map[string]interface{}{
		"title":   "Test",
		"content": "Hello",
	})
	id := createdID(t, r)

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("read failed: %s", resultText(r))
	}
	var n models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatal(err)
	}
	if n.ID.String() != id || n.Title != "Test" || n.Content != "Hello" || n.Type != models.TypeText {
		t.Errorf("note = %+v", n)
	}
}

func TestCreateBlankNoteRejected(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "create_text_note", map[string]interface{}{"title": "  "})
	if !r.IsError {
		t.Error("expected validation error")
	}
	notes, _ := store.LoadAll(context.Background())
	if len(notes) != 0 {
		t.Errorf("stored %d notes", len(notes))
	}
}

func TestCreateDrawingNote(t *testing.T) {
	srv, store := testServer(t)
	svg := `<svg xmlns="http://www.w3.org/2000/svg"/>`

	r := callTool(t, srv, "create_drawing_note", map[string]interface{}{"svg": svg})
	id := createdID(t, r)

	parsed, _ := models.ParseID(id)
	n, err := store.Get(context.Background(), parsed)
	if err != nil {
		t.Fatal(err)
	}
	got, err := record.DecodeDrawingPayload(n.Content)
	if err != nil || string(got) != svg {
		t.Errorf("payload = %q, %v", got, err)
	}
	if n.Title != record.DrawingPlaceholder {
		t.Errorf("title = %q", n.Title)
	}

	r = callTool(t, srv, "create_drawing_note", map[string]interface{}{"svg": "not an image"})
	if !r.IsError {
		t.Error("expected error for non-svg input")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_text_note", map[string]interface{}{"title": "alpha"})
	callTool(t, srv, "create_text_note", map[string]interface{}{"title": "beta"})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	var notes []models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Errorf("listed %d notes, want 2", len(notes))
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"query": "ALPHA"})
	notes = nil
	_ = json.Unmarshal([]byte(resultText(r)), &notes)
	if len(notes) != 1 || notes[0].Title != "alpha" {
		t.Errorf("filtered = %+v", notes)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"type": "video"})
	if !r.IsError {
		t.Error("expected error for unknown type")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "12345"})
	if !r.IsError || resultText(r) != "note not found" {
		t.Errorf("missing note result = %q", resultText(r))
	}
	r = callTool(t, srv, "read_note", map[string]interface{}{"id": "abc"})
	if !r.IsError {
		t.Error("expected error for invalid id")
	}
}

func TestDeleteNote(t *testing.T) {
	srv, store := testServer(t)
	id := createdID(t, callTool(t, srv, "create_text_note", map[string]interface{}{"title": "bye"}))

	r := callTool(t, srv, "delete_note", map[string]interface{}{"id": id})
	if r.IsError || resultText(r) != "deleted: "+id {
		t.Fatalf("delete result = %q", resultText(r))
	}
	notes, _ := store.LoadAll(context.Background())
	if len(notes) != 0 {
		t.Errorf("note still stored")
	}

	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": id})
	if !r.IsError {
		t.Error("expected error deleting twice")
	}
}

func TestWidgetSnapshot(t *testing.T) {
	srv, _ := testServer(t)

	var view widget.View
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "widget_snapshot", nil))), &view)
	if !view.Empty {
		t.Errorf("empty snapshot = %+v", view)
	}

	callTool(t, srv, "create_text_note", map[string]interface{}{"title": "newest", "content": "body"})
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "widget_snapshot", nil))), &view)
	if view.Title != "newest" || view.Text != "body" {
		t.Errorf("snapshot = %+v", view)
	}
}

func TestGetNoteFormat(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_note_format", nil))
	if !strings.Contains(text, record.DrawingPrefix) {
		t.Error("format contract does not mention the drawing prefix")
	}
}

func TestClearNotes(t *testing.T) {
	srv, store := testServer(t)
	callTool(t, srv, "create_text_note", map[string]interface{}{"title": "one"})
	callTool(t, srv, "create_text_note", map[string]interface{}{"title": "two"})

	r := callTool(t, srv, "clear_notes", map[string]interface{}{})
	if !r.IsError {
		t.Fatal("clear without confirm should fail")
	}
	notes, _ := store.LoadAll(context.Background())
	if len(notes) != 2 {
		t.Fatalf("notes removed without confirm: %d left", len(notes))
	}

	r = callTool(t, srv, "clear_notes", map[string]interface{}{"confirm": true})
	if r.IsError || resultText(r) != "cleared: 2" {
		t.Fatalf("clear = %q", resultText(r))
	}
	notes, _ = store.LoadAll(context.Background())
	if len(notes) != 0 {
		t.Errorf("notes left: %d", len(notes))
	}
}

func TestShareNote(t *testing.T) {
	srv, _ := testServer(t)
	id := createdID(t, callTool(t, srv, "create_text_note", map[string]interface{}{"title": "courses", "content": "lait"}))

	r := callTool(t, srv, "share_note", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("share error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.HasPrefix(text, "Title: courses\nDate: ") || !strings.HasSuffix(text, "\nContent: lait") {
		t.Errorf("share text = %q", text)
	}
}
