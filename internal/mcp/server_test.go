package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/notes"
)

func newTestService(t *testing.T) *notes.Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"notes": []}`), 0o644))
	return notes.NewService(notes.NewFileStore(path))
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content type %T", res.Content[0])
	return tc.Text
}

var msTimestamp = regexp.MustCompile(`"create_time": "\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z"`)

func TestNoteTools(t *testing.T) {
	svc := newTestService(t)

	res := call(t, handleCreateNote(svc), map[string]any{"title": "MCP note", "content": "hello"})
	require.False(t, res.IsError, text(t, res))
	var created notes.Note
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &created))
	assert.Equal(t, 1, created.ID)
	assert.Regexp(t, msTimestamp, text(t, res))

	// Numbers arrive as float64 from JSON-RPC clients.
	res = call(t, handleUpdateNote(svc), map[string]any{"id": float64(1), "title": "MCP note v2", "content": "bye"})
	require.False(t, res.IsError, text(t, res))

	res = call(t, handleGetNote(svc), map[string]any{"id": float64(1)})
	require.False(t, res.IsError, text(t, res))
	var got notes.Note
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "MCP note v2", got.Title)
	assert.Equal(t, "bye", got.Content)
	assert.True(t, created.CreateTime.Equal(got.CreateTime))

	res = call(t, handleListNotes(svc), nil)
	var list []notes.Note
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &list))
	assert.Len(t, list, 1)

	res = call(t, handleDeleteNote(svc), map[string]any{"id": 1})
	require.False(t, res.IsError, text(t, res))

	res = call(t, handleDeleteNote(svc), map[string]any{"id": 1})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not found")
}

func TestNoteToolsUseMillisecondTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"notes": [
  {"id": 3, "title": "old", "content": "<b>x</b>", "create_time": "2024-03-01T08:15:23.100Z", "update_time": "2024-03-01T08:15:23.100Z"}
]}`), 0o644))
	svc := notes.NewService(notes.NewFileStore(path))

	res := call(t, handleGetNote(svc), map[string]any{"id": 3})
	require.False(t, res.IsError, text(t, res))
	out := text(t, res)
	assert.Contains(t, out, `"create_time": "2024-03-01T08:15:23.100Z"`)
	assert.Contains(t, out, `"update_time": "2024-03-01T08:15:23.100Z"`)
	assert.Contains(t, out, `"content": "<b>x</b>"`)

	res = call(t, handleListNotes(svc), nil)
	assert.Contains(t, text(t, res), `"create_time": "2024-03-01T08:15:23.100Z"`)
}

func TestNoteToolErrors(t *testing.T) {
	svc := newTestService(t)

	res := call(t, handleCreateNote(svc), map[string]any{"title": "bad@title"})
	assert.True(t, res.IsError)

	res = call(t, handleCreateNote(svc), map[string]any{})
	assert.True(t, res.IsError)

	res = call(t, handleGetNote(svc), map[string]any{})
	assert.True(t, res.IsError)

	res = call(t, handleUpdateNote(svc), map[string]any{"id": 5, "title": "ok"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not found")

	res = call(t, handleListNotes(svc), nil)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `[]`, text(t, res))
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(newTestService(t), "test")
	tools := s.ListTools()
	for _, name := range []string{"list_notes", "get_note", "create_note", "update_note", "delete_note"} {
		assert.Contains(t, tools, name)
	}
}
