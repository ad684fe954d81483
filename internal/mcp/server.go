package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"notebook/internal/notes"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with tools for note operations
func NewServer(svc *notes.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Notebook",
		version,
		server.WithToolCapabilities(true),
	)

	// Tool: list_notes - List every note
	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List all notes in storage order, including their IDs, titles, content and timestamps."),
		),
		handleListNotes(svc),
	)

	// Tool: get_note - Get a specific note by ID
	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a specific note by its ID."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note ID"),
			),
		),
		handleGetNote(svc),
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note. The title may contain only Chinese characters, letters, digits, whitespace and . , ! ?"),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("content",
				mcp.Description("Note body, markdown allowed"),
			),
		),
		handleCreateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("update_note",
			mcp.WithDescription("Replace the title and content of an existing note."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note ID"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("New title"),
			),
			mcp.WithString("content",
				mcp.Description("New body, markdown allowed"),
			),
		),
		handleUpdateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note by its ID."),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("The numeric note ID"),
			),
		),
		handleDeleteNote(svc),
	)

	return s
}

func handleListNotes(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		noteList, err := svc.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}

		return jsonResult(noteList), nil
	}
}

func handleGetNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := svc.Get(ctx, id)
		if err != nil {
			return toolError("get note", id, err), nil
		}

		return jsonResult(note), nil
	}
}

func handleCreateNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}

		note, err := svc.Create(ctx, notes.CreateNoteInput{
			Title:   title,
			Content: req.GetString("content", ""),
		})
		if err != nil {
			return toolError("create note", 0, err), nil
		}

		return jsonResult(note), nil
	}
}

func handleUpdateNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}

		note, err := svc.Update(ctx, id, notes.UpdateNoteInput{
			Title:   title,
			Content: req.GetString("content", ""),
		})
		if err != nil {
			return toolError("update note", id, err), nil
		}

		return jsonResult(note), nil
	}
}

func handleDeleteNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		if err := svc.Delete(ctx, id); err != nil {
			return toolError("delete note", id, err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("note %d deleted", id)), nil
	}
}

// Helper functions

func toolError(action string, id int, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, notes.ErrNoteNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("note %d not found", id))
	case errors.Is(err, notes.ErrInvalidTitle):
		return mcp.NewToolResultError("title may contain only Chinese characters, letters, digits, whitespace and . , ! ?")
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

// jsonResult renders notes the same way the REST API does.
func jsonResult(v any) *mcp.CallToolResult {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(buf.String())
}
