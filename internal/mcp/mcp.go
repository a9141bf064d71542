// Package mcp exposes the workspace over the Model Context Protocol so any
// MCP-capable agent can read and edit notes through stdio transport.
//
// Tool profiles let clients load only the tools they need:
//
//	gospark mcp                  → all tools (default)
//	gospark mcp --tools=notes    → note and graph tools
//	gospark mcp --tools=tasks    → task board tools
//	gospark mcp --tools=note_search,task_list → individual tool names
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/notionspark/gospark/internal/engine"
	"github.com/notionspark/gospark/internal/store"
	"github.com/notionspark/gospark/pkg/tasks"
)

// ProfileNotes contains the tools for reading and editing notes.
var ProfileNotes = map[string]bool{
	"note_create":      true,
	"note_get":         true,
	"note_update":      true,
	"note_delete":      true,
	"note_search":      true,
	"note_links":       true,
	"note_graph":       true,
	"workspace_list":   true,
	"workspace_export": true,
}

// ProfileTasks contains the task board tools.
var ProfileTasks = map[string]bool{
	"task_create": true,
	"task_list":   true,
	"task_toggle": true,
}

// Profiles maps profile names to their tool sets.
var Profiles = map[string]map[string]bool{
	"notes": ProfileNotes,
	"tasks": ProfileTasks,
}

// ResolveTools takes a comma-separated string of profile names and/or
// individual tool names and returns the set of tool names to register.
// An empty input means "all" — every tool is registered.
func ResolveTools(input string) map[string]bool {
	input = strings.TrimSpace(input)
	if input == "" || input == "all" {
		return nil
	}

	result := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "all" {
			return nil
		}
		if profile, ok := Profiles[token]; ok {
			for tool := range profile {
				result[tool] = true
			}
		} else {
			result[token] = true
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

const serverInstructions = `GoSpark is a local note workspace: versioned notes ` +
	`organized in folders, connected by [[wikilinks]] and #tags, with a task ` +
	`board per workspace. Use note_search to find notes, note_links to see ` +
	`connections and link suggestions, and note_create/note_update to write.`

// NewServer creates an MCP server with ALL tools registered.
func NewServer(e *engine.Engine) *server.MCPServer {
	return NewServerWithTools(e, nil)
}

// NewServerWithTools registers only the tools in the allowlist. A nil
// allowlist registers everything.
func NewServerWithTools(e *engine.Engine, allowlist map[string]bool) *server.MCPServer {
	srv := server.NewMCPServer(
		"gospark",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)
	registerTools(srv, e, allowlist)
	return srv
}

func shouldRegister(name string, allowlist map[string]bool) bool {
	if allowlist == nil {
		return true
	}
	return allowlist[name]
}

func registerTools(srv *server.MCPServer, e *engine.Engine, allowlist map[string]bool) {
	if shouldRegister("workspace_list", allowlist) {
		srv.AddTool(
			mcp.NewTool("workspace_list",
				mcp.WithDescription("List all workspaces with their IDs. Call this first to find the workspace to operate in."),
				mcp.WithTitleAnnotation("List Workspaces"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
			),
			handleWorkspaceList(e),
		)
	}

	if shouldRegister("note_search", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_search",
				mcp.WithDescription("Full-text search over note names and content. Returns file IDs for use with note_get."),
				mcp.WithTitleAnnotation("Search Notes"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query — keywords matched against names and content"),
				),
				mcp.WithString("workspace_id",
					mcp.Description("Limit the search to one workspace"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Max results (default: 10)"),
				),
			),
			handleNoteSearch(e),
		)
	}

	if shouldRegister("note_create", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_create",
				mcp.WithDescription("Create a note, folder or database page. Content may use [[wikilinks]] and #tags; they are indexed into the workspace graph automatically."),
				mcp.WithTitleAnnotation("Create Note"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithString("workspace_id",
					mcp.Required(),
					mcp.Description("Workspace to create the note in"),
				),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Note name — also the wikilink target other notes use"),
				),
				mcp.WithString("type",
					mcp.Description("Item type: file (default), folder or database"),
				),
				mcp.WithString("parent_id",
					mcp.Description("Parent folder ID (omit for root)"),
				),
				mcp.WithString("content",
					mcp.Description("Markdown content"),
				),
				mcp.WithString("template_id",
					mcp.Description("Render a template into the content (e.g. meeting-notes, daily-journal)"),
				),
			),
			handleNoteCreate(e),
		)
	}

	if shouldRegister("note_get", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_get",
				mcp.WithDescription("Get a note's full content and metadata by ID."),
				mcp.WithTitleAnnotation("Get Note"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("File ID from note_search or note_create"),
				),
			),
			handleNoteGet(e),
		)
	}

	if shouldRegister("note_update", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_update",
				mcp.WithDescription("Update a note's name or content. Every update creates a new version; history is never lost."),
				mcp.WithTitleAnnotation("Update Note"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("File ID to update"),
				),
				mcp.WithString("name",
					mcp.Description("New name"),
				),
				mcp.WithString("content",
					mcp.Description("New content (replaces the old content)"),
				),
			),
			handleNoteUpdate(e),
		)
	}

	if shouldRegister("note_delete", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_delete",
				mcp.WithDescription("Delete a note. Folders are deleted with their children."),
				mcp.WithTitleAnnotation("Delete Note"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("File ID to delete"),
				),
			),
			handleNoteDelete(e),
		)
	}

	if shouldRegister("note_links", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_links",
				mcp.WithDescription("Show a note's connections: notes linking to it (backlinks) plus suggested wikilinks for unlinked mentions in its content."),
				mcp.WithTitleAnnotation("Note Links"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("File ID to inspect"),
				),
			),
			handleNoteLinks(e),
		)
	}

	if shouldRegister("note_graph", allowlist) {
		srv.AddTool(
			mcp.NewTool("note_graph",
				mcp.WithDescription("Summarize the wikilink/tag graph of a workspace: node count, edges and broken links."),
				mcp.WithTitleAnnotation("Workspace Graph"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("workspace_id",
					mcp.Required(),
					mcp.Description("Workspace to build the graph for"),
				),
			),
			handleNoteGraph(e),
		)
	}

	if shouldRegister("task_create", allowlist) {
		srv.AddTool(
			mcp.NewTool("task_create",
				mcp.WithDescription("Create a task on the workspace task board."),
				mcp.WithTitleAnnotation("Create Task"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithString("workspace_id",
					mcp.Required(),
					mcp.Description("Workspace the task belongs to"),
				),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("Task title"),
				),
				mcp.WithString("description",
					mcp.Description("Longer description"),
				),
				mcp.WithString("priority",
					mcp.Description("Priority: low, medium (default), high or urgent"),
				),
				mcp.WithNumber("due_at",
					mcp.Description("Due date as unix milliseconds"),
				),
			),
			handleTaskCreate(e),
		)
	}

	if shouldRegister("task_list", allowlist) {
		srv.AddTool(
			mcp.NewTool("task_list",
				mcp.WithDescription("List tasks in a workspace, optionally filtered by status or priority."),
				mcp.WithTitleAnnotation("List Tasks"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("workspace_id",
					mcp.Required(),
					mcp.Description("Workspace to list tasks for"),
				),
				mcp.WithString("status",
					mcp.Description("Filter by status: todo or done"),
				),
				mcp.WithString("priority",
					mcp.Description("Filter by priority: low, medium, high or urgent"),
				),
			),
			handleTaskList(e),
		)
	}

	if shouldRegister("task_toggle", allowlist) {
		srv.AddTool(
			mcp.NewTool("task_toggle",
				mcp.WithDescription("Toggle a task between todo and done."),
				mcp.WithTitleAnnotation("Toggle Task"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("Task ID to toggle"),
				),
			),
			handleTaskToggle(e),
		)
	}

	if shouldRegister("workspace_export", allowlist) {
		srv.AddTool(
			mcp.NewTool("workspace_export",
				mcp.WithDescription("Export all workspaces, notes and tasks as a JSON snapshot."),
				mcp.WithTitleAnnotation("Export Workspace"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
			),
			handleWorkspaceExport(e),
		)
	}
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleWorkspaceList(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := e.ListWorkspaces()
		if err != nil {
			return mcp.NewToolResultError("Failed to list workspaces: " + err.Error()), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("No workspaces yet."), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d workspaces:\n", len(list))
		for _, ws := range list {
			fmt.Fprintf(&b, "- %s (%s)\n", ws.Name, ws.ID)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleNoteSearch(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)
		workspaceID, _ := req.GetArguments()["workspace_id"].(string)
		limit := intArg(req, "limit", 10)

		hits, err := e.Search(query, &store.SearchOptions{
			WorkspaceID: workspaceID,
			Limit:       limit,
		})
		if err != nil {
			return mcp.NewToolResultError("Search error: " + err.Error()), nil
		}
		if len(hits) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No notes found for: %q", query)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d notes:\n\n", len(hits))
		for i, h := range hits {
			fmt.Fprintf(&b, "[%d] %s (%s, id=%s)\n", i+1, h.Name, h.Type, h.FileID)
			if h.Snippet != "" {
				fmt.Fprintf(&b, "    %s\n", h.Snippet)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleNoteCreate(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		workspaceID, _ := args["workspace_id"].(string)
		name, _ := args["name"].(string)
		typ, _ := args["type"].(string)
		parentID, _ := args["parent_id"].(string)
		content, _ := args["content"].(string)
		templateID, _ := args["template_id"].(string)

		f, err := e.CreateFile(engine.CreateFileInput{
			WorkspaceID: workspaceID,
			Name:        name,
			Type:        store.FileType(typ),
			ParentID:    parentID,
			Content:     content,
			TemplateID:  templateID,
		})
		if err != nil {
			return mcp.NewToolResultError("Failed to create note: " + err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created %s %q (id=%s)", f.Type, f.Name, f.ID)), nil
	}
}

func handleNoteGet(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		f, err := e.GetFile(id)
		if err != nil {
			return mcp.NewToolResultError("Failed to get note: " + err.Error()), nil
		}
		tags := ""
		if len(f.Tags) > 0 {
			tags = "\nTags: " + strings.Join(f.Tags, ", ")
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s (%s, id=%s, version %d)%s\n\n%s",
			f.Name, f.Type, f.ID, f.Version, tags, f.Content,
		)), nil
	}
}

func handleNoteUpdate(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)

		in := engine.UpdateFileInput{Reason: "mcp edit"}
		if v, ok := req.GetArguments()["name"].(string); ok {
			in.Name = &v
		}
		if v, ok := req.GetArguments()["content"].(string); ok {
			in.Content = &v
		}
		if in.Name == nil && in.Content == nil {
			return mcp.NewToolResultError("provide name or content to update"), nil
		}

		f, err := e.UpdateFile(id, in)
		if err != nil {
			return mcp.NewToolResultError("Failed to update note: " + err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Updated %q to version %d", f.Name, f.Version)), nil
	}
}

func handleNoteDelete(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if err := e.DeleteFile(id); err != nil {
			return mcp.NewToolResultError("Failed to delete note: " + err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted note %s", id)), nil
	}
}

func handleNoteLinks(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		f, err := e.GetFile(id)
		if err != nil {
			return mcp.NewToolResultError("Failed to get note: " + err.Error()), nil
		}

		back, err := e.Backlinks(f.WorkspaceID, id)
		if err != nil {
			return mcp.NewToolResultError("Failed to get backlinks: " + err.Error()), nil
		}
		sugg, err := e.Suggestions(id)
		if err != nil {
			return mcp.NewToolResultError("Failed to get suggestions: " + err.Error()), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Links for %q:\n\n", f.Name)
		if len(back) == 0 {
			b.WriteString("No backlinks.\n")
		} else {
			fmt.Fprintf(&b, "Backlinks (%d):\n", len(back))
			for _, srcID := range back {
				src, err := e.GetFile(srcID)
				if err != nil {
					continue
				}
				fmt.Fprintf(&b, "- %s (id=%s)\n", src.Name, src.ID)
			}
		}
		if len(sugg) > 0 {
			fmt.Fprintf(&b, "\nSuggested wikilinks (%d):\n", len(sugg))
			for _, sg := range sugg {
				fmt.Fprintf(&b, "- %q could link to %s (id=%s)\n", sg.Text, sg.Name, sg.FileID)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleNoteGraph(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspaceID, _ := req.GetArguments()["workspace_id"].(string)
		g, err := e.Graph(workspaceID)
		if err != nil {
			return mcp.NewToolResultError("Failed to build graph: " + err.Error()), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Graph: %d nodes, %d edges, %d broken links\n",
			len(g.Nodes), len(g.Links), len(g.Broken))
		for _, n := range g.Nodes {
			if n.Links > 0 {
				fmt.Fprintf(&b, "- %s (%s, %d connections)\n", n.Name, n.Kind, n.Links)
			}
		}
		if len(g.Broken) > 0 {
			b.WriteString("\nBroken links:\n")
			for _, bl := range g.Broken {
				fmt.Fprintf(&b, "- [[%s]] in %s has no target\n", bl.Target, bl.SourceID)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleTaskCreate(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		workspaceID, _ := args["workspace_id"].(string)
		title, _ := args["title"].(string)
		description, _ := args["description"].(string)
		priority, _ := args["priority"].(string)

		in := tasks.CreateInput{
			WorkspaceID: workspaceID,
			Title:       title,
			Description: description,
			Priority:    store.TaskPriority(priority),
		}
		if v, ok := args["due_at"].(float64); ok {
			due := int64(v)
			in.DueAt = &due
		}

		task, err := e.CreateTask(in)
		if err != nil {
			return mcp.NewToolResultError("Failed to create task: " + err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created task %q (id=%s, priority %s)", task.Title, task.ID, task.Priority)), nil
	}
}

func handleTaskList(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		workspaceID, _ := args["workspace_id"].(string)
		status, _ := args["status"].(string)
		priority, _ := args["priority"].(string)

		list, err := e.ListTasks(workspaceID, tasks.Filter{
			Status:   store.TaskStatus(status),
			Priority: store.TaskPriority(priority),
		})
		if err != nil {
			return mcp.NewToolResultError("Failed to list tasks: " + err.Error()), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("No tasks found."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d tasks:\n", len(list))
		for _, t := range list {
			mark := " "
			if t.Status == store.TaskDone {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s (%s, id=%s)\n", mark, t.Title, t.Priority, t.ID)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleTaskToggle(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		task, err := e.ToggleTask(id)
		if err != nil {
			return mcp.NewToolResultError("Failed to toggle task: " + err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %q is now %s", task.Title, task.Status)), nil
	}
}

func handleWorkspaceExport(e *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := e.Export()
		if err != nil {
			return mcp.NewToolResultError("Export failed: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
