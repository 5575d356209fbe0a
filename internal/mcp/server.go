// Package mcp exposes swarmwatch's read-only views as Model Context
// Protocol tools, so an orchestrating agent can inspect its swarm.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// NewServer creates the MCP server. version is reported to clients.
func NewServer(pipeline *enrich.Pipeline, viewer *gitview.Viewer, version string) *server.MCPServer {
	s := server.NewMCPServer("swarmwatch", version)

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List agent tasks with live tmux, status, and file-change data."),
		mcp.WithString("status", mcp.Description("Only tasks whose effective status maps to this canonical status (pending|running|completed|failed|dead|unknown)")),
	), listTasksHandler(pipeline))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get one enriched task by id."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(pipeline))

	s.AddTool(mcp.NewTool("file_changes",
		mcp.WithDescription("Files changed in a worktree across committed, staged, unstaged, and untracked state."),
		mcp.WithString("directory", mcp.Description("Worktree directory"), mcp.Required()),
	), fileChangesHandler(pipeline))

	s.AddTool(mcp.NewTool("git_status",
		mcp.WithDescription("Branch, working tree status, recent commits, and diff stat of a directory."),
		mcp.WithString("directory", mcp.Description("Repository or worktree directory"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of recent commits (default 10)")),
	), gitStatusHandler(viewer))

	s.AddTool(mcp.NewTool("commit_diff",
		mcp.WithDescription("Unified diff and per-file stats of one commit against its parent."),
		mcp.WithString("directory", mcp.Description("Repository or worktree directory"), mcp.Required()),
		mcp.WithString("commit", mcp.Description("Commit hash (7-40 hex characters)"), mcp.Required()),
	), commitDiffHandler(viewer))

	return s
}

func listTasksHandler(pipeline *enrich.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := mcp.ParseString(request, "status", "")
		if filter != "" && status.Index(status.Status(filter)) == len(status.All) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", filter)), nil
		}

		snap := pipeline.Run(ctx)
		if snap.Err != nil && !errors.Is(snap.Err, task.ErrStoreNotFound) {
			return mcp.NewToolResultError(snap.Error), nil
		}

		tasks := make([]*task.Enriched, 0, len(snap.Tasks))
		for _, t := range snap.Tasks {
			if filter == "" || status.Parse(t.Status) == status.Status(filter) {
				tasks = append(tasks, t)
			}
		}
		return jsonResult(map[string]any{"tasks": tasks, "source": snap.Source, "error": snap.Error})
	}
}

func getTaskHandler(pipeline *enrich.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		t, err := pipeline.Task(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(t)
	}
}

func fileChangesHandler(pipeline *enrich.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := mcp.ParseString(request, "directory", "")
		if dir == "" {
			return mcp.NewToolResultError("directory is required"), nil
		}
		res := pipeline.FileChanges(ctx, dir)
		if res == nil {
			return mcp.NewToolResultError(fmt.Sprintf("no changes available for %s (directory not found or not readable)", dir)), nil
		}
		return jsonResult(res)
	}
}

func gitStatusHandler(viewer *gitview.Viewer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := mcp.ParseString(request, "directory", "")
		if dir == "" {
			return mcp.NewToolResultError("directory is required"), nil
		}
		snap, err := viewer.Status(ctx, dir, mcp.ParseInt(request, "limit", gitview.DefaultCommits))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(snap)
	}
}

func commitDiffHandler(viewer *gitview.Viewer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := mcp.ParseString(request, "directory", "")
		commit := mcp.ParseString(request, "commit", "")
		if dir == "" || commit == "" {
			return mcp.NewToolResultError("directory and commit are required"), nil
		}
		diff, err := viewer.CommitDiff(ctx, dir, commit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(diff)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
