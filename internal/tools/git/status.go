// Package git implements workspace-scoped git tools backed by go-git,
// avoiding a dependency on a system git binary.
package git

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/haasonsaas/push/internal/agent"
)

// Config controls where the git tools look for a repository.
type Config struct {
	Workspace string
}

// StatusTool reports the working tree status of the workspace repository.
type StatusTool struct {
	workspace string
}

// NewStatusTool creates a git_status tool scoped to the workspace.
func NewStatusTool(cfg Config) *StatusTool {
	return &StatusTool{workspace: cfg.Workspace}
}

func (t *StatusTool) Name() string { return "git_status" }

func (t *StatusTool) Description() string {
	return "Report the working tree status (staged, modified, untracked files) of the workspace git repository."
}

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

func (t *StatusTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	_ = params

	repo, err := git.PlainOpen(t.workspace)
	if err != nil {
		return toolError(fmt.Sprintf("open repository: %v", err)), nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return toolError(fmt.Sprintf("open worktree: %v", err)), nil
	}
	status, err := wt.Status()
	if err != nil {
		return toolError(fmt.Sprintf("status: %v", err)), nil
	}

	head, err := repo.Head()
	branch := ""
	if err == nil && head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	entries := make([]map[string]interface{}, 0, len(status))
	for path, s := range status {
		entries = append(entries, map[string]interface{}{
			"path":     path,
			"staging":  string(s.Staging),
			"worktree": string(s.Worktree),
		})
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"branch": branch,
		"clean":  status.IsClean(),
		"files":  entries,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}
