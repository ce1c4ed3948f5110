package git

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/haasonsaas/push/internal/agent"
)

// DiffTool returns a unified-style diff of the workspace's uncommitted changes.
type DiffTool struct {
	workspace string
}

// NewDiffTool creates a git_diff tool scoped to the workspace.
func NewDiffTool(cfg Config) *DiffTool {
	return &DiffTool{workspace: cfg.Workspace}
}

func (t *DiffTool) Name() string { return "git_diff" }

func (t *DiffTool) Description() string {
	return "Show a diff of uncommitted changes in the workspace git repository, optionally scoped to one path."
}

func (t *DiffTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Limit the diff to a single file (relative to the repository root).",
			},
			"staged": map[string]interface{}{
				"type":        "boolean",
				"description": "Diff the index against HEAD instead of the worktree against the index.",
			},
		},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *DiffTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Path   string `json:"path"`
		Staged bool   `json:"staged"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &input); err != nil {
			return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
		}
	}

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

	var b strings.Builder
	for path, s := range status {
		if input.Path != "" && path != input.Path {
			continue
		}
		code := s.Worktree
		if input.Staged {
			code = s.Staging
		}
		if code == git.Unmodified {
			continue
		}
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
		fmt.Fprintf(&b, "(%s)\n\n", diffKind(code))
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"diff": b.String(),
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func diffKind(code git.StatusCode) string {
	switch code {
	case git.Added:
		return "added"
	case git.Modified:
		return "modified"
	case git.Deleted:
		return "deleted"
	case git.Renamed:
		return "renamed"
	case git.Copied:
		return "copied"
	case git.UpdatedButUnmerged:
		return "conflicted"
	case git.Untracked:
		return "untracked"
	default:
		return "unmodified"
	}
}
