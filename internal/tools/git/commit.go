package git

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/haasonsaas/push/internal/agent"
)

// CommitTool stages and commits workspace changes.
type CommitTool struct {
	workspace      string
	authorName     string
	authorEmail    string
}

// NewCommitTool creates a git_commit tool scoped to the workspace.
func NewCommitTool(cfg Config, authorName, authorEmail string) *CommitTool {
	if authorName == "" {
		authorName = "push-agent"
	}
	if authorEmail == "" {
		authorEmail = "push-agent@localhost"
	}
	return &CommitTool{workspace: cfg.Workspace, authorName: authorName, authorEmail: authorEmail}
}

func (t *CommitTool) Name() string { return "git_commit" }

func (t *CommitTool) Description() string {
	return "Stage files (default: all changes) and create a commit in the workspace git repository."
}

func (t *CommitTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Commit message.",
			},
			"paths": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Paths to stage (default: all changed paths).",
			},
		},
		"required": []string{"message"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *CommitTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Message string   `json:"message"`
		Paths   []string `json:"paths"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Message) == "" {
		return toolError("message is required"), nil
	}

	repo, err := git.PlainOpen(t.workspace)
	if err != nil {
		return toolError(fmt.Sprintf("open repository: %v", err)), nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return toolError(fmt.Sprintf("open worktree: %v", err)), nil
	}

	if len(input.Paths) > 0 {
		for _, p := range input.Paths {
			if _, err := wt.Add(p); err != nil {
				return toolError(fmt.Sprintf("stage %s: %v", p, err)), nil
			}
		}
	} else {
		status, err := wt.Status()
		if err != nil {
			return toolError(fmt.Sprintf("status: %v", err)), nil
		}
		if status.IsClean() {
			return toolError("nothing to commit"), nil
		}
		if _, err := wt.Add("."); err != nil {
			return toolError(fmt.Sprintf("stage changes: %v", err)), nil
		}
	}

	hash, err := wt.Commit(input.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  t.authorName,
			Email: t.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return toolError(fmt.Sprintf("commit: %v", err)), nil
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"commit":  hash.String(),
		"message": input.Message,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}
