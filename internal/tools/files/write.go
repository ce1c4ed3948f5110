package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/push/internal/agent"
)

// WriteTool implements file writes within the workspace. Before
// overwriting an existing file it saves the prior contents to the rolling
// undo slot so a subsequent undo_edit can restore them bit-exactly.
type WriteTool struct {
	resolver Resolver
	backups  *BackupStore
}

// NewWriteTool creates a write_file tool scoped to the workspace.
func NewWriteTool(cfg Config) *WriteTool {
	return &WriteTool{
		resolver: Resolver{Root: cfg.Workspace},
		backups:  NewBackupStore(cfg.Workspace),
	}
}

func (t *WriteTool) Name() string { return "write_file" }

func (t *WriteTool) Description() string {
	return "Write content to a file in the workspace, backing up any prior contents for undo_edit."
}

func (t *WriteTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to write (relative to workspace).",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "File contents to write.",
			},
		},
		"required": []string{"path", "content"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *WriteTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolError("path is required"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}

	if prior, err := os.ReadFile(resolved); err == nil {
		if backupErr := t.backups.Save(input.Path, string(prior)); backupErr != nil {
			return toolError(fmt.Sprintf("backup prior contents: %v", backupErr)), nil
		}
	} else if !os.IsNotExist(err) {
		return toolError(fmt.Sprintf("stat file: %v", err)), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return toolError(fmt.Sprintf("create directory: %v", err)), nil
	}

	if err := os.WriteFile(resolved, []byte(input.Content), 0o644); err != nil {
		return toolError(fmt.Sprintf("write file: %v", err)), nil
	}

	result := map[string]interface{}{
		"path":          input.Path,
		"bytes_written": len(input.Content),
	}
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}

	return &agent.ToolResult{Content: string(payload)}, nil
}

// UndoEditTool restores the last backup saved for a path by write_file or
// edit_file.
type UndoEditTool struct {
	resolver Resolver
	backups  *BackupStore
}

// NewUndoEditTool creates an undo_edit tool scoped to the workspace.
func NewUndoEditTool(cfg Config) *UndoEditTool {
	return &UndoEditTool{
		resolver: Resolver{Root: cfg.Workspace},
		backups:  NewBackupStore(cfg.Workspace),
	}
}

func (t *UndoEditTool) Name() string { return "undo_edit" }

func (t *UndoEditTool) Description() string {
	return "Restore the last backed-up contents of a path."
}

func (t *UndoEditTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to restore (relative to workspace).",
			},
		},
		"required": []string{"path"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *UndoEditTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolError("path is required"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}

	content, ok, err := t.backups.Load(input.Path)
	if err != nil {
		return toolError(fmt.Sprintf("load backup: %v", err)), nil
	}
	if !ok {
		return toolError("no backup available for path"), nil
	}

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return toolError(fmt.Sprintf("write file: %v", err)), nil
	}

	payload, _ := json.MarshalIndent(map[string]interface{}{
		"path":     input.Path,
		"restored": true,
	}, "", "  ")
	return &agent.ToolResult{Content: string(payload)}, nil
}
