package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/haasonsaas/push/internal/agent"
	"github.com/haasonsaas/push/internal/hashline"
)

// EditTool applies hashline ref-addressed edits to a file. Refs must be
// consistent with the file's state at read time; a ref that no longer
// matches fails the whole batch with a stale-ref or ambiguous-ref error
// rather than applying a partial edit.
type EditTool struct {
	resolver Resolver
	backups  *BackupStore
}

// NewEditTool creates an edit_file tool scoped to the workspace.
func NewEditTool(cfg Config) *EditTool {
	return &EditTool{
		resolver: Resolver{Root: cfg.Workspace},
		backups:  NewBackupStore(cfg.Workspace),
	}
}

func (t *EditTool) Name() string { return "edit_file" }

func (t *EditTool) Description() string {
	return "Apply one or more hashline-ref-addressed edits (replace_line, delete_line, insert_before, insert_after) to a file."
}

func (t *EditTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to edit (relative to workspace).",
			},
			"expected_version": map[string]interface{}{
				"type":        "string",
				"description": "Optional 12-hex content version guard from a prior read_file call.",
			},
			"edits": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"op": map[string]interface{}{
							"type":        "string",
							"description": "One of replace_line, delete_line, insert_before, insert_after.",
							"enum":        []string{hashline.OpReplaceLine, hashline.OpDeleteLine, hashline.OpInsertBefore, hashline.OpInsertAfter},
						},
						"ref": map[string]interface{}{
							"type":        "string",
							"description": "Hashline ref: <hash>, <lineNo>:<hash>, or <lineNo>|<hash>.",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "New line content (required for all ops except delete_line).",
						},
					},
					"required": []string{"op", "ref"},
				},
			},
		},
		"required": []string{"path", "edits"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *EditTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Path            string `json:"path"`
		ExpectedVersion string `json:"expected_version"`
		Edits           []struct {
			Op      string `json:"op"`
			Ref     string `json:"ref"`
			Content string `json:"content"`
		} `json:"edits"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolError("path is required"), nil
	}
	if len(input.Edits) == 0 {
		return toolError("edits are required"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("read file: %v", err)), nil
	}
	content := string(data)

	if input.ExpectedVersion != "" {
		actual := hashline.CalculateContentVersion(content)
		if actual != input.ExpectedVersion {
			return toolError(fmt.Sprintf("stale ref at line 0: expected version %s, found %s", input.ExpectedVersion, actual)), nil
		}
	}

	edits := make([]hashline.Edit, len(input.Edits))
	for i, e := range input.Edits {
		edits[i] = hashline.Edit{Op: e.Op, Ref: e.Ref, Content: e.Content}
	}

	result, err := hashline.ApplyEdits(content, edits)
	if err != nil {
		return toolError(err.Error()), nil
	}

	if err := t.backups.Save(input.Path, content); err != nil {
		return toolError(fmt.Sprintf("backup prior contents: %v", err)), nil
	}
	if err := os.WriteFile(resolved, []byte(result.Content), 0o644); err != nil {
		return toolError(fmt.Sprintf("write file: %v", err)), nil
	}

	applied := make([]map[string]interface{}, len(result.Applied))
	for i, a := range result.Applied {
		applied[i] = map[string]interface{}{"op": a.Op, "line": a.Line}
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"path":            input.Path,
		"applied":         applied,
		"content_version": hashline.CalculateContentVersion(result.Content),
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}

	return &agent.ToolResult{Content: string(payload)}, nil
}
