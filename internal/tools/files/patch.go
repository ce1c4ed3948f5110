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

// PatchsetTool applies hashline edits to multiple files in one call, with
// all-or-nothing validation: any file failing its edits fails the whole
// set and nothing is written. dryRun=true validates refs without writing.
type PatchsetTool struct {
	resolver Resolver
	backups  *BackupStore
}

// NewPatchsetTool creates a patchset tool scoped to the workspace.
func NewPatchsetTool(cfg Config) *PatchsetTool {
	return &PatchsetTool{
		resolver: Resolver{Root: cfg.Workspace},
		backups:  NewBackupStore(cfg.Workspace),
	}
}

func (t *PatchsetTool) Name() string { return "patchset" }

func (t *PatchsetTool) Description() string {
	return "Apply hashline edits across multiple files atomically; with dry_run=true, only validate refs."
}

func (t *PatchsetTool) Schema() json.RawMessage {
	editSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"op":      map[string]interface{}{"type": "string"},
			"ref":     map[string]interface{}{"type": "string"},
			"content": map[string]interface{}{"type": "string"},
		},
		"required": []string{"op", "ref"},
	}
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"files": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"path":  map[string]interface{}{"type": "string"},
						"edits": map[string]interface{}{"type": "array", "items": editSchema},
					},
					"required": []string{"path", "edits"},
				},
			},
			"dry_run": map[string]interface{}{
				"type":        "boolean",
				"description": "Validate refs for every file without writing (default: false).",
			},
		},
		"required": []string{"files"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type patchsetFileInput struct {
	Path  string `json:"path"`
	Edits []struct {
		Op      string `json:"op"`
		Ref     string `json:"ref"`
		Content string `json:"content"`
	} `json:"edits"`
}

func (t *PatchsetTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Files  []patchsetFileInput `json:"files"`
		DryRun bool                `json:"dry_run"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if len(input.Files) == 0 {
		return toolError("files are required"), nil
	}

	type planned struct {
		path     string
		resolved string
		result   *hashline.EditResult
		original string
	}
	plan := make([]planned, 0, len(input.Files))

	// Validation pass: every file must resolve cleanly before anything is
	// written. A single failing file fails the whole set.
	for _, f := range input.Files {
		if strings.TrimSpace(f.Path) == "" {
			return toolError("path is required for every file"), nil
		}
		resolved, err := t.resolver.Resolve(f.Path)
		if err != nil {
			return toolError(fmt.Sprintf("%s: %v", f.Path, err)), nil
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return toolError(fmt.Sprintf("%s: read file: %v", f.Path, err)), nil
		}

		edits := make([]hashline.Edit, len(f.Edits))
		for i, e := range f.Edits {
			edits[i] = hashline.Edit{Op: e.Op, Ref: e.Ref, Content: e.Content}
		}
		result, err := hashline.ApplyEdits(string(data), edits)
		if err != nil {
			return toolError(fmt.Sprintf("%s: %v", f.Path, err)), nil
		}

		plan = append(plan, planned{path: f.Path, resolved: resolved, result: result, original: string(data)})
	}

	summaries := make([]map[string]interface{}, 0, len(plan))
	for _, p := range plan {
		applied := make([]map[string]interface{}, len(p.result.Applied))
		for i, a := range p.result.Applied {
			applied[i] = map[string]interface{}{"op": a.Op, "line": a.Line}
		}
		summaries = append(summaries, map[string]interface{}{"path": p.path, "applied": applied})
	}

	if input.DryRun {
		payload, _ := json.MarshalIndent(map[string]interface{}{"dry_run": true, "files": summaries}, "", "  ")
		return &agent.ToolResult{Content: string(payload)}, nil
	}

	// Write pass: by now every file in the set has already validated, so
	// this cannot fail on a ref error; only I/O errors are possible here,
	// at which point some files may already be written. Back up first.
	for _, p := range plan {
		if err := t.backups.Save(p.path, p.original); err != nil {
			return toolError(fmt.Sprintf("%s: backup prior contents: %v", p.path, err)), nil
		}
	}
	for _, p := range plan {
		if err := os.WriteFile(p.resolved, []byte(p.result.Content), 0o644); err != nil {
			return toolError(fmt.Sprintf("%s: write file: %v", p.path, err)), nil
		}
	}

	payload, err := json.MarshalIndent(map[string]interface{}{"dry_run": false, "files": summaries}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}
