// Package memory implements the save_memory and coder_update_state tools:
// a durable per-workspace notes file and an in-process working-state
// scratchpad the agent can read back across tool calls within a session.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/push/internal/agent"
)

// Config controls where the save_memory tool persists its notes file.
type Config struct {
	Workspace string
}

func memoryPath(workspace string) string {
	return filepath.Join(workspace, ".push", "memory.md")
}

// SaveMemoryTool appends or overwrites durable notes in .push/memory.md.
type SaveMemoryTool struct {
	workspace string
}

// NewSaveMemoryTool creates a save_memory tool scoped to the workspace.
func NewSaveMemoryTool(cfg Config) *SaveMemoryTool {
	return &SaveMemoryTool{workspace: cfg.Workspace}
}

func (t *SaveMemoryTool) Name() string { return "save_memory" }

func (t *SaveMemoryTool) Description() string {
	return "Append a note to the workspace's durable memory file (.push/memory.md), or replace it entirely."
}

func (t *SaveMemoryTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Note text to record.",
			},
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"append", "replace"},
				"description": "append (default) adds a timestamped entry; replace overwrites the file.",
			},
		},
		"required": []string{"content"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *SaveMemoryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Content string `json:"content"`
		Mode    string `json:"mode"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Content) == "" {
		return toolError("content is required"), nil
	}
	if input.Mode == "" {
		input.Mode = "append"
	}

	path := memoryPath(t.workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return toolError(fmt.Sprintf("create memory dir: %v", err)), nil
	}

	switch input.Mode {
	case "replace":
		if err := os.WriteFile(path, []byte(input.Content), 0o644); err != nil {
			return toolError(fmt.Sprintf("write memory: %v", err)), nil
		}
	case "append":
		entry := fmt.Sprintf("\n## %s\n\n%s\n", time.Now().UTC().Format(time.RFC3339), input.Content)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return toolError(fmt.Sprintf("open memory: %v", err)), nil
		}
		defer f.Close()
		if _, err := f.WriteString(entry); err != nil {
			return toolError(fmt.Sprintf("append memory: %v", err)), nil
		}
	default:
		return toolError(fmt.Sprintf("unknown mode: %s", input.Mode)), nil
	}

	payload, _ := json.MarshalIndent(map[string]interface{}{"path": path, "mode": input.Mode}, "", "  ")
	return &agent.ToolResult{Content: string(payload)}, nil
}

// WorkingState is a small process-local key/value scratchpad, separate from
// the durable memory file, that survives across tool calls within a single
// running session but not across process restarts.
type WorkingState struct {
	mu   sync.Mutex
	data map[string]interface{}
}

// NewWorkingState creates an empty working-state store.
func NewWorkingState() *WorkingState {
	return &WorkingState{data: map[string]interface{}{}}
}

func (s *WorkingState) snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// CoderUpdateStateTool mutates the in-memory working-state scratchpad
// (set/delete/get keys, or dump the whole snapshot).
type CoderUpdateStateTool struct {
	state *WorkingState
}

// NewCoderUpdateStateTool creates a coder_update_state tool backed by state.
func NewCoderUpdateStateTool(state *WorkingState) *CoderUpdateStateTool {
	return &CoderUpdateStateTool{state: state}
}

func (t *CoderUpdateStateTool) Name() string { return "coder_update_state" }

func (t *CoderUpdateStateTool) Description() string {
	return "Read or mutate the agent's in-memory working-state scratchpad for this session (set, delete, or dump keys)."
}

func (t *CoderUpdateStateTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type": "string",
				"enum": []string{"set", "delete", "get", "dump"},
			},
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Key for set/delete/get.",
			},
			"value": map[string]interface{}{
				"description": "Value for set (any JSON value).",
			},
		},
		"required": []string{"action"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *CoderUpdateStateTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	_ = ctx
	var input struct {
		Action string      `json:"action"`
		Key    string      `json:"key"`
		Value  interface{} `json:"value"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}

	switch input.Action {
	case "set":
		if input.Key == "" {
			return toolError("key is required for set"), nil
		}
		t.state.mu.Lock()
		t.state.data[input.Key] = input.Value
		t.state.mu.Unlock()
	case "delete":
		if input.Key == "" {
			return toolError("key is required for delete"), nil
		}
		t.state.mu.Lock()
		delete(t.state.data, input.Key)
		t.state.mu.Unlock()
	case "get":
		if input.Key == "" {
			return toolError("key is required for get"), nil
		}
		t.state.mu.Lock()
		value, ok := t.state.data[input.Key]
		t.state.mu.Unlock()
		payload, _ := json.MarshalIndent(map[string]interface{}{"key": input.Key, "value": value, "found": ok}, "", "  ")
		return &agent.ToolResult{Content: string(payload)}, nil
	case "dump":
		// fallthrough to snapshot below
	default:
		return toolError(fmt.Sprintf("unknown action: %s", input.Action)), nil
	}

	payload, _ := json.MarshalIndent(map[string]interface{}{"state": t.state.snapshot()}, "", "  ")
	return &agent.ToolResult{Content: string(payload)}, nil
}

func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}
