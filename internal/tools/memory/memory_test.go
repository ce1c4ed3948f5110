package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveMemoryTool_Append(t *testing.T) {
	dir := t.TempDir()
	tool := NewSaveMemoryTool(Config{Workspace: dir})

	params, _ := json.Marshal(map[string]string{"content": "remember this"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}

	data, err := os.ReadFile(memoryPath(dir))
	if err != nil {
		t.Fatalf("read memory file: %v", err)
	}
	if !contains(string(data), "remember this") {
		t.Errorf("expected memory file to contain note, got %q", string(data))
	}
}

func TestSaveMemoryTool_Replace(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".push"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(memoryPath(dir), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	tool := NewSaveMemoryTool(Config{Workspace: dir})
	params, _ := json.Marshal(map[string]string{"content": "new content", "mode": "replace"})
	if _, err := tool.Execute(context.Background(), params); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(memoryPath(dir))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "new content" {
		t.Errorf("expected replaced content, got %q", string(data))
	}
}

func TestCoderUpdateStateTool_SetGetDeleteDump(t *testing.T) {
	state := NewWorkingState()
	tool := NewCoderUpdateStateTool(state)

	setParams, _ := json.Marshal(map[string]interface{}{"action": "set", "key": "plan", "value": "step 1"})
	if _, err := tool.Execute(context.Background(), setParams); err != nil {
		t.Fatalf("set: %v", err)
	}

	getParams, _ := json.Marshal(map[string]interface{}{"action": "get", "key": "plan"})
	result, err := tool.Execute(context.Background(), getParams)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var getOut map[string]interface{}
	if err := json.Unmarshal([]byte(result.Content), &getOut); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if getOut["value"] != "step 1" {
		t.Errorf("expected value 'step 1', got %v", getOut["value"])
	}

	dumpParams, _ := json.Marshal(map[string]interface{}{"action": "dump"})
	dumpResult, err := tool.Execute(context.Background(), dumpParams)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !contains(dumpResult.Content, "plan") {
		t.Errorf("expected dump to contain 'plan', got %s", dumpResult.Content)
	}

	delParams, _ := json.Marshal(map[string]interface{}{"action": "delete", "key": "plan"})
	if _, err := tool.Execute(context.Background(), delParams); err != nil {
		t.Fatalf("delete: %v", err)
	}
	getResult2, err := tool.Execute(context.Background(), getParams)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	var getOut2 map[string]interface{}
	if err := json.Unmarshal([]byte(getResult2.Content), &getOut2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if getOut2["found"] != false {
		t.Errorf("expected key to be gone after delete")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
