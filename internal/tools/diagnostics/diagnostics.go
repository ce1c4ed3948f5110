// Package diagnostics implements the run_diagnostics tool: it detects the
// workspace's project type from marker files and runs that ecosystem's
// native diagnostic command, parsing output into structured entries.
package diagnostics

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/haasonsaas/push/internal/agent"
	"github.com/haasonsaas/push/internal/tools/exec"
)

// Config controls where the diagnostics tool looks for a project.
type Config struct {
	Workspace string
}

// Entry is one diagnostic finding.
type Entry struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// projectKind describes how to detect and diagnose one project ecosystem.
type projectKind struct {
	name    string
	marker  string
	command string
	parse   func(output string) []Entry
}

var kinds = []projectKind{
	{name: "go", marker: "go.mod", command: "go vet ./...", parse: parseGoVet},
	{name: "node-typescript", marker: "tsconfig.json", command: "npx tsc --noEmit", parse: parseTSC},
	{name: "node", marker: "package.json", command: "npm run --silent lint", parse: parseGeneric},
	{name: "python", marker: "pyproject.toml", command: "ruff check --output-format=concise .", parse: parseGeneric},
	{name: "rust", marker: "Cargo.toml", command: "cargo check --message-format=short", parse: parseGeneric},
}

// RunDiagnosticsTool detects the workspace's project type and runs its
// native diagnostics (vet/tsc/lint/check), returning structured findings.
type RunDiagnosticsTool struct {
	workspace string
	manager   *exec.Manager
}

// NewRunDiagnosticsTool creates a run_diagnostics tool scoped to the workspace.
func NewRunDiagnosticsTool(cfg Config, manager *exec.Manager) *RunDiagnosticsTool {
	return &RunDiagnosticsTool{workspace: cfg.Workspace, manager: manager}
}

func (t *RunDiagnosticsTool) Name() string { return "run_diagnostics" }

func (t *RunDiagnosticsTool) Description() string {
	return "Detect the workspace's project type and run its native diagnostics (go vet, tsc, lint, cargo check), returning structured findings."
}

func (t *RunDiagnosticsTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Subdirectory to diagnose (default: workspace root).",
			},
		},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *RunDiagnosticsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Path string `json:"path"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &input); err != nil {
			return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
		}
	}
	dir := t.workspace
	if input.Path != "" {
		dir = filepath.Join(t.workspace, input.Path)
	}

	kind, ok := detectKind(dir)
	if !ok {
		return toolError("no recognized project marker file found"), nil
	}

	if t.manager == nil {
		return toolError("exec manager unavailable"), nil
	}
	result, err := t.manager.RunCommand(ctx, kind.command, input.Path, nil, "", 0)
	if err != nil {
		return toolError(err.Error()), nil
	}

	combined := result.Stdout + "\n" + result.Stderr
	entries := kind.parse(combined)

	payload, err := json.MarshalIndent(map[string]interface{}{
		"project_type": kind.name,
		"command":      kind.command,
		"entries":      entries,
		"count":        len(entries),
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func detectKind(dir string) (projectKind, bool) {
	for _, k := range kinds {
		if _, err := os.Stat(filepath.Join(dir, k.marker)); err == nil {
			return k, true
		}
	}
	return projectKind{}, false
}

var goVetLine = regexp.MustCompile(`^(.+\.go):(\d+):(\d+): (.+)$`)

func parseGoVet(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := goVetLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		entries = append(entries, Entry{
			File:     m[1],
			Line:     line,
			Col:      col,
			Severity: "error",
			Message:  m[4],
		})
	}
	return entries
}

var tscLine = regexp.MustCompile(`^(.+)\((\d+),(\d+)\): (error|warning) (TS\d+): (.+)$`)

func parseTSC(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := tscLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		entries = append(entries, Entry{
			File:     m[1],
			Line:     line,
			Col:      col,
			Severity: m[4],
			Code:     m[5],
			Message:  m[6],
		})
	}
	return entries
}

// parseGeneric covers lint/check tools whose exact format varies by
// version; it keeps each non-empty output line as a single finding with
// the project's own severity markers left in the message.
func parseGeneric(output string) []Entry {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, Entry{Message: line, Severity: "info"})
	}
	return entries
}

func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}
