package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/haasonsaas/push/internal/agent"
)

// SearchFilesTool searches workspace file contents, preferring ripgrep
// when it is on PATH and falling back to grep otherwise.
type SearchFilesTool struct {
	resolver Resolver
}

// NewSearchFilesTool creates a search_files tool scoped to the workspace.
func NewSearchFilesTool(cfg Config) *SearchFilesTool {
	return &SearchFilesTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *SearchFilesTool) Name() string { return "search_files" }

func (t *SearchFilesTool) Description() string {
	return "Search file contents in the workspace (ripgrep if available, else grep), capped at max_results."
}

func (t *SearchFilesTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Regular expression to search for.",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to search within (default: workspace root).",
			},
			"include": map[string]interface{}{
				"type":        "string",
				"description": "Glob (doublestar syntax) a matched path must satisfy.",
			},
			"exclude": map[string]interface{}{
				"type":        "string",
				"description": "Glob (doublestar syntax) a matched path must not satisfy.",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of matches to return (default: 200).",
				"minimum":     1,
			},
		},
		"required": []string{"pattern"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type searchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (t *SearchFilesTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Pattern    string `json:"pattern"`
		Path       string `json:"path"`
		Include    string `json:"include"`
		Exclude    string `json:"exclude"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("Invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Pattern) == "" {
		return toolError("pattern is required"), nil
	}
	if input.Path == "" {
		input.Path = "."
	}
	if input.MaxResults <= 0 {
		input.MaxResults = 200
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}

	var matches []searchMatch
	if _, lookErr := exec.LookPath("rg"); lookErr == nil {
		matches, err = t.searchRipgrep(ctx, resolved, input.Pattern, input.MaxResults)
	} else {
		matches, err = t.searchGrep(ctx, resolved, input.Pattern, input.MaxResults)
	}
	if err != nil {
		return toolError(err.Error()), nil
	}

	matches = filterGlobs(matches, input.Include, input.Exclude)
	if len(matches) > input.MaxResults {
		matches = matches[:input.MaxResults]
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"pattern": input.Pattern,
		"matches": matches,
		"count":   len(matches),
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func (t *SearchFilesTool) searchRipgrep(ctx context.Context, root, pattern string, max int) ([]searchMatch, error) {
	cmd := exec.CommandContext(ctx, "rg", "--line-number", "--no-heading", "--color=never", "-m", strconv.Itoa(max), pattern, root)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 {
			return nil, nil // rg exits 1 on no matches
		}
		return nil, fmt.Errorf("rg: %v: %s", err, out.String())
	}
	return parseGrepLines(out.String(), root), nil
}

func (t *SearchFilesTool) searchGrep(ctx context.Context, root, pattern string, max int) ([]searchMatch, error) {
	cmd := exec.CommandContext(ctx, "grep", "-rn", "-E", pattern, root)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("grep: %v: %s", err, out.String())
	}
	return parseGrepLines(out.String(), root), nil
}

// parseGrepLines parses "<path>:<lineNo>:<text>" output common to both
// grep and ripgrep's default formatting.
func parseGrepLines(output, root string) []searchMatch {
	var matches []searchMatch
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		lineNo, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(parts[0], root), "/")
		matches = append(matches, searchMatch{Path: rel, Line: lineNo, Text: parts[2]})
	}
	return matches
}

func filterGlobs(matches []searchMatch, include, exclude string) []searchMatch {
	if include == "" && exclude == "" {
		return matches
	}
	out := make([]searchMatch, 0, len(matches))
	for _, m := range matches {
		if include != "" {
			if ok, _ := doublestar.Match(include, m.Path); !ok {
				continue
			}
		}
		if exclude != "" {
			if ok, _ := doublestar.Match(exclude, m.Path); ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
