// Package symbols implements the read_symbols tool: a structural outline
// of a source file's top-level declarations. Go files are parsed with
// go/parser; other languages fall back to a regexp-based scanner for
// common declaration keywords.
package symbols

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/haasonsaas/push/internal/agent"
	"github.com/haasonsaas/push/internal/tools/files"
)

// Config controls where the read_symbols tool resolves paths.
type Config struct {
	Workspace string
}

// Symbol is one top-level declaration found in a file.
type Symbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// ReadSymbolsTool returns a structural outline of a source file.
type ReadSymbolsTool struct {
	resolver files.Resolver
}

// NewReadSymbolsTool creates a read_symbols tool scoped to the workspace.
func NewReadSymbolsTool(cfg Config) *ReadSymbolsTool {
	return &ReadSymbolsTool{resolver: files.Resolver{Root: cfg.Workspace}}
}

func (t *ReadSymbolsTool) Name() string { return "read_symbols" }

func (t *ReadSymbolsTool) Description() string {
	return "List top-level symbols (functions, types, classes) declared in a source file."
}

func (t *ReadSymbolsTool) Schema() json.RawMessage {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the source file (relative to workspace).",
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

func (t *ReadSymbolsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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
	data, err := os.ReadFile(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("read file: %v", err)), nil
	}

	var syms []Symbol
	if strings.HasSuffix(resolved, ".go") {
		syms, err = parseGoSymbols(resolved, data)
		if err != nil {
			return toolError(fmt.Sprintf("parse go file: %v", err)), nil
		}
	} else {
		syms = scanSymbols(string(data), filepath.Ext(resolved))
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"path":    input.Path,
		"symbols": syms,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func parseGoSymbols(path string, data []byte) ([]Symbol, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, data, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var syms []Symbol
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				name = receiverName(d.Recv.List[0].Type) + "." + name
			}
			syms = append(syms, Symbol{Name: name, Kind: "func", Line: fset.Position(d.Pos()).Line})
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					syms = append(syms, Symbol{Name: s.Name.Name, Kind: "type", Line: fset.Position(s.Pos()).Line})
				case *ast.ValueSpec:
					for _, name := range s.Names {
						kind := "var"
						if d.Tok == token.CONST {
							kind = "const"
						}
						syms = append(syms, Symbol{Name: name.Name, Kind: kind, Line: fset.Position(name.Pos()).Line})
					}
				}
			}
		}
	}
	return syms, nil
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	default:
		return "?"
	}
}

var symbolPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"function", regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)`)},
	{"class", regexp.MustCompile(`^\s*(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`)},
	{"interface", regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`)},
	{"def", regexp.MustCompile(`^\s*def\s+([A-Za-z_][\w]*)`)},
	{"class", regexp.MustCompile(`^\s*class\s+([A-Za-z_][\w]*)`)},
	{"struct", regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+([A-Za-z_][\w]*)`)},
	{"fn", regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+([A-Za-z_][\w]*)`)},
}

// scanSymbols is a best-effort line scanner for non-Go source, matching
// common top-level declaration keywords across mainstream languages.
func scanSymbols(content, ext string) []Symbol {
	var syms []Symbol
	_ = ext
	for i, line := range strings.Split(content, "\n") {
		for _, p := range symbolPatterns {
			if m := p.re.FindStringSubmatch(line); m != nil {
				syms = append(syms, Symbol{Name: m[1], Kind: p.kind, Line: i + 1})
				break
			}
		}
	}
	return syms
}

func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}
