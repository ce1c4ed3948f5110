package completer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Commands lists the REPL's reserved `/`-prefixed commands, completion
// candidates whenever a line starts with "/".
var Commands = []string{
	"help", "new", "session", "model", "provider", "skills", "compact", "config", "exit", "quit",
}

// providerIDs mirrors config.knownProviders for `/provider` argument
// completion; duplicated rather than imported to keep this package free of
// a dependency on internal/config.
var providerIDs = []string{"openai", "anthropic", "ollama", "azure", "openrouter", "copilot_proxy"}

// SkillNamesFunc returns the names of currently-known skills, queried lazily
// so the Completer always reflects the latest /skills reload.
type SkillNamesFunc func() []string

// Completer produces completion candidates for a REPL input line: `/command`
// names (plus skill names, since a skill can be invoked the same way),
// `/provider`'s argument, and `@path` workspace-file fragments.
type Completer struct {
	workspace string
	skills    SkillNamesFunc
}

// New builds a Completer rooted at workspace. skills may be nil if no skill
// manager is active.
func New(workspace string, skills SkillNamesFunc) *Completer {
	return &Completer{workspace: workspace, skills: skills}
}

// Suggest returns completion candidates for line, given the cursor at the
// end of line. Candidates are full replacement tokens for whichever
// trailing fragment is being completed (a command name, a `/provider`
// argument, or an `@path` fragment) — not continuations to append.
func (c *Completer) Suggest(line string) []string {
	switch {
	case strings.HasPrefix(line, "/"):
		return c.suggestCommand(line)
	default:
		if frag, ok := trailingAtFragment(line); ok {
			return c.suggestPath(frag)
		}
		return nil
	}
}

func (c *Completer) suggestCommand(line string) []string {
	fields := strings.Fields(line)
	hasTrailingSpace := strings.HasSuffix(line, " ")

	if len(fields) == 0 {
		return c.commandNames("")
	}
	if len(fields) == 1 && !hasTrailingSpace {
		return c.commandNames(strings.TrimPrefix(fields[0], "/"))
	}

	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	switch name {
	case "provider":
		frag := ""
		if len(fields) >= 2 && !hasTrailingSpace {
			frag = fields[len(fields)-1]
		}
		return prefixMatch(providerIDs, frag)
	case "skills":
		frag := ""
		if len(fields) >= 2 && !hasTrailingSpace {
			frag = fields[len(fields)-1]
		}
		return prefixMatch([]string{"reload"}, frag)
	case "session":
		frag := ""
		if len(fields) >= 2 && !hasTrailingSpace {
			frag = fields[len(fields)-1]
		}
		return prefixMatch([]string{"rename"}, frag)
	default:
		// /model takes a freeform model id and /session rename a freeform
		// title; neither has a fixed candidate set to complete against.
		return nil
	}
}

func (c *Completer) commandNames(fragment string) []string {
	candidates := make([]string, 0, len(Commands))
	candidates = append(candidates, Commands...)
	if c.skills != nil {
		candidates = append(candidates, c.skills()...)
	}
	return prefixMatch(candidates, fragment)
}

func prefixMatch(candidates []string, fragment string) []string {
	fragment = strings.ToLower(fragment)
	var out []string
	for _, cand := range candidates {
		if strings.HasPrefix(strings.ToLower(cand), fragment) {
			out = append(out, cand)
		}
	}
	sort.Strings(out)
	return out
}

// trailingAtFragment extracts the `@`-prefixed path fragment at the end of
// line, if any, e.g. "look at @internal/ag" -> ("internal/ag", true).
func trailingAtFragment(line string) (string, bool) {
	idx := strings.LastIndex(line, "@")
	if idx == -1 {
		return "", false
	}
	frag := line[idx+1:]
	if strings.ContainsAny(frag, " \t\n") {
		return "", false
	}
	return frag, true
}

// suggestPath completes fragment against workspace-relative file and
// directory names, matching the directory prefix exactly and the base name
// by prefix, skipping dotfiles unless the fragment itself asks for one.
func (c *Completer) suggestPath(fragment string) []string {
	dir, base := filepath.Split(fragment)
	root := c.workspace
	if root == "" {
		root = "."
	}
	searchDir := filepath.Join(root, dir)

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(base)) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		candidate := filepath.ToSlash(filepath.Join(dir, name))
		if entry.IsDir() {
			candidate += "/"
		}
		out = append(out, candidate)
	}
	sort.Strings(out)
	return out
}
