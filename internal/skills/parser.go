package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// nameRe matches a legal skill name.
var nameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// reservedNames are REPL commands a skill must not shadow.
var reservedNames = map[string]bool{
	"help":     true,
	"new":      true,
	"session":  true,
	"model":    true,
	"provider": true,
	"skills":   true,
	"compact":  true,
	"config":   true,
	"exit":     true,
	"quit":     true,
}

// ValidName reports whether name is a well-formed, non-reserved skill name.
func ValidName(name string) bool {
	return nameRe.MatchString(name) && !reservedNames[name]
}

// ParseFile reads and parses a <name>.md skill file from disk. The skill
// name is taken from the filename, not file content.
func ParseFile(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".md")
	return Parse(name, data)
}

// Parse extracts a skill's description and template from raw Markdown: the
// first "# heading" line becomes the description, everything after it is
// the template.
func Parse(name string, data []byte) (*Skill, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid skill name: %q", name)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var description string
	var templateLines []string
	foundHeading := false

	for scanner.Scan() {
		line := scanner.Text()
		if !foundHeading {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "# ") {
				description = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
				foundHeading = true
			}
			continue
		}
		templateLines = append(templateLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan skill file: %w", err)
	}
	if !foundHeading {
		return nil, fmt.Errorf("skill %q: no \"# heading\" description found", name)
	}

	return &Skill{
		Name:        name,
		Description: description,
		Template:    strings.TrimSpace(strings.Join(templateLines, "\n")),
	}, nil
}

// Interpolate replaces every occurrence of {{args}} in tpl with args and
// trims the result. Idempotent only when args itself contains no {{args}}
// substring.
func Interpolate(tpl, args string) string {
	return strings.TrimSpace(strings.ReplaceAll(tpl, "{{args}}", args))
}
