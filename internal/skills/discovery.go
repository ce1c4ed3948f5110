package skills

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Discover loads every built-in skill and every <name>.md file in
// <workspace>/skills, with workspace entries overriding built-ins of the
// same name.
func Discover(workspace string) (map[string]*Skill, error) {
	found, err := discoverFS(builtinFS(), SourceBuiltin, "")
	if err != nil {
		return nil, fmt.Errorf("discover builtin skills: %w", err)
	}

	if workspace != "" {
		dir := filepath.Join(workspace, "skills")
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			workspaceSkills, err := discoverFS(os.DirFS(dir), SourceWorkspace, dir)
			if err != nil {
				return nil, fmt.Errorf("discover workspace skills: %w", err)
			}
			for name, skill := range workspaceSkills {
				found[name] = skill
			}
		}
	}

	return found, nil
}

// discoverFS scans the top level of fsys for <name>.md files, parsing each
// one. Invalid files (bad name, missing heading) are skipped rather than
// failing the whole scan, since one bad skill shouldn't disable the rest.
func discoverFS(fsys fs.FS, source SourceType, basePath string) (map[string]*Skill, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	result := make(map[string]*Skill)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".md")
		skill, err := Parse(name, data)
		if err != nil {
			continue
		}

		skill.Source = source
		if basePath != "" {
			skill.Path = filepath.Join(basePath, entry.Name())
		}
		result[skill.Name] = skill
	}

	return result, nil
}
