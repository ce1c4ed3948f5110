// Package skills implements the skill catalog: a name -> expanded-prompt
// mapping loaded from Markdown files, invoked from the REPL as /name [args].
package skills

// Skill is a named prompt template discovered from the filesystem.
type Skill struct {
	// Name is the skill identifier, derived from its filename
	// (<name>.md) and matched against ValidName.
	Name string

	// Description is the text of the file's first "# heading" line.
	Description string

	// Template is the Markdown body following the heading, with every
	// {{args}} occurrence still unexpanded.
	Template string

	// Source identifies where the skill was discovered.
	Source SourceType

	// Path is the file the skill was loaded from. Empty for built-ins,
	// which are compiled into the binary rather than read from disk.
	Path string
}

// SourceType indicates where a skill was discovered from.
type SourceType string

const (
	// SourceBuiltin is a skill embedded in the push binary.
	SourceBuiltin SourceType = "builtin"

	// SourceWorkspace is a skill loaded from <workspace>/skills/.
	SourceWorkspace SourceType = "workspace"
)

// Snapshot is a lightweight representation of a skill for listing in the
// REPL or persisting alongside a session.
type Snapshot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// ToSnapshot creates a lightweight snapshot for display.
func (s *Skill) ToSnapshot() *Snapshot {
	return &Snapshot{
		Name:        s.Name,
		Description: s.Description,
		Source:      string(s.Source),
	}
}
