package skills

import (
	"embed"
	"io/fs"
)

//go:embed builtin/*.md
var builtinFiles embed.FS

// builtinFS returns the embedded builtin/ directory as its own filesystem
// root, so discovery can treat it the same as a workspace skills/ directory.
func builtinFS() fs.FS {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		// builtin/ is embedded at compile time; Sub only fails on a
		// malformed path, which go:embed already guarantees against.
		return builtinFiles
	}
	return sub
}
