// Package hashline implements anchor-stable line editing for text files.
//
// Every line is identified by the leading 7 hex characters of the SHA-1 hash
// of its content (no trailing newline). A ref is either a bare hash, or a
// hash qualified by its 1-indexed line number (`12:abc1234` or `12|abc1234`).
// Edits are resolved against refs rather than raw line numbers so that a
// model holding a slightly stale view of a file can still address a line
// correctly, as long as the line's content (and therefore its hash) hasn't
// changed.
package hashline

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op names understood by ApplyEdits.
const (
	OpReplaceLine  = "replace_line"
	OpDeleteLine   = "delete_line"
	OpInsertBefore = "insert_before"
	OpInsertAfter  = "insert_after"
)

// View is the annotated rendering of a file (or a window of it) that the
// model reads: one line per entry, each carrying its line number and hash.
type View struct {
	Text       string
	StartLine  int
	EndLine    int
	TotalLines int
}

// Edit is one requested mutation against a file's current content.
type Edit struct {
	Op      string
	Ref     string
	Content string
}

// Applied records the outcome of one edit within a batch.
type Applied struct {
	Op   string
	Line int
}

// EditResult is the outcome of ApplyEdits.
type EditResult struct {
	Content string
	Applied []Applied
}

var refLineQualified = regexp.MustCompile(`^(\d+)[:|]([0-9a-f]{7})$`)
var refBare = regexp.MustCompile(`^[0-9a-f]{7}$`)

// LineHash returns the 7-hex-char content hash of a single line (no
// trailing newline). Pure and stable under repeated calls.
func LineHash(line string) string {
	sum := sha1.Sum([]byte(line))
	return hex.EncodeToString(sum[:])[:7]
}

// CalculateContentVersion returns the 12-hex-char SHA-1 prefix over the
// full file contents, used as an optimistic concurrency token for edits.
func CalculateContentVersion(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

func splitLines(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

// RenderAnchored produces the hash-annotated view of content that the model
// reads. startLine/endLine are 1-indexed and inclusive; pass 0 for both to
// render the whole file.
func RenderAnchored(content string, startLine, endLine int) (*View, error) {
	lines := splitLines(content)
	total := len(lines)

	start, end := startLine, endLine
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > total {
		end = total
	}
	if start > total {
		return nil, fmt.Errorf("start_line %d exceeds file length %d", start, total)
	}
	if start > end {
		return nil, fmt.Errorf("start_line %d is after end_line %d", start, end)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		line := lines[i-1]
		fmt.Fprintf(&b, "%d|%s| %s\n", i, LineHash(line), line)
	}

	return &View{
		Text:       strings.TrimSuffix(b.String(), "\n"),
		StartLine:  start,
		EndLine:    end,
		TotalLines: total,
	}, nil
}

// refMatch is a resolved reference: the 1-indexed line it points at.
type refMatch struct {
	line int
	hash string
}

// resolveRef resolves ref against the current lines slice. Line-qualified
// refs verify the number and hash simultaneously; bare hashes scan for the
// unique matching line.
func resolveRef(lines []string, ref string) (*refMatch, error) {
	ref = strings.TrimSpace(strings.ToLower(ref))

	if m := refLineQualified.FindStringSubmatch(ref); m != nil {
		lineNo, _ := strconv.Atoi(m[1])
		hash := m[2]
		if lineNo < 1 || lineNo > len(lines) {
			return nil, fmt.Errorf("stale ref at line %d: expected %s, found <out of range>", lineNo, hash)
		}
		actual := LineHash(lines[lineNo-1])
		if actual != hash {
			return nil, fmt.Errorf("stale ref at line %d: expected %s, found %s", lineNo, hash, actual)
		}
		return &refMatch{line: lineNo, hash: hash}, nil
	}

	if refBare.MatchString(ref) {
		var matches []int
		for i, line := range lines {
			if LineHash(line) == ref {
				matches = append(matches, i+1)
			}
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("stale ref at line 0: expected %s, found <no match>", ref)
		case 1:
			return &refMatch{line: matches[0], hash: ref}, nil
		default:
			return nil, fmt.Errorf("ambiguous ref: %s matched %d lines; use line-qualified ref like \"%d:%s\"", ref, len(matches), matches[0], ref)
		}
	}

	return nil, fmt.Errorf("malformed ref: %q", ref)
}

// ApplyEdits applies a batch of edits to content, in order. Each op
// re-indexes the mutating line array for subsequent ops, so refs in the
// batch must be consistent with the state *before* the batch started; the
// returned line number for each applied op reflects its position at the
// moment it was applied, letting the caller chain further edits.
//
// Failure on any edit aborts the whole batch: no partial result is
// returned.
func ApplyEdits(content string, edits []Edit) (*EditResult, error) {
	lines := splitLines(content)

	var applied []Applied
	for _, e := range edits {
		if e.Op != OpDeleteLine && e.Content == "" && e.Op != OpReplaceLine {
			// insert_before/insert_after with empty content is legal (inserts
			// a blank line); only replace_line's emptiness is left to the
			// caller's judgment since replacing with "" is a valid edit.
		}
		match, err := resolveRef(lines, e.Ref)
		if err != nil {
			return nil, err
		}

		idx := match.line - 1 // 0-indexed
		switch e.Op {
		case OpReplaceLine:
			lines[idx] = e.Content
			applied = append(applied, Applied{Op: e.Op, Line: match.line})
		case OpDeleteLine:
			lines = append(lines[:idx], lines[idx+1:]...)
			applied = append(applied, Applied{Op: e.Op, Line: match.line})
		case OpInsertBefore:
			lines = append(lines[:idx], append([]string{e.Content}, lines[idx:]...)...)
			applied = append(applied, Applied{Op: e.Op, Line: match.line})
		case OpInsertAfter:
			insertAt := idx + 1
			lines = append(lines[:insertAt], append([]string{e.Content}, lines[insertAt:]...)...)
			applied = append(applied, Applied{Op: e.Op, Line: match.line + 1})
		default:
			return nil, fmt.Errorf("unknown op %q", e.Op)
		}
	}

	return &EditResult{
		Content: strings.Join(lines, "\n"),
		Applied: applied,
	}, nil
}
