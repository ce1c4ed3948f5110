// Package completer implements the REPL's line-editing buffer and
// `@path`/`/command` completion, grounded on spec.md §4.10's exact operation
// list. The buffer is a plain imperative data structure — insert, delete,
// word navigation, kill-line — independent of any particular terminal
// driver, so it can be exercised and tested without a real TTY.
package completer

import "strings"

// wordRune reports whether r belongs to a "word" for word-navigation and
// kill-word-backward purposes: letters, digits, underscore.
func wordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Buffer is a single-line, cursor-addressed editing buffer plus a bounded
// command history ring.
type Buffer struct {
	runes  []rune
	cursor int

	history     []string
	historyMax  int
	historyPos  int // index into history while browsing; len(history) means "not browsing"
	stash       string
	browsing    bool
}

// NewBuffer returns an empty buffer with a history ring bounded to
// historyMax entries (oldest entries are dropped once exceeded).
func NewBuffer(historyMax int) *Buffer {
	if historyMax <= 0 {
		historyMax = 500
	}
	return &Buffer{historyMax: historyMax}
}

// String returns the buffer's current contents.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Cursor returns the current cursor position, in runes.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Len returns the buffer's length, in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Reset clears the buffer's text and resets the cursor to zero, leaving
// history untouched.
func (b *Buffer) Reset() {
	b.runes = nil
	b.cursor = 0
}

// Insert inserts s at the cursor, normalizing pasted CRLF/bare-CR line
// endings to bare LF first, and advances the cursor past the inserted text.
func (b *Buffer) Insert(s string) {
	s = NormalizePaste(s)
	inserted := []rune(s)
	if len(inserted) == 0 {
		return
	}
	out := make([]rune, 0, len(b.runes)+len(inserted))
	out = append(out, b.runes[:b.cursor]...)
	out = append(out, inserted...)
	out = append(out, b.runes[b.cursor:]...)
	b.runes = out
	b.cursor += len(inserted)
}

// NormalizePaste converts CRLF and bare-CR line endings to bare LF, the
// normalization pasted multi-line text needs before insertion.
func NormalizePaste(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Backspace deletes the rune before the cursor, merging the buffer around
// it. A no-op at position zero.
func (b *Buffer) Backspace() {
	if b.cursor == 0 {
		return
	}
	b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
	b.cursor--
}

// Delete deletes the rune under the cursor. A no-op at end of buffer.
func (b *Buffer) Delete() {
	if b.cursor >= len(b.runes) {
		return
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
}

// MoveLeft moves the cursor one rune left, clamped at zero.
func (b *Buffer) MoveLeft() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// MoveRight moves the cursor one rune right, clamped at the buffer length.
func (b *Buffer) MoveRight() {
	if b.cursor < len(b.runes) {
		b.cursor++
	}
}

// Home moves the cursor to the start of the buffer.
func (b *Buffer) Home() {
	b.cursor = 0
}

// End moves the cursor to the end of the buffer.
func (b *Buffer) End() {
	b.cursor = len(b.runes)
}

// WordLeft moves the cursor to the start of the previous word, skipping any
// non-word runes first.
func (b *Buffer) WordLeft() {
	i := b.cursor
	for i > 0 && !wordRune(b.runes[i-1]) {
		i--
	}
	for i > 0 && wordRune(b.runes[i-1]) {
		i--
	}
	b.cursor = i
}

// WordRight moves the cursor to the end of the next word, skipping any
// non-word runes first.
func (b *Buffer) WordRight() {
	i := b.cursor
	n := len(b.runes)
	for i < n && !wordRune(b.runes[i]) {
		i++
	}
	for i < n && wordRune(b.runes[i]) {
		i++
	}
	b.cursor = i
}

// KillLineForward deletes from the cursor to the end of the buffer.
func (b *Buffer) KillLineForward() {
	b.runes = b.runes[:b.cursor]
}

// KillLineBackward deletes from the start of the buffer to the cursor.
func (b *Buffer) KillLineBackward() {
	b.runes = b.runes[b.cursor:]
	b.cursor = 0
}

// KillWordBackward deletes the word immediately before the cursor, the same
// span WordLeft would have skipped.
func (b *Buffer) KillWordBackward() {
	start := b.cursor
	b.WordLeft()
	b.runes = append(b.runes[:b.cursor], b.runes[start:]...)
}

// PushHistory appends line to the history ring, trimming the oldest entry
// once historyMax is exceeded. An immediate repeat of the most recent entry
// is dropped rather than duplicated; an empty line is never recorded.
// Calling PushHistory also ends any in-progress history browse.
func (b *Buffer) PushHistory(line string) {
	b.historyPos = len(b.history)
	b.browsing = false
	b.stash = ""
	if line == "" {
		return
	}
	if n := len(b.history); n > 0 && b.history[n-1] == line {
		return
	}
	b.history = append(b.history, line)
	if len(b.history) > b.historyMax {
		b.history = b.history[len(b.history)-b.historyMax:]
	}
	b.historyPos = len(b.history)
}

// HistoryPrev replaces the buffer's contents with the previous history
// entry, stashing the buffer's pre-browse contents on first use so
// HistoryNext can restore them. A no-op once the oldest entry is reached.
func (b *Buffer) HistoryPrev() {
	if len(b.history) == 0 || b.historyPos == 0 {
		return
	}
	if !b.browsing {
		b.stash = b.String()
		b.browsing = true
	}
	b.historyPos--
	b.setText(b.history[b.historyPos])
}

// HistoryNext moves forward through history, restoring the stashed
// pre-browse buffer once the newest entry is passed.
func (b *Buffer) HistoryNext() {
	if !b.browsing {
		return
	}
	b.historyPos++
	if b.historyPos >= len(b.history) {
		b.setText(b.stash)
		b.browsing = false
		b.stash = ""
		return
	}
	b.setText(b.history[b.historyPos])
}

func (b *Buffer) setText(s string) {
	b.runes = []rune(s)
	b.cursor = len(b.runes)
}
