package completer

import "testing"

func TestBuffer_InsertAndString(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hello")
	if b.String() != "hello" {
		t.Fatalf("expected %q, got %q", "hello", b.String())
	}
	if b.Cursor() != 5 {
		t.Fatalf("expected cursor 5, got %d", b.Cursor())
	}
}

func TestBuffer_InsertNormalizesPastedLineEndings(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("a\r\nb\rc")
	if b.String() != "a\nb\nc" {
		t.Fatalf("expected normalized paste, got %q", b.String())
	}
}

func TestBuffer_BackspaceMergesAroundCursor(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hello")
	b.MoveLeft()
	b.Backspace()
	if b.String() != "helo" {
		t.Fatalf("expected %q, got %q", "helo", b.String())
	}
	if b.Cursor() != 3 {
		t.Fatalf("expected cursor 3, got %d", b.Cursor())
	}
}

func TestBuffer_BackspaceAtStartIsNoop(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hi")
	b.Home()
	b.Backspace()
	if b.String() != "hi" {
		t.Fatalf("expected unchanged buffer, got %q", b.String())
	}
}

func TestBuffer_DeleteAtEndIsNoop(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hi")
	b.Delete()
	if b.String() != "hi" {
		t.Fatalf("expected unchanged buffer, got %q", b.String())
	}
}

func TestBuffer_HomeAndEnd(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hello")
	b.Home()
	if b.Cursor() != 0 {
		t.Fatalf("expected cursor 0, got %d", b.Cursor())
	}
	b.End()
	if b.Cursor() != 5 {
		t.Fatalf("expected cursor 5, got %d", b.Cursor())
	}
}

func TestBuffer_WordNavigation(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("foo bar baz")
	b.WordLeft()
	if b.Cursor() != 8 {
		t.Fatalf("expected cursor at start of 'baz' (8), got %d", b.Cursor())
	}
	b.WordLeft()
	if b.Cursor() != 4 {
		t.Fatalf("expected cursor at start of 'bar' (4), got %d", b.Cursor())
	}
	b.WordRight()
	if b.Cursor() != 7 {
		t.Fatalf("expected cursor at end of 'bar' (7), got %d", b.Cursor())
	}
}

func TestBuffer_KillLineForwardAndBackward(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("hello world")
	b.Home()
	b.WordRight() // cursor lands at 5, the end of "hello"
	b.KillLineForward()
	if b.String() != "hello" {
		t.Fatalf("expected %q, got %q", "hello", b.String())
	}

	b2 := NewBuffer(10)
	b2.Insert("hello world")
	b2.Home()
	b2.WordRight()  // cursor at 5
	b2.MoveRight()  // cursor at 6, past the space
	b2.KillLineBackward()
	if b2.String() != "world" {
		t.Fatalf("expected %q, got %q", "world", b2.String())
	}
	if b2.Cursor() != 0 {
		t.Fatalf("expected cursor 0, got %d", b2.Cursor())
	}
}

func TestBuffer_KillWordBackward(t *testing.T) {
	b := NewBuffer(10)
	b.Insert("foo bar")
	b.KillWordBackward()
	if b.String() != "foo " {
		t.Fatalf("expected %q, got %q", "foo ", b.String())
	}
}

func TestBuffer_HistoryPrevNextStashesCurrentLine(t *testing.T) {
	b := NewBuffer(10)
	b.PushHistory("first")
	b.PushHistory("second")

	b.Insert("draft")
	b.HistoryPrev()
	if b.String() != "second" {
		t.Fatalf("expected 'second', got %q", b.String())
	}
	b.HistoryPrev()
	if b.String() != "first" {
		t.Fatalf("expected 'first', got %q", b.String())
	}
	// At the oldest entry, HistoryPrev is a no-op.
	b.HistoryPrev()
	if b.String() != "first" {
		t.Fatalf("expected still 'first', got %q", b.String())
	}

	b.HistoryNext()
	if b.String() != "second" {
		t.Fatalf("expected 'second', got %q", b.String())
	}
	b.HistoryNext()
	if b.String() != "draft" {
		t.Fatalf("expected stashed draft restored, got %q", b.String())
	}
}

func TestBuffer_PushHistoryDedupesImmediateRepeat(t *testing.T) {
	b := NewBuffer(10)
	b.PushHistory("same")
	b.PushHistory("same")
	b.PushHistory("same")
	b.HistoryPrev()
	if b.String() != "same" {
		t.Fatalf("expected 'same', got %q", b.String())
	}
	b.HistoryPrev()
	if b.String() != "same" {
		t.Fatalf("expected HistoryPrev to stop at the single deduped entry, got %q", b.String())
	}
}

func TestBuffer_PushHistoryBoundsRingSize(t *testing.T) {
	b := NewBuffer(2)
	b.PushHistory("a")
	b.PushHistory("b")
	b.PushHistory("c")

	count := 0
	for {
		before := b.String()
		b.HistoryPrev()
		if b.String() == before {
			break
		}
		count++
		if count > 10 {
			t.Fatalf("HistoryPrev did not converge, ring not bounded")
		}
	}
	if count != 2 {
		t.Fatalf("expected a 2-entry history ring, walked back %d entries", count)
	}
}

func TestBuffer_PushHistoryIgnoresEmptyLine(t *testing.T) {
	b := NewBuffer(10)
	b.PushHistory("")
	b.Insert("draft")
	b.HistoryPrev()
	if b.String() != "draft" {
		t.Fatalf("expected empty line not recorded, history prev should be a no-op, got %q", b.String())
	}
}
