package toolcall

import (
	"encoding/json"
	"testing"
)

func allKnown(string) bool { return true }

func TestParse_NativeTakesPrecedence(t *testing.T) {
	native := []NativeCall{{Tool: "read_file", Args: json.RawMessage(`{"path":"a.go"}`)}}
	calls, malformed := Parse("<<<TOOL_CALL>>>\n{\"tool\":\"exec\",\"args\":{}}\n<<<END>>>", native, allKnown)
	if malformed != nil {
		t.Fatalf("unexpected malformed: %+v", malformed)
	}
	if len(calls) != 1 || calls[0].Tool != "read_file" || calls[0].Source != SourceNative {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestParse_TextualFencedBlock(t *testing.T) {
	text := "Sure, let me look.\n<<<TOOL_CALL>>>\n{\"tool\":\"read_file\",\"args\":{\"path\":\"a.go\"}}\n<<<END>>>\n"
	calls, malformed := Parse(text, nil, allKnown)
	if malformed != nil {
		t.Fatalf("unexpected malformed: %+v", malformed)
	}
	if len(calls) != 1 || calls[0].Tool != "read_file" || calls[0].Args["path"] != "a.go" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestParse_NoToolCall(t *testing.T) {
	calls, malformed := Parse("Hello.", nil, allKnown)
	if calls != nil || malformed != nil {
		t.Fatalf("expected no calls and no malformed, got %+v %+v", calls, malformed)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	text := "<<<TOOL_CALL>>>\nnot json\n<<<END>>>"
	calls, malformed := Parse(text, nil, allKnown)
	if calls != nil {
		t.Fatalf("expected no calls, got %+v", calls)
	}
	if malformed == nil || malformed.Reason != ReasonJSONParseError {
		t.Fatalf("expected json_parse_error, got %+v", malformed)
	}
}

func TestParse_UnknownTool(t *testing.T) {
	text := "<<<TOOL_CALL>>>\n{\"tool\":\"nuke\",\"args\":{}}\n<<<END>>>"
	calls, malformed := Parse(text, nil, func(string) bool { return false })
	if calls != nil {
		t.Fatalf("expected no calls, got %+v", calls)
	}
	if malformed == nil || malformed.Reason != ReasonUnknownTool {
		t.Fatalf("expected unknown_tool, got %+v", malformed)
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := "<<<TOOL_CALL>>>\n{\"tool\":\"read_file\",\"args\":{\"path\":\"a.go\"}}\n<<<END>>>"
	calls1, m1 := Parse(text, nil, allKnown)
	calls2, m2 := Parse(text, nil, allKnown)
	if len(calls1) != len(calls2) || (m1 == nil) != (m2 == nil) {
		t.Fatalf("parse not idempotent: %+v/%+v vs %+v/%+v", calls1, m1, calls2, m2)
	}
}

func TestCanonicalKey_OrderIndependent(t *testing.T) {
	a := ToolCall{Tool: "read_file", Args: map[string]any{"path": "a.go", "start_line": float64(1)}}
	b := ToolCall{Tool: "read_file", Args: map[string]any{"start_line": float64(1), "path": "a.go"}}
	if CanonicalKey(a) != CanonicalKey(b) {
		t.Fatalf("expected matching canonical keys, got %q vs %q", CanonicalKey(a), CanonicalKey(b))
	}
}
