// Package toolcall extracts tool invocations from an assistant round,
// either from a provider's native tool-call payload or from the textual
// sentinel protocol the local-LLM provider and any non-function-calling
// backend fall back to.
//
// The parser is pure: it never executes a tool, and it is idempotent —
// running it twice over the same input yields the same result.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Source identifies where a ToolCall was extracted from.
type Source string

const (
	SourceNative  Source = "native"
	SourceTextual Source = "textual"
)

// ToolCall is one parsed tool invocation.
type ToolCall struct {
	Tool   string
	Args   map[string]any
	Source Source
}

// MalformedReason enumerates why a candidate block failed to parse.
type MalformedReason string

const (
	ReasonJSONParseError MalformedReason = "json_parse_error"
	ReasonMissingTool    MalformedReason = "missing_tool"
	ReasonArgsNotObject  MalformedReason = "args_not_object"
	ReasonUnknownTool    MalformedReason = "unknown_tool"
)

// Malformed describes a detected-but-unusable tool call block.
type Malformed struct {
	Reason MalformedReason
	Raw    string
}

// NativeCall is the coalesced native tool-call payload a provider adapter
// hands the parser once a stream finishes; Args is the final coalesced
// JSON arguments string for the call.
type NativeCall struct {
	Tool string
	Args json.RawMessage
}

var fencedBlock = regexp.MustCompile(`(?s)<<<TOOL_CALL>>>\s*\n(.*?)\n\s*<<<END>>>`)

// KnownTool reports whether name is in the fixed tool registry. Callers
// inject this so the parser never imports the tool registry directly,
// keeping it a pure function of its inputs.
type KnownTool func(name string) bool

// Parse extracts ToolCalls from one assistant round. If native is
// non-empty, it is used exclusively (detection order: native first). Text
// is only scanned when native is empty. Returns the parsed calls and, if
// the first candidate block exists but cannot be used, a Malformed
// description (mutually exclusive with a non-empty calls slice unless
// native is used, since native payloads bypass textual scanning entirely).
func Parse(text string, native []NativeCall, known KnownTool) ([]ToolCall, *Malformed) {
	if len(native) > 0 {
		calls := make([]ToolCall, 0, len(native))
		for _, n := range native {
			calls = append(calls, ToolCall{Tool: n.Tool, Args: rawArgsToMap(n.Args), Source: SourceNative})
		}
		return calls, nil
	}

	matches := fencedBlock.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var calls []ToolCall
	for i, m := range matches {
		raw := strings.TrimSpace(m[1])

		var parsed struct {
			Tool string         `json:"tool"`
			Args map[string]any `json:"args"`
		}
		var rawArgs json.RawMessage
		var envelope struct {
			Tool string          `json:"tool"`
			Args json.RawMessage `json:"args"`
		}

		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			if i == 0 {
				return nil, &Malformed{Reason: ReasonJSONParseError, Raw: raw}
			}
			continue
		}
		rawArgs = envelope.Args
		parsed.Tool = envelope.Tool

		if strings.TrimSpace(parsed.Tool) == "" {
			if i == 0 {
				return nil, &Malformed{Reason: ReasonMissingTool, Raw: raw}
			}
			continue
		}

		if len(rawArgs) > 0 {
			trimmed := strings.TrimSpace(string(rawArgs))
			if !strings.HasPrefix(trimmed, "{") {
				if i == 0 {
					return nil, &Malformed{Reason: ReasonArgsNotObject, Raw: raw}
				}
				continue
			}
			if err := json.Unmarshal(rawArgs, &parsed.Args); err != nil {
				if i == 0 {
					return nil, &Malformed{Reason: ReasonJSONParseError, Raw: raw}
				}
				continue
			}
		}

		if known != nil && !known(parsed.Tool) {
			if i == 0 {
				return nil, &Malformed{Reason: ReasonUnknownTool, Raw: raw}
			}
			continue
		}

		calls = append(calls, ToolCall{Tool: parsed.Tool, Args: parsed.Args, Source: SourceTextual})
	}

	return calls, nil
}

func rawArgsToMap(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// CanonicalKey returns a stable JSON encoding of a ToolCall used as the key
// for the agent loop's per-call repeat-loop counter. encoding/json already
// sorts map keys on marshal, so two calls with the same tool name and
// argument set (regardless of the order args were supplied) produce the
// same key.
func CanonicalKey(c ToolCall) string {
	payload := struct {
		Tool string         `json:"tool"`
		Args map[string]any `json:"args"`
	}{Tool: c.Tool, Args: c.Args}
	b, err := json.Marshal(payload)
	if err != nil {
		return c.Tool
	}
	return string(b)
}
