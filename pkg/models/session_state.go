package models

import "time"

// SessionState is the persisted record of one agent conversation: enough
// to resume an interrupted run and to replay its event log.
type SessionState struct {
	SessionID string     `json:"sessionId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Provider  string     `json:"provider"`
	Model     string     `json:"model"`
	Cwd       string     `json:"cwd"`
	Rounds    int        `json:"rounds"`
	EventSeq  int64      `json:"eventSeq"`
	Messages  []*Message `json:"messages"`
}

// Clone returns a deep-enough copy of the state: the Messages slice and
// each message's mutable fields are copied so callers can freely mutate
// the clone without affecting the stored state.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		if m == nil {
			continue
		}
		mc := *m
		if m.ToolCalls != nil {
			mc.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		if m.ToolResults != nil {
			mc.ToolResults = append([]ToolResult(nil), m.ToolResults...)
		}
		if m.Metadata != nil {
			mc.Metadata = make(map[string]any, len(m.Metadata))
			for k, v := range m.Metadata {
				mc.Metadata[k] = v
			}
		}
		out.Messages[i] = &mc
	}
	return &out
}
