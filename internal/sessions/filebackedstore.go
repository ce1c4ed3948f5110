package sessions

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haasonsaas/push/pkg/models"
)

// FileBackedStore adapts a FileStore's SessionState/events.ndjson model to
// the legacy Store interface Runtime depends on, so the CLI agent can use
// the flat-file session store (spec.md §4.6) without Runtime needing to
// know about SessionState directly. Every CRUD and message-append call
// also appends a timestamped event to the session's events.ndjson, per
// spec.md §4.7's "every state transition emits a timestamped event through
// the session store."
type FileBackedStore struct {
	files *FileStore
}

// NewFileBackedStore wraps files as a Store.
func NewFileBackedStore(files *FileStore) *FileBackedStore {
	return &FileBackedStore{files: files}
}

func toSession(state *models.SessionState) *models.Session {
	return &models.Session{
		ID:        state.SessionID,
		AgentID:   "push",
		Channel:   models.ChannelType("cli"),
		ChannelID: state.Cwd,
		Key:       state.SessionID,
		Title:     sessionTitle(state),
		Metadata: map[string]any{
			"provider": state.Provider,
			"model":    state.Model,
			"rounds":   state.Rounds,
		},
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}
}

func sessionTitle(state *models.SessionState) string {
	for _, m := range state.Messages {
		if m != nil && m.Role == models.RoleUser && m.Content != "" {
			if len(m.Content) > 60 {
				return m.Content[:60]
			}
			return m.Content
		}
	}
	return ""
}

// Create persists a brand-new session, seeded from session's Key/AgentID.
func (s *FileBackedStore) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		id, err := MakeSessionID()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		session.ID = id
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	state := &models.SessionState{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Cwd:       session.ChannelID,
		Messages:  []*models.Message{},
	}
	if err := s.files.SaveSessionState(state); err != nil {
		return err
	}
	return s.files.AppendSessionEvent(state, "session_created", nil, "")
}

// Get loads the session named by id.
func (s *FileBackedStore) Get(ctx context.Context, id string) (*models.Session, error) {
	state, err := s.files.LoadSessionState(id)
	if err != nil {
		return nil, err
	}
	return toSession(state), nil
}

// Update persists changes to an existing session's metadata.
func (s *FileBackedStore) Update(ctx context.Context, session *models.Session) error {
	state, err := s.files.LoadSessionState(session.ID)
	if err != nil {
		return err
	}
	state.Cwd = session.ChannelID
	if err := s.files.AppendSessionEvent(state, "session_updated", session.Metadata, ""); err != nil {
		return err
	}
	return s.files.SaveSessionState(state)
}

// Delete removes a session's on-disk state and event log.
func (s *FileBackedStore) Delete(ctx context.Context, id string) error {
	dir := s.files.sessionDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// GetByKey loads a session by its key, which for the CLI agent is the
// session ID itself — there is no multi-tenant key composition to do.
func (s *FileBackedStore) GetByKey(ctx context.Context, key string) (*models.Session, error) {
	return s.Get(ctx, key)
}

// GetOrCreate loads the session named by key, creating it if it does not
// exist yet.
func (s *FileBackedStore) GetOrCreate(ctx context.Context, key string, agentID string, channel models.ChannelType, channelID string) (*models.Session, error) {
	if session, err := s.GetByKey(ctx, key); err == nil {
		return session, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	session := &models.Session{
		ID:        key,
		AgentID:   agentID,
		Channel:   channel,
		ChannelID: channelID,
		Key:       key,
	}
	if err := s.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// List returns every session's metadata, newest-first.
func (s *FileBackedStore) List(ctx context.Context, agentID string, opts ListOptions) ([]*models.Session, error) {
	states, err := s.files.ListSessionStates()
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(states) {
		limit = len(states)
	}
	offset := opts.Offset
	if offset < 0 || offset > len(states) {
		offset = len(states)
	}

	out := make([]*models.Session, 0, limit)
	for i := offset; i < len(states) && len(out) < limit; i++ {
		out = append(out, toSession(states[i]))
	}
	return out, nil
}

// AppendMessage appends msg to the session's history and its event log.
func (s *FileBackedStore) AppendMessage(ctx context.Context, sessionID string, msg *models.Message) error {
	state, err := s.files.LoadSessionState(sessionID)
	if err != nil {
		return err
	}
	msg.SessionID = sessionID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	state.Messages = append(state.Messages, msg)
	if err := s.files.AppendSessionEvent(state, "message_appended", msg, ""); err != nil {
		return err
	}
	return s.files.SaveSessionState(state)
}

// GetHistory returns the last limit messages recorded for sessionID, or
// all of them if limit <= 0.
func (s *FileBackedStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	state, err := s.files.LoadSessionState(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit >= len(state.Messages) {
		return state.Messages, nil
	}
	return state.Messages[len(state.Messages)-limit:], nil
}

// ReplaceHistory overwrites sessionID's message history wholesale and
// records a "history_compacted" event. Used by the /compact REPL command
// after a context digest pass; not part of the Store interface since no
// other caller needs wholesale history replacement.
func (s *FileBackedStore) ReplaceHistory(ctx context.Context, sessionID string, messages []*models.Message) error {
	state, err := s.files.LoadSessionState(sessionID)
	if err != nil {
		return err
	}
	before := len(state.Messages)
	state.Messages = messages
	if err := s.files.AppendSessionEvent(state, "history_compacted", map[string]any{
		"messages_before": before,
		"messages_after":  len(messages),
	}, ""); err != nil {
		return err
	}
	return s.files.SaveSessionState(state)
}
