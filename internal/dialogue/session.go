package dialogue

import (
	"context"
	"sync"
)

// SessionManager keeps one live conversation per session id and
// serializes message handling per conversation.
type SessionManager struct {
	machine *Machine

	mu       sync.Mutex
	sessions map[string]*Conversation
}

func NewSessionManager(machine *Machine) *SessionManager {
	return &SessionManager{
		machine:  machine,
		sessions: make(map[string]*Conversation),
	}
}

// ProcessMessage routes a message to its conversation, creating one when
// the session id is empty or unknown. Returns the session id the caller
// should use for followups together with the assistant's reply.
func (s *SessionManager) ProcessMessage(ctx context.Context, sessionID, message string) (string, string) {
	s.mu.Lock()
	conv, ok := s.sessions[sessionID]
	if !ok {
		conv = NewConversation()
		s.sessions[conv.ID] = conv
	}
	s.mu.Unlock()

	// Holding only the conversation during processing would require a
	// per-conversation lock; message volume here does not justify it,
	// so the machine call runs outside the map lock and callers must
	// not send concurrent messages for one session.
	response := s.machine.ProcessMessage(ctx, conv, message)
	return conv.ID, response
}

// Greeting returns the onboarding prompt clients show before the first
// user message of a new session.
func (s *SessionManager) Greeting() string {
	return s.machine.Greeting()
}

// Reset discards a conversation draft. Unknown ids are a no-op.
func (s *SessionManager) Reset(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// ActiveSessions reports the number of live conversations.
func (s *SessionManager) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
