package registry

import (
	"context"
	"sync"
	"time"

	"github.com/xenolt/chatrelay/internal/adapter/chat"
	"github.com/xenolt/chatrelay/internal/conversation"
	"github.com/xenolt/chatrelay/internal/domain"
)

// Session is one registered relay session: a messaging account bound to a
// system prompt and per-user conversation windows. Prompt, status and the
// user map are guarded by the session's own lock; the lock is never held
// across model or transport calls.
type Session struct {
	id        string
	createdAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	transport chat.Transport

	mu     sync.Mutex
	status domain.SessionStatus
	prompt string
	users  map[string]*conversation.Window
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Context is cancelled when the session is removed. Routing work for the
// session derives from it so teardown never waits on an in-flight call.
func (s *Session) Context() context.Context { return s.ctx }

// Status returns the current lifecycle status.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(status domain.SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Prompt returns the current system prompt. Callers snapshot it once per
// routed message, so a concurrent SetPrompt yields either the old or the new
// value, never a torn one.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// SetPrompt replaces the system prompt.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Window returns the user's conversation window, creating it on first
// contact.
func (s *Session) Window(userID string) *conversation.Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.users[userID]
	if !ok {
		w = conversation.New()
		s.users[userID] = w
	}
	return w
}

// lookupWindow returns the user's window without creating one.
func (s *Session) lookupWindow(userID string) (*conversation.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.users[userID]
	return w, ok
}

// Send dispatches text to the recipient over the session's transport.
func (s *Session) Send(ctx context.Context, recipientID, text string) error {
	return s.transport.Send(ctx, recipientID, text)
}

// Info returns the administrative view of the session.
func (s *Session) Info() domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionInfo{
		SessionID: s.id,
		Status:    s.status,
		Prompt:    s.prompt,
		UserCount: len(s.users),
		CreatedAt: s.createdAt,
	}
}
