// Package registry owns the map of live relay sessions: creation, lookup,
// prompt administration and teardown. Sessions share no mutable state with
// each other; each carries its own lock so unrelated sessions never serialize
// behind one another.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/adapter/chat"
	"github.com/xenolt/chatrelay/internal/conversation"
	"github.com/xenolt/chatrelay/internal/domain"
	"github.com/xenolt/chatrelay/internal/pairing"
)

// DefaultPrompt is the system prompt every new session starts with.
const DefaultPrompt = "You are a helpful assistant."

// Inbound is called for every message event a session's transport emits.
// Implementations must return quickly.
type Inbound func(sessionID, senderID, text string, isGroup bool)

// Registry is the concurrency-safe session map.
type Registry struct {
	logger  *zap.Logger
	factory chat.Factory
	pairing *pairing.Store

	inboundMu sync.RWMutex
	inbound   Inbound

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty registry. Transports for new sessions come from
// factory; pairing artifacts are managed through artifacts.
func New(factory chat.Factory, artifacts *pairing.Store, logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		factory:  factory,
		pairing:  artifacts,
		sessions: make(map[string]*Session),
	}
}

// SetInbound wires the message handler. Must be called before Create.
func (r *Registry) SetInbound(fn Inbound) {
	r.inboundMu.Lock()
	r.inbound = fn
	r.inboundMu.Unlock()
}

// Create registers a new pending session and starts its transport
// asynchronously. It returns the session id immediately; callers poll for
// the pairing artifact and readiness.
func (r *Registry) Create() string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:        id,
		createdAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		status:    domain.StatusPending,
		prompt:    DefaultPrompt,
		users:     make(map[string]*conversation.Window),
	}
	s.transport = r.factory(id, &sessionSink{reg: r, sessionID: id})

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session created", zap.String("session_id", id))

	go func() {
		if err := s.transport.Initialize(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("transport initialization failed",
				zap.String("session_id", id), zap.Error(err))
		}
	}()

	return id
}

// Get returns the session, if registered.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// List returns the administrative view of all registered sessions.
func (r *Registry) List() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// SetPrompt replaces the session's system prompt. The change applies to all
// subsequent routing, never retroactively.
func (r *Registry) SetPrompt(sessionID, prompt string) error {
	s, ok := r.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.SetPrompt(prompt)
	return nil
}

// ClearUserHistory empties the named user's conversation window. The window
// survives and keeps accepting appends. Unknown session and unknown user are
// reported as distinct errors.
func (r *Registry) ClearUserHistory(sessionID, userID string) error {
	s, ok := r.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	w, ok := s.lookupWindow(userID)
	if !ok {
		return domain.ErrUserNotFound
	}
	w.Clear()
	return nil
}

// PairingArtifact returns the file path of the session's pairing artifact.
func (r *Registry) PairingArtifact(sessionID string) (string, error) {
	if _, ok := r.Get(sessionID); !ok {
		return "", domain.ErrSessionNotFound
	}
	return r.pairing.Path(sessionID)
}

// Remove evicts the session and releases its transport and pairing artifact.
// In-flight routing for the session is cancelled, not awaited. Safe to call
// for unknown ids.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if !ok {
		return
	}

	s.setStatus(domain.StatusDisconnected)
	s.cancel()
	if err := s.transport.Close(); err != nil {
		r.logger.Warn("transport close failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	r.pairing.Remove(sessionID)
	r.logger.Info("session removed", zap.String("session_id", sessionID))
}

// Close tears down every session. Used on process shutdown.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Remove(id)
	}
}

func (r *Registry) dispatchInbound(sessionID, senderID, text string, isGroup bool) {
	r.inboundMu.RLock()
	fn := r.inbound
	r.inboundMu.RUnlock()

	if fn != nil {
		fn(sessionID, senderID, text, isGroup)
	}
}

// sessionSink adapts transport events for one session onto the registry.
type sessionSink struct {
	reg       *Registry
	sessionID string
}

var _ chat.EventSink = (*sessionSink)(nil)

func (k *sessionSink) PairingReady(payload string) {
	if _, ok := k.reg.Get(k.sessionID); !ok {
		return
	}
	if err := k.reg.pairing.Write(k.sessionID, payload); err != nil {
		k.reg.logger.Error("failed to write pairing artifact",
			zap.String("session_id", k.sessionID), zap.Error(err))
	}
}

func (k *sessionSink) ConnectionReady() {
	s, ok := k.reg.Get(k.sessionID)
	if !ok {
		return
	}
	s.setStatus(domain.StatusReady)
	k.reg.pairing.Remove(k.sessionID)
	k.reg.logger.Info("session ready", zap.String("session_id", k.sessionID))
}

func (k *sessionSink) Disconnected() {
	k.reg.logger.Info("session disconnected", zap.String("session_id", k.sessionID))
	k.reg.Remove(k.sessionID)
}

func (k *sessionSink) MessageReceived(senderID, text string, isGroup bool) {
	k.reg.dispatchInbound(k.sessionID, senderID, text, isGroup)
}
