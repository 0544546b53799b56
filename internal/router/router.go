// Package router converts inbound message events into replies. Each
// (session, user) pair gets its own lane with a single worker, so one user's
// replies always go out in arrival order while different users and sessions
// proceed in parallel.
package router

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/adapter/llm"
	"github.com/xenolt/chatrelay/internal/conversation"
	"github.com/xenolt/chatrelay/internal/domain"
	"github.com/xenolt/chatrelay/internal/registry"
	"github.com/xenolt/chatrelay/internal/store"
	"github.com/xenolt/chatrelay/policy"
)

// FallbackReply is sent to the user when the model call fails. Model
// failures never propagate past the router.
const FallbackReply = "Sorry, something went wrong."

// laneBuffer bounds how many messages may wait per (session, user) lane.
// Overflow is dropped with a warning; backpressure to the platform is the
// transport's problem, not ours.
const laneBuffer = 32

type laneKey struct {
	sessionID string
	userID    string
}

type lane struct {
	ch chan string
}

// Router routes inbound messages through the model client.
type Router struct {
	logger  *zap.Logger
	reg     *registry.Registry
	model   llm.ModelClient
	audit   store.Store
	engine  *policy.Engine
	timeout time.Duration

	mu    sync.Mutex
	lanes map[laneKey]*lane
}

// New creates a router. audit and engine may be nil.
func New(reg *registry.Registry, model llm.ModelClient, audit store.Store, engine *policy.Engine, timeout time.Duration, logger *zap.Logger) *Router {
	return &Router{
		logger:  logger,
		reg:     reg,
		model:   model,
		audit:   audit,
		engine:  engine,
		timeout: timeout,
		lanes:   make(map[laneKey]*lane),
	}
}

// HandleInbound accepts one inbound message event and returns immediately;
// the model call happens on the lane worker. Empty text, group traffic,
// unknown sessions and policy-dropped messages produce no reply and no
// history mutation.
func (r *Router) HandleInbound(sessionID, senderID, text string, isGroup bool) {
	if text == "" || isGroup {
		return
	}

	s, ok := r.reg.Get(sessionID)
	if !ok {
		// The transport should not emit events for unregistered sessions,
		// but the router must not fail on them.
		r.logger.Debug("dropping message for unknown session", zap.String("session_id", sessionID))
		return
	}

	if r.engine != nil {
		input := policy.MessageInput{
			SessionID: sessionID,
			SenderID:  senderID,
			Text:      text,
			IsGroup:   isGroup,
		}
		decision, err := r.engine.Evaluate(s.Context(), input)
		if err != nil {
			// Fail open to the built-in rules already applied above.
			r.logger.Warn("policy evaluation failed", zap.Error(err))
		} else if decision != policy.DecisionRoute {
			r.logger.Debug("message dropped by policy",
				zap.String("session_id", sessionID), zap.String("sender_id", senderID))
			return
		}
	}

	ln := r.lane(s, senderID)
	select {
	case ln.ch <- text:
	default:
		r.logger.Warn("lane full, dropping message",
			zap.String("session_id", sessionID), zap.String("sender_id", senderID))
	}
}

// lane returns the worker lane for (session, user), starting it on first
// contact. The worker exits and unregisters itself when the session's
// context is cancelled.
func (r *Router) lane(s *registry.Session, userID string) *lane {
	key := laneKey{sessionID: s.ID(), userID: userID}

	r.mu.Lock()
	defer r.mu.Unlock()

	ln, ok := r.lanes[key]
	if !ok {
		ln = &lane{ch: make(chan string, laneBuffer)}
		r.lanes[key] = ln
		go r.work(s, userID, key, ln)
	}
	return ln
}

func (r *Router) work(s *registry.Session, userID string, key laneKey, ln *lane) {
	ctx := s.Context()
	defer func() {
		r.mu.Lock()
		delete(r.lanes, key)
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case text := <-ln.ch:
			r.process(ctx, s, userID, text)
		}
	}
}

// process runs one exchange: snapshot the prompt, build the bounded context
// including the pending user turn, call the model, then commit both turns
// atomically on success. On failure nothing is appended, so the stored
// history always alternates user/assistant.
func (r *Router) process(ctx context.Context, s *registry.Session, userID, text string) {
	prompt := s.Prompt()
	w := s.Window(userID)
	userTurn := domain.Turn{Role: domain.RoleUser, Content: text}

	turns := make([]domain.Turn, 0, conversation.ContextTurns+1)
	turns = append(turns, domain.Turn{Role: domain.RoleSystem, Content: prompt})
	turns = append(turns, w.Context(userTurn)...)

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	reply, err := r.model.Complete(cctx, turns)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			// Session teardown: drop the reply without error.
			return
		}
		r.logger.Error("model completion failed",
			zap.String("session_id", s.ID()), zap.String("user_id", userID), zap.Error(err))
		if sendErr := s.Send(ctx, userID, FallbackReply); sendErr != nil && ctx.Err() == nil {
			r.logger.Error("fallback dispatch failed",
				zap.String("session_id", s.ID()), zap.Error(sendErr))
		}
		return
	}

	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: reply}
	w.Append(userTurn, assistantTurn)

	if r.audit != nil {
		if err := r.audit.AppendTurns(ctx, s.ID(), userID, []domain.Turn{userTurn, assistantTurn}); err != nil && ctx.Err() == nil {
			r.logger.Warn("audit append failed",
				zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	if err := s.Send(ctx, userID, reply); err != nil && ctx.Err() == nil {
		r.logger.Error("reply dispatch failed",
			zap.String("session_id", s.ID()), zap.String("user_id", userID), zap.Error(err))
	}
}
