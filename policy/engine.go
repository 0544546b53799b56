// Package policy decides whether an inbound message is routed to the model
// or dropped. Decisions come from a Rego policy so operators can extend the
// built-in rules (no group chats, no empty text) with their own, e.g.
// sender blocklists, without touching the router.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decisions the policy may return.
const (
	DecisionRoute = "route"
	DecisionDrop  = "drop"
)

// MessageInput is the evaluation input for one inbound message.
type MessageInput struct {
	SessionID string `json:"session_id"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	IsGroup   bool   `json:"is_group"`
}

// Engine is the OPA admission engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the Rego policy for evaluation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.relay_policy.decision"),
		rego.Module("relay_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the routing decision for a message. Evaluation failures
// are returned to the caller, which falls back to the built-in drop rules.
func (e *Engine) Evaluate(ctx context.Context, input MessageInput) (string, error) {
	value := map[string]interface{}{
		"session_id": input.SessionID,
		"sender_id":  input.SenderID,
		"text":       input.Text,
		"is_group":   input.IsGroup,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(value))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionRoute, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("policy returned non-string decision")
}

// DefaultPolicy encodes the relay's admission contract: group traffic and
// empty messages are never routed.
const DefaultPolicy = `
package relay_policy

default decision := "route"

decision := "drop" if input.is_group

decision := "drop" if input.text == ""
`
