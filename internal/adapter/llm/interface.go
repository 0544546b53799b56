// Package llm provides an abstraction for chat-completion model backends.
package llm

import (
	"context"

	"github.com/xenolt/chatrelay/internal/domain"
)

// ModelClient defines the single operation the relay needs from a model
// backend: turn an ordered context into one reply. Failures are reported as
// *domain.ModelError so callers can tell retryable from terminal ones.
type ModelClient interface {
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}

// Ensure implementations satisfy ModelClient.
var (
	_ ModelClient = (*OpenAIClient)(nil)
	_ ModelClient = (*MockClient)(nil)
)
