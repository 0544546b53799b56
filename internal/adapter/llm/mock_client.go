package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/xenolt/chatrelay/internal/domain"
)

// MockClient is a canned ModelClient for tests and local runs without an API
// key. Reply and Err may be set by tests before use; every context the
// client is invoked with is recorded.
type MockClient struct {
	Reply string
	Err   error

	mu    sync.Mutex
	calls [][]domain.Turn
}

// NewMockClient creates a mock client with a default echo-style reply.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete returns the configured reply, or echoes the last user turn.
func (m *MockClient) Complete(_ context.Context, turns []domain.Turn) (string, error) {
	copied := make([]domain.Turn, len(turns))
	copy(copied, turns)

	m.mu.Lock()
	m.calls = append(m.calls, copied)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}

	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == domain.RoleUser {
			return fmt.Sprintf("[MOCK] Received your message: %q.", turns[i].Content), nil
		}
	}
	return "[MOCK] This is a mock reply.", nil
}

// Calls returns a copy of all recorded contexts.
func (m *MockClient) Calls() [][]domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.Turn, len(m.calls))
	copy(out, m.calls)
	return out
}
