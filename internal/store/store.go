// Package store defines the transcript audit storage interface and
// implementations. The audit log is write-behind: the in-memory conversation
// windows stay authoritative for routing, and nothing on the routing path
// reads from here.
package store

import (
	"context"

	"github.com/xenolt/chatrelay/internal/domain"
)

// Store persists routed conversation turns for audit and administration.
type Store interface {
	// AppendTurns records turns for a session user in order.
	AppendTurns(ctx context.Context, sessionID, userID string, turns []domain.Turn) error

	// History returns up to limit most recent transcript entries for a
	// session user, oldest first.
	History(ctx context.Context, sessionID, userID string, limit int) ([]domain.Message, error)

	// ClearHistory deletes the transcript for a session user.
	ClearHistory(ctx context.Context, sessionID, userID string) error

	// Lifecycle
	Close() error
}
