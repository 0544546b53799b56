package domain

import "time"

// SessionStatus represents the lifecycle state of a relay session.
type SessionStatus string

const (
	// StatusPending means the transport is initializing and the account
	// has not been paired yet.
	StatusPending SessionStatus = "PENDING"
	// StatusReady means the messaging account is linked and the session
	// routes messages.
	StatusReady SessionStatus = "READY"
	// StatusDisconnected means the transport dropped; the session is
	// evicted from the registry.
	StatusDisconnected SessionStatus = "DISCONNECTED"
)

// SessionInfo is the administrative view of one session.
type SessionInfo struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Prompt    string        `json:"prompt"`
	UserCount int           `json:"user_count"`
	CreatedAt time.Time     `json:"created_at"`
}

// Message is one audited transcript entry for a session user.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
