// Package domain defines the core domain models for the relay.
package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a conversation: who said it and what was said.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
