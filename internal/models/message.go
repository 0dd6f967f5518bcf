package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message submitted by the person chatting.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the generation backend.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. It is immutable once created;
// Timestamp is seconds since the Unix epoch.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
}
