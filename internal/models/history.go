package models

import (
	"fmt"
	"strings"
	"time"
)

// ConversationHistory is the durable record of one session's conversation.
// Messages are kept in insertion order, and UpdatedAt is bumped exactly once
// per appended message, so UpdatedAt >= CreatedAt always holds.
type ConversationHistory struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// NewConversationHistory creates an empty history for the given session id
// with equal created and updated timestamps.
func NewConversationHistory(sessionID string) ConversationHistory {
	now := time.Now().Unix()
	return ConversationHistory{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append returns a copy of the history with one message added and UpdatedAt
// refreshed. The receiver is not modified, and the returned history does not
// share its message slice with the receiver.
func (h ConversationHistory) Append(role Role, content string) ConversationHistory {
	msg := NewMessage(role, content)

	messages := make([]Message, len(h.Messages), len(h.Messages)+1)
	copy(messages, h.Messages)
	h.Messages = append(messages, msg)
	h.UpdatedAt = msg.Timestamp
	return h
}

// PromptText renders the history into a single prompt string for the
// generation backend. All messages except the last are rendered as
// "<Label>: <content>" pairs separated by blank lines; the last message is
// appended unlabeled when it is the user's live input. Roles other than
// user/assistant keep their raw role string as the label.
func (h ConversationHistory) PromptText() string {
	if len(h.Messages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(h.Messages))
	for _, msg := range h.Messages[:len(h.Messages)-1] {
		var label string
		switch msg.Role {
		case RoleUser:
			label = "Human"
		case RoleAssistant:
			label = "Assistant"
		default:
			label = string(msg.Role)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, msg.Content))
	}

	last := h.Messages[len(h.Messages)-1]
	if last.Role == RoleUser {
		parts = append(parts, last.Content)
	}

	return strings.Join(parts, "\n\n")
}
