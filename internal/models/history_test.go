package models_test

import (
	"testing"

	"github.com/semidark/aichat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationHistory(t *testing.T) {
	h := models.NewConversationHistory("test-session-123")

	assert.Equal(t, "test-session-123", h.SessionID)
	assert.Empty(t, h.Messages)
	assert.Positive(t, h.CreatedAt)
	assert.Equal(t, h.CreatedAt, h.UpdatedAt)
}

func TestAppend(t *testing.T) {
	h := models.NewConversationHistory("test-session")

	h2 := h.Append(models.RoleUser, "Hello, world!")
	require.Len(t, h2.Messages, 1)
	assert.Equal(t, models.RoleUser, h2.Messages[0].Role)
	assert.Equal(t, "Hello, world!", h2.Messages[0].Content)
	assert.Equal(t, h2.Messages[0].Timestamp, h2.UpdatedAt)
	assert.GreaterOrEqual(t, h2.UpdatedAt, h2.CreatedAt)

	// The original history is untouched.
	assert.Empty(t, h.Messages)

	h3 := h2.Append(models.RoleAssistant, "Hi there!")
	require.Len(t, h3.Messages, 2)
	assert.Equal(t, models.RoleAssistant, h3.Messages[1].Role)
	assert.Len(t, h2.Messages, 1)
}

func TestAppendDoesNotShareBackingArray(t *testing.T) {
	h := models.NewConversationHistory("test-session").
		Append(models.RoleUser, "one").
		Append(models.RoleAssistant, "two")

	a := h.Append(models.RoleUser, "three")
	b := h.Append(models.RoleUser, "four")

	assert.Equal(t, "three", a.Messages[2].Content)
	assert.Equal(t, "four", b.Messages[2].Content)
}

func TestPromptText(t *testing.T) {
	h := models.NewConversationHistory("test-session")
	assert.Empty(t, h.PromptText())

	h = h.Append(models.RoleUser, "Hi")
	assert.Equal(t, "Hi", h.PromptText())

	h = h.Append(models.RoleAssistant, "Hello")
	h = h.Append(models.RoleUser, "How are you?")
	assert.Equal(t, "Human: Hi\n\nAssistant: Hello\n\nHow are you?", h.PromptText())
}

func TestPromptTextSkipsTrailingAssistantMessage(t *testing.T) {
	h := models.NewConversationHistory("test-session").
		Append(models.RoleUser, "Hi").
		Append(models.RoleAssistant, "Hello")

	// The final message is only appended unlabeled when it is the user's
	// live input.
	assert.Equal(t, "Human: Hi", h.PromptText())
}

func TestPromptTextPassesUnknownRolesVerbatim(t *testing.T) {
	h := models.NewConversationHistory("test-session").
		Append(models.Role("system"), "Be terse.").
		Append(models.RoleUser, "Hi")

	assert.Equal(t, "system: Be terse.\n\nHi", h.PromptText())
}
