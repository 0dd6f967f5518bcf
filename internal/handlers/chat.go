package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/semidark/aichat/internal/models"
	"github.com/semidark/aichat/internal/relay"
	"github.com/tmaxmax/go-sse"
)

// SSE event types framing one streamed turn.
var (
	startSSEType = sse.Type("start")
	chunkSSEType = sse.Type("chunk")
	endSSEType   = sse.Type("end")
)

// HandleChat processes one synchronous chat turn: it resolves the session,
// appends the user message, drains the generation backend to completion, and
// responds with a rendered assistant-message HTML fragment. Generator
// failures become a visible apology in the fragment rather than a protocol
// error.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if msg == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	sessionID := resolveSession(w, r)
	history := m.loadHistory(r.Context(), sessionID)

	history = history.Append(models.RoleUser, msg)
	m.persistHistory(r.Context(), history)

	responseText := m.generate(r.Context(), history.PromptText())

	history = history.Append(models.RoleAssistant, responseText)
	m.persistHistory(r.Context(), history)

	am := history.Messages[len(history.Messages)-1]
	if err := m.templates.ExecuteTemplate(w, "assistant_message", m.messageView(am)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleChatStream processes one chat turn as a live event stream. It emits
// a start marker, then one HTML-escaped chunk event per scheduler flush, and
// an end marker on normal completion. A failed outward write sets the
// shared abort signal; once aborted, nothing further is emitted and the
// assistant message is not persisted.
func (m Main) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if msg == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	sessionID := resolveSession(w, r)
	ctx := r.Context()

	history := m.loadHistory(ctx, sessionID)
	history = history.Append(models.RoleUser, msg)
	m.persistHistory(ctx, history)

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		m.logger.Error("Failed to upgrade to SSE", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	abort := relay.NewAbortSignal()
	// A vanished client is observed either as a failed write or as request
	// context cancellation; both resolve to the same signal.
	stop := context.AfterFunc(ctx, abort.Set)
	defer stop()

	if err := m.sendEvent(sess, startSSEType, sessionID); err != nil {
		abort.Set()
		return
	}

	sink := func(chunk string) error {
		return m.sendEvent(sess, chunkSSEType, "<span>"+html.EscapeString(chunk)+"</span>")
	}

	deltas, errs := relay.Pump(ctx, m.llm.Chat(ctx, history.PromptText()), abort)
	full, err := relay.Relay(deltas, errs, m.flushInterval, abort, sink)

	switch {
	case errors.Is(err, relay.ErrAborted):
		m.logger.Info("Stream aborted by client",
			slog.String("sessionID", sessionID),
			slog.Int("generatedBytes", len(full)))
		return
	case err != nil:
		// Generator failure: one visible error chunk, then a normal end
		// marker. A cancellation detected in the meantime wins and
		// suppresses both.
		if abort.Aborted() {
			return
		}
		m.logger.Error("Error from llm provider", slog.String(errLoggerKey, err.Error()))
		errText := fmt.Sprintf("Sorry, I encountered an error: %v", err)
		if sinkErr := sink(errText); sinkErr != nil {
			return
		}
		full = joinTurnText(full, errText)
	}

	if abort.Aborted() {
		return
	}
	if err := m.sendEvent(sess, endSSEType, "done"); err != nil {
		abort.Set()
		return
	}

	history = history.Append(models.RoleAssistant, full)
	m.persistHistory(ctx, history)
}

// generate drains one full response from the backend, substituting a
// visible error message when the backend fails.
func (m Main) generate(ctx context.Context, prompt string) string {
	var full string
	for delta, err := range m.llm.Chat(ctx, prompt) {
		if err != nil {
			m.logger.Error("Error from llm provider", slog.String(errLoggerKey, err.Error()))
			return joinTurnText(full, fmt.Sprintf("Sorry, I encountered an error: %v", err))
		}
		full += delta
	}
	return full
}

func (m Main) sendEvent(sess *sse.Session, typ sse.EventType, data string) error {
	e := &sse.Message{Type: typ}
	e.AppendData(data)
	if err := sess.Send(e); err != nil {
		return err
	}
	return sess.Flush()
}

// loadHistory loads the session's history, substituting a fresh one when
// the persisted record is corrupt or unreadable. The turn must not fail on
// a recoverable load.
func (m Main) loadHistory(ctx context.Context, sessionID string) models.ConversationHistory {
	history, err := m.store.Load(ctx, sessionID)
	if err != nil {
		m.logger.Error("Failed to load conversation history",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		return models.NewConversationHistory(sessionID)
	}
	return history
}

// persistHistory writes the history, logging failures without propagating
// them; a turn that produced a valid response still returns it even when
// persistence fails.
func (m Main) persistHistory(ctx context.Context, history models.ConversationHistory) {
	if err := m.store.Persist(ctx, history); err != nil {
		m.logger.Error("Failed to persist conversation history",
			slog.String("sessionID", history.SessionID),
			slog.String(errLoggerKey, err.Error()))
	}
}

func joinTurnText(full, errText string) string {
	if full == "" {
		return errText
	}
	return full + "\n\n" + errText
}
