package handlers

import (
	"bytes"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/semidark/aichat/internal/models"
)

type messageView struct {
	Role      string
	Content   template.HTML
	Timestamp time.Time
}

type homePageData struct {
	SessionID string
	Messages  []messageView
}

// HandleHome renders the conversation page for the request's session,
// resolving (or issuing) the session cookie and loading the persisted
// history.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	sessionID := resolveSession(w, r)
	history := m.loadHistory(r.Context(), sessionID)

	msgs := make([]messageView, len(history.Messages))
	for i, msg := range history.Messages {
		msgs[i] = m.messageView(msg)
	}

	data := homePageData{
		SessionID: sessionID,
		Messages:  msgs,
	}
	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to render home page", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// messageView prepares one stored message for template rendering. Assistant
// messages are rendered from markdown (raw HTML in the source is dropped by
// the renderer); everything else is escaped verbatim.
func (m Main) messageView(msg models.Message) messageView {
	var content template.HTML
	if msg.Role == models.RoleAssistant {
		var buf bytes.Buffer
		if err := m.markdown.Convert([]byte(msg.Content), &buf); err != nil {
			m.logger.Error("Failed to render markdown", slog.String(errLoggerKey, err.Error()))
			content = template.HTML(html.EscapeString(msg.Content))
		} else {
			content = template.HTML(buf.String())
		}
	} else {
		content = template.HTML(html.EscapeString(msg.Content))
	}

	return messageView{
		Role:      string(msg.Role),
		Content:   content,
		Timestamp: time.Unix(msg.Timestamp, 0),
	}
}
