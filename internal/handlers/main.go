package handlers

import (
	"context"
	"html/template"
	"iter"
	"log/slog"
	"time"

	aichat "github.com/semidark/aichat"
	"github.com/semidark/aichat/internal/models"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
)

// LLM is the external text-generation backend. It accepts a rendered prompt
// and returns an iterator that yields text deltas and potential errors; the
// iterator honors context cancellation and stops its underlying call when
// the consumer stops iterating.
type LLM interface {
	Chat(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Store persists per-session conversation histories. Load returns a fresh
// empty history for an unknown session id; only corruption or I/O failure
// of an existing record is an error.
type Store interface {
	Load(ctx context.Context, sessionID string) (models.ConversationHistory, error)
	Persist(ctx context.Context, history models.ConversationHistory) error
}

// Main holds the handler dependencies: HTML templates, the markdown
// renderer for stored assistant messages, the generation backend, the
// history store, and the streaming flush cadence.
type Main struct {
	templates *template.Template
	markdown  goldmark.Markdown

	llm   LLM
	store Store

	flushInterval time.Duration

	logger *slog.Logger
}

const errLoggerKey = "err"

// NewMain creates a Main instance with the provided LLM and Store
// implementations. Templates are parsed from the embedded filesystem,
// separated into layout, pages, and partial views.
func NewMain(llm LLM, store Store, flushInterval time.Duration, logger *slog.Logger) (Main, error) {
	tmpl, err := template.ParseFS(
		aichat.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(highlighting.WithStyle("monokai")),
		),
	)

	return Main{
		templates:     tmpl,
		markdown:      md,
		llm:           llm,
		store:         store,
		flushInterval: flushInterval,
		logger:        logger,
	}, nil
}

// FlushInterval exposes the configured pacing interval for diagnostics.
func (m Main) FlushInterval() time.Duration {
	return m.flushInterval
}
