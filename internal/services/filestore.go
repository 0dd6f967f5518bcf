package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/semidark/aichat/internal/models"
)

// FileStore persists one JSON file per session under a data directory. The
// file is replaced atomically on every persist, so a crash mid-write never
// corrupts the previous record.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if
// it doesn't exist.
func NewFileStore(dir string) (FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FileStore{}, fmt.Errorf("failed to create data directory: %w", err)
	}
	return FileStore{dir: dir}, nil
}

func (s FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Load reads the persisted history for sessionID. A missing record is not an
// error; a fresh empty history for the requested id is returned instead.
// Unparseable content yields a StoreError of kind KindCorrupt, and an I/O
// failure on an existing record yields kind KindStorage.
func (s FileStore) Load(_ context.Context, sessionID string) (models.ConversationHistory, error) {
	raw, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewConversationHistory(sessionID), nil
		}
		return models.ConversationHistory{}, &StoreError{Kind: KindStorage, SessionID: sessionID, Err: err}
	}

	var history models.ConversationHistory
	if err := json.Unmarshal(raw, &history); err != nil {
		return models.ConversationHistory{}, &StoreError{Kind: KindCorrupt, SessionID: sessionID, Err: err}
	}

	// The record is keyed by file name; keep the id authoritative.
	history.SessionID = sessionID
	return history, nil
}

// Persist serializes the history and atomically replaces the on-disk record
// keyed by its session id.
func (s FileStore) Persist(_ context.Context, history models.ConversationHistory) error {
	raw, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, history.SessionID+"-*.tmp")
	if err != nil {
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path(history.SessionID)); err != nil {
		os.Remove(tmp.Name())
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}
	return nil
}
