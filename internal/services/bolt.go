package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/semidark/aichat/internal/models"
	bolt "go.etcd.io/bbolt"
)

const historiesBucket = "histories"

// BoltStore implements the history store contract on a BoltDB backend, as an
// alternative to the per-session JSON files. All sessions share one database
// file; each record is the JSON-encoded history keyed by session id, and
// writes are atomic per transaction.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path and ensures the
// histories bucket exists. The database file is created with 0600
// permissions if it doesn't exist.
func NewBoltStore(path string) (BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return BoltStore{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(historiesBucket))
		return err
	})

	return BoltStore{db: db}, err
}

// Load retrieves the history stored under sessionID. A missing record yields
// a fresh empty history; an undecodable record yields a StoreError of kind
// KindCorrupt and a failed transaction one of kind KindStorage.
func (b BoltStore) Load(_ context.Context, sessionID string) (models.ConversationHistory, error) {
	var (
		history models.ConversationHistory
		found   bool
		corrupt error
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(historiesBucket))
		if bk == nil {
			return nil
		}

		v := bk.Get([]byte(sessionID))
		if v == nil {
			return nil
		}
		found = true

		if err := json.Unmarshal(v, &history); err != nil {
			corrupt = err
		}
		return nil
	})
	if err != nil {
		return models.ConversationHistory{}, &StoreError{Kind: KindStorage, SessionID: sessionID, Err: err}
	}
	if corrupt != nil {
		return models.ConversationHistory{}, &StoreError{Kind: KindCorrupt, SessionID: sessionID, Err: corrupt}
	}
	if !found {
		return models.NewConversationHistory(sessionID), nil
	}

	history.SessionID = sessionID
	return history, nil
}

// Persist stores the history under its session id, replacing any previous
// record in a single transaction.
func (b BoltStore) Persist(_ context.Context, history models.ConversationHistory) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(historiesBucket))
		if bk == nil {
			return fmt.Errorf("bucket %s is missing", historiesBucket)
		}

		v, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		return bk.Put([]byte(history.SessionID), v)
	})
	if err != nil {
		return &StoreError{Kind: KindStorage, SessionID: history.SessionID, Err: err}
	}
	return nil
}

// Close releases the underlying database file.
func (b BoltStore) Close() error {
	return b.db.Close()
}
