package services

import (
	"errors"
	"fmt"
)

// StoreErrorKind classifies history store failures so callers can branch on
// kind instead of matching message strings.
type StoreErrorKind int

const (
	// KindCorrupt means a persisted record exists but cannot be parsed.
	KindCorrupt StoreErrorKind = iota
	// KindStorage means an I/O failure while reading or writing a record.
	KindStorage
)

func (k StoreErrorKind) String() string {
	switch k {
	case KindCorrupt:
		return "corrupt"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// StoreError is the error type returned by history stores. A missing record
// is never an error; Load returns a fresh history instead.
type StoreError struct {
	Kind      StoreErrorKind
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history store: %s record for session %s: %v", e.Kind, e.SessionID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is a StoreError of kind KindCorrupt.
func IsCorrupt(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindCorrupt
}
