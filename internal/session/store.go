package session

import (
	"context"
	"errors"
)

// Store errors.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Store persists WizardState keyed by session ID.
//
// Access is read/write only, with no transactions. Two concurrent requests
// from the same session race with last-write-wins semantics; that is an
// explicit non-guarantee, the dominant failure mode being a harmless
// overwrite of one step's fields.
type Store interface {
	// Get retrieves the state for a session. Returns ErrSessionNotFound
	// if the session has no stored state yet.
	Get(ctx context.Context, sessionID string) (*WizardState, error)

	// Put stores the state for a session, replacing any previous value.
	Put(ctx context.Context, sessionID string, state *WizardState) error

	// Delete removes the state for a session.
	Delete(ctx context.Context, sessionID string) error
}
