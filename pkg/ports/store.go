package ports

import (
	"context"

	"github.com/aretw0/pathway/pkg/domain"
)

// CursorStore persists the navigation cursor of playback sessions, keyed by
// domain.SessionKey.
type CursorStore interface {
	// Save persists the cursor for a session key.
	Save(ctx context.Context, key string, cursor *domain.Cursor) error

	// Load retrieves the cursor for a session key.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, key string) (*domain.Cursor, error)

	// Delete removes the cursor. Deleting a missing session is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
