package ports

import (
	"context"

	"github.com/nanoforge-io/synthctl/internal/domain"
)

// SessionJournal persists the outcome of finished sessions for diagnostics.
// Implementations must be safe to call after a fault; journaling failures
// are logged, never escalated.
type SessionJournal interface {
	// Append records one finished session.
	Append(ctx context.Context, record domain.SessionRecord) error

	// Load retrieves all journaled records, oldest first.
	// Returns an empty slice and nil error if nothing has been journaled.
	Load(ctx context.Context) ([]domain.SessionRecord, error)
}
