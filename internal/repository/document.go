package repository

import (
	"context"
	"errors"
	"time"

	"github.com/duongtx90/markdown-viewer/internal/model"
)

// ErrDuplicateID is returned by Create when the id (or filename) is already
// taken. Implementations translate their backend's uniqueness violation into
// this error so the service can map it to a conflict without knowing the
// driver. The database constraint is the authoritative arbiter for the
// delete-then-insert race on custom id reclamation.
var ErrDuplicateID = errors.New("document id already exists")

// DocumentRepository defines data access for document metadata using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new metadata row. Returns ErrDuplicateID when a row
	// with the same id already exists.
	Create(ctx context.Context, doc *model.Document) error

	// FindByID returns a document by its ID. Returns sql.ErrNoRows when no
	// row matches; expiration is not evaluated here.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted
	// or did not exist, so concurrent expiration sweeps never fail on the
	// second delete.
	Delete(ctx context.Context, id string) error

	// FindExpired returns all documents whose expiration is at or before the
	// cutoff. Used by the background sweeper.
	FindExpired(ctx context.Context, cutoff time.Time) ([]model.Document, error)
}
