package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/duongtx90/markdown-viewer/internal/model"
	"github.com/duongtx90/markdown-viewer/internal/repository"
)

// uniqueViolation is the SQLSTATE code PostgreSQL reports when an insert
// breaks a unique constraint.
const uniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new metadata row.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) error {
	const q = `
		INSERT INTO documents (id, filename, password_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Filename,
		doc.PasswordHash,
		doc.ExpiresAt,
		doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateID
		}
		return err
	}
	return nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, filename, password_hash, expires_at, created_at
		FROM documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.PasswordHash,
		&d.ExpiresAt,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Missing rows are fine: a concurrent read may have swept the document first.
	_, _ = res.RowsAffected()
	return nil
}

// FindExpired returns documents whose expires_at is at or before the cutoff.
func (r *DocumentPostgres) FindExpired(ctx context.Context, cutoff time.Time) ([]model.Document, error) {
	const q = `
		SELECT id, filename, password_hash, expires_at, created_at
		FROM documents
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(
			&d.ID,
			&d.Filename,
			&d.PasswordHash,
			&d.ExpiresAt,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// IsNoRowsError reports whether err means the queried row does not exist.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
