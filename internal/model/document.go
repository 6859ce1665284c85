package model

import "time"

// Document is the metadata record for a single markdown submission.
// This is a pure domain model with no database-specific dependencies or tags.
// The raw markdown body lives in the content store under Filename; a document
// is only readable while both the metadata row and its blob exist.
type Document struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	PasswordHash *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsExpired reports whether the document is logically deleted at the given
// instant. A nil ExpiresAt means the document never expires.
func (d *Document) IsExpired(now time.Time) bool {
	if d.ExpiresAt == nil {
		return false
	}
	return !now.Before(*d.ExpiresAt)
}

// HasPassword reports whether retrieval requires a password.
func (d *Document) HasPassword() bool {
	return d.PasswordHash != nil
}
