package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/duongtx90/markdown-viewer/internal/model"
	"github.com/duongtx90/markdown-viewer/internal/repository"
	"github.com/duongtx90/markdown-viewer/internal/storage"
)

// Sentinel errors for the service layer. The HTTP layer maps these onto
// status codes; everything else is an internal error.
var (
	ErrEmptyContent     = errors.New("content is required and cannot be empty")
	ErrContentTooLarge  = errors.New("content exceeds maximum allowed size")
	ErrInvalidCustomID  = errors.New("custom id may only contain letters, digits, hyphen and underscore")
	ErrIDConflict       = errors.New("document with this id already exists and is still active")
	ErrNotFound         = errors.New("document not found")
	ErrExpired          = errors.New("document has expired")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
)

const (
	// generatedIDLength is the length of auto-generated public ids. The id
	// space (64^6) makes collisions negligible; no retry loop.
	generatedIDLength = 6
	// filenameTokenLength is the random component of content filenames.
	filenameTokenLength = 8
	// passwordHashCost matches the original deployment's bcrypt cost.
	passwordHashCost = 10
)

var customIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var tracer = otel.Tracer("github.com/duongtx90/markdown-viewer/internal/service")

// CreateInput carries a document submission.
type CreateInput struct {
	Content    string
	CustomID   string
	Password   string
	Expiration string
}

// DocumentContent is the retrieval result. The password hash is never part
// of it.
type DocumentContent struct {
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	HasPassword bool       `json:"hasPassword"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create validates and stores a submission: content blob first, metadata
	// row second. Returns the public id of the new document.
	Create(ctx context.Context, in CreateInput) (string, error)

	// Retrieve returns a document's content and metadata, enforcing the
	// password gate and sweeping the document if it has expired.
	Retrieve(ctx context.Context, id, password string) (*DocumentContent, error)
}

type documentService struct {
	store    storage.Store
	repo     repository.DocumentRepository
	maxBytes int64
	now      func() time.Time
}

// NewDocumentService constructs a DocumentService. maxContentBytes <= 0
// disables the size cap.
func NewDocumentService(store storage.Store, repo repository.DocumentRepository, maxContentBytes int64) DocumentService {
	return &documentService{
		store:    store,
		repo:     repo,
		maxBytes: maxContentBytes,
		now:      time.Now,
	}
}

func (s *documentService) Create(ctx context.Context, in CreateInput) (string, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Create")
	defer span.End()

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return "", ErrContentTooLarge
	}

	now := s.now().UTC()

	id, err := s.resolveID(ctx, strings.TrimSpace(in.CustomID))
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("document.id", id))

	var passwordHash *string
	if pw := strings.TrimSpace(in.Password); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), passwordHashCost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	expiresAt := resolveExpiration(in.Expiration, now)
	filename, err := generateFilename(now)
	if err != nil {
		return "", err
	}

	// Blob first, row second: a crash in between leaves an orphan blob with
	// no addressable reference, never a dangling metadata row.
	if err := s.store.Put(ctx, filename, strings.NewReader(content), int64(len(content))); err != nil {
		return "", fmt.Errorf("write content blob: %w", err)
	}

	doc := &model.Document{
		ID:           id,
		Filename:     filename,
		PasswordHash: passwordHash,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			// Lost the delete-then-insert race on a custom id; the orphan
			// blob is acceptable.
			return "", ErrIDConflict
		}
		return "", fmt.Errorf("save metadata: %w", err)
	}

	return id, nil
}

// resolveID validates a custom id and reclaims it from an expired document,
// or generates a fresh random id when none was supplied.
func (s *documentService) resolveID(ctx context.Context, customID string) (string, error) {
	if customID == "" {
		return generateToken(generatedIDLength)
	}
	if !customIDPattern.MatchString(customID) {
		return "", ErrInvalidCustomID
	}

	existing, err := s.repo.FindByID(ctx, customID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customID, nil
		}
		return "", fmt.Errorf("look up custom id: %w", err)
	}

	if !existing.IsExpired(s.now().UTC()) {
		return "", ErrIDConflict
	}

	// The previous holder is expired: sweep it and reuse the id.
	s.sweepExpired(ctx, existing)
	return customID, nil
}

func (s *documentService) Retrieve(ctx context.Context, id, password string) (*DocumentContent, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id))

	if id == "" {
		return nil, ErrNotFound
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("look up document: %w", err)
	}

	if doc.IsExpired(s.now().UTC()) {
		s.sweepExpired(ctx, doc)
		return nil, ErrExpired
	}

	if doc.HasPassword() {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*doc.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidPassword
		}
	}

	rc, err := s.store.Get(ctx, doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("read content blob: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read content blob: %w", err)
	}

	return &DocumentContent{
		Content:     string(content),
		CreatedAt:   doc.CreatedAt,
		ExpiresAt:   doc.ExpiresAt,
		HasPassword: doc.HasPassword(),
	}, nil
}

// sweepExpired removes an expired document's blob and metadata row.
// Failures are logged and swallowed: cleanup must never block the operation
// that discovered the expiration.
func (s *documentService) sweepExpired(ctx context.Context, doc *model.Document) {
	if err := s.store.Delete(ctx, doc.Filename); err != nil {
		slog.Warn("could not delete expired content blob",
			"id", doc.ID,
			"filename", doc.Filename,
			"error", err,
		)
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		slog.Warn("could not delete expired metadata row",
			"id", doc.ID,
			"error", err,
		)
	}
}

// generateFilename builds the content blob name:
// {8-char token}-{yyyymmdd}-{hhmmss}.md. The random token makes collisions
// negligible; the timestamp is for human traceability only.
func generateFilename(now time.Time) (string, error) {
	token, err := generateToken(filenameTokenLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s.md", token, now.Format("20060102"), now.Format("150405")), nil
}

// idAlphabet covers the same characters custom ids allow.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// generateToken produces a cryptographically secure random string over
// idAlphabet.
func generateToken(length int) (string, error) {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = idAlphabet[n.Int64()]
	}
	return string(result), nil
}
