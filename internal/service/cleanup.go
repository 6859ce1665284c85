package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/duongtx90/markdown-viewer/internal/repository"
	"github.com/duongtx90/markdown-viewer/internal/storage"
)

// Sweeper periodically removes expired documents from both the metadata
// store and the content store. It is an optional supplement to the lazy
// on-access sweep, which remains the correctness contract: the sweeper only
// bounds storage growth for documents nobody reads anymore.
type Sweeper struct {
	repo     repository.DocumentRepository
	store    storage.Store
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper. Run it with `go sweeper.Run(ctx)`.
func NewSweeper(repo repository.DocumentRepository, store storage.Store, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Run executes sweep cycles until ctx is cancelled. One cycle runs
// immediately on start.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("expiration sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			slog.Info("expiration sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.repo.FindExpired(ctx, s.now().UTC())
	if err != nil {
		slog.Error("failed to query expired documents", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	var cleaned, failed int
	for _, doc := range expired {
		// Blob first; a blob that cannot be deleted keeps its row so the
		// next cycle retries the pair.
		if err := s.store.Delete(ctx, doc.Filename); err != nil {
			slog.Error("failed to delete expired content blob",
				"id", doc.ID,
				"filename", doc.Filename,
				"error", err,
			)
			failed++
			continue
		}
		if err := s.repo.Delete(ctx, doc.ID); err != nil {
			slog.Error("failed to delete expired metadata row",
				"id", doc.ID,
				"error", err,
			)
			failed++
			continue
		}
		cleaned++
	}

	slog.Info("sweep cycle complete",
		"cleaned", cleaned,
		"failed", failed,
		"total_expired", len(expired),
	)
}
