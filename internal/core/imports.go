package core

// imports.go implements the preview-then-commit bulk import flow.
//
// PreviewImport parses and normalizes a spreadsheet and parks the accepted
// drafts in a session keyed by a UUID. The admin reviews the accepted count
// and the rejection list, then commits or discards. Sessions expire after
// sessionTTL; StartSessionSweeper removes expired ones in the background.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/importer"
	"github.com/albaseet/catalog/internal/logging"
)

// Import session stages reported to metrics.
const (
	StagePreviewed = "previewed"
	StageCommitted = "committed"
	StageDiscarded = "discarded"
	StageExpired   = "expired"
	StageFailed    = "failed"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrImportNotFound  = errors.New("import not found")
	ErrNothingToImport = errors.New("import has no accepted rows")
)

// ImportPreview is what the admin reviews before committing.
type ImportPreview struct {
	ID            string               `json:"importId"`
	FileName      string               `json:"fileName"`
	Format        importer.Format      `json:"format"`
	AcceptedCount int                  `json:"acceptedCount"`
	Accepted      []catalog.Draft      `json:"accepted"`
	Rejected      []importer.Rejection `json:"rejected"`
	Skipped       int                  `json:"skipped"`
	ExpiresAt     time.Time            `json:"expiresAt"`
}

// ImportCommit reports the products created by a commit.
type ImportCommit struct {
	ID       string            `json:"importId"`
	Inserted int               `json:"inserted"`
	Products []catalog.Product `json:"products"`
}

type importSession struct {
	preview ImportPreview
}

// PreviewImport parses an uploaded spreadsheet and opens an import session.
// size is the declared upload size, or -1 when unknown.
func (s *Service) PreviewImport(ctx context.Context, fileName string, r io.Reader, size int64) (*ImportPreview, error) {
	if r == nil || fileName == "" {
		return nil, ErrNoFile
	}
	if size > s.maxFileSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", fileName, size, ErrFileTooLarge)
	}
	format, err := importer.DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	id := uuid.NewString()
	log := logging.WithImport(ctx, id, fileName)
	start := time.Now()

	rows, err := importer.ParseFile(&sizeGuard{r: r, max: s.maxFileSize}, format)
	if err != nil {
		s.metrics.ObserveImport(StageFailed)
		log.Warn("import parse failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := s.normalizer.Normalize(rows)
	s.metrics.ObserveImportRows(len(res.Accepted), len(res.Rejected), res.Skipped)

	preview := ImportPreview{
		ID:            id,
		FileName:      fileName,
		Format:        format,
		AcceptedCount: len(res.Accepted),
		Accepted:      res.Accepted,
		Rejected:      res.Rejected,
		Skipped:       res.Skipped,
		ExpiresAt:     s.now().Add(s.sessionTTL),
	}

	s.sessionsMu.Lock()
	s.sessions[id] = &importSession{preview: preview}
	s.sessionsMu.Unlock()

	s.metrics.ObserveImport(StagePreviewed)
	log.Info("import previewed",
		"rows", len(rows),
		"accepted", preview.AcceptedCount,
		"rejected", len(preview.Rejected),
		"skipped", preview.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &preview, nil
}

// GetImport returns an open import session.
func (s *Service) GetImport(id string) (*ImportPreview, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.liveSession(id)
	if !ok {
		return nil, fmt.Errorf("import %s: %w", id, ErrImportNotFound)
	}
	preview := sess.preview
	return &preview, nil
}

// CommitImport stores the accepted drafts of a session as new products.
// Rejected rows never block the commit. If the write fails the session is
// kept so the commit can be retried.
func (s *Service) CommitImport(ctx context.Context, id string) (*ImportCommit, error) {
	s.sessionsMu.Lock()
	sess, ok := s.liveSession(id)
	if ok {
		delete(s.sessions, id)
	}
	s.sessionsMu.Unlock()

	if !ok {
		return nil, fmt.Errorf("commit import %s: %w", id, ErrImportNotFound)
	}
	if len(sess.preview.Accepted) == 0 {
		s.metrics.ObserveImport(StageDiscarded)
		return nil, fmt.Errorf("commit import %s: %w", id, ErrNothingToImport)
	}

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	log := logging.WithImport(ctx, id, sess.preview.FileName)
	created, err := s.BulkCreate(ctx, sess.preview.Accepted)
	if err != nil {
		s.sessionsMu.Lock()
		s.sessions[id] = sess
		s.sessionsMu.Unlock()

		s.metrics.ObserveImport(StageFailed)
		log.Error("import commit failed", "error", err)
		return nil, fmt.Errorf("commit import %s: %w", id, err)
	}

	s.metrics.ObserveImport(StageCommitted)
	log.Info("import committed", "inserted", len(created))
	return &ImportCommit{ID: id, Inserted: len(created), Products: created}, nil
}

// DiscardImport drops an import session without writing anything.
func (s *Service) DiscardImport(id string) error {
	s.sessionsMu.Lock()
	_, ok := s.liveSession(id)
	delete(s.sessions, id)
	s.sessionsMu.Unlock()

	if !ok {
		return fmt.Errorf("discard import %s: %w", id, ErrImportNotFound)
	}
	s.metrics.ObserveImport(StageDiscarded)
	return nil
}

// liveSession requires sessionsMu. Expired sessions are removed on sight.
func (s *Service) liveSession(id string) (*importSession, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.preview.ExpiresAt) {
		delete(s.sessions, id)
		s.metrics.ObserveImport(StageExpired)
		return nil, false
	}
	return sess, true
}

func (s *Service) pendingImports() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// SweepImports removes expired sessions and returns how many were dropped.
func (s *Service) SweepImports() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.preview.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	for range removed {
		s.metrics.ObserveImport(StageExpired)
	}
	return removed
}

// StartSessionSweeper removes expired import sessions every interval until
// ctx is cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.sessionTTL / 2
	}
	slog.Info("import session sweeper started", "interval", interval, "session_ttl", s.sessionTTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("import session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.SweepImports(); n > 0 {
				slog.Info("expired import sessions removed", "count", n)
			}
		}
	}
}

// sizeGuard fails every read once more than max bytes have been seen.
type sizeGuard struct {
	r    io.Reader
	max  int64
	read int64
}

func (g *sizeGuard) Read(p []byte) (int, error) {
	if g.read > g.max {
		return 0, ErrFileTooLarge
	}
	n, err := g.r.Read(p)
	g.read += int64(n)
	if g.read > g.max {
		return n, ErrFileTooLarge
	}
	return n, err
}
