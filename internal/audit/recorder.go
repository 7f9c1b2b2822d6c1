// Package audit records authentication events (register, login, refresh,
// logout) best-effort: a failed write is logged and never surfaced to the
// request that triggered it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront-api/internal/audit/domain"
	auditrepo "storefront-api/internal/audit/repository"
)

// recordTimeout caps a single async write so a slow database cannot pile up goroutines.
const recordTimeout = 5 * time.Second

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// Recorder writes a single audit event. Used by the auth service code paths.
type Recorder interface {
	Record(ctx context.Context, userID int64, action, metadata string)
}

// Logger implements Recorder using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	log         zerolog.Logger
}

// NewLogger returns a Recorder that persists to repo and uses ipExtractor for
// the client IP. repo may be nil; then Record is a no-op. ipExtractor may be
// nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, log zerolog.Logger) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, log: log}
}

// Record writes one audit entry in a goroutine so the caller is not blocked.
// The IP is extracted synchronously; the write uses context.Background() with
// a short timeout so request cancellation does not abort an in-flight entry.
// Errors are logged and dropped.
func (l *Logger) Record(ctx context.Context, userID int64, action, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.repo.Create(writeCtx, entry); err != nil {
			l.log.Warn().Err(err).Str("action", action).Msg("audit: failed to record event")
		}
	}()
}
