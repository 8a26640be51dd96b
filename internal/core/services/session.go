package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// Archiver closes a working database and moves it into a directory.
type Archiver interface {
	Archive(dir string) (string, error)
}

// SessionService archives the working database at the end of a run.
type SessionService struct {
	archiver    Archiver
	sessionsDir string
}

// NewSessionService creates a session service archiving into sessionsDir.
func NewSessionService(archiver Archiver, sessionsDir string) *SessionService {
	return &SessionService{archiver: archiver, sessionsDir: sessionsDir}
}

// Archive moves the working database to a timestamped file.
// The store must not be used afterwards.
func (s *SessionService) Archive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.sessionsDir == "" {
		return "", fmt.Errorf("%w: sessions directory not configured", domain.ErrInvalidInput)
	}

	path, err := s.archiver.Archive(s.sessionsDir)
	if err != nil {
		return "", fmt.Errorf("archive session: %w", err)
	}
	logger.Info("Session archived to %s", path)
	return path, nil
}
