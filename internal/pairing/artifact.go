// Package pairing manages per-session pairing artifacts: the QR images a
// user scans to link a messaging account. Each artifact is owned by exactly
// one session and its path is derived from the session id, so sessions can
// never interfere with each other's files.
package pairing

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/domain"
)

const qrSize = 300

// Store renders and tracks pairing artifacts under a data directory.
type Store struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	paths map[string]string
}

// NewStore creates the data directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pairing dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		paths:  make(map[string]string),
	}, nil
}

// Write renders payload as a QR PNG for the session, replacing any prior
// artifact for the same session.
func (s *Store) Write(sessionID, payload string) error {
	path := filepath.Join(s.dir, fmt.Sprintf("qr-%s.png", sessionID))
	if err := qrcode.WriteFile(payload, qrcode.Medium, qrSize, path); err != nil {
		return fmt.Errorf("failed to render pairing artifact: %w", err)
	}

	s.mu.Lock()
	s.paths[sessionID] = path
	s.mu.Unlock()

	s.logger.Info("pairing artifact written", zap.String("session_id", sessionID))
	return nil
}

// Path returns the artifact file path for the session, or
// domain.ErrArtifactNotFound if none exists (never emitted or already
// consumed).
func (s *Store) Path(sessionID string) (string, error) {
	s.mu.Lock()
	path, ok := s.paths[sessionID]
	s.mu.Unlock()

	if !ok {
		return "", domain.ErrArtifactNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return "", domain.ErrArtifactNotFound
	}
	return path, nil
}

// Remove deletes the session's artifact if present. Called on both
// connection-ready and disconnect.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	path, ok := s.paths[sessionID]
	delete(s.paths, sessionID)
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove pairing artifact",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
