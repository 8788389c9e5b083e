package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileStore implements Store on the local file system.
type fileStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a store rooted at dir whose objects are served under baseURL.
func NewFileStore(dir, baseURL string, logger zerolog.Logger) Store {
	return &fileStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "file-store").Logger(),
	}
}

// Put writes body to dir/key, creating parent directories as needed.
func (s *fileStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, clean)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create upload directory")
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create file")
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write file")
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}

	s.logger.Info().
		Str("path", path).
		Str("content_type", contentType).
		Int64("bytes", written).
		Msg("file stored")

	return s.baseURL + filepath.ToSlash(clean), nil
}
