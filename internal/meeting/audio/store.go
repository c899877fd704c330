// Package audio stores uploaded meeting recordings.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultExt = ".wav"

// FileStore writes recordings into a single directory under generated names.
// A file only becomes visible under its final name once it is fully written.
type FileStore struct {
	dir   string
	idGen func() uuid.UUID
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("audio dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &FileStore{dir: dir, idGen: uuid.New}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Save writes data and returns its locator, the path of the stored file.
func (s *FileStore) Save(ctx context.Context, data []byte, filenameHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.idGen().String() + extension(filenameHint)
	final := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close audio: %w", err)
	}

	if _, err := os.Stat(final); err == nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("audio locator collision: %s", name)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publish audio: %w", err)
	}

	return final, nil
}

// extension keeps a short alphanumeric extension from the hint, falling back
// to .wav like the upload form did.
func extension(hint string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(hint)))
	if len(ext) < 2 || len(ext) > 10 {
		return defaultExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExt
		}
	}
	return ext
}
