package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// FilesystemStore implements Store by writing one file per key under a base
// directory. Writes go through a temp file and an atomic rename so a crash
// mid-write never leaves a truncated blob behind.
type FilesystemStore struct {
	baseDir string
}

// NewFilesystemStore creates a store rooted at the provided base directory.
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if baseDir == "" {
		baseDir = "data"
	}
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

func (s *FilesystemStore) path(key string) string {
	name := keySanitizer.ReplaceAllString(key, "_")
	return filepath.Join(s.baseDir, name+".json")
}

// Load returns the blob stored under key, or found=false when the key has
// never been written.
func (s *FilesystemStore) Load(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, true, nil
}

// Save replaces the blob under key via temp file plus rename.
func (s *FilesystemStore) Save(key string, blob []byte) error {
	final := s.path(key)
	tmp := filepath.Join(s.baseDir, fmt.Sprintf("tmp-%d", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename blob %s: %w", key, err)
	}
	return nil
}
