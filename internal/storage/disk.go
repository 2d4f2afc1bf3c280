package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DiskStore keeps image files under a base directory, one file per key.
type DiskStore struct {
	// BasePath is a directory writable by the current process.
	BasePath  string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStore(basePath string) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskStore{
		BasePath: basePath,
		dirs:     make(map[string]bool, 10),
	}, nil
}

func (s *DiskStore) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStore) fullPath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.BasePath, clean), nil
}

// PutObject writes data to a temp file in the target directory and renames it into place.
func (s *DiskStore) PutObject(_ context.Context, key string, data []byte, _ string) error {
	fileName, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fileName), ".upload-*")
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), fileName); err != nil {
		return fmt.Errorf("rename object %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) GetObject(_ context.Context, key string) ([]byte, error) {
	fileName, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// DeleteObject removes the file for key. Deleting a missing key is not an error.
func (s *DiskStore) DeleteObject(_ context.Context, key string) error {
	fileName, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.BasePath)
	return err
}
