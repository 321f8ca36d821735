package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// File stores the pair as a small YAML document. Writes go to a temp file
// in the same directory and are renamed over the target.
type File struct {
	mu   sync.RWMutex
	path string
}

func NewFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("tokenstore: file path is required")
	}
	return &File{path: filepath.Clean(path)}, nil
}

func (f *File) Read(context.Context) (Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	buf, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("tokenstore: read %s: %w", f.path, err)
	}
	var s Session
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return Session{}, fmt.Errorf("tokenstore: parse %s: %w", f.path, err)
	}
	if !s.Valid() {
		return Session{}, nil
	}
	return s, nil
}

func (f *File) Write(_ context.Context, s Session) error {
	if err := checkWrite(s); err != nil {
		return err
	}
	buf, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("tokenstore: encode: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replace(buf)
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore: remove %s: %w", f.path, err)
	}
	return nil
}

func (f *File) replace(buf []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("tokenstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("tokenstore: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("tokenstore: rename: %w", err)
	}
	return nil
}
