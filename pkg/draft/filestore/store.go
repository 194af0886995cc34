// Package filestore keeps one JSON file per draft key inside a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formdraft/pkg/draft"
)

const fileExt = ".json"

// Store is a draft.Store writing to dir.
type Store struct {
	mu  sync.RWMutex
	dir string
}

var (
	_ draft.Store  = (*Store)(nil)
	_ draft.Lister = (*Store)(nil)
)

// New returns a Store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("filestore: directory is required")
	}
	return &Store{dir: filepath.Clean(dir)}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExt)
}

// GetItem reads the file for key.
func (s *Store) GetItem(ctx context.Context, key string) (draft.Draft, bool, error) {
	if err := ctx.Err(); err != nil {
		return draft.Draft{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pathFor(key))
	if errors.Is(err, fs.ErrNotExist) {
		return draft.Draft{}, false, nil
	}
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("filestore: read %q: %w", key, err)
	}
	d, err := draft.Decode(data)
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("filestore: %q: %w", key, err)
	}
	return d, true, nil
}

// SetItem writes the record for key through a temp file and rename so a
// crash never leaves a half-written draft behind.
func (s *Store) SetItem(ctx context.Context, key string, d draft.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := draft.ValidateKey(key); err != nil {
		return err
	}
	data, err := draft.Encode(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("filestore: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".draft-*")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.pathFor(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore: rename %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes the file for key.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: remove %q: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: list: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
