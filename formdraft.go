// Package formdraft wires the draft autosave layer: stores, the editor manager
// and single-editor helpers.
package formdraft

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formdraft/internal/compression"
	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/draft/filestore"
	"github.com/goliatone/go-formdraft/pkg/draft/sqlitestore"
	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

// Store drivers accepted by OpenStore.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Options describes one editor mount; alias exported via the root package
// for convenience.
type Options = editor.Options

// Draft is the persisted autosave record.
type Draft = draft.Draft

// Session is a mounted editor.
type Session = editor.Session

// StoreConfig selects and configures a draft store.
type StoreConfig struct {
	Driver   string
	Path     string
	Compress bool
}

// NewManager exposes the editor manager constructor from the top-level
// module.
func NewManager(options ...editor.Option) *editor.Manager {
	return editor.New(options...)
}

// OpenStore opens the store named by cfg.Driver. The returned close function
// is never nil.
func OpenStore(ctx context.Context, cfg StoreConfig) (draft.Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory, "":
		return draft.NewMemoryStore(), noop, nil
	case DriverFile:
		store, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case DriverSQLite:
		if cfg.Path != "" && !strings.HasPrefix(cfg.Path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, noop, fmt.Errorf("formdraft: create store dir: %w", err)
			}
		}
		var opts []sqlitestore.Option
		if cfg.Compress {
			opts = append(opts, sqlitestore.WithCompressor(compression.Zstd{}))
		} else {
			opts = append(opts, sqlitestore.WithoutCompression())
		}
		store, err := sqlitestore.Open(ctx, cfg.Path, opts...)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("formdraft: unknown store driver %q", cfg.Driver)
	}
}

// MountOne builds a manager with a single in-memory mount target named
// opts.ID and mounts the editor into it.
func MountOne(ctx context.Context, opts Options, options ...editor.Option) (*editor.Manager, *editor.Session, error) {
	mounts := widget.NewMountTable(widget.NewMemoryMount(opts.ID))
	manager := editor.New(append([]editor.Option{editor.WithMounts(mounts)}, options...)...)
	session, err := manager.Mount(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return manager, session, nil
}
