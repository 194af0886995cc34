package formdraft_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	formdraft "github.com/goliatone/go-formdraft"
	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

func TestOpenStoreDrivers(t *testing.T) {
	dir := t.TempDir()
	cases := []formdraft.StoreConfig{
		{Driver: formdraft.DriverMemory},
		{Driver: formdraft.DriverFile, Path: filepath.Join(dir, "files")},
		{Driver: formdraft.DriverSQLite, Path: filepath.Join(dir, "nested", "drafts.db"), Compress: true},
		{Driver: formdraft.DriverSQLite, Path: filepath.Join(dir, "plain.db")},
	}

	ctx := context.Background()
	for _, cfg := range cases {
		t.Run(cfg.Driver, func(t *testing.T) {
			store, closeStore, err := formdraft.OpenStore(ctx, cfg)
			if err != nil {
				t.Fatalf("open %s: %v", cfg.Driver, err)
			}
			defer closeStore()

			want := draft.New(map[string]any{"x": 1.0}, time.Unix(150, 0))
			if err := store.SetItem(ctx, "page@42", want); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, ok, err := store.GetItem(ctx, "page@42")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("draft mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, _, err := formdraft.OpenStore(context.Background(), formdraft.StoreConfig{Driver: "redis"}); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestMountOne(t *testing.T) {
	schema := widget.MustParseSchema(`{"type":"object","properties":{"x":{"type":"number"}}}`)
	store := draft.NewMemoryStore()

	manager, session, err := formdraft.MountOne(context.Background(), formdraft.Options{
		ID:          "page",
		Schema:      schema,
		StartValue:  map[string]any{"x": 2.0},
		DraftItemID: "42",
		DBTimestamp: 100,
	}, editor.WithStore(store), editor.WithClock(func() time.Time { return time.Unix(200, 0) }))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer manager.Close()

	select {
	case <-session.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not settle")
	}

	session.SetValue(map[string]any{"x": 3.0})
	got, ok, err := store.GetItem(context.Background(), "page@42")
	if err != nil || !ok {
		t.Fatalf("expected autosaved draft, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(map[string]any{"x": 3.0}, got.Data); diff != "" {
		t.Fatalf("draft data mismatch (-want +got):\n%s", diff)
	}
}
