package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/draft/filestore"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "drafts")
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	keys, err := store.Keys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected no keys before first write, got %v (%v)", keys, err)
	}

	key := draft.Key("views/editor", "item 1")
	want := draft.Draft{Type: draft.TypeDraft, Timestamp: 99, Data: []any{"a", 2.0}}
	if err := store.SetItem(ctx, key, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.GetItem(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}

	keys, err = store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if diff := cmp.Diff([]string{key}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected one file without temp leftovers, got %d", len(entries))
	}

	if err := store.RemoveItem(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.GetItem(ctx, key); ok {
		t.Fatal("expected key to be absent after removal")
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := filestore.New("  "); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
