package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/recovery"
)

// ErrStoreUnavailable is the default error returned by FailingStore.
var ErrStoreUnavailable = errors.New("testsupport: store unavailable")

// MustJSON decodes a JSON literal into a generic document.
func MustJSON(t *testing.T, raw string) any {
	t.Helper()

	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return out
}

// LoadJSON reads a JSON fixture file into a generic document.
func LoadJSON(t *testing.T, path string) any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return MustJSON(t, string(data))
}

// AssertEqual fails the test with a go-cmp diff when want and got differ.
func AssertEqual(t *testing.T, want, got any, what string) {
	t.Helper()

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", what, diff)
	}
}

// Wait blocks until ch is closed or the timeout expires.
func Wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// Settle waits until a session has finished its ready handling.
func Settle(t *testing.T, s *editor.Session) {
	t.Helper()

	if s == nil {
		t.Fatal("session is nil")
	}
	Wait(t, s.Settled(), "session "+s.ID()+" to settle")
}

// ScriptedDialog answers recovery prompts from a queue. Once the queue is
// empty every prompt is cancelled.
type ScriptedDialog struct {
	mu      sync.Mutex
	choices []recovery.Choice
	prompts []recovery.Prompt
	diffs   []string
	closed  int
}

var _ recovery.Dialog = (*ScriptedDialog)(nil)

// NewScriptedDialog queues choices.
func NewScriptedDialog(choices ...recovery.Choice) *ScriptedDialog {
	return &ScriptedDialog{choices: choices}
}

func (d *ScriptedDialog) Choose(ctx context.Context, p recovery.Prompt) (recovery.Choice, error) {
	if err := ctx.Err(); err != nil {
		return recovery.ChoiceCancel, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts = append(d.prompts, p)
	if len(d.choices) == 0 {
		return recovery.ChoiceCancel, nil
	}
	choice := d.choices[0]
	d.choices = d.choices[1:]
	return choice, nil
}

func (d *ScriptedDialog) ShowDiff(_ context.Context, _ string, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diffs = append(d.diffs, markup)
	return nil
}

func (d *ScriptedDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
}

// Prompts returns every prompt shown.
func (d *ScriptedDialog) Prompts() []recovery.Prompt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]recovery.Prompt(nil), d.prompts...)
}

// Diffs returns every diff shown.
func (d *ScriptedDialog) Diffs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.diffs...)
}

// Closed returns how many times the dialog was closed.
func (d *ScriptedDialog) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []editor.Notification
	Err           error
}

var _ editor.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) Notify(_ context.Context, note editor.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, note)
	return n.Err
}

// All returns the notifications received so far.
func (n *RecordingNotifier) All() []editor.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]editor.Notification(nil), n.notifications...)
}

// Kinds returns the kinds of the notifications received so far.
func (n *RecordingNotifier) Kinds() []editor.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]editor.Kind, 0, len(n.notifications))
	for _, note := range n.notifications {
		out = append(out, note.Kind)
	}
	return out
}

// FailingStore wraps a MemoryStore and fails the operations whose error
// field is set.
type FailingStore struct {
	*draft.MemoryStore

	mu        sync.Mutex
	GetErr    error
	SetErr    error
	RemoveErr error
	sets      int
}

var _ draft.Store = (*FailingStore)(nil)

// NewFailingStore returns a store failing reads with ErrStoreUnavailable.
func NewFailingStore() *FailingStore {
	return &FailingStore{MemoryStore: draft.NewMemoryStore(), GetErr: ErrStoreUnavailable}
}

func (s *FailingStore) GetItem(ctx context.Context, key string) (draft.Draft, bool, error) {
	s.mu.Lock()
	err := s.GetErr
	s.mu.Unlock()
	if err != nil {
		return draft.Draft{}, false, err
	}
	return s.MemoryStore.GetItem(ctx, key)
}

func (s *FailingStore) SetItem(ctx context.Context, key string, d draft.Draft) error {
	s.mu.Lock()
	s.sets++
	err := s.SetErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.SetItem(ctx, key, d)
}

func (s *FailingStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	err := s.RemoveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.RemoveItem(ctx, key)
}

// SetCalls returns how many writes were attempted.
func (s *FailingStore) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// Target records values set by a recovery flow.
type Target struct {
	mu     sync.Mutex
	values []any
}

var _ recovery.Target = (*Target)(nil)

func (t *Target) SetValue(value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = append(t.values, value)
}

// Values returns every value set.
func (t *Target) Values() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]any(nil), t.values...)
}

// FixedClock returns a clock function stuck at unix seconds.
func FixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}
