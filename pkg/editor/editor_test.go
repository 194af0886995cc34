package editor_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/recovery"
	"github.com/goliatone/go-formdraft/pkg/testsupport"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

const editorID = "editor"

var testSchema = widget.MustParseSchema(`{
  "type": "object",
  "properties": {
    "x": {"type": "number"},
    "a": {"type": "number"},
    "name": {"type": "string", "minLength": 3},
    "address": {"type": "object", "properties": {"city": {"type": "string"}}}
  }
}`)

type fixture struct {
	store    *draft.MemoryStore
	dialog   *testsupport.ScriptedDialog
	factory  *widget.FormFactory
	mounts   *widget.MountTable
	notifier *testsupport.RecordingNotifier
	manager  *editor.Manager
}

func newFixture(t *testing.T, choices []recovery.Choice, extra ...editor.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:    draft.NewMemoryStore(),
		dialog:   testsupport.NewScriptedDialog(choices...),
		factory:  &widget.FormFactory{},
		mounts:   widget.NewMountTable(widget.NewMemoryMount(editorID)),
		notifier: &testsupport.RecordingNotifier{},
	}
	options := append([]editor.Option{
		editor.WithStore(f.store),
		editor.WithFactory(f.factory),
		editor.WithMounts(f.mounts),
		editor.WithRecoverer(recovery.New(recovery.WithDialog(f.dialog))),
		editor.WithNotifier(f.notifier),
		editor.WithClock(testsupport.FixedClock(200)),
	}, extra...)
	f.manager = editor.New(options...)
	t.Cleanup(func() { _ = f.manager.Close() })
	return f
}

func (f *fixture) seed(t *testing.T, timestamp int64, data any) {
	t.Helper()
	err := f.store.SetItem(context.Background(), draft.Key(editorID, "item"), draft.Draft{
		Type:      draft.TypeDraft,
		Timestamp: timestamp,
		Data:      data,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) stored(t *testing.T) (draft.Draft, bool) {
	t.Helper()
	d, ok, err := f.store.GetItem(context.Background(), draft.Key(editorID, "item"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return d, ok
}

func (f *fixture) mount(t *testing.T, dbTime int64, start any) *editor.Session {
	t.Helper()
	s, err := f.manager.Mount(context.Background(), editor.Options{
		ID:          editorID,
		Schema:      testSchema,
		StartValue:  start,
		DraftItemID: "item",
		DBTimestamp: dbTime,
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if s == nil {
		t.Fatal("expected a session")
	}
	return s
}

func TestScenarioRestore(t *testing.T) {
	f := newFixture(t, []recovery.Choice{recovery.ChoicePreview, recovery.ChoiceRestore})
	f.seed(t, 150, map[string]any{"x": 1.0})

	s := f.mount(t, 100, map[string]any{"x": 2.0})
	testsupport.Settle(t, s)

	if len(f.dialog.Prompts()) == 0 {
		t.Fatal("expected the recovery prompt")
	}
	if len(f.dialog.Diffs()) != 1 || f.dialog.Diffs()[0] == "" {
		t.Fatalf("expected a non-empty diff preview, got %q", f.dialog.Diffs())
	}
	if s.Outcome() != recovery.OutcomeRestored {
		t.Fatalf("expected restored, got %q", s.Outcome())
	}
	testsupport.AssertEqual(t, map[string]any{"x": 1.0}, s.Value(), "session value")
	if s.Locked() {
		t.Fatal("expected gate released")
	}

	f.manager.SetValue(editorID, map[string]any{"x": 5.0})
	got, _ := f.stored(t)
	testsupport.AssertEqual(t, draft.Draft{Type: draft.TypeDraft, Timestamp: 200, Data: map[string]any{"x": 5.0}}, got, "stored draft")
}

func TestScenarioCancel(t *testing.T) {
	f := newFixture(t, []recovery.Choice{recovery.ChoiceCancel})
	f.seed(t, 150, map[string]any{"x": 1.0})

	s := f.mount(t, 100, map[string]any{"x": 2.0})
	testsupport.Settle(t, s)

	if s.Outcome() != recovery.OutcomeCancelled {
		t.Fatalf("expected cancelled, got %q", s.Outcome())
	}
	testsupport.AssertEqual(t, map[string]any{"x": 2.0}, s.Value(), "session value")

	got, ok := f.stored(t)
	if !ok || got.Timestamp != 150 {
		t.Fatalf("expected the stale draft to be left in place, got %+v", got)
	}

	f.manager.SetValue(editorID, map[string]any{"x": 7.0})
	got, _ = f.stored(t)
	testsupport.AssertEqual(t, map[string]any{"x": 7.0}, got.Data, "stored data")
}

func TestPromptOnlyForStrictlyNewerDraft(t *testing.T) {
	tests := []struct {
		name       string
		draftTime  int64
		dbTime     int64
		wantPrompt bool
	}{
		{name: "equal timestamps", draftTime: 150, dbTime: 150, wantPrompt: false},
		{name: "older draft", draftTime: 99, dbTime: 100, wantPrompt: false},
		{name: "one second newer", draftTime: 151, dbTime: 150, wantPrompt: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(t, tc.draftTime, map[string]any{"x": 1.0})

			s := f.mount(t, tc.dbTime, map[string]any{"x": 2.0})
			testsupport.Settle(t, s)

			if got := len(f.dialog.Prompts()) > 0; got != tc.wantPrompt {
				t.Fatalf("prompt shown = %v, want %v", got, tc.wantPrompt)
			}
			if got := s.Detection().MoreRecent; got != tc.wantPrompt {
				t.Fatalf("more recent = %v, want %v", got, tc.wantPrompt)
			}
			if s.Locked() {
				t.Fatal("expected gate released")
			}
		})
	}
}

func TestNoPromptWhenOnlyNumberTypesDiffer(t *testing.T) {
	f := newFixture(t, []recovery.Choice{recovery.ChoiceCancel})
	f.seed(t, 150, map[string]any{"x": 2.0})

	s := f.mount(t, 100, map[string]any{"x": 2})
	testsupport.Settle(t, s)

	if len(f.dialog.Prompts()) != 0 {
		t.Fatalf("expected no prompt, got %d", len(f.dialog.Prompts()))
	}
	if s.Outcome() != recovery.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %q", s.Outcome())
	}
}

func TestNoPromptForForeignRecord(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.SetItem(context.Background(), draft.Key(editorID, "item"), draft.Draft{Type: "other", Timestamp: 500}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := f.mount(t, 100, map[string]any{"x": 2.0})
	testsupport.Settle(t, s)

	if len(f.dialog.Prompts()) != 0 || s.Detection().Found {
		t.Fatal("expected a non-draft record to be ignored")
	}
}

func TestLockedGateDropsWrites(t *testing.T) {
	f := newFixture(t, nil)
	f.factory.DeferReady = true
	f.seed(t, 50, map[string]any{"x": 1.0})

	s := f.mount(t, 100, map[string]any{"x": 2.0})
	for i := 0; i < 5; i++ {
		f.manager.SetValue(editorID, map[string]any{"x": float64(10 + i)})
	}
	if !s.Locked() {
		t.Fatal("expected gate locked before ready")
	}
	got, _ := f.stored(t)
	testsupport.AssertEqual(t, draft.Draft{Type: draft.TypeDraft, Timestamp: 50, Data: map[string]any{"x": 1.0}}, got, "stored draft while locked")

	f.factory.Last().MarkReady()
	testsupport.Settle(t, s)
	testsupport.Wait(t, s.Gate().Done(), "gate release")

	f.manager.SetValue(editorID, map[string]any{"x": 99.0})
	got, _ = f.stored(t)
	testsupport.AssertEqual(t, map[string]any{"x": 99.0}, got.Data, "stored data after release")
}

func TestLastWriteWins(t *testing.T) {
	f := newFixture(t, nil)
	s := f.mount(t, 100, map[string]any{})
	testsupport.Settle(t, s)

	for _, v := range []float64{1, 2, 3} {
		f.manager.SetValue(editorID, map[string]any{"a": v})
	}
	got, ok := f.stored(t)
	if !ok {
		t.Fatal("expected a stored draft")
	}
	testsupport.AssertEqual(t, map[string]any{"a": 3.0}, got.Data, "stored data")
}

func TestAutosaveRequiresItemAndTimestamp(t *testing.T) {
	f := newFixture(t, nil)
	s, err := f.manager.Mount(context.Background(), editor.Options{
		ID:          editorID,
		Schema:      testSchema,
		DraftItemID: "item",
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	testsupport.Settle(t, s)
	if s.DraftKey() != "" {
		t.Fatalf("expected autosave disabled, got key %q", s.DraftKey())
	}
	f.manager.SetValue(editorID, map[string]any{"x": 1.0})
	if f.store.Len() != 0 {
		t.Fatal("expected nothing stored")
	}
}

func TestStoreFailureReleasesGate(t *testing.T) {
	store := testsupport.NewFailingStore()
	var (
		mu   sync.Mutex
		errs []error
	)
	f := newFixture(t, nil,
		editor.WithStore(store),
		editor.WithErrorHandler(func(id string, err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		}),
	)

	s := f.mount(t, 100, map[string]any{"x": 2.0})
	testsupport.Settle(t, s)

	if s.Locked() {
		t.Fatal("expected gate released after a storage failure")
	}
	if !errors.Is(s.Err(), testsupport.ErrStoreUnavailable) {
		t.Fatalf("expected storage error on the session, got %v", s.Err())
	}
	mu.Lock()
	count := len(errs)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected the error handler to be called once, got %d", count)
	}

	store.GetErr = nil
	f.manager.SetValue(editorID, map[string]any{"x": 3.0})
	if store.SetCalls() != 1 {
		t.Fatalf("expected autosave after failure, got %d writes", store.SetCalls())
	}
}

func TestMissingMountTarget(t *testing.T) {
	f := newFixture(t, nil)
	s, err := f.manager.Mount(context.Background(), editor.Options{ID: "nowhere", Schema: testSchema})
	if err != nil || s != nil {
		t.Fatalf("expected nil session and nil error, got %v, %v", s, err)
	}
	if f.manager.Registry().Len() != 0 {
		t.Fatal("expected nothing registered")
	}
}

func TestMountValidatesID(t *testing.T) {
	f := newFixture(t, nil)
	for _, id := range []string{"", "a@b"} {
		if _, err := f.manager.Mount(context.Background(), editor.Options{ID: id}); !errors.Is(err, editor.ErrInvalidID) {
			t.Fatalf("id %q: expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestRemountDestroysPreviousSession(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mount(t, 100, map[string]any{"x": 1.0})
	testsupport.Settle(t, first)
	firstForm := f.factory.Last()

	second := f.mount(t, 100, map[string]any{"x": 2.0})
	testsupport.Settle(t, second)

	if first.State() != editor.StateDestroyed || !firstForm.Destroyed() {
		t.Fatal("expected the previous session and widget destroyed")
	}
	if first.InstanceID() == second.InstanceID() {
		t.Fatal("expected a new instance id")
	}
	got, ok := f.manager.Lookup(editorID)
	if !ok || got != second {
		t.Fatal("expected the new session registered")
	}
	if f.manager.Registry().Len() != 1 {
		t.Fatalf("expected one session, got %d", f.manager.Registry().Len())
	}
}

func TestDestroy(t *testing.T) {
	f := newFixture(t, nil)
	s := f.mount(t, 100, map[string]any{"x": 1.0})
	testsupport.Settle(t, s)

	if !f.manager.Destroy(editorID) {
		t.Fatal("expected destroy to find the session")
	}
	if s.State() != editor.StateDestroyed {
		t.Fatalf("expected destroyed, got %s", s.State())
	}
	if f.manager.SetValue(editorID, map[string]any{"x": 2.0}) {
		t.Fatal("expected SetValue to be a no-op without a session")
	}
	if _, ok := f.manager.GetValue(editorID); ok {
		t.Fatal("expected no value without a session")
	}
	s.Destroy()
}

func TestDiscardDraft(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, 10, map[string]any{"x": 1.0})

	if err := f.manager.DiscardDraft(context.Background(), editorID, "item"); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok := f.stored(t); ok {
		t.Fatal("expected the draft to be gone")
	}
	if err := f.manager.DiscardDraft(context.Background(), editorID, ""); !errors.Is(err, draft.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNotifications(t *testing.T) {
	f := newFixture(t, nil)
	s, err := f.manager.Mount(context.Background(), editor.Options{
		ID:               editorID,
		Schema:           testSchema,
		StartValue:       map[string]any{"name": "Ada"},
		ValuesOnChange:   true,
		ValidateOnChange: true,
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	testsupport.Settle(t, s)

	f.manager.SetValue(editorID, map[string]any{"name": "Al"})

	kinds := f.notifier.Kinds()
	want := []editor.Kind{editor.KindReady, editor.KindIssues, editor.KindValues}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("notification kinds mismatch (-want +got):\n%s", diff)
	}

	all := f.notifier.All()
	if all[0].Name() != "editor_ready" || all[0].InstanceID != s.InstanceID() {
		t.Fatalf("unexpected ready notification %+v", all[0])
	}
	issues, ok := all[1].Data.([]widget.Issue)
	if !ok || len(issues) != 1 || issues[0].Path != "root.name" {
		t.Fatalf("unexpected issues %+v", all[1].Data)
	}
	if all[2].Event != editor.EventChange {
		t.Fatalf("expected change event, got %q", all[2].Event)
	}

	n, ok := f.manager.ReportValues(context.Background(), editorID, editor.EventRequest)
	if !ok || n.Kind != editor.KindValues || n.Event != editor.EventRequest {
		t.Fatalf("unexpected report %+v", n)
	}
	testsupport.AssertEqual(t, map[string]any{"name": "Al"}, n.Data, "reported values")

	v, ok := f.manager.ReportValidation(context.Background(), editorID, editor.EventRequest)
	if !ok || len(v.Data.([]widget.Issue)) != 1 {
		t.Fatalf("unexpected validation report %+v", v)
	}
	if _, ok := f.manager.ReportValues(context.Background(), "missing", editor.EventRequest); ok {
		t.Fatal("expected no report for a missing editor")
	}
}

func TestMarkErrorsOnChange(t *testing.T) {
	f := newFixture(t, nil)
	s, err := f.manager.Mount(context.Background(), editor.Options{
		ID:                 editorID,
		Schema:             testSchema,
		StartValue:         map[string]any{},
		MarkErrorsOnChange: true,
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	testsupport.Settle(t, s)

	f.manager.SetValue(editorID, map[string]any{"address": map[string]any{"city": 3.0}})
	mount, _ := f.mounts.Resolve(editorID)
	got := mount.(*widget.MemoryMount).Marked()
	testsupport.AssertEqual(t, []string{"root", "root.address", "root.address.city"}, got, "marked paths")

	f.manager.SetValue(editorID, map[string]any{"address": map[string]any{"city": "Paris"}})
	if marked := mount.(*widget.MemoryMount).Marked(); len(marked) != 0 {
		t.Fatalf("expected marks cleared, got %v", marked)
	}
}

func TestSizeAdvisory(t *testing.T) {
	var (
		mu         sync.Mutex
		advisories []editor.Advisory
	)
	f := newFixture(t, nil,
		editor.WithMaxBytes(10),
		editor.WithAdvisor(editor.AdvisorFunc(func(_ context.Context, a editor.Advisory) {
			mu.Lock()
			defer mu.Unlock()
			advisories = append(advisories, a)
		})),
	)
	s := f.mount(t, 100, map[string]any{})
	testsupport.Settle(t, s)

	f.manager.SetValue(editorID, map[string]any{"name": "a rather long value"})
	s.WaitSizeChecks()

	mu.Lock()
	defer mu.Unlock()
	if len(advisories) != 1 {
		t.Fatalf("expected one advisory, got %d", len(advisories))
	}
	if advisories[0].Max != 10 || advisories[0].Size <= 10 || advisories[0].Message == "" {
		t.Fatalf("unexpected advisory %+v", advisories[0])
	}

	got, _ := f.stored(t)
	testsupport.AssertEqual(t, map[string]any{"name": "a rather long value"}, got.Data, "autosave despite advisory")
}

func TestCloseRejectsMount(t *testing.T) {
	f := newFixture(t, nil)
	s := f.mount(t, 100, map[string]any{})
	testsupport.Settle(t, s)

	if err := f.manager.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.State() != editor.StateDestroyed {
		t.Fatal("expected sessions destroyed on close")
	}
	if _, err := f.manager.Mount(context.Background(), editor.Options{ID: editorID}); !errors.Is(err, editor.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
