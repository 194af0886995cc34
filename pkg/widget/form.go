package widget

import (
	"context"
	"encoding/json"
	"sync"
)

// Form is an in-memory widget. It holds a JSON document, validates it
// against a Schema and notifies subscribers on every SetValue.
type Form struct {
	id     string
	mount  Mount
	schema *Schema
	config map[string]any

	mu        sync.RWMutex
	value     any
	listeners map[int]func()
	nextID    int
	destroyed bool

	ready     chan struct{}
	readyOnce sync.Once
}

var _ Widget = (*Form)(nil)

// NewForm builds a form. The start value is deep-copied. The form reports
// ready immediately unless deferReady is set, in which case MarkReady must
// be called.
func NewForm(spec Spec, deferReady bool) (*Form, error) {
	if spec.Schema == nil {
		return nil, ErrNoSchema
	}
	if spec.Mount == nil {
		return nil, ErrNoMount
	}
	f := &Form{
		id:        spec.ID,
		mount:     spec.Mount,
		schema:    spec.Schema,
		config:    spec.Config,
		value:     cloneValue(spec.StartValue),
		listeners: map[int]func(){},
		ready:     make(chan struct{}),
	}
	f.syncPaths(f.value)
	if !deferReady {
		f.MarkReady()
	}
	return f, nil
}

// ID returns the editor id the form was built for.
func (f *Form) ID() string {
	return f.id
}

// Config returns the merged configuration the form was built with.
func (f *Form) Config() map[string]any {
	return f.config
}

// Schema returns the form schema.
func (f *Form) Schema() *Schema {
	return f.schema
}

// MarkReady closes the ready channel. It is safe to call more than once.
func (f *Form) MarkReady() {
	f.readyOnce.Do(func() { close(f.ready) })
}

func (f *Form) Ready() <-chan struct{} {
	return f.ready
}

func (f *Form) Value() any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneValue(f.value)
}

func (f *Form) SetValue(value any) {
	value = cloneValue(value)
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return
	}
	f.value = value
	listeners := make([]func(), 0, len(f.listeners))
	for i := 0; i < f.nextID; i++ {
		if fn, ok := f.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	f.mu.Unlock()

	f.syncPaths(value)
	for _, fn := range listeners {
		fn()
	}
}

func (f *Form) Validate() []Issue {
	return f.schema.Validate(f.Value())
}

func (f *Form) OnChange(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyed {
		return func() {}
	}
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *Form) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
	f.listeners = map[int]func(){}
}

// Destroyed reports whether Destroy was called.
func (f *Form) Destroyed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.destroyed
}

func (f *Form) syncPaths(value any) {
	registrar, ok := f.mount.(PathRegistrar)
	if !ok {
		return
	}
	seen := map[string]struct{}{}
	var paths []string
	for _, p := range append(f.schema.SchemaPaths(), ValuePaths(value)...) {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	registrar.SetPaths(paths)
}

// FormFactory builds Form widgets.
type FormFactory struct {
	// DeferReady leaves forms not ready until MarkReady is called.
	DeferReady bool

	mu    sync.Mutex
	built []*Form
}

var _ Factory = (*FormFactory)(nil)

func (ff *FormFactory) New(ctx context.Context, spec Spec) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	form, err := NewForm(spec, ff.DeferReady)
	if err != nil {
		return nil, err
	}
	ff.mu.Lock()
	ff.built = append(ff.built, form)
	ff.mu.Unlock()
	return form, nil
}

// Last returns the most recently built form, or nil.
func (ff *FormFactory) Last() *Form {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.built) == 0 {
		return nil
	}
	return ff.built[len(ff.built)-1]
}

// Built returns every form built so far.
func (ff *FormFactory) Built() []*Form {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return append([]*Form(nil), ff.built...)
}

// cloneValue deep-copies a JSON-like document through an encode/decode
// round trip. Values that cannot be encoded are returned as-is.
func cloneValue(value any) any {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}
