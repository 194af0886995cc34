package widget

import (
	"context"
	"errors"
)

var (
	// ErrNoSchema is returned when a widget is built without a schema.
	ErrNoSchema = errors.New("widget: schema is required")
	// ErrNoMount is returned when a widget is built without a mount target.
	ErrNoMount = errors.New("widget: mount is required")
)

// RootPath is the element path of the document root.
const RootPath = "root"

// Issue is one validation problem. Path uses the dotted element notation
// rooted at "root" (for example "root.address.city").
type Issue struct {
	Path     string `json:"path"`
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
}

// Widget is a mounted form editor bound to a schema.
type Widget interface {
	// Value returns a copy of the current document.
	Value() any
	// SetValue replaces the document and fires change notifications.
	SetValue(value any)
	// Validate returns the validation issues of the current document.
	Validate() []Issue
	// OnChange subscribes fn to change notifications. The returned func
	// removes the subscription.
	OnChange(fn func()) (cancel func())
	// Ready is closed once the widget has finished building.
	Ready() <-chan struct{}
	// Destroy tears the widget down. Further calls are no-ops.
	Destroy()
}

// Spec carries everything needed to construct a widget.
type Spec struct {
	ID         string
	Mount      Mount
	Schema     *Schema
	StartValue any
	Config     map[string]any
}

// Factory builds widgets.
type Factory interface {
	New(ctx context.Context, spec Spec) (Widget, error)
}

// FactoryFunc adapts a function into a Factory.
type FactoryFunc func(ctx context.Context, spec Spec) (Widget, error)

func (f FactoryFunc) New(ctx context.Context, spec Spec) (Widget, error) {
	return f(ctx, spec)
}

// Mount is the target element a widget renders into.
type Mount interface {
	ID() string
	// ClearErrors removes every error mark under the mount.
	ClearErrors()
	// MarkError flags the element for path and reports whether such an
	// element exists.
	MarkError(path string) bool
}

// PathRegistrar is implemented by mounts that track which element paths
// currently exist.
type PathRegistrar interface {
	SetPaths(paths []string)
}

// MountResolver looks mount targets up by id.
type MountResolver interface {
	Resolve(id string) (Mount, bool)
}

// MountResolverFunc adapts a function into a MountResolver.
type MountResolverFunc func(id string) (Mount, bool)

func (f MountResolverFunc) Resolve(id string) (Mount, bool) {
	return f(id)
}
