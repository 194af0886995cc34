package diff

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// ExcludeFunc reports whether a mapping key must be left out of the
// comparison.
type ExcludeFunc func(key string) bool

// TransientKeys lists UI flags that never reach the user-facing diff.
var TransientKeys = []string{"spriteEnable"}

// DefaultExclude drops transient UI flags and any key starting with "_" or
// "$", which carry internal metadata.
func DefaultExclude(key string) bool {
	if key == "" {
		return false
	}
	for _, transient := range TransientKeys {
		if key == transient {
			return true
		}
	}
	return key[0] == '_' || key[0] == '$'
}

// Kind classifies a change between two documents.
type Kind string

const (
	KindAdded    Kind = "added"
	KindRemoved  Kind = "removed"
	KindModified Kind = "modified"
)

// Change is a single leaf difference. From is unset for additions and To is
// unset for removals.
type Change struct {
	Path []string `json:"path"`
	Kind Kind     `json:"kind"`
	From any      `json:"from,omitempty"`
	To   any      `json:"to,omitempty"`
}

// PathString joins the change path with dots; the document root is "root".
func (c Change) PathString() string {
	if len(c.Path) == 0 {
		return "root"
	}
	return strings.Join(c.Path, ".")
}

// Result holds the differences found between two documents.
type Result struct {
	changes []Change
}

// IsEmpty reports whether the compared documents are equivalent once
// excluded keys are ignored.
func (r Result) IsEmpty() bool {
	return len(r.changes) == 0
}

// Len returns the number of changes.
func (r Result) Len() int {
	return len(r.changes)
}

// Changes returns a copy of the changes in document order.
func (r Result) Changes() []Change {
	return append([]Change(nil), r.changes...)
}

// Diff compares a (the "from" side) with b (the "to" side). Map keys for
// which exclude returns true are skipped at every depth. A nil exclude
// compares everything.
func Diff(a, b any, exclude ExcludeFunc) Result {
	reporter := &reporter{}
	options := []cmp.Option{cmp.Reporter(reporter)}
	if exclude != nil {
		options = append(options, cmp.FilterPath(excludedPath(exclude), cmp.Ignore()))
	}
	cmp.Equal(a, b, options...)
	return Result{changes: reporter.changes}
}

func excludedPath(exclude ExcludeFunc) func(cmp.Path) bool {
	return func(p cmp.Path) bool {
		step, ok := p.Last().(cmp.MapIndex)
		if !ok {
			return false
		}
		key := step.Key()
		return key.Kind() == reflect.String && exclude(key.String())
	}
}

// reporter collects unequal leaves while go-cmp walks both trees.
type reporter struct {
	path    cmp.Path
	changes []Change
}

func (r *reporter) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *reporter) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func (r *reporter) Report(rs cmp.Result) {
	if rs.Equal() {
		return
	}
	vx, vy := r.path.Last().Values()
	change := Change{Path: documentPath(r.path)}
	switch {
	case !vx.IsValid():
		change.Kind = KindAdded
		change.To = valueOf(vy)
	case !vy.IsValid():
		change.Kind = KindRemoved
		change.From = valueOf(vx)
	default:
		change.Kind = KindModified
		change.From = valueOf(vx)
		change.To = valueOf(vy)
	}
	r.changes = append(r.changes, change)
}

func documentPath(p cmp.Path) []string {
	var out []string
	for _, step := range p {
		switch s := step.(type) {
		case cmp.MapIndex:
			out = append(out, keyString(s.Key()))
		case cmp.SliceIndex:
			ix, iy := s.SplitKeys()
			idx := iy
			if idx < 0 {
				idx = ix
			}
			out = append(out, strconv.Itoa(idx))
		}
	}
	return out
}

func keyString(key reflect.Value) string {
	if key.Kind() == reflect.String {
		return key.String()
	}
	if key.CanInterface() {
		return fmt.Sprint(key.Interface())
	}
	return key.String()
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
