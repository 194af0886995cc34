package editor

import (
	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

// Reserved configuration keys. Values supplied by callers under these keys
// are always replaced.
const (
	ConfigShowErrors = "show_errors"
	ConfigSchema     = "schema"
	ConfigStartValue = "startval"
)

// Options describes one editor mount.
type Options struct {
	// ID names the editor and its mount target.
	ID string
	// Schema validates the document.
	Schema *widget.Schema
	// StartValue is the value loaded from the authoritative store.
	StartValue any
	// Config overrides the default widget configuration. Nested maps are
	// merged key by key.
	Config map[string]any

	// DraftItemID identifies the edited item. Autosave is enabled only when
	// both DraftItemID and DBTimestamp are set.
	DraftItemID string
	// DBTimestamp is the authoritative save time in Unix seconds.
	DBTimestamp int64

	// ValidateOnChange sends an issues notification on every change.
	ValidateOnChange bool
	// ValuesOnChange sends a values notification on every change.
	ValuesOnChange bool
	// MarkErrorsOnChange projects validation issues onto the mount on every
	// change.
	MarkErrorsOnChange bool

	// Locale overrides the manager locale for this editor.
	Locale string
}

// DraftKey returns the store key for this mount, or "" when autosave is
// not configured.
func (o Options) DraftKey() string {
	if o.DraftItemID == "" || o.DBTimestamp == 0 {
		return ""
	}
	return draft.Key(o.ID, o.DraftItemID)
}

// DefaultConfig returns the built-in widget configuration.
func DefaultConfig() map[string]any {
	return map[string]any{
		"disable_collapse":         false,
		"disable_properties":       true,
		"disable_edit_json":        false,
		"required_by_default":      true,
		"no_additional_properties": true,
		ConfigShowErrors:           "always",
	}
}

// MergeConfig layers overrides on top of DefaultConfig, then sets the
// reserved keys. Nested maps are merged recursively; any other value in
// overrides replaces the default.
func MergeConfig(overrides map[string]any, schema *widget.Schema, startValue any) map[string]any {
	out := DefaultConfig()
	mergeInto(out, draft.Clone(map[string]any(overrides)).(map[string]any))
	out[ConfigShowErrors] = "always"
	out[ConfigSchema] = schema
	out[ConfigStartValue] = startValue
	return out
}

func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}
