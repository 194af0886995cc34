// Package recovery runs the decision flow shown when a locally saved draft
// is newer than the value an editor was loaded with.
//
// The Controller diffs the loaded value against the recovered draft and, if
// they differ, asks a Dialog what to do: restore the draft into the editor,
// preview the differences, or keep the loaded value. The stored draft is
// never deleted by this package.
package recovery
