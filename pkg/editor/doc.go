// Package editor mounts schema-driven form widgets and adds local draft
// persistence with conflict recovery on top of them.
//
// A Manager owns the registry of live sessions, one per editor id. Mounting
// an editor with a draft item id and an authoritative save time enables
// autosave: every change is written to the draft store under
// "<editorId>@<itemId>", but only after the session's Gate has been
// released. The gate starts locked and is released exactly once, when the
// Detector has checked the store for a draft newer than the loaded value
// and any recovery dialog has finished. This keeps the widget's own initial
// population from overwriting the draft that is about to be evaluated.
package editor
