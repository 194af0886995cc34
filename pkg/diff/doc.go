// Package diff compares two JSON-like documents structurally and renders the
// differences for people.
//
// Diff is cheap and runs eagerly; rendering is a separate step through a
// Renderer so callers only pay for markup when someone asks to see it.
package diff
