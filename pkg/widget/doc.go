// Package widget defines the seam between the draft layer and the
// schema-driven form editor it wraps.
//
// Widget, Factory, Mount and MountResolver are the interfaces the editor
// package consumes. Form is a reference in-memory widget that validates its
// value against a kin-openapi schema; MountTable keeps named mount targets
// in memory and records which element paths were flagged as invalid.
package widget
