// Package template defines the renderer-agnostic template contract used to
// turn diff results into markup, plus a pongo2-backed adapter in gotemplate.
package template
