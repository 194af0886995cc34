package editor

import "errors"

var (
	// ErrInvalidID is returned when an editor is mounted without an id.
	ErrInvalidID = errors.New("editor: editor id is required")
	// ErrNoWidget is returned when the factory yields no widget.
	ErrNoWidget = errors.New("editor: factory returned no widget")
	// ErrClosed is returned by a Manager used after Close.
	ErrClosed = errors.New("editor: manager is closed")
)
