package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrScriptExhausted is returned by Scripted when no answer is queued.
	ErrScriptExhausted = errors.New("prompt: no scripted answer left")
)
