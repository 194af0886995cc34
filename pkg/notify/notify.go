// Package notify provides editor.Notifier implementations for hosts that do
// not consume notifications in-process.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/editor"
)

// Line is the JSON shape written for every notification.
type Line struct {
	Name string `json:"name"`
	editor.Notification
}

// Writer writes one JSON document per notification.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ editor.Notifier = (*Writer)(nil)

// NewWriter returns a notifier writing JSON lines to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

func (w *Writer) Notify(ctx context.Context, n editor.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(Line{Name: n.Name(), Notification: n}); err != nil {
		return fmt.Errorf("notify: write %s: %w", n.Name(), err)
	}
	return nil
}

// Log returns a notifier that records notifications as structured log events.
func Log(logger zerolog.Logger) editor.Notifier {
	return editor.NotifierFunc(func(_ context.Context, n editor.Notification) error {
		logger.Info().
			Str("editor", n.EditorID).
			Str("instance", n.InstanceID).
			Str("kind", string(n.Kind)).
			Str("event", string(n.Event)).
			Interface("data", n.Data).
			Msg(n.Name())
		return nil
	})
}

// Fanout forwards every notification to each notifier and returns the first
// error.
func Fanout(notifiers ...editor.Notifier) editor.Notifier {
	return editor.NotifierFunc(func(ctx context.Context, n editor.Notification) error {
		var first error
		for _, target := range notifiers {
			if target == nil {
				continue
			}
			if err := target.Notify(ctx, n); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
