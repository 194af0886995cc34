package editor

import (
	"context"
	"time"
)

// Kind names an outward notification.
type Kind string

const (
	KindReady  Kind = "ready"
	KindValues Kind = "values"
	KindIssues Kind = "issues"
)

// Event names what triggered a notification.
type Event string

const (
	EventReady   Event = "ready"
	EventChange  Event = "change"
	EventRequest Event = "request"
)

// Notification is sent to the host when an editor becomes ready, and when
// values or validation issues are reported.
type Notification struct {
	Kind       Kind      `json:"kind"`
	EditorID   string    `json:"editor_id"`
	InstanceID string    `json:"instance_id"`
	Time       time.Time `json:"time"`
	Event      Event     `json:"event,omitempty"`
	Data       any       `json:"data,omitempty"`
}

// Name returns the host-facing channel name, "<editorId>_<kind>".
func (n Notification) Name() string {
	return n.EditorID + "_" + string(n.Kind)
}

// Notifier forwards notifications to the host.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
