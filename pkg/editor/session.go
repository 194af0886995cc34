package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/i18n"
	"github.com/goliatone/go-formdraft/pkg/recovery"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

// State is the lifecycle stage of a session.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Session is one mounted editor.
type Session struct {
	id         string
	instanceID string
	options    Options
	config     map[string]any
	draftKey   string
	locale     string
	dictionary i18n.Dictionary

	mount    widget.Mount
	widget   widget.Widget
	manager  *Manager
	gate     *Gate
	guard    *SizeGuard
	logger   zerolog.Logger
	registry *Registry

	ctx    context.Context
	cancel context.CancelFunc

	state       atomic.Int32
	unsubscribe func()
	settled     chan struct{}
	destroyOnce sync.Once

	mu        sync.RWMutex
	err       error
	detection Detection
}

// ID returns the editor id.
func (s *Session) ID() string {
	return s.id
}

// InstanceID identifies this particular mount of the editor.
func (s *Session) InstanceID() string {
	return s.instanceID
}

// DraftKey returns the autosave key, or "" when autosave is disabled.
func (s *Session) DraftKey() string {
	return s.draftKey
}

// Options returns the options the session was mounted with.
func (s *Session) Options() Options {
	return s.options
}

// Config returns the merged widget configuration.
func (s *Session) Config() map[string]any {
	return s.config
}

// Locale returns the locale used for translations.
func (s *Session) Locale() string {
	return s.locale
}

// Dictionary returns the translations loaded for the session.
func (s *Session) Dictionary() i18n.Dictionary {
	return s.dictionary
}

// State returns the lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Gate returns the autosave gate.
func (s *Session) Gate() *Gate {
	return s.gate
}

// Locked reports whether autosave writes are still refused.
func (s *Session) Locked() bool {
	return s.gate.Locked()
}

// Widget returns the underlying widget.
func (s *Session) Widget() widget.Widget {
	return s.widget
}

// Mount returns the mount target.
func (s *Session) Mount() widget.Mount {
	return s.mount
}

// Settled is closed once readiness has been handled: detection and any
// recovery finished and the ready notification sent. It is also closed when
// the session is destroyed before becoming ready.
func (s *Session) Settled() <-chan struct{} {
	return s.settled
}

// Err returns the last storage or recovery error of the session.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Detection returns what the conflict check found.
func (s *Session) Detection() Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detection
}

// Outcome returns the recovery outcome, empty when recovery did not run.
func (s *Session) Outcome() recovery.Outcome {
	return s.Detection().Outcome
}

// Value returns a copy of the widget value.
func (s *Session) Value() any {
	return s.widget.Value()
}

// SetValue replaces the widget value. Change handling runs as for any
// other edit.
func (s *Session) SetValue(value any) {
	if s.State() == StateDestroyed {
		return
	}
	s.widget.SetValue(value)
}

// Validation returns the widget's current validation issues.
func (s *Session) Validation() []widget.Issue {
	return s.widget.Validate()
}

// ProjectErrors validates the widget and marks the invalid elements and
// their ancestors on the mount.
func (s *Session) ProjectErrors() []string {
	return ProjectErrors(s.mount, s.widget.Validate())
}

// WaitSizeChecks blocks until pending size checks have finished.
func (s *Session) WaitSizeChecks() {
	s.guard.Wait()
}

// Destroy tears the session down: cancels pending work, unsubscribes from
// the widget, destroys it and unregisters the session. It is idempotent.
func (s *Session) Destroy() {
	s.destroyOnce.Do(func() {
		s.state.Store(int32(StateDestroyed))
		s.cancel()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.widget.Destroy()
		s.registry.unregister(s)
		s.logger.Debug().Msg("editor destroyed")
	})
}

func (s *Session) start() {
	s.unsubscribe = s.widget.OnChange(s.handleChange)
	go s.run()
}

func (s *Session) run() {
	defer close(s.settled)

	select {
	case <-s.widget.Ready():
	case <-s.ctx.Done():
		return
	}
	if !s.state.CompareAndSwap(int32(StateInitializing), int32(StateReady)) {
		return
	}

	detection, err := s.manager.detector.Detect(s.ctx, DetectRequest{
		EditorID:    s.id,
		DraftKey:    s.draftKey,
		DBTimestamp: s.options.DBTimestamp,
		Loaded:      s.options.StartValue,
		Locale:      s.locale,
		Translator:  s.dictionary,
	}, s.widget, s.gate)

	s.mu.Lock()
	s.detection = detection
	s.mu.Unlock()
	if err != nil {
		s.fail(err)
	}
	if detection.Found {
		s.logger.Debug().
			Int64("draft_time", detection.Draft.Timestamp).
			Int64("db_time", s.options.DBTimestamp).
			Bool("more_recent", detection.MoreRecent).
			Str("outcome", string(detection.Outcome)).
			Msg("draft checked")
	}

	if s.State() == StateDestroyed {
		return
	}
	s.manager.notify(s.ctx, s.notification(KindReady, EventReady, nil))
}

func (s *Session) handleChange() {
	if s.State() == StateDestroyed {
		return
	}
	value := s.widget.Value()

	if _, err := s.manager.autosaver.Save(s.ctx, s.draftKey, s.gate, value); err != nil {
		s.fail(err)
	}

	s.guard.Check(s.ctx, s.id, value)

	if s.options.MarkErrorsOnChange {
		s.ProjectErrors()
	}
	if s.options.ValidateOnChange {
		s.manager.notify(s.ctx, s.notification(KindIssues, EventChange, s.widget.Validate()))
	}
	if s.options.ValuesOnChange {
		s.manager.notify(s.ctx, s.notification(KindValues, EventChange, value))
	}
}

func (s *Session) notification(kind Kind, event Event, data any) Notification {
	return Notification{
		Kind:       kind,
		EditorID:   s.id,
		InstanceID: s.instanceID,
		Time:       s.manager.now().UTC().Truncate(time.Millisecond),
		Event:      event,
		Data:       data,
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.manager.handleError(s.id, err)
}
