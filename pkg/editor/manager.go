package editor

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/i18n"
	"github.com/goliatone/go-formdraft/pkg/recovery"
	"github.com/goliatone/go-formdraft/pkg/widget"
)

// DefaultLocale is used when neither the manager nor the mount set one.
const DefaultLocale = "en"

// ErrorHandler receives storage and recovery errors of a session.
type ErrorHandler func(editorID string, err error)

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the draft store. Defaults to a draft.MemoryStore.
func WithStore(store draft.Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithFactory sets the widget factory. Defaults to widget.FormFactory.
func WithFactory(factory widget.Factory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.factory = factory
		}
	}
}

// WithMounts sets how mount targets are resolved. Defaults to an empty
// widget.MountTable.
func WithMounts(mounts widget.MountResolver) Option {
	return func(m *Manager) {
		if mounts != nil {
			m.mounts = mounts
		}
	}
}

// WithRecoverer sets the recovery flow. Defaults to a recovery.Controller
// that keeps the loaded value.
func WithRecoverer(recoverer Recoverer) Option {
	return func(m *Manager) {
		if recoverer != nil {
			m.recoverer = recoverer
		}
	}
}

// WithDictionary sets the translation loader run on every mount. Defaults
// to i18n.Builtin.
func WithDictionary(loader i18n.Loader) Option {
	return func(m *Manager) {
		if loader != nil {
			m.dictionary = loader
		}
	}
}

// WithNotifier sets where outward notifications go. Without one they are
// logged.
func WithNotifier(notifier Notifier) Option {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithLogger sets the logger. Defaults to zerolog.Nop.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithErrorHandler sets the error handler. The default logs errors.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(m *Manager) {
		m.onError = handler
	}
}

// WithClock sets the time source used for draft and notification times.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithMaxBytes sets the size above which an advisory is raised. Zero
// disables the check.
func WithMaxBytes(max int64) Option {
	return func(m *Manager) {
		m.maxBytes = max
	}
}

// WithAdvisor sets the size advisor. The default logs a warning.
func WithAdvisor(advisor Advisor) Option {
	return func(m *Manager) {
		m.advisor = advisor
	}
}

// WithLocale sets the default locale.
func WithLocale(locale string) Option {
	return func(m *Manager) {
		if strings.TrimSpace(locale) != "" {
			m.locale = strings.TrimSpace(locale)
		}
	}
}

// WithRegistry shares a session registry between managers.
func WithRegistry(registry *Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager mounts editors and keeps one live session per editor id.
type Manager struct {
	store      draft.Store
	factory    widget.Factory
	mounts     widget.MountResolver
	recoverer  Recoverer
	dictionary i18n.Loader
	notifier   Notifier
	logger     zerolog.Logger
	onError    ErrorHandler
	clock      func() time.Time
	maxBytes   int64
	advisor    Advisor
	locale     string
	registry   *Registry

	detector  *Detector
	autosaver *Autosaver
	closed    atomic.Bool
}

// New builds a Manager.
func New(options ...Option) *Manager {
	m := &Manager{
		store:      draft.NewMemoryStore(),
		factory:    &widget.FormFactory{},
		mounts:     widget.NewMountTable(),
		dictionary: i18n.Builtin(),
		logger:     zerolog.Nop(),
		clock:      time.Now,
		locale:     DefaultLocale,
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	if m.recoverer == nil {
		m.recoverer = recovery.New(recovery.WithLogger(m.logger))
	}
	if m.advisor == nil {
		m.advisor = LogAdvisor(m.logger)
	}
	if m.onError == nil {
		logger := m.logger
		m.onError = func(editorID string, err error) {
			logger.Error().Err(err).Str("editor", editorID).Msg("editor draft error")
		}
	}
	m.detector = &Detector{Store: m.store, Recoverer: m.recoverer}
	m.autosaver = &Autosaver{Store: m.store, Clock: m.clock}
	return m
}

// Store returns the draft store.
func (m *Manager) Store() draft.Store {
	return m.store
}

// Registry returns the session registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Mount builds an editor into the mount target named opts.ID. A missing
// target is not an error: a warning is logged and a nil session returned.
// Any session already registered under the same id is destroyed before the
// new widget is built.
func (m *Manager) Mount(ctx context.Context, opts Options) (*Session, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return nil, ErrInvalidID
	}
	if strings.Contains(opts.ID, draft.KeySeparator) {
		return nil, fmt.Errorf("%w: %q contains %q", ErrInvalidID, opts.ID, draft.KeySeparator)
	}

	mount, ok := m.mounts.Resolve(opts.ID)
	if !ok || mount == nil {
		m.logger.Warn().Str("editor", opts.ID).Msg("editor mount target not found")
		return nil, nil
	}

	dict, err := m.dictionary.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("editor: load dictionary: %w", err)
	}
	locale := m.locale
	if strings.TrimSpace(opts.Locale) != "" {
		locale = strings.TrimSpace(opts.Locale)
	}
	config := MergeConfig(opts.Config, opts.Schema, opts.StartValue)

	m.registry.Destroy(opts.ID)

	w, err := m.factory.New(ctx, widget.Spec{
		ID:         opts.ID,
		Mount:      mount,
		Schema:     opts.Schema,
		StartValue: opts.StartValue,
		Config:     config,
	})
	if err != nil {
		return nil, fmt.Errorf("editor: build widget %s: %w", opts.ID, err)
	}
	if w == nil {
		return nil, ErrNoWidget
	}

	instanceID := uuid.NewString()
	logger := m.logger.With().Str("editor", opts.ID).Str("instance", instanceID).Logger()
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		id:         opts.ID,
		instanceID: instanceID,
		options:    opts,
		config:     config,
		draftKey:   opts.DraftKey(),
		locale:     locale,
		dictionary: dict,
		mount:      mount,
		widget:     w,
		manager:    m,
		gate:       NewGate(),
		guard: &SizeGuard{
			MaxBytes:   m.maxBytes,
			Advisor:    m.advisor,
			Translator: dict,
			Locale:     locale,
			Logger:     logger,
		},
		logger:   logger,
		registry: m.registry,
		ctx:      sessionCtx,
		cancel:   cancel,
		settled:  make(chan struct{}),
	}
	s.state.Store(int32(StateInitializing))

	if prev := m.registry.Register(s); prev != nil {
		prev.Destroy()
	}
	s.start()
	logger.Debug().Str("draft", s.draftKey).Msg("editor mounted")
	return s, nil
}

// Lookup returns the live session for id.
func (m *Manager) Lookup(id string) (*Session, bool) {
	return m.registry.Lookup(id)
}

// GetValue returns the current value of editor id.
func (m *Manager) GetValue(id string) (any, bool) {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return nil, false
	}
	return s.Value(), true
}

// SetValue replaces the value of editor id. It is a no-op when no session
// is registered under id.
func (m *Manager) SetValue(id string, value any) bool {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return false
	}
	s.SetValue(value)
	return true
}

// GetValidation returns the validation issues of editor id.
func (m *Manager) GetValidation(id string) ([]widget.Issue, bool) {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return nil, false
	}
	return s.Validation(), true
}

// ReportValues sends the current value of editor id to the notifier and
// returns the notification.
func (m *Manager) ReportValues(ctx context.Context, id string, event Event) (Notification, bool) {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return Notification{}, false
	}
	n := s.notification(KindValues, event, s.Value())
	m.notify(ctx, n)
	return n, true
}

// ReportValidation sends the validation issues of editor id to the notifier
// and returns the notification.
func (m *Manager) ReportValidation(ctx context.Context, id string, event Event) (Notification, bool) {
	s, ok := m.registry.Lookup(id)
	if !ok {
		return Notification{}, false
	}
	issues := s.Validation()
	if issues == nil {
		issues = []widget.Issue{}
	}
	n := s.notification(KindIssues, event, issues)
	m.notify(ctx, n)
	return n, true
}

// DiscardDraft removes the stored draft of an editor and item.
func (m *Manager) DiscardDraft(ctx context.Context, editorID, itemID string) error {
	key := draft.Key(editorID, itemID)
	if err := draft.ValidateKey(key); err != nil {
		return err
	}
	if err := m.store.RemoveItem(ctx, key); err != nil {
		return fmt.Errorf("editor: discard draft %s: %w", key, err)
	}
	m.logger.Info().Str("draft", key).Msg("draft discarded")
	return nil
}

// Destroy tears down editor id. It reports whether a session existed.
func (m *Manager) Destroy(id string) bool {
	return m.registry.Destroy(id)
}

// Close destroys every session. Mount fails afterwards.
func (m *Manager) Close() error {
	m.closed.Store(true)
	m.registry.DestroyAll()
	return nil
}

func (m *Manager) now() time.Time {
	return m.clock()
}

func (m *Manager) notify(ctx context.Context, n Notification) {
	if m.notifier == nil {
		m.logger.Info().
			Str("editor", n.EditorID).
			Str("instance", n.InstanceID).
			Str("event", string(n.Event)).
			Msg(n.Name())
		return
	}
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.handleError(n.EditorID, fmt.Errorf("editor: notify %s: %w", n.Name(), err))
	}
}

func (m *Manager) handleError(editorID string, err error) {
	if err == nil || m.onError == nil {
		return
	}
	m.onError(editorID, err)
}
