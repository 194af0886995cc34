package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/diff"
	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/i18n"
	"github.com/goliatone/go-formdraft/pkg/prompt"
)

// ErrInvalidDraft is returned when the record handed to the controller is
// not tagged as a draft.
var ErrInvalidDraft = errors.New("recovery: invalid draft")

// TimestampField is stripped from recovered data before it is restored.
const TimestampField = "_timestamp"

// Translation keys used by the recovery prompt.
const (
	KeyModalTitle    = "draft_recover_modal_title"
	KeySummaryTitle  = "draft_recover_summary_title"
	KeyLastSavedDate = "draft_recover_last_saved_date"
	KeyRecoveredDate = "draft_recover_recovered_date"
	KeyUseMostRecent = "draft_recover_use_most_recent"
	KeyPreviewDiff   = "draft_recover_preview_diff"
	KeyCancel        = "draft_recover_cancel"
	KeyDiffs         = "draft_recover_diffs"
	KeyDateAt        = "draft_recover_date_at"
)

// Choice is a user decision in the recovery dialog.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceRestore
	ChoicePreview
)

func (c Choice) String() string {
	switch c {
	case ChoiceRestore:
		return "restore"
	case ChoicePreview:
		return "preview"
	default:
		return "cancel"
	}
}

// Outcome is the result of a recovery run.
type Outcome string

const (
	// OutcomeUnchanged means the draft matched the loaded value and no
	// dialog was shown.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRestored means the draft was applied to the editor.
	OutcomeRestored Outcome = "restored"
	// OutcomeCancelled means the dialog was dismissed and the loaded value
	// kept.
	OutcomeCancelled Outcome = "cancelled"
)

// Request describes one recovery run.
type Request struct {
	EditorID string
	DraftKey string
	// Draft is the recovered record.
	Draft draft.Draft
	// Loaded is the value the editor was started with.
	Loaded any
	// DBTime is the authoritative save time, in Unix seconds.
	DBTime int64

	Locale     string
	Translator i18n.Translator
}

// Prompt holds the localized text of the recovery dialog.
type Prompt struct {
	Title          string
	Summary        string
	LastSavedLabel string
	LastSaved      string
	RecoveredLabel string
	Recovered      string
	Restore        string
	Preview        string
	Cancel         string
	DiffTitle      string
}

// Dialog presents the recovery choices. Choose is called repeatedly until
// it returns Restore or Cancel; ShowDiff displays rendered differences while
// the dialog stays open.
type Dialog interface {
	Choose(ctx context.Context, p Prompt) (Choice, error)
	ShowDiff(ctx context.Context, title, markup string) error
	Close()
}

// Target receives the restored value.
type Target interface {
	SetValue(value any)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDialog sets the dialog. The default dismisses every prompt.
func WithDialog(dialog Dialog) Option {
	return func(c *Controller) {
		if dialog != nil {
			c.dialog = dialog
		}
	}
}

// WithRenderer sets the diff renderer used for previews.
func WithRenderer(renderer diff.Renderer) Option {
	return func(c *Controller) {
		if renderer != nil {
			c.renderer = renderer
		}
	}
}

// WithExclude overrides the keys left out of the comparison.
func WithExclude(exclude diff.ExcludeFunc) Option {
	return func(c *Controller) {
		c.exclude = exclude
	}
}

// WithLocation sets the time zone used to format dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller runs recovery flows.
type Controller struct {
	dialog   Dialog
	renderer diff.Renderer
	exclude  diff.ExcludeFunc
	location *time.Location
	logger   zerolog.Logger
}

// New builds a controller.
func New(options ...Option) *Controller {
	c := &Controller{
		dialog:   DismissDialog{},
		renderer: diff.NewTextRenderer(),
		exclude:  diff.DefaultExclude,
		location: time.Local,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Recover compares the loaded value with the recovered draft and, when they
// differ, lets the dialog decide which one the editor keeps.
func (c *Controller) Recover(ctx context.Context, req Request, target Target) (Outcome, error) {
	if !req.Draft.IsDraft() {
		return "", fmt.Errorf("%w: type %q", ErrInvalidDraft, req.Draft.Type)
	}
	if target == nil {
		return "", errors.New("recovery: target is required")
	}

	loaded, err := jsonDocument(req.Loaded)
	if err != nil {
		return "", fmt.Errorf("recovery: normalize loaded value: %w", err)
	}
	recovered, err := jsonDocument(req.Draft.Data)
	if err != nil {
		return "", fmt.Errorf("recovery: normalize draft: %w", err)
	}
	result := diff.Diff(loaded, recovered, c.exclude)
	if result.IsEmpty() {
		c.logger.Debug().Str("editor", req.EditorID).Str("draft", req.DraftKey).Msg("draft matches loaded value")
		return OutcomeUnchanged, nil
	}

	p := c.prompt(req)
	defer c.dialog.Close()

	var markup *string
	for {
		choice, err := c.dialog.Choose(ctx, p)
		if err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return c.done(req, OutcomeCancelled), nil
			}
			return OutcomeCancelled, fmt.Errorf("recovery: dialog: %w", err)
		}

		switch choice {
		case ChoiceRestore:
			target.SetValue(StripTimestamp(recovered))
			return c.done(req, OutcomeRestored), nil
		case ChoicePreview:
			if markup == nil {
				rendered, err := c.renderer.Render(ctx, result)
				if err != nil {
					return OutcomeCancelled, fmt.Errorf("recovery: render diff: %w", err)
				}
				markup = &rendered
			}
			if err := c.dialog.ShowDiff(ctx, p.DiffTitle, *markup); err != nil {
				return OutcomeCancelled, fmt.Errorf("recovery: show diff: %w", err)
			}
		default:
			return c.done(req, OutcomeCancelled), nil
		}
	}
}

// jsonDocument returns a deep copy of v in the JSON document model, so a Go
// int and the float64 decoded from storage compare equal.
func jsonDocument(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Controller) done(req Request, outcome Outcome) Outcome {
	c.logger.Info().
		Str("editor", req.EditorID).
		Str("draft", req.DraftKey).
		Str("outcome", string(outcome)).
		Msg("draft recovery finished")
	return outcome
}

func (c *Controller) prompt(req Request) Prompt {
	tr := func(key, fallback string) string {
		return i18n.Translate(req.Translator, req.Locale, key, fallback)
	}
	at := tr(KeyDateAt, "at")
	return Prompt{
		Title:          tr(KeyModalTitle, "Draft recovery"),
		Summary:        tr(KeySummaryTitle, "A more recent version of this item was found"),
		LastSavedLabel: tr(KeyLastSavedDate, "Last saved version"),
		LastSaved:      FormatDateTime(req.DBTime, at, c.location),
		RecoveredLabel: tr(KeyRecoveredDate, "Recovered version"),
		Recovered:      FormatDateTime(req.Draft.Timestamp, at, c.location),
		Restore:        tr(KeyUseMostRecent, "Use the most recent version"),
		Preview:        tr(KeyPreviewDiff, "Preview differences"),
		Cancel:         tr(KeyCancel, "Cancel"),
		DiffTitle:      tr(KeyDiffs, "Differences"),
	}
}

// FormatDateTime renders Unix seconds as "<date> <at> <time>".
func FormatDateTime(unix int64, at string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.Unix(unix, 0).In(loc)
	return t.Format("2006-01-02") + " " + at + " " + t.Format("15:04:05")
}

// StripTimestamp returns value without the top-level TimestampField. The
// input is not modified.
func StripTimestamp(value any) any {
	doc, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if _, has := doc[TimestampField]; !has {
		return value
	}
	out := make(map[string]any, len(doc)-1)
	for k, v := range doc {
		if k != TimestampField {
			out[k] = v
		}
	}
	return out
}
