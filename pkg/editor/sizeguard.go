package editor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/i18n"
)

// KeySizeWarning is the translation key of the size advisory message. The
// text may contain {{size}} and {{max}} placeholders.
const KeySizeWarning = "draft_size_warning"

// Advisory reports a document larger than the configured maximum.
type Advisory struct {
	EditorID string
	Size     int64
	Max      int64
	Message  string
}

// Advisor displays size advisories. It must not block.
type Advisor interface {
	Advise(ctx context.Context, advisory Advisory)
}

// AdvisorFunc adapts a function into an Advisor.
type AdvisorFunc func(ctx context.Context, advisory Advisory)

func (f AdvisorFunc) Advise(ctx context.Context, advisory Advisory) {
	f(ctx, advisory)
}

// LogAdvisor logs advisories as warnings.
func LogAdvisor(logger zerolog.Logger) Advisor {
	return AdvisorFunc(func(_ context.Context, a Advisory) {
		logger.Warn().
			Str("editor", a.EditorID).
			Int64("size", a.Size).
			Int64("max", a.Max).
			Msg(a.Message)
	})
}

// SizeGuard measures the encoded size of a value off the caller's goroutine
// and raises an advisory when it exceeds MaxBytes. A MaxBytes of zero
// disables the check.
type SizeGuard struct {
	MaxBytes   int64
	Advisor    Advisor
	Translator i18n.Translator
	Locale     string
	Logger     zerolog.Logger

	wg sync.WaitGroup
}

// Check schedules a measurement of value.
func (g *SizeGuard) Check(ctx context.Context, editorID string, value any) {
	if g == nil || g.MaxBytes <= 0 || g.Advisor == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		size, err := Measure(value)
		if err != nil {
			g.Logger.Debug().Err(err).Str("editor", editorID).Msg("size check skipped: value not encodable")
			return
		}
		if size <= g.MaxBytes {
			return
		}
		if ctx.Err() != nil {
			return
		}
		g.Advisor.Advise(ctx, Advisory{
			EditorID: editorID,
			Size:     size,
			Max:      g.MaxBytes,
			Message:  g.message(size),
		})
	}()
}

// Wait blocks until every scheduled check has finished.
func (g *SizeGuard) Wait() {
	if g == nil {
		return
	}
	g.wg.Wait()
}

func (g *SizeGuard) message(size int64) string {
	text := i18n.Translate(g.Translator, g.Locale, KeySizeWarning,
		"Warning: size greater than {{max}} ({{size}}). Please remove unnecessary items.")
	return strings.NewReplacer(
		"{{size}}", humanize.Bytes(uint64(size)),
		"{{max}}", humanize.Bytes(uint64(g.MaxBytes)),
	).Replace(text)
}

// Measure returns the JSON-encoded size of value in bytes.
func Measure(value any) (int64, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(raw)), nil
}
