package recovery

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-formdraft/pkg/prompt"
)

// DismissDialog cancels every prompt. It is the default for non-interactive
// hosts, which keep the loaded value.
type DismissDialog struct{}

func (DismissDialog) Choose(context.Context, Prompt) (Choice, error) {
	return ChoiceCancel, nil
}

func (DismissDialog) ShowDiff(context.Context, string, string) error {
	return nil
}

func (DismissDialog) Close() {}

// TerminalDialog asks the recovery question through a prompt.Driver.
type TerminalDialog struct {
	driver prompt.Driver
	shown  bool
}

var _ Dialog = (*TerminalDialog)(nil)

// NewTerminalDialog wraps driver.
func NewTerminalDialog(driver prompt.Driver) *TerminalDialog {
	return &TerminalDialog{driver: driver}
}

func (d *TerminalDialog) Choose(ctx context.Context, p Prompt) (Choice, error) {
	if !d.shown {
		summary := strings.Join([]string{
			p.Title,
			p.Summary,
			"  " + p.LastSavedLabel + ": " + p.LastSaved,
			"  " + p.RecoveredLabel + ": " + p.Recovered,
		}, "\n")
		if err := d.driver.Info(ctx, summary); err != nil {
			return ChoiceCancel, err
		}
		d.shown = true
	}

	options := []string{p.Restore, p.Preview, p.Cancel}
	idx, err := d.driver.Select(ctx, prompt.SelectConfig{
		Message:      p.Title,
		Options:      options,
		DefaultIndex: 2,
	})
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return ChoiceCancel, nil
		}
		return ChoiceCancel, err
	}
	switch idx {
	case 0:
		return ChoiceRestore, nil
	case 1:
		return ChoicePreview, nil
	default:
		return ChoiceCancel, nil
	}
}

func (d *TerminalDialog) ShowDiff(ctx context.Context, title, markup string) error {
	return d.driver.Info(ctx, title+"\n"+markup)
}

func (d *TerminalDialog) Close() {
	d.shown = false
}
