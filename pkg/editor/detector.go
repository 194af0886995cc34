package editor

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formdraft/pkg/draft"
	"github.com/goliatone/go-formdraft/pkg/i18n"
	"github.com/goliatone/go-formdraft/pkg/recovery"
)

// Recoverer runs the recovery flow for a draft newer than the loaded value.
// *recovery.Controller implements it.
type Recoverer interface {
	Recover(ctx context.Context, req recovery.Request, target recovery.Target) (recovery.Outcome, error)
}

// Detection is what a Detector found.
type Detection struct {
	// Found is set when a draft record exists under the key.
	Found bool
	// MoreRecent is set when the draft is strictly newer than the
	// authoritative save time.
	MoreRecent bool
	// Draft is the stored record, when Found.
	Draft draft.Draft
	// Outcome is the recovery result when recovery ran.
	Outcome recovery.Outcome
}

// DetectRequest carries the session facts the detector needs.
type DetectRequest struct {
	EditorID    string
	DraftKey    string
	DBTimestamp int64
	Loaded      any
	Locale      string
	Translator  i18n.Translator
}

// Detector checks the draft store for a draft newer than the loaded value.
type Detector struct {
	Store     draft.Store
	Recoverer Recoverer
}

// Detect runs once per session. The gate is released when Detect returns,
// whatever the result, including storage and recovery failures.
func (d *Detector) Detect(ctx context.Context, req DetectRequest, target recovery.Target, gate *Gate) (Detection, error) {
	defer gate.Release()

	if req.DraftKey == "" {
		return Detection{}, nil
	}

	stored, ok, err := d.Store.GetItem(ctx, req.DraftKey)
	if err != nil {
		return Detection{}, fmt.Errorf("editor: read draft %s: %w", req.DraftKey, err)
	}
	if !ok || !stored.IsDraft() {
		return Detection{}, nil
	}

	result := Detection{
		Found:      true,
		Draft:      stored,
		MoreRecent: stored.Timestamp > req.DBTimestamp,
	}
	if !result.MoreRecent || d.Recoverer == nil {
		return result, nil
	}

	outcome, err := d.Recoverer.Recover(ctx, recovery.Request{
		EditorID:   req.EditorID,
		DraftKey:   req.DraftKey,
		Draft:      stored,
		Loaded:     req.Loaded,
		DBTime:     req.DBTimestamp,
		Locale:     req.Locale,
		Translator: req.Translator,
	}, target)
	result.Outcome = outcome
	if err != nil {
		return result, fmt.Errorf("editor: recover draft %s: %w", req.DraftKey, err)
	}
	return result, nil
}
