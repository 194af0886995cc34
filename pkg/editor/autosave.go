package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-formdraft/pkg/draft"
)

// Autosaver writes the current value of a session as a draft.
type Autosaver struct {
	Store draft.Store
	Clock func() time.Time
}

// Save writes value under key unless the gate is still locked. It reports
// whether a draft was written. Any prior draft under key is replaced.
func (a *Autosaver) Save(ctx context.Context, key string, gate *Gate, value any) (bool, error) {
	if key == "" || gate.Locked() {
		return false, nil
	}
	now := time.Now
	if a.Clock != nil {
		now = a.Clock
	}
	if err := a.Store.SetItem(ctx, key, draft.New(value, now())); err != nil {
		return false, fmt.Errorf("editor: write draft %s: %w", key, err)
	}
	return true, nil
}
