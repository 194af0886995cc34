package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TypeDraft tags records written by the autosave layer so they can be told
// apart from any other value sharing the same key space.
const TypeDraft = "draft"

// KeySeparator joins the editor id and the item id in a draft key.
const KeySeparator = "@"

var (
	// ErrInvalidKey is returned when a draft key is empty or cannot be split
	// into editor and item ids.
	ErrInvalidKey = errors.New("draft: invalid key")
	// ErrStoreClosed is returned by stores used after Close.
	ErrStoreClosed = errors.New("draft: store is closed")
)

// Draft is the persisted snapshot of an in-progress edit.
type Draft struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// New builds a draft record for data using now as the client-side save time.
// The timestamp is expressed in seconds, rounded to the nearest second.
func New(data any, now time.Time) Draft {
	return Draft{
		Type:      TypeDraft,
		Timestamp: UnixSeconds(now),
		Data:      data,
	}
}

// UnixSeconds rounds t to the nearest second and returns it as a Unix
// timestamp.
func UnixSeconds(t time.Time) int64 {
	return (t.UnixMilli() + 500) / 1000
}

// IsDraft reports whether the record carries the draft tag.
func (d Draft) IsDraft() bool {
	return d.Type == TypeDraft
}

// Time returns the save time as a time.Time.
func (d Draft) Time() time.Time {
	return time.Unix(d.Timestamp, 0)
}

// Key returns the composite store key for an editor and item pair.
func Key(editorID, itemID string) string {
	return editorID + KeySeparator + itemID
}

// ValidateKey checks that key has non-empty editor and item parts.
func ValidateKey(key string) error {
	if _, _, ok := SplitKey(key); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// SplitKey splits a key produced by Key back into its editor and item ids.
// Editor ids never contain the separator, so the split happens on its first
// occurrence.
func SplitKey(key string) (editorID, itemID string, ok bool) {
	editorID, itemID, found := strings.Cut(key, KeySeparator)
	if !found || strings.TrimSpace(editorID) == "" || strings.TrimSpace(itemID) == "" {
		return "", "", false
	}
	return editorID, itemID, true
}

// Store persists drafts by key. A missing key is reported through the
// boolean result of GetItem, never as an error. Writes replace the whole
// record; there is no transactional guarantee across keys.
type Store interface {
	GetItem(ctx context.Context, key string) (Draft, bool, error)
	SetItem(ctx context.Context, key string, d Draft) error
	RemoveItem(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Encode marshals a draft into its JSON wire form.
func Encode(d Draft) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("draft: encode: %w", err)
	}
	return payload, nil
}

// Decode parses the JSON wire form of a draft. Numbers inside Data decode as
// float64, matching what a form widget hands back.
func Decode(payload []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return Draft{}, fmt.Errorf("draft: decode: %w", err)
	}
	return d, nil
}
