package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultLocale is used when a lookup misses in the requested locale.
const DefaultLocale = "en"

// ErrMissingTranslation is returned when a key is absent in both the
// requested locale and the fallback locale.
var ErrMissingTranslation = errors.New("i18n: missing translation")

// Translator resolves a key for a locale.
type Translator interface {
	Translate(locale, key string) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string) (string, error)

func (f TranslatorFunc) Translate(locale, key string) (string, error) {
	return f(locale, key)
}

// Entry is one authored dictionary row: the "id" field names the key and
// every other field is a language code.
type Entry map[string]string

// Dictionary maps language to key to text.
type Dictionary map[string]map[string]string

var _ Translator = Dictionary(nil)

// Pivot indexes entries by language. Entries without an id are skipped;
// later entries win over earlier ones for the same language and key.
func Pivot(entries []Entry) Dictionary {
	out := Dictionary{}
	for _, entry := range entries {
		id := strings.TrimSpace(entry["id"])
		if id == "" {
			continue
		}
		for lang, text := range entry {
			if lang == "id" {
				continue
			}
			lang = normalizeLocale(lang)
			if out[lang] == nil {
				out[lang] = map[string]string{}
			}
			out[lang][id] = text
		}
	}
	return out
}

// Merge returns a new dictionary with other layered over d.
func (d Dictionary) Merge(other Dictionary) Dictionary {
	out := make(Dictionary, len(d))
	for _, src := range []Dictionary{d, other} {
		for lang, keys := range src {
			if out[lang] == nil {
				out[lang] = make(map[string]string, len(keys))
			}
			for k, v := range keys {
				out[lang][k] = v
			}
		}
	}
	return out
}

// Languages lists the languages present, sorted.
func (d Dictionary) Languages() []string {
	out := make([]string, 0, len(d))
	for lang := range d {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Translate looks key up in locale, then in the base language of locale
// ("fr" for "fr-CH"), then in DefaultLocale.
func (d Dictionary) Translate(locale, key string) (string, error) {
	for _, candidate := range candidates(locale) {
		if text, ok := d[candidate][key]; ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissingTranslation, locale, key)
}

// Translate resolves key through t, returning fallback (or the key itself
// when fallback is empty) if t is nil or the lookup fails.
func Translate(t Translator, locale, key, fallback string) string {
	if t != nil {
		if text, err := t.Translate(locale, key); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

func candidates(locale string) []string {
	locale = normalizeLocale(locale)
	out := make([]string, 0, 3)
	if locale != "" {
		out = append(out, locale)
		if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
			out = append(out, base)
		}
	}
	if locale != DefaultLocale {
		out = append(out, DefaultLocale)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}
