package prompt

import (
	"errors"
	"testing"
)

func TestStringValidatorPassesAnswer(t *testing.T) {
	errShort := errors.New("too short")
	var seen string
	validate := stringValidator(func(s string) error {
		seen = s
		if len(s) < 3 {
			return errShort
		}
		return nil
	})

	if err := validate("ab"); !errors.Is(err, errShort) {
		t.Fatalf("expected errShort, got %v", err)
	}
	if seen != "ab" {
		t.Fatalf("expected the answer to reach the validator, got %q", seen)
	}
	if err := validate("abcd"); err != nil {
		t.Fatalf("expected a valid answer, got %v", err)
	}
}

func TestStringValidatorRejectsNonString(t *testing.T) {
	called := false
	validate := stringValidator(func(string) error {
		called = true
		return nil
	})

	if err := validate(42); err == nil {
		t.Fatal("expected an error for a non-string answer")
	}
	if called {
		t.Fatal("expected the validator to be skipped")
	}
}
