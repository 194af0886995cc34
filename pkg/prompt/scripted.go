package prompt

import (
	"context"
	"fmt"
	"sync"
)

// Answer is a queued response for Scripted. Exactly one of the value fields
// is read depending on the prompt that consumes it; Err short-circuits.
type Answer struct {
	Text  string
	Bool  bool
	Index int
	Err   error
}

// Scripted replays queued answers in order and records what was asked. It
// lets non-interactive callers and tests drive flows built on Driver.
type Scripted struct {
	mu      sync.Mutex
	answers []Answer
	asked   []string
	infos   []string
}

var _ Driver = (*Scripted)(nil)

// NewScripted queues answers for later prompts.
func NewScripted(answers ...Answer) *Scripted {
	return &Scripted{answers: answers}
}

// Push appends more answers to the queue.
func (s *Scripted) Push(answers ...Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answers...)
}

// Asked returns the prompt messages seen so far.
func (s *Scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}

// Infos returns the messages passed to Info.
func (s *Scripted) Infos() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.infos...)
}

func (s *Scripted) next(ctx context.Context, message string) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, message)
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("%w: %q", ErrScriptExhausted, message)
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	if answer.Err != nil {
		return Answer{}, answer.Err
	}
	return answer, nil
}

func (s *Scripted) Input(ctx context.Context, cfg InputConfig) (string, error) {
	answer, err := s.next(ctx, cfg.Message)
	if err != nil {
		return "", err
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer.Text); err != nil {
			return "", err
		}
	}
	return answer.Text, nil
}

func (s *Scripted) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	answer, err := s.next(ctx, cfg.Message)
	if err != nil {
		return false, err
	}
	return answer.Bool, nil
}

func (s *Scripted) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	answer, err := s.next(ctx, cfg.Message)
	if err != nil {
		return 0, err
	}
	if answer.Index < 0 || answer.Index >= len(cfg.Options) {
		return 0, fmt.Errorf("prompt: scripted index %d out of range for %q", answer.Index, cfg.Message)
	}
	return answer.Index, nil
}

func (s *Scripted) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	answer, err := s.next(ctx, cfg.Message)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

func (s *Scripted) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = append(s.infos, msg)
	return nil
}
