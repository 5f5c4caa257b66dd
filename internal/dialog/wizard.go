// Package dialog drives multi-turn collection flows. A wizard is a
// data-driven table of steps; the manager keys live sessions by owner and
// guarantees the finish action of a completed wizard runs at most once.
package dialog

import (
	"context"
	"time"
)

// Kind names a wizard flow.
type Kind string

// Prompt is what the user sees next: text plus optional pre-rendered
// choices the transport may lay out as buttons.
type Prompt struct {
	Text    string
	Choices []string
}

// Session is the in-progress interaction of one owner. Exactly one live
// session exists per owner; starting a new wizard silently replaces it.
type Session struct {
	OwnerID    int64
	Wizard     Kind
	Step       int
	Fields     map[string]string
	StartedAt  time.Time
	LastActive time.Time
}

// Field returns a collected value, empty when the step has not run yet.
func (s *Session) Field(name string) string {
	return s.Fields[name]
}

// Step is one question of a wizard. Parse validates the input and, on
// success, stores what it collected into the session fields. A parse error
// re-prompts the same step without losing anything collected so far.
type Step struct {
	Name   string
	Prompt func(s *Session) Prompt
	Parse  func(s *Session, input string) error
}

// Wizard is a linear sequence of steps ending in a domain operation.
// Finish runs exactly once per completed flow and returns the confirmation
// text for the user.
type Wizard struct {
	Kind   Kind
	Steps  []Step
	Finish func(ctx context.Context, s *Session) (string, error)
}
