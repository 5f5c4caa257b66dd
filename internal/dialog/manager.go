package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrUnknownWizard = errors.New("unknown wizard")
)

// Result is the outcome of one inbound input against a live session.
type Result struct {
	// Done is set when the session ended, by completion or cancellation.
	Done      bool
	Cancelled bool
	// Reply is the finish confirmation when Done and not cancelled.
	Reply string
	// Prompt is the next step (or the re-prompted current step) while the
	// session stays active.
	Prompt *Prompt
	// Rejected carries the validation error when the input did not
	// advance the session.
	Rejected error
}

// Manager owns every live session, keyed by owner. Parsing and session
// mutation happen under the lock; finish actions run outside it after the
// session has already been removed, so a retried delivery can never commit
// twice.
type Manager struct {
	mu       sync.Mutex
	wizards  map[Kind]*Wizard
	sessions map[int64]*Session
	cancel   map[string]struct{}
	idle     time.Duration
	now      func() time.Time
}

// NewManager builds a manager with the designated cancellation inputs,
// valid on every non-terminal step of every wizard.
func NewManager(idle time.Duration, cancelInputs ...string) *Manager {
	cancel := make(map[string]struct{}, len(cancelInputs))
	for _, in := range cancelInputs {
		cancel[in] = struct{}{}
	}
	return &Manager{
		wizards:  make(map[Kind]*Wizard),
		sessions: make(map[int64]*Session),
		cancel:   cancel,
		idle:     idle,
		now:      time.Now,
	}
}

// Register adds a wizard table. Registering the same kind twice is a
// wiring bug and is reported instead of silently rebinding.
func (m *Manager) Register(w *Wizard) error {
	if len(w.Steps) == 0 || w.Finish == nil {
		return fmt.Errorf("wizard %s: incomplete definition", w.Kind)
	}
	if _, exists := m.wizards[w.Kind]; exists {
		return fmt.Errorf("wizard %s: already registered", w.Kind)
	}
	m.wizards[w.Kind] = w
	return nil
}

// Start opens a session for the owner at the wizard's first step, seeding
// any pre-collected fields (edit flows seed the target record id). An
// existing session is replaced silently.
func (m *Manager) Start(ownerID int64, kind Kind, seed map[string]string) (Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wizards[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownWizard, kind)
	}

	fields := make(map[string]string, len(seed))
	for k, v := range seed {
		fields[k] = v
	}

	now := m.now()
	s := &Session{
		OwnerID:    ownerID,
		Wizard:     kind,
		Fields:     fields,
		StartedAt:  now,
		LastActive: now,
	}
	m.sessions[ownerID] = s

	return w.Steps[0].Prompt(s), nil
}

// Active reports whether the owner has a live session.
func (m *Manager) Active(ownerID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[ownerID]
	return ok
}

// Cancel clears the owner's session; false when none was live.
func (m *Manager) Cancel(ownerID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[ownerID]
	delete(m.sessions, ownerID)
	return ok
}

// Advance feeds one input to the owner's session.
func (m *Manager) Advance(ctx context.Context, ownerID int64, input string) (Result, error) {
	m.mu.Lock()

	s, ok := m.sessions[ownerID]
	if !ok {
		m.mu.Unlock()
		return Result{}, ErrNoSession
	}

	if _, isCancel := m.cancel[input]; isCancel {
		delete(m.sessions, ownerID)
		m.mu.Unlock()
		return Result{Done: true, Cancelled: true}, nil
	}

	w := m.wizards[s.Wizard]
	step := w.Steps[s.Step]
	s.LastActive = m.now()

	if err := step.Parse(s, input); err != nil {
		prompt := step.Prompt(s)
		m.mu.Unlock()
		return Result{Prompt: &prompt, Rejected: err}, nil
	}

	s.Step++
	if s.Step < len(w.Steps) {
		prompt := w.Steps[s.Step].Prompt(s)
		m.mu.Unlock()
		return Result{Prompt: &prompt}, nil
	}

	// Terminal step: the session is gone before the domain operation
	// runs, and it is not restored on failure.
	delete(m.sessions, ownerID)
	m.mu.Unlock()

	reply, err := w.Finish(ctx, s)
	if err != nil {
		return Result{Done: true}, fmt.Errorf("finish %s: %w", s.Wizard, err)
	}
	return Result{Done: true, Reply: reply}, nil
}

// Sweep clears sessions idle longer than the configured window and returns
// how many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	if m.idle <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for owner, s := range m.sessions {
		if now.Sub(s.LastActive) > m.idle {
			delete(m.sessions, owner)
			dropped++
		}
	}
	return dropped
}

// Run sweeps idle sessions periodically until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if dropped := m.Sweep(now); dropped > 0 {
				slog.InfoContext(ctx, "Swept idle dialog sessions", "count", dropped)
			}
		}
	}
}
