// Package session drives one rendering of a persisted form: it owns the live
// value snapshot, reapplies derivations after every change and gates
// submission on validation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/form"
)

// State is a session lifecycle stage.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

var (
	ErrFormNotFound  = errors.New("form not found")
	ErrNotReady      = errors.New("session not ready")
	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field is derived and read-only")
	ErrInvalidValue  = errors.New("value does not fit the field")
	ErrSubmitted     = errors.New("session already submitted")
)

// ValidationError reports the fields that blocked a submit.
type ValidationError struct {
	Failures map[string][]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("validation failed for %d field(s): %s", len(ids), strings.Join(ids, ", "))
}

// Source resolves a persisted form by id.
type Source interface {
	Find(ctx context.Context, id string) (form.Form, error)
}

// Submitter receives the final values of a successful submit.
type Submitter interface {
	Submit(ctx context.Context, f form.Form, values form.Snapshot) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, f form.Form, values form.Snapshot) error

func (fn SubmitFunc) Submit(ctx context.Context, f form.Form, values form.Snapshot) error {
	return fn(ctx, f, values)
}

// Session is the controller for one rendering. It is not safe for concurrent
// use; callers serialise events per session.
type Session struct {
	state     State
	form      form.Form
	engine    *form.Engine
	values    form.Snapshot
	failures  map[string][]string
	validated bool // a submit has run; changes revalidate their field

	submitter Submitter
	now       func() time.Time
	log       *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSubmitter sets the collaborator that receives submitted values.
func WithSubmitter(sub Submitter) Option {
	return func(s *Session) { s.submitter = sub }
}

// WithClock sets the clock used by date formulas.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// New returns a session in the Loading state.
func New(opts ...Option) *Session {
	s := &Session{
		state:    StateLoading,
		failures: map[string][]string{},
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open resolves formID through src and starts the session. When the form
// cannot be found the session stays in Loading.
func (s *Session) Open(ctx context.Context, src Source, formID string) error {
	if s.state != StateLoading {
		return fmt.Errorf("open %s: %w", formID, ErrNotReady)
	}
	f, err := src.Find(ctx, formID)
	if err != nil {
		s.log.Debug("form not resolved", zap.String("form", formID), zap.Error(err))
		return fmt.Errorf("open %s: %w: %w", formID, ErrFormNotFound, err)
	}
	return s.Start(f)
}

// Start moves a Loading session to Ready with an already resolved form.
// The snapshot starts from the field defaults and one derivation pass runs.
func (s *Session) Start(f form.Form) error {
	if s.state != StateLoading {
		return fmt.Errorf("start %s: %w", f.ID, ErrNotReady)
	}
	s.form = f.Clone()
	s.engine = form.NewEngine(&s.form, form.WithClock(s.now))
	s.values, _ = s.engine.Recompute(form.InitialSnapshot(&s.form))
	s.transition(StateReady)
	return nil
}

// SetValue records a raw input for a non-derived field and applies one
// derivation pass. It returns the derived field ids the pass changed.
// The input is coerced to the field's kind; a value the field type cannot
// hold is rejected with ErrInvalidValue and leaves the snapshot unchanged.
func (s *Session) SetValue(fieldID string, v form.Value) ([]string, error) {
	if err := s.requireReady("set " + fieldID); err != nil {
		return nil, err
	}
	field, ok := s.form.FieldByID(fieldID)
	if !ok {
		return nil, fmt.Errorf("set %s: %w", fieldID, ErrUnknownField)
	}
	if field.IsDerived {
		return nil, fmt.Errorf("set %s: %w", fieldID, ErrReadOnlyField)
	}

	v, err := form.Coerce(field, v)
	if err != nil {
		s.log.Debug("value rejected", zap.String("field", fieldID), zap.Error(err))
		return nil, fmt.Errorf("set %s: %w: %w", fieldID, ErrInvalidValue, err)
	}

	s.values[fieldID] = v
	next, changed := s.engine.Recompute(s.values)
	s.values = next

	if s.validated {
		s.revalidate(append([]string{fieldID}, changed...))
	}
	return changed, nil
}

// Submit validates every field. With failures the session returns to Ready
// and a *ValidationError is returned; otherwise the values go to the
// submitter and the session ends in Submitted. A submitter error also
// returns the session to Ready.
func (s *Session) Submit(ctx context.Context) error {
	if err := s.requireReady("submit"); err != nil {
		return err
	}
	s.transition(StateSubmitting)

	s.validated = true
	s.failures = form.ValidateAll(&s.form, s.values)
	if len(s.failures) > 0 {
		s.transition(StateReady)
		s.log.Info("submit blocked", zap.String("form", s.form.ID), zap.Int("failing", len(s.failures)))
		return &ValidationError{Failures: s.Failures()}
	}

	if s.submitter != nil {
		if err := s.submitter.Submit(ctx, s.form.Clone(), s.values.Clone()); err != nil {
			s.transition(StateReady)
			s.log.Error("submit failed", zap.String("form", s.form.ID), zap.Error(err))
			return fmt.Errorf("submit: %w", err)
		}
	}

	s.transition(StateSubmitted)
	s.log.Info("form submitted", zap.String("form", s.form.ID))
	return nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State { return s.state }

// Form returns the form being rendered. Zero while Loading.
func (s *Session) Form() form.Form { return s.form.Clone() }

// Values returns a copy of the live snapshot.
func (s *Session) Values() form.Snapshot { return s.values.Clone() }

// Failures returns a copy of the per-field failures from the last submit,
// kept current for fields changed since.
func (s *Session) Failures() map[string][]string {
	out := make(map[string][]string, len(s.failures))
	for id, msgs := range s.failures {
		out[id] = append([]string(nil), msgs...)
	}
	return out
}

func (s *Session) revalidate(ids []string) {
	for _, id := range ids {
		field, ok := s.form.FieldByID(id)
		if !ok {
			continue
		}
		if msgs := form.Validate(field, s.values.Get(id)); len(msgs) > 0 {
			s.failures[id] = msgs
		} else {
			delete(s.failures, id)
		}
	}
}

func (s *Session) requireReady(op string) error {
	switch s.state {
	case StateReady:
		return nil
	case StateSubmitted:
		return fmt.Errorf("%s: %w", op, ErrSubmitted)
	default:
		return fmt.Errorf("%s: %w (state %s)", op, ErrNotReady, s.state)
	}
}

func (s *Session) transition(next State) {
	s.log.Debug("session transition",
		zap.String("form", s.form.ID),
		zap.String("from", string(s.state)),
		zap.String("to", string(next)))
	s.state = next
}
