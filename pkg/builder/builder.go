// Package builder owns the draft being edited and turns it into a persisted
// form on save.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/form"
)

// ErrSaveAborted is returned when no usable name was supplied at save time.
var ErrSaveAborted = errors.New("save aborted: no form name")

// SuggestedName is offered when the draft still carries the placeholder.
const SuggestedName = "My New Form"

// Appender persists one form.
type Appender interface {
	Append(ctx context.Context, f form.Form) error
}

// NamePrompter asks the editor for a form name. ok is false when the user
// cancelled.
type NamePrompter interface {
	PromptName(suggested string) (name string, ok bool)
}

// PromptFunc adapts a function to NamePrompter.
type PromptFunc func(suggested string) (string, bool)

func (f PromptFunc) PromptName(suggested string) (string, bool) { return f(suggested) }

// Builder holds one editing session's draft. It is not safe for concurrent
// use; the editor drives it from a single goroutine.
type Builder struct {
	draft *form.Draft
	store Appender
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.log = logger
		}
	}
}

// WithClock sets the clock used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDs sets the form id generator.
func WithIDs(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// New creates a builder with an empty draft that saves through store.
func New(store Appender, opts ...Option) *Builder {
	b := &Builder{
		draft: form.NewDraft(),
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Draft returns a copy of the current draft for display.
func (b *Builder) Draft() form.Draft {
	f := form.Form{Fields: b.draft.Fields}.Clone()
	return form.Draft{Name: b.draft.Name, Fields: f.Fields}
}

// Load replaces the draft, e.g. with one read from a file or a request.
// Fields without an id are given a fresh one.
func (b *Builder) Load(d form.Draft) {
	f := form.Form{Fields: d.Fields}.Clone()
	if f.Fields == nil {
		f.Fields = []form.Field{}
	}
	for i := range f.Fields {
		if f.Fields[i].ID == "" {
			f.Fields[i].ID = uuid.NewString()
		}
	}
	b.draft = &form.Draft{Name: d.Name, Fields: f.Fields}
}

// SetName sets the draft name.
func (b *Builder) SetName(name string) { b.draft.SetName(name) }

// AddField appends a field and returns it.
func (b *Builder) AddField(t form.FieldType, label string, options []string) form.Field {
	return b.draft.AddField(t, label, options)
}

// UpdateField merges patch into a field. Unknown ids change nothing.
func (b *Builder) UpdateField(id string, patch form.FieldPatch) error {
	if !b.draft.UpdateField(id, patch) {
		return fmt.Errorf("update field %s: %w", id, form.ErrFieldNotFound)
	}
	return nil
}

// RemoveField deletes a field. Unknown ids change nothing.
func (b *Builder) RemoveField(id string) error {
	if !b.draft.RemoveField(id) {
		return fmt.Errorf("remove field %s: %w", id, form.ErrFieldNotFound)
	}
	return nil
}

// ReorderField moves a field between positions.
func (b *Builder) ReorderField(from, to int) error {
	return b.draft.ReorderField(from, to)
}

// Reset discards the draft.
func (b *Builder) Reset() {
	b.draft = form.NewDraft()
}

// Save persists the draft under a fresh id and resets the builder. When the
// draft has no usable name the prompter is asked once; a cancelled or blank
// answer aborts the save with ErrSaveAborted and nothing is written.
func (b *Builder) Save(ctx context.Context, prompt NamePrompter) (form.Form, error) {
	if b.draft.NeedsName() {
		if prompt == nil {
			return form.Form{}, ErrSaveAborted
		}
		name, ok := prompt.PromptName(SuggestedName)
		name = strings.TrimSpace(name)
		if !ok || form.NeedsName(name) {
			b.log.Debug("save aborted", zap.Bool("cancelled", !ok))
			return form.Form{}, ErrSaveAborted
		}
		b.draft.SetName(name)
	}

	f, err := b.draft.Persist(b.newID(), b.now())
	if err != nil {
		return form.Form{}, fmt.Errorf("save: %w", err)
	}
	if err := b.store.Append(ctx, f); err != nil {
		return form.Form{}, fmt.Errorf("save %s: %w", f.ID, err)
	}

	b.log.Info("form saved",
		zap.String("id", f.ID),
		zap.String("name", f.Name),
		zap.Int("fields", len(f.Fields)))
	b.Reset()
	return f, nil
}
