// Package httpapi exposes the create, list and preview views as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/builder"
	"github.com/dlovans/formcraft/pkg/form"
	"github.com/dlovans/formcraft/pkg/lint"
	"github.com/dlovans/formcraft/pkg/session"
)

// FormStore is the persisted form collection.
type FormStore interface {
	Append(ctx context.Context, f form.Form) error
	LoadAll(ctx context.Context) []form.Form
	Find(ctx context.Context, id string) (form.Form, error)
	Remove(ctx context.Context, id string) error
}

// Server routes API requests. Preview sessions live in memory only.
type Server struct {
	forms     FormStore
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
	submitter session.Submitter

	mu       sync.Mutex
	sessions map[string]*liveSession

	mux *http.ServeMux
}

// liveSession serialises the events of one rendering session.
type liveSession struct {
	mu sync.Mutex
	s  *session.Session
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithClock sets the clock for createdAt and date formulas.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithIDs sets the generator for form and session ids.
func WithIDs(newID func() string) Option {
	return func(s *Server) { s.newID = newID }
}

// WithSubmitter sets where successful submissions are delivered.
func WithSubmitter(sub session.Submitter) Option {
	return func(s *Server) { s.submitter = sub }
}

// New creates the API server over forms.
func New(forms FormStore, opts ...Option) *Server {
	s := &Server{
		forms:    forms,
		log:      zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*liveSession),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/field-types", s.handleFieldTypes)

	s.mux.HandleFunc("GET /api/forms", s.handleListForms)
	s.mux.HandleFunc("POST /api/forms", s.handleCreateForm)
	s.mux.HandleFunc("GET /api/forms/{id}", s.handleShowForm)
	s.mux.HandleFunc("DELETE /api/forms/{id}", s.handleRemoveForm)
	s.mux.HandleFunc("POST /api/forms/{id}/sessions", s.handleOpenSession)

	s.mux.HandleFunc("GET /api/sessions/{sid}", s.handleShowSession)
	s.mux.HandleFunc("DELETE /api/sessions/{sid}", s.handleDiscardSession)
	s.mux.HandleFunc("PUT /api/sessions/{sid}/values/{fieldId}", s.handleSetValue)
	s.mux.HandleFunc("POST /api/sessions/{sid}/submit", s.handleSubmit)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("took", time.Since(start)))
}

// SessionCount reports how many preview sessions are open.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// GET / -> the saved forms list
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/forms", http.StatusFound)
}

// GET /api/field-types -> the field palette
func (s *Server) handleFieldTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types":            form.FieldTypes(),
		"calculationTypes": form.CalculationTypes,
	})
}

type formSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Fields    int       `json:"fields"`
}

// GET /api/forms -> saved forms in save order
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms := s.forms.LoadAll(r.Context())
	items := make([]formSummary, 0, len(forms))
	for _, f := range forms {
		items = append(items, formSummary{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt, Fields: len(f.Fields)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forms": items,
		"count": len(items),
	})
}

// POST /api/forms {name, fields} -> persist a draft
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var draft form.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	b := builder.New(s.forms,
		builder.WithLogger(s.log),
		builder.WithClock(s.now),
		builder.WithIDs(s.newID))
	b.Load(draft)
	report := lint.Check(b.Draft().Fields)

	// The request is the prompt: no usable name means no save.
	f, err := b.Save(r.Context(), nil)
	switch {
	case errors.Is(err, builder.ErrSaveAborted):
		jsonErr(w, http.StatusUnprocessableEntity, "name_required", "form name must be set and not "+form.PlaceholderName)
		return
	case errors.Is(err, form.ErrInvalidSchema):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "invalid_schema",
			"message": err.Error(),
			"issues":  report.Issues,
		})
		return
	case err != nil:
		s.log.Error("save form", zap.Error(err))
		jsonErr(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"form":   f,
		"issues": report.Issues,
	})
}

// GET /api/forms/{id}
func (s *Server) handleShowForm(w http.ResponseWriter, r *http.Request) {
	f, err := s.forms.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		jsonErr(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DELETE /api/forms/{id}
func (s *Server) handleRemoveForm(w http.ResponseWriter, r *http.Request) {
	if err := s.forms.Remove(r.Context(), r.PathValue("id")); err != nil {
		if isNotFound(err) {
			jsonErr(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.log.Error("remove form", zap.Error(err))
		jsonErr(w, http.StatusInternalServerError, "remove_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
