package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/form"
	"github.com/dlovans/formcraft/pkg/session"
	"github.com/dlovans/formcraft/pkg/store"
)

type sessionView struct {
	Session  string              `json:"session"`
	Form     string              `json:"form"`
	State    session.State       `json:"state"`
	Values   form.Snapshot       `json:"values"`
	Failures map[string][]string `json:"failures"`
}

func view(id string, s *session.Session) sessionView {
	return sessionView{
		Session:  id,
		Form:     s.Form().ID,
		State:    s.State(),
		Values:   s.Values(),
		Failures: s.Failures(),
	}
}

// POST /api/forms/{id}/sessions -> open a preview session
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("id")
	sess := session.New(
		session.WithClock(s.now),
		session.WithSubmitter(s.submitter),
		session.WithLogger(s.log))

	if err := sess.Open(r.Context(), s.forms, formID); err != nil {
		// The session never left Loading; it is not retained.
		jsonErr(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	id := s.newID()
	s.mu.Lock()
	s.sessions[id] = &liveSession{s: sess}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, view(id, sess))
}

// lookup runs fn with the session locked, or writes a 404 when the session
// does not exist.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, fn func(id string, sess *session.Session)) {
	id := r.PathValue("sid")
	s.mu.Lock()
	live, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		jsonErr(w, http.StatusNotFound, "session_not_found", "no session "+id)
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()
	fn(id, live.s)
}

// GET /api/sessions/{sid}
func (s *Server) handleShowSession(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, func(id string, sess *session.Session) {
		writeJSON(w, http.StatusOK, view(id, sess))
	})
}

// DELETE /api/sessions/{sid} -> navigate away, discarding the snapshot
func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sid")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		jsonErr(w, http.StatusNotFound, "session_not_found", "no session "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/sessions/{sid}/values/{fieldId} {value}
func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Value form.Value `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	s.lookup(w, r, func(id string, sess *session.Session) {
		changed, err := sess.SetValue(r.PathValue("fieldId"), in.Value)
		switch {
		case errors.Is(err, session.ErrUnknownField):
			jsonErr(w, http.StatusNotFound, "unknown_field", err.Error())
			return
		case errors.Is(err, session.ErrInvalidValue):
			jsonErr(w, http.StatusUnprocessableEntity, "invalid_value", err.Error())
			return
		case errors.Is(err, session.ErrReadOnlyField):
			jsonErr(w, http.StatusConflict, "read_only", err.Error())
			return
		case err != nil:
			jsonErr(w, http.StatusConflict, "not_ready", err.Error())
			return
		}
		if changed == nil {
			changed = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"changed":  changed,
			"values":   sess.Values(),
			"failures": sess.Failures(),
		})
	})
}

// POST /api/sessions/{sid}/submit
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, func(id string, sess *session.Session) {
		err := sess.Submit(r.Context())

		var verr *session.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, view(id, sess))
		case errors.Is(err, session.ErrSubmitted), errors.Is(err, session.ErrNotReady):
			jsonErr(w, http.StatusConflict, "not_ready", err.Error())
		case err != nil:
			s.log.Error("submit", zap.String("session", id), zap.Error(err))
			jsonErr(w, http.StatusBadGateway, "submit_failed", err.Error())
		default:
			writeJSON(w, http.StatusOK, view(id, sess))
		}
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
