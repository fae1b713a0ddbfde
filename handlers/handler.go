package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"dialogue_ai/journal"
	"dialogue_ai/session"
	"dialogue_ai/story"
	"dialogue_ai/templates"
)

// Handler serves the conversation over HTTP. Store and Characters may be nil.
type Handler struct {
	Manager    *session.Manager
	Store      journal.Service
	Characters *story.CharacterRegistry
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, story.ErrWrongState):
		return http.StatusConflict
	case errors.Is(err, story.ErrUnknownOption), errors.Is(err, story.ErrUnknownLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Encode response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
	}
	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(status)
	templates.Notice(err.Error()).Render(r.Context(), w)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, snap story.Snapshot) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	templates.Scene(snap).Render(r.Context(), w)
}

// entry resolves the caller's session.
func (h *Handler) entry(r *http.Request) (*session.Entry, error) {
	id, ok := session.IDFromRequest(r)
	if !ok {
		return nil, session.ErrNotFound
	}
	return h.Manager.Get(id)
}

// act runs fn against the caller's session and renders the resulting snapshot.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(c *story.Controller) error) {
	e, err := h.entry(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var snap story.Snapshot
	err = e.Do(func(c *story.Controller) error {
		if err := fn(c); err != nil {
			return err
		}
		snap = c.Snapshot()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, snap)
}

// Start begins a new session with a random character.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, e, err := h.Manager.Create()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	session.SetCookie(w, id)
	h.render(w, r, e.Snapshot())
}

// State returns the caller's current snapshot.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(*story.Controller) error { return nil })
}

// Select plays the offered option named by the "option" form value.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("option"))
	optionID, err := strconv.Atoi(raw)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %q", story.ErrUnknownOption, raw))
		return
	}
	h.act(w, r, func(c *story.Controller) error {
		_, err := c.Select(r.Context(), optionID)
		return err
	})
}

// Advance leaves the finished conversation and offers locations.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *story.Controller) error { return c.Advance() })
}

// ChooseLocation moves to the location named by the "location" form value.
func (h *Handler) ChooseLocation(w http.ResponseWriter, r *http.Request) {
	locationID := strings.TrimSpace(r.FormValue("location"))
	h.act(w, r, func(c *story.Controller) error { return c.ChooseLocation(r.Context(), locationID) })
}

type journalView struct {
	SessionID string           `json:"session_id"`
	Exchanges []story.Exchange `json:"exchanges"`
	Rotations []story.Rotation `json:"rotations"`
}

// Journal returns everything recorded for the caller's session as JSON.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	id, ok := session.IDFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": session.ErrNotFound.Error()})
		return
	}
	if h.Store == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "journal disabled"})
		return
	}
	view := journalView{SessionID: id}
	var err error
	if view.Exchanges, err = h.Store.Exchanges(r.Context(), id); err == nil {
		view.Rotations, err = h.Store.Rotations(r.Context(), id)
	}
	if err != nil {
		log.Printf("[Session %s] Journal read failed: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}
