// Package session keeps one conversation controller per player.
package session

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dialogue_ai/story"
)

// CookieName carries the session id between requests.
const CookieName = "dialogue_session"

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Factory builds a fresh controller for a new session id.
type Factory func(id string) (*story.Controller, error)

// Entry serializes access to one controller. Different sessions never block
// each other, and reading an entry's idle time never waits on its lock.
type Entry struct {
	mu      sync.Mutex
	ctrl    *story.Controller
	touched atomic.Int64 // unix nanos of the last Do
}

func newEntry(ctrl *story.Controller) *Entry {
	e := &Entry{ctrl: ctrl}
	e.touch()
	return e
}

func (e *Entry) touch() { e.touched.Store(time.Now().UnixNano()) }

// Do runs fn with exclusive access to the controller. The entry counts as
// used from the moment Do is called, so a session waiting on a slow reply
// is never idle.
func (e *Entry) Do(fn func(c *story.Controller) error) error {
	e.touch()
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ctrl)
}

// Snapshot returns the controller's current snapshot.
func (e *Entry) Snapshot() story.Snapshot {
	var snap story.Snapshot
	_ = e.Do(func(c *story.Controller) error {
		snap = c.Snapshot()
		return nil
	})
	return snap
}

func (e *Entry) idleSince() time.Time {
	return time.Unix(0, e.touched.Load())
}

// Manager owns every live session.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	factory Factory
}

// NewManager creates an empty manager.
func NewManager(factory Factory) *Manager {
	return &Manager{
		entries: make(map[string]*Entry),
		factory: factory,
	}
}

// Create starts a new session under a random id.
func (m *Manager) Create() (string, *Entry, error) {
	id := uuid.NewString()
	ctrl, err := m.factory(id)
	if err != nil {
		return "", nil, err
	}
	e := newEntry(ctrl)

	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()

	log.Printf("[Session %s] Created", id)
	return id, e, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete drops a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Prune removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.RLock()
	var stale []string
	for id, e := range m.entries {
		if e.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}
	removed := 0
	m.mu.Lock()
	for _, id := range stale {
		// Used again since the scan.
		if e, ok := m.entries[id]; ok && e.idleSince().Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	m.mu.Unlock()
	if removed > 0 {
		log.Printf("[Sessions] Pruned %d idle session(s)", removed)
	}
	return removed
}

// SetCookie stores the session id on the response.
func SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// IDFromRequest reads the session id from the cookie, falling back to the
// "session" query parameter.
func IDFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	if id := r.URL.Query().Get("session"); id != "" {
		return id, true
	}
	return "", false
}
