package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialogue_ai/dialogue"
	"dialogue_ai/journal"
	"dialogue_ai/personality"
	"dialogue_ai/session"
	"dialogue_ai/story"
)

func newTestHandler(t *testing.T, withJournal bool) *Handler {
	t.Helper()
	var store journal.Service
	if withJournal {
		svc, err := journal.NewSQLiteService(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = svc.Close() })
		store = svc
	}
	characters := story.DefaultCharacters()
	cfg := story.DefaultConfig()
	cfg.ExchangeLimit = 2

	mgr := session.NewManager(func(id string) (*story.Controller, error) {
		deps := story.Deps{
			Catalog:    dialogue.DefaultCatalog(),
			Traits:     personality.DefaultTable(),
			Characters: characters,
			Locations:  story.DefaultLocations(),
		}
		if store != nil {
			deps.Recorder = store
		}
		return story.NewController(id, cfg, deps)
	})
	return &Handler{Manager: mgr, Store: store, Characters: characters}
}

type client struct {
	t      *testing.T
	h      *Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, form url.Values) (*httptest.ResponseRecorder, story.Snapshot) {
	c.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()

	switch path {
	case "/start":
		c.h.Start(rec, req)
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == session.CookieName {
				c.cookie = ck
			}
		}
	case "/state":
		c.h.State(rec, req)
	case "/select":
		c.h.Select(rec, req)
	case "/advance":
		c.h.Advance(rec, req)
	case "/location":
		c.h.ChooseLocation(rec, req)
	default:
		c.t.Fatalf("unrouted path %s", path)
	}

	var snap story.Snapshot
	if rec.Code == http.StatusOK {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &snap))
	}
	return rec, snap
}

func TestHTTPConversationCycle(t *testing.T) {
	c := &client{t: t, h: newTestHandler(t, true)}

	rec, snap := c.do(http.MethodPost, "/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)
	assert.Equal(t, story.StateConversing, snap.State)
	assert.Len(t, snap.Offered, 4)
	first := snap.Character.ID

	for i := 0; i < 2; i++ {
		form := url.Values{"option": {strconv.Itoa(snap.Offered[0].ID)}}
		rec, snap = c.do(http.MethodPost, "/select", form)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, i+1, snap.ExchangeCount)
		assert.Contains(t, []string{"Thanks!", "Get lost!", "I feel neutral about this."}, snap.LastReply)
	}
	assert.Equal(t, story.StateAwaitingAdvance, snap.State)

	rec, _ = c.do(http.MethodPost, "/select", url.Values{"option": {"1"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, snap = c.do(http.MethodPost, "/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, story.StateChoosingLocation, snap.State)
	require.NotEmpty(t, snap.LocationChoices)

	rec, _ = c.do(http.MethodPost, "/location", url.Values{"location": {"nowhere"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dest := snap.LocationChoices[0]
	rec, snap = c.do(http.MethodPost, "/location", url.Values{"location": {dest.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, story.StateConversing, snap.State)
	assert.Equal(t, dest.ID, snap.Location.ID)
	assert.NotEqual(t, first, snap.Character.ID)
	assert.Zero(t, snap.ExchangeCount)

	req := httptest.NewRequest(http.MethodGet, "/journal", nil)
	req.AddCookie(c.cookie)
	jrec := httptest.NewRecorder()
	c.h.Journal(jrec, req)
	require.Equal(t, http.StatusOK, jrec.Code)
	var view journalView
	require.NoError(t, json.Unmarshal(jrec.Body.Bytes(), &view))
	assert.Len(t, view.Exchanges, 2)
	assert.Len(t, view.Rotations, 1)
}

func TestHTTPBadInput(t *testing.T) {
	c := &client{t: t, h: newTestHandler(t, false)}

	rec, _ := c.do(http.MethodPost, "/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c.do(http.MethodPost, "/start", nil)
	rec, _ = c.do(http.MethodPost, "/select", url.Values{"option": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, snap := c.do(http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	offered := map[int]bool{}
	for _, o := range snap.Offered {
		offered[o.ID] = true
	}
	notOffered := 1
	for offered[notOffered] {
		notOffered++
	}
	rec, _ = c.do(http.MethodPost, "/select", url.Values{"option": {strconv.Itoa(notOffered)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = c.do(http.MethodPost, "/advance", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/journal", nil)
	req.AddCookie(c.cookie)
	jrec := httptest.NewRecorder()
	c.h.Journal(jrec, req)
	assert.Equal(t, http.StatusNotImplemented, jrec.Code)
}

func TestHTMLScene(t *testing.T) {
	h := newTestHandler(t, false)
	rec := httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodPost, "/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-post="/select"`)
}

func TestDownload(t *testing.T) {
	c := &client{t: t, h: newTestHandler(t, true)}
	_, snap := c.do(http.MethodPost, "/start", nil)
	c.do(http.MethodPost, "/select", url.Values{"option": {strconv.Itoa(snap.Offered[0].ID)}})

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.AddCookie(c.cookie)
	rec := httptest.NewRecorder()
	c.h.Download(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	lines := c.h.transcript(req, snap)
	require.Len(t, lines, 2)
	assert.Equal(t, "You", lines[0].Speaker)
	assert.Equal(t, snap.Character.DisplayName, lines[1].Speaker)
}

func TestWritePDFWithoutLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTranscriptPDF(&buf, "Empty", nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestSocket(t *testing.T) {
	h := newTestHandler(t, false)
	srv := httptest.NewServer(http.HandlerFunc(h.Socket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "snapshot", msg.Type)
	require.NotNil(t, msg.Snapshot)
	optionID := msg.Snapshot.Offered[0].ID

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "select"}))
	msg = serverMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "select", Option: &optionID}))
	msg = serverMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, 1, msg.Snapshot.ExchangeCount, "the rejected select must not count")

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "advance"}))
	msg = serverMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, http.StatusConflict, msg.Status)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "dance"}))
	msg = serverMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)
}
