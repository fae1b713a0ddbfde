package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dialogue_ai/session"
	"dialogue_ai/story"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// clientMessage is one player action on the socket.
type clientMessage struct {
	Type     string `json:"type"` // "select", "advance", "location" or "state"
	Option   *int   `json:"option,omitempty"`
	Location string `json:"location,omitempty"`
}

// serverMessage answers every client message.
type serverMessage struct {
	Type     string          `json:"type"` // "snapshot" or "error"
	Snapshot *story.Snapshot `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
	Status   int             `json:"status,omitempty"`
}

var errUnknownMessage = errors.New("unknown message type")

func apply(c *story.Controller, r *http.Request, msg clientMessage) error {
	switch msg.Type {
	case "select":
		if msg.Option == nil {
			return fmt.Errorf("%w: no option given", story.ErrUnknownOption)
		}
		_, err := c.Select(r.Context(), *msg.Option)
		return err
	case "advance":
		return c.Advance()
	case "location":
		return c.ChooseLocation(r.Context(), msg.Location)
	case "state":
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}
}

// Socket drives a session over a websocket. It resumes the caller's
// session when one exists and starts a new one otherwise.
func (h *Handler) Socket(w http.ResponseWriter, r *http.Request) {
	e, err := h.entry(r)
	if errors.Is(err, session.ErrNotFound) {
		var id string
		id, e, err = h.Manager.Create()
		if err == nil {
			session.SetCookie(w, id)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		log.Printf("[Socket] Upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	snap := e.Snapshot()
	log.Printf("[Session %s] Socket connected", snap.SessionID)
	if err := send(conn, serverMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Session %s] Socket read error: %v", snap.SessionID, err)
			}
			return
		}

		var out serverMessage
		err := e.Do(func(c *story.Controller) error {
			if err := apply(c, r, msg); err != nil {
				return err
			}
			s := c.Snapshot()
			out = serverMessage{Type: "snapshot", Snapshot: &s}
			return nil
		})
		if err != nil {
			status := statusFor(err)
			if errors.Is(err, errUnknownMessage) {
				status = http.StatusBadRequest
			}
			out = serverMessage{Type: "error", Error: err.Error(), Status: status}
		}
		if err := send(conn, out); err != nil {
			return
		}
	}
}

func send(conn *websocket.Conn, msg serverMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// keepAlive pings until done is closed. WriteControl may run alongside the
// read loop's writes.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
