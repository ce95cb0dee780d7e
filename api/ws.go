package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"persona-panel/panel"
	"persona-panel/worldinfo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type   string           `json:"type"`
	Notice *panel.Notice    `json:"notice,omitempty"`
	Books  []worldinfo.Book `json:"books,omitempty"`
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	s := panelFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "panel", s.ID, "error", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	outChan := make(chan panel.Notice, 64)
	kick := s.SetClient(outChan)
	defer s.ClearClient(outChan)

	for _, n := range s.Notices() {
		if err := writeMsg(wsMessage{Type: "notice", Notice: &n}); err != nil {
			h.log.Debug("websocket backlog replay", "panel", s.ID, "error", err)
			return
		}
	}

	// Exits when ClearClient closes outChan.
	go func() {
		for n := range outChan {
			if err := writeMsg(wsMessage{Type: "notice", Notice: &n}); err != nil {
				return
			}
		}
	}()

	// Close the connection on panel close or displacement so the read loop
	// below unblocks.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-s.Done():
			_ = writeMsg(wsMessage{Type: "closed"})
			conn.Close()
		case <-kick:
			select {
			case <-s.Done():
				_ = writeMsg(wsMessage{Type: "closed"})
			default:
			}
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "books":
			if err := s.RefreshBooks(r.Context()); err != nil {
				h.log.Debug("book refresh", "panel", s.ID, "error", err)
			}
			books := s.Books()
			if books == nil {
				books = []worldinfo.Book{}
			}
			if err := writeMsg(wsMessage{Type: "books", Books: books}); err != nil {
				return
			}
		}
	}
}
