package main

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	csmap "github.com/mhmtszr/concurrent-swiss-map"

	"tree-browser/workspace"
)

const (
	wsWriteTimeout = 5 * time.Second
	// snapshots queued per connection before further ones are skipped
	wsOutboxSize = 16
)

// WSRequest is a gesture sent by the embedding page.
type WSRequest struct {
	RequestID int      `json:"requestId"`
	Action    string   `json:"action"`
	Pane      string   `json:"pane"`
	NodeID    string   `json:"nodeId"`
	Name      string   `json:"name"`
	To        string   `json:"to"`
	TargetID  string   `json:"targetId"`
	Token     string   `json:"token"`
	Hovered   []string `json:"hovered"`
}

// WSMessage is either a reply to a request (Type "reply", same RequestID) or
// a broadcast of the new state after an applied change (Type "snapshot").
type WSMessage struct {
	Type      string              `json:"type"`
	RequestID int                 `json:"requestId,omitempty"`
	Status    string              `json:"status,omitempty"`
	Error     string              `json:"error,omitempty"`
	Applied   *bool               `json:"applied,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	Seq       uint64              `json:"seq,omitempty"`
	Created   string              `json:"created,omitempty"`
	Drag      *workspace.Drag     `json:"drag,omitempty"`
	Over      *string             `json:"over,omitempty"`
	Cancelled *bool               `json:"cancelled,omitempty"`
	State     *workspace.Snapshot `json:"state,omitempty"`
	Change    *workspace.Change   `json:"change,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	mu     sync.Mutex // replies and broadcasts write concurrently
	outbox chan WSMessage
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, outbox: make(chan WSMessage, wsOutboxSize)}
}

func (cl *wsClient) send(msg WSMessage) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return cl.conn.WriteJSON(msg)
}

// enqueue never blocks. It reports false when the outbox is full.
func (cl *wsClient) enqueue(msg WSMessage) bool {
	select {
	case cl.outbox <- msg:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbox until done is closed or a write fails.
func (cl *wsClient) writeLoop(done <-chan struct{}) {
	for {
		select {
		case msg := <-cl.outbox:
			if err := cl.send(msg); err != nil {
				log.Printf("Error sending snapshot: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

type hub struct {
	clients *csmap.CsMap[string, *wsClient]
}

func newHub() *hub {
	return &hub{clients: csmap.Create[string, *wsClient]()}
}

func (h *hub) add(cl *wsClient) string {
	id := uuid.NewString()
	h.clients.Store(id, cl)
	return id
}

func (h *hub) remove(id string) {
	h.clients.Delete(id)
}

func (h *hub) count() int {
	return h.clients.Count()
}

// broadcast is a Store subscriber: every applied change is queued for all
// connected pages together with the resulting state. It runs while the store
// holds its notify lock, so it never writes to a socket itself. A page whose
// outbox is full misses that snapshot; every snapshot carries the full state.
func (h *hub) broadcast(ev workspace.Event) {
	if !ev.Change.Applied {
		return
	}
	state := ev.State
	change := ev.Change
	msg := WSMessage{Type: "snapshot", Seq: change.Seq, State: &state, Change: &change}

	type target struct {
		id string
		cl *wsClient
	}
	var targets []target
	h.clients.Range(func(id string, cl *wsClient) bool {
		targets = append(targets, target{id, cl})
		return false
	})

	for _, t := range targets {
		if !t.cl.enqueue(msg) {
			log.Printf("Outbox full for %s, skipping snapshot %d", t.id, change.Seq)
		}
	}
}

func (srv *server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()

	cl := newWSClient(c)
	id := srv.hub.add(cl)
	defer srv.hub.remove(id)

	log.Printf("WebSocket connected: %s", id)

	// Snapshots broadcast from here on wait in the outbox, so the page sees
	// the initial state first.
	state := srv.store.Snapshot()
	if err := cl.send(WSMessage{Type: "snapshot", Seq: state.Seq, State: &state}); err != nil {
		log.Printf("Error sending initial snapshot: %v", err)
		return
	}

	done := make(chan struct{})
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		cl.writeLoop(done)
	}()
	defer func() {
		close(done)
		writer.Wait()
	}()

	for {
		var req WSRequest
		if err := c.ReadJSON(&req); err != nil {
			log.Printf("WebSocket read error: %v", err)
			return
		}

		reply := srv.dispatch(req)
		if err := cl.send(reply); err != nil {
			log.Printf("Error sending reply: %v", err)
			return
		}
	}
}

// dispatch runs one request against the store and builds its reply.
func (srv *server) dispatch(req WSRequest) WSMessage {
	reply := WSMessage{Type: "reply", RequestID: req.RequestID, Status: "ok"}
	fail := func(err error) WSMessage {
		reply.Status = "error"
		reply.Error = err.Error()
		return reply
	}
	changed := func(ch workspace.Change, err error) WSMessage {
		if errors.Is(err, workspace.ErrUnknownPane) {
			return fail(err)
		}
		applied := ch.Applied
		reply.Applied = &applied
		reply.Seq = ch.Seq
		reply.Created = ch.Created
		if err != nil {
			reply.Reason = err.Error()
		}
		return reply
	}

	switch req.Action {
	case "snapshot":
		state := srv.store.Snapshot()
		reply.State = &state
		reply.Seq = state.Seq
		return reply
	case "drag_cancel":
		cancelled := srv.store.CancelDrag(req.Token)
		reply.Cancelled = &cancelled
		return reply
	case "relocate":
		from, err := workspace.ParsePane(req.Pane)
		if err != nil {
			return fail(err)
		}
		to, err := workspace.ParsePane(req.To)
		if err != nil {
			return fail(err)
		}
		srv.opsInProgress.Add(1)
		defer srv.opsInProgress.Done()
		return changed(srv.store.Relocate(from, req.NodeID, to, req.TargetID))
	}

	p, err := workspace.ParsePane(req.Pane)
	if err != nil {
		return fail(err)
	}

	switch req.Action {
	case "drag_start":
		d, err := srv.store.BeginDrag(p, req.NodeID)
		if err != nil {
			return fail(err)
		}
		reply.Drag = &d
		return reply
	case "drag_over":
		over, err := srv.store.DragOver(req.Token, p, req.Hovered)
		if err != nil {
			return fail(err)
		}
		reply.Over = &over
		return reply
	}

	srv.opsInProgress.Add(1)
	defer srv.opsInProgress.Done()

	switch req.Action {
	case "rename":
		return changed(srv.store.Rename(p, req.NodeID, req.Name))
	case "delete":
		return changed(srv.store.Delete(p, req.NodeID))
	case "create_file":
		return changed(srv.store.CreateFile(p, req.NodeID))
	case "create_folder":
		return changed(srv.store.CreateFolder(p, req.NodeID))
	case "drop":
		return changed(srv.store.Drop(req.Token, p, req.TargetID))
	}
	return fail(errUnknownAction(req.Action))
}

type errUnknownAction string

func (e errUnknownAction) Error() string {
	return "unknown action " + string(e)
}
