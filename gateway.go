package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// inEnvelope is the inbound wire envelope. Payloads stay raw until the
// event name selects a typed variant; nothing untyped reaches the
// state machine.
type inEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	HostID   string `json:"hostId,omitempty"`
}

type startPayload struct {
	HostID       string    `json:"hostId"`
	PlaylistID   string    `json:"playlistId"`
	TiePolicy    TiePolicy `json:"tiePolicy"`
	TargetPoints int       `json:"targetPoints"`
}

type drawPayload struct {
	PlayerID string `json:"playerId"`
}

type playingPayload struct {
	PlayerID string `json:"playerId"`
	TurnID   int    `json:"turnId"`
}

type guessPayload struct {
	PlayerID    string `json:"playerId"`
	TurnID      int    `json:"turnId"`
	TargetIndex int    `json:"targetIndex"`
}

type nextPayload struct {
	HostID string `json:"hostId"`
}

type Client struct {
	conn *websocket.Conn
	send chan outEnvelope

	// playerID (or hostID for the host connection), bound by the
	// first successful join on this connection.
	partyID string
}

type inboundMsg struct {
	client *Client
	env    inEnvelope
}

// Hub owns one room's state and every connection attached to it. All
// mutations run under h.mu, one command at a time, whether they arrive
// over the websocket loop or the synchronous action path.
type Hub struct {
	code   string
	room   *Room
	source TrackSource

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	inbound  chan inboundMsg

	mu         sync.RWMutex
	lastActive time.Time
	finishedAt time.Time
}

func newHub(code, hostID string, targetPoints int, source TrackSource) *Hub {
	return &Hub{
		code:       code,
		room:       newRoom(code, hostID, targetPoints),
		source:     source,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbound:    make(chan inboundMsg),
		lastActive: time.Now(),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			// Late joiners and reconnects resynchronize from the
			// snapshot instead of replaying history.
			h.sendLocked(c, outEnvelope{Event: evRoomInit, Data: h.room.Snapshot()})
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case m := <-h.inbound:
			h.dispatch(cfg, m)
		}
	}
}

// dispatch decodes one inbound envelope and applies it to the room.
// Rejections go back to the offending client only; resulting events
// fan out to the room.
func (h *Hub) dispatch(cfg *Config, m inboundMsg) {
	c := m.client

	h.mu.Lock()
	defer h.mu.Unlock()

	events, err := h.applyLocked(cfg, m)
	if err != nil {
		h.sendLocked(c, outEnvelope{Event: evGameError, Data: gameErrorPayload{
			Code:    errCode(err),
			Message: errMessage(err),
		}})
		return
	}

	h.touchLocked()
	h.routeLocked(events)
}

func (h *Hub) applyLocked(cfg *Config, m inboundMsg) ([]event, error) {
	c := m.client

	switch m.env.Event {
	case evJoin:
		var p joinPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed join payload")
		}

		events, err := h.room.Join(p.PlayerID, p.Name, p.HostID)
		if err != nil {
			return nil, err
		}

		if p.HostID != "" {
			c.partyID = p.HostID
		} else {
			c.partyID = p.PlayerID
			logf(cfg, "GAME: Player %q joined %s", p.Name, h.code)
		}

		// Re-sync this connection; broadcasts cover everyone else.
		h.sendLocked(c, outEnvelope{Event: evRoomInit, Data: h.room.Snapshot()})
		return events, nil

	case evStart:
		var p startPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed start payload")
		}
		events, err := h.room.Start(p.HostID, p.PlaylistID, p.TiePolicy, p.TargetPoints, h.source)
		if err == nil {
			logf(cfg, "GAME: Room %s started with playlist %q (%s, first to %d)",
				h.code, p.PlaylistID, h.room.TiePolicy, h.room.TargetPoints)
		}
		return events, err

	case evTurnDraw:
		var p drawPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed draw payload")
		}
		return h.room.Draw(p.PlayerID)

	case evTurnPlaying:
		var p playingPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed playback payload")
		}
		return h.room.ConfirmPlayback(p.PlayerID, p.TurnID)

	case evTurnGuess:
		var p guessPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed placement payload")
		}

		result, events, err := h.room.Place(p.PlayerID, p.TurnID, p.TargetIndex)
		if err != nil {
			return nil, err
		}
		if events == nil {
			// Retried submission: answer the caller with the
			// recorded outcome instead of re-broadcasting.
			return []event{directEvent(c.partyID, evTurnResult, result)}, nil
		}

		logf(cfg, "GAME: Turn %d in %s resolved for %s (correct=%t, score=%d)",
			result.TurnID, h.code, result.PlayerID, result.Correct, result.NewScore)
		return events, nil

	case evTurnNext:
		var p nextPayload
		if err := json.Unmarshal(m.env.Data, &p); err != nil {
			return nil, gameErrorf(ErrInvalidState, "malformed next-turn payload")
		}
		return h.room.NextTurn(p.HostID)

	default:
		return nil, gameErrorf(ErrInvalidState, "unknown event %q", m.env.Event)
	}
}

// routeLocked fans events out: targeted events reach only connections
// bound to that participant id, the rest reach the whole room.
func (h *Hub) routeLocked(events []event) {
	for _, ev := range events {
		env := outEnvelope{Event: ev.name, Data: ev.data}
		for client := range h.clients {
			if ev.to != "" && client.partyID != ev.to {
				continue
			}
			h.sendLocked(client, env)
		}
	}
}

// sendLocked queues an envelope, dropping the client if its buffer is
// stuck.
func (h *Hub) sendLocked(c *Client, env outEnvelope) {
	select {
	case c.send <- env:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) touchLocked() {
	h.lastActive = time.Now()
	if h.room.Status == RoomFinished && h.finishedAt.IsZero() {
		h.finishedAt = time.Now()
	}
}

// PlaceAction is the synchronous placement path. It shares the room's
// serialization with the websocket loop and still broadcasts
// turn:result to every connection.
func (h *Hub) PlaceAction(cfg *Config, playerID string, turnID, targetIndex int) (*TurnResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, events, err := h.room.Place(playerID, turnID, targetIndex)
	if err != nil {
		return nil, err
	}

	h.touchLocked()
	if events != nil {
		logf(cfg, "GAME: Turn %d in %s resolved for %s via action path (correct=%t, score=%d)",
			result.TurnID, h.code, result.PlayerID, result.Correct, result.NewScore)
		h.routeLocked(events)
	}

	return result, nil
}

// SnapshotView reads the room without mutating it.
func (h *Hub) SnapshotView() roomView {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.room.Snapshot()
}

// closeAll disconnects all clients of this hub (used by the reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveRoomWS attaches a websocket to the room named by :code.
func serveRoomWS(cfg *Config, rooms *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := rooms.Lookup(ps.ByName("code"))
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan outEnvelope, 8),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var env inEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		h.inbound <- inboundMsg{client: c, env: env}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}
