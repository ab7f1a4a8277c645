package ws

import (
	"log"
	"sync"
	"time"

	"inkboard/internal/board"
	"inkboard/internal/protocol"
)

// event is one decoded inbound frame awaiting dispatch.
type event struct {
	client *Client
	env    *protocol.Envelope
}

// Hub owns every connection and serializes all room mutation: Run
// dispatches one event at a time, so every participant in a room
// observes the same broadcast order.
type Hub struct {
	registry *board.Registry

	register   chan *Client
	unregister chan *Client
	events     chan *event

	mu       sync.RWMutex
	clients  map[*Client]bool
	rooms    map[string]map[*Client]bool
	activity map[string]*board.RoomActivity
}

func NewHub(registry *board.Registry) *Hub {
	return &Hub{
		registry:   registry,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *event, 64),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		activity:   make(map[string]*board.RoomActivity),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client %s connected", client.id)

		case client := <-h.unregister:
			h.disconnect(client)

		case ev := <-h.events:
			h.dispatch(ev)
		}
	}
}

// dispatch maps an inbound event to a room operation and a broadcast
// audience. Unknown types, bad payloads and references to rooms the
// sender never joined are dropped; one connection's garbage must never
// take a room down.
func (h *Hub) dispatch(ev *event) {
	c := ev.client

	switch ev.env.Type {
	case protocol.TypeJoinRoom:
		var p protocol.JoinRoom
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleJoin(c, p.RoomID)

	case protocol.TypeDrawStart:
		var p protocol.DrawStart
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleDrawStart(c, p)

	case protocol.TypeDrawPoint:
		var p protocol.DrawPoint
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleDrawPoint(c, p)

	case protocol.TypeDrawEnd:
		var p protocol.RoomRef
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		if room, ok := h.memberRoom(c, p.RoomID); ok {
			room.Log.EndStroke(c.id)
		}

	case protocol.TypeCursorMove:
		var p protocol.CursorMove
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleCursorMove(c, p)

	case protocol.TypeUndo:
		var p protocol.RoomRef
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleUndo(c, p.RoomID)

	case protocol.TypeRedo:
		var p protocol.RoomRef
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleRedo(c, p.RoomID)

	case protocol.TypeClearCanvas:
		var p protocol.RoomRef
		if err := ev.env.Payload(&p); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			return
		}
		h.handleClear(c, p.RoomID)

	default:
		log.Printf("Client %s: unknown event type %q", c.id, ev.env.Type)
	}
}

func (h *Hub) handleJoin(c *Client, roomID string) {
	// One room per connection; re-joins and empty ids are dropped.
	if roomID == "" || c.roomID != "" {
		return
	}

	h.mu.Lock()
	// A join queued behind the client's own unregister must not revive
	// the dead connection.
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	room := h.registry.GetOrCreate(roomID)
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	h.mu.Unlock()

	member := room.Join(c.id)
	c.roomID = roomID
	h.touch(room)

	// The newcomer gets the canonical state; everyone else just hears
	// about the newcomer.
	h.sendTo(c, protocol.TypeInit, room.Log.Snapshot())
	h.sendTo(c, protocol.TypeUsers, room.Roster())
	h.broadcast(roomID, c, protocol.TypeUserJoined, member)

	log.Printf("Client %s joined room %s (%d online)", c.id, roomID, room.Size())
}

func (h *Hub) handleDrawStart(c *Client, p protocol.DrawStart) {
	room, ok := h.memberRoom(c, p.RoomID)
	if !ok {
		return
	}

	stroke := room.Log.StartStroke(c.id, p.Color, p.Width, p.Tool, p.X, p.Y)
	h.recordStroke(room)

	// The sender applies the authoritative stroke too, in case its
	// optimistic render ever diverges.
	h.broadcast(room.ID, nil, protocol.TypeStrokeStart, stroke)
}

func (h *Hub) handleDrawPoint(c *Client, p protocol.DrawPoint) {
	room, ok := h.memberRoom(c, p.RoomID)
	if !ok {
		return
	}

	strokeID, point, ok := room.Log.AppendPoint(c.id, p.X, p.Y)
	if !ok {
		// Stale point after draw-end or an undo. Ignore.
		return
	}
	h.touch(room)

	h.broadcast(room.ID, c, protocol.TypeStrokePoint, protocol.StrokePoint{
		StrokeID: strokeID,
		Point:    point,
	})
}

func (h *Hub) handleCursorMove(c *Client, p protocol.CursorMove) {
	room, ok := h.memberRoom(c, p.RoomID)
	if !ok {
		return
	}

	member, ok := room.UpdateCursor(c.id, p.X, p.Y)
	if !ok {
		return
	}

	h.broadcast(room.ID, c, protocol.TypeCursorUpdate, member)
}

func (h *Hub) handleUndo(c *Client, roomID string) {
	room, ok := h.memberRoom(c, roomID)
	if !ok {
		return
	}

	strokes, ok := room.Log.Undo()
	if !ok {
		// Nothing to undo; no state change, no broadcast.
		return
	}
	h.touch(room)

	h.broadcast(room.ID, nil, protocol.TypeCanvasReset, strokes)
}

func (h *Hub) handleRedo(c *Client, roomID string) {
	room, ok := h.memberRoom(c, roomID)
	if !ok {
		return
	}

	strokes, ok := room.Log.Redo()
	if !ok {
		return
	}
	h.touch(room)

	h.broadcast(room.ID, nil, protocol.TypeCanvasReset, strokes)
}

func (h *Hub) handleClear(c *Client, roomID string) {
	room, ok := h.memberRoom(c, roomID)
	if !ok {
		return
	}

	strokes := room.Log.Clear()
	h.touch(room)

	h.broadcast(room.ID, nil, protocol.TypeCanvasReset, strokes)
}

func (h *Hub) disconnect(c *Client) {
	roomID := c.roomID
	// Stale events for this client may still sit in the queue; with the
	// membership cleared they fail the memberRoom check and are dropped.
	c.roomID = ""

	h.mu.Lock()
	delete(h.clients, c)
	if roomID != "" {
		if clients, ok := h.rooms[roomID]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	close(c.send)

	if roomID == "" {
		log.Printf("Client %s disconnected", c.id)
		return
	}

	if room, ok := h.registry.Get(roomID); ok {
		// Leave also releases any stroke still registered to the
		// client, so a mid-stroke disconnect can't wedge the room.
		room.Leave(c.id)
		h.broadcast(roomID, nil, protocol.TypeUserLeft, protocol.UserLeft{ID: c.id})
		log.Printf("Client %s left room %s (%d online)", c.id, roomID, room.Size())
	}
}

// memberRoom resolves an event's target room, dropping events for rooms
// the connection never joined.
func (h *Hub) memberRoom(c *Client, roomID string) (*board.Room, bool) {
	if roomID == "" || c.roomID != roomID {
		return nil, false
	}
	return h.registry.Get(roomID)
}

// broadcast fans a frame out to the room; a nil exclude reaches every
// member. Sends never block: a consumer whose queue is full is dropped
// from the room and its socket closed, so its read pump unwinds through
// the normal unregister path (Leave, user-left) instead of lingering as
// a member that can send but never receive.
func (h *Hub) broadcast(roomID string, exclude *Client, t protocol.Type, payload any) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Encoding %s failed: %v", t, err)
		return
	}

	h.mu.Lock()
	for client := range h.rooms[roomID] {
		if client == exclude {
			continue
		}
		if !client.enqueue(frame) {
			log.Printf("Client %s too slow, disconnecting from room %s", client.id, roomID)
			delete(h.rooms[roomID], client)
			if client.conn != nil {
				client.conn.Close()
			}
		}
	}
	if clients, ok := h.rooms[roomID]; ok && len(clients) == 0 {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()
}

func (h *Hub) sendTo(c *Client, t protocol.Type, payload any) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Encoding %s failed: %v", t, err)
		return
	}
	c.enqueue(frame)
}

func (h *Hub) touch(room *board.Room) {
	h.mu.Lock()
	h.touchLocked(room.ID, room.Size())
	h.mu.Unlock()
}

func (h *Hub) recordStroke(room *board.Room) {
	h.mu.Lock()
	h.touchLocked(room.ID, room.Size())
	h.activity[room.ID].Strokes++
	h.mu.Unlock()
}

func (h *Hub) touchLocked(roomID string, users int) {
	a := h.activity[roomID]
	if a == nil {
		a = &board.RoomActivity{CreatedAt: time.Now()}
		h.activity[roomID] = a
	}
	a.LastActive = time.Now()
	if users > a.PeakUsers {
		a.PeakUsers = users
	}
}

// GetRoomCount returns the number of rooms with at least one connection.
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientCount returns the number of open connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetActiveRooms maps room id to current connection count.
func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]int, len(h.rooms))
	for id, clients := range h.rooms {
		out[id] = len(clients)
	}
	return out
}

// ActivitySnapshot copies the per-room usage records for the janitor.
func (h *Hub) ActivitySnapshot() map[string]board.RoomActivity {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]board.RoomActivity, len(h.activity))
	for id, a := range h.activity {
		out[id] = *a
	}
	return out
}

// EvictIdle drops rooms that have no connections and have been quiet
// since before cutoff, returning the evicted ids. Occupied rooms are
// never evicted.
func (h *Hub) EvictIdle(cutoff time.Time) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var evicted []string
	for id, a := range h.activity {
		if len(h.rooms[id]) > 0 || a.LastActive.After(cutoff) {
			continue
		}
		h.registry.Remove(id)
		delete(h.activity, id)
		evicted = append(evicted, id)
	}
	return evicted
}
