package board

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// A connected participant: identity, assigned color and live cursor.
type Participant struct {
	ID    string  `json:"id"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Room is one collaborative session: a roster of live participants plus
// the shared drawing history.
type Room struct {
	ID  string
	Log *Log

	mu           sync.RWMutex
	participants map[string]*Participant
}

func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		Log:          NewLog(),
		participants: make(map[string]*Participant),
	}
}

// Join adds a participant with a freshly assigned color and the cursor
// at the origin.
func (r *Room) Join(id string) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &Participant{ID: id, Color: randomColor()}
	r.participants[id] = p
	return *p
}

// Leave removes the participant and releases any stroke they were still
// drawing, so an abandoned stroke can never stay appendable.
func (r *Room) Leave(id string) {
	r.mu.Lock()
	delete(r.participants, id)
	r.mu.Unlock()

	r.Log.EndStroke(id)
}

// UpdateCursor moves the participant's cursor and returns the updated
// record. Reports ok=false for a participant that already left; cursor
// events racing a disconnect are expected and ignored.
func (r *Room) UpdateCursor(id string, x, y float64) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	p.X, p.Y = x, y
	return *p, true
}

// Roster returns a copy of the current participant list.
func (r *Room) Roster() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

// Size returns the number of participants currently in the room.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// randomColor samples a uniform hue at fixed saturation and lightness,
// keeping concurrent cursors visually distinct without coordination.
func randomColor() string {
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", rand.Intn(360))
}

// RoomActivity is a room's usage record, kept by the gateway and
// flushed to the room directory.
type RoomActivity struct {
	CreatedAt  time.Time
	LastActive time.Time
	Strokes    int
	PeakUsers  int
}
