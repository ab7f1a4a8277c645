package board

import (
	"sync"

	"github.com/google/uuid"
)

// Tools a stroke can be drawn with.
const (
	ToolBrush  = "brush"
	ToolEraser = "eraser"
)

// A single canvas coordinate, immutable once emitted.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// One continuous pen gesture by one participant.
type Stroke struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"userId"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Tool    string  `json:"tool"`
	Points  []Point `json:"points"`
}

// Log is the shared drawing history of one room: the ordered stroke
// sequence, the redo stack, and the strokes still being drawn. Every
// exported method is one atomic unit with respect to the others.
type Log struct {
	mu      sync.Mutex
	strokes []*Stroke
	redo    []*Stroke
	active  map[string]*Stroke
}

func NewLog() *Log {
	return &Log{active: make(map[string]*Stroke)}
}

// StartStroke opens a new stroke with a single point and registers it
// as the owner's active stroke. Any new stroke invalidates the redo
// history, no matter who drew it.
func (l *Log) StartStroke(ownerID, color string, width float64, tool string, x, y float64) Stroke {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tool == "" {
		tool = ToolBrush
	}

	s := &Stroke{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Color:   color,
		Width:   width,
		Tool:    tool,
		Points:  []Point{{X: x, Y: y}},
	}
	l.strokes = append(l.strokes, s)
	l.active[ownerID] = s
	l.redo = nil
	return cloneStroke(s)
}

// AppendPoint extends the owner's active stroke. A point arriving after
// the stroke ended (or was undone away) reports ok=false and is
// otherwise ignored; network reordering makes that an expected case,
// not an error.
func (l *Log) AppendPoint(ownerID string, x, y float64) (string, Point, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.active[ownerID]
	if !ok {
		return "", Point{}, false
	}
	p := Point{X: x, Y: y}
	s.Points = append(s.Points, p)
	return s.ID, p, true
}

// EndStroke closes the owner's active stroke. Idempotent.
func (l *Log) EndStroke(ownerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, ownerID)
}

// Undo removes the most recent stroke regardless of author and returns
// the resulting history for a canonical reset. Every in-progress stroke
// in the room is abandoned. Reports ok=false when there is nothing to
// undo.
func (l *Log) Undo() ([]Stroke, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.strokes) == 0 {
		return nil, false
	}
	last := l.strokes[len(l.strokes)-1]
	l.strokes = l.strokes[:len(l.strokes)-1]
	l.redo = append(l.redo, last)
	l.active = make(map[string]*Stroke)
	return l.cloneStrokes(), true
}

// Redo restores the most recently undone stroke. Active strokes are
// untouched. Reports ok=false when the redo stack is empty.
func (l *Log) Redo() ([]Stroke, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.redo) == 0 {
		return nil, false
	}
	s := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]
	l.strokes = append(l.strokes, s)
	return l.cloneStrokes(), true
}

// Clear drops the whole history, the redo stack and all active
// registrations. Always succeeds and returns the empty sequence.
func (l *Log) Clear() []Stroke {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.strokes = nil
	l.redo = nil
	l.active = make(map[string]*Stroke)
	return []Stroke{}
}

// Snapshot returns the current history, used to initialize a newcomer.
func (l *Log) Snapshot() []Stroke {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cloneStrokes()
}

// cloneStrokes copies the history so callers can marshal it outside the
// lock while owners keep appending points.
func (l *Log) cloneStrokes() []Stroke {
	out := make([]Stroke, len(l.strokes))
	for i, s := range l.strokes {
		out[i] = cloneStroke(s)
	}
	return out
}

func cloneStroke(s *Stroke) Stroke {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return c
}
