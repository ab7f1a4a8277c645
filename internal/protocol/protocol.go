package protocol

import (
	"encoding/json"
	"fmt"

	"inkboard/internal/board"
)

// Type tags every frame on the wire.
type Type string

// Inbound events (client → server).
const (
	TypeJoinRoom    Type = "join-room"
	TypeDrawStart   Type = "draw-start"
	TypeDrawPoint   Type = "draw-point"
	TypeDrawEnd     Type = "draw-end"
	TypeCursorMove  Type = "cursor-move"
	TypeUndo        Type = "undo"
	TypeRedo        Type = "redo"
	TypeClearCanvas Type = "clear-canvas"
	TypePingCheck   Type = "ping-check"
)

// Outbound events (server → client).
const (
	TypeInit         Type = "init"
	TypeUsers        Type = "users"
	TypeUserJoined   Type = "user-joined"
	TypeUserLeft     Type = "user-left"
	TypeStrokeStart  Type = "stroke-start"
	TypeStrokePoint  Type = "stroke-point"
	TypeCanvasReset  Type = "canvas-reset"
	TypeCursorUpdate Type = "cursor-update"
	TypePong         Type = "pong"
)

// Envelope is the wire frame: a type tag plus the event's payload.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRoom asks to enter a room.
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// DrawStart opens a new stroke at the given coordinate.
type DrawStart struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Tool   string  `json:"tool"`
}

// DrawPoint extends the sender's active stroke.
type DrawPoint struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// CursorMove reports the sender's cursor position.
type CursorMove struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// RoomRef is the payload of events that carry only a room id:
// draw-end, undo, redo and clear-canvas.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// StrokePoint is the incremental broadcast for one appended point; the
// renderer draws only the newest segment from it.
type StrokePoint struct {
	StrokeID string      `json:"strokeId"`
	Point    board.Point `json:"point"`
}

// UserLeft announces a departed participant.
type UserLeft struct {
	ID string `json:"id"`
}

// Decode parses a wire frame. The payload stays raw; the dispatcher
// unmarshals it once the type is known.
func Decode(raw []byte) (*Envelope, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("missing event type")
	}
	return &env, nil
}

// Payload unmarshals the envelope's data into the event's payload struct.
func (e *Envelope) Payload(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: bad payload: %w", e.Type, err)
	}
	return nil
}

// Encode frames an outbound event. A nil payload produces a bare tag,
// used for the ping-check ack.
func Encode(t Type, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
