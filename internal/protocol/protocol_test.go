package protocol

import (
	"strings"
	"testing"

	"inkboard/internal/board"
)

func TestDecodeDrawStart(t *testing.T) {
	raw := []byte(`{"type":"draw-start","data":{"roomId":"R","x":1.5,"y":2.5,"color":"#000","width":3,"tool":"brush"}}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != TypeDrawStart {
		t.Errorf("Expected type %s, got %s", TypeDrawStart, env.Type)
	}

	var p DrawStart
	if err := env.Payload(&p); err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if p.RoomID != "R" || p.X != 1.5 || p.Y != 2.5 || p.Color != "#000" || p.Width != 3 || p.Tool != "brush" {
		t.Errorf("Unexpected payload %+v", p)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty message", nil},
		{"not json", []byte("not json at all")},
		{"missing type", []byte(`{"data":{}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.raw); err == nil {
				t.Error("Expected a decode error")
			}
		})
	}
}

func TestPayloadMissing(t *testing.T) {
	env, err := Decode([]byte(`{"type":"undo"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var p RoomRef
	if err := env.Payload(&p); err == nil {
		t.Error("Expected an error for a missing payload")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	frame, err := Encode(TypeStrokePoint, StrokePoint{
		StrokeID: "s1",
		Point:    board.Point{X: 5, Y: 5},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != TypeStrokePoint {
		t.Errorf("Expected type %s, got %s", TypeStrokePoint, env.Type)
	}

	var sp StrokePoint
	if err := env.Payload(&sp); err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if sp.StrokeID != "s1" || sp.Point != (board.Point{X: 5, Y: 5}) {
		t.Errorf("Round trip changed the payload: %+v", sp)
	}
}

func TestEncodeNilPayload(t *testing.T) {
	frame, err := Encode(TypePong, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(frame), "data") {
		t.Errorf("A nil payload should produce a bare tag, got %s", frame)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != TypePong {
		t.Errorf("Expected pong, got %s", env.Type)
	}
}

func TestEncodeEmptyStrokeSequence(t *testing.T) {
	// canvas-reset after a clear must carry [], not null: clients
	// redraw from exactly what they are sent.
	frame, err := Encode(TypeCanvasReset, []board.Stroke{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(frame), `"data":[]`) {
		t.Errorf("Expected an empty array payload, got %s", frame)
	}
}
