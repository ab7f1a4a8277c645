package board

import (
	"sync"
	"testing"
)

func TestStrokePointOrder(t *testing.T) {
	l := NewLog()

	stroke := l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	if len(stroke.Points) != 1 || stroke.Points[0] != (Point{0, 0}) {
		t.Fatalf("New stroke should have exactly the start point, got %v", stroke.Points)
	}

	want := []Point{{0, 0}, {1, 2}, {3, 4}, {5, 6}}
	for _, p := range want[1:] {
		id, got, ok := l.AppendPoint("p1", p.X, p.Y)
		if !ok {
			t.Fatalf("AppendPoint(%v) should succeed", p)
		}
		if id != stroke.ID {
			t.Errorf("Expected stroke id %s, got %s", stroke.ID, id)
		}
		if got != p {
			t.Errorf("Expected point %v, got %v", p, got)
		}
	}
	l.EndStroke("p1")

	snap := l.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Expected 1 stroke, got %d", len(snap))
	}
	if len(snap[0].Points) != len(want) {
		t.Fatalf("Expected %d points, got %d", len(want), len(snap[0].Points))
	}
	for i, p := range want {
		if snap[0].Points[i] != p {
			t.Errorf("Point %d: expected %v, got %v", i, p, snap[0].Points[i])
		}
	}
}

func TestAppendPointWithoutActiveStroke(t *testing.T) {
	l := NewLog()

	if _, _, ok := l.AppendPoint("p1", 1, 1); ok {
		t.Error("Append without a stroke should be a no-op")
	}

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")

	if _, _, ok := l.AppendPoint("p1", 1, 1); ok {
		t.Error("Append after draw-end should be a no-op")
	}

	snap := l.Snapshot()
	if len(snap[0].Points) != 1 {
		t.Errorf("Stale point must not be recorded, got %d points", len(snap[0].Points))
	}
}

func TestEndStrokeIdempotent(t *testing.T) {
	l := NewLog()
	l.EndStroke("nobody")

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")
	l.EndStroke("p1")
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := NewLog()

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.AppendPoint("p1", 5, 5)
	l.EndStroke("p1")
	l.StartStroke("p2", "#f00", 2, ToolEraser, 10, 10)
	l.EndStroke("p2")

	before := l.Snapshot()

	after, ok := l.Undo()
	if !ok {
		t.Fatal("Undo on a non-empty log should succeed")
	}
	if len(after) != 1 {
		t.Fatalf("Expected 1 stroke after undo, got %d", len(after))
	}

	restored, ok := l.Redo()
	if !ok {
		t.Fatal("Redo right after undo should succeed")
	}
	if len(restored) != len(before) {
		t.Fatalf("Expected %d strokes after redo, got %d", len(before), len(restored))
	}
	for i := range before {
		if restored[i].ID != before[i].ID {
			t.Errorf("Stroke %d: expected id %s, got %s", i, before[i].ID, restored[i].ID)
		}
		if len(restored[i].Points) != len(before[i].Points) {
			t.Errorf("Stroke %d: point count changed across undo/redo", i)
		}
	}
}

func TestUndoRemovesLatestRegardlessOfAuthor(t *testing.T) {
	l := NewLog()

	first := l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")
	l.StartStroke("p2", "#f00", 2, ToolBrush, 1, 1)
	l.EndStroke("p2")

	// p1 undoes: it is p2's stroke that goes, history is shared.
	after, ok := l.Undo()
	if !ok {
		t.Fatal("Undo should succeed")
	}
	if len(after) != 1 || after[0].ID != first.ID {
		t.Error("Undo must remove the most recent stroke, whoever drew it")
	}
}

func TestUndoEmptyLog(t *testing.T) {
	l := NewLog()

	if _, ok := l.Undo(); ok {
		t.Error("Undo on an empty log should report nothing to undo")
	}
}

func TestRedoEmptyStack(t *testing.T) {
	l := NewLog()

	if _, ok := l.Redo(); ok {
		t.Error("Redo with an empty stack should report nothing to redo")
	}
}

func TestNewStrokeInvalidatesRedo(t *testing.T) {
	l := NewLog()

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")

	if _, ok := l.Undo(); !ok {
		t.Fatal("Undo should succeed")
	}

	// A new action, by anyone, kills the redo history.
	l.StartStroke("p2", "#f00", 2, ToolBrush, 1, 1)

	if _, ok := l.Redo(); ok {
		t.Error("Redo should be unavailable once a new stroke is started")
	}
}

func TestUndoAbandonsActiveStrokes(t *testing.T) {
	l := NewLog()

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")
	l.StartStroke("p2", "#f00", 2, ToolBrush, 1, 1)

	// p2 is mid-stroke when someone undoes.
	if _, ok := l.Undo(); !ok {
		t.Fatal("Undo should succeed")
	}

	if _, _, ok := l.AppendPoint("p2", 2, 2); ok {
		t.Error("An undo must abandon every in-progress stroke")
	}
}

func TestClearFromAnyState(t *testing.T) {
	l := NewLog()

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	l.EndStroke("p1")
	l.Undo()
	l.StartStroke("p2", "#f00", 2, ToolBrush, 1, 1)

	empty := l.Clear()
	if len(empty) != 0 {
		t.Errorf("Clear should return the empty sequence, got %d strokes", len(empty))
	}
	if len(l.Snapshot()) != 0 {
		t.Error("History should be empty after clear")
	}
	if _, ok := l.Redo(); ok {
		t.Error("Redo stack should be empty after clear")
	}
	if _, _, ok := l.AppendPoint("p2", 2, 2); ok {
		t.Error("Active strokes should be released by clear")
	}
}

func TestDefaultTool(t *testing.T) {
	l := NewLog()

	stroke := l.StartStroke("p1", "#000", 3, "", 0, 0)
	if stroke.Tool != ToolBrush {
		t.Errorf("Expected default tool %q, got %q", ToolBrush, stroke.Tool)
	}
}

func TestSnapshotDetached(t *testing.T) {
	l := NewLog()

	l.StartStroke("p1", "#000", 3, ToolBrush, 0, 0)
	snap := l.Snapshot()

	l.AppendPoint("p1", 5, 5)
	l.AppendPoint("p1", 6, 6)

	if len(snap[0].Points) != 1 {
		t.Error("Snapshot must not observe points appended after it was taken")
	}
}

func TestConcurrentStarts(t *testing.T) {
	l := NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := string(rune('a' + i%26))
			l.StartStroke(owner, "#000", 1, ToolBrush, float64(i), float64(i))
		}(i)
	}
	wg.Wait()

	if got := len(l.Snapshot()); got != 100 {
		t.Errorf("Expected 100 strokes, got %d", got)
	}
}
