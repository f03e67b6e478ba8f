package gpio

import (
	"testing"
	"time"
)

func TestFakeInputSetAndRead(t *testing.T) {
	in := NewFakeInput(false)

	if in.ReadLevel() {
		t.Error("expected initial level low")
	}

	in.Set(true)
	if !in.ReadLevel() {
		t.Error("expected level high after Set(true)")
	}

	in.Set(false)
	if in.ReadLevel() {
		t.Error("expected level low after Set(false)")
	}
}

func TestFakeOutputRecordsWrites(t *testing.T) {
	out := NewFakeOutput()

	if out.Level {
		t.Error("expected initial level low")
	}

	out.SetLevel(true)
	out.SetLevel(true)
	out.SetLevel(false)

	if out.Level {
		t.Error("expected final level low")
	}
	want := []bool{true, true, false}
	if len(out.Writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(out.Writes))
	}
	for i, w := range want {
		if out.Writes[i] != w {
			t.Errorf("write %d: expected %v, got %v", i, w, out.Writes[i])
		}
	}
}

func TestFakeOutputActivations(t *testing.T) {
	out := NewFakeOutput()

	// Two separate pulses; the repeated high in the middle of the
	// first must not count as a new activation.
	out.SetLevel(true)
	out.SetLevel(true)
	out.SetLevel(false)
	out.SetLevel(true)
	out.SetLevel(false)

	if got := out.Activations(); got != 2 {
		t.Errorf("expected 2 activations, got %d", got)
	}
}

func TestFakeOutputActivationsEmpty(t *testing.T) {
	out := NewFakeOutput()

	if got := out.Activations(); got != 0 {
		t.Errorf("expected 0 activations, got %d", got)
	}
}

func TestFakeEdgeSourceDeliversEdges(t *testing.T) {
	src := NewFakeEdgeSource()

	var got []Edge
	src.OnRisingEdge(func(e Edge) { got = append(got, e) })

	src.Inject(10 * time.Millisecond)
	src.Inject(25 * time.Millisecond)

	if len(got) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(got))
	}
	if got[0].Timestamp != 10*time.Millisecond {
		t.Errorf("edge 0: expected 10ms, got %v", got[0].Timestamp)
	}
	if got[1].Timestamp != 25*time.Millisecond {
		t.Errorf("edge 1: expected 25ms, got %v", got[1].Timestamp)
	}
}

func TestFakeEdgeSourceDropsWhenDetached(t *testing.T) {
	src := NewFakeEdgeSource()

	// No callback registered yet.
	src.Inject(time.Millisecond)

	if src.Dropped != 1 {
		t.Errorf("expected 1 dropped edge, got %d", src.Dropped)
	}

	var count int
	src.OnRisingEdge(func(Edge) { count++ })
	src.Inject(2 * time.Millisecond)

	src.Cancel()
	src.Inject(3 * time.Millisecond)

	if count != 1 {
		t.Errorf("expected 1 delivered edge, got %d", count)
	}
	if src.Dropped != 2 {
		t.Errorf("expected 2 dropped edges, got %d", src.Dropped)
	}
}

func TestFakeEdgeSourceAttached(t *testing.T) {
	src := NewFakeEdgeSource()

	if src.Attached() {
		t.Error("should not be attached initially")
	}

	src.OnRisingEdge(func(Edge) {})
	if !src.Attached() {
		t.Error("should be attached after OnRisingEdge")
	}

	src.Cancel()
	if src.Attached() {
		t.Error("should not be attached after Cancel")
	}
}

func TestFakeEdgeSourceReadLevel(t *testing.T) {
	src := NewFakeEdgeSource()

	if src.ReadLevel() {
		t.Error("expected scripted level low")
	}

	src.Level = true
	if !src.ReadLevel() {
		t.Error("expected scripted level high")
	}
}
