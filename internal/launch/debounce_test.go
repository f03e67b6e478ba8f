package launch

import (
	"testing"
	"time"

	"github.com/sweeney/launch-sequencer/internal/gpio"
)

func TestDebouncedInputInactiveReturnsImmediately(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	line := gpio.NewFakeInput(false)
	d := NewDebouncedInput(line, 50*time.Millisecond, clock)

	if d.IsConfirmed() {
		t.Error("inactive line should not confirm")
	}
	if !clock.Now().Equal(start) {
		t.Errorf("inactive read must not block, but clock advanced to %v", clock.Now())
	}
}

func TestDebouncedInputHeldActiveConfirms(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	line := gpio.NewFakeInput(true)
	d := NewDebouncedInput(line, 50*time.Millisecond, clock)

	if !d.IsConfirmed() {
		t.Error("line held active across the window should confirm")
	}

	want := start.Add(50 * time.Millisecond)
	if !clock.Now().Equal(want) {
		t.Errorf("expected exactly one debounce window of blocking, clock at %v want %v", clock.Now(), want)
	}
}

func TestDebouncedInputBlipRejected(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	line := gpio.NewFakeInput(true)
	d := NewDebouncedInput(line, 50*time.Millisecond, clock)

	// Released while the debounce window is still running.
	clock.Schedule(start.Add(20*time.Millisecond), func() { line.Set(false) })

	if d.IsConfirmed() {
		t.Error("blip released inside the window should not confirm")
	}
}

func TestDebouncedInputSecondSampleDecides(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	line := gpio.NewFakeInput(true)
	d := NewDebouncedInput(line, 50*time.Millisecond, clock)

	// Two-sample debounce: a release and re-press inside the window is
	// invisible as long as the second sample reads active again.
	clock.Schedule(start.Add(10*time.Millisecond), func() { line.Set(false) })
	clock.Schedule(start.Add(40*time.Millisecond), func() { line.Set(true) })

	if !d.IsConfirmed() {
		t.Error("second sample reads active, should confirm")
	}
}
