package launch

import (
	"time"

	"github.com/sweeney/launch-sequencer/internal/gpio"
)

// DebouncedInput wraps a raw input line with a two-sample debounce:
// the line must read active both at entry and after the debounce
// window elapses to count as pressed. A blip spanning exactly the
// window can still slip through the two samples.
type DebouncedInput struct {
	line   gpio.Input
	window time.Duration
	clock  Clock
}

// NewDebouncedInput wraps line with the given debounce window.
func NewDebouncedInput(line gpio.Input, window time.Duration, clock Clock) *DebouncedInput {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DebouncedInput{line: line, window: window, clock: clock}
}

// IsConfirmed reports whether the line is pressed. An inactive line
// returns false immediately; an active line blocks for the debounce
// window and must still be active on the second sample.
func (d *DebouncedInput) IsConfirmed() bool {
	if !d.line.ReadLevel() {
		return false
	}
	d.clock.Sleep(d.window)
	return d.line.ReadLevel()
}
