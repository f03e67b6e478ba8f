package launch

import (
	"time"

	"github.com/sweeney/launch-sequencer/internal/gpio"
)

// Result is the outcome of a confirmation wait.
type Result string

const (
	Confirmed Result = "CONFIRMED"
	TimedOut  Result = "TIMED_OUT"
)

// ConfirmationStep couples a debounced button with its indicator LED.
// Wait blinks the indicator while polling the button, bounded by a
// timeout. A step holds no state across invocations apart from the
// indicator level it leaves behind.
type ConfirmationStep struct {
	name      string
	input     *DebouncedInput
	indicator gpio.Output
	blink     time.Duration
	clock     Clock
	report    Reporter
}

// NewConfirmationStep creates a step named name (green, blue, red)
// polling input and blinking indicator with the given half-cycle
// interval.
func NewConfirmationStep(name string, input *DebouncedInput, indicator gpio.Output, blink time.Duration, clock Clock, report Reporter) *ConfirmationStep {
	if clock == nil {
		clock = SystemClock{}
	}
	if report == nil {
		report = discard
	}
	return &ConfirmationStep{
		name:      name,
		input:     input,
		indicator: indicator,
		blink:     blink,
		clock:     clock,
		report:    report,
	}
}

// Wait blocks until the operator confirms or timeout expires. On
// confirmation the indicator is latched on. On timeout the indicator
// is simply left where the last blink cycle ended; the abort path
// turns all indicators off explicitly. Wait returns no earlier than
// timeout and no later than timeout plus one full blink cycle.
//
// Wait owns the calling goroutine for its whole duration and must not
// be called concurrently with itself on the same step.
func (s *ConfirmationStep) Wait(timeout time.Duration) Result {
	start := s.clock.Now()
	for {
		if s.input.IsConfirmed() {
			s.indicator.SetLevel(true)
			s.report(Event{Timestamp: s.clock.Now(), Type: EventConfirmed, Name: s.name})
			return Confirmed
		}

		s.indicator.SetLevel(true)
		s.clock.Sleep(s.blink)
		s.indicator.SetLevel(false)
		s.clock.Sleep(s.blink)

		if s.clock.Now().Sub(start) > timeout {
			s.report(Event{Timestamp: s.clock.Now(), Type: EventConfirmTimeout, Name: s.name})
			return TimedOut
		}
	}
}

// IndicatorOff drives the indicator low.
func (s *ConfirmationStep) IndicatorOff() {
	s.indicator.SetLevel(false)
}

// Name returns the step's identifier.
func (s *ConfirmationStep) Name() string {
	return s.name
}
