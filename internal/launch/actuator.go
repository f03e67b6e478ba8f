package launch

import "github.com/sweeney/launch-sequencer/internal/gpio"

// Actuator wraps one relay-driven output line. Every call writes the
// line and emits an event, including redundant calls: a repeated
// activate is a no-op electrically but still shows up in the
// narration.
type Actuator struct {
	name   string
	line   gpio.Output
	clock  Clock
	report Reporter
	active bool
}

// NewActuator creates an actuator driving line. The line is forced low
// so the relay starts released regardless of its prior state.
func NewActuator(name string, line gpio.Output, clock Clock, report Reporter) *Actuator {
	if clock == nil {
		clock = SystemClock{}
	}
	if report == nil {
		report = discard
	}
	line.SetLevel(false)
	return &Actuator{name: name, line: line, clock: clock, report: report}
}

// Activate energizes the relay.
func (a *Actuator) Activate() {
	a.line.SetLevel(true)
	a.active = true
	a.report(Event{Timestamp: a.clock.Now(), Type: EventActuatorOn, Name: a.name})
}

// Deactivate releases the relay.
func (a *Actuator) Deactivate() {
	a.line.SetLevel(false)
	a.active = false
	a.report(Event{Timestamp: a.clock.Now(), Type: EventActuatorOff, Name: a.name})
}

// Active returns the last commanded state.
func (a *Actuator) Active() bool {
	return a.active
}

// Name returns the actuator's identifier.
func (a *Actuator) Name() string {
	return a.name
}
