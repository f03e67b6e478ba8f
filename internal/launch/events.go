// Package launch contains the launch protocol logic: arming detection,
// confirmation steps, actuator holds, and the sequencer state machine.
// The package touches no hardware or OS facilities directly; lines come
// in through the gpio interfaces and time comes in through Clock, so
// every path runs unmodified against fakes in tests.
package launch

import "time"

// State is the sequencer's position in the launch protocol.
type State string

const (
	StateIdle             State = "IDLE"
	StateGeneratingFuel   State = "GENERATING_FUEL"
	StateAwaitGreen       State = "AWAIT_GREEN"
	StateAwaitBlue        State = "AWAIT_BLUE"
	StateTransferringFuel State = "TRANSFERRING_FUEL"
	StateAwaitRed         State = "AWAIT_RED"
	StateFiring           State = "FIRING"
	StateCooldown         State = "COOLDOWN"
)

// EventType labels one record in the controller's narration.
type EventType string

const (
	EventState            EventType = "STATE"
	EventSequenceStart    EventType = "SEQUENCE_START"
	EventActuatorOn       EventType = "ACTUATOR_ON"
	EventActuatorOff      EventType = "ACTUATOR_OFF"
	EventConfirmed        EventType = "CONFIRMED"
	EventConfirmTimeout   EventType = "CONFIRM_TIMEOUT"
	EventAbort            EventType = "ABORT"
	EventSequenceComplete EventType = "SEQUENCE_COMPLETE"
	EventHeartbeat        EventType = "HEARTBEAT"
)

// Counts tracks sequence outcomes since startup.
type Counts struct {
	Started   int
	Completed int
	Aborted   int
}

// Event is one record of observable controller behavior.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// State is set on events the sequencer emits itself; events from
	// actuators and confirmation steps leave it empty.
	State State

	// Name identifies the actuator or confirmation step involved,
	// when one is.
	Name string

	// Counts is attached to heartbeat events only.
	Counts *Counts
}

// Reporter receives events as they happen. It is called inline from
// the control loop and from confirmation waits, so implementations
// must be fire-and-forget: no blocking, no long work.
type Reporter func(Event)

// discard is the Reporter used when none is configured.
func discard(Event) {}
