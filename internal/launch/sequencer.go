package launch

import (
	"context"
	"time"
)

// Timings holds every duration the sequencer owns.
type Timings struct {
	FuelGenHold    time.Duration // fuel-generation valve hold
	TransferHold   time.Duration // transfer valve hold, also the abort purge duration
	FireHold       time.Duration // ignition valve hold
	ConfirmTimeout time.Duration // per confirmation step
	Cooldown       time.Duration // after a completed sequence
	IdlePoll       time.Duration // arming poll interval while idle
	Heartbeat      time.Duration // heartbeat interval; <= 0 disables heartbeats
}

// DefaultTimings returns the timings of the reference rig.
func DefaultTimings() Timings {
	return Timings{
		FuelGenHold:    5 * time.Second,
		TransferHold:   5 * time.Second,
		FireHold:       2 * time.Second,
		ConfirmTimeout: 60 * time.Second,
		Cooldown:       5 * time.Second,
		IdlePoll:       100 * time.Millisecond,
		Heartbeat:      15 * time.Minute,
	}
}

// Config wires a Sequencer. Clock and Report may be nil; everything
// else is required.
type Config struct {
	Arming *ArmingDetector

	FuelGen  *Actuator
	Transfer *Actuator
	Ignition *Actuator

	Green *ConfirmationStep
	Blue  *ConfirmationStep
	Red   *ConfirmationStep

	Timings Timings
	Clock   Clock
	Report  Reporter
}

// stage is one row of the launch protocol. A burn stage holds an
// actuator for a fixed duration; a confirm stage waits for the
// operator and carries its own abort policy for the timeout path.
type stage struct {
	state State

	burn *Actuator
	hold time.Duration

	confirm *ConfirmationStep

	// purgeOnTimeout neutralizes generated fuel through the transfer
	// valve when this stage times out. Stages after the transfer must
	// not purge: the transfer valve cannot reverse a completed
	// transfer, so residual fuel there is an operator concern.
	purgeOnTimeout bool
}

// Sequencer drives the launch protocol from one blocking control loop.
// Everything it owns is mutated from that single goroutine; the only
// concurrency in the system lives inside the ArmingDetector.
type Sequencer struct {
	arming   *ArmingDetector
	transfer *Actuator
	green    *ConfirmationStep
	blue     *ConfirmationStep
	red      *ConfirmationStep
	stages   []stage
	timings  Timings
	clock    Clock
	report   Reporter

	state         State
	counts        Counts
	lastHeartbeat time.Time
}

// NewSequencer assembles the protocol table from cfg.
func NewSequencer(cfg Config) *Sequencer {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	report := cfg.Report
	if report == nil {
		report = discard
	}
	s := &Sequencer{
		arming:   cfg.Arming,
		transfer: cfg.Transfer,
		green:    cfg.Green,
		blue:     cfg.Blue,
		red:      cfg.Red,
		timings:  cfg.Timings,
		clock:    clock,
		report:   report,
		state:    StateIdle,
	}
	s.stages = []stage{
		{state: StateGeneratingFuel, burn: cfg.FuelGen, hold: cfg.Timings.FuelGenHold},
		{state: StateAwaitGreen, confirm: cfg.Green, purgeOnTimeout: true},
		{state: StateAwaitBlue, confirm: cfg.Blue, purgeOnTimeout: true},
		{state: StateTransferringFuel, burn: cfg.Transfer, hold: cfg.Timings.TransferHold},
		{state: StateAwaitRed, confirm: cfg.Red},
		{state: StateFiring, burn: cfg.Ignition, hold: cfg.Timings.FireHold},
	}
	return s
}

// Run drives the control loop until ctx is canceled. Cancellation is
// honored between sequences only: once a sequence starts, every stage
// wait runs to completion (confirmation, timeout, or fixed hold)
// before the loop re-checks the context.
func (s *Sequencer) Run(ctx context.Context) error {
	s.arming.Reset()
	s.arming.Enable()
	s.lastHeartbeat = s.clock.Now()
	s.setState(StateIdle)

	for {
		if ctx.Err() != nil {
			s.arming.Disable()
			return nil
		}
		if !s.arming.PollActivated() {
			s.maybeHeartbeat()
			s.clock.Sleep(s.timings.IdlePoll)
			continue
		}
		s.runSequence()
	}
}

// runSequence executes one full pass of the protocol table, entered
// with an activation already consumed.
func (s *Sequencer) runSequence() {
	s.arming.Disable()
	s.arming.Reset()
	s.counts.Started++
	s.report(Event{Timestamp: s.clock.Now(), Type: EventSequenceStart, State: s.state})

	for _, st := range s.stages {
		if !s.runStage(st) {
			return
		}
	}

	s.counts.Completed++
	s.report(Event{Timestamp: s.clock.Now(), Type: EventSequenceComplete, State: s.state})
	s.setState(StateCooldown)
	s.returnToIdle(s.timings.Cooldown)
}

// runStage runs one table row and reports whether the sequence should
// continue to the next row.
func (s *Sequencer) runStage(st stage) bool {
	s.setState(st.state)
	if st.burn != nil {
		st.burn.Activate()
		s.clock.Sleep(st.hold)
		st.burn.Deactivate()
		return true
	}
	if st.confirm.Wait(s.timings.ConfirmTimeout) == Confirmed {
		return true
	}
	s.abort(st)
	return false
}

// abort handles a confirmation timeout: purge if the stage's policy
// calls for it, then return to idle with no cooldown.
func (s *Sequencer) abort(st stage) {
	s.counts.Aborted++
	s.report(Event{Timestamp: s.clock.Now(), Type: EventAbort, State: st.state, Name: st.confirm.Name()})
	if st.purgeOnTimeout {
		s.transfer.Activate()
		s.clock.Sleep(s.timings.TransferHold)
		s.transfer.Deactivate()
	}
	s.returnToIdle(0)
}

// returnToIdle is the single re-entry point into IDLE. Indicators go
// dark, the detector's counters are zeroed while it is still detached,
// and only then is edge delivery re-enabled, so no stale edge can
// trigger an immediate re-activation.
func (s *Sequencer) returnToIdle(cooldown time.Duration) {
	s.green.IndicatorOff()
	s.blue.IndicatorOff()
	s.red.IndicatorOff()
	s.arming.Reset()
	if cooldown > 0 {
		s.clock.Sleep(cooldown)
	}
	s.arming.Enable()
	s.setState(StateIdle)
}

func (s *Sequencer) setState(st State) {
	s.state = st
	s.report(Event{Timestamp: s.clock.Now(), Type: EventState, State: st})
}

// maybeHeartbeat emits a heartbeat event if the interval has elapsed.
// Heartbeats only fire from IDLE; a long sequence simply delays them.
func (s *Sequencer) maybeHeartbeat() {
	if s.timings.Heartbeat <= 0 {
		return
	}
	now := s.clock.Now()
	if now.Sub(s.lastHeartbeat) < s.timings.Heartbeat {
		return
	}
	s.lastHeartbeat = now
	counts := s.counts
	s.report(Event{Timestamp: now, Type: EventHeartbeat, State: s.state, Counts: &counts})
}

// State returns the current protocol state. Call only from the
// control-loop goroutine; concurrent observers should consume events
// instead.
func (s *Sequencer) State() State {
	return s.state
}

// Counts returns the sequence outcome counters. Same caveat as State.
func (s *Sequencer) Counts() Counts {
	return s.counts
}
