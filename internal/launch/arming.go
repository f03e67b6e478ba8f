package launch

import (
	"sync/atomic"
	"time"

	"github.com/sweeney/launch-sequencer/internal/gpio"
)

// ArmingDetector turns noisy rising edges from the rotary encoder into
// discrete pending activations. Edges arrive on the backend's event
// goroutine via onEdge; the control loop consumes activations via
// PollActivated. Those are the only two contexts that touch the
// counters, and they share them through atomics alone: onEdge must
// finish in bounded time, so it never takes a lock, and the consumer's
// decrement is a CAS loop that cannot lose a concurrent increment.
type ArmingDetector struct {
	source         gpio.EdgeSource
	pulsesRequired int
	window         time.Duration

	pulses   atomic.Int32
	pending  atomic.Int32
	lastEdge atomic.Int64 // monotonic ns of the last accepted edge; 0 = none yet

	// enabled is bookkeeping for the control loop only; the real gate
	// is whether the callback is attached to the source.
	enabled bool
}

// NewArmingDetector creates a detector requiring pulsesRequired
// qualifying edges per activation, with edges closer together than
// window collapsed as contact chatter. The detector starts disabled;
// call Enable to begin counting.
func NewArmingDetector(source gpio.EdgeSource, pulsesRequired int, window time.Duration) *ArmingDetector {
	if pulsesRequired < 1 {
		pulsesRequired = 1
	}
	return &ArmingDetector{
		source:         source,
		pulsesRequired: pulsesRequired,
		window:         window,
	}
}

// onEdge runs on the edge-delivery goroutine. Edge timestamps are
// monotonic and serialized in edge order by the backend.
func (d *ArmingDetector) onEdge(e gpio.Edge) {
	ts := int64(e.Timestamp)
	last := d.lastEdge.Load()
	if last != 0 && ts-last <= int64(d.window) {
		return
	}
	d.lastEdge.Store(ts)
	if int(d.pulses.Add(1)) >= d.pulsesRequired {
		d.pulses.Store(0)
		d.pending.Add(1)
	}
}

// PollActivated consumes at most one pending activation. Only the
// control loop may call it.
func (d *ArmingDetector) PollActivated() bool {
	for {
		p := d.pending.Load()
		if p <= 0 {
			return false
		}
		if d.pending.CompareAndSwap(p, p-1) {
			return true
		}
	}
}

// Enable attaches the edge callback and begins counting pulses.
func (d *ArmingDetector) Enable() {
	d.source.OnRisingEdge(d.onEdge)
	d.enabled = true
}

// Disable detaches the edge callback. Edges arriving while disabled
// are dropped, not queued, so mechanical chatter during a sequence
// cannot pre-arm the next cycle.
func (d *ArmingDetector) Disable() {
	d.source.Cancel()
	d.enabled = false
}

// Enabled reports whether the detector is counting edges.
func (d *ArmingDetector) Enabled() bool {
	return d.enabled
}

// Reset zeroes the pulse and pending counters and forgets the last
// edge. Call only while disabled, so a concurrent onEdge cannot
// interleave with the reset.
func (d *ArmingDetector) Reset() {
	d.pulses.Store(0)
	d.pending.Store(0)
	d.lastEdge.Store(0)
}

// Pulses returns the current partial pulse count.
func (d *ArmingDetector) Pulses() int {
	return int(d.pulses.Load())
}

// Pending returns the count of unconsumed activations.
func (d *ArmingDetector) Pending() int {
	return int(d.pending.Load())
}
