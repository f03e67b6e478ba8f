// Package gpio provides GPIO line access with hardware abstraction.
// Two real backends exist: the Linux GPIO character device (default)
// and periph.io sysfs/memory-mapped access. The fake implementations
// allow testing without hardware.
package gpio

import "time"

// Input reads the level of a single digital input line.
type Input interface {
	// ReadLevel returns true when the line is electrically high.
	ReadLevel() bool
}

// Output drives the level of a single digital output line.
type Output interface {
	// SetLevel drives the line high (true) or low (false).
	SetLevel(active bool)
}

// Edge is a single rising transition on a monitored line.
type Edge struct {
	// Timestamp is the monotonic time of the transition as reported
	// by the backend. Timestamps from the same line are comparable to
	// each other; they share no epoch with the wall clock.
	Timestamp time.Duration
}

// EdgeSource delivers rising edges on a line to at most one registered
// callback. The callback runs on the backend's event goroutine and must
// not block. While no callback is registered, edges are dropped, not
// queued.
type EdgeSource interface {
	// OnRisingEdge registers fn, replacing any previous callback.
	OnRisingEdge(fn func(Edge))

	// Cancel deregisters the callback. Edges arriving afterwards are
	// discarded.
	Cancel()
}

// EdgeInput is an input line that also reports rising edges.
type EdgeInput interface {
	Input
	EdgeSource
}

// Pin assignments (BCM numbering). Buttons and the encoder are wired
// through pull-downs, so pressed/active reads high.
const (
	DefaultPinEncoder = 15 // rotary encoder pulse output

	DefaultPinBlueButton  = 17
	DefaultPinBlueLED     = 16
	DefaultPinGreenButton = 19
	DefaultPinGreenLED    = 18
	DefaultPinRedButton   = 21
	DefaultPinRedLED      = 20

	DefaultPinFuelValve     = 13 // fuel generation (bubble) valve relay
	DefaultPinTransferValve = 12 // fuel transfer valve relay
	DefaultPinFireValve     = 11 // ignition valve relay
)

// Pins holds the BCM line numbers for every line the controller owns.
type Pins struct {
	Encoder int

	GreenButton int
	GreenLED    int
	BlueButton  int
	BlueLED     int
	RedButton   int
	RedLED      int

	FuelValve     int
	TransferValve int
	FireValve     int
}

// DefaultPins returns the pin assignment of the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Encoder:       DefaultPinEncoder,
		GreenButton:   DefaultPinGreenButton,
		GreenLED:      DefaultPinGreenLED,
		BlueButton:    DefaultPinBlueButton,
		BlueLED:       DefaultPinBlueLED,
		RedButton:     DefaultPinRedButton,
		RedLED:        DefaultPinRedLED,
		FuelValve:     DefaultPinFuelValve,
		TransferValve: DefaultPinTransferValve,
		FireValve:     DefaultPinFireValve,
	}
}

// Lines bundles every requested line behind the backend-neutral
// interfaces. Outputs are driven low at request time so relays and
// LEDs start off.
type Lines struct {
	Encoder EdgeInput

	GreenButton Input
	BlueButton  Input
	RedButton   Input

	GreenLED Output
	BlueLED  Output
	RedLED   Output

	FuelValve     Output
	TransferValve Output
	FireValve     Output

	close func() error
}

// Close drives all outputs low and releases the underlying lines.
func (l *Lines) Close() error {
	for _, out := range []Output{
		l.GreenLED, l.BlueLED, l.RedLED,
		l.FuelValve, l.TransferValve, l.FireValve,
	} {
		if out != nil {
			out.SetLevel(false)
		}
	}
	if l.close != nil {
		return l.close()
	}
	return nil
}
