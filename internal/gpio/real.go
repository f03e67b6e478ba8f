//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// chardevInput reads a line through the Linux GPIO character device.
type chardevInput struct {
	line *gpiocdev.Line
	pin  int
}

// ReadLevel returns the current line level. A read fault after a
// successful request means the chip went away underneath us; the
// controller cannot run blind, so it exits.
func (in *chardevInput) ReadLevel() bool {
	v, err := in.line.Value()
	if err != nil {
		log.Fatalf("gpio: read pin %d: %v", in.pin, err)
	}
	return v != 0
}

// chardevOutput drives a line through the Linux GPIO character device.
type chardevOutput struct {
	line *gpiocdev.Line
	pin  int
}

// SetLevel drives the line. A write fault is fatal: the controller
// must not keep sequencing with a relay in an unknown state.
func (out *chardevOutput) SetLevel(active bool) {
	v := 0
	if active {
		v = 1
	}
	if err := out.line.SetValue(v); err != nil {
		log.Fatalf("gpio: write pin %d: %v", out.pin, err)
	}
}

// chardevEdgeInput is an input line with kernel edge detection. The
// kernel delivers events whether or not a callback is registered;
// dispatch drops them when none is.
type chardevEdgeInput struct {
	chardevInput
	handler atomic.Pointer[func(Edge)]
}

func (in *chardevEdgeInput) OnRisingEdge(fn func(Edge)) {
	in.handler.Store(&fn)
}

func (in *chardevEdgeInput) Cancel() {
	in.handler.Store(nil)
}

// dispatch runs on the gpiocdev event goroutine.
func (in *chardevEdgeInput) dispatch(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventRisingEdge {
		return
	}
	if fn := in.handler.Load(); fn != nil {
		(*fn)(Edge{Timestamp: evt.Timestamp})
	}
}

// NewChardevLines requests every line in pins from gpiochip0.
// Buttons and the encoder are inputs with pull-down to match the
// external wiring; valves and LEDs are outputs driven low.
func NewChardevLines(pins Pins) (*Lines, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	var requested []*gpiocdev.Line
	closeAll := func() error {
		var errs []error
		for _, line := range requested {
			if err := line.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := chip.Close(); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("close errors: %v", errs)
		}
		return nil
	}
	fail := func(what string, pin int, err error) (*Lines, error) {
		closeAll()
		return nil, fmt.Errorf("request %s pin %d: %w", what, pin, err)
	}

	input := func(pin int) (*chardevInput, error) {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			return nil, err
		}
		requested = append(requested, line)
		return &chardevInput{line: line, pin: pin}, nil
	}
	output := func(pin int) (*chardevOutput, error) {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, err
		}
		requested = append(requested, line)
		return &chardevOutput{line: line, pin: pin}, nil
	}

	// The encoder line is requested with kernel edge detection and the
	// monotonic event clock so debounce arithmetic is immune to wall
	// clock steps.
	encoder := &chardevEdgeInput{}
	encLine, err := chip.RequestLine(pins.Encoder,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithMonotonicEventClock,
		gpiocdev.WithEventHandler(encoder.dispatch))
	if err != nil {
		return fail("encoder", pins.Encoder, err)
	}
	requested = append(requested, encLine)
	encoder.chardevInput = chardevInput{line: encLine, pin: pins.Encoder}

	lines := &Lines{Encoder: encoder, close: closeAll}

	inputs := []struct {
		what string
		pin  int
		dst  *Input
	}{
		{"green button", pins.GreenButton, &lines.GreenButton},
		{"blue button", pins.BlueButton, &lines.BlueButton},
		{"red button", pins.RedButton, &lines.RedButton},
	}
	for _, req := range inputs {
		in, err := input(req.pin)
		if err != nil {
			return fail(req.what, req.pin, err)
		}
		*req.dst = in
	}

	outputs := []struct {
		what string
		pin  int
		dst  *Output
	}{
		{"green LED", pins.GreenLED, &lines.GreenLED},
		{"blue LED", pins.BlueLED, &lines.BlueLED},
		{"red LED", pins.RedLED, &lines.RedLED},
		{"fuel valve", pins.FuelValve, &lines.FuelValve},
		{"transfer valve", pins.TransferValve, &lines.TransferValve},
		{"fire valve", pins.FireValve, &lines.FireValve},
	}
	for _, req := range outputs {
		out, err := output(req.pin)
		if err != nil {
			return fail(req.what, req.pin, err)
		}
		*req.dst = out
	}

	return lines, nil
}
