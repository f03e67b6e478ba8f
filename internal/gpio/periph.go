//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// watchPoll bounds how long the edge watcher blocks in WaitForEdge, so
// Close never waits longer than this for the goroutine to notice.
const watchPoll = 250 * time.Millisecond

// periphInput reads a line through periph.io.
type periphInput struct {
	pin pgpio.PinIO
}

func (in *periphInput) ReadLevel() bool {
	return in.pin.Read() == pgpio.High
}

// periphOutput drives a line through periph.io.
type periphOutput struct {
	pin pgpio.PinIO
}

// SetLevel drives the line. Write faults are fatal for the same reason
// as in the character device backend.
func (out *periphOutput) SetLevel(active bool) {
	lvl := pgpio.Low
	if active {
		lvl = pgpio.High
	}
	if err := out.pin.Out(lvl); err != nil {
		log.Fatalf("gpio: write %s: %v", out.pin, err)
	}
}

// periphEdgeInput polls WaitForEdge on its own goroutine, because
// periph.io has no callback API. Edge timestamps are synthesized from
// the monotonic clock at delivery, so they carry goroutine scheduling
// jitter that the kernel timestamps of the chardev backend do not.
type periphEdgeInput struct {
	periphInput
	handler atomic.Pointer[func(Edge)]
	base    time.Time
	stop    chan struct{}
	done    chan struct{}
}

func (in *periphEdgeInput) OnRisingEdge(fn func(Edge)) {
	in.handler.Store(&fn)
}

func (in *periphEdgeInput) Cancel() {
	in.handler.Store(nil)
}

func (in *periphEdgeInput) watch() {
	defer close(in.done)
	for {
		select {
		case <-in.stop:
			return
		default:
		}
		if !in.pin.WaitForEdge(watchPoll) {
			continue
		}
		if fn := in.handler.Load(); fn != nil {
			(*fn)(Edge{Timestamp: time.Since(in.base)})
		}
	}
}

// NewPeriphLines resolves every line in pins through the periph.io
// host drivers. This backend exists for boards where the character
// device is unavailable; it behaves like NewChardevLines otherwise.
func NewPeriphLines(pins Pins) (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	byName := func(pin int) (pgpio.PinIO, error) {
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
		if p == nil {
			return nil, fmt.Errorf("no such pin GPIO%d", pin)
		}
		return p, nil
	}
	input := func(what string, pin int) (*periphInput, error) {
		p, err := byName(pin)
		if err != nil {
			return nil, err
		}
		if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s pin %d: %w", what, pin, err)
		}
		return &periphInput{pin: p}, nil
	}
	output := func(what string, pin int) (*periphOutput, error) {
		p, err := byName(pin)
		if err != nil {
			return nil, err
		}
		if err := p.Out(pgpio.Low); err != nil {
			return nil, fmt.Errorf("configure %s pin %d: %w", what, pin, err)
		}
		return &periphOutput{pin: p}, nil
	}

	encPin, err := byName(pins.Encoder)
	if err != nil {
		return nil, err
	}
	if err := encPin.In(pgpio.PullDown, pgpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("configure encoder pin %d: %w", pins.Encoder, err)
	}
	encoder := &periphEdgeInput{
		periphInput: periphInput{pin: encPin},
		base:        time.Now(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	lines := &Lines{
		Encoder: encoder,
		close: func() error {
			close(encoder.stop)
			<-encoder.done
			return encPin.Halt()
		},
	}

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
		in, err := input(req.what, req.pin)
		if err != nil {
			return nil, err
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
		out, err := output(req.what, req.pin)
		if err != nil {
			return nil, err
		}
		*req.dst = out
	}

	go encoder.watch()
	return lines, nil
}
