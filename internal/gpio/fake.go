package gpio

import "time"

// FakeInput is a test double for a digital input line.
type FakeInput struct {
	Level bool
}

// NewFakeInput creates a FakeInput at the given level.
func NewFakeInput(level bool) *FakeInput {
	return &FakeInput{Level: level}
}

// ReadLevel returns the current scripted level.
func (f *FakeInput) ReadLevel() bool {
	return f.Level
}

// Set changes the level returned by subsequent reads.
func (f *FakeInput) Set(level bool) {
	f.Level = level
}

// FakeOutput records every level written to it.
type FakeOutput struct {
	// Level is the most recently written level.
	Level bool

	// Writes contains every SetLevel call in order.
	Writes []bool
}

// NewFakeOutput creates a FakeOutput driven low.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetLevel records the write and updates Level.
func (f *FakeOutput) SetLevel(active bool) {
	f.Level = active
	f.Writes = append(f.Writes, active)
}

// Activations counts low-to-high transitions across the recorded
// writes. Repeated high writes count once.
func (f *FakeOutput) Activations() int {
	n := 0
	prev := false
	for _, w := range f.Writes {
		if w && !prev {
			n++
		}
		prev = w
	}
	return n
}

// FakeEdgeSource delivers scripted rising edges to the registered
// callback, standing in for a hardware encoder line.
type FakeEdgeSource struct {
	// Level is returned by ReadLevel for code that samples the line.
	Level bool

	// Dropped counts edges injected while no callback was registered.
	Dropped int

	fn func(Edge)
}

// NewFakeEdgeSource creates a FakeEdgeSource with no callback.
func NewFakeEdgeSource() *FakeEdgeSource {
	return &FakeEdgeSource{}
}

// ReadLevel returns the scripted line level.
func (f *FakeEdgeSource) ReadLevel() bool {
	return f.Level
}

// OnRisingEdge registers fn, replacing any previous callback.
func (f *FakeEdgeSource) OnRisingEdge(fn func(Edge)) {
	f.fn = fn
}

// Cancel deregisters the callback.
func (f *FakeEdgeSource) Cancel() {
	f.fn = nil
}

// Attached reports whether a callback is currently registered.
func (f *FakeEdgeSource) Attached() bool {
	return f.fn != nil
}

// Inject delivers one rising edge with the given monotonic timestamp.
// Edges injected while detached are counted in Dropped and discarded,
// mirroring real backend behavior.
func (f *FakeEdgeSource) Inject(ts time.Duration) {
	if f.fn == nil {
		f.Dropped++
		return
	}
	f.fn(Edge{Timestamp: ts})
}
