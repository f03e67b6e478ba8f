package launch

import "time"

// Clock abstracts wall time and blocking sleeps so the control loop
// can run against a virtual clock in tests. Confirmation timeouts and
// stage holds are multi-second quantities, so wall time is fine here;
// sub-millisecond edge debouncing uses the backend's monotonic edge
// timestamps instead and never goes through Clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
