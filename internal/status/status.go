// Package status provides a thread-safe status tracker for the
// launch-sequencer daemon. It is fed from the control loop's event
// stream and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	ring "github.com/zfjagann/golang-ring"

	"github.com/sweeney/launch-sequencer/internal/launch"
)

// recentCapacity bounds the recent-event history kept for display.
const recentCapacity = 32

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PulsesToArm      int
	ArmDebounceMs    int64
	ButtonDebounceMs int64
	BlinkMs          int64
	ConfirmTimeoutMs int64
	FuelGenHoldMs    int64
	TransferHoldMs   int64
	FireHoldMs       int64
	CooldownMs       int64
	IdlePollMs       int64
	HeartbeatMs      int64
	Broker           string
	HTTPAddr         string
}

// AbortRecord describes the most recent aborted sequence.
type AbortRecord struct {
	Timestamp time.Time
	State     launch.State
	Step      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         launch.State
	Counts        launch.Counts
	LastAbort     *AbortRecord
	Recent        []launch.Event
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	recent ring.Ring
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
	t.recent.SetCapacity(recentCapacity)
	return t
}

// Record folds a launch event into the tracked state. Called from the
// control loop's reporter on every event.
func (t *Tracker) Record(ev launch.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case launch.EventState:
		t.snap.State = ev.State
	case launch.EventSequenceStart:
		t.snap.Counts.Started++
	case launch.EventSequenceComplete:
		t.snap.Counts.Completed++
	case launch.EventAbort:
		t.snap.Counts.Aborted++
		t.snap.LastAbort = &AbortRecord{
			Timestamp: ev.Timestamp,
			State:     ev.State,
			Step:      ev.Name,
		}
	case launch.EventHeartbeat:
		// Heartbeats confirm liveness but would crowd sequence
		// history out of the recent ring.
		return
	}

	t.recent.Enqueue(ev)
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. Recent
// events are ordered oldest first. The Now field is set to the current
// time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	vals := t.recent.Values()
	t.mu.RUnlock()

	s.Recent = make([]launch.Event, 0, len(vals))
	for _, v := range vals {
		s.Recent = append(s.Recent, v.(launch.Event))
	}
	s.Now = time.Now()
	return s
}
