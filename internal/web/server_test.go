package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/launch-sequencer/internal/launch"
	"github.com/sweeney/launch-sequencer/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PulsesToArm:      2,
		ButtonDebounceMs: 50,
		ConfirmTimeoutMs: 60000,
		CooldownMs:       5000,
		HeartbeatMs:      900000,
		Broker:           "tcp://192.168.1.200:1883",
		HTTPAddr:         ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Record(launch.Event{
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Type:      launch.EventState,
		State:     launch.StateAwaitGreen,
	})
	tr.Record(launch.Event{
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Type:      launch.EventSequenceStart,
		State:     launch.StateIdle,
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.State != "AWAIT_GREEN" {
		t.Errorf("State: got %q, want AWAIT_GREEN", sj.Status.State)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Sequences.Started != 1 {
		t.Errorf("Sequences.Started: got %d, want 1", sj.Status.Sequences.Started)
	}
	if len(sj.Status.Recent) != 2 {
		t.Errorf("expected 2 recent events, got %d", len(sj.Status.Recent))
	}
	if sj.Status.Config.PulsesToArm != 2 {
		t.Errorf("Config.PulsesToArm: got %d, want 2", sj.Status.Config.PulsesToArm)
	}
	if sj.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("Config.Broker: got %q", sj.Status.Config.Broker)
	}
}

func TestJSONUnknownStateBeforeFirstEvent(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.State != "UNKNOWN" {
		t.Errorf("State before first event: got %q, want UNKNOWN", sj.Status.State)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "routable",
		SSID:   "launchpad",
	})

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Record(launch.Event{
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Type:      launch.EventState,
		State:     launch.StateTransferringFuel,
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "TRANSFERRING_FUEL") {
		t.Error("expected current state in HTML body")
	}
	if !strings.Contains(string(body), "Launch Sequencer") {
		t.Error("expected page title in HTML body")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestHTMLShowsLastAbort(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Record(launch.Event{
		Timestamp: time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC),
		Type:      launch.EventAbort,
		State:     launch.StateAwaitBlue,
		Name:      "blue",
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Last abort") {
		t.Error("expected last abort line in HTML body")
	}
	if !strings.Contains(string(body), "AWAIT_BLUE") {
		t.Error("expected abort state in HTML body")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	// Initially no sequences
	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.Sequences.Started != 0 {
		t.Error("expected no started sequences initially")
	}

	// Run a sequence through the tracker
	tr.Record(launch.Event{Type: launch.EventSequenceStart, State: launch.StateIdle})
	tr.Record(launch.Event{Type: launch.EventSequenceComplete, State: launch.StateFiring})
	tr.Record(launch.Event{Type: launch.EventState, State: launch.StateCooldown})
	tr.SetMQTTConnected(true)

	// Should reflect new state
	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if sj2.Status.Sequences.Completed != 1 {
		t.Errorf("Sequences.Completed: got %d, want 1", sj2.Status.Sequences.Completed)
	}
	if sj2.Status.State != "COOLDOWN" {
		t.Errorf("State: got %q, want COOLDOWN", sj2.Status.State)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
