package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string       `json:"state"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Sequences     CountsJSON   `json:"sequences"`
	LastAbort     *AbortJSON   `json:"last_abort,omitempty"`
	Recent        []EventJSON  `json:"recent_events"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of sequence counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Aborted   int `json:"aborted"`
}

// AbortJSON is the JSON representation of the last abort.
type AbortJSON struct {
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	Step      string `json:"step"`
}

// EventJSON is the JSON representation of a recent launch event.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state,omitempty"`
	Name      string `json:"name,omitempty"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PulsesToArm      int    `json:"pulses_to_arm"`
	ArmDebounceMs    int64  `json:"arm_debounce_ms"`
	ButtonDebounceMs int64  `json:"button_debounce_ms"`
	BlinkMs          int64  `json:"blink_ms"`
	ConfirmTimeoutMs int64  `json:"confirm_timeout_ms"`
	FuelGenHoldMs    int64  `json:"fuel_gen_hold_ms"`
	TransferHoldMs   int64  `json:"transfer_hold_ms"`
	FireHoldMs       int64  `json:"fire_hold_ms"`
	CooldownMs       int64  `json:"cooldown_ms"`
	IdlePollMs       int64  `json:"idle_poll_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:         state,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Sequences: CountsJSON{
			Started:   snap.Counts.Started,
			Completed: snap.Counts.Completed,
			Aborted:   snap.Counts.Aborted,
		},
		Recent: make([]EventJSON, 0, len(snap.Recent)),
		Config: ConfigJSON{
			PulsesToArm:      snap.Config.PulsesToArm,
			ArmDebounceMs:    snap.Config.ArmDebounceMs,
			ButtonDebounceMs: snap.Config.ButtonDebounceMs,
			BlinkMs:          snap.Config.BlinkMs,
			ConfirmTimeoutMs: snap.Config.ConfirmTimeoutMs,
			FuelGenHoldMs:    snap.Config.FuelGenHoldMs,
			TransferHoldMs:   snap.Config.TransferHoldMs,
			FireHoldMs:       snap.Config.FireHoldMs,
			CooldownMs:       snap.Config.CooldownMs,
			IdlePollMs:       snap.Config.IdlePollMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}

	if snap.LastAbort != nil {
		inner.LastAbort = &AbortJSON{
			Timestamp: snap.LastAbort.Timestamp.UTC().Format(time.RFC3339),
			State:     string(snap.LastAbort.State),
			Step:      snap.LastAbort.Step,
		}
	}

	for _, ev := range snap.Recent {
		inner.Recent = append(inner.Recent, EventJSON{
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(ev.Type),
			State:     string(ev.State),
			Name:      ev.Name,
		})
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
