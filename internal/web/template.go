package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/launch-sequencer/internal/launch"
	"github.com/sweeney/launch-sequencer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s launch.State) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
	"stateClass": func(s launch.State) string {
		switch s {
		case "":
			return "unknown"
		case launch.StateIdle:
			return "idle"
		case launch.StateCooldown:
			return "cooldown"
		default:
			return "active"
		}
	},
	"clock": func(t time.Time) string {
		return t.UTC().Format("15:04:05")
	},
	"detail": func(ev launch.Event) string {
		if ev.Name != "" {
			return ev.Name
		}
		return string(ev.State)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Launch Sequencer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.state-banner { font-size: 1.6em; font-weight: bold; padding: 12px; text-align: center; border: 2px solid #ddd; }
.state-banner.idle { color: green; }
.state-banner.active { color: #c00; border-color: #c00; }
.state-banner.cooldown { color: orange; }
.state-banner.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.abort { color: #c00; }
</style>
</head>
<body>
<h1>Launch Sequencer</h1>

<div class="state-banner {{stateClass .State}}">{{stateOrUnknown .State}}</div>

<h2>Sequences</h2>
<table>
<tr><th>Started</th><td>{{.Counts.Started}}</td></tr>
<tr><th>Completed</th><td>{{.Counts.Completed}}</td></tr>
<tr><th>Aborted</th><td>{{.Counts.Aborted}}</td></tr>
</table>
{{if .LastAbort}}
<p class="abort">Last abort: {{.LastAbort.Step}} not confirmed in {{.LastAbort.State}} at {{clock .LastAbort.Timestamp}}</p>
{{end}}

{{if .Recent}}
<h2>Recent Activity</h2>
<table>
{{range .Recent}}<tr><th>{{clock .Timestamp}}</th><td>{{.Type}}</td><td>{{detail .}}</td></tr>
{{end}}</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Pulses to arm</th><td>{{.Config.PulsesToArm}}</td></tr>
<tr><th>Confirm timeout</th><td>{{.Config.ConfirmTimeoutMs}}ms</td></tr>
<tr><th>Cooldown</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
