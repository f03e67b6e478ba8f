package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/launch-sequencer/internal/launch"
)

const (
	connectTimeout  = 10 * time.Second
	publishTimeout  = 5 * time.Second
	backlogCapacity = 256
)

// RealPublisher publishes to an actual MQTT broker. It never blocks the
// control loop on a dead connection: messages published while the
// broker is unreachable go into a backlog and are replayed when the
// connection comes back.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	queue   *backlog
	wasLost bool
}

// NewRealPublisher creates a publisher for the given broker. The broker
// being down at startup is not an error: the client keeps retrying in
// the background and the publisher buffers until it connects.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newBacklog(backlogCapacity)}

	// The will fires if the broker loses us without a clean disconnect.
	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("launch-sequencer").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(connectTimeout) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	} else {
		log.Printf("mqtt: broker %s unreachable, buffering until connected", broker)
	}

	return p, nil
}

// onConnect runs on the paho client's goroutine on every (re)connect.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.queue.drain()
	reconnected := p.wasLost
	p.wasLost = false
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: connected, replaying %d buffered messages (%d lost)", len(msgs), dropped)
	}
	// Fire-and-forget: waiting on tokens inside a paho handler can
	// deadlock the client.
	for _, m := range msgs {
		client.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	if reconnected {
		payload, err := FormatSystemPayload(SystemEvent{
			Timestamp: time.Now(),
			Event:     "RECONNECTED",
		})
		if err == nil {
			client.Publish(TopicSystem, 1, false, payload)
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.wasLost = true
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// Publish sends a launch event at QoS 0, not retained. Launch events
// are a narration; a lost one is not worth a redelivery.
func (p *RealPublisher) Publish(event launch.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event at QoS 1 so startup and
// shutdown are not silently lost.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.push(outboundMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		queued := p.queue.len()
		p.mu.Unlock()
		log.Printf("mqtt: not connected, buffered message (%d queued)", queued)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker, allowing in-flight messages up to
// a second to flush.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
