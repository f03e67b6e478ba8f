package mqtt

import "log"

// outboundMsg is a serialized message held for replay once the broker
// connection comes back.
type outboundMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of messages queued while the broker
// is unreachable. When full, the oldest message is overwritten so a
// long outage keeps the most recent history. Not safe for concurrent
// use; the publisher synchronizes around it.
type backlog struct {
	msgs    []outboundMsg
	head    int // next write position
	count   int
	dropped int // overwritten since the last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{msgs: make([]outboundMsg, capacity)}
}

func (b *backlog) push(msg outboundMsg) {
	if b.count == len(b.msgs) {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), overwriting oldest", len(b.msgs))
		}
		b.dropped++
	} else {
		b.count++
	}
	b.msgs[b.head] = msg
	b.head = (b.head + 1) % len(b.msgs)
}

// drain returns the queued messages oldest-first along with how many
// were lost to overwrites, and empties the backlog.
func (b *backlog) drain() ([]outboundMsg, int) {
	dropped := b.dropped
	b.dropped = 0
	if b.count == 0 {
		return nil, dropped
	}

	out := make([]outboundMsg, 0, b.count)
	start := (b.head - b.count + len(b.msgs)) % len(b.msgs)
	for i := 0; i < b.count; i++ {
		out = append(out, b.msgs[(start+i)%len(b.msgs)])
	}

	b.count = 0
	b.head = 0
	return out, dropped
}

func (b *backlog) len() int {
	return b.count
}
