package wireless

import "context"

// EventType tags everything the transport can hand to the service loop.
type EventType int

const (
	// EventSessionOpen means a companion attached to the config channel.
	EventSessionOpen EventType = iota
	// EventSessionClose means the companion detached (or the link dropped).
	EventSessionClose
	// EventWrite carries a characteristic write payload.
	EventWrite
	// EventRead asks for the current value of a readable characteristic.
	EventRead
	// EventSubscribe enables periodic pushes for a characteristic (battery).
	EventSubscribe
)

func (t EventType) String() string {
	switch t {
	case EventSessionOpen:
		return "session_open"
	case EventSessionClose:
		return "session_close"
	case EventWrite:
		return "write"
	case EventRead:
		return "read"
	case EventSubscribe:
		return "subscribe"
	default:
		return "unknown"
	}
}

// Event is one transport-originated occurrence. All event kinds flow through
// the single Events channel so the service loop is the only place that
// inspects them.
type Event struct {
	Type EventType
	Char Char   // valid for Write/Read/Subscribe
	Data []byte // valid for Write
	Peer string // transport-level peer identity, may be empty
}

// Transport is the low-level link. Implementations deliver peer activity on
// Events and must keep delivering until Close; the channel is closed when the
// link is torn down.
type Transport interface {
	// Start brings the link up. It returns once the transport is ready to
	// accept peers (not once a peer attaches).
	Start(ctx context.Context) error

	// Announce makes the device discoverable; StopAnnounce withdraws it.
	// Both are idempotent.
	Announce() error
	StopAnnounce() error

	// Announcing reports the link's observed discoverability state.
	Announcing() bool

	// Publish pushes a characteristic value to the attached peer (or to the
	// presence channel when retained).
	Publish(char Char, payload []byte, retained bool) error

	// Ack reports the outcome of a write back to the peer. A nil result
	// means the write was accepted and persisted.
	Ack(char Char, result error) error

	Events() <-chan Event

	// Close withdraws discoverability, drops any peer and releases the
	// link. Events is closed afterwards.
	Close() error
}
