package wireless

import (
	"context"
	"sync"
)

// FakeTransport is an in-memory Transport for tests. Inject feeds events into
// the service loop; published values and acks are recorded for assertions.
type FakeTransport struct {
	mu         sync.Mutex
	announcing bool
	closed     bool

	AnnounceCalls int
	AnnounceErr   error
	PublishErr    error

	Published []FakePublish
	Acks      []FakeAck

	events chan Event
}

type FakePublish struct {
	Char     Char
	Payload  []byte
	Retained bool
}

type FakeAck struct {
	Char Char
	Err  error
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{events: make(chan Event, 16)}
}

// Inject delivers an event as if it arrived from a peer.
func (t *FakeTransport) Inject(ev Event) {
	t.events <- ev
}

func (t *FakeTransport) Start(context.Context) error { return nil }

func (t *FakeTransport) Announce() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AnnounceCalls++
	if t.AnnounceErr != nil {
		return t.AnnounceErr
	}
	t.announcing = true
	return nil
}

func (t *FakeTransport) StopAnnounce() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.announcing = false
	return nil
}

func (t *FakeTransport) Announcing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.announcing
}

func (t *FakeTransport) Publish(char Char, payload []byte, retained bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PublishErr != nil {
		return t.PublishErr
	}
	t.Published = append(t.Published, FakePublish{Char: char, Payload: append([]byte(nil), payload...), Retained: retained})
	return nil
}

func (t *FakeTransport) Ack(char Char, result error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Acks = append(t.Acks, FakeAck{Char: char, Err: result})
	return nil
}

func (t *FakeTransport) Events() <-chan Event {
	return t.events
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.announcing = false
	close(t.events)
	return nil
}

// PublishedTo returns all recorded payloads for one characteristic.
func (t *FakeTransport) PublishedTo(char Char) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out [][]byte
	for _, p := range t.Published {
		if p.Char == char {
			out = append(out, p.Payload)
		}
	}
	return out
}
