package wireless

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTTransport carries the config channel over an MQTT broker. Topic layout
// under dawnlamp/<device-id>/:
//
//	presence            retained announce payload (empty = withdrawn)
//	session/open        peer -> device, payload is the peer id
//	session/close       peer -> device
//	<char>/set          peer -> device characteristic write
//	<char>/get          peer -> device read request
//	<char>/subscribe    peer -> device, enables periodic pushes
//	<char>              device -> peer current value
//	ack                 device -> peer write outcome
type MQTTTransport struct {
	client   paho.Client
	deviceID string
	name     string

	mu         sync.Mutex
	announcing bool
	closing    bool
	closed     bool

	events chan Event
}

// NewMQTTTransport builds a transport for the given broker URL. The link is
// not brought up until Start.
func NewMQTTTransport(broker, deviceID, name string) *MQTTTransport {
	t := &MQTTTransport{
		deviceID: deviceID,
		name:     name,
		events:   make(chan Event, 16),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("dawnlamp-" + deviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(t.topic("presence"), "", 1, true).
		SetOnConnectHandler(t.onConnect)
	t.client = paho.NewClient(opts)
	return t
}

func (t *MQTTTransport) topic(suffix string) string {
	return "dawnlamp/" + t.deviceID + "/" + suffix
}

// Start connects to the broker and installs the inbound subscriptions.
func (t *MQTTTransport) Start(ctx context.Context) error {
	token := t.client.Connect()
	if !waitToken(ctx, token, connectTimeout) {
		return fmt.Errorf("wireless: broker connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("wireless: broker connect: %w", err)
	}
	return nil
}

// onConnect reinstalls subscriptions on every (re)connect.
func (t *MQTTTransport) onConnect(c paho.Client) {
	filters := map[string]byte{
		t.topic("session/open"):  1,
		t.topic("session/close"): 1,
		t.topic("+/set"):         1,
		t.topic("+/get"):         0,
		t.topic("+/subscribe"):   0,
	}
	token := c.SubscribeMultiple(filters, t.onMessage)
	if !token.WaitTimeout(connectTimeout) || token.Error() != nil {
		log.Error().Err(token.Error()).Msg("Wireless subscription failed")
	}
}

func (t *MQTTTransport) onMessage(_ paho.Client, msg paho.Message) {
	rest := strings.TrimPrefix(msg.Topic(), "dawnlamp/"+t.deviceID+"/")
	peer := string(msg.Payload())

	var ev Event
	switch {
	case rest == "session/open":
		ev = Event{Type: EventSessionOpen, Peer: peer}
	case rest == "session/close":
		ev = Event{Type: EventSessionClose, Peer: peer}
	case strings.HasSuffix(rest, "/set"):
		ev = Event{Type: EventWrite, Char: Char(strings.TrimSuffix(rest, "/set")), Data: msg.Payload()}
	case strings.HasSuffix(rest, "/get"):
		ev = Event{Type: EventRead, Char: Char(strings.TrimSuffix(rest, "/get"))}
	case strings.HasSuffix(rest, "/subscribe"):
		ev = Event{Type: EventSubscribe, Char: Char(strings.TrimSuffix(rest, "/subscribe"))}
	default:
		return
	}
	t.deliver(ev)
}

// deliver runs on the paho router goroutine. The mutex is held across the
// non-blocking send so Close cannot close the channel mid-send.
func (t *MQTTTransport) deliver(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.events <- ev:
	default:
		// The service loop is wedged; dropping is better than blocking the
		// paho router.
		log.Warn().Str("event", ev.Type.String()).Msg("Wireless event dropped")
	}
}

// Announce publishes the retained presence record, making the device
// discoverable to companions scanning the broker.
func (t *MQTTTransport) Announce() error {
	payload, _ := json.Marshal(map[string]string{
		"id":   t.deviceID,
		"name": t.name,
	})
	if err := t.publishRaw(t.topic("presence"), payload, true); err != nil {
		return err
	}
	t.mu.Lock()
	t.announcing = true
	t.mu.Unlock()
	return nil
}

// StopAnnounce clears the retained presence record.
func (t *MQTTTransport) StopAnnounce() error {
	if err := t.publishRaw(t.topic("presence"), nil, true); err != nil {
		return err
	}
	t.mu.Lock()
	t.announcing = false
	t.mu.Unlock()
	return nil
}

func (t *MQTTTransport) Announcing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.announcing && t.client.IsConnectionOpen()
}

// Publish pushes a characteristic value.
func (t *MQTTTransport) Publish(char Char, payload []byte, retained bool) error {
	return t.publishRaw(t.topic(string(char)), payload, retained)
}

// Ack reports a write outcome on the ack topic.
func (t *MQTTTransport) Ack(char Char, result error) error {
	msg := "ok " + string(char)
	if result != nil {
		msg = fmt.Sprintf("err %s: %v", char, result)
	}
	return t.publishRaw(t.topic("ack"), []byte(msg), false)
}

func (t *MQTTTransport) publishRaw(topic string, payload []byte, retained bool) error {
	token := t.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("wireless: publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("wireless: publish %s: %w", topic, err)
	}
	return nil
}

func (t *MQTTTransport) Events() <-chan Event {
	return t.events
}

// Close withdraws presence and disconnects.
func (t *MQTTTransport) Close() error {
	t.mu.Lock()
	if t.closing {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.mu.Unlock()

	if t.client.IsConnectionOpen() {
		if err := t.StopAnnounce(); err != nil {
			log.Warn().Err(err).Msg("Presence withdraw failed during close")
		}
	}
	t.client.Disconnect(1000)

	t.mu.Lock()
	t.closed = true
	close(t.events)
	t.mu.Unlock()
	return nil
}

// waitToken waits for a paho token, honoring context cancellation.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		done <- token.WaitTimeout(timeout)
	}()
	select {
	case <-ctx.Done():
		return false
	case ok := <-done:
		return ok
	}
}
