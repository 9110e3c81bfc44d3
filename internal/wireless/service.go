package wireless

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler is the config-channel consumer. HandleWrite must return only after
// the value is validated, persisted and any dependent schedule state is
// recomputed; the ack sent to the peer is keyed on its error.
type Handler interface {
	HandleWrite(char Char, data []byte) error
	HandleRead(char Char) ([]byte, error)
	SessionOpened(id string)
	SessionClosed(id string)
}

// Service runs the config channel: it owns the transport event loop, session
// lifecycle and the periodic battery pusher. All transport events funnel
// through one processing point in run; nothing here touches lamp or display
// hardware, so the pusher's reads cannot race the control loop's writes.
type Service struct {
	transport  Transport
	advertiser *Advertiser
	handler    Handler

	pushInterval time.Duration

	mu        sync.Mutex
	sessionID string
	peer      string
	pushing   bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService wires a service over the given transport. pushInterval bounds
// the battery notification cadence once a peer subscribes.
func NewService(transport Transport, handler Handler, pushInterval time.Duration) *Service {
	if pushInterval == 0 {
		pushInterval = 30 * time.Second
	}
	return &Service{
		transport:    transport,
		advertiser:   NewAdvertiser(transport, 30*time.Second),
		handler:      handler,
		pushInterval: pushInterval,
		done:         make(chan struct{}),
	}
}

// SetDiscoverable flips the desired advertising state.
func (s *Service) SetDiscoverable(on bool) {
	s.advertiser.SetDiscoverable(on)
}

// SessionActive reports whether a companion is currently attached.
func (s *Service) SessionActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID != ""
}

// Run brings the link up and processes events until ctx is cancelled or the
// transport closes its event stream.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer close(s.done)

	if err := s.transport.Start(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.advertiser.Run(ctx)
	}()
	defer wg.Wait()

	push := time.NewTicker(s.pushInterval)
	defer push.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.transport.Events():
			if !ok {
				return nil
			}
			s.handle(ev)
		case <-push.C:
			s.pushBattery()
		}
	}
}

// Shutdown stops the event loop, the pusher and the advertiser, then
// releases the transport. It must complete before hibernation is armed.
func (s *Service) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return s.transport.Close()
}

func (s *Service) handle(ev Event) {
	switch ev.Type {
	case EventSessionOpen:
		s.openSession(ev.Peer)
	case EventSessionClose:
		s.closeSession()
	case EventWrite:
		err := s.handler.HandleWrite(ev.Char, ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("char", string(ev.Char)).Msg("Characteristic write rejected")
		}
		if ackErr := s.transport.Ack(ev.Char, err); ackErr != nil {
			log.Warn().Err(ackErr).Str("char", string(ev.Char)).Msg("Ack publish failed")
		}
	case EventRead:
		value, err := s.handler.HandleRead(ev.Char)
		if err != nil {
			_ = s.transport.Ack(ev.Char, err)
			return
		}
		if err := s.transport.Publish(ev.Char, value, false); err != nil {
			log.Warn().Err(err).Str("char", string(ev.Char)).Msg("Value publish failed")
		}
	case EventSubscribe:
		if ev.Char == CharBattery {
			s.mu.Lock()
			s.pushing = true
			s.mu.Unlock()
			s.pushBattery()
		}
	}
}

func (s *Service) openSession(peer string) {
	s.mu.Lock()
	replaced := s.sessionID
	s.sessionID = uuid.NewString()
	s.peer = peer
	id := s.sessionID
	s.mu.Unlock()

	if replaced != "" {
		s.handler.SessionClosed(replaced)
	}

	log.Info().Str("session", id).Str("peer", peer).Msg("Config session opened")
	s.handler.SessionOpened(id)

	// Fresh battery reading on attach so the companion has a value before
	// it subscribes.
	s.pushBatteryValue()
}

func (s *Service) closeSession() {
	s.mu.Lock()
	id := s.sessionID
	s.sessionID = ""
	s.peer = ""
	s.pushing = false
	s.mu.Unlock()

	if id == "" {
		return
	}
	log.Info().Str("session", id).Msg("Config session closed")
	s.handler.SessionClosed(id)
}

// pushBattery publishes a reading only while a subscribed session is active.
func (s *Service) pushBattery() {
	s.mu.Lock()
	active := s.sessionID != "" && s.pushing
	s.mu.Unlock()
	if !active {
		return
	}
	s.pushBatteryValue()
}

func (s *Service) pushBatteryValue() {
	value, err := s.handler.HandleRead(CharBattery)
	if err != nil {
		log.Warn().Err(err).Msg("Battery read for push failed")
		return
	}
	if err := s.transport.Publish(CharBattery, value, false); err != nil {
		log.Warn().Err(err).Msg("Battery push failed")
	}
}
