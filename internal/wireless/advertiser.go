package wireless

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	advertiserBackoffMin = 500 * time.Millisecond
	advertiserBackoffMax = 30 * time.Second
)

// Advertiser reconciles desired discoverability against the transport's
// observed state. Mode code only flips the desired flag; the loop here owns
// every Announce/StopAnnounce call and retries failures with bounded backoff
// instead of scattering ad-hoc retry timers through the modes.
type Advertiser struct {
	transport Transport

	periodicInterval time.Duration
	limiter          *rate.Limiter

	mu      sync.Mutex
	desired bool
	backoff time.Duration

	trigger chan struct{}
}

// NewAdvertiser creates an advertiser; discoverability starts withdrawn.
func NewAdvertiser(transport Transport, periodicInterval time.Duration) *Advertiser {
	if periodicInterval == 0 {
		periodicInterval = 30 * time.Second
	}
	return &Advertiser{
		transport:        transport,
		periodicInterval: periodicInterval,
		limiter:          rate.NewLimiter(rate.Limit(2), 2),
		backoff:          advertiserBackoffMin,
		trigger:          make(chan struct{}, 1),
	}
}

// SetDiscoverable updates the desired state and triggers reconciliation.
func (a *Advertiser) SetDiscoverable(on bool) {
	a.mu.Lock()
	changed := a.desired != on
	a.desired = on
	if changed {
		a.backoff = advertiserBackoffMin
	}
	a.mu.Unlock()
	if changed {
		a.Trigger()
	}
}

// Discoverable reports the desired state.
func (a *Advertiser) Discoverable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.desired
}

// Trigger requests an immediate reconcile pass.
func (a *Advertiser) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
		// Already triggered
	}
}

// Run drives the reconcile loop until ctx is cancelled. On exit the
// advertisement is withdrawn so hibernation never races a live announce.
func (a *Advertiser) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.periodicInterval)
	defer ticker.Stop()

	retry := time.NewTimer(time.Hour)
	retry.Stop()
	defer retry.Stop()

	for {
		if delay, ok := a.reconcile(ctx); ok {
			retry.Stop()
		} else {
			retry.Reset(delay)
		}

		select {
		case <-ctx.Done():
			if a.transport.Announcing() {
				if err := a.transport.StopAnnounce(); err != nil {
					log.Warn().Err(err).Msg("Withdraw on shutdown failed")
				}
			}
			return nil
		case <-a.trigger:
		case <-ticker.C:
		case <-retry.C:
		}
	}
}

// reconcile makes one attempt to converge observed onto desired. It returns
// ok=false with a retry delay when the attempt failed.
func (a *Advertiser) reconcile(ctx context.Context) (time.Duration, bool) {
	a.mu.Lock()
	desired := a.desired
	a.mu.Unlock()

	actual := a.transport.Announcing()
	if desired == actual {
		a.resetBackoff()
		return 0, true
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return 0, true
	}

	var err error
	if desired {
		err = a.transport.Announce()
	} else {
		err = a.transport.StopAnnounce()
	}
	if err != nil {
		delay := a.nextBackoff()
		log.Warn().Err(err).Bool("desired", desired).Dur("retry_in", delay).
			Msg("Discoverability reconcile failed")
		return delay, false
	}

	log.Debug().Bool("discoverable", desired).Msg("Discoverability reconciled")
	a.resetBackoff()
	return 0, true
}

func (a *Advertiser) nextBackoff() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.backoff
	a.backoff *= 2
	if a.backoff > advertiserBackoffMax {
		a.backoff = advertiserBackoffMax
	}
	return d
}

func (a *Advertiser) resetBackoff() {
	a.mu.Lock()
	a.backoff = advertiserBackoffMin
	a.mu.Unlock()
}
