package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Relay is the long-poll contract of the hosted event relay.
// Poll blocks until events arrive, the relay times out (returning an empty
// slice), or the context is cancelled.
type Relay interface {
	Poll(ctx context.Context) ([]Event, error)
}

// httpRelayTimeout bounds one long-poll round trip. Generous because the
// relay holds the request open while waiting for events.
const httpRelayTimeout = 90 * time.Second

// HTTPRelay implements Relay against the hosted relay's HTTP endpoint.
type HTTPRelay struct {
	url  string
	http *http.Client
}

// NewHTTPRelay creates a relay client for the given long-poll URL.
func NewHTTPRelay(url string) *HTTPRelay {
	return &HTTPRelay{
		url:  url,
		http: &http.Client{Timeout: httpRelayTimeout},
	}
}

// Poll performs one long-poll round trip and decodes the returned events.
func (r *HTTPRelay) Poll(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building poll request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling relay: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil // Relay timed out with nothing to deliver
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding relay events: %w", err)
	}
	return events, nil
}

// Poller drives the fallback delivery path: it long-polls a Relay and
// pushes each returned event through the Dispatcher.
type Poller struct {
	relay      Relay
	dispatcher *Dispatcher
	retryDelay time.Duration
	logger     Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPoller creates a poller. Call Start to begin polling.
//
// Parameters:
//   - relay: Long-poll source of events
//   - dispatcher: Destination for every polled event
//   - retryDelay: Back-off after a failed poll
func NewPoller(relay Relay, dispatcher *Dispatcher, retryDelay time.Duration) *Poller {
	return &Poller{
		relay:      relay,
		dispatcher: dispatcher,
		retryDelay: retryDelay,
		logger:     noopLogger{},
		done:       make(chan struct{}),
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// Start begins the poll loop. Call Stop or cancel ctx to shut down.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop gracefully stops the poll loop.
// Safe to call multiple times (uses sync.Once).
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// loop polls until stopped. Failed polls back off for retryDelay; an empty
// result loops straight back into the next poll.
func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		events, err := p.relay.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("relay poll failed, backing off",
				"error", err,
				"retry_delay", p.retryDelay.String(),
			)
			select {
			case <-ctx.Done():
				return
			case <-p.done:
				return
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, ev := range events {
			p.dispatcher.Dispatch(ev)
		}
	}
}
