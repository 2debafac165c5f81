// Package notifier polls the unread notification count on a fixed interval.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"billionsgym/internal/application/refresh"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 30 * time.Second

// UnreadCounter returns the caller's unread notification count.
// *api.Client satisfies it.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Poller publishes the unread count to a hub every interval.
// The interval is fixed: failures are logged and the next tick proceeds as normal.
type Poller struct {
	counter  UnreadCounter
	hub      *refresh.Hub
	interval time.Duration

	newTicker func(time.Duration) (<-chan time.Time, func())
}

// New creates a poller. A non-positive interval uses DefaultInterval.
// PRE: counter and hub are non-nil
func New(counter UnreadCounter, hub *refresh.Hub, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		counter:  counter,
		hub:      hub,
		interval: interval,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// PollOnce fetches the count and publishes it.
// POST: On success a NotificationsChanged event carrying the count is published
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	n, err := p.counter.UnreadCount(ctx)
	if err != nil {
		slog.Warn("notification_poll_failed", "error", err)
		return 0, err
	}
	p.hub.Publish(refresh.Event{Topic: refresh.NotificationsChanged, Unread: n})
	return n, nil
}

// Run polls once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticks, stop := p.newTicker(p.interval)
	defer stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			p.PollOnce(ctx)
		}
	}
}

// Start runs the poller in a goroutine.
// POST: Returns a stop func that cancels polling and waits for the goroutine to exit
func (p *Poller) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
