package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Poller publishes every sensor on a fixed interval.
//
// Each tick runs its cycle in its own goroutine; a slow cycle may overlap
// the next one. The only retry after a failure is the next tick.
type Poller struct {
	hub       Hub
	publisher *Publisher
	interval  time.Duration
	timeout   time.Duration
	stats     *stats
	logger    Logger

	onHubError func(msg string, err error)

	wg sync.WaitGroup
}

// PollOnce fetches all sensors and publishes them.
func (p *Poller) PollOnce(ctx context.Context) error {
	p.stats.polls.Add(1)

	sensors, err := callHub(ctx, p.timeout, p.hub.ListSensors)
	if err != nil {
		p.stats.pollErrors.Add(1)
		return fmt.Errorf("listing sensors: %w", err)
	}

	p.publisher.PublishAll(sensors)
	p.stats.lastPoll.Store(time.Now().UnixNano())
	p.logger.Debug("poll cycle complete", "sensors", len(sensors))

	return nil
}

// Run polls on every tick until ctx is cancelled, then waits for
// in-flight cycles to finish.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.cycle(ctx)
			}()
		}
	}
}

// cycle runs one poll and reports failures to the error policy.
func (p *Poller) cycle(ctx context.Context) {
	if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
		if p.onHubError != nil {
			p.onHubError("poll failed", err)
		}
	}
}
