package jobs

import (
	"context"
	"log"
	"time"
)

// staleSweeper is one expirable surface: stuck pending transactions
// or lapsed payment links
type staleSweeper interface {
	ExpireStale(ctx context.Context) (int, error)
}

// SweeperFunc adapts a bare function to staleSweeper
type SweeperFunc func(ctx context.Context) (int, error)

func (f SweeperFunc) ExpireStale(ctx context.Context) (int, error) { return f(ctx) }

// StaleExpiryJob periodically expires records whose deadline has
// passed: pending transactions past the stale age and active payment
// links past their expiry
type StaleExpiryJob struct {
	name     string
	source   staleSweeper
	interval time.Duration
	stop     chan struct{}
}

func NewStaleExpiryJob(name string, source staleSweeper) *StaleExpiryJob {
	return &StaleExpiryJob{
		name:     name,
		source:   source,
		interval: time.Minute,
		stop:     make(chan struct{}),
	}
}

func (j *StaleExpiryJob) Start(ctx context.Context) {
	log.Printf("🕐 Starting %s expiry job...", j.name)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("⏹️ %s expiry job stopped (context cancelled)", j.name)
			return
		case <-j.stop:
			log.Printf("⏹️ %s expiry job stopped", j.name)
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *StaleExpiryJob) Stop() {
	close(j.stop)
}

func (j *StaleExpiryJob) run(ctx context.Context) {
	expired, err := j.source.ExpireStale(ctx)
	if err != nil {
		log.Printf("❌ Error expiring stale %s records: %v", j.name, err)
		return
	}
	if expired > 0 {
		log.Printf("✅ Expired %d stale %s records", expired, j.name)
	}
}
