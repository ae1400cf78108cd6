package jobs

import (
	"context"
	"log"
	"time"
)

// payoutProcessor is the slice of the investment engine this job
// drives
type payoutProcessor interface {
	ProcessDuePayouts(ctx context.Context) (int, error)
}

// InvestmentPayoutJob credits periodic investment returns that have
// come due
type InvestmentPayoutJob struct {
	investments payoutProcessor
	interval    time.Duration
	stop        chan struct{}
}

func NewInvestmentPayoutJob(investments payoutProcessor) *InvestmentPayoutJob {
	return &InvestmentPayoutJob{
		investments: investments,
		interval:    15 * time.Minute,
		stop:        make(chan struct{}),
	}
}

func (j *InvestmentPayoutJob) Start(ctx context.Context) {
	log.Println("🕐 Starting investment payout job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Investment payout job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Investment payout job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *InvestmentPayoutJob) Stop() {
	close(j.stop)
}

func (j *InvestmentPayoutJob) run(ctx context.Context) {
	paid, err := j.investments.ProcessDuePayouts(ctx)
	if err != nil {
		log.Printf("❌ Error processing investment payouts: %v", err)
		return
	}
	if paid > 0 {
		log.Printf("✅ Credited %d investment payouts", paid)
	}
}
