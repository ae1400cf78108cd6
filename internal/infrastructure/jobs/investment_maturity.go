package jobs

import (
	"context"
	"log"
	"time"
)

// maturityProcessor is the slice of the investment engine this job
// drives
type maturityProcessor interface {
	ProcessMaturities(ctx context.Context) (int, error)
}

// InvestmentMaturityJob settles investments that have reached their
// maturity date
type InvestmentMaturityJob struct {
	investments maturityProcessor
	interval    time.Duration
	stop        chan struct{}
}

func NewInvestmentMaturityJob(investments maturityProcessor) *InvestmentMaturityJob {
	return &InvestmentMaturityJob{
		investments: investments,
		interval:    time.Hour,
		stop:        make(chan struct{}),
	}
}

func (j *InvestmentMaturityJob) Start(ctx context.Context) {
	log.Println("🕐 Starting investment maturity job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Investment maturity job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Investment maturity job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *InvestmentMaturityJob) Stop() {
	close(j.stop)
}

func (j *InvestmentMaturityJob) run(ctx context.Context) {
	settled, err := j.investments.ProcessMaturities(ctx)
	if err != nil {
		log.Printf("❌ Error processing investment maturities: %v", err)
		return
	}
	if settled > 0 {
		log.Printf("✅ Settled %d matured investments", settled)
	}
}
