package jobs

import (
	"context"
	"log"
	"time"
)

// overdueMarker is the slice of the loan engine this job drives
type overdueMarker interface {
	MarkOverdue(ctx context.Context) (int, error)
}

// LoanOverdueJob periodically marks past-due installments overdue and
// accrues late fees
type LoanOverdueJob struct {
	loans    overdueMarker
	interval time.Duration
	stop     chan struct{}
}

func NewLoanOverdueJob(loans overdueMarker) *LoanOverdueJob {
	return &LoanOverdueJob{
		loans:    loans,
		interval: time.Hour,
		stop:     make(chan struct{}),
	}
}

func (j *LoanOverdueJob) Start(ctx context.Context) {
	log.Println("🕐 Starting loan overdue job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Loan overdue job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Loan overdue job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *LoanOverdueJob) Stop() {
	close(j.stop)
}

func (j *LoanOverdueJob) run(ctx context.Context) {
	marked, err := j.loans.MarkOverdue(ctx)
	if err != nil {
		log.Printf("❌ Error marking overdue loans: %v", err)
		return
	}
	if marked > 0 {
		log.Printf("✅ Marked %d installments overdue", marked)
	}
}
