package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
)

const (
	scoreFloor   = 300
	scoreCeiling = 850

	newUserBaseline = 650
)

// Component weights, FICO style
var (
	weightPaymentHistory = decimal.NewFromFloat(0.35)
	weightUtilization    = decimal.NewFromFloat(0.30)
	weightAccountAge     = decimal.NewFromFloat(0.15)
	weightLoanHistory    = decimal.NewFromFloat(0.20)
)

// CreditScoreUsecase computes FICO-style 300-850 scores from
// in-system borrowing history
type CreditScoreUsecase struct {
	scoreRepo domainRepos.CreditScoreRepository
	loanRepo  domainRepos.LoanRepository
	userRepo  domainRepos.UserRepository
	now       func() time.Time
}

// NewCreditScoreUsecase creates a new credit score usecase
func NewCreditScoreUsecase(
	scoreRepo domainRepos.CreditScoreRepository,
	loanRepo domainRepos.LoanRepository,
	userRepo domainRepos.UserRepository,
) *CreditScoreUsecase {
	return &CreditScoreUsecase{
		scoreRepo: scoreRepo,
		loanRepo:  loanRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// GetLatest returns the most recent stored score, computing a fresh
// one when none exists
func (uc *CreditScoreUsecase) GetLatest(ctx context.Context, userID uuid.UUID) (*entities.CreditScore, error) {
	score, err := uc.scoreRepo.GetLatest(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return uc.Compute(ctx, userID)
		}
		return nil, err
	}
	return score, nil
}

// loanStats is the borrowing history rolled up for scoring
type loanStats struct {
	total         int
	completed     int
	defaulted     int
	active        int
	onTime        int
	late          int
	missed        int
	totalBorrowed decimal.Decimal
	currentDebt   decimal.Decimal
}

// Compute recalculates and stores the user's score
func (uc *CreditScoreUsecase) Compute(ctx context.Context, userID uuid.UUID) (*entities.CreditScore, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	loans, err := uc.loanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	stats := uc.collectStats(ctx, loans, now)

	paymentHistory := uc.paymentHistoryScore(stats)
	utilization := uc.utilizationScore(stats)
	accountAge := uc.accountAgeScore(now.Sub(user.CreatedAt))
	loanHistory := uc.loanHistoryScore(stats)

	weighted := decimal.NewFromInt(int64(paymentHistory)).Mul(weightPaymentHistory).
		Add(decimal.NewFromInt(int64(utilization)).Mul(weightUtilization)).
		Add(decimal.NewFromInt(int64(accountAge)).Mul(weightAccountAge)).
		Add(decimal.NewFromInt(int64(loanHistory)).Mul(weightLoanHistory))
	total := clampScore(int(weighted.Round(0).IntPart()))

	score := &entities.CreditScore{
		UserID:                 userID,
		Score:                  total,
		PaymentHistoryScore:    paymentHistory,
		CreditUtilizationScore: utilization,
		AccountAgeScore:        accountAge,
		LoanHistoryScore:       loanHistory,
		RiskLevel:              riskLevel(total, stats.defaulted),
		ComputedAt:             now,
	}
	if recs := uc.recommendations(score, stats); len(recs) > 0 {
		score.Recommendations = null.StringFrom(strings.Join(recs, "; "))
	}
	if err := uc.scoreRepo.Create(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

func (uc *CreditScoreUsecase) collectStats(ctx context.Context, loans []*entities.LoanApplication, now time.Time) loanStats {
	stats := loanStats{
		totalBorrowed: decimal.Zero,
		currentDebt:   decimal.Zero,
	}
	for _, loan := range loans {
		switch loan.Status {
		case entities.LoanStatusPending, entities.LoanStatusUnderReview,
			entities.LoanStatusRejected, entities.LoanStatusCancelled,
			entities.LoanStatusApproved:
			continue
		}
		stats.total++
		principal := loan.Amount
		if loan.ApprovedAmount.Valid {
			principal = loan.ApprovedAmount.Decimal
		}
		stats.totalBorrowed = stats.totalBorrowed.Add(principal)

		switch loan.Status {
		case entities.LoanStatusPaid:
			stats.completed++
		case entities.LoanStatusDefaulted:
			stats.defaulted++
		default:
			stats.active++
			stats.currentDebt = stats.currentDebt.Add(loan.TotalRepayable.Sub(loan.AmountRepaid))
		}

		schedules, err := uc.loanRepo.ListSchedules(ctx, loan.ID)
		if err != nil {
			continue
		}
		for _, s := range schedules {
			switch {
			case s.Status == entities.ScheduleStatusPaid && s.PaidAt != nil && !s.PaidAt.After(s.DueDate):
				stats.onTime++
			case s.Status == entities.ScheduleStatusPaid:
				stats.late++
			case s.DueDate.Before(now) && s.Status != entities.ScheduleStatusPaid:
				stats.missed++
			}
		}
	}
	return stats
}

func (uc *CreditScoreUsecase) paymentHistoryScore(stats loanStats) int {
	settled := stats.onTime + stats.late + stats.missed
	if settled == 0 {
		return newUserBaseline
	}
	onTimeRatio := float64(stats.onTime) / float64(settled)
	score := scoreFloor + int(onTimeRatio*550) - 50*stats.late - 100*stats.missed
	return clampScore(score)
}

func (uc *CreditScoreUsecase) utilizationScore(stats loanStats) int {
	score := newUserBaseline
	if stats.active > 3 {
		score -= 50 * (stats.active - 3)
	}
	score -= 150 * stats.defaulted
	if stats.totalBorrowed.IsPositive() {
		ratio := stats.currentDebt.Div(stats.totalBorrowed)
		switch {
		case ratio.LessThan(decimal.NewFromFloat(0.3)):
			score += 100
		case ratio.GreaterThan(decimal.NewFromFloat(0.7)):
			score -= 100
		}
	}
	return clampScore(score)
}

// accountAgeScore steps through age buckets
func (uc *CreditScoreUsecase) accountAgeScore(age time.Duration) int {
	days := int(age.Hours() / 24)
	switch {
	case days < 30:
		return 300
	case days < 90:
		return 450
	case days < 180:
		return 550
	case days < 365:
		return 650
	case days < 730:
		return 750
	default:
		return 850
	}
}

func (uc *CreditScoreUsecase) loanHistoryScore(stats loanStats) int {
	if stats.total == 0 {
		return newUserBaseline
	}
	completedRatio := float64(stats.completed) / float64(stats.total)
	score := scoreFloor + int(completedRatio*550)
	// having any settled history at all counts for something
	score += 25
	if stats.completed > 0 {
		score += 25
	}
	score -= 200 * stats.defaulted
	return clampScore(score)
}

func (uc *CreditScoreUsecase) recommendations(score *entities.CreditScore, stats loanStats) []string {
	var recs []string
	if stats.defaulted > 0 {
		recs = append(recs, "Settle defaulted loans to rebuild your score")
	}
	if score.PaymentHistoryScore < 550 {
		recs = append(recs, "Pay installments on or before their due dates")
	}
	if score.CreditUtilizationScore < 550 {
		recs = append(recs, "Reduce outstanding debt relative to your borrowing history")
	}
	if score.AccountAgeScore < 550 {
		recs = append(recs, "Score improves as your account history grows")
	}
	if stats.total == 0 {
		recs = append(recs, "Complete a loan successfully to build credit history")
	}
	return recs
}

func clampScore(score int) int {
	if score < scoreFloor {
		return scoreFloor
	}
	if score > scoreCeiling {
		return scoreCeiling
	}
	return score
}

// riskLevel bands the score. A default on record always rates
// very high regardless of the number.
func riskLevel(score, defaults int) entities.RiskLevel {
	if defaults > 0 {
		return entities.RiskVeryHigh
	}
	switch {
	case score >= 740:
		return entities.RiskLow
	case score >= 670:
		return entities.RiskMedium
	case score >= 580:
		return entities.RiskHigh
	default:
		return entities.RiskVeryHigh
	}
}
