package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

// LoanProductRepository implements loan catalog storage
type LoanProductRepository struct {
	db *gorm.DB
}

// NewLoanProductRepository creates a new loan product repository
func NewLoanProductRepository(db *gorm.DB) *LoanProductRepository {
	return &LoanProductRepository{db: db}
}

func (r *LoanProductRepository) Create(ctx context.Context, product *entities.LoanProduct) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *LoanProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.LoanProduct, error) {
	var p entities.LoanProduct
	if err := GetDB(ctx, r.db).Preload("Currency").Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *LoanProductRepository) ListActive(ctx context.Context) ([]*entities.LoanProduct, error) {
	var out []*entities.LoanProduct
	err := GetDB(ctx, r.db).Preload("Currency").Where("is_active = ?", true).Order("name").Find(&out).Error
	return out, err
}

// LoanRepository implements loan application, schedule and repayment
// storage
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan *entities.LoanApplication) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	now := time.Now()
	loan.CreatedAt = now
	loan.UpdatedAt = now
	return GetDB(ctx, r.db).Create(loan).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.LoanApplication, error) {
	var l entities.LoanApplication
	if err := GetDB(ctx, r.db).Preload("Product").Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.LoanApplication, error) {
	var out []*entities.LoanApplication
	err := GetDB(ctx, r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) HasOpenLoan(ctx context.Context, userID uuid.UUID) (bool, error) {
	openStatuses := []entities.LoanStatus{
		entities.LoanStatusPending,
		entities.LoanStatusUnderReview,
		entities.LoanStatusApproved,
		entities.LoanStatusDisbursed,
		entities.LoanStatusActive,
		entities.LoanStatusOverdue,
	}
	var count int64
	err := GetDB(ctx, r.db).Model(&entities.LoanApplication{}).
		Where("user_id = ? AND status IN ?", userID, openStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LoanRepository) Update(ctx context.Context, loan *entities.LoanApplication) error {
	loan.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.LoanApplication{}).Where("id = ?", loan.ID).Updates(map[string]interface{}{
		"status":             loan.Status,
		"approved_amount":    loan.ApprovedAmount,
		"interest_rate":      loan.InterestRate,
		"total_interest":     loan.TotalInterest,
		"total_repayable":    loan.TotalRepayable,
		"installment_amount": loan.InstallmentAmount,
		"amount_repaid":      loan.AmountRepaid,
		"rejection_reason":   loan.RejectionReason,
		"approved_at":        loan.ApprovedAt,
		"disbursed_at":       loan.DisbursedAt,
		"paid_at":            loan.PaidAt,
		"updated_at":         loan.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status entities.LoanStatus) ([]*entities.LoanApplication, error) {
	var out []*entities.LoanApplication
	err := GetDB(ctx, r.db).Where("status = ?", status).Find(&out).Error
	return out, err
}

func (r *LoanRepository) CreateSchedules(ctx context.Context, schedules []*entities.LoanRepaymentSchedule) error {
	now := time.Now()
	for _, s := range schedules {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.CreatedAt = now
		s.UpdatedAt = now
	}
	return GetDB(ctx, r.db).Create(schedules).Error
}

func (r *LoanRepository) ListSchedules(ctx context.Context, loanID uuid.UUID) ([]*entities.LoanRepaymentSchedule, error) {
	var out []*entities.LoanRepaymentSchedule
	err := GetDB(ctx, r.db).Where("loan_id = ?", loanID).Order("installment_number").Find(&out).Error
	return out, err
}

func (r *LoanRepository) GetSchedule(ctx context.Context, id uuid.UUID) (*entities.LoanRepaymentSchedule, error) {
	var s entities.LoanRepaymentSchedule
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LoanRepository) NextUnpaidSchedule(ctx context.Context, loanID uuid.UUID) (*entities.LoanRepaymentSchedule, error) {
	var s entities.LoanRepaymentSchedule
	err := GetDB(ctx, r.db).
		Where("loan_id = ? AND status <> ?", loanID, entities.ScheduleStatusPaid).
		Order("installment_number").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LoanRepository) UpdateSchedule(ctx context.Context, schedule *entities.LoanRepaymentSchedule) error {
	schedule.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.LoanRepaymentSchedule{}).Where("id = ?", schedule.ID).Updates(map[string]interface{}{
		"amount_paid":        schedule.AmountPaid,
		"outstanding_amount": schedule.OutstandingAmount,
		"late_fee":           schedule.LateFee,
		"status":             schedule.Status,
		"paid_at":            schedule.PaidAt,
		"updated_at":         schedule.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) ListSchedulesDueBefore(ctx context.Context, loanID uuid.UUID, cutoff time.Time) ([]*entities.LoanRepaymentSchedule, error) {
	var out []*entities.LoanRepaymentSchedule
	err := GetDB(ctx, r.db).
		Where("loan_id = ? AND status <> ? AND due_date < ?",
			loanID, entities.ScheduleStatusPaid, cutoff).
		Order("installment_number").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) CountUnpaidSchedules(ctx context.Context, loanID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&entities.LoanRepaymentSchedule{}).
		Where("loan_id = ? AND status <> ?", loanID, entities.ScheduleStatusPaid).
		Count(&count).Error
	return count, err
}

func (r *LoanRepository) CreateRepayment(ctx context.Context, repayment *entities.LoanRepayment) error {
	if repayment.ID == uuid.Nil {
		repayment.ID = uuid.New()
	}
	repayment.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(repayment).Error
}

func (r *LoanRepository) ListRepayments(ctx context.Context, loanID uuid.UUID) ([]*entities.LoanRepayment, error) {
	var out []*entities.LoanRepayment
	err := GetDB(ctx, r.db).Where("loan_id = ?", loanID).Order("created_at").Find(&out).Error
	return out, err
}

// CreditScoreRepository implements credit score history storage
type CreditScoreRepository struct {
	db *gorm.DB
}

// NewCreditScoreRepository creates a new credit score repository
func NewCreditScoreRepository(db *gorm.DB) *CreditScoreRepository {
	return &CreditScoreRepository{db: db}
}

func (r *CreditScoreRepository) Create(ctx context.Context, score *entities.CreditScore) error {
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}
	now := time.Now()
	score.CreatedAt = now
	if score.ComputedAt.IsZero() {
		score.ComputedAt = now
	}
	return GetDB(ctx, r.db).Create(score).Error
}

func (r *CreditScoreRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*entities.CreditScore, error) {
	var s entities.CreditScore
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("computed_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
