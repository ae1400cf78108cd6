package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// LoanProductRepository defines loan catalog operations
type LoanProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.LoanProduct, error)
	ListActive(ctx context.Context) ([]*entities.LoanProduct, error)
	Create(ctx context.Context, product *entities.LoanProduct) error
}

// LoanRepository defines operations on loan applications, their
// repayment schedules and repayment records
type LoanRepository interface {
	Create(ctx context.Context, loan *entities.LoanApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.LoanApplication, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.LoanApplication, error)
	// HasOpenLoan reports whether the user holds a non-terminal loan.
	HasOpenLoan(ctx context.Context, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, loan *entities.LoanApplication) error
	ListByStatus(ctx context.Context, status entities.LoanStatus) ([]*entities.LoanApplication, error)

	CreateSchedules(ctx context.Context, schedules []*entities.LoanRepaymentSchedule) error
	ListSchedules(ctx context.Context, loanID uuid.UUID) ([]*entities.LoanRepaymentSchedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*entities.LoanRepaymentSchedule, error)
	// NextUnpaidSchedule returns the lowest-numbered schedule row that
	// is not yet fully paid.
	NextUnpaidSchedule(ctx context.Context, loanID uuid.UUID) (*entities.LoanRepaymentSchedule, error)
	UpdateSchedule(ctx context.Context, schedule *entities.LoanRepaymentSchedule) error
	ListSchedulesDueBefore(ctx context.Context, loanID uuid.UUID, cutoff time.Time) ([]*entities.LoanRepaymentSchedule, error)
	CountUnpaidSchedules(ctx context.Context, loanID uuid.UUID) (int64, error)

	CreateRepayment(ctx context.Context, repayment *entities.LoanRepayment) error
	ListRepayments(ctx context.Context, loanID uuid.UUID) ([]*entities.LoanRepayment, error)
}

// CreditScoreRepository defines credit score history operations
type CreditScoreRepository interface {
	Create(ctx context.Context, score *entities.CreditScore) error
	GetLatest(ctx context.Context, userID uuid.UUID) (*entities.CreditScore, error)
}
