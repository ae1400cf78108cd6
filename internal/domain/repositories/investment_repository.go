package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// InvestmentProductRepository defines investment catalog operations.
// GetByID made under a lock context takes the row lock that guards
// slot accounting.
type InvestmentProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.InvestmentProduct, error)
	ListActive(ctx context.Context) ([]*entities.InvestmentProduct, error)
	Update(ctx context.Context, product *entities.InvestmentProduct) error
	Create(ctx context.Context, product *entities.InvestmentProduct) error
}

// InvestmentRepository defines operations on investments, their
// payout schedules and the per-user portfolio summary
type InvestmentRepository interface {
	Create(ctx context.Context, investment *entities.Investment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Investment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Investment, error)
	Update(ctx context.Context, investment *entities.Investment) error
	// ListMaturedActive returns active investments whose maturity date
	// has passed.
	ListMaturedActive(ctx context.Context, cutoff time.Time) ([]*entities.Investment, error)

	CreateReturns(ctx context.Context, returns []*entities.InvestmentReturn) error
	ListReturns(ctx context.Context, investmentID uuid.UUID) ([]*entities.InvestmentReturn, error)
	// ListDueReturns returns unpaid returns whose payout date has
	// passed and whose parent investment is active.
	ListDueReturns(ctx context.Context, cutoff time.Time) ([]*entities.InvestmentReturn, error)
	UpdateReturn(ctx context.Context, ret *entities.InvestmentReturn) error

	GetPortfolio(ctx context.Context, userID uuid.UUID) (*entities.InvestmentPortfolio, error)
	UpsertPortfolio(ctx context.Context, portfolio *entities.InvestmentPortfolio) error
}
