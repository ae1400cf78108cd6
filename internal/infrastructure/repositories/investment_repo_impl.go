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

// InvestmentProductRepository implements investment catalog storage
type InvestmentProductRepository struct {
	db *gorm.DB
}

// NewInvestmentProductRepository creates a new investment product repository
func NewInvestmentProductRepository(db *gorm.DB) *InvestmentProductRepository {
	return &InvestmentProductRepository{db: db}
}

func (r *InvestmentProductRepository) Create(ctx context.Context, product *entities.InvestmentProduct) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	return GetDB(ctx, r.db).Create(product).Error
}

// GetByID takes the row lock when called under a lock context so slot
// accounting cannot race.
func (r *InvestmentProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.InvestmentProduct, error) {
	var p entities.InvestmentProduct
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *InvestmentProductRepository) ListActive(ctx context.Context) ([]*entities.InvestmentProduct, error) {
	var out []*entities.InvestmentProduct
	err := GetDB(ctx, r.db).Preload("Currency").Where("is_active = ?", true).Order("name").Find(&out).Error
	return out, err
}

func (r *InvestmentProductRepository) Update(ctx context.Context, product *entities.InvestmentProduct) error {
	product.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.InvestmentProduct{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"slots_taken": product.SlotsTaken,
		"is_active":   product.IsActive,
		"updated_at":  product.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// InvestmentRepository implements investment, return schedule and
// portfolio storage
type InvestmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, investment *entities.Investment) error {
	if investment.ID == uuid.Nil {
		investment.ID = uuid.New()
	}
	now := time.Now()
	investment.CreatedAt = now
	investment.UpdatedAt = now
	return GetDB(ctx, r.db).Create(investment).Error
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Investment, error) {
	var inv entities.Investment
	if err := GetDB(ctx, r.db).Preload("Product").Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvestmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Investment, error) {
	var out []*entities.Investment
	err := GetDB(ctx, r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) Update(ctx context.Context, investment *entities.Investment) error {
	investment.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Investment{}).Where("id = ?", investment.ID).Updates(map[string]interface{}{
		"status":               investment.Status,
		"actual_returns":       investment.ActualReturns,
		"penalty_amount":       investment.PenaltyAmount,
		"actual_maturity_date": investment.ActualMaturityDate,
		"updated_at":           investment.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *InvestmentRepository) ListMaturedActive(ctx context.Context, cutoff time.Time) ([]*entities.Investment, error) {
	var out []*entities.Investment
	err := GetDB(ctx, r.db).Preload("Product").
		Where("status = ? AND maturity_date <= ?", entities.InvestmentStatusActive, cutoff).
		Order("maturity_date").
		Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) CreateReturns(ctx context.Context, returns []*entities.InvestmentReturn) error {
	now := time.Now()
	for _, ret := range returns {
		if ret.ID == uuid.Nil {
			ret.ID = uuid.New()
		}
		ret.CreatedAt = now
	}
	return GetDB(ctx, r.db).Create(returns).Error
}

func (r *InvestmentRepository) ListReturns(ctx context.Context, investmentID uuid.UUID) ([]*entities.InvestmentReturn, error) {
	var out []*entities.InvestmentReturn
	err := GetDB(ctx, r.db).Where("investment_id = ?", investmentID).Order("payout_number").Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) ListDueReturns(ctx context.Context, cutoff time.Time) ([]*entities.InvestmentReturn, error) {
	var out []*entities.InvestmentReturn
	err := GetDB(ctx, r.db).
		Joins("JOIN investments ON investments.id = investment_returns.investment_id").
		Where("investment_returns.is_paid = ? AND investment_returns.payout_date <= ? AND investments.status = ?",
			false, cutoff, entities.InvestmentStatusActive).
		Order("investment_returns.payout_date").
		Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) UpdateReturn(ctx context.Context, ret *entities.InvestmentReturn) error {
	res := GetDB(ctx, r.db).Model(&entities.InvestmentReturn{}).Where("id = ?", ret.ID).Updates(map[string]interface{}{
		"is_paid": ret.IsPaid,
		"paid_at": ret.PaidAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *InvestmentRepository) GetPortfolio(ctx context.Context, userID uuid.UUID) (*entities.InvestmentPortfolio, error) {
	var p entities.InvestmentPortfolio
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *InvestmentRepository) UpsertPortfolio(ctx context.Context, portfolio *entities.InvestmentPortfolio) error {
	portfolio.UpdatedAt = time.Now()
	if portfolio.ID == uuid.Nil {
		var existing entities.InvestmentPortfolio
		err := GetDB(ctx, r.db).Where("user_id = ?", portfolio.UserID).First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			portfolio.ID = uuid.New()
			return GetDB(ctx, r.db).Create(portfolio).Error
		}
		portfolio.ID = existing.ID
	}
	return GetDB(ctx, r.db).Model(&entities.InvestmentPortfolio{}).Where("id = ?", portfolio.ID).Updates(map[string]interface{}{
		"total_invested":     portfolio.TotalInvested,
		"total_returns":      portfolio.TotalReturns,
		"active_investments": portfolio.ActiveInvestments,
		"matured_count":      portfolio.MaturedCount,
		"liquidated_count":   portfolio.LiquidatedCount,
		"updated_at":         portfolio.UpdatedAt,
	}).Error
}
