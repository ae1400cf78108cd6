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

// CurrencyRepository implements currency reference-data operations
type CurrencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

func (r *CurrencyRepository) Create(ctx context.Context, currency *entities.Currency) error {
	if currency.ID == uuid.Nil {
		currency.ID = uuid.New()
	}
	currency.CreatedAt = time.Now()
	currency.UpdatedAt = currency.CreatedAt
	return GetDB(ctx, r.db).Create(currency).Error
}

func (r *CurrencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Currency, error) {
	var c entities.Currency
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*entities.Currency, error) {
	var c entities.Currency
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CurrencyRepository) ListActive(ctx context.Context) ([]*entities.Currency, error) {
	var out []*entities.Currency
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
