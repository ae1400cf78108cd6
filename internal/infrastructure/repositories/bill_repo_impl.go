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

// BillRepository implements bill provider catalog, payment and
// beneficiary storage
type BillRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) GetProviderByCode(ctx context.Context, code string) (*entities.BillProvider, error) {
	var p entities.BillProvider
	if err := GetDB(ctx, r.db).Preload("Currency").Where("code = ? AND is_active = ?", code, true).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *BillRepository) ListProviders(ctx context.Context) ([]*entities.BillProvider, error) {
	var out []*entities.BillProvider
	err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("category, name").Find(&out).Error
	return out, err
}

func (r *BillRepository) CreateProvider(ctx context.Context, provider *entities.BillProvider) error {
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	now := time.Now()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	return GetDB(ctx, r.db).Create(provider).Error
}

func (r *BillRepository) GetPackage(ctx context.Context, providerID uuid.UUID, code string) (*entities.BillPackage, error) {
	var pkg entities.BillPackage
	err := GetDB(ctx, r.db).
		Where("provider_id = ? AND code = ? AND is_active = ?", providerID, code, true).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *BillRepository) ListPackages(ctx context.Context, providerID uuid.UUID) ([]*entities.BillPackage, error) {
	var out []*entities.BillPackage
	err := GetDB(ctx, r.db).
		Where("provider_id = ? AND is_active = ?", providerID, true).
		Order("name").
		Find(&out).Error
	return out, err
}

func (r *BillRepository) CreatePackage(ctx context.Context, pkg *entities.BillPackage) error {
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	pkg.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(pkg).Error
}

func (r *BillRepository) CreatePayment(ctx context.Context, payment *entities.BillPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *BillRepository) GetPayment(ctx context.Context, id uuid.UUID) (*entities.BillPayment, error) {
	var p entities.BillPayment
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *BillRepository) UpdatePayment(ctx context.Context, payment *entities.BillPayment) error {
	payment.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.BillPayment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"status":             payment.Status,
		"transaction_id":     payment.TransactionID,
		"customer_name":      payment.CustomerName,
		"provider_reference": payment.ProviderReference,
		"token":              payment.Token,
		"token_units":        payment.TokenUnits,
		"failure_reason":     payment.FailureReason,
		"updated_at":         payment.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *BillRepository) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]*entities.BillPayment, error) {
	var out []*entities.BillPayment
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *BillRepository) CreateBeneficiary(ctx context.Context, b *entities.BillBeneficiary) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(b).Error
}

func (r *BillRepository) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]*entities.BillBeneficiary, error) {
	var out []*entities.BillBeneficiary
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("alias").
		Find(&out).Error
	return out, err
}

func (r *BillRepository) DeleteBeneficiary(ctx context.Context, userID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Model(&entities.BillBeneficiary{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
