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

// MerchantRepository implements payment link, invoice and merchant
// payment storage
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

func (r *MerchantRepository) CreateLink(ctx context.Context, link *entities.PaymentLink) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *MerchantRepository) GetLinkBySlug(ctx context.Context, slug string) (*entities.PaymentLink, error) {
	var l entities.PaymentLink
	if err := GetDB(ctx, r.db).Where("slug = ?", slug).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *MerchantRepository) ListLinksByUser(ctx context.Context, userID uuid.UUID) ([]*entities.PaymentLink, error) {
	var out []*entities.PaymentLink
	err := GetDB(ctx, r.db).
		Where("merchant_user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *MerchantRepository) UpdateLink(ctx context.Context, link *entities.PaymentLink) error {
	link.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.PaymentLink{}).Where("id = ?", link.ID).Updates(map[string]interface{}{
		"status":          link.Status,
		"payments_count":  link.PaymentsCount,
		"total_collected": link.TotalCollected,
		"updated_at":      link.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *MerchantRepository) GetExpiredActiveLinks(ctx context.Context, before time.Time, limit int) ([]*entities.PaymentLink, error) {
	var out []*entities.PaymentLink
	err := GetDB(ctx, r.db).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", entities.LinkStatusActive, before).
		Order("expires_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *MerchantRepository) ExpireLinks(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&entities.PaymentLink{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     entities.LinkStatusExpired,
			"updated_at": time.Now(),
		}).Error
}

func (r *MerchantRepository) CreateInvoice(ctx context.Context, invoice *entities.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	now := time.Now()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *MerchantRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	var inv entities.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *MerchantRepository) GetInvoiceByNumber(ctx context.Context, number string) (*entities.Invoice, error) {
	var inv entities.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").Where("invoice_number = ?", number).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *MerchantRepository) ListInvoicesByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Invoice, error) {
	var out []*entities.Invoice
	err := GetDB(ctx, r.db).
		Preload("Items").
		Where("merchant_user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *MerchantRepository) UpdateInvoice(ctx context.Context, invoice *entities.Invoice) error {
	invoice.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"status":      invoice.Status,
		"amount_paid": invoice.AmountPaid,
		"amount_due":  invoice.AmountDue,
		"sent_at":     invoice.SentAt,
		"paid_at":     invoice.PaidAt,
		"updated_at":  invoice.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *MerchantRepository) CreateInvoiceItems(ctx context.Context, items []*entities.InvoiceItem) error {
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
	}
	return GetDB(ctx, r.db).Create(items).Error
}

func (r *MerchantRepository) CreatePayment(ctx context.Context, payment *entities.MerchantPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *MerchantRepository) ListPaymentsByLink(ctx context.Context, linkID uuid.UUID) ([]*entities.MerchantPayment, error) {
	var out []*entities.MerchantPayment
	err := GetDB(ctx, r.db).
		Where("link_id = ?", linkID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *MerchantRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*entities.MerchantAPIKey, error) {
	var k entities.MerchantAPIKey
	err := GetDB(ctx, r.db).
		Where("key_hash = ? AND revoked_at IS NULL", keyHash).
		First(&k).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *MerchantRepository) CreateAPIKey(ctx context.Context, key *entities.MerchantAPIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(key).Error
}

func (r *MerchantRepository) ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MerchantAPIKey, error) {
	var out []*entities.MerchantAPIKey
	err := GetDB(ctx, r.db).
		Where("merchant_user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *MerchantRepository) RevokeAPIKey(ctx context.Context, userID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Model(&entities.MerchantAPIKey{}).
		Where("id = ? AND merchant_user_id = ? AND revoked_at IS NULL", id, userID).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
