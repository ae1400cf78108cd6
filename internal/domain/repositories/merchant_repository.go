package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// MerchantRepository defines merchant collection operations: payment
// links, invoices and the payments bound to them
type MerchantRepository interface {
	CreateLink(ctx context.Context, link *entities.PaymentLink) error
	GetLinkBySlug(ctx context.Context, slug string) (*entities.PaymentLink, error)
	ListLinksByUser(ctx context.Context, userID uuid.UUID) ([]*entities.PaymentLink, error)
	UpdateLink(ctx context.Context, link *entities.PaymentLink) error
	// GetExpiredActiveLinks returns active links whose expires_at has
	// passed, capped at limit.
	GetExpiredActiveLinks(ctx context.Context, before time.Time, limit int) ([]*entities.PaymentLink, error)
	ExpireLinks(ctx context.Context, ids []uuid.UUID) error

	CreateInvoice(ctx context.Context, invoice *entities.Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*entities.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*entities.Invoice, error)
	ListInvoicesByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *entities.Invoice) error
	CreateInvoiceItems(ctx context.Context, items []*entities.InvoiceItem) error

	CreatePayment(ctx context.Context, payment *entities.MerchantPayment) error
	ListPaymentsByLink(ctx context.Context, linkID uuid.UUID) ([]*entities.MerchantPayment, error)

	GetAPIKeyByHash(ctx context.Context, keyHash string) (*entities.MerchantAPIKey, error)
	CreateAPIKey(ctx context.Context, key *entities.MerchantAPIKey) error
	ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]*entities.MerchantAPIKey, error)
	RevokeAPIKey(ctx context.Context, userID, id uuid.UUID) error
}
