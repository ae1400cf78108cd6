package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// BillRepository defines bill payment domain operations: the provider
// and package catalog, payment records and saved beneficiaries
type BillRepository interface {
	GetProviderByCode(ctx context.Context, code string) (*entities.BillProvider, error)
	ListProviders(ctx context.Context) ([]*entities.BillProvider, error)
	CreateProvider(ctx context.Context, provider *entities.BillProvider) error

	GetPackage(ctx context.Context, providerID uuid.UUID, code string) (*entities.BillPackage, error)
	ListPackages(ctx context.Context, providerID uuid.UUID) ([]*entities.BillPackage, error)
	CreatePackage(ctx context.Context, pkg *entities.BillPackage) error

	CreatePayment(ctx context.Context, payment *entities.BillPayment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*entities.BillPayment, error)
	UpdatePayment(ctx context.Context, payment *entities.BillPayment) error
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]*entities.BillPayment, error)

	CreateBeneficiary(ctx context.Context, b *entities.BillBeneficiary) error
	ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]*entities.BillBeneficiary, error)
	DeleteBeneficiary(ctx context.Context, userID, id uuid.UUID) error
}
