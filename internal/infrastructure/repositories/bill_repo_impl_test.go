package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func seedBillProvider(t *testing.T, repo *BillRepository, currencyID uuid.UUID, code string) *entities.BillProvider {
	t.Helper()
	p := &entities.BillProvider{
		Name:       "Ikeja Electric",
		Code:       code,
		Category:   "electricity",
		CurrencyID: currencyID,
		FeeModel:   entities.BillFeePercentage,
		PercentFee: decimal.RequireFromString("1"),
		FeeCap:     decimal.NewNullDecimal(decimal.RequireFromString("100")),
		IsActive:   true,
	}
	require.NoError(t, repo.CreateProvider(context.Background(), p))
	return p
}

func TestBillRepository_ProviderCatalog(t *testing.T) {
	db := newTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()

	ngn := seedCurrency(t, db, "NGN", "0.00066", 2)
	provider := seedBillProvider(t, repo, ngn.ID, "ikeja-electric")
	hidden := seedBillProvider(t, repo, ngn.ID, "retired-disco")
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	got, err := repo.GetProviderByCode(ctx, "ikeja-electric")
	require.NoError(t, err)
	require.Equal(t, provider.ID, got.ID)
	require.NotNil(t, got.Currency)

	_, err = repo.GetProviderByCode(ctx, "retired-disco")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	list, err := repo.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestBillRepository_Packages(t *testing.T) {
	db := newTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()

	ngn := seedCurrency(t, db, "NGN", "0.00066", 2)
	provider := seedBillProvider(t, repo, ngn.ID, "dstv")

	require.NoError(t, repo.CreatePackage(ctx, &entities.BillPackage{
		ProviderID: provider.ID,
		Name:       "Compact",
		Code:       "compact",
		Amount:     decimal.NewNullDecimal(decimal.RequireFromString("19000")),
		IsActive:   true,
	}))
	require.NoError(t, repo.CreatePackage(ctx, &entities.BillPackage{
		ProviderID: provider.ID,
		Name:       "Premium",
		Code:       "premium",
		Amount:     decimal.NewNullDecimal(decimal.RequireFromString("44500")),
		IsActive:   true,
	}))

	pkg, err := repo.GetPackage(ctx, provider.ID, "compact")
	require.NoError(t, err)
	require.Equal(t, "Compact", pkg.Name)

	_, err = repo.GetPackage(ctx, provider.ID, "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	list, err := repo.ListPackages(ctx, provider.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Compact", list[0].Name)
}

func TestBillRepository_PaymentLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()

	ngn := seedCurrency(t, db, "NGN", "0.00066", 2)
	provider := seedBillProvider(t, repo, ngn.ID, "ekedc")
	userID := uuid.New()

	payment := &entities.BillPayment{
		UserID:     userID,
		WalletID:   uuid.New(),
		ProviderID: provider.ID,
		Status:     entities.BillStatusPending,
		CustomerID: "04123456789",
		Amount:     decimal.RequireFromString("5000"),
		Fee:        decimal.RequireFromString("50"),
	}
	require.NoError(t, repo.CreatePayment(ctx, payment))

	payment.Status = entities.BillStatusCompleted
	payment.ProviderReference = null.StringFrom("prov-ref-001")
	payment.Token = null.StringFrom("1234-5678-9012")
	require.NoError(t, repo.UpdatePayment(ctx, payment))

	got, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, entities.BillStatusCompleted, got.Status)
	require.Equal(t, "prov-ref-001", got.ProviderReference.String)

	list, err := repo.ListPaymentsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	missing := &entities.BillPayment{ID: uuid.New()}
	require.ErrorIs(t, repo.UpdatePayment(ctx, missing), domainerrors.ErrNotFound)
}

func TestBillRepository_Beneficiaries(t *testing.T) {
	db := newTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()

	ngn := seedCurrency(t, db, "NGN", "0.00066", 2)
	provider := seedBillProvider(t, repo, ngn.ID, "mtn-airtime")
	userID := uuid.New()

	b := &entities.BillBeneficiary{
		UserID:     userID,
		ProviderID: provider.ID,
		CustomerID: "08031234567",
		Alias:      "Mum",
	}
	require.NoError(t, repo.CreateBeneficiary(ctx, b))

	list, err := repo.ListBeneficiaries(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	otherUser := uuid.New()
	require.ErrorIs(t, repo.DeleteBeneficiary(ctx, otherUser, b.ID), domainerrors.ErrNotFound)

	require.NoError(t, repo.DeleteBeneficiary(ctx, userID, b.ID))
	require.ErrorIs(t, repo.DeleteBeneficiary(ctx, userID, b.ID), domainerrors.ErrNotFound)

	list, err = repo.ListBeneficiaries(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, list)
}
