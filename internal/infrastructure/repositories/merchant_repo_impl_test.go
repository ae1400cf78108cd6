package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func TestMerchantRepository_PaymentLinks(t *testing.T) {
	db := newTestDB(t)
	repo := NewMerchantRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	link := &entities.PaymentLink{
		MerchantUserID: merchantID,
		WalletID:       uuid.New(),
		Slug:           "coffee-fund",
		Title:          "Coffee Fund",
		Status:         entities.LinkStatusActive,
		IsAmountFixed:  true,
		Amount:         decimal.NewNullDecimal(decimal.RequireFromString("500")),
	}
	require.NoError(t, repo.CreateLink(ctx, link))

	got, err := repo.GetLinkBySlug(ctx, "coffee-fund")
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)

	_, err = repo.GetLinkBySlug(ctx, "missing-slug")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	got.PaymentsCount = 1
	got.TotalCollected = decimal.RequireFromString("500")
	got.Status = entities.LinkStatusCompleted
	require.NoError(t, repo.UpdateLink(ctx, got))

	list, err := repo.ListLinksByUser(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, entities.LinkStatusCompleted, list[0].Status)
	require.Equal(t, 1, list[0].PaymentsCount)
}

func TestMerchantRepository_Invoices(t *testing.T) {
	db := newTestDB(t)
	repo := NewMerchantRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	invoice := &entities.Invoice{
		MerchantUserID: merchantID,
		WalletID:       uuid.New(),
		InvoiceNumber:  "INV-2026-0001",
		CustomerEmail:  "client@test.local",
		CustomerName:   "Client Co",
		Status:         entities.InvoiceStatusDraft,
		Amount:         decimal.RequireFromString("30000"),
		AmountDue:      decimal.RequireFromString("30000"),
	}
	require.NoError(t, repo.CreateInvoice(ctx, invoice))

	items := []*entities.InvoiceItem{
		{InvoiceID: invoice.ID, Description: "Design work", Quantity: 2, UnitPrice: decimal.RequireFromString("10000"), Total: decimal.RequireFromString("20000")},
		{InvoiceID: invoice.ID, Description: "Hosting", Quantity: 1, UnitPrice: decimal.RequireFromString("10000"), Total: decimal.RequireFromString("10000")},
	}
	require.NoError(t, repo.CreateInvoiceItems(ctx, items))

	got, err := repo.GetInvoiceByNumber(ctx, "INV-2026-0001")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	now := time.Now()
	got.Status = entities.InvoiceStatusPaid
	got.AmountPaid = got.Amount
	got.AmountDue = decimal.Zero
	got.PaidAt = &now
	require.NoError(t, repo.UpdateInvoice(ctx, got))

	list, err := repo.ListInvoicesByUser(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, entities.InvoiceStatusPaid, list[0].Status)
	require.True(t, list[0].AmountDue.IsZero())
}

func TestMerchantRepository_PaymentsByLink(t *testing.T) {
	db := newTestDB(t)
	repo := NewMerchantRepository(db)
	ctx := context.Background()

	linkID := uuid.New()
	require.NoError(t, repo.CreatePayment(ctx, &entities.MerchantPayment{
		LinkID:        &linkID,
		TransactionID: uuid.New(),
		PayerUserID:   uuid.New(),
		Amount:        decimal.RequireFromString("500"),
	}))

	list, err := repo.ListPaymentsByLink(ctx, linkID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMerchantRepository_APIKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewMerchantRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	key := &entities.MerchantAPIKey{
		MerchantUserID: merchantID,
		Name:           "backend integration",
		KeyPrefix:      "pk_live_abc",
		KeyHash:        "hash-of-secret",
	}
	require.NoError(t, repo.CreateAPIKey(ctx, key))

	byHash, err := repo.GetAPIKeyByHash(ctx, "hash-of-secret")
	require.NoError(t, err)
	require.Equal(t, key.ID, byHash.ID)

	list, err := repo.ListAPIKeysByUser(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, repo.RevokeAPIKey(ctx, uuid.New(), key.ID), domainerrors.ErrNotFound)
	require.NoError(t, repo.RevokeAPIKey(ctx, merchantID, key.ID))

	_, err = repo.GetAPIKeyByHash(ctx, "hash-of-secret")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.ErrorIs(t, repo.RevokeAPIKey(ctx, merchantID, key.ID), domainerrors.ErrNotFound)
}
