package usecases

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
)

func TestMerchant_PayFixedSingleUseLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")
	payer := seedUser(t, env.db, "payer@example.com")
	merchantWallet := seedWallet(t, env.db, merchant.ID, ngn.ID, "0")
	payerWallet := seedWallet(t, env.db, payer.ID, ngn.ID, "5000")

	link, err := env.merchants.CreateLink(ctx, merchant.ID, entities.CreatePaymentLinkInput{
		WalletID:      merchantWallet.ID,
		Title:         "Concert Ticket",
		IsAmountFixed: true,
		Amount:        decimal.NewFromInt(2000),
		IsSingleUse:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, link.Slug)
	require.Equal(t, entities.LinkStatusActive, link.Status)

	payment, err := env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
	})
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(decimal.NewFromInt(2000)))
	// 1.5% collection fee
	require.True(t, payment.Fee.Equal(decimal.NewFromInt(30)), "fee %s", payment.Fee)

	payerAfter := reloadWallet(t, env.db, payerWallet.ID)
	merchantAfter := reloadWallet(t, env.db, merchantWallet.ID)
	require.True(t, payerAfter.Balance.Equal(decimal.NewFromInt(3000)), "payer pays the full amount, got %s", payerAfter.Balance)
	require.True(t, merchantAfter.Balance.Equal(decimal.NewFromInt(1970)), "merchant receives amount minus fee, got %s", merchantAfter.Balance)

	fees, err := env.txnRepo.ListFees(ctx, payment.TransactionID)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, "merchant", fees[0].FeeType)

	used, err := env.merchants.GetLink(ctx, link.Slug)
	require.NoError(t, err)
	require.Equal(t, entities.LinkStatusCompleted, used.Status)
	require.Equal(t, 1, used.PaymentsCount)
	require.True(t, used.TotalCollected.Equal(decimal.NewFromInt(2000)))

	_, err = env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
	})
	require.ErrorContains(t, err, "not active")

	env.notifier.Wait()
	merchantNotifs, err := env.notifRepo.ListByUser(ctx, merchant.ID, false)
	require.NoError(t, err)
	require.Len(t, merchantNotifs, 1)
	require.Equal(t, entities.EventPaymentReceived, merchantNotifs[0].EventType)
	payerNotifs, err := env.notifRepo.ListByUser(ctx, payer.ID, false)
	require.NoError(t, err)
	require.Len(t, payerNotifs, 1)
	require.Equal(t, entities.EventPaymentSuccess, payerNotifs[0].EventType)
}

func TestMerchant_RangeLinkBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")
	payer := seedUser(t, env.db, "payer@example.com")
	merchantWallet := seedWallet(t, env.db, merchant.ID, ngn.ID, "0")
	payerWallet := seedWallet(t, env.db, payer.ID, ngn.ID, "10000")

	link, err := env.merchants.CreateLink(ctx, merchant.ID, entities.CreatePaymentLinkInput{
		WalletID:  merchantWallet.ID,
		Title:     "Donations",
		MinAmount: decimal.NewFromInt(500),
		MaxAmount: decimal.NewFromInt(3000),
	})
	require.NoError(t, err)

	// the flag must survive the insert as false, not revert to fixed
	stored, err := env.merchants.GetLink(ctx, link.Slug)
	require.NoError(t, err)
	require.False(t, stored.IsAmountFixed, "ranged links persist as non-fixed")

	_, err = env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(100),
	})
	require.ErrorContains(t, err, "below link minimum")

	_, err = env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(5000),
	})
	require.ErrorContains(t, err, "above link maximum")

	payment, err := env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.True(t, payment.Fee.Equal(decimal.NewFromInt(15)))

	merchantAfter := reloadWallet(t, env.db, merchantWallet.ID)
	require.True(t, merchantAfter.Balance.Equal(decimal.NewFromInt(985)), "got %s", merchantAfter.Balance)
}

func TestMerchant_ExpiredLinkRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")
	payer := seedUser(t, env.db, "payer@example.com")
	merchantWallet := seedWallet(t, env.db, merchant.ID, ngn.ID, "0")
	payerWallet := seedWallet(t, env.db, payer.ID, ngn.ID, "5000")

	expired := time.Now().Add(-time.Hour)
	link, err := env.merchants.CreateLink(ctx, merchant.ID, entities.CreatePaymentLinkInput{
		WalletID:      merchantWallet.ID,
		Title:         "Flash Sale",
		IsAmountFixed: true,
		Amount:        decimal.NewFromInt(1000),
		ExpiresAt:     &expired,
	})
	require.NoError(t, err)

	_, err = env.merchants.PayLink(ctx, payer.ID, link.Slug, entities.PayLinkInput{
		WalletID: payerWallet.ID,
	})
	require.ErrorContains(t, err, "expired")

	reloaded, err := env.merchants.GetLink(ctx, link.Slug)
	require.NoError(t, err)
	require.Equal(t, entities.LinkStatusExpired, reloaded.Status)
}

func TestMerchant_InvoiceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")
	payer := seedUser(t, env.db, "payer@example.com")
	merchantWallet := seedWallet(t, env.db, merchant.ID, ngn.ID, "0")
	payerWallet := seedWallet(t, env.db, payer.ID, ngn.ID, "10000")

	invoice, err := env.merchants.CreateInvoice(ctx, merchant.ID, entities.CreateInvoiceInput{
		WalletID:      merchantWallet.ID,
		CustomerEmail: "client@example.com",
		CustomerName:  "Client Ltd",
		Items: []entities.InvoiceItemInput{
			{Description: "Design work", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
			{Description: "Hosting", Quantity: 1, UnitPrice: decimal.NewFromInt(2000)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusDraft, invoice.Status)
	require.True(t, invoice.Amount.Equal(decimal.NewFromInt(5000)))
	require.True(t, invoice.AmountDue.Equal(decimal.NewFromInt(5000)))
	require.NotEmpty(t, invoice.InvoiceNumber)

	// drafts cannot be paid
	_, err = env.merchants.PayInvoice(ctx, payer.ID, invoice.InvoiceNumber, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(1000),
	})
	require.ErrorContains(t, err, "not payable")

	sent, err := env.merchants.SendInvoice(ctx, merchant.ID, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = env.merchants.PayInvoice(ctx, payer.ID, invoice.InvoiceNumber, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	partial, err := env.merchantRepo.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusPartiallyPaid, partial.Status)
	require.True(t, partial.AmountPaid.Equal(decimal.NewFromInt(2000)))
	require.True(t, partial.AmountDue.Equal(decimal.NewFromInt(3000)))

	_, err = env.merchants.PayInvoice(ctx, payer.ID, invoice.InvoiceNumber, entities.PayLinkInput{
		WalletID: payerWallet.ID,
		Amount:   decimal.NewFromInt(4000),
	})
	require.ErrorContains(t, err, "exceeds the amount due")

	// a zero amount settles whatever is still due
	_, err = env.merchants.PayInvoice(ctx, payer.ID, invoice.InvoiceNumber, entities.PayLinkInput{
		WalletID: payerWallet.ID,
	})
	require.NoError(t, err)

	paid, err := env.merchantRepo.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.True(t, paid.AmountDue.IsZero())

	payerAfter := reloadWallet(t, env.db, payerWallet.ID)
	merchantAfter := reloadWallet(t, env.db, merchantWallet.ID)
	require.True(t, payerAfter.Balance.Equal(decimal.NewFromInt(5000)), "got %s", payerAfter.Balance)
	// 30 fee on the first payment, 45 on the second
	require.True(t, merchantAfter.Balance.Equal(decimal.NewFromInt(4925)), "got %s", merchantAfter.Balance)
}

func TestMerchant_APIKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")

	generated, err := env.merchants.CreateAPIKey(ctx, merchant.ID, "checkout-backend")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(generated.Secret, "pk_live_"))
	require.Equal(t, generated.Secret[:12], generated.Key.KeyPrefix)

	authed, err := env.merchants.AuthenticateAPIKey(ctx, generated.Secret)
	require.NoError(t, err)
	require.Equal(t, generated.Key.ID, authed.ID)
	require.Equal(t, merchant.ID, authed.MerchantUserID)

	_, err = env.merchants.AuthenticateAPIKey(ctx, "pk_live_bogus")
	require.Error(t, err)

	require.NoError(t, env.merchants.RevokeAPIKey(ctx, merchant.ID, generated.Key.ID))
	_, err = env.merchants.AuthenticateAPIKey(ctx, generated.Secret)
	require.Error(t, err)

	// revoking twice surfaces not found
	require.Error(t, env.merchants.RevokeAPIKey(ctx, merchant.ID, generated.Key.ID))
}

func TestMerchant_ExpireLinksSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	merchant := seedUser(t, env.db, "merchant@example.com")
	merchantWallet := seedWallet(t, env.db, merchant.ID, ngn.ID, "0")

	lapsed := time.Now().Add(-time.Hour)
	stale, err := env.merchants.CreateLink(ctx, merchant.ID, entities.CreatePaymentLinkInput{
		WalletID:      merchantWallet.ID,
		Title:         "Flash Sale",
		IsAmountFixed: true,
		Amount:        decimal.NewFromInt(1000),
		ExpiresAt:     &lapsed,
	})
	require.NoError(t, err)

	open, err := env.merchants.CreateLink(ctx, merchant.ID, entities.CreatePaymentLinkInput{
		WalletID:      merchantWallet.ID,
		Title:         "Evergreen",
		IsAmountFixed: true,
		Amount:        decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	expired, err := env.merchants.ExpireLinks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	sweptLink, err := env.merchants.GetLink(ctx, stale.Slug)
	require.NoError(t, err)
	require.Equal(t, entities.LinkStatusExpired, sweptLink.Status)

	keptLink, err := env.merchants.GetLink(ctx, open.Slug)
	require.NoError(t, err)
	require.Equal(t, entities.LinkStatusActive, keptLink.Status)

	// an empty sweep is a no-op
	expired, err = env.merchants.ExpireLinks(ctx)
	require.NoError(t, err)
	require.Zero(t, expired)
}
