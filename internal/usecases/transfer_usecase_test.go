package usecases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/pkg/crypto"
)

func TestTransfer_SameUserSameCurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "ada@example.com")
	from := seedWallet(t, env.db, user.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, user.ID, ngn.ID, "0")

	txn, err := env.transfers.Transfer(ctx, user.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
	require.Equal(t, entities.DirectionInternal, txn.Direction)
	require.True(t, txn.FeeAmount.IsZero(), "own-wallet transfers carry no fee, got %s", txn.FeeAmount)
	require.NotNil(t, txn.CompletedAt)

	fromAfter := reloadWallet(t, env.db, from.ID)
	toAfter := reloadWallet(t, env.db, to.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(9000)), "from balance %s", fromAfter.Balance)
	require.True(t, toAfter.Balance.Equal(decimal.NewFromInt(1000)), "to balance %s", toAfter.Balance)

	// all four balance snapshots recorded
	require.True(t, txn.FromBalanceBefore.Decimal.Equal(decimal.NewFromInt(10000)))
	require.True(t, txn.FromBalanceAfter.Decimal.Equal(decimal.NewFromInt(9000)))
	require.True(t, txn.ToBalanceBefore.Decimal.Equal(decimal.Zero))
	require.True(t, txn.ToBalanceAfter.Decimal.Equal(decimal.NewFromInt(1000)))

	fees, err := env.txnRepo.ListFees(ctx, txn.ID)
	require.NoError(t, err)
	require.Empty(t, fees)
}

func TestTransfer_CrossUserChargesFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	txn, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.Equal(t, entities.DirectionOutbound, txn.Direction)
	require.True(t, txn.FeeAmount.Equal(decimal.NewFromInt(10)), "1%% fee, got %s", txn.FeeAmount)
	require.True(t, txn.NetAmount.Equal(decimal.NewFromInt(990)), "net is amount minus fee, got %s", txn.NetAmount)

	fromAfter := reloadWallet(t, env.db, from.ID)
	toAfter := reloadWallet(t, env.db, to.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(8990)), "sender debited amount plus fee, got %s", fromAfter.Balance)
	require.True(t, toAfter.Balance.Equal(decimal.NewFromInt(1000)), "recipient gets the full amount, got %s", toAfter.Balance)

	fees, err := env.txnRepo.ListFees(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, "transfer", fees[0].FeeType)
	require.True(t, fees[0].Amount.Equal(decimal.NewFromInt(10)))

	// both parties get notified
	env.notifier.Wait()
	senderNotifs, err := env.notifRepo.ListByUser(ctx, sender.ID, false)
	require.NoError(t, err)
	require.Len(t, senderNotifs, 1)
	require.Equal(t, entities.EventTransferSuccess, senderNotifs[0].EventType)
	recipientNotifs, err := env.notifRepo.ListByUser(ctx, recipient.ID, false)
	require.NoError(t, err)
	require.Len(t, recipientNotifs, 1)
	require.Equal(t, entities.EventPaymentReceived, recipientNotifs[0].EventType)
}

func TestTransfer_CrossCurrencyConversion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	usd := seedCurrency(t, env.db, "USD", "1", 2)
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, usd.ID, "1000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	txn, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	// 1% transfer fee plus 0.5% conversion fee, charged in USD
	require.True(t, txn.FeeAmount.Equal(decimal.RequireFromString("0.15")), "fee %s", txn.FeeAmount)
	require.True(t, txn.NetAmount.Equal(decimal.RequireFromString("9.85")), "net %s", txn.NetAmount)
	fromAfter := reloadWallet(t, env.db, from.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.RequireFromString("989.85")), "sender balance %s", fromAfter.Balance)

	// 10 USD / 0.00066 = 15151.5151..., banker's rounded to 2 places
	toAfter := reloadWallet(t, env.db, to.ID)
	require.True(t, toAfter.Balance.Equal(decimal.RequireFromString("15151.52")), "recipient balance %s", toAfter.Balance)

	fees, err := env.txnRepo.ListFees(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, fees, 2)
	feeTypes := map[string]decimal.Decimal{}
	for _, fee := range fees {
		feeTypes[fee.FeeType] = fee.Amount
	}
	require.True(t, feeTypes["transfer"].Equal(decimal.RequireFromString("0.1")))
	require.True(t, feeTypes["currency_conversion"].Equal(decimal.RequireFromString("0.05")))

	require.True(t, txn.Metadata.Valid, "cross-currency transfers record conversion metadata")
	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(txn.Metadata.String), &meta))
	require.Equal(t, "USD", meta["fromCurrency"])
	require.Equal(t, "NGN", meta["toCurrency"])
	require.Equal(t, "15151.52", meta["convertedRounded"])
}

func TestTransfer_InsufficientBalanceRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "100")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	_, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)

	fromAfter := reloadWallet(t, env.db, from.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(100)), "balance untouched, got %s", fromAfter.Balance)

	var count int64
	require.NoError(t, env.db.Model(&entities.Transaction{}).Count(&count).Error)
	require.Zero(t, count, "no transaction row survives a failed transfer")
}

func TestTransfer_PINGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "5000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	hash, err := crypto.HashPIN("1234")
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&entities.Wallet{}).Where("id = ?", from.ID).
		Updates(map[string]interface{}{"requires_pin": true, "pin_hash": null.StringFrom(hash)}).Error)

	input := entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(100),
		PIN:          "9999",
	}
	_, err = env.transfers.Transfer(ctx, sender.ID, input)
	require.ErrorIs(t, err, domainerrors.ErrInvalidPIN)

	input.PIN = "1234"
	txn, err := env.transfers.Transfer(ctx, sender.ID, input)
	require.NoError(t, err)
	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
}

func TestTransfer_BiometricGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "5000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	require.NoError(t, env.db.Model(&entities.Wallet{}).Where("id = ?", from.ID).
		Update("requires_biometric", true).Error)

	token, err := env.jwtService.GenerateTrustToken(sender.ID, sender.Email, "device-1")
	require.NoError(t, err)

	input := entities.TransferInput{
		FromWalletID:   from.ID,
		ToWalletID:     to.ID,
		Amount:         decimal.NewFromInt(100),
		BiometricToken: token,
		DeviceID:       "device-2",
	}
	_, err = env.transfers.Transfer(ctx, sender.ID, input)
	require.ErrorIs(t, err, domainerrors.ErrInvalidBiometric)

	input.DeviceID = "device-1"
	txn, err := env.transfers.Transfer(ctx, sender.ID, input)
	require.NoError(t, err)
	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
}

func TestReverse_CompensatesWithoutRefundingFees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	txn, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	// only the sender can reverse
	_, err = env.txns.Reverse(ctx, recipient.ID, txn.ID, "not mine")
	require.Error(t, err)

	reversal, err := env.txns.Reverse(ctx, sender.ID, txn.ID, "sent in error")
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeReversal, reversal.Type)
	require.Equal(t, entities.TxnStatusCompleted, reversal.Status)
	require.NotNil(t, reversal.ReversalOfID)
	require.Equal(t, txn.ID, *reversal.ReversalOfID)

	// the fee stays spent
	fromAfter := reloadWallet(t, env.db, from.ID)
	toAfter := reloadWallet(t, env.db, to.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(9990)), "sender balance %s", fromAfter.Balance)
	require.True(t, toAfter.Balance.Equal(decimal.Zero), "recipient balance %s", toAfter.Balance)

	original, err := env.txnRepo.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	require.Equal(t, entities.TxnStatusReversed, original.Status)

	// a reversed transaction cannot be reversed again
	_, err = env.txns.Reverse(ctx, sender.ID, txn.ID, "twice")
	require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
}

func TestReverse_WindowElapsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "sender@example.com")
	recipient := seedUser(t, env.db, "recipient@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, recipient.ID, ngn.ID, "0")

	txn, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, env.db.Model(&entities.Transaction{}).Where("id = ?", txn.ID).
		Update("completed_at", stale).Error)

	_, err = env.txns.Reverse(ctx, sender.ID, txn.ID, "too late")
	require.Error(t, err)

	fromAfter := reloadWallet(t, env.db, from.ID)
	require.True(t, fromAfter.Balance.Equal(decimal.NewFromInt(8990)), "balances unchanged, got %s", fromAfter.Balance)
}

func TestTransfer_AMLRiskBlocksOutbound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	sender := seedUser(t, env.db, "ada@example.com")
	receiver := seedUser(t, env.db, "bola@example.com")
	from := seedWallet(t, env.db, sender.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, receiver.ID, ngn.ID, "0")

	env.compliance = NewComplianceUsecase(env.kycRepo, env.ledger, env.notifier,
		AMLCheckerFunc(func(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error) {
			return entities.AMLRiskVeryHigh, nil
		}), nil, "NGN")
	env.transfers = NewTransferUsecase(env.walletRepo, env.currencyRepo, env.userRepo, env.txnRepo, env.ledger, env.txns, env.notifier, env.compliance, env.jwtService, env.uow)

	_, err := env.transfers.Transfer(ctx, sender.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.ErrorIs(t, err, domainerrors.ErrComplianceBlocked)

	stillFrom := reloadWallet(t, env.db, from.ID)
	require.True(t, stillFrom.Balance.Equal(decimal.NewFromInt(10000)), "no debit when blocked, got %s", stillFrom.Balance)
	stillTo := reloadWallet(t, env.db, to.ID)
	require.True(t, stillTo.Balance.IsZero(), "no credit when blocked, got %s", stillTo.Balance)
}

func TestTransfer_OwnWalletsSkipAMLScreen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "ada@example.com")
	from := seedWallet(t, env.db, user.ID, ngn.ID, "10000")
	to := seedWallet(t, env.db, user.ID, ngn.ID, "0")

	env.compliance = NewComplianceUsecase(env.kycRepo, env.ledger, env.notifier,
		AMLCheckerFunc(func(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error) {
			return entities.AMLRiskVeryHigh, nil
		}), nil, "NGN")
	env.transfers = NewTransferUsecase(env.walletRepo, env.currencyRepo, env.userRepo, env.txnRepo, env.ledger, env.txns, env.notifier, env.compliance, env.jwtService, env.uow)

	txn, err := env.transfers.Transfer(ctx, user.ID, entities.TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err, "moving money between own wallets is not screened")
	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
}
