package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func TestLedger_CreateWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")

	wallet, err := env.ledger.CreateWallet(ctx, user.ID, entities.CreateWalletInput{
		CurrencyCode: "NGN",
	})
	require.NoError(t, err)
	require.Equal(t, entities.WalletTypeMain, wallet.Type)
	require.Equal(t, entities.WalletStatusActive, wallet.Status)
	require.True(t, wallet.IsDefault, "first wallet in a currency is the default")
	require.Len(t, wallet.AccountNumber.String, 10, "main wallets get an account number")

	second, err := env.ledger.CreateWallet(ctx, user.ID, entities.CreateWalletInput{
		CurrencyCode: "NGN",
	})
	require.NoError(t, err)
	require.False(t, second.IsDefault)

	_, err = env.ledger.CreateWallet(ctx, user.ID, entities.CreateWalletInput{
		CurrencyCode: "GBP",
	})
	require.ErrorContains(t, err, "currency not found")

	require.NoError(t, env.db.Model(&entities.Currency{}).
		Where("code = ?", "NGN").Update("is_active", false).Error)
	_, err = env.ledger.CreateWallet(ctx, user.ID, entities.CreateWalletInput{
		CurrencyCode: "NGN",
	})
	require.ErrorContains(t, err, "not active")
}

func TestLedger_PINLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")
	seeded := seedWallet(t, env.db, user.ID, ngn.ID, "0")

	wallet := reloadWallet(t, env.db, seeded.ID)
	require.ErrorIs(t, env.ledger.VerifyPIN(wallet, "1234"), domainerrors.ErrPINNotSet)

	require.NoError(t, env.ledger.SetPIN(ctx, user.ID, wallet.ID, entities.SetPINInput{NewPIN: "1234"}))
	wallet = reloadWallet(t, env.db, wallet.ID)
	require.True(t, wallet.RequiresPIN)
	require.NoError(t, env.ledger.VerifyPIN(wallet, "1234"))
	require.ErrorIs(t, env.ledger.VerifyPIN(wallet, "0000"), domainerrors.ErrInvalidPIN)

	// changing requires the current PIN
	err := env.ledger.SetPIN(ctx, user.ID, wallet.ID, entities.SetPINInput{CurrentPIN: "9999", NewPIN: "5678"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPIN)
	require.NoError(t, env.ledger.SetPIN(ctx, user.ID, wallet.ID, entities.SetPINInput{CurrentPIN: "1234", NewPIN: "5678"}))

	wallet = reloadWallet(t, env.db, wallet.ID)
	require.NoError(t, env.ledger.VerifyPIN(wallet, "5678"))
	require.ErrorIs(t, env.ledger.VerifyPIN(wallet, "1234"), domainerrors.ErrInvalidPIN)
}

func TestLedger_SpendingLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")
	seeded := seedWallet(t, env.db, user.ID, ngn.ID, "5000")

	wallet := reloadWallet(t, env.db, seeded.ID)
	wallet.DailyLimit = decimal.NewNullDecimal(decimal.NewFromInt(1000))

	require.NoError(t, env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(600), entities.BalanceOpDebit))
	err := env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(600), entities.BalanceOpDebit)
	require.ErrorIs(t, err, domainerrors.ErrDailyLimitExceeded)

	// a new day clears the daily counter
	wallet.LastDailyReset = time.Now().AddDate(0, 0, -1)
	require.NoError(t, env.ledger.CanSpend(wallet, decimal.NewFromInt(600)))
	require.True(t, wallet.DailySpent.IsZero())

	// the monthly counter survived the daily reset
	wallet.MonthlyLimit = decimal.NewNullDecimal(decimal.NewFromInt(1000))
	err = env.ledger.CanSpend(wallet, decimal.NewFromInt(600))
	require.ErrorIs(t, err, domainerrors.ErrMonthlyLimitExceeded)
}

func TestLedger_HoldAndRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")
	seeded := seedWallet(t, env.db, user.ID, ngn.ID, "1000")

	wallet := reloadWallet(t, env.db, seeded.ID)
	require.NoError(t, env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(400), entities.BalanceOpHold))
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(1000)), "holds do not change the book balance")
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(600)))
	require.True(t, wallet.PendingBalance.Equal(decimal.NewFromInt(400)))

	// held funds cannot be spent
	err := env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(700), entities.BalanceOpDebit)
	require.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)

	err = env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(500), entities.BalanceOpRelease)
	require.ErrorContains(t, err, "exceeds pending")

	require.NoError(t, env.ledger.UpdateBalance(ctx, wallet, decimal.NewFromInt(400), entities.BalanceOpRelease))
	require.True(t, wallet.AvailableBalance.Equal(decimal.NewFromInt(1000)))
	require.True(t, wallet.PendingBalance.IsZero())
}

func TestLedger_CloseWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")
	funded := seedWallet(t, env.db, user.ID, ngn.ID, "100")
	empty := seedWallet(t, env.db, user.ID, ngn.ID, "0")

	err := env.ledger.CloseWallet(ctx, user.ID, funded.ID)
	require.ErrorContains(t, err, "must be zero")

	require.NoError(t, env.ledger.CloseWallet(ctx, user.ID, empty.ID))
	closed := reloadWallet(t, env.db, empty.ID)
	require.Equal(t, entities.WalletStatusClosed, closed.Status)
	require.ErrorIs(t, env.ledger.CanSpend(closed, decimal.NewFromInt(1)), domainerrors.ErrWalletNotActive)
}

func TestLedger_EnsureDefaultWalletIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "owner@example.com")

	first, err := env.ledger.EnsureDefaultWallet(ctx, user.ID, "NGN")
	require.NoError(t, err)
	second, err := env.ledger.EnsureDefaultWallet(ctx, user.ID, "NGN")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	wallets, err := env.ledger.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
}
