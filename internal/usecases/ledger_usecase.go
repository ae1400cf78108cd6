package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/pkg/crypto"
	"github.com/zichdan/paycore/pkg/utils"
)

const accountNumberAttempts = 5

// LedgerUsecase owns the wallet balance triple and the spent counters.
// Every mutation happens under the caller's row lock inside a unit of
// work; no partial state reaches storage.
type LedgerUsecase struct {
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	uow          domainRepos.UnitOfWork
}

// NewLedgerUsecase creates a new ledger usecase
func NewLedgerUsecase(
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	uow domainRepos.UnitOfWork,
) *LedgerUsecase {
	return &LedgerUsecase{
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		uow:          uow,
	}
}

// resetCountersIfDue lazily zeroes the spent counters when the wall
// clock has crossed a period boundary since the last reset
func resetCountersIfDue(wallet *entities.Wallet, now time.Time) {
	y, m, d := now.Date()
	ly, lm, ld := wallet.LastDailyReset.Date()
	if y != ly || m != lm || d != ld {
		wallet.DailySpent = decimal.Zero
		wallet.LastDailyReset = now
	}
	ry, rm, _ := wallet.LastMonthlyReset.Date()
	if y != ry || m != rm {
		wallet.MonthlySpent = decimal.Zero
		wallet.LastMonthlyReset = now
	}
}

// CanSpend checks balance and spending limits without mutating
// anything. It resets stale counters in memory first so a new day or
// month is judged against fresh limits.
func (uc *LedgerUsecase) CanSpend(wallet *entities.Wallet, amount decimal.Decimal) error {
	if !wallet.IsActive() {
		return errors.ErrWalletNotActive
	}
	resetCountersIfDue(wallet, time.Now())
	if amount.GreaterThan(wallet.AvailableBalance) {
		return errors.ErrInsufficientBalance
	}
	if wallet.DailyLimit.Valid && wallet.DailySpent.Add(amount).GreaterThan(wallet.DailyLimit.Decimal) {
		return errors.ErrDailyLimitExceeded
	}
	if wallet.MonthlyLimit.Valid && wallet.MonthlySpent.Add(amount).GreaterThan(wallet.MonthlyLimit.Decimal) {
		return errors.ErrMonthlyLimitExceeded
	}
	return nil
}

// UpdateBalance applies one ledger mutation to a wallet the caller
// holds a row lock on, then persists it. The balance triple invariant
// is verified before the write.
func (uc *LedgerUsecase) UpdateBalance(ctx context.Context, wallet *entities.Wallet, amount decimal.Decimal, op entities.BalanceOperation) error {
	if amount.IsNegative() || amount.IsZero() {
		return errors.BadRequest("amount must be positive")
	}

	now := time.Now()
	switch op {
	case entities.BalanceOpCredit:
		if !wallet.IsActive() {
			return errors.ErrWalletNotActive
		}
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.AvailableBalance = wallet.AvailableBalance.Add(amount)

	case entities.BalanceOpDebit:
		if err := uc.CanSpend(wallet, amount); err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.AvailableBalance = wallet.AvailableBalance.Sub(amount)
		wallet.DailySpent = wallet.DailySpent.Add(amount)
		wallet.MonthlySpent = wallet.MonthlySpent.Add(amount)

	case entities.BalanceOpHold:
		if !wallet.IsActive() {
			return errors.ErrWalletNotActive
		}
		if amount.GreaterThan(wallet.AvailableBalance) {
			return errors.ErrInsufficientBalance
		}
		wallet.AvailableBalance = wallet.AvailableBalance.Sub(amount)
		wallet.PendingBalance = wallet.PendingBalance.Add(amount)

	case entities.BalanceOpRelease:
		if amount.GreaterThan(wallet.PendingBalance) {
			return errors.BadRequest("release exceeds pending balance")
		}
		wallet.AvailableBalance = wallet.AvailableBalance.Add(amount)
		wallet.PendingBalance = wallet.PendingBalance.Sub(amount)

	default:
		return errors.BadRequest("unknown balance operation")
	}

	if !wallet.CheckInvariant() {
		return errors.InternalError(errors.ErrInvalidInput)
	}
	wallet.UpdatedAt = now
	return uc.walletRepo.Update(ctx, wallet)
}

// CreateWallet opens a new wallet in the requested currency. Main
// wallets get a generated 10-digit account number, retried on
// collision.
func (uc *LedgerUsecase) CreateWallet(ctx context.Context, userID uuid.UUID, input entities.CreateWalletInput) (*entities.Wallet, error) {
	currency, err := uc.currencyRepo.GetByCode(ctx, input.CurrencyCode)
	if err != nil {
		return nil, errors.NotFound("currency not found")
	}
	if !currency.IsActive {
		return nil, errors.BadRequest("currency is not active")
	}

	walletType := input.Type
	if walletType == "" {
		walletType = entities.WalletTypeMain
	}

	existing, err := uc.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	isDefault := true
	for _, w := range existing {
		if w.CurrencyID == currency.ID {
			isDefault = false
			break
		}
	}

	wallet := &entities.Wallet{
		UserID:          userID,
		CurrencyID:      currency.ID,
		Type:            walletType,
		Status:          entities.WalletStatusActive,
		IsDefault:       isDefault,
		AccountProvider: entities.AccountProviderInternal,
	}
	if input.AccountName != "" {
		wallet.AccountName = null.StringFrom(input.AccountName)
	}

	if walletType == entities.WalletTypeMain {
		number, err := uc.generateAccountNumber(ctx)
		if err != nil {
			return nil, err
		}
		wallet.AccountNumber = null.StringFrom(number)
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}
	wallet.Currency = currency
	return wallet, nil
}

func (uc *LedgerUsecase) generateAccountNumber(ctx context.Context) (string, error) {
	for i := 0; i < accountNumberAttempts; i++ {
		number, err := utils.GenerateAccountNumber()
		if err != nil {
			return "", err
		}
		exists, err := uc.walletRepo.AccountNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.InternalError(errors.ErrAlreadyExists)
}

// GetWallet loads a wallet and verifies ownership
func (uc *LedgerUsecase) GetWallet(ctx context.Context, userID, walletID uuid.UUID) (*entities.Wallet, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, errors.NotFound("wallet not found")
	}
	if wallet.UserID != userID {
		return nil, errors.Forbidden("wallet does not belong to user")
	}
	return wallet, nil
}

// ListWallets returns all of a user's wallets
func (uc *LedgerUsecase) ListWallets(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error) {
	return uc.walletRepo.ListByUser(ctx, userID)
}

// GetSummary aggregates active wallets per currency
func (uc *LedgerUsecase) GetSummary(ctx context.Context, userID uuid.UUID) (*entities.WalletSummary, error) {
	wallets, err := uc.walletRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]*entities.CurrencySummary)
	order := make([]string, 0, len(wallets))
	for _, w := range wallets {
		code := ""
		if w.Currency != nil {
			code = w.Currency.Code
		}
		summary, ok := byCode[code]
		if !ok {
			summary = &entities.CurrencySummary{CurrencyCode: code}
			byCode[code] = summary
			order = append(order, code)
		}
		summary.TotalBalance = summary.TotalBalance.Add(w.Balance)
		summary.TotalAvailable = summary.TotalAvailable.Add(w.AvailableBalance)
		summary.TotalPending = summary.TotalPending.Add(w.PendingBalance)
		summary.WalletCount++
	}

	out := &entities.WalletSummary{WalletCount: len(wallets)}
	for _, code := range order {
		out.Currencies = append(out.Currencies, *byCode[code])
	}
	return out, nil
}

// SetPIN sets or changes a wallet PIN. Changing requires the current
// PIN.
func (uc *LedgerUsecase) SetPIN(ctx context.Context, userID, walletID uuid.UUID, input entities.SetPINInput) error {
	wallet, err := uc.GetWallet(ctx, userID, walletID)
	if err != nil {
		return err
	}

	if wallet.PINHash.Valid {
		if input.CurrentPIN == "" || !crypto.CheckPIN(input.CurrentPIN, wallet.PINHash.String) {
			return errors.ErrInvalidPIN
		}
	}

	hash, err := crypto.HashPIN(input.NewPIN)
	if err != nil {
		return err
	}
	wallet.PINHash = null.StringFrom(hash)
	wallet.RequiresPIN = true
	return uc.walletRepo.Update(ctx, wallet)
}

// VerifyPIN checks a wallet's PIN. Wallets without a PIN fail with a
// distinct error so clients can prompt setup.
func (uc *LedgerUsecase) VerifyPIN(wallet *entities.Wallet, pin string) error {
	if !wallet.PINHash.Valid {
		return errors.ErrPINNotSet
	}
	if !crypto.CheckPIN(pin, wallet.PINHash.String) {
		return errors.ErrInvalidPIN
	}
	return nil
}

// CloseWallet closes an empty wallet
func (uc *LedgerUsecase) CloseWallet(ctx context.Context, userID, walletID uuid.UUID) error {
	return uc.uow.Do(ctx, func(txCtx context.Context) error {
		lockCtx := uc.uow.WithLock(txCtx)
		wallet, err := uc.walletRepo.GetByID(lockCtx, walletID)
		if err != nil {
			return errors.NotFound("wallet not found")
		}
		if wallet.UserID != userID {
			return errors.Forbidden("wallet does not belong to user")
		}
		if !wallet.Balance.IsZero() {
			return errors.BadRequest("wallet balance must be zero before closing")
		}
		wallet.Status = entities.WalletStatusClosed
		return uc.walletRepo.Update(txCtx, wallet)
	})
}

// EnsureDefaultWallet guarantees the user has a default wallet in the
// given currency, creating one if absent. Invoked on KYC approval.
func (uc *LedgerUsecase) EnsureDefaultWallet(ctx context.Context, userID uuid.UUID, currencyCode string) (*entities.Wallet, error) {
	currency, err := uc.currencyRepo.GetByCode(ctx, currencyCode)
	if err != nil {
		return nil, errors.NotFound("currency not found")
	}
	wallet, err := uc.walletRepo.GetDefault(ctx, userID, currency.ID, entities.WalletTypeMain)
	if err == nil {
		return wallet, nil
	}
	return uc.CreateWallet(ctx, userID, entities.CreateWalletInput{
		CurrencyCode: currencyCode,
		Type:         entities.WalletTypeMain,
	})
}
