package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/internal/infrastructure/providers"
	"github.com/zichdan/paycore/pkg/utils"
)

// WithdrawalUsecase moves wallet funds out to external bank accounts
// through the withdrawal provider. The provider call is made before
// the database transaction; the transaction is short, places a hold
// on the funds and records the upstream result. Holds settle into a
// debit once the provider confirms the payout, or release back to the
// available balance when it fails.
type WithdrawalUsecase struct {
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	txnRepo      domainRepos.TransactionRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	compliance   *ComplianceUsecase
	factory      *providers.Factory
	uow          domainRepos.UnitOfWork
}

// NewWithdrawalUsecase creates a new withdrawal usecase
func NewWithdrawalUsecase(
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	txnRepo domainRepos.TransactionRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	compliance *ComplianceUsecase,
	factory *providers.Factory,
	uow domainRepos.UnitOfWork,
) *WithdrawalUsecase {
	return &WithdrawalUsecase{
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		txnRepo:      txnRepo,
		ledger:       ledger,
		txns:         txns,
		compliance:   compliance,
		factory:      factory,
		uow:          uow,
	}
}

// WithdrawInput represents input for a bank withdrawal
type WithdrawInput struct {
	WalletID      uuid.UUID       `json:"walletId" binding:"required"`
	AccountNumber string          `json:"accountNumber" binding:"required"`
	BankCode      string          `json:"bankCode" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PIN           string          `json:"pin"`
}

// GetBanks lists the settlement banks available for a currency
func (uc *WithdrawalUsecase) GetBanks(ctx context.Context, currencyCode string) ([]providers.Bank, error) {
	return uc.factory.WithdrawalProvider().GetBanks(ctx, currencyCode)
}

// VerifyAccount resolves the owner of a bank account before
// withdrawal
func (uc *WithdrawalUsecase) VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*providers.AccountInfo, error) {
	return uc.factory.WithdrawalProvider().VerifyAccountNumber(ctx, accountNumber, bankCode)
}

// Withdraw sends funds to a bank account. The balance is checked
// before calling the provider; the hold commits after the provider
// accepts, so a provider error leaves the wallet untouched. An
// immediately-successful payout settles the hold in the same unit of
// work.
func (uc *WithdrawalUsecase) Withdraw(ctx context.Context, userID uuid.UUID, input WithdrawInput) (*entities.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.BadRequest("amount must be positive")
	}

	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, errors.NotFound("wallet not found")
	}
	if wallet.UserID != userID {
		return nil, errors.Forbidden("wallet does not belong to user")
	}
	if !wallet.IsActive() {
		return nil, errors.ErrWalletNotActive
	}
	if wallet.RequiresPIN || input.PIN != "" {
		if err := uc.ledger.VerifyPIN(wallet, input.PIN); err != nil {
			return nil, err
		}
	}
	if err := uc.ledger.CanSpend(wallet, input.Amount); err != nil {
		return nil, err
	}
	// payouts to external accounts require verified identity and an
	// AML screen before the provider is even contacted
	if uc.compliance != nil {
		if err := uc.compliance.RequireKYC(ctx, userID, entities.KYCTier1); err != nil {
			return nil, err
		}
		risk, err := uc.compliance.RunAMLCheck(ctx, userID, nil)
		if err != nil {
			return nil, err
		}
		if risk.Blocks() {
			return nil, errors.ErrComplianceBlocked
		}
	}
	currency, err := uc.currencyRepo.GetByID(ctx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	reference, err := utils.GenerateReference()
	if err != nil {
		return nil, err
	}
	result, err := uc.factory.WithdrawalProvider().InitiateWithdrawal(ctx, input.AccountNumber, input.BankCode, input.Amount, reference)
	if err != nil {
		return nil, err
	}

	var txn *entities.Transaction
	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		locked, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), wallet.ID)
		if err != nil {
			return err
		}
		if err := uc.ledger.CanSpend(locked, input.Amount); err != nil {
			return err
		}
		// funds are held, not debited: the debit happens when the
		// provider confirms the payout
		if err := uc.ledger.UpdateBalance(txCtx, locked, input.Amount, entities.BalanceOpHold); err != nil {
			return err
		}
		txn = &entities.Transaction{
			Reference:    reference,
			Type:         entities.TxnTypeWithdrawal,
			Status:       entities.TxnStatusPending,
			Direction:    entities.DirectionOutbound,
			Amount:       input.Amount,
			NetAmount:    input.Amount,
			CurrencyCode: currency.Code,
			FromUserID:   &userID,
			FromWalletID: &locked.ID,
			Description:  null.StringFrom(fmt.Sprintf("withdrawal to %s (%s)", input.AccountNumber, input.BankCode)),
		}
		if result.ProviderReference != "" {
			txn.ExternalReference = null.StringFrom(result.ProviderReference)
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		hold := &entities.TransactionHold{
			TransactionID: txn.ID,
			WalletID:      locked.ID,
			AmountHeld:    input.Amount,
		}
		if err := uc.txnRepo.CreateHold(txCtx, hold); err != nil {
			return err
		}
		if result.Status == "success" {
			return uc.settleHold(txCtx, locked, txn, hold)
		}
		return uc.txns.Transition(txCtx, txn, entities.TxnStatusProcessing, "system", "")
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// settleHold converts the remaining hold into a real debit, stamps
// the balance snapshots and completes the transaction. Caller holds
// the wallet row lock.
func (uc *WithdrawalUsecase) settleHold(txCtx context.Context, wallet *entities.Wallet, txn *entities.Transaction, hold *entities.TransactionHold) error {
	remaining := hold.Remaining()
	if remaining.IsPositive() {
		if err := uc.ledger.UpdateBalance(txCtx, wallet, remaining, entities.BalanceOpRelease); err != nil {
			return err
		}
		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, remaining, entities.BalanceOpDebit); err != nil {
			return err
		}
		txn.FromBalanceBefore = decimal.NewNullDecimal(before)
		txn.FromBalanceAfter = decimal.NewNullDecimal(wallet.Balance)
		hold.ReleasedAmount = hold.AmountHeld
		if err := uc.txnRepo.UpdateHold(txCtx, hold); err != nil {
			return err
		}
	}
	return uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", "")
}

// releaseHold gives the held funds back to the available balance
// without debiting. Caller holds the wallet row lock.
func (uc *WithdrawalUsecase) releaseHold(txCtx context.Context, wallet *entities.Wallet, hold *entities.TransactionHold) error {
	remaining := hold.Remaining()
	if !remaining.IsPositive() {
		return nil
	}
	if err := uc.ledger.UpdateBalance(txCtx, wallet, remaining, entities.BalanceOpRelease); err != nil {
		return err
	}
	hold.ReleasedAmount = hold.AmountHeld
	return uc.txnRepo.UpdateHold(txCtx, hold)
}

// VerifyWithdrawal re-queries the provider for a processing
// withdrawal and settles the transaction state
func (uc *WithdrawalUsecase) VerifyWithdrawal(ctx context.Context, userID uuid.UUID, reference string) (*entities.Transaction, error) {
	txn, err := uc.txnRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, errors.NotFound("transaction not found")
	}
	if txn.FromUserID == nil || *txn.FromUserID != userID {
		return nil, errors.Forbidden("transaction does not belong to user")
	}
	if txn.Status != entities.TxnStatusProcessing && txn.Status != entities.TxnStatusPending {
		return txn, nil
	}

	result, err := uc.factory.WithdrawalProvider().VerifyWithdrawal(ctx, reference)
	if err != nil {
		return nil, err
	}
	switch result.Status {
	case "success":
		err = uc.uow.Do(ctx, func(txCtx context.Context) error {
			wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), *txn.FromWalletID)
			if err != nil {
				return err
			}
			hold, err := uc.txnRepo.GetHoldByTransaction(txCtx, txn.ID)
			if err != nil {
				return err
			}
			return uc.settleHold(txCtx, wallet, txn, hold)
		})
	case "failed", "reversed":
		// the provider did not pay out: release the hold back to the
		// available balance
		err = uc.uow.Do(ctx, func(txCtx context.Context) error {
			wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), *txn.FromWalletID)
			if err != nil {
				return err
			}
			hold, err := uc.txnRepo.GetHoldByTransaction(txCtx, txn.ID)
			if err != nil {
				return err
			}
			if err := uc.releaseHold(txCtx, wallet, hold); err != nil {
				return err
			}
			return uc.txns.Transition(txCtx, txn, entities.TxnStatusFailed, "system", "provider reported "+result.Status)
		})
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}
