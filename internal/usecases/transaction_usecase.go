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
	"github.com/zichdan/paycore/pkg/utils"
)

// TransactionUsecase creates and advances immutable transaction
// records. It never touches balances itself; orchestrators compose it
// with the ledger inside one unit of work.
type TransactionUsecase struct {
	txnRepo        domainRepos.TransactionRepository
	walletRepo     domainRepos.WalletRepository
	ledger         *LedgerUsecase
	uow            domainRepos.UnitOfWork
	reversalWindow time.Duration
}

// NewTransactionUsecase creates a new transaction usecase
func NewTransactionUsecase(
	txnRepo domainRepos.TransactionRepository,
	walletRepo domainRepos.WalletRepository,
	ledger *LedgerUsecase,
	uow domainRepos.UnitOfWork,
	reversalWindow time.Duration,
) *TransactionUsecase {
	return &TransactionUsecase{
		txnRepo:        txnRepo,
		walletRepo:     walletRepo,
		ledger:         ledger,
		uow:            uow,
		reversalWindow: reversalWindow,
	}
}

// Create persists a new transaction, generating a reference when the
// caller did not supply one
func (uc *TransactionUsecase) Create(ctx context.Context, txn *entities.Transaction) error {
	if txn.Reference == "" {
		ref, err := utils.GenerateReference()
		if err != nil {
			return err
		}
		txn.Reference = ref
	}
	if txn.Status == "" {
		txn.Status = entities.TxnStatusPending
	}
	if err := uc.txnRepo.Create(ctx, txn); err != nil {
		return err
	}
	return uc.txnRepo.CreateLog(ctx, &entities.TransactionLog{
		TransactionID: txn.ID,
		NewStatus:     txn.Status,
		Actor:         "system",
	})
}

// Transition advances a transaction through the status machine and
// appends the audit log row. Backward moves are rejected.
func (uc *TransactionUsecase) Transition(ctx context.Context, txn *entities.Transaction, to entities.TransactionStatus, actor, reason string) error {
	if !txn.Status.CanTransition(to) {
		return errors.ErrInvalidTransition
	}
	from := txn.Status
	now := time.Now()
	txn.Status = to
	switch to {
	case entities.TxnStatusProcessing:
		txn.ProcessedAt = &now
	case entities.TxnStatusCompleted:
		txn.CompletedAt = &now
	case entities.TxnStatusFailed:
		txn.FailedAt = &now
	}

	if err := uc.txnRepo.Update(ctx, txn); err != nil {
		return err
	}

	log := &entities.TransactionLog{
		TransactionID:  txn.ID,
		PreviousStatus: from,
		NewStatus:      to,
		Actor:          actor,
	}
	if reason != "" {
		log.Reason = null.StringFrom(reason)
	}
	return uc.txnRepo.CreateLog(ctx, log)
}

// CreateFee records a fee row against a transaction
func (uc *TransactionUsecase) CreateFee(ctx context.Context, fee *entities.TransactionFee) error {
	return uc.txnRepo.CreateFee(ctx, fee)
}

// Get loads one transaction and verifies the user is a party to it
func (uc *TransactionUsecase) Get(ctx context.Context, userID, txnID uuid.UUID) (*entities.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, txnID)
	if err != nil {
		return nil, errors.NotFound("transaction not found")
	}
	if !isParty(txn, userID) {
		return nil, errors.Forbidden("transaction does not belong to user")
	}
	return txn, nil
}

func isParty(txn *entities.Transaction, userID uuid.UUID) bool {
	if txn.FromUserID != nil && *txn.FromUserID == userID {
		return true
	}
	if txn.ToUserID != nil && *txn.ToUserID == userID {
		return true
	}
	return false
}

// List returns a page of the user's transactions
func (uc *TransactionUsecase) List(ctx context.Context, userID uuid.UUID, filter entities.TransactionFilter, p utils.PaginationParams) ([]*entities.Transaction, utils.PaginationMeta, error) {
	txns, total, err := uc.txnRepo.ListByUser(ctx, userID, filter, p)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return txns, utils.CalculateMeta(total, p), nil
}

// Stats returns per-type/status aggregates for the user
func (uc *TransactionUsecase) Stats(ctx context.Context, userID uuid.UUID) ([]entities.TransactionStats, error) {
	return uc.txnRepo.Stats(ctx, userID)
}

// Reverse creates a compensating transaction for a completed transfer
// within the reversal window. Balances move through the compensating
// entry; the original row is never rewritten beyond its status. Fees
// are not refunded.
func (uc *TransactionUsecase) Reverse(ctx context.Context, userID, txnID uuid.UUID, reason string) (*entities.Transaction, error) {
	var reversal *entities.Transaction
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		original, err := uc.txnRepo.GetByID(txCtx, txnID)
		if err != nil {
			return errors.NotFound("transaction not found")
		}
		if original.FromUserID == nil || *original.FromUserID != userID {
			return errors.Forbidden("only the sender can reverse a transaction")
		}
		if original.Status != entities.TxnStatusCompleted {
			return errors.ErrInvalidTransition
		}
		if original.CompletedAt == nil || time.Since(*original.CompletedAt) > uc.reversalWindow {
			return errors.BadRequest("reversal window has elapsed")
		}
		if original.FromWalletID == nil || original.ToWalletID == nil {
			return errors.BadRequest("transaction is not reversible")
		}

		fromWallet, toWallet, err := lockWalletPair(uc.uow.WithLock(txCtx), uc.walletRepo, *original.FromWalletID, *original.ToWalletID)
		if err != nil {
			return err
		}

		// The destination gave back exactly what it received; the
		// source recovers the transfer amount but not the fees.
		creditedAmount := original.NetAmount
		if original.ToBalanceBefore.Valid && original.ToBalanceAfter.Valid {
			creditedAmount = original.ToBalanceAfter.Decimal.Sub(original.ToBalanceBefore.Decimal)
		}

		toBefore := toWallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, toWallet, creditedAmount, entities.BalanceOpDebit); err != nil {
			return err
		}
		fromBefore := fromWallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, fromWallet, original.Amount, entities.BalanceOpCredit); err != nil {
			return err
		}

		reversal = &entities.Transaction{
			Type:              entities.TxnTypeReversal,
			Status:            entities.TxnStatusPending,
			Direction:         entities.DirectionInternal,
			Amount:            original.Amount,
			FeeAmount:         decimal.Zero,
			NetAmount:         original.Amount,
			CurrencyCode:      original.CurrencyCode,
			FromUserID:        original.ToUserID,
			FromWalletID:      original.ToWalletID,
			ToUserID:          original.FromUserID,
			ToWalletID:        original.FromWalletID,
			ReversalOfID:      &original.ID,
			Description:       null.StringFrom("reversal of " + original.Reference),
			FromBalanceBefore: decimal.NewNullDecimal(toBefore),
			FromBalanceAfter:  decimal.NewNullDecimal(toWallet.Balance),
			ToBalanceBefore:   decimal.NewNullDecimal(fromBefore),
			ToBalanceAfter:    decimal.NewNullDecimal(fromWallet.Balance),
		}
		if err := uc.Create(txCtx, reversal); err != nil {
			return err
		}
		if err := uc.Transition(txCtx, reversal, entities.TxnStatusCompleted, "system", reason); err != nil {
			return err
		}
		return uc.Transition(txCtx, original, entities.TxnStatusReversed, "user", reason)
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// stalePendingAge is how long a transaction may sit pending before
// the sweep expires it
const stalePendingAge = 24 * time.Hour

// expireBatchSize caps one sweep pass
const expireBatchSize = 100

// ExpireStale moves transactions stuck in pending past the stale age
// to expired and releases any funds still held for them. Invoked by
// the periodic sweep job.
func (uc *TransactionUsecase) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-stalePendingAge)
	stale, err := uc.txnRepo.ListStalePending(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, txn := range stale {
		err := uc.uow.Do(ctx, func(txCtx context.Context) error {
			hold, err := uc.txnRepo.GetHoldByTransaction(txCtx, txn.ID)
			switch {
			case err == nil:
				remaining := hold.Remaining()
				if remaining.IsPositive() {
					wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), hold.WalletID)
					if err != nil {
						return err
					}
					if err := uc.ledger.UpdateBalance(txCtx, wallet, remaining, entities.BalanceOpRelease); err != nil {
						return err
					}
					hold.ReleasedAmount = hold.AmountHeld
					if err := uc.txnRepo.UpdateHold(txCtx, hold); err != nil {
						return err
					}
				}
			case !errors.IsNotFound(err):
				return err
			}
			return uc.Transition(txCtx, txn, entities.TxnStatusExpired, "system", "stale pending transaction")
		})
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
