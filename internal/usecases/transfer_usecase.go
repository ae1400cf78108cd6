package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/pkg/jwt"
)

var (
	// transferFeeRate applies to transfers between different users
	transferFeeRate = decimal.NewFromFloat(0.01)
	// conversionFeeRate applies on top when currencies differ, charged
	// in the source currency
	conversionFeeRate = decimal.NewFromFloat(0.005)
)

// TransferUsecase is the top-level wallet-to-wallet transfer
// orchestrator. All steps run inside one unit of work holding
// exclusive locks on both wallet rows, acquired in canonical order by
// wallet id ascending.
type TransferUsecase struct {
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	userRepo     domainRepos.UserRepository
	txnRepo      domainRepos.TransactionRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	notifier     *NotificationUsecase
	compliance   *ComplianceUsecase
	jwtService   *jwt.Service
	uow          domainRepos.UnitOfWork
}

// NewTransferUsecase creates a new transfer usecase
func NewTransferUsecase(
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	userRepo domainRepos.UserRepository,
	txnRepo domainRepos.TransactionRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	notifier *NotificationUsecase,
	compliance *ComplianceUsecase,
	jwtService *jwt.Service,
	uow domainRepos.UnitOfWork,
) *TransferUsecase {
	return &TransferUsecase{
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		userRepo:     userRepo,
		txnRepo:      txnRepo,
		ledger:       ledger,
		txns:         txns,
		notifier:     notifier,
		compliance:   compliance,
		jwtService:   jwtService,
		uow:          uow,
	}
}

// lockWalletPair loads two wallets under row locks, acquiring them in
// canonical order by id ascending so reversed-direction transfers
// cannot deadlock. Results come back in argument order.
func lockWalletPair(lockCtx context.Context, repo domainRepos.WalletRepository, firstID, secondID uuid.UUID) (*entities.Wallet, *entities.Wallet, error) {
	a, b := firstID, secondID
	swapped := bytes.Compare(b[:], a[:]) < 0
	if swapped {
		a, b = b, a
	}
	walletA, err := repo.GetByID(lockCtx, a)
	if err != nil {
		return nil, nil, errors.NotFound("wallet not found")
	}
	walletB, err := repo.GetByID(lockCtx, b)
	if err != nil {
		return nil, nil, errors.NotFound("wallet not found")
	}
	if swapped {
		walletA, walletB = walletB, walletA
	}
	return walletA, walletB, nil
}

// transferMetadata is serialized into transaction metadata for
// cross-currency transfers
type transferMetadata struct {
	FromCurrency     string `json:"fromCurrency"`
	ToCurrency       string `json:"toCurrency"`
	FromRateUSD      string `json:"fromRateUsd"`
	ToRateUSD        string `json:"toRateUsd"`
	ConvertedRaw     string `json:"convertedRaw"`
	ConvertedRounded string `json:"convertedRounded"`
}

// Transfer executes initiateTransfer end to end and returns the
// completed transaction
func (uc *TransferUsecase) Transfer(ctx context.Context, userID uuid.UUID, input entities.TransferInput) (*entities.Transaction, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, errors.BadRequest("amount must be positive")
	}
	if input.FromWalletID == input.ToWalletID {
		return nil, errors.BadRequest("cannot transfer to the same wallet")
	}

	var txn *entities.Transaction
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		fromWallet, toWallet, err := lockWalletPair(uc.uow.WithLock(txCtx), uc.walletRepo, input.FromWalletID, input.ToWalletID)
		if err != nil {
			return err
		}
		if fromWallet.UserID != userID {
			return errors.Forbidden("wallet does not belong to user")
		}
		if !fromWallet.IsActive() || !toWallet.IsActive() {
			return errors.ErrWalletNotActive
		}

		if err := uc.authenticate(txCtx, userID, fromWallet, input); err != nil {
			return err
		}

		fromCurrency, err := uc.currencyRepo.GetByID(txCtx, fromWallet.CurrencyID)
		if err != nil {
			return err
		}
		toCurrency, err := uc.currencyRepo.GetByID(txCtx, toWallet.CurrencyID)
		if err != nil {
			return err
		}

		sameUser := fromWallet.UserID == toWallet.UserID
		sameCurrency := fromCurrency.ID == toCurrency.ID

		// money leaving the user's own wallets clears an AML screen
		// before any balance moves
		if !sameUser && uc.compliance != nil {
			risk, err := uc.compliance.RunAMLCheck(txCtx, userID, nil)
			if err != nil {
				return err
			}
			if risk.Blocks() {
				return errors.ErrComplianceBlocked
			}
		}

		creditAmount := input.Amount
		var metadata null.String
		if !sameCurrency {
			rounded, raw := fromCurrency.ConvertTo(toCurrency, input.Amount)
			creditAmount = rounded
			encoded, err := json.Marshal(transferMetadata{
				FromCurrency:     fromCurrency.Code,
				ToCurrency:       toCurrency.Code,
				FromRateUSD:      fromCurrency.ExchangeRateUSD.String(),
				ToRateUSD:        toCurrency.ExchangeRateUSD.String(),
				ConvertedRaw:     raw.String(),
				ConvertedRounded: rounded.String(),
			})
			if err != nil {
				return fmt.Errorf("encode transfer metadata: %w", err)
			}
			metadata = null.StringFrom(string(encoded))
		}

		var fees []entities.TransactionFee
		totalFee := decimal.Zero
		if !sameUser {
			fee := input.Amount.Mul(transferFeeRate).RoundBank(fromCurrency.DecimalPlaces)
			totalFee = totalFee.Add(fee)
			fees = append(fees, entities.TransactionFee{
				FeeType:     "transfer",
				Amount:      fee,
				Percentage:  decimal.NewNullDecimal(decimal.NewFromInt(1)),
				Description: "transfer fee",
			})
		}
		if !sameCurrency {
			fee := input.Amount.Mul(conversionFeeRate).RoundBank(fromCurrency.DecimalPlaces)
			totalFee = totalFee.Add(fee)
			fees = append(fees, entities.TransactionFee{
				FeeType:     "currency_conversion",
				Amount:      fee,
				Percentage:  decimal.NewNullDecimal(decimal.NewFromFloat(0.5)),
				Description: "currency conversion fee",
			})
		}

		debitTotal := input.Amount.Add(totalFee)
		if err := uc.ledger.CanSpend(fromWallet, debitTotal); err != nil {
			return err
		}

		fromBefore := fromWallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, fromWallet, debitTotal, entities.BalanceOpDebit); err != nil {
			return err
		}
		toBefore := toWallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, toWallet, creditAmount, entities.BalanceOpCredit); err != nil {
			return err
		}

		direction := entities.DirectionInternal
		if !sameUser {
			direction = entities.DirectionOutbound
		}

		txn = &entities.Transaction{
			Type:              entities.TxnTypeTransfer,
			Status:            entities.TxnStatusPending,
			Direction:         direction,
			Amount:            input.Amount,
			FeeAmount:         totalFee,
			NetAmount:         input.Amount.Sub(totalFee),
			CurrencyCode:      fromCurrency.Code,
			FromUserID:        &fromWallet.UserID,
			FromWalletID:      &fromWallet.ID,
			ToUserID:          &toWallet.UserID,
			ToWalletID:        &toWallet.ID,
			Metadata:          metadata,
			FromBalanceBefore: decimal.NewNullDecimal(fromBefore),
			FromBalanceAfter:  decimal.NewNullDecimal(fromWallet.Balance),
			ToBalanceBefore:   decimal.NewNullDecimal(toBefore),
			ToBalanceAfter:    decimal.NewNullDecimal(toWallet.Balance),
		}
		if input.Description != "" {
			txn.Description = null.StringFrom(input.Description)
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		for i := range fees {
			fees[i].TransactionID = txn.ID
			if err := uc.txnRepo.CreateFee(txCtx, &fees[i]); err != nil {
				return err
			}
		}
		return uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", "")
	})
	if err != nil {
		return nil, err
	}

	uc.notifyTransfer(ctx, txn)
	return txn, nil
}

// authenticate applies the PIN and biometric gates on the source
// wallet
func (uc *TransferUsecase) authenticate(ctx context.Context, userID uuid.UUID, wallet *entities.Wallet, input entities.TransferInput) error {
	if wallet.RequiresPIN || input.PIN != "" {
		if err := uc.ledger.VerifyPIN(wallet, input.PIN); err != nil {
			return err
		}
	}
	if wallet.RequiresBiometric || input.BiometricToken != "" {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := uc.jwtService.ValidateTrustToken(input.BiometricToken, user.Email, input.DeviceID); err != nil {
			return errors.ErrInvalidBiometric
		}
	}
	return nil
}

// notifyTransfer fans out transfer notifications after commit
func (uc *TransferUsecase) notifyTransfer(ctx context.Context, txn *entities.Transaction) {
	if uc.notifier == nil || txn == nil {
		return
	}
	if txn.FromUserID != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            *txn.FromUserID,
			Type:              entities.EventTransferSuccess,
			Title:             "Transfer successful",
			Message:           fmt.Sprintf("You sent %s %s", txn.Amount.String(), txn.CurrencyCode),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
			RelatedObjectType: "transaction",
			RelatedObjectID:   &txn.ID,
		})
	}
	if txn.ToUserID != nil && (txn.FromUserID == nil || *txn.ToUserID != *txn.FromUserID) {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            *txn.ToUserID,
			Type:              entities.EventPaymentReceived,
			Title:             "Payment received",
			Message:           fmt.Sprintf("You received a transfer of %s %s", txn.Amount.String(), txn.CurrencyCode),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
			RelatedObjectType: "transaction",
			RelatedObjectID:   &txn.ID,
		})
	}
}
