package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/internal/infrastructure/providers"
)

// BillUsecase handles bill payments through the provider adapter
// layer: airtime, data, electricity and similar services
type BillUsecase struct {
	billRepo     domainRepos.BillRepository
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	notifier     *NotificationUsecase
	factory      *providers.Factory
	uow          domainRepos.UnitOfWork
	now          func() time.Time
}

// NewBillUsecase creates a new bill usecase
func NewBillUsecase(
	billRepo domainRepos.BillRepository,
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	notifier *NotificationUsecase,
	factory *providers.Factory,
	uow domainRepos.UnitOfWork,
) *BillUsecase {
	return &BillUsecase{
		billRepo:     billRepo,
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		ledger:       ledger,
		txns:         txns,
		notifier:     notifier,
		factory:      factory,
		uow:          uow,
		now:          time.Now,
	}
}

// ListProviders returns the bill provider catalog
func (uc *BillUsecase) ListProviders(ctx context.Context) ([]*entities.BillProvider, error) {
	return uc.billRepo.ListProviders(ctx)
}

// ListPackages returns the purchasable bundles of one provider
func (uc *BillUsecase) ListPackages(ctx context.Context, providerCode string) ([]*entities.BillPackage, error) {
	provider, err := uc.billRepo.GetProviderByCode(ctx, providerCode)
	if err != nil {
		return nil, errors.NotFound("bill provider not found")
	}
	return uc.billRepo.ListPackages(ctx, provider.ID)
}

// ValidateCustomer resolves a customer id with the upstream provider
// before payment, so the caller can confirm the account name
func (uc *BillUsecase) ValidateCustomer(ctx context.Context, providerCode, customerID string) (*providers.CustomerInfo, error) {
	provider, err := uc.billRepo.GetProviderByCode(ctx, providerCode)
	if err != nil {
		return nil, errors.NotFound("bill provider not found")
	}
	return uc.factory.BillProvider().ValidateCustomer(ctx, provider.Code, customerID)
}

// Pay executes a bill payment. The provider call happens inside the
// database transaction so a provider failure rolls the wallet debit
// back with the rest of the mutation.
func (uc *BillUsecase) Pay(ctx context.Context, userID uuid.UUID, input entities.PayBillInput) (*entities.BillPayment, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.BadRequest("amount must be positive")
	}
	provider, err := uc.billRepo.GetProviderByCode(ctx, input.ProviderCode)
	if err != nil {
		return nil, errors.NotFound("bill provider not found")
	}
	adapter := uc.factory.BillProvider()
	if !adapter.SupportsCategory(provider.Category) {
		return nil, errors.BadRequest("bill category not supported")
	}

	var pkg *entities.BillPackage
	if input.PackageCode != "" {
		pkg, err = uc.billRepo.GetPackage(ctx, provider.ID, input.PackageCode)
		if err != nil {
			return nil, errors.NotFound("bill package not found")
		}
		if pkg.Amount.Valid && !pkg.Amount.Decimal.Equal(input.Amount) {
			return nil, errors.BadRequest("amount does not match package price")
		}
		if pkg.MinAmount.Valid && input.Amount.LessThan(pkg.MinAmount.Decimal) {
			return nil, errors.BadRequest("amount below package minimum")
		}
		if pkg.MaxAmount.Valid && input.Amount.GreaterThan(pkg.MaxAmount.Decimal) {
			return nil, errors.BadRequest("amount above package maximum")
		}
	}

	fee := provider.CalculateFee(input.Amount)
	total := input.Amount.Add(fee)

	var payment *entities.BillPayment
	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), input.WalletID)
		if err != nil {
			return errors.NotFound("wallet not found")
		}
		if wallet.UserID != userID {
			return errors.Forbidden("wallet does not belong to user")
		}
		if wallet.CurrencyID != provider.CurrencyID {
			return errors.BadRequest("wallet currency does not match provider currency")
		}
		if err := uc.ledger.CanSpend(wallet, total); err != nil {
			return err
		}
		currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
		if err != nil {
			return err
		}

		payment = &entities.BillPayment{
			UserID:     userID,
			WalletID:   wallet.ID,
			ProviderID: provider.ID,
			Status:     entities.BillStatusProcessing,
			CustomerID: input.CustomerID,
			Amount:     input.Amount,
			Fee:        fee,
		}
		if pkg != nil {
			payment.PackageID = &pkg.ID
		}
		if err := uc.billRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, total, entities.BalanceOpDebit); err != nil {
			return err
		}
		txn := &entities.Transaction{
			Type:              entities.TxnTypeBillPayment,
			Status:            entities.TxnStatusPending,
			Direction:         entities.DirectionOutbound,
			Amount:            input.Amount,
			FeeAmount:         fee,
			NetAmount:         input.Amount.Sub(fee),
			CurrencyCode:      currency.Code,
			FromUserID:        &userID,
			FromWalletID:      &wallet.ID,
			Description:       null.StringFrom(fmt.Sprintf("%s bill payment for %s", provider.Name, input.CustomerID)),
			FromBalanceBefore: decimal.NewNullDecimal(before),
			FromBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		payment.TransactionID = &txn.ID

		serviceCode := provider.Code
		if pkg != nil {
			serviceCode = pkg.Code
		}
		result, callErr := adapter.ProcessPayment(txCtx, serviceCode, input.CustomerID, input.Amount, txn.Reference)
		if callErr != nil {
			// refund the debit, keep the failed records
			if err := uc.ledger.UpdateBalance(txCtx, wallet, total, entities.BalanceOpCredit); err != nil {
				return err
			}
			if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusFailed, "system", callErr.Error()); err != nil {
				return err
			}
			payment.Status = entities.BillStatusFailed
			payment.FailureReason = null.StringFrom(callErr.Error())
			return uc.billRepo.UpdatePayment(txCtx, payment)
		}

		if result.ProviderReference != "" {
			payment.ProviderReference = null.StringFrom(result.ProviderReference)
			txn.ExternalReference = null.StringFrom(result.ProviderReference)
		}
		if result.CustomerName != "" {
			payment.CustomerName = null.StringFrom(result.CustomerName)
		}
		if result.Token != "" {
			payment.Token = null.StringFrom(result.Token)
		}
		if result.TokenUnits != "" {
			payment.TokenUnits = null.StringFrom(result.TokenUnits)
		}
		payment.Status = entities.BillStatusCompleted
		if err := uc.billRepo.UpdatePayment(txCtx, payment); err != nil {
			return err
		}
		if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
			return err
		}

		if input.SaveBeneficiary {
			alias := input.BeneficiaryAlias
			if alias == "" {
				alias = input.CustomerID
			}
			beneficiary := &entities.BillBeneficiary{
				UserID:     userID,
				ProviderID: provider.ID,
				CustomerID: input.CustomerID,
				Alias:      alias,
			}
			if err := uc.billRepo.CreateBeneficiary(txCtx, beneficiary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if payment.Status == entities.BillStatusCompleted && uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            userID,
			Type:              entities.EventBillPaymentSuccess,
			Title:             "Bill payment successful",
			Message:           fmt.Sprintf("Your %s payment of %s was successful", provider.Name, input.Amount),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp},
			RelatedObjectType: "bill_payment",
			RelatedObjectID:   &payment.ID,
		})
	}
	return payment, nil
}

// GetPayment returns one bill payment owned by the user
func (uc *BillUsecase) GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*entities.BillPayment, error) {
	payment, err := uc.billRepo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, errors.NotFound("bill payment not found")
	}
	if payment.UserID != userID {
		return nil, errors.Forbidden("bill payment does not belong to user")
	}
	return payment, nil
}

// ListPayments returns the user's bill payment history
func (uc *BillUsecase) ListPayments(ctx context.Context, userID uuid.UUID) ([]*entities.BillPayment, error) {
	return uc.billRepo.ListPaymentsByUser(ctx, userID)
}

// ListBeneficiaries returns the user's saved beneficiaries
func (uc *BillUsecase) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]*entities.BillBeneficiary, error) {
	return uc.billRepo.ListBeneficiaries(ctx, userID)
}

// DeleteBeneficiary removes a saved beneficiary
func (uc *BillUsecase) DeleteBeneficiary(ctx context.Context, userID, beneficiaryID uuid.UUID) error {
	return uc.billRepo.DeleteBeneficiary(ctx, userID, beneficiaryID)
}
