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
)

// InvestmentUsecase handles investment placement, periodic payouts,
// maturity, early liquidation and renewal
type InvestmentUsecase struct {
	investRepo   domainRepos.InvestmentRepository
	productRepo  domainRepos.InvestmentProductRepository
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	notifier     *NotificationUsecase
	uow          domainRepos.UnitOfWork
	now          func() time.Time
}

// NewInvestmentUsecase creates a new investment usecase
func NewInvestmentUsecase(
	investRepo domainRepos.InvestmentRepository,
	productRepo domainRepos.InvestmentProductRepository,
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	notifier *NotificationUsecase,
	uow domainRepos.UnitOfWork,
) *InvestmentUsecase {
	return &InvestmentUsecase{
		investRepo:   investRepo,
		productRepo:  productRepo,
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		ledger:       ledger,
		txns:         txns,
		notifier:     notifier,
		uow:          uow,
		now:          time.Now,
	}
}

// expectedReturns applies simple interest over the placement period:
// amount * (rate/100) * days/365
func expectedReturns(amount, annualRate decimal.Decimal, durationDays int) decimal.Decimal {
	return amount.
		Mul(annualRate.Div(decimal.NewFromInt(100))).
		Mul(decimal.NewFromInt(int64(durationDays))).
		Div(decimal.NewFromInt(365)).
		RoundBank(8)
}

// ListProducts returns the active investment catalog
func (uc *InvestmentUsecase) ListProducts(ctx context.Context) ([]*entities.InvestmentProduct, error) {
	return uc.productRepo.ListActive(ctx)
}

// Create places a new investment. The product row is locked so slot
// accounting stays correct under contention.
func (uc *InvestmentUsecase) Create(ctx context.Context, userID uuid.UUID, input entities.CreateInvestmentInput) (*entities.Investment, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.BadRequest("amount must be positive")
	}

	var investment *entities.Investment
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		product, err := uc.productRepo.GetByID(uc.uow.WithLock(txCtx), input.ProductID)
		if err != nil {
			return errors.NotFound("investment product not found")
		}
		if !product.IsActive {
			return errors.BadRequest("investment product is not available")
		}
		if !product.HasSlot() {
			return errors.ErrSlotExhausted
		}
		if input.Amount.LessThan(product.MinAmount) || input.Amount.GreaterThan(product.MaxAmount) {
			return errors.BadRequest(fmt.Sprintf("amount must be between %s and %s", product.MinAmount, product.MaxAmount))
		}
		if input.DurationDays < product.MinDurationDays || input.DurationDays > product.MaxDurationDays {
			return errors.BadRequest(fmt.Sprintf("duration must be between %d and %d days", product.MinDurationDays, product.MaxDurationDays))
		}

		wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), input.WalletID)
		if err != nil {
			return errors.NotFound("wallet not found")
		}
		if wallet.UserID != userID {
			return errors.Forbidden("wallet does not belong to user")
		}
		if wallet.CurrencyID != product.CurrencyID {
			return errors.BadRequest("wallet currency does not match product currency")
		}
		if err := uc.ledger.CanSpend(wallet, input.Amount); err != nil {
			return err
		}
		currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
		if err != nil {
			return err
		}

		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, input.Amount, entities.BalanceOpDebit); err != nil {
			return err
		}

		now := uc.now()
		investment = &entities.Investment{
			UserID:          userID,
			ProductID:       product.ID,
			WalletID:        wallet.ID,
			Status:          entities.InvestmentStatusActive,
			Principal:       input.Amount,
			InterestRate:    product.InterestRate,
			DurationDays:    input.DurationDays,
			ExpectedReturns: expectedReturns(input.Amount, product.InterestRate, input.DurationDays),
			ActualReturns:   decimal.Zero,
			StartDate:       now,
			MaturityDate:    now.AddDate(0, 0, input.DurationDays),
		}
		if err := uc.investRepo.Create(txCtx, investment); err != nil {
			return err
		}

		txn := &entities.Transaction{
			Type:              entities.TxnTypeInvestment,
			Status:            entities.TxnStatusPending,
			Direction:         entities.DirectionOutbound,
			Amount:            input.Amount,
			NetAmount:         input.Amount,
			CurrencyCode:      currency.Code,
			FromUserID:        &userID,
			FromWalletID:      &wallet.ID,
			Description:       null.StringFrom(fmt.Sprintf("investment in %s", product.Name)),
			FromBalanceBefore: decimal.NewNullDecimal(before),
			FromBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
			return err
		}

		product.SlotsTaken++
		if err := uc.productRepo.Update(txCtx, product); err != nil {
			return err
		}

		if interval := product.PayoutFrequency.IntervalDays(); interval > 0 {
			if err := uc.investRepo.CreateReturns(txCtx, buildPayoutSchedule(investment, interval)); err != nil {
				return err
			}
		}

		return uc.adjustPortfolio(txCtx, userID, func(p *entities.InvestmentPortfolio) {
			p.TotalInvested = p.TotalInvested.Add(input.Amount)
			p.ActiveInvestments++
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            userID,
			Type:              entities.EventInvestmentCreated,
			Title:             "Investment created",
			Message:           fmt.Sprintf("Your investment of %s is now active", investment.Principal),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
			RelatedObjectType: "investment",
			RelatedObjectID:   &investment.ID,
		})
	}
	return investment, nil
}

// buildPayoutSchedule pre-generates equal periodic payouts. The last
// payout absorbs division residue.
func buildPayoutSchedule(investment *entities.Investment, intervalDays int) []*entities.InvestmentReturn {
	num := investment.DurationDays / intervalDays
	if num < 1 {
		num = 1
	}
	per := investment.ExpectedReturns.Div(decimal.NewFromInt(int64(num))).RoundBank(8)
	returns := make([]*entities.InvestmentReturn, 0, num)
	sum := decimal.Zero
	for i := 1; i <= num; i++ {
		amount := per
		if i == num {
			amount = investment.ExpectedReturns.Sub(sum)
		}
		sum = sum.Add(amount)
		returns = append(returns, &entities.InvestmentReturn{
			InvestmentID: investment.ID,
			PayoutNumber: i,
			Amount:       amount,
			PayoutDate:   investment.StartDate.AddDate(0, 0, i*intervalDays),
		})
	}
	return returns
}

// Get returns an investment owned by the user with its payout history
func (uc *InvestmentUsecase) Get(ctx context.Context, userID, investmentID uuid.UUID) (*entities.Investment, []*entities.InvestmentReturn, error) {
	investment, err := uc.investRepo.GetByID(ctx, investmentID)
	if err != nil {
		return nil, nil, errors.NotFound("investment not found")
	}
	if investment.UserID != userID {
		return nil, nil, errors.Forbidden("investment does not belong to user")
	}
	returns, err := uc.investRepo.ListReturns(ctx, investmentID)
	if err != nil {
		return nil, nil, err
	}
	return investment, returns, nil
}

// List returns all investments of the user
func (uc *InvestmentUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.Investment, error) {
	return uc.investRepo.ListByUser(ctx, userID)
}

// Portfolio returns the user's denormalized summary
func (uc *InvestmentUsecase) Portfolio(ctx context.Context, userID uuid.UUID) (*entities.InvestmentPortfolio, error) {
	portfolio, err := uc.investRepo.GetPortfolio(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return &entities.InvestmentPortfolio{
				UserID:        userID,
				TotalInvested: decimal.Zero,
				TotalReturns:  decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return portfolio, nil
}

// ProcessDuePayouts credits every unpaid periodic return whose payout
// date has passed. Invoked by the payout job.
func (uc *InvestmentUsecase) ProcessDuePayouts(ctx context.Context) (int, error) {
	due, err := uc.investRepo.ListDueReturns(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	paid := 0
	for _, ret := range due {
		if err := uc.payReturn(ctx, ret); err != nil {
			return paid, err
		}
		paid++
	}
	return paid, nil
}

func (uc *InvestmentUsecase) payReturn(ctx context.Context, ret *entities.InvestmentReturn) error {
	return uc.uow.Do(ctx, func(txCtx context.Context) error {
		investment, err := uc.investRepo.GetByID(txCtx, ret.InvestmentID)
		if err != nil {
			return err
		}
		if investment.Status != entities.InvestmentStatusActive || ret.IsPaid {
			return nil
		}
		if err := uc.creditInvestmentReturn(txCtx, investment, ret, entities.TxnTypeInvestmentReturn, "investment return payout"); err != nil {
			return err
		}
		return uc.adjustPortfolio(txCtx, investment.UserID, func(p *entities.InvestmentPortfolio) {
			p.TotalReturns = p.TotalReturns.Add(ret.Amount)
		})
	})
}

// creditInvestmentReturn credits the wallet for one scheduled return
// and marks it paid
func (uc *InvestmentUsecase) creditInvestmentReturn(txCtx context.Context, investment *entities.Investment, ret *entities.InvestmentReturn, txnType entities.TransactionType, description string) error {
	wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), investment.WalletID)
	if err != nil {
		return err
	}
	currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
	if err != nil {
		return err
	}
	before := wallet.Balance
	if err := uc.ledger.UpdateBalance(txCtx, wallet, ret.Amount, entities.BalanceOpCredit); err != nil {
		return err
	}
	txn := &entities.Transaction{
		Type:            txnType,
		Status:          entities.TxnStatusPending,
		Direction:       entities.DirectionInbound,
		Amount:          ret.Amount,
		NetAmount:       ret.Amount,
		CurrencyCode:    currency.Code,
		ToUserID:        &investment.UserID,
		ToWalletID:      &wallet.ID,
		Description:     null.StringFrom(description),
		ToBalanceBefore: decimal.NewNullDecimal(before),
		ToBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
	}
	if err := uc.txns.Create(txCtx, txn); err != nil {
		return err
	}
	if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
		return err
	}

	now := uc.now()
	ret.IsPaid = true
	ret.PaidAt = &now
	if err := uc.investRepo.UpdateReturn(txCtx, ret); err != nil {
		return err
	}
	investment.ActualReturns = investment.ActualReturns.Add(ret.Amount)
	return uc.investRepo.Update(txCtx, investment)
}

// ProcessMaturities settles every active investment past its maturity
// date. Invoked by the maturity job.
func (uc *InvestmentUsecase) ProcessMaturities(ctx context.Context) (int, error) {
	matured, err := uc.investRepo.ListMaturedActive(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, investment := range matured {
		if err := uc.Mature(ctx, investment.ID); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}

// Mature pays out a single matured investment: the principal, plus
// interest for at-maturity products, plus any scheduled returns the
// payout job has not yet credited. Interest already credited
// periodically is not paid again.
func (uc *InvestmentUsecase) Mature(ctx context.Context, investmentID uuid.UUID) error {
	var investment *entities.Investment
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		investment, err = uc.investRepo.GetByID(txCtx, investmentID)
		if err != nil {
			return err
		}
		if investment.Status != entities.InvestmentStatusActive {
			return errors.ErrInvalidTransition
		}

		payout := investment.Principal
		settled := decimal.Zero
		product, err := uc.productRepo.GetByID(uc.uow.WithLock(txCtx), investment.ProductID)
		if err != nil {
			return err
		}
		if product.PayoutFrequency == entities.PayoutAtMaturity {
			payout = payout.Add(investment.ExpectedReturns)
			settled = investment.ExpectedReturns
			investment.ActualReturns = investment.ExpectedReturns
		} else {
			// settle scheduled returns the payout job missed
			returns, err := uc.investRepo.ListReturns(txCtx, investment.ID)
			if err != nil {
				return err
			}
			for _, ret := range returns {
				if !ret.IsPaid {
					payout = payout.Add(ret.Amount)
					settled = settled.Add(ret.Amount)
					investment.ActualReturns = investment.ActualReturns.Add(ret.Amount)
					now := uc.now()
					ret.IsPaid = true
					ret.PaidAt = &now
					if err := uc.investRepo.UpdateReturn(txCtx, ret); err != nil {
						return err
					}
				}
			}
		}

		if err := uc.creditWalletPayout(txCtx, investment, payout, entities.TxnTypeInvestmentPayout, "investment maturity payout"); err != nil {
			return err
		}

		now := uc.now()
		investment.Status = entities.InvestmentStatusMatured
		investment.ActualMaturityDate = &now
		if err := uc.investRepo.Update(txCtx, investment); err != nil {
			return err
		}

		if product.SlotsTaken > 0 {
			product.SlotsTaken--
		}
		if err := uc.productRepo.Update(txCtx, product); err != nil {
			return err
		}

		return uc.adjustPortfolio(txCtx, investment.UserID, func(p *entities.InvestmentPortfolio) {
			p.TotalReturns = p.TotalReturns.Add(settled)
			p.ActiveInvestments--
			p.MaturedCount++
		})
	})
	if err != nil {
		return err
	}

	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            investment.UserID,
			Type:              entities.EventInvestmentMatured,
			Title:             "Investment matured",
			Message:           fmt.Sprintf("Your investment of %s has matured and been paid out", investment.Principal),
			Priority:          entities.PriorityHigh,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush, entities.ChannelEmail},
			RelatedObjectType: "investment",
			RelatedObjectID:   &investment.ID,
		})
	}
	return nil
}

// Liquidate closes an active investment early, deducting the
// product's penalty from the principal payout
func (uc *InvestmentUsecase) Liquidate(ctx context.Context, userID, investmentID uuid.UUID) (*entities.Investment, error) {
	var investment *entities.Investment
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		investment, err = uc.investRepo.GetByID(txCtx, investmentID)
		if err != nil {
			return errors.NotFound("investment not found")
		}
		if investment.UserID != userID {
			return errors.Forbidden("investment does not belong to user")
		}
		if investment.Status != entities.InvestmentStatusActive {
			return errors.BadRequest("investment is not active")
		}

		product, err := uc.productRepo.GetByID(uc.uow.WithLock(txCtx), investment.ProductID)
		if err != nil {
			return err
		}
		if !product.EarlyLiquidationAllowed {
			return errors.ErrLiquidationNotAllowed
		}

		penalty := investment.Principal.
			Mul(product.EarlyLiquidationPenalty).
			Div(decimal.NewFromInt(100)).
			RoundBank(8)
		payout := investment.Principal.Add(investment.ActualReturns).Sub(penalty)
		if payout.IsNegative() {
			payout = decimal.Zero
		}

		if err := uc.creditWalletPayout(txCtx, investment, payout, entities.TxnTypeInvestmentPayout, "early liquidation payout"); err != nil {
			return err
		}

		now := uc.now()
		investment.Status = entities.InvestmentStatusLiquidated
		investment.PenaltyAmount = decimal.NewNullDecimal(penalty)
		investment.ActualMaturityDate = &now
		if err := uc.investRepo.Update(txCtx, investment); err != nil {
			return err
		}

		if product.SlotsTaken > 0 {
			product.SlotsTaken--
		}
		if err := uc.productRepo.Update(txCtx, product); err != nil {
			return err
		}

		return uc.adjustPortfolio(txCtx, userID, func(p *entities.InvestmentPortfolio) {
			p.ActiveInvestments--
			p.LiquidatedCount++
		})
	})
	if err != nil {
		return nil, err
	}
	return investment, nil
}

// Renew rolls a matured investment into a new one with principal =
// old principal + accumulated returns
func (uc *InvestmentUsecase) Renew(ctx context.Context, userID, investmentID uuid.UUID) (*entities.Investment, error) {
	old, err := uc.investRepo.GetByID(ctx, investmentID)
	if err != nil {
		return nil, errors.NotFound("investment not found")
	}
	if old.UserID != userID {
		return nil, errors.Forbidden("investment does not belong to user")
	}
	if old.Status != entities.InvestmentStatusMatured {
		return nil, errors.ErrInvestmentNotMatured
	}
	product, err := uc.productRepo.GetByID(ctx, old.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.AutoRenewalAllowed {
		return nil, errors.BadRequest("product does not allow renewal")
	}

	newPrincipal := old.Principal.Add(old.ActualReturns)
	renewed, err := uc.Create(ctx, userID, entities.CreateInvestmentInput{
		ProductID:    old.ProductID,
		WalletID:     old.WalletID,
		Amount:       newPrincipal,
		DurationDays: old.DurationDays,
	})
	if err != nil {
		return nil, err
	}

	renewed.RenewedFromID = &old.ID
	if err := uc.investRepo.Update(ctx, renewed); err != nil {
		return nil, err
	}
	old.Status = entities.InvestmentStatusRenewed
	if err := uc.investRepo.Update(ctx, old); err != nil {
		return nil, err
	}
	return renewed, nil
}

// creditWalletPayout credits a lump sum to the investment's wallet
// with a completed transaction
func (uc *InvestmentUsecase) creditWalletPayout(txCtx context.Context, investment *entities.Investment, amount decimal.Decimal, txnType entities.TransactionType, description string) error {
	wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), investment.WalletID)
	if err != nil {
		return err
	}
	currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
	if err != nil {
		return err
	}
	before := wallet.Balance
	if err := uc.ledger.UpdateBalance(txCtx, wallet, amount, entities.BalanceOpCredit); err != nil {
		return err
	}
	txn := &entities.Transaction{
		Type:            txnType,
		Status:          entities.TxnStatusPending,
		Direction:       entities.DirectionInbound,
		Amount:          amount,
		NetAmount:       amount,
		CurrencyCode:    currency.Code,
		ToUserID:        &investment.UserID,
		ToWalletID:      &wallet.ID,
		Description:     null.StringFrom(description),
		ToBalanceBefore: decimal.NewNullDecimal(before),
		ToBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
	}
	if err := uc.txns.Create(txCtx, txn); err != nil {
		return err
	}
	return uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", "")
}

// adjustPortfolio applies a mutation to the user's denormalized
// summary, creating it on first use
func (uc *InvestmentUsecase) adjustPortfolio(txCtx context.Context, userID uuid.UUID, mutate func(*entities.InvestmentPortfolio)) error {
	portfolio, err := uc.investRepo.GetPortfolio(txCtx, userID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return err
		}
		portfolio = &entities.InvestmentPortfolio{
			UserID:        userID,
			TotalInvested: decimal.Zero,
			TotalReturns:  decimal.Zero,
		}
	}
	mutate(portfolio)
	return uc.investRepo.UpsertPortfolio(txCtx, portfolio)
}
