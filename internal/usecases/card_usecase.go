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
	"github.com/zichdan/paycore/pkg/utils"
)

// CardUsecase issues cards through the provider layer and settles
// webhook-initiated card transactions against the backing wallet
type CardUsecase struct {
	cardRepo     domainRepos.CardRepository
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	userRepo     domainRepos.UserRepository
	txnRepo      domainRepos.TransactionRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	notifier     *NotificationUsecase
	factory      *providers.Factory
	uow          domainRepos.UnitOfWork
	now          func() time.Time
}

// NewCardUsecase creates a new card usecase
func NewCardUsecase(
	cardRepo domainRepos.CardRepository,
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	userRepo domainRepos.UserRepository,
	txnRepo domainRepos.TransactionRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	notifier *NotificationUsecase,
	factory *providers.Factory,
	uow domainRepos.UnitOfWork,
) *CardUsecase {
	return &CardUsecase{
		cardRepo:     cardRepo,
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		userRepo:     userRepo,
		txnRepo:      txnRepo,
		ledger:       ledger,
		txns:         txns,
		notifier:     notifier,
		factory:      factory,
		uow:          uow,
		now:          time.Now,
	}
}

// Issue creates a card with the default provider. The provider call
// happens outside the database transaction so a slow issuer does not
// hold locks.
func (uc *CardUsecase) Issue(ctx context.Context, userID uuid.UUID, input entities.CreateCardInput) (*entities.Card, error) {
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
	currency, err := uc.currencyRepo.GetByID(ctx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cardType := input.CardType
	if cardType == "" {
		cardType = "virtual"
	}
	reference, err := utils.GenerateReference()
	if err != nil {
		return nil, err
	}
	provider := uc.factory.DefaultCardProvider()
	result, err := provider.CreateCard(ctx, user, providers.CreateCardParams{
		NameOnCard:   input.NameOnCard,
		CardType:     cardType,
		CurrencyCode: currency.Code,
		Reference:    reference,
	})
	if err != nil {
		return nil, err
	}

	card := &entities.Card{
		UserID:         userID,
		WalletID:       wallet.ID,
		Provider:       provider.Name(),
		ProviderCardID: result.ProviderCardID,
		NameOnCard:     input.NameOnCard,
		CardType:       cardType,
		Status:         entities.CardStatusActive,
		TotalSpent:     decimal.Zero,
		DailySpent:     decimal.Zero,
		MonthlySpent:   decimal.Zero,
	}
	if result.MaskedPAN != "" {
		card.MaskedPAN = null.StringFrom(result.MaskedPAN)
	}
	if result.Brand != "" {
		card.Brand = null.StringFrom(result.Brand)
	}
	if err := uc.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            userID,
			Type:              entities.EventCardIssued,
			Title:             "Card issued",
			Message:           fmt.Sprintf("Your %s card is ready to use", cardType),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
			RelatedObjectType: "card",
			RelatedObjectID:   &card.ID,
		})
	}
	return card, nil
}

// List returns the user's cards
func (uc *CardUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.Card, error) {
	return uc.cardRepo.ListByUser(ctx, userID)
}

// Get returns a card owned by the user
func (uc *CardUsecase) Get(ctx context.Context, userID, cardID uuid.UUID) (*entities.Card, error) {
	card, err := uc.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, errors.NotFound("card not found")
	}
	if card.UserID != userID {
		return nil, errors.Forbidden("card does not belong to user")
	}
	return card, nil
}

// Freeze blocks the card at the provider and locally
func (uc *CardUsecase) Freeze(ctx context.Context, userID, cardID uuid.UUID) (*entities.Card, error) {
	card, err := uc.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status != entities.CardStatusActive {
		return nil, errors.BadRequest("card is not active")
	}
	if card.IsFrozen {
		return card, nil
	}
	provider := uc.factory.CardProvider(card.Provider)
	if err := provider.FreezeCard(ctx, card.ProviderCardID); err != nil {
		return nil, err
	}
	card.IsFrozen = true
	if err := uc.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Unfreeze lifts a freeze
func (uc *CardUsecase) Unfreeze(ctx context.Context, userID, cardID uuid.UUID) (*entities.Card, error) {
	card, err := uc.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if !card.IsFrozen {
		return card, nil
	}
	provider := uc.factory.CardProvider(card.Provider)
	if err := provider.UnfreezeCard(ctx, card.ProviderCardID); err != nil {
		return nil, err
	}
	card.IsFrozen = false
	if err := uc.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Terminate permanently retires a card
func (uc *CardUsecase) Terminate(ctx context.Context, userID, cardID uuid.UUID) error {
	card, err := uc.Get(ctx, userID, cardID)
	if err != nil {
		return err
	}
	if card.Status == entities.CardStatusTerminated {
		return nil
	}
	provider := uc.factory.CardProvider(card.Provider)
	if err := provider.FreezeCard(ctx, card.ProviderCardID); err != nil {
		return err
	}
	// terminal status only: the card stays readable for history
	card.Status = entities.CardStatusTerminated
	return uc.cardRepo.Update(ctx, card)
}

// HandleWebhook processes one inbound card event. Signature
// verification happens before any mutation; replay detection, the
// ledger change, transaction record and card counters commit together
// under the card row lock.
func (uc *CardUsecase) HandleWebhook(ctx context.Context, providerName entities.CardProviderName, rawBody []byte, signature string) error {
	if signature == "" {
		return errors.ErrMissingSignature
	}
	provider := uc.factory.CardProvider(providerName)
	if !provider.VerifyWebhookSignature(rawBody, signature) {
		return errors.ErrInvalidSignature
	}
	event, err := provider.ParseWebhookEvent(rawBody)
	if err != nil {
		return errors.BadRequest("unparseable webhook payload")
	}

	return uc.uow.Do(ctx, func(txCtx context.Context) error {
		card, err := uc.cardRepo.GetByProviderCardID(uc.uow.WithLock(txCtx), event.ProviderCardID)
		if err != nil {
			return errors.NotFound("card not found for webhook event")
		}

		// replay: an existing transaction with this reference means the
		// event was already settled. The check runs under the card row
		// lock so two concurrent deliveries of the same event serialize,
		// and external_reference carries a unique index as a backstop.
		if _, err := uc.txnRepo.GetByExternalReference(txCtx, event.ExternalReference); err == nil {
			return nil
		} else if !errors.IsNotFound(err) {
			return err
		}
		wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), card.WalletID)
		if err != nil {
			return err
		}

		txnType := event.TransactionType
		if txnType == "" {
			txnType = entities.TxnTypeCardPurchase
		}
		txn := &entities.Transaction{
			Type:              txnType,
			Status:            entities.TxnStatusPending,
			Direction:         entities.DirectionOutbound,
			Amount:            event.Amount,
			NetAmount:         event.Amount,
			CurrencyCode:      event.CurrencyCode,
			FromUserID:        &card.UserID,
			FromWalletID:      &wallet.ID,
			ExternalReference: null.StringFrom(event.ExternalReference),
		}
		if event.MerchantName != "" {
			txn.Description = null.StringFrom(fmt.Sprintf("%s, %s", event.MerchantName, event.MerchantCity))
		}

		if txnType == entities.TxnTypeCardFunding {
			return uc.settleCardCredit(txCtx, card, wallet, txn)
		}

		if wallet.AvailableBalance.LessThan(event.Amount) {
			// insufficient funds: record the decline, no debit
			if err := uc.txns.Create(txCtx, txn); err != nil {
				return err
			}
			return uc.txns.Transition(txCtx, txn, entities.TxnStatusFailed, "system", "insufficient balance")
		}

		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, event.Amount, entities.BalanceOpDebit); err != nil {
			return err
		}
		txn.FromBalanceBefore = decimal.NewNullDecimal(before)
		txn.FromBalanceAfter = decimal.NewNullDecimal(wallet.Balance)
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
			return err
		}

		now := uc.now()
		rollCardCounters(card, now)
		card.TotalSpent = card.TotalSpent.Add(event.Amount)
		card.DailySpent = card.DailySpent.Add(event.Amount)
		card.MonthlySpent = card.MonthlySpent.Add(event.Amount)
		card.LastUsedAt = &now
		return uc.cardRepo.Update(txCtx, card)
	})
}

// settleCardCredit handles funding events, which credit the backing
// wallet instead of debiting it
func (uc *CardUsecase) settleCardCredit(txCtx context.Context, card *entities.Card, wallet *entities.Wallet, txn *entities.Transaction) error {
	before := wallet.Balance
	if err := uc.ledger.UpdateBalance(txCtx, wallet, txn.Amount, entities.BalanceOpCredit); err != nil {
		return err
	}
	txn.Direction = entities.DirectionInbound
	txn.FromUserID = nil
	txn.FromWalletID = nil
	txn.ToUserID = &card.UserID
	txn.ToWalletID = &wallet.ID
	txn.ToBalanceBefore = decimal.NewNullDecimal(before)
	txn.ToBalanceAfter = decimal.NewNullDecimal(wallet.Balance)
	if err := uc.txns.Create(txCtx, txn); err != nil {
		return err
	}
	return uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", "")
}

// rollCardCounters zeroes the daily and monthly spend counters when
// the card crosses a day or month boundary since its last use
func rollCardCounters(card *entities.Card, now time.Time) {
	if card.LastUsedAt == nil {
		return
	}
	last := *card.LastUsedAt
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	if ly != ny || lm != nm || ld != nd {
		card.DailySpent = decimal.Zero
	}
	if ly != ny || lm != nm {
		card.MonthlySpent = decimal.Zero
	}
}
