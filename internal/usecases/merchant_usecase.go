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
	"github.com/zichdan/paycore/pkg/crypto"
	"github.com/zichdan/paycore/pkg/utils"
)

const linkSlugLength = 10

var (
	// merchantFeeRate is charged on every collection, capped at
	// merchantFeeCap in the currency's base unit
	merchantFeeRate = decimal.NewFromFloat(0.015)
	merchantFeeCap  = decimal.NewFromInt(1000)
)

// merchantFee returns min(1.5% of amount, the flat cap)
func merchantFee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(merchantFeeRate)
	if fee.GreaterThan(merchantFeeCap) {
		return merchantFeeCap
	}
	return fee
}

// MerchantUsecase handles merchant collections: shareable payment
// links, itemized invoices and server-to-server API keys
type MerchantUsecase struct {
	merchantRepo domainRepos.MerchantRepository
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	notifier     *NotificationUsecase
	uow          domainRepos.UnitOfWork
	now          func() time.Time
}

// NewMerchantUsecase creates a new merchant usecase
func NewMerchantUsecase(
	merchantRepo domainRepos.MerchantRepository,
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	notifier *NotificationUsecase,
	uow domainRepos.UnitOfWork,
) *MerchantUsecase {
	return &MerchantUsecase{
		merchantRepo: merchantRepo,
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		ledger:       ledger,
		txns:         txns,
		notifier:     notifier,
		uow:          uow,
		now:          time.Now,
	}
}

// CreateLink creates a shareable payment link for a merchant wallet
func (uc *MerchantUsecase) CreateLink(ctx context.Context, userID uuid.UUID, input entities.CreatePaymentLinkInput) (*entities.PaymentLink, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, errors.NotFound("wallet not found")
	}
	if wallet.UserID != userID {
		return nil, errors.Forbidden("wallet does not belong to user")
	}
	if input.IsAmountFixed {
		if !input.Amount.IsPositive() {
			return nil, errors.BadRequest("fixed-amount links need a positive amount")
		}
	} else {
		if input.MinAmount.IsPositive() && input.MaxAmount.IsPositive() && input.MinAmount.GreaterThan(input.MaxAmount) {
			return nil, errors.BadRequest("minimum amount exceeds maximum")
		}
	}

	slug, err := utils.GenerateSlug(linkSlugLength)
	if err != nil {
		return nil, err
	}
	link := &entities.PaymentLink{
		MerchantUserID: userID,
		WalletID:       wallet.ID,
		Slug:           slug,
		Title:          input.Title,
		Status:         entities.LinkStatusActive,
		IsAmountFixed:  input.IsAmountFixed,
		IsSingleUse:    input.IsSingleUse,
		TotalCollected: decimal.Zero,
		ExpiresAt:      input.ExpiresAt,
	}
	if input.Description != "" {
		link.Description = null.StringFrom(input.Description)
	}
	if input.IsAmountFixed {
		link.Amount = decimal.NewNullDecimal(input.Amount)
	} else {
		if input.MinAmount.IsPositive() {
			link.MinAmount = decimal.NewNullDecimal(input.MinAmount)
		}
		if input.MaxAmount.IsPositive() {
			link.MaxAmount = decimal.NewNullDecimal(input.MaxAmount)
		}
	}
	if err := uc.merchantRepo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// GetLink resolves a link by its public slug
func (uc *MerchantUsecase) GetLink(ctx context.Context, slug string) (*entities.PaymentLink, error) {
	link, err := uc.merchantRepo.GetLinkBySlug(ctx, slug)
	if err != nil {
		return nil, errors.NotFound("payment link not found")
	}
	return link, nil
}

// ListLinks returns the merchant's links
func (uc *MerchantUsecase) ListLinks(ctx context.Context, userID uuid.UUID) ([]*entities.PaymentLink, error) {
	return uc.merchantRepo.ListLinksByUser(ctx, userID)
}

// PayLink collects a payment against a link. The payer wallet is
// debited the full amount; the merchant receives amount minus fee.
func (uc *MerchantUsecase) PayLink(ctx context.Context, payerID uuid.UUID, slug string, input entities.PayLinkInput) (*entities.MerchantPayment, error) {
	// the expired flip happens outside the collection transaction: a
	// rejection must not roll it back
	if pre, err := uc.merchantRepo.GetLinkBySlug(ctx, slug); err == nil {
		if pre.Status == entities.LinkStatusActive && pre.ExpiresAt != nil && pre.ExpiresAt.Before(uc.now()) {
			pre.Status = entities.LinkStatusExpired
			if err := uc.merchantRepo.UpdateLink(ctx, pre); err != nil {
				return nil, err
			}
			return nil, errors.BadRequest("payment link has expired")
		}
	}

	var payment *entities.MerchantPayment
	var link *entities.PaymentLink
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		link, err = uc.merchantRepo.GetLinkBySlug(txCtx, slug)
		if err != nil {
			return errors.NotFound("payment link not found")
		}
		if link.Status != entities.LinkStatusActive {
			return errors.BadRequest("payment link is not active")
		}
		if link.ExpiresAt != nil && link.ExpiresAt.Before(uc.now()) {
			return errors.BadRequest("payment link has expired")
		}
		if link.IsSingleUse && link.PaymentsCount > 0 {
			return errors.BadRequest("payment link has already been used")
		}

		amount := input.Amount
		if link.IsAmountFixed {
			amount = link.Amount.Decimal
		} else {
			if !amount.IsPositive() {
				return errors.BadRequest("amount must be positive")
			}
			if link.MinAmount.Valid && amount.LessThan(link.MinAmount.Decimal) {
				return errors.BadRequest("amount below link minimum")
			}
			if link.MaxAmount.Valid && amount.GreaterThan(link.MaxAmount.Decimal) {
				return errors.BadRequest("amount above link maximum")
			}
		}

		txn, fee, err := uc.collect(txCtx, payerID, input.WalletID, link.WalletID, amount, input.PIN, entities.TxnTypeMerchantPayment, "payment for "+link.Title)
		if err != nil {
			return err
		}

		payment = &entities.MerchantPayment{
			LinkID:        &link.ID,
			TransactionID: txn.ID,
			PayerUserID:   payerID,
			Amount:        amount,
			Fee:           fee,
		}
		if err := uc.merchantRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		link.PaymentsCount++
		link.TotalCollected = link.TotalCollected.Add(amount)
		if link.IsSingleUse {
			link.Status = entities.LinkStatusCompleted
		}
		return uc.merchantRepo.UpdateLink(txCtx, link)
	})
	if err != nil {
		return nil, err
	}

	uc.notifyCollection(ctx, link.MerchantUserID, payment)
	return payment, nil
}

// CreateInvoice creates a draft invoice with its line items. The
// invoice total is the sum of quantity times unit price per line.
func (uc *MerchantUsecase) CreateInvoice(ctx context.Context, userID uuid.UUID, input entities.CreateInvoiceInput) (*entities.Invoice, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, errors.NotFound("wallet not found")
	}
	if wallet.UserID != userID {
		return nil, errors.Forbidden("wallet does not belong to user")
	}
	if len(input.Items) == 0 {
		return nil, errors.BadRequest("invoice needs at least one item")
	}

	number, err := utils.GenerateInvoiceNumber()
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	items := make([]*entities.InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 || !item.UnitPrice.IsPositive() {
			return nil, errors.BadRequest("invoice items need a positive quantity and unit price")
		}
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, &entities.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       lineTotal,
		})
	}

	invoice := &entities.Invoice{
		MerchantUserID: userID,
		WalletID:       wallet.ID,
		InvoiceNumber:  number,
		CustomerEmail:  input.CustomerEmail,
		CustomerName:   input.CustomerName,
		Status:         entities.InvoiceStatusDraft,
		Amount:         total,
		AmountPaid:     decimal.Zero,
		AmountDue:      total,
		DueDate:        input.DueDate,
	}
	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		if err := uc.merchantRepo.CreateInvoice(txCtx, invoice); err != nil {
			return err
		}
		for _, item := range items {
			item.InvoiceID = invoice.ID
		}
		return uc.merchantRepo.CreateInvoiceItems(txCtx, items)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// SendInvoice marks a draft invoice as sent
func (uc *MerchantUsecase) SendInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*entities.Invoice, error) {
	invoice, err := uc.merchantRepo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, errors.NotFound("invoice not found")
	}
	if invoice.MerchantUserID != userID {
		return nil, errors.Forbidden("invoice does not belong to user")
	}
	if invoice.Status != entities.InvoiceStatusDraft {
		return nil, errors.BadRequest("only draft invoices can be sent")
	}
	now := uc.now()
	invoice.Status = entities.InvoiceStatusSent
	invoice.SentAt = &now
	if err := uc.merchantRepo.UpdateInvoice(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListInvoices returns the merchant's invoices
func (uc *MerchantUsecase) ListInvoices(ctx context.Context, userID uuid.UUID) ([]*entities.Invoice, error) {
	return uc.merchantRepo.ListInvoicesByUser(ctx, userID)
}

// PayInvoice collects a payment against an invoice. Partial payments
// are allowed up to the amount still due.
func (uc *MerchantUsecase) PayInvoice(ctx context.Context, payerID uuid.UUID, invoiceNumber string, input entities.PayLinkInput) (*entities.MerchantPayment, error) {
	var payment *entities.MerchantPayment
	var invoice *entities.Invoice
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = uc.merchantRepo.GetInvoiceByNumber(txCtx, invoiceNumber)
		if err != nil {
			return errors.NotFound("invoice not found")
		}
		switch invoice.Status {
		case entities.InvoiceStatusSent, entities.InvoiceStatusPartiallyPaid, entities.InvoiceStatusOverdue:
		default:
			return errors.BadRequest("invoice is not payable")
		}

		amount := input.Amount
		if amount.IsZero() {
			amount = invoice.AmountDue
		}
		if !amount.IsPositive() {
			return errors.BadRequest("amount must be positive")
		}
		if amount.GreaterThan(invoice.AmountDue) {
			return errors.BadRequest("amount exceeds the amount due")
		}

		txn, fee, err := uc.collect(txCtx, payerID, input.WalletID, invoice.WalletID, amount, input.PIN, entities.TxnTypeInvoicePayment, "payment for invoice "+invoice.InvoiceNumber)
		if err != nil {
			return err
		}

		payment = &entities.MerchantPayment{
			InvoiceID:     &invoice.ID,
			TransactionID: txn.ID,
			PayerUserID:   payerID,
			Amount:        amount,
			Fee:           fee,
		}
		if err := uc.merchantRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		invoice.AmountPaid = invoice.AmountPaid.Add(amount)
		invoice.AmountDue = invoice.AmountDue.Sub(amount)
		if !invoice.AmountDue.IsPositive() {
			now := uc.now()
			invoice.Status = entities.InvoiceStatusPaid
			invoice.PaidAt = &now
		} else {
			invoice.Status = entities.InvoiceStatusPartiallyPaid
		}
		return uc.merchantRepo.UpdateInvoice(txCtx, invoice)
	})
	if err != nil {
		return nil, err
	}

	uc.notifyCollection(ctx, invoice.MerchantUserID, payment)
	return payment, nil
}

// collect moves amount from the payer wallet to the merchant wallet,
// keeping the fee, and records the transaction. Both wallets are
// locked in canonical order.
func (uc *MerchantUsecase) collect(txCtx context.Context, payerID, payerWalletID, merchantWalletID uuid.UUID, amount decimal.Decimal, pin string, txnType entities.TransactionType, description string) (*entities.Transaction, decimal.Decimal, error) {
	payerWallet, merchantWallet, err := lockWalletPair(uc.uow.WithLock(txCtx), uc.walletRepo, payerWalletID, merchantWalletID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if payerWallet.UserID != payerID {
		return nil, decimal.Zero, errors.Forbidden("wallet does not belong to user")
	}
	if !payerWallet.IsActive() || !merchantWallet.IsActive() {
		return nil, decimal.Zero, errors.ErrWalletNotActive
	}
	if payerWallet.CurrencyID != merchantWallet.CurrencyID {
		return nil, decimal.Zero, errors.BadRequest("payer and merchant wallets must share a currency")
	}
	if payerWallet.RequiresPIN || pin != "" {
		if err := uc.ledger.VerifyPIN(payerWallet, pin); err != nil {
			return nil, decimal.Zero, err
		}
	}
	currency, err := uc.currencyRepo.GetByID(txCtx, payerWallet.CurrencyID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	fee := merchantFee(amount).RoundBank(currency.DecimalPlaces)
	if err := uc.ledger.CanSpend(payerWallet, amount); err != nil {
		return nil, decimal.Zero, err
	}

	payerBefore := payerWallet.Balance
	if err := uc.ledger.UpdateBalance(txCtx, payerWallet, amount, entities.BalanceOpDebit); err != nil {
		return nil, decimal.Zero, err
	}
	merchantBefore := merchantWallet.Balance
	if err := uc.ledger.UpdateBalance(txCtx, merchantWallet, amount.Sub(fee), entities.BalanceOpCredit); err != nil {
		return nil, decimal.Zero, err
	}

	txn := &entities.Transaction{
		Type:              txnType,
		Status:            entities.TxnStatusPending,
		Direction:         entities.DirectionOutbound,
		Amount:            amount,
		FeeAmount:         fee,
		NetAmount:         amount.Sub(fee),
		CurrencyCode:      currency.Code,
		FromUserID:        &payerWallet.UserID,
		FromWalletID:      &payerWallet.ID,
		ToUserID:          &merchantWallet.UserID,
		ToWalletID:        &merchantWallet.ID,
		Description:       null.StringFrom(description),
		FromBalanceBefore: decimal.NewNullDecimal(payerBefore),
		FromBalanceAfter:  decimal.NewNullDecimal(payerWallet.Balance),
		ToBalanceBefore:   decimal.NewNullDecimal(merchantBefore),
		ToBalanceAfter:    decimal.NewNullDecimal(merchantWallet.Balance),
	}
	if err := uc.txns.Create(txCtx, txn); err != nil {
		return nil, decimal.Zero, err
	}
	if err := uc.txnRepoFee(txCtx, txn, fee); err != nil {
		return nil, decimal.Zero, err
	}
	if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
		return nil, decimal.Zero, err
	}
	return txn, fee, nil
}

func (uc *MerchantUsecase) txnRepoFee(txCtx context.Context, txn *entities.Transaction, fee decimal.Decimal) error {
	if !fee.IsPositive() {
		return nil
	}
	return uc.txns.CreateFee(txCtx, &entities.TransactionFee{
		TransactionID: txn.ID,
		FeeType:       "merchant",
		Amount:        fee,
		Percentage:    decimal.NewNullDecimal(decimal.NewFromFloat(1.5)),
		Description:   "merchant collection fee",
	})
}

func (uc *MerchantUsecase) notifyCollection(ctx context.Context, merchantID uuid.UUID, payment *entities.MerchantPayment) {
	if uc.notifier == nil || payment == nil {
		return
	}
	uc.notifier.Dispatch(ctx, entities.NotificationEvent{
		UserID:            merchantID,
		Type:              entities.EventPaymentReceived,
		Title:             "Payment received",
		Message:           fmt.Sprintf("You received a payment of %s", payment.Amount),
		Priority:          entities.PriorityNormal,
		Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
		RelatedObjectType: "merchant_payment",
		RelatedObjectID:   &payment.ID,
	})
	if payment.PayerUserID != merchantID {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            payment.PayerUserID,
			Type:              entities.EventPaymentSuccess,
			Title:             "Payment successful",
			Message:           fmt.Sprintf("Your payment of %s was successful", payment.Amount),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp},
			RelatedObjectType: "merchant_payment",
			RelatedObjectID:   &payment.ID,
		})
	}
}

// GeneratedAPIKey carries the plaintext key exactly once, at creation
type GeneratedAPIKey struct {
	Key    *entities.MerchantAPIKey
	Secret string
}

// CreateAPIKey issues a new server-to-server key. The plaintext is
// returned once and only its hash is stored.
func (uc *MerchantUsecase) CreateAPIKey(ctx context.Context, userID uuid.UUID, name string) (*GeneratedAPIKey, error) {
	if name == "" {
		return nil, errors.BadRequest("key name is required")
	}
	secret, err := crypto.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	secret = "pk_live_" + secret
	key := &entities.MerchantAPIKey{
		MerchantUserID: userID,
		Name:           name,
		KeyPrefix:      secret[:12],
		KeyHash:        crypto.HashAPIKey(secret),
	}
	if err := uc.merchantRepo.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}
	return &GeneratedAPIKey{Key: key, Secret: secret}, nil
}

// ListAPIKeys returns the merchant's keys, hashes omitted from
// serialization
func (uc *MerchantUsecase) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*entities.MerchantAPIKey, error) {
	return uc.merchantRepo.ListAPIKeysByUser(ctx, userID)
}

// RevokeAPIKey permanently disables a key
func (uc *MerchantUsecase) RevokeAPIKey(ctx context.Context, userID, keyID uuid.UUID) error {
	if err := uc.merchantRepo.RevokeAPIKey(ctx, userID, keyID); err != nil {
		return errors.NotFound("api key not found")
	}
	return nil
}

// AuthenticateAPIKey resolves a presented key to its merchant
func (uc *MerchantUsecase) AuthenticateAPIKey(ctx context.Context, presented string) (*entities.MerchantAPIKey, error) {
	key, err := uc.merchantRepo.GetAPIKeyByHash(ctx, crypto.HashAPIKey(presented))
	if err != nil {
		return nil, errors.Unauthorized("invalid api key")
	}
	return key, nil
}

// ExpireLinks sweeps active payment links past their deadline to
// expired. Invoked by the periodic sweep job.
func (uc *MerchantUsecase) ExpireLinks(ctx context.Context) (int, error) {
	links, err := uc.merchantRepo.GetExpiredActiveLinks(ctx, uc.now(), expireBatchSize)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}
	if err := uc.merchantRepo.ExpireLinks(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
