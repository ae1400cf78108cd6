package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zichdan/paycore/internal/domain/entities"
)

// CreateCardParams carries what the issuing provider needs
type CreateCardParams struct {
	NameOnCard   string
	CardType     string
	CurrencyCode string
	Reference    string
}

// CreateCardResult is the normalized issuance response
type CreateCardResult struct {
	ProviderCardID string
	MaskedPAN      string
	Brand          string
}

// CardProvider is the capability set of a card issuer
type CardProvider interface {
	Name() entities.CardProviderName
	CreateCard(ctx context.Context, user *entities.User, params CreateCardParams) (*CreateCardResult, error)
	FreezeCard(ctx context.Context, providerCardID string) error
	UnfreezeCard(ctx context.Context, providerCardID string) error
	TopUp(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error
	Withdraw(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error
	// VerifyWebhookSignature checks the provider's signature over the
	// raw request body.
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	ParseWebhookEvent(payload []byte) (*entities.CardWebhookEvent, error)
}

// CustomerInfo is the normalized customer validation response
type CustomerInfo struct {
	CustomerID   string
	CustomerName string
}

// BillPaymentResult is the normalized bill payment response
type BillPaymentResult struct {
	ProviderReference string
	CustomerName      string
	Token             string
	TokenUnits        string
}

// BillService is one purchasable service exposed by the provider
type BillService struct {
	Code     string
	Name     string
	Category string
}

// BillPaymentProvider is the capability set of a bill aggregator
type BillPaymentProvider interface {
	ValidateCustomer(ctx context.Context, providerCode, customerID string) (*CustomerInfo, error)
	ProcessPayment(ctx context.Context, providerCode, customerID string, amount decimal.Decimal, reference string) (*BillPaymentResult, error)
	QueryTransaction(ctx context.Context, reference string) (*BillPaymentResult, error)
	GetAvailableServices(ctx context.Context) ([]BillService, error)
	SupportsCategory(category string) bool
}

// Bank is one settlement bank offered for withdrawals
type Bank struct {
	Code string
	Name string
}

// AccountInfo is the resolved owner of a bank account
type AccountInfo struct {
	AccountNumber string
	AccountName   string
}

// WithdrawalResult is the normalized withdrawal response
type WithdrawalResult struct {
	ProviderReference string
	Status            string
	CompletedAt       *time.Time
}

// WithdrawalProvider is the capability set of a payout processor
type WithdrawalProvider interface {
	InitiateWithdrawal(ctx context.Context, accountNumber, bankCode string, amount decimal.Decimal, reference string) (*WithdrawalResult, error)
	VerifyWithdrawal(ctx context.Context, reference string) (*WithdrawalResult, error)
	GetBanks(ctx context.Context, currencyCode string) ([]Bank, error)
	VerifyAccountNumber(ctx context.Context, accountNumber, bankCode string) (*AccountInfo, error)
}
