package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

// InternalProvider simulates every provider capability in-process. It
// always succeeds and is selected in development or when no upstream
// keys are configured.
type InternalProvider struct{}

// NewInternalProvider creates the in-process simulator
func NewInternalProvider() *InternalProvider {
	return &InternalProvider{}
}

func (p *InternalProvider) Name() entities.CardProviderName {
	return entities.CardProviderInternal
}

func (p *InternalProvider) CreateCard(_ context.Context, user *entities.User, params CreateCardParams) (*CreateCardResult, error) {
	id := uuid.New().String()
	return &CreateCardResult{
		ProviderCardID: "int_card_" + id,
		MaskedPAN:      "5399********" + id[:4],
		Brand:          "verve",
	}, nil
}

func (p *InternalProvider) FreezeCard(_ context.Context, providerCardID string) error {
	return nil
}

func (p *InternalProvider) UnfreezeCard(_ context.Context, providerCardID string) error {
	return nil
}

func (p *InternalProvider) TopUp(_ context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return nil
}

func (p *InternalProvider) Withdraw(_ context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return nil
}

// VerifyWebhookSignature accepts any non-empty signature. Simulated
// webhooks are only reachable in development.
func (p *InternalProvider) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return signature != ""
}

// internalWebhookPayload mirrors the simulator's own webhook shape
type internalWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		CardID       string          `json:"card_id"`
		Reference    string          `json:"reference"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		MerchantName string          `json:"merchant_name"`
		MerchantCity string          `json:"merchant_city"`
		Type         string          `json:"type"`
		OccurredAt   time.Time       `json:"occurred_at"`
	} `json:"data"`
}

func (p *InternalProvider) ParseWebhookEvent(payload []byte) (*entities.CardWebhookEvent, error) {
	var body internalWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	if body.Data.Reference == "" || body.Data.CardID == "" {
		return nil, domainerrors.ErrProviderFailure
	}

	txnType := entities.TxnTypeCardPurchase
	switch body.Data.Type {
	case "funding":
		txnType = entities.TxnTypeCardFunding
	case "withdrawal":
		txnType = entities.TxnTypeCardWithdrawal
	}

	occurredAt := body.Data.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &entities.CardWebhookEvent{
		EventType:         body.Event,
		ProviderCardID:    body.Data.CardID,
		ExternalReference: body.Data.Reference,
		Amount:            body.Data.Amount,
		CurrencyCode:      body.Data.Currency,
		MerchantName:      body.Data.MerchantName,
		MerchantCity:      body.Data.MerchantCity,
		TransactionType:   txnType,
		OccurredAt:        occurredAt,
	}, nil
}

func (p *InternalProvider) ValidateCustomer(_ context.Context, providerCode, customerID string) (*CustomerInfo, error) {
	if customerID == "" {
		return nil, domainerrors.ErrProviderFailure
	}
	return &CustomerInfo{
		CustomerID:   customerID,
		CustomerName: "Simulated Customer",
	}, nil
}

func (p *InternalProvider) ProcessPayment(_ context.Context, providerCode, customerID string, amount decimal.Decimal, reference string) (*BillPaymentResult, error) {
	result := &BillPaymentResult{
		ProviderReference: "int_bill_" + uuid.New().String(),
		CustomerName:      "Simulated Customer",
	}
	// Electricity providers return a prepaid token
	if strings.HasPrefix(providerCode, "elec") {
		result.Token = fmt.Sprintf("%d-%d-%d-%d", time.Now().Unix()%10000, 1111, 2222, 3333)
		result.TokenUnits = amount.Div(decimal.NewFromInt(50)).RoundBank(1).String()
	}
	return result, nil
}

func (p *InternalProvider) QueryTransaction(_ context.Context, reference string) (*BillPaymentResult, error) {
	return &BillPaymentResult{ProviderReference: reference}, nil
}

func (p *InternalProvider) GetAvailableServices(_ context.Context) ([]BillService, error) {
	return []BillService{
		{Code: "mtn_airtime", Name: "MTN Airtime", Category: "airtime"},
		{Code: "mtn_data", Name: "MTN Data", Category: "data"},
		{Code: "elec_prepaid", Name: "Prepaid Electricity", Category: "electricity"},
		{Code: "dstv", Name: "DStv", Category: "cable_tv"},
	}, nil
}

func (p *InternalProvider) SupportsCategory(category string) bool {
	return true
}

func (p *InternalProvider) InitiateWithdrawal(_ context.Context, accountNumber, bankCode string, amount decimal.Decimal, reference string) (*WithdrawalResult, error) {
	now := time.Now()
	return &WithdrawalResult{
		ProviderReference: "int_wd_" + uuid.New().String(),
		Status:            "success",
		CompletedAt:       &now,
	}, nil
}

func (p *InternalProvider) VerifyWithdrawal(_ context.Context, reference string) (*WithdrawalResult, error) {
	now := time.Now()
	return &WithdrawalResult{
		ProviderReference: reference,
		Status:            "success",
		CompletedAt:       &now,
	}, nil
}

func (p *InternalProvider) GetBanks(_ context.Context, currencyCode string) ([]Bank, error) {
	return []Bank{
		{Code: "044", Name: "Access Bank"},
		{Code: "058", Name: "GTBank"},
		{Code: "057", Name: "Zenith Bank"},
	}, nil
}

func (p *InternalProvider) VerifyAccountNumber(_ context.Context, accountNumber, bankCode string) (*AccountInfo, error) {
	if len(accountNumber) != 10 {
		return nil, domainerrors.ErrProviderFailure
	}
	return &AccountInfo{
		AccountNumber: accountNumber,
		AccountName:   "Simulated Account",
	}, nil
}
