package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/pkg/crypto"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveProvider issues virtual cards and processes bill payments
// through the Flutterwave API. Webhooks are signed HMAC-SHA512 over
// the raw body with the account secret.
type FlutterwaveProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewFlutterwaveProvider creates a Flutterwave adapter
func NewFlutterwaveProvider(secretKey string, timeout time.Duration) *FlutterwaveProvider {
	return &FlutterwaveProvider{
		secretKey: secretKey,
		baseURL:   flutterwaveBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *FlutterwaveProvider) Name() entities.CardProviderName {
	return entities.CardProviderFlutterwave
}

type flwResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *FlutterwaveProvider) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	var envelope flwResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response", domainerrors.ErrProviderFailure)
	}
	if resp.StatusCode >= 400 || envelope.Status != "success" {
		return fmt.Errorf("%w: %s", domainerrors.ErrProviderFailure, envelope.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode data", domainerrors.ErrProviderFailure)
		}
	}
	return nil
}

func (p *FlutterwaveProvider) CreateCard(ctx context.Context, user *entities.User, params CreateCardParams) (*CreateCardResult, error) {
	var data struct {
		ID         string `json:"id"`
		MaskedPAN  string `json:"masked_pan"`
		CardType   string `json:"card_type"`
		NameOnCard string `json:"name_on_card"`
	}
	err := p.call(ctx, http.MethodPost, "/virtual-cards", map[string]interface{}{
		"currency":       params.CurrencyCode,
		"debit_currency": params.CurrencyCode,
		"first_name":     user.FirstName,
		"last_name":      user.LastName,
		"email":          user.Email,
		"title":          params.NameOnCard,
		"tx_ref":         params.Reference,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &CreateCardResult{
		ProviderCardID: data.ID,
		MaskedPAN:      data.MaskedPAN,
		Brand:          data.CardType,
	}, nil
}

func (p *FlutterwaveProvider) FreezeCard(ctx context.Context, providerCardID string) error {
	return p.call(ctx, http.MethodPut, "/virtual-cards/"+providerCardID+"/status/block", nil, nil)
}

func (p *FlutterwaveProvider) UnfreezeCard(ctx context.Context, providerCardID string) error {
	return p.call(ctx, http.MethodPut, "/virtual-cards/"+providerCardID+"/status/unblock", nil, nil)
}

func (p *FlutterwaveProvider) TopUp(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return p.call(ctx, http.MethodPost, "/virtual-cards/"+providerCardID+"/fund", map[string]interface{}{
		"amount":         amount,
		"debit_currency": "NGN",
		"tx_ref":         reference,
	}, nil)
}

func (p *FlutterwaveProvider) Withdraw(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return p.call(ctx, http.MethodPost, "/virtual-cards/"+providerCardID+"/withdraw", map[string]interface{}{
		"amount": amount,
		"tx_ref": reference,
	}, nil)
}

func (p *FlutterwaveProvider) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return crypto.VerifyHMACSHA512([]byte(p.secretKey), rawBody, signature)
}

// flwCardWebhook is the card transaction event shape
type flwCardWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID           string          `json:"id"`
		CardID       string          `json:"card_id"`
		Reference    string          `json:"reference"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		MerchantName string          `json:"merchant_name"`
		MerchantCity string          `json:"merchant_city"`
		Type         string          `json:"type"`
		CreatedAt    time.Time       `json:"created_at"`
	} `json:"data"`
}

func (p *FlutterwaveProvider) ParseWebhookEvent(payload []byte) (*entities.CardWebhookEvent, error) {
	var body flwCardWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	if body.Data.Reference == "" || body.Data.CardID == "" {
		return nil, fmt.Errorf("%w: webhook missing card or reference", domainerrors.ErrProviderFailure)
	}

	txnType := entities.TxnTypeCardPurchase
	switch body.Data.Type {
	case "funding", "credit":
		txnType = entities.TxnTypeCardFunding
	case "withdrawal":
		txnType = entities.TxnTypeCardWithdrawal
	}

	occurredAt := body.Data.CreatedAt
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

func (p *FlutterwaveProvider) ValidateCustomer(ctx context.Context, providerCode, customerID string) (*CustomerInfo, error) {
	var data struct {
		Name string `json:"name"`
	}
	err := p.call(ctx, http.MethodPost, "/bill-items/"+providerCode+"/validate", map[string]interface{}{
		"customer": customerID,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &CustomerInfo{CustomerID: customerID, CustomerName: data.Name}, nil
}

func (p *FlutterwaveProvider) ProcessPayment(ctx context.Context, providerCode, customerID string, amount decimal.Decimal, reference string) (*BillPaymentResult, error) {
	var data struct {
		FlwRef       string `json:"flw_ref"`
		CustomerName string `json:"customer_name"`
		Token        string `json:"token"`
		Units        string `json:"units"`
	}
	err := p.call(ctx, http.MethodPost, "/billers/"+providerCode+"/items/payment", map[string]interface{}{
		"customer_id": customerID,
		"amount":      amount,
		"reference":   reference,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &BillPaymentResult{
		ProviderReference: data.FlwRef,
		CustomerName:      data.CustomerName,
		Token:             data.Token,
		TokenUnits:        data.Units,
	}, nil
}

func (p *FlutterwaveProvider) QueryTransaction(ctx context.Context, reference string) (*BillPaymentResult, error) {
	var data struct {
		FlwRef string `json:"flw_ref"`
		Token  string `json:"token"`
	}
	if err := p.call(ctx, http.MethodGet, "/bills/"+reference, nil, &data); err != nil {
		return nil, err
	}
	return &BillPaymentResult{ProviderReference: data.FlwRef, Token: data.Token}, nil
}

func (p *FlutterwaveProvider) GetAvailableServices(ctx context.Context) ([]BillService, error) {
	var data []struct {
		BillerCode string `json:"biller_code"`
		Name       string `json:"name"`
		Category   string `json:"category"`
	}
	if err := p.call(ctx, http.MethodGet, "/top-bill-categories", nil, &data); err != nil {
		return nil, err
	}
	out := make([]BillService, 0, len(data))
	for _, item := range data {
		out = append(out, BillService{Code: item.BillerCode, Name: item.Name, Category: item.Category})
	}
	return out, nil
}

func (p *FlutterwaveProvider) SupportsCategory(category string) bool {
	switch category {
	case "airtime", "data", "electricity", "cable_tv", "internet":
		return true
	}
	return false
}
