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

const sudoBaseURL = "https://api.sudo.cards"

// SudoProvider issues cards through the Sudo API
type SudoProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewSudoProvider creates a Sudo adapter
func NewSudoProvider(secretKey string, timeout time.Duration) *SudoProvider {
	return &SudoProvider{
		secretKey: secretKey,
		baseURL:   sudoBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *SudoProvider) Name() entities.CardProviderName {
	return entities.CardProviderSudo
}

type sudoResponse struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func (p *SudoProvider) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
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

	var envelope sudoResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response", domainerrors.ErrProviderFailure)
	}
	if resp.StatusCode >= 400 || envelope.StatusCode >= 400 {
		return fmt.Errorf("%w: %s", domainerrors.ErrProviderFailure, envelope.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode data", domainerrors.ErrProviderFailure)
		}
	}
	return nil
}

func (p *SudoProvider) CreateCard(ctx context.Context, user *entities.User, params CreateCardParams) (*CreateCardResult, error) {
	var data struct {
		ID        string `json:"_id"`
		MaskedPan string `json:"maskedPan"`
		Brand     string `json:"brand"`
	}
	err := p.call(ctx, http.MethodPost, "/cards", map[string]interface{}{
		"type":     params.CardType,
		"currency": params.CurrencyCode,
		"customer": map[string]interface{}{
			"name":  user.FullName(),
			"email": user.Email,
		},
		"metadata": map[string]string{"reference": params.Reference},
	}, &data)
	if err != nil {
		return nil, err
	}
	return &CreateCardResult{
		ProviderCardID: data.ID,
		MaskedPAN:      data.MaskedPan,
		Brand:          data.Brand,
	}, nil
}

func (p *SudoProvider) FreezeCard(ctx context.Context, providerCardID string) error {
	return p.call(ctx, http.MethodPut, "/cards/"+providerCardID, map[string]interface{}{
		"status": "inactive",
	}, nil)
}

func (p *SudoProvider) UnfreezeCard(ctx context.Context, providerCardID string) error {
	return p.call(ctx, http.MethodPut, "/cards/"+providerCardID, map[string]interface{}{
		"status": "active",
	}, nil)
}

func (p *SudoProvider) TopUp(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return p.call(ctx, http.MethodPost, "/cards/"+providerCardID+"/fund", map[string]interface{}{
		"amount":    amount,
		"reference": reference,
	}, nil)
}

func (p *SudoProvider) Withdraw(ctx context.Context, providerCardID string, amount decimal.Decimal, reference string) error {
	return p.call(ctx, http.MethodPost, "/cards/"+providerCardID+"/withdraw", map[string]interface{}{
		"amount":    amount,
		"reference": reference,
	}, nil)
}

func (p *SudoProvider) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return crypto.VerifyHMACSHA512([]byte(p.secretKey), rawBody, signature)
}

type sudoCardWebhook struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID           string          `json:"_id"`
			CardID       string          `json:"card"`
			Amount       decimal.Decimal `json:"amount"`
			Currency     string          `json:"currency"`
			MerchantName string          `json:"merchantName"`
			MerchantCity string          `json:"merchantCity"`
			CreatedAt    time.Time       `json:"createdAt"`
		} `json:"object"`
	} `json:"data"`
}

func (p *SudoProvider) ParseWebhookEvent(payload []byte) (*entities.CardWebhookEvent, error) {
	var body sudoCardWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	obj := body.Data.Object
	if obj.ID == "" || obj.CardID == "" {
		return nil, fmt.Errorf("%w: webhook missing card or reference", domainerrors.ErrProviderFailure)
	}

	occurredAt := obj.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &entities.CardWebhookEvent{
		EventType:         body.Type,
		ProviderCardID:    obj.CardID,
		ExternalReference: obj.ID,
		Amount:            obj.Amount,
		CurrencyCode:      obj.Currency,
		MerchantName:      obj.MerchantName,
		MerchantCity:      obj.MerchantCity,
		TransactionType:   entities.TxnTypeCardPurchase,
		OccurredAt:        occurredAt,
	}, nil
}
