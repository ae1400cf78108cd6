package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackProvider processes bank withdrawals through the Paystack
// transfers API
type PaystackProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystackProvider creates a Paystack adapter
func NewPaystackProvider(secretKey string, timeout time.Duration) *PaystackProvider {
	return &PaystackProvider{
		secretKey: secretKey,
		baseURL:   paystackBaseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackProvider) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
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

	var envelope paystackResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response", domainerrors.ErrProviderFailure)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return fmt.Errorf("%w: %s", domainerrors.ErrProviderFailure, envelope.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode data", domainerrors.ErrProviderFailure)
		}
	}
	return nil
}

// InitiateWithdrawal creates a transfer recipient and starts the
// transfer. Amounts are sent in the currency's minor unit.
func (p *PaystackProvider) InitiateWithdrawal(ctx context.Context, accountNumber, bankCode string, amount decimal.Decimal, reference string) (*WithdrawalResult, error) {
	var recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	err := p.call(ctx, http.MethodPost, "/transferrecipient", map[string]interface{}{
		"type":           "nuban",
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}, &recipient)
	if err != nil {
		return nil, err
	}

	var transfer struct {
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}
	err = p.call(ctx, http.MethodPost, "/transfer", map[string]interface{}{
		"source":    "balance",
		"amount":    amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"recipient": recipient.RecipientCode,
		"reference": reference,
	}, &transfer)
	if err != nil {
		return nil, err
	}

	return &WithdrawalResult{
		ProviderReference: transfer.TransferCode,
		Status:            transfer.Status,
	}, nil
}

func (p *PaystackProvider) VerifyWithdrawal(ctx context.Context, reference string) (*WithdrawalResult, error) {
	var data struct {
		TransferCode string     `json:"transfer_code"`
		Status       string     `json:"status"`
		UpdatedAt    *time.Time `json:"updated_at"`
	}
	if err := p.call(ctx, http.MethodGet, "/transfer/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	result := &WithdrawalResult{
		ProviderReference: data.TransferCode,
		Status:            data.Status,
	}
	if data.Status == "success" {
		result.CompletedAt = data.UpdatedAt
	}
	return result, nil
}

func (p *PaystackProvider) GetBanks(ctx context.Context, currencyCode string) ([]Bank, error) {
	var data []struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := p.call(ctx, http.MethodGet, "/bank?currency="+url.QueryEscape(currencyCode), nil, &data); err != nil {
		return nil, err
	}
	out := make([]Bank, 0, len(data))
	for _, b := range data {
		out = append(out, Bank{Code: b.Code, Name: b.Name})
	}
	return out, nil
}

func (p *PaystackProvider) VerifyAccountNumber(ctx context.Context, accountNumber, bankCode string) (*AccountInfo, error) {
	var data struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
	}
	path := "/bank/resolve?account_number=" + url.QueryEscape(accountNumber) + "&bank_code=" + url.QueryEscape(bankCode)
	if err := p.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &AccountInfo{
		AccountNumber: data.AccountNumber,
		AccountName:   data.AccountName,
	}, nil
}
