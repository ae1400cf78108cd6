package providers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func TestInternalProvider_CreateCard(t *testing.T) {
	p := NewInternalProvider()
	user := &entities.User{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}

	result, err := p.CreateCard(context.Background(), user, CreateCardParams{
		NameOnCard:   "Ada Obi",
		CardType:     "virtual",
		CurrencyCode: "NGN",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.ProviderCardID, "int_card_"))
	require.True(t, strings.HasPrefix(result.MaskedPAN, "5399"))
	require.Equal(t, "verve", result.Brand)
}

func TestInternalProvider_WebhookSignature(t *testing.T) {
	p := NewInternalProvider()
	require.True(t, p.VerifyWebhookSignature([]byte("{}"), "anything"))
	require.False(t, p.VerifyWebhookSignature([]byte("{}"), ""))
}

func TestInternalProvider_ParseWebhookEvent(t *testing.T) {
	p := NewInternalProvider()

	payload := func(eventType string) []byte {
		body := map[string]interface{}{
			"event": "card.transaction",
			"data": map[string]interface{}{
				"card_id":       "int_card_abc",
				"reference":     "evt_001",
				"amount":        "1200",
				"currency":      "NGN",
				"merchant_name": "Coffee Shop",
				"merchant_city": "Lagos",
				"type":          eventType,
			},
		}
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		return raw
	}

	event, err := p.ParseWebhookEvent(payload("purchase"))
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeCardPurchase, event.TransactionType)
	require.Equal(t, "int_card_abc", event.ProviderCardID)
	require.Equal(t, "evt_001", event.ExternalReference)
	require.True(t, event.Amount.Equal(decimal.NewFromInt(1200)))
	require.Equal(t, "Coffee Shop", event.MerchantName)
	require.False(t, event.OccurredAt.IsZero())

	event, err = p.ParseWebhookEvent(payload("funding"))
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeCardFunding, event.TransactionType)

	event, err = p.ParseWebhookEvent(payload("withdrawal"))
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeCardWithdrawal, event.TransactionType)

	_, err = p.ParseWebhookEvent([]byte(`{"event":"card.transaction","data":{"card_id":"","reference":""}}`))
	require.ErrorIs(t, err, domainerrors.ErrProviderFailure)

	_, err = p.ParseWebhookEvent([]byte("not-json"))
	require.Error(t, err)
}

func TestInternalProvider_BillSimulation(t *testing.T) {
	p := NewInternalProvider()
	ctx := context.Background()

	info, err := p.ValidateCustomer(ctx, "elec_prepaid", "04123456789")
	require.NoError(t, err)
	require.Equal(t, "Simulated Customer", info.CustomerName)

	_, err = p.ValidateCustomer(ctx, "elec_prepaid", "")
	require.ErrorIs(t, err, domainerrors.ErrProviderFailure)

	// Electricity payments come back with a prepaid token
	result, err := p.ProcessPayment(ctx, "elec_prepaid", "04123456789", decimal.NewFromInt(5000), "TXNREF1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.ProviderReference, "int_bill_"))
	require.NotEmpty(t, result.Token)
	require.Equal(t, "100", result.TokenUnits)

	// Airtime does not
	result, err = p.ProcessPayment(ctx, "mtn_airtime", "08031234567", decimal.NewFromInt(500), "TXNREF2")
	require.NoError(t, err)
	require.Empty(t, result.Token)

	require.True(t, p.SupportsCategory("betting"))

	services, err := p.GetAvailableServices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, services)
}

func TestInternalProvider_WithdrawalSimulation(t *testing.T) {
	p := NewInternalProvider()
	ctx := context.Background()

	banks, err := p.GetBanks(ctx, "NGN")
	require.NoError(t, err)
	require.NotEmpty(t, banks)

	_, err = p.VerifyAccountNumber(ctx, "12345", "044")
	require.ErrorIs(t, err, domainerrors.ErrProviderFailure)

	info, err := p.VerifyAccountNumber(ctx, "0123456789", "044")
	require.NoError(t, err)
	require.Equal(t, "Simulated Account", info.AccountName)

	result, err := p.InitiateWithdrawal(ctx, "0123456789", "044", decimal.NewFromInt(4000), "TXNREF3")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.ProviderReference, "int_wd_"))
	require.Equal(t, "success", result.Status)
	require.NotNil(t, result.CompletedAt)
}
