package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func newSudoTestProvider(t *testing.T, handler http.HandlerFunc) *SudoProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p := NewSudoProvider("sk_test_sudo", 5*time.Second)
	p.baseURL = server.URL
	return p
}

func TestSudo_CreateCardMapsResponse(t *testing.T) {
	var gotBody map[string]interface{}
	p := newSudoTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 200,
			"message":    "created",
			"data": map[string]interface{}{
				"_id":       "sudo_card_1",
				"maskedPan": "5061********4321",
				"brand":     "verve",
			},
		})
	})

	user := &entities.User{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}
	result, err := p.CreateCard(context.Background(), user, CreateCardParams{
		CardType:     "virtual",
		CurrencyCode: "NGN",
		Reference:    "TXNREF1",
	})
	require.NoError(t, err)
	require.Equal(t, "sudo_card_1", result.ProviderCardID)
	require.Equal(t, "5061********4321", result.MaskedPAN)
	require.Equal(t, "verve", result.Brand)

	customer := gotBody["customer"].(map[string]interface{})
	require.Equal(t, "Ada Obi", customer["name"])
}

func TestSudo_EnvelopeStatusCodeRejected(t *testing.T) {
	// HTTP 200 with an error statusCode in the envelope is a failure
	p := newSudoTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 422,
			"message":    "customer not onboarded",
		})
	})

	err := p.TopUp(context.Background(), "sudo_card_1", decimal.NewFromInt(1000), "TXNREF2")
	require.ErrorIs(t, err, domainerrors.ErrProviderFailure)
	require.Contains(t, err.Error(), "customer not onboarded")
}

func TestSudo_FreezeSetsInactive(t *testing.T) {
	var gotBody map[string]interface{}
	p := newSudoTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/sudo_card_1", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"statusCode": 200})
	})

	require.NoError(t, p.FreezeCard(context.Background(), "sudo_card_1"))
	require.Equal(t, "inactive", gotBody["status"])

	require.NoError(t, p.UnfreezeCard(context.Background(), "sudo_card_1"))
	require.Equal(t, "active", gotBody["status"])
}

func TestSudo_ParseWebhookEvent(t *testing.T) {
	p := NewSudoProvider("sk_test_sudo", 5*time.Second)

	event, err := p.ParseWebhookEvent([]byte(`{
		"type": "card.transaction",
		"data": {
			"object": {
				"_id": "evt_9",
				"card": "sudo_card_1",
				"amount": "750",
				"currency": "NGN",
				"merchantName": "Cinema",
				"merchantCity": "Lagos"
			}
		}
	}`))
	require.NoError(t, err)
	require.Equal(t, "sudo_card_1", event.ProviderCardID)
	require.Equal(t, "evt_9", event.ExternalReference)
	require.Equal(t, entities.TxnTypeCardPurchase, event.TransactionType)
	require.True(t, event.Amount.Equal(decimal.NewFromInt(750)))
	require.False(t, event.OccurredAt.IsZero())

	_, err = p.ParseWebhookEvent([]byte(`{"type":"card.transaction","data":{"object":{"_id":"evt_9"}}}`))
	require.ErrorIs(t, err, domainerrors.ErrProviderFailure)
}
