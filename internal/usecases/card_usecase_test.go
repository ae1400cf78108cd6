package usecases

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func issueTestCard(t *testing.T, env *testEnv, userID, walletID uuid.UUID) *entities.Card {
	t.Helper()
	card, err := env.cards.Issue(context.Background(), userID, entities.CreateCardInput{
		WalletID:   walletID,
		NameOnCard: "Ada Eze",
	})
	require.NoError(t, err)
	return card
}

func cardWebhookBody(t *testing.T, cardID, reference, eventType string, amount decimal.Decimal) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": "card.transaction",
		"data": map[string]interface{}{
			"card_id":       cardID,
			"reference":     reference,
			"amount":        amount,
			"currency":      "NGN",
			"merchant_name": "Coffee Shop",
			"merchant_city": "Lagos",
			"type":          eventType,
		},
	})
	require.NoError(t, err)
	return body
}

func TestCard_IssueAndLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "5000")

	card := issueTestCard(t, env, user.ID, wallet.ID)
	require.Equal(t, entities.CardProviderInternal, card.Provider)
	require.True(t, strings.HasPrefix(card.ProviderCardID, "int_card_"))
	require.Equal(t, "virtual", card.CardType)
	require.Equal(t, entities.CardStatusActive, card.Status)
	require.True(t, card.MaskedPAN.Valid)

	frozen, err := env.cards.Freeze(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.True(t, frozen.IsFrozen)

	// freezing an already frozen card is a no-op
	_, err = env.cards.Freeze(ctx, user.ID, card.ID)
	require.NoError(t, err)

	thawed, err := env.cards.Unfreeze(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.False(t, thawed.IsFrozen)

	require.NoError(t, env.cards.Terminate(ctx, user.ID, card.ID))
	reloaded, err := env.cards.Get(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.Equal(t, entities.CardStatusTerminated, reloaded.Status)

	_, err = env.cards.Freeze(ctx, user.ID, card.ID)
	require.ErrorContains(t, err, "not active")

	env.notifier.Wait()
	notifications, err := env.notifRepo.ListByUser(ctx, user.ID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, entities.EventCardIssued, notifications[0].EventType)
}

func TestCard_WebhookPurchaseDebitsWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "5000")
	card := issueTestCard(t, env, user.ID, wallet.ID)

	body := cardWebhookBody(t, card.ProviderCardID, "evt_purchase_1", "purchase", decimal.NewFromInt(1200))
	require.NoError(t, env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig"))

	after := reloadWallet(t, env.db, wallet.ID)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(3800)), "purchase debited, got %s", after.Balance)

	txn, err := env.txnRepo.GetByExternalReference(ctx, "evt_purchase_1")
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeCardPurchase, txn.Type)
	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
	require.Equal(t, "Coffee Shop, Lagos", txn.Description.String)

	updated, err := env.cards.Get(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.True(t, updated.TotalSpent.Equal(decimal.NewFromInt(1200)))
	require.True(t, updated.DailySpent.Equal(decimal.NewFromInt(1200)))
	require.True(t, updated.MonthlySpent.Equal(decimal.NewFromInt(1200)))
	require.NotNil(t, updated.LastUsedAt)
}

func TestCard_WebhookReplayIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "5000")
	card := issueTestCard(t, env, user.ID, wallet.ID)

	body := cardWebhookBody(t, card.ProviderCardID, "evt_replay_1", "purchase", decimal.NewFromInt(1000))
	require.NoError(t, env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig"))
	require.NoError(t, env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig"))

	after := reloadWallet(t, env.db, wallet.ID)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(4000)), "single debit despite redelivery, got %s", after.Balance)

	var count int64
	require.NoError(t, env.db.Model(&entities.Transaction{}).
		Where("external_reference = ?", "evt_replay_1").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCard_WebhookInsufficientFundsRecordsDecline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "500")
	card := issueTestCard(t, env, user.ID, wallet.ID)

	body := cardWebhookBody(t, card.ProviderCardID, "evt_decline_1", "purchase", decimal.NewFromInt(1200))
	require.NoError(t, env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig"))

	after := reloadWallet(t, env.db, wallet.ID)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(500)), "no debit on decline, got %s", after.Balance)

	txn, err := env.txnRepo.GetByExternalReference(ctx, "evt_decline_1")
	require.NoError(t, err)
	require.Equal(t, entities.TxnStatusFailed, txn.Status)

	updated, err := env.cards.Get(ctx, user.ID, card.ID)
	require.NoError(t, err)
	require.True(t, updated.TotalSpent.IsZero())
}

func TestCard_WebhookFundingCreditsWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "2000")
	card := issueTestCard(t, env, user.ID, wallet.ID)

	body := cardWebhookBody(t, card.ProviderCardID, "evt_fund_1", "funding", decimal.NewFromInt(1000))
	require.NoError(t, env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig"))

	after := reloadWallet(t, env.db, wallet.ID)
	require.True(t, after.Balance.Equal(decimal.NewFromInt(3000)), "funding credited, got %s", after.Balance)

	txn, err := env.txnRepo.GetByExternalReference(ctx, "evt_fund_1")
	require.NoError(t, err)
	require.Equal(t, entities.TxnTypeCardFunding, txn.Type)
	require.Equal(t, entities.DirectionInbound, txn.Direction)
	require.Equal(t, entities.TxnStatusCompleted, txn.Status)
}

func TestCard_WebhookRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "holder@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "2000")
	card := issueTestCard(t, env, user.ID, wallet.ID)

	body := cardWebhookBody(t, card.ProviderCardID, "evt_sig_1", "purchase", decimal.NewFromInt(100))
	err := env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "")
	require.ErrorIs(t, err, domainerrors.ErrMissingSignature)

	err = env.cards.HandleWebhook(ctx, entities.CardProviderInternal, []byte("not-json"), "sig")
	require.ErrorContains(t, err, "unparseable")

	// a payload without a reference cannot be settled idempotently
	body = cardWebhookBody(t, card.ProviderCardID, "", "purchase", decimal.NewFromInt(100))
	err = env.cards.HandleWebhook(ctx, entities.CardProviderInternal, body, "sig")
	require.ErrorContains(t, err, "unparseable")
}
