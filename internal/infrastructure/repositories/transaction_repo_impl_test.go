package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/pkg/utils"
)

func seedTransaction(t *testing.T, repo *TransactionRepository, fromUser, fromWallet uuid.UUID, txnType entities.TransactionType, status entities.TransactionStatus, amount string, ref string) *entities.Transaction {
	t.Helper()
	txn := &entities.Transaction{
		Type:         txnType,
		Status:       status,
		Direction:    entities.DirectionOutbound,
		Amount:       decimal.RequireFromString(amount),
		FeeAmount:    decimal.Zero,
		NetAmount:    decimal.RequireFromString(amount),
		CurrencyCode: "NGN",
		FromUserID:   &fromUser,
		FromWalletID: &fromWallet,
		Reference:    ref,
	}
	require.NoError(t, repo.Create(context.Background(), txn))
	return txn
}

func TestTransactionRepository_CreateAndLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	walletID := uuid.New()
	txn := seedTransaction(t, repo, userID, walletID, entities.TxnTypeTransfer, entities.TxnStatusPending, "1000", "TXN-AAA111")
	require.False(t, txn.InitiatedAt.IsZero())

	got, err := repo.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	require.Equal(t, txn.Reference, got.Reference)

	byRef, err := repo.GetByReference(ctx, "TXN-AAA111")
	require.NoError(t, err)
	require.Equal(t, txn.ID, byRef.ID)

	_, err = repo.GetByReference(ctx, "TXN-NOPE")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTransactionRepository_ExternalReferenceLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	walletID := uuid.New()
	txn := seedTransaction(t, repo, userID, walletID, entities.TxnTypeCardPurchase, entities.TxnStatusCompleted, "250", "TXN-EXT001")
	txn.ExternalReference = null.StringFrom("flw_evt_12345")
	require.NoError(t, repo.Update(ctx, txn))

	got, err := repo.GetByExternalReference(ctx, "flw_evt_12345")
	require.NoError(t, err)
	require.Equal(t, txn.ID, got.ID)

	_, err = repo.GetByExternalReference(ctx, "flw_evt_unknown")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTransactionRepository_ListByUserFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherUser := uuid.New()
	walletID := uuid.New()
	otherWallet := uuid.New()

	seedTransaction(t, repo, userID, walletID, entities.TxnTypeTransfer, entities.TxnStatusCompleted, "1000", "TXN-F001")
	seedTransaction(t, repo, userID, walletID, entities.TxnTypeBillPayment, entities.TxnStatusFailed, "200", "TXN-F002")
	seedTransaction(t, repo, userID, otherWallet, entities.TxnTypeTransfer, entities.TxnStatusCompleted, "300", "TXN-F003")
	seedTransaction(t, repo, otherUser, otherWallet, entities.TxnTypeTransfer, entities.TxnStatusCompleted, "400", "TXN-F004")

	page := utils.GetPaginationParams(1, 20)

	all, total, err := repo.ListByUser(ctx, userID, entities.TransactionFilter{}, page)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	byType, total, err := repo.ListByUser(ctx, userID, entities.TransactionFilter{Type: entities.TxnTypeBillPayment}, page)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "TXN-F002", byType[0].Reference)

	byStatus, _, err := repo.ListByUser(ctx, userID, entities.TransactionFilter{Status: entities.TxnStatusCompleted}, page)
	require.NoError(t, err)
	require.Len(t, byStatus, 2)

	byWallet, _, err := repo.ListByUser(ctx, userID, entities.TransactionFilter{WalletID: &walletID}, page)
	require.NoError(t, err)
	require.Len(t, byWallet, 2)

	future := time.Now().Add(time.Hour)
	none, total, err := repo.ListByUser(ctx, userID, entities.TransactionFilter{StartDate: &future}, page)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, none)
}

func TestTransactionRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	walletID := uuid.New()
	seedTransaction(t, repo, userID, walletID, entities.TxnTypeTransfer, entities.TxnStatusCompleted, "1000", "TXN-S001")
	seedTransaction(t, repo, userID, walletID, entities.TxnTypeTransfer, entities.TxnStatusCompleted, "500", "TXN-S002")
	seedTransaction(t, repo, userID, walletID, entities.TxnTypeBillPayment, entities.TxnStatusFailed, "200", "TXN-S003")

	stats, err := repo.Stats(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, s := range stats {
		if s.Type == entities.TxnTypeTransfer {
			require.EqualValues(t, 2, s.Count)
			require.True(t, s.TotalAmount.Equal(decimal.RequireFromString("1500")))
		}
	}
}

func TestTransactionRepository_FeesHoldsAndLogs(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	walletID := uuid.New()
	txn := seedTransaction(t, repo, userID, walletID, entities.TxnTypeTransfer, entities.TxnStatusPending, "1000", "TXN-FEE01")

	fee := &entities.TransactionFee{
		TransactionID: txn.ID,
		FeeType:       "transfer",
		Amount:        decimal.RequireFromString("10"),
		Percentage:    decimal.NewNullDecimal(decimal.NewFromInt(1)),
		Description:   "transfer fee",
	}
	require.NoError(t, repo.CreateFee(ctx, fee))

	fees, err := repo.ListFees(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.True(t, fees[0].Amount.Equal(decimal.RequireFromString("10")))

	withFees, err := repo.GetByID(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, withFees.Fees, 1)

	hold := &entities.TransactionHold{
		TransactionID: txn.ID,
		WalletID:      walletID,
		AmountHeld:    decimal.RequireFromString("1000"),
	}
	require.NoError(t, repo.CreateHold(ctx, hold))

	hold.ReleasedAmount = decimal.RequireFromString("400")
	require.NoError(t, repo.UpdateHold(ctx, hold))

	gotHold, err := repo.GetHoldByTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.True(t, gotHold.Remaining().Equal(decimal.RequireFromString("600")))

	require.NoError(t, repo.CreateLog(ctx, &entities.TransactionLog{
		TransactionID:  txn.ID,
		PreviousStatus: entities.TxnStatusPending,
		NewStatus:      entities.TxnStatusCompleted,
		Actor:          "system",
	}))
	logs, err := repo.ListLogs(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, entities.TxnStatusCompleted, logs[0].NewStatus)
}
