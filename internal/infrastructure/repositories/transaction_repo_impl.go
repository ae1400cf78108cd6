package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/pkg/utils"
)

// TransactionRepository implements the transaction aggregate storage
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *entities.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	if txn.InitiatedAt.IsZero() {
		txn.InitiatedAt = now
	}
	return GetDB(ctx, r.db).Create(txn).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	var t entities.Transaction
	if err := GetDB(ctx, r.db).Preload("Fees").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*entities.Transaction, error) {
	var t entities.Transaction
	if err := GetDB(ctx, r.db).Preload("Fees").Where("reference = ?", reference).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByExternalReference backs webhook-replay idempotency checks
func (r *TransactionRepository) GetByExternalReference(ctx context.Context, externalRef string) (*entities.Transaction, error) {
	var t entities.Transaction
	if err := GetDB(ctx, r.db).Where("external_reference = ?", externalRef).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Transaction, error) {
	var out []*entities.Transaction
	err := GetDB(ctx, r.db).
		Where("status = ? AND initiated_at < ?", entities.TxnStatusPending, before).
		Order("initiated_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter entities.TransactionFilter, p utils.PaginationParams) ([]*entities.Transaction, int64, error) {
	q := GetDB(ctx, r.db).Model(&entities.Transaction{}).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WalletID != nil {
		q = q.Where("from_wallet_id = ? OR to_wallet_id = ?", *filter.WalletID, *filter.WalletID)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*entities.Transaction
	err := q.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset()).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists status machine mutations. Reads back in order of
// created_at give a replayable ledger, so completed rows are never
// rewritten by callers.
func (r *TransactionRepository) Update(ctx context.Context, txn *entities.Transaction) error {
	txn.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Transaction{}).Where("id = ?", txn.ID).Updates(map[string]interface{}{
		"status":              txn.Status,
		"fee_amount":          txn.FeeAmount,
		"net_amount":          txn.NetAmount,
		"from_balance_before": txn.FromBalanceBefore,
		"from_balance_after":  txn.FromBalanceAfter,
		"to_balance_before":   txn.ToBalanceBefore,
		"to_balance_after":    txn.ToBalanceAfter,
		"external_reference":  txn.ExternalReference,
		"metadata":            txn.Metadata,
		"processed_at":        txn.ProcessedAt,
		"completed_at":        txn.CompletedAt,
		"failed_at":           txn.FailedAt,
		"updated_at":          txn.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *TransactionRepository) Stats(ctx context.Context, userID uuid.UUID) ([]entities.TransactionStats, error) {
	var out []entities.TransactionStats
	err := GetDB(ctx, r.db).Model(&entities.Transaction{}).
		Select("type, status, COUNT(*) AS count, SUM(amount) AS total_amount").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Group("type, status").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransactionRepository) CreateFee(ctx context.Context, fee *entities.TransactionFee) error {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	fee.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(fee).Error
}

func (r *TransactionRepository) ListFees(ctx context.Context, txnID uuid.UUID) ([]entities.TransactionFee, error) {
	var out []entities.TransactionFee
	err := GetDB(ctx, r.db).Where("transaction_id = ?", txnID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *TransactionRepository) CreateHold(ctx context.Context, hold *entities.TransactionHold) error {
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	now := time.Now()
	hold.CreatedAt = now
	hold.UpdatedAt = now
	return GetDB(ctx, r.db).Create(hold).Error
}

func (r *TransactionRepository) GetHoldByTransaction(ctx context.Context, txnID uuid.UUID) (*entities.TransactionHold, error) {
	var h entities.TransactionHold
	if err := GetDB(ctx, r.db).Where("transaction_id = ?", txnID).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *TransactionRepository) UpdateHold(ctx context.Context, hold *entities.TransactionHold) error {
	hold.UpdatedAt = time.Now()
	return GetDB(ctx, r.db).Model(&entities.TransactionHold{}).Where("id = ?", hold.ID).Updates(map[string]interface{}{
		"released_amount": hold.ReleasedAmount,
		"updated_at":      hold.UpdatedAt,
	}).Error
}

func (r *TransactionRepository) CreateLog(ctx context.Context, log *entities.TransactionLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(log).Error
}

func (r *TransactionRepository) ListLogs(ctx context.Context, txnID uuid.UUID) ([]entities.TransactionLog, error) {
	var out []entities.TransactionLog
	err := GetDB(ctx, r.db).Where("transaction_id = ?", txnID).Order("created_at").Find(&out).Error
	return out, err
}
