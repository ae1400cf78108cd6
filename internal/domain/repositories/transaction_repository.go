package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/pkg/utils"
)

// TransactionRepository defines operations on the transaction
// aggregate: the record itself plus its fee, hold and log rows.
type TransactionRepository interface {
	Create(ctx context.Context, txn *entities.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*entities.Transaction, error)
	// GetByExternalReference backs webhook-replay idempotency checks.
	GetByExternalReference(ctx context.Context, externalRef string) (*entities.Transaction, error)
	// ListStalePending returns pending transactions initiated before
	// the cutoff, oldest first, capped at limit.
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter entities.TransactionFilter, p utils.PaginationParams) ([]*entities.Transaction, int64, error)
	// Update persists status and timestamp mutations. Balance snapshot
	// fields are written once at completion and never changed after.
	Update(ctx context.Context, txn *entities.Transaction) error
	Stats(ctx context.Context, userID uuid.UUID) ([]entities.TransactionStats, error)

	CreateFee(ctx context.Context, fee *entities.TransactionFee) error
	ListFees(ctx context.Context, txnID uuid.UUID) ([]entities.TransactionFee, error)

	CreateHold(ctx context.Context, hold *entities.TransactionHold) error
	GetHoldByTransaction(ctx context.Context, txnID uuid.UUID) (*entities.TransactionHold, error)
	UpdateHold(ctx context.Context, hold *entities.TransactionHold) error

	CreateLog(ctx context.Context, log *entities.TransactionLog) error
	ListLogs(ctx context.Context, txnID uuid.UUID) ([]entities.TransactionLog, error)
}
