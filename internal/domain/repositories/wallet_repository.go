package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// CurrencyRepository defines currency reference-data operations
type CurrencyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Currency, error)
	GetByCode(ctx context.Context, code string) (*entities.Currency, error)
	ListActive(ctx context.Context) ([]*entities.Currency, error)
	Create(ctx context.Context, currency *entities.Currency) error
}

// WalletRepository defines ledger-account data operations. Reads made
// under a lock context (UnitOfWork.WithLock) take exclusive row locks.
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*entities.Wallet, error)
	GetDefault(ctx context.Context, userID, currencyID uuid.UUID, walletType entities.WalletType) (*entities.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error)
	// Update persists all mutable wallet fields including the balance
	// triple and spent counters. Must be called under row lock.
	Update(ctx context.Context, wallet *entities.Wallet) error
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
}

// UserRepository defines the identity reads the core consumes
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) error
}
