package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

// WalletRepository implements ledger-account data operations
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	now := time.Now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	if wallet.LastDailyReset.IsZero() {
		wallet.LastDailyReset = now
	}
	if wallet.LastMonthlyReset.IsZero() {
		wallet.LastMonthlyReset = now
	}
	return GetDB(ctx, r.db).Create(wallet).Error
}

// GetByID loads a wallet. Under a lock context this takes the
// exclusive row lock that serializes balance mutations.
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	var w entities.Wallet
	if err := GetDB(ctx, r.db).Where("id = ? AND deleted_at IS NULL", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*entities.Wallet, error) {
	var w entities.Wallet
	if err := GetDB(ctx, r.db).Where("account_number = ? AND deleted_at IS NULL", accountNumber).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetDefault(ctx context.Context, userID, currencyID uuid.UUID, walletType entities.WalletType) (*entities.Wallet, error) {
	var w entities.Wallet
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND currency_id = ? AND type = ? AND is_default = ? AND deleted_at IS NULL",
			userID, currencyID, walletType, true).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error) {
	var out []*entities.Wallet
	err := GetDB(ctx, r.db).
		Preload("Currency").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WalletRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error) {
	var out []*entities.Wallet
	err := GetDB(ctx, r.db).
		Preload("Currency").
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, entities.WalletStatusActive).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists every mutable wallet column. Callers mutating
// balances must hold the row lock taken by GetByID under a lock
// context.
func (r *WalletRepository) Update(ctx context.Context, wallet *entities.Wallet) error {
	wallet.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Wallet{}).Where("id = ?", wallet.ID).Updates(map[string]interface{}{
		"status":             wallet.Status,
		"is_default":         wallet.IsDefault,
		"account_number":     wallet.AccountNumber,
		"account_name":       wallet.AccountName,
		"bank_name":          wallet.BankName,
		"account_provider":   wallet.AccountProvider,
		"provider_account_id": wallet.ProviderAccountID,
		"balance":            wallet.Balance,
		"available_balance":  wallet.AvailableBalance,
		"pending_balance":    wallet.PendingBalance,
		"daily_limit":        wallet.DailyLimit,
		"monthly_limit":      wallet.MonthlyLimit,
		"daily_spent":        wallet.DailySpent,
		"monthly_spent":      wallet.MonthlySpent,
		"last_daily_reset":   wallet.LastDailyReset,
		"last_monthly_reset": wallet.LastMonthlyReset,
		"pin_hash":           wallet.PINHash,
		"requires_pin":       wallet.RequiresPIN,
		"requires_biometric": wallet.RequiresBiometric,
		"deleted_at":         wallet.DeletedAt,
		"updated_at":         wallet.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *WalletRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&entities.Wallet{}).
		Where("account_number = ?", accountNumber).
		Count(&count).Error
	return count > 0, err
}
