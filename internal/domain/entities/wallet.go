package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// WalletType represents the kind of ledger account
type WalletType string

const (
	WalletTypeMain     WalletType = "main"
	WalletTypeSavings  WalletType = "savings"
	WalletTypeBusiness WalletType = "business"
	WalletTypeCrypto   WalletType = "crypto"
	WalletTypeVirtual  WalletType = "virtual"
)

// WalletStatus represents wallet lifecycle status. Only active wallets
// permit outbound operations.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusInactive  WalletStatus = "inactive"
	WalletStatusFrozen    WalletStatus = "frozen"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusClosed    WalletStatus = "closed"
)

// AccountProvider identifies who issued the wallet's account number
type AccountProvider string

const (
	AccountProviderInternal    AccountProvider = "internal"
	AccountProviderPaystack    AccountProvider = "paystack"
	AccountProviderFlutterwave AccountProvider = "flutterwave"
	AccountProviderWise        AccountProvider = "wise"
)

// BalanceOperation is a ledger mutation kind
type BalanceOperation string

const (
	BalanceOpCredit  BalanceOperation = "credit"
	BalanceOpDebit   BalanceOperation = "debit"
	BalanceOpHold    BalanceOperation = "hold"
	BalanceOpRelease BalanceOperation = "release"
)

// Wallet is the core ledger account. The balance triple invariant
// balance = available_balance + pending_balance holds after every
// committed mutation, all three non-negative.
type Wallet struct {
	ID                uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID           `json:"userId" gorm:"type:uuid;not null;index"`
	CurrencyID        uuid.UUID           `json:"currencyId" gorm:"type:uuid;not null;index"`
	Type              WalletType          `json:"type" gorm:"type:varchar(20);not null;default:'main'"`
	Status            WalletStatus        `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	IsDefault         bool                `json:"isDefault" gorm:"default:false"`
	AccountNumber     null.String         `json:"accountNumber,omitempty" gorm:"type:varchar(20);uniqueIndex"`
	AccountName       null.String         `json:"accountName,omitempty" gorm:"type:varchar(255)"`
	BankName          null.String         `json:"bankName,omitempty" gorm:"type:varchar(255)"`
	AccountProvider   AccountProvider     `json:"accountProvider" gorm:"type:varchar(20);default:'internal'"`
	ProviderAccountID null.String         `json:"-" gorm:"type:varchar(255)"`
	Balance           decimal.Decimal     `json:"balance" gorm:"type:decimal(24,8);not null;default:0"`
	AvailableBalance  decimal.Decimal     `json:"availableBalance" gorm:"type:decimal(24,8);not null;default:0"`
	PendingBalance    decimal.Decimal     `json:"pendingBalance" gorm:"type:decimal(24,8);not null;default:0"`
	DailyLimit        decimal.NullDecimal `json:"dailyLimit,omitempty" gorm:"type:decimal(24,8)"`
	MonthlyLimit      decimal.NullDecimal `json:"monthlyLimit,omitempty" gorm:"type:decimal(24,8)"`
	DailySpent        decimal.Decimal     `json:"dailySpent" gorm:"type:decimal(24,8);not null;default:0"`
	MonthlySpent      decimal.Decimal     `json:"monthlySpent" gorm:"type:decimal(24,8);not null;default:0"`
	LastDailyReset    time.Time           `json:"lastDailyReset"`
	LastMonthlyReset  time.Time           `json:"lastMonthlyReset"`
	PINHash           null.String         `json:"-" gorm:"type:varchar(255)"`
	RequiresPIN       bool                `json:"requiresPin" gorm:"default:false"`
	RequiresBiometric bool                `json:"requiresBiometric" gorm:"default:false"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
	DeletedAt         *time.Time          `json:"-" gorm:"index"`

	// Joins
	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsActive reports whether outbound operations are permitted
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// CheckInvariant verifies the balance triple after a mutation
func (w *Wallet) CheckInvariant() bool {
	if w.Balance.IsNegative() || w.AvailableBalance.IsNegative() || w.PendingBalance.IsNegative() {
		return false
	}
	return w.Balance.Equal(w.AvailableBalance.Add(w.PendingBalance))
}

// CreateWalletInput represents input for creating a wallet
type CreateWalletInput struct {
	CurrencyCode string     `json:"currencyCode" binding:"required"`
	Type         WalletType `json:"type"`
	AccountName  string     `json:"accountName"`
}

// SetPINInput represents input for setting or changing a wallet PIN
type SetPINInput struct {
	CurrentPIN string `json:"currentPin"`
	NewPIN     string `json:"newPin" binding:"required,len=4"`
}

// TransferInput represents input for a wallet-to-wallet transfer
type TransferInput struct {
	FromWalletID   uuid.UUID       `json:"fromWalletId" binding:"required"`
	ToWalletID     uuid.UUID       `json:"toWalletId" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Description    string          `json:"description"`
	PIN            string          `json:"pin"`
	BiometricToken string          `json:"biometricToken"`
	DeviceID       string          `json:"deviceId"`
}

// CurrencySummary aggregates active wallets of one currency
type CurrencySummary struct {
	CurrencyCode   string          `json:"currencyCode"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	TotalAvailable decimal.Decimal `json:"totalAvailable"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	WalletCount    int             `json:"walletCount"`
}

// WalletSummary is the per-user aggregate view
type WalletSummary struct {
	Currencies  []CurrencySummary `json:"currencies"`
	WalletCount int               `json:"walletCount"`
}
