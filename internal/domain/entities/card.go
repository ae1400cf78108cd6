package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// CardProviderName identifies the issuing provider
type CardProviderName string

const (
	CardProviderFlutterwave CardProviderName = "flutterwave"
	CardProviderSudo        CardProviderName = "sudo"
	CardProviderInternal    CardProviderName = "internal"
)

// CardStatus is the card lifecycle state
type CardStatus string

const (
	CardStatusActive     CardStatus = "active"
	CardStatusInactive   CardStatus = "inactive"
	CardStatusTerminated CardStatus = "terminated"
)

// Card is an issued payment card backed by a wallet. Purchases arrive
// via provider webhooks and debit the backing wallet.
type Card struct {
	ID             uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index"`
	WalletID       uuid.UUID        `json:"walletId" gorm:"type:uuid;not null;index"`
	Provider       CardProviderName `json:"provider" gorm:"type:varchar(20);not null"`
	ProviderCardID string           `json:"providerCardId" gorm:"type:varchar(255);uniqueIndex;not null"`
	NameOnCard     string           `json:"nameOnCard" gorm:"type:varchar(255)"`
	MaskedPAN      null.String      `json:"maskedPan,omitempty" gorm:"type:varchar(30)"`
	CardType       string           `json:"cardType" gorm:"type:varchar(20);default:'virtual'"`
	Brand          null.String      `json:"brand,omitempty" gorm:"type:varchar(20)"`
	Status         CardStatus       `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	IsFrozen       bool             `json:"isFrozen" gorm:"default:false"`
	TotalSpent     decimal.Decimal  `json:"totalSpent" gorm:"type:decimal(24,8);not null;default:0"`
	DailySpent     decimal.Decimal  `json:"dailySpent" gorm:"type:decimal(24,8);not null;default:0"`
	MonthlySpent   decimal.Decimal  `json:"monthlySpent" gorm:"type:decimal(24,8);not null;default:0"`
	LastUsedAt     *time.Time       `json:"lastUsedAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	DeletedAt      *time.Time       `json:"-" gorm:"index"`
}

// CreateCardInput represents input for issuing a card
type CreateCardInput struct {
	WalletID   uuid.UUID `json:"walletId" binding:"required"`
	NameOnCard string    `json:"nameOnCard" binding:"required"`
	CardType   string    `json:"cardType"`
}

// CardWebhookEvent is a normalized provider event. ExternalReference
// is the stable id used for idempotent replay matching.
type CardWebhookEvent struct {
	EventType         string
	ProviderCardID    string
	ExternalReference string
	Amount            decimal.Decimal
	CurrencyCode      string
	MerchantName      string
	MerchantCity      string
	TransactionType   TransactionType
	OccurredAt        time.Time
}
