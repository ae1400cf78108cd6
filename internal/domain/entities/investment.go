package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// PayoutFrequency determines when investment interest is paid out
type PayoutFrequency string

const (
	PayoutAtMaturity   PayoutFrequency = "at_maturity"
	PayoutMonthly      PayoutFrequency = "monthly"
	PayoutQuarterly    PayoutFrequency = "quarterly"
	PayoutSemiAnnually PayoutFrequency = "semi_annually"
	PayoutAnnually     PayoutFrequency = "annually"
)

// IntervalDays returns the payout interval in days, or 0 for
// at-maturity products.
func (f PayoutFrequency) IntervalDays() int {
	switch f {
	case PayoutMonthly:
		return 30
	case PayoutQuarterly:
		return 90
	case PayoutSemiAnnually:
		return 180
	case PayoutAnnually:
		return 365
	default:
		return 0
	}
}

// InvestmentProduct is catalog reference data for an investment
// offering. slots_taken is contended on creation/maturity and must be
// mutated under row lock inside the investment transaction.
type InvestmentProduct struct {
	ID                      uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name                    string          `json:"name" gorm:"type:varchar(255);not null"`
	Description             null.String     `json:"description,omitempty" gorm:"type:varchar(1000)"`
	CurrencyID              uuid.UUID       `json:"currencyId" gorm:"type:uuid;not null"`
	InterestRate            decimal.Decimal `json:"interestRate" gorm:"type:decimal(8,4);not null"`
	MinAmount               decimal.Decimal `json:"minAmount" gorm:"type:decimal(24,8);not null"`
	MaxAmount               decimal.Decimal `json:"maxAmount" gorm:"type:decimal(24,8);not null"`
	MinDurationDays         int             `json:"minDurationDays" gorm:"not null"`
	MaxDurationDays         int             `json:"maxDurationDays" gorm:"not null"`
	PayoutFrequency         PayoutFrequency `json:"payoutFrequency" gorm:"type:varchar(20);not null;default:'at_maturity'"`
	EarlyLiquidationAllowed bool            `json:"earlyLiquidationAllowed" gorm:"default:false"`
	EarlyLiquidationPenalty decimal.Decimal `json:"earlyLiquidationPenalty" gorm:"type:decimal(8,4);not null;default:0"`
	AutoRenewalAllowed      bool            `json:"autoRenewalAllowed" gorm:"default:false"`
	TotalSlots              int             `json:"totalSlots" gorm:"not null;default:0"`
	SlotsTaken              int             `json:"slotsTaken" gorm:"not null;default:0"`
	IsActive                bool            `json:"isActive" gorm:"default:true"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`

	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
}

// HasSlot reports whether another investment can be created.
// TotalSlots of 0 means unlimited.
func (p *InvestmentProduct) HasSlot() bool {
	return p.TotalSlots == 0 || p.SlotsTaken < p.TotalSlots
}

// InvestmentStatus is the investment lifecycle state
type InvestmentStatus string

const (
	InvestmentStatusActive     InvestmentStatus = "active"
	InvestmentStatusMatured    InvestmentStatus = "matured"
	InvestmentStatusLiquidated InvestmentStatus = "liquidated"
	InvestmentStatusRenewed    InvestmentStatus = "renewed"
)

// Investment is a principal placement against a product
type Investment struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID           `json:"userId" gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID           `json:"productId" gorm:"type:uuid;not null"`
	WalletID           uuid.UUID           `json:"walletId" gorm:"type:uuid;not null"`
	Status             InvestmentStatus    `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	Principal          decimal.Decimal     `json:"principal" gorm:"type:decimal(24,8);not null"`
	InterestRate       decimal.Decimal     `json:"interestRate" gorm:"type:decimal(8,4);not null"`
	DurationDays       int                 `json:"durationDays" gorm:"not null"`
	ExpectedReturns    decimal.Decimal     `json:"expectedReturns" gorm:"type:decimal(24,8);not null"`
	ActualReturns      decimal.Decimal     `json:"actualReturns" gorm:"type:decimal(24,8);not null;default:0"`
	PenaltyAmount      decimal.NullDecimal `json:"penaltyAmount,omitempty" gorm:"type:decimal(24,8)"`
	StartDate          time.Time           `json:"startDate" gorm:"not null"`
	MaturityDate       time.Time           `json:"maturityDate" gorm:"not null;index"`
	ActualMaturityDate *time.Time          `json:"actualMaturityDate,omitempty"`
	RenewedFromID      *uuid.UUID          `json:"renewedFromId,omitempty" gorm:"type:uuid"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`

	Product *InvestmentProduct `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// InvestmentReturn is one scheduled periodic payout
type InvestmentReturn struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	InvestmentID uuid.UUID       `json:"investmentId" gorm:"type:uuid;not null;index"`
	PayoutNumber int             `json:"payoutNumber" gorm:"not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(24,8);not null"`
	PayoutDate   time.Time       `json:"payoutDate" gorm:"not null;index"`
	IsPaid       bool            `json:"isPaid" gorm:"default:false;index"`
	PaidAt       *time.Time      `json:"paidAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// InvestmentPortfolio is a denormalized per-user summary kept
// consistent by writes
type InvestmentPortfolio struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID       `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	TotalInvested     decimal.Decimal `json:"totalInvested" gorm:"type:decimal(24,8);not null;default:0"`
	TotalReturns      decimal.Decimal `json:"totalReturns" gorm:"type:decimal(24,8);not null;default:0"`
	ActiveInvestments int             `json:"activeInvestments" gorm:"not null;default:0"`
	MaturedCount      int             `json:"maturedCount" gorm:"not null;default:0"`
	LiquidatedCount   int             `json:"liquidatedCount" gorm:"not null;default:0"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// CreateInvestmentInput represents input for creating an investment
type CreateInvestmentInput struct {
	ProductID    uuid.UUID       `json:"productId" binding:"required"`
	WalletID     uuid.UUID       `json:"walletId" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	DurationDays int             `json:"durationDays" binding:"required"`
}
