package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// BillFeeModel determines how a provider's fee is computed
type BillFeeModel string

const (
	BillFeeFlat       BillFeeModel = "flat"
	BillFeePercentage BillFeeModel = "percentage"
	BillFeeNone       BillFeeModel = "none"
)

// BillProvider is catalog reference data for a bill payment provider
type BillProvider struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string              `json:"name" gorm:"type:varchar(255);not null"`
	Code         string              `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Category     string              `json:"category" gorm:"type:varchar(50);not null;index"`
	CurrencyID   uuid.UUID           `json:"currencyId" gorm:"type:uuid;not null"`
	FeeModel     BillFeeModel        `json:"feeModel" gorm:"type:varchar(20);not null;default:'none'"`
	FlatFee      decimal.Decimal     `json:"flatFee" gorm:"type:decimal(24,8);not null;default:0"`
	PercentFee   decimal.Decimal     `json:"percentFee" gorm:"type:decimal(8,4);not null;default:0"`
	FeeCap       decimal.NullDecimal `json:"feeCap,omitempty" gorm:"type:decimal(24,8)"`
	IsActive     bool                `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`

	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
}

// CalculateFee applies the provider's fee model to an amount
func (p *BillProvider) CalculateFee(amount decimal.Decimal) decimal.Decimal {
	switch p.FeeModel {
	case BillFeeFlat:
		return p.FlatFee
	case BillFeePercentage:
		fee := amount.Mul(p.PercentFee).Div(decimal.NewFromInt(100))
		if p.FeeCap.Valid && fee.GreaterThan(p.FeeCap.Decimal) {
			return p.FeeCap.Decimal
		}
		return fee
	default:
		return decimal.Zero
	}
}

// BillPackage is a purchasable bundle offered by a provider
type BillPackage struct {
	ID          uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	ProviderID  uuid.UUID           `json:"providerId" gorm:"type:uuid;not null;index"`
	Name        string              `json:"name" gorm:"type:varchar(255);not null"`
	Code        string              `json:"code" gorm:"type:varchar(50);not null"`
	Amount      decimal.NullDecimal `json:"amount,omitempty" gorm:"type:decimal(24,8)"`
	MinAmount   decimal.NullDecimal `json:"minAmount,omitempty" gorm:"type:decimal(24,8)"`
	MaxAmount   decimal.NullDecimal `json:"maxAmount,omitempty" gorm:"type:decimal(24,8)"`
	IsActive    bool                `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// BillPaymentStatus is the bill payment lifecycle state
type BillPaymentStatus string

const (
	BillStatusPending    BillPaymentStatus = "pending"
	BillStatusProcessing BillPaymentStatus = "processing"
	BillStatusCompleted  BillPaymentStatus = "completed"
	BillStatusFailed     BillPaymentStatus = "failed"
	BillStatusReversed   BillPaymentStatus = "reversed"
)

// BillPayment records one bill payment attempt. On provider failure
// the debited wallet is refunded in the same database transaction.
type BillPayment struct {
	ID                uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index"`
	WalletID          uuid.UUID         `json:"walletId" gorm:"type:uuid;not null"`
	ProviderID        uuid.UUID         `json:"providerId" gorm:"type:uuid;not null"`
	PackageID         *uuid.UUID        `json:"packageId,omitempty" gorm:"type:uuid"`
	TransactionID     *uuid.UUID        `json:"transactionId,omitempty" gorm:"type:uuid"`
	Status            BillPaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerID        string            `json:"customerId" gorm:"type:varchar(100);not null"`
	CustomerName      null.String       `json:"customerName,omitempty" gorm:"type:varchar(255)"`
	Amount            decimal.Decimal   `json:"amount" gorm:"type:decimal(24,8);not null"`
	Fee               decimal.Decimal   `json:"fee" gorm:"type:decimal(24,8);not null;default:0"`
	ProviderReference null.String       `json:"providerReference,omitempty" gorm:"type:varchar(255);index"`
	Token             null.String       `json:"token,omitempty" gorm:"type:varchar(255)"`
	TokenUnits        null.String       `json:"tokenUnits,omitempty" gorm:"type:varchar(50)"`
	FailureReason     null.String       `json:"failureReason,omitempty" gorm:"type:varchar(500)"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// BillBeneficiary is a saved customer id for repeat payments
type BillBeneficiary struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID  `json:"providerId" gorm:"type:uuid;not null"`
	CustomerID string     `json:"customerId" gorm:"type:varchar(100);not null"`
	Alias      string     `json:"alias" gorm:"type:varchar(100)"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"-" gorm:"index"`
}

// PayBillInput represents input for paying a bill
type PayBillInput struct {
	WalletID         uuid.UUID       `json:"walletId" binding:"required"`
	ProviderCode     string          `json:"providerCode" binding:"required"`
	PackageCode      string          `json:"packageCode"`
	CustomerID       string          `json:"customerId" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	SaveBeneficiary  bool            `json:"saveBeneficiary"`
	BeneficiaryAlias string          `json:"beneficiaryAlias"`
}
