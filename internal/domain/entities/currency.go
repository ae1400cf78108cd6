package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is reference data for a supported fiat or crypto currency.
// Exchange rates are expressed against USD and snapshotted into
// transaction metadata at execution time; later rate changes never
// alter completed transactions.
type Currency struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Code            string          `json:"code" gorm:"type:varchar(10);uniqueIndex;not null"`
	Name            string          `json:"name" gorm:"type:varchar(100)"`
	Symbol          string          `json:"symbol" gorm:"type:varchar(10)"`
	DecimalPlaces   int32           `json:"decimalPlaces" gorm:"not null;default:2"`
	ExchangeRateUSD decimal.Decimal `json:"exchangeRateUsd" gorm:"type:decimal(24,12);not null"`
	IsActive        bool            `json:"isActive" gorm:"default:true"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ConvertTo converts an amount in this currency to the target currency
// through USD. The result is rounded half-to-even at the target
// currency's decimal places; the pre-rounding value is also returned so
// callers can record it in transaction metadata.
func (c *Currency) ConvertTo(target *Currency, amount decimal.Decimal) (rounded, raw decimal.Decimal) {
	amountUSD := amount.Mul(c.ExchangeRateUSD)
	raw = amountUSD.Div(target.ExchangeRateUSD)
	return raw.RoundBank(target.DecimalPlaces), raw
}
