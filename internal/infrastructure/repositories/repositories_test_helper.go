package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/domain/entities"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, db.AutoMigrate(
		&entities.Currency{},
		&entities.User{},
		&entities.Wallet{},
		&entities.Transaction{},
		&entities.TransactionFee{},
		&entities.TransactionHold{},
		&entities.TransactionLog{},
		&entities.LoanProduct{},
		&entities.LoanApplication{},
		&entities.LoanRepaymentSchedule{},
		&entities.LoanRepayment{},
		&entities.CreditScore{},
		&entities.InvestmentProduct{},
		&entities.Investment{},
		&entities.InvestmentReturn{},
		&entities.InvestmentPortfolio{},
		&entities.Card{},
		&entities.BillProvider{},
		&entities.BillPackage{},
		&entities.BillPayment{},
		&entities.BillBeneficiary{},
		&entities.PaymentLink{},
		&entities.Invoice{},
		&entities.InvoiceItem{},
		&entities.MerchantPayment{},
		&entities.MerchantAPIKey{},
		&entities.KYCVerification{},
		&entities.Notification{},
		&entities.NotificationPreference{},
	), "migrate schema")
	return db
}

func seedCurrency(t *testing.T, db *gorm.DB, code string, rateUSD string, places int32) *entities.Currency {
	t.Helper()
	c := &entities.Currency{
		ID:              uuid.New(),
		Code:            code,
		Name:            code,
		DecimalPlaces:   places,
		ExchangeRateUSD: decimal.RequireFromString(rateUSD),
		IsActive:        true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, db.Create(c).Error, "seed currency %s", code)
	return c
}

func seedUser(t *testing.T, db *gorm.DB, email string) *entities.User {
	t.Helper()
	u := &entities.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "Ada",
		LastName:  "Obi",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(u).Error, "seed user %s", email)
	return u
}

func seedWallet(t *testing.T, db *gorm.DB, userID, currencyID uuid.UUID, balance string) *entities.Wallet {
	t.Helper()
	amount := decimal.RequireFromString(balance)
	w := &entities.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		CurrencyID:       currencyID,
		Type:             entities.WalletTypeMain,
		Status:           entities.WalletStatusActive,
		Balance:          amount,
		AvailableBalance: amount,
		PendingBalance:   decimal.Zero,
		LastDailyReset:   time.Now(),
		LastMonthlyReset: time.Now(),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, db.Create(w).Error, "seed wallet")
	return w
}
