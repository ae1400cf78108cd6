package usecases

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/config"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/internal/infrastructure/providers"
	"github.com/zichdan/paycore/internal/infrastructure/repositories"
	"github.com/zichdan/paycore/pkg/jwt"
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

// testEnv wires the full usecase graph over an in-memory database
// with the in-process provider simulator
type testEnv struct {
	db  *gorm.DB
	uow domainRepos.UnitOfWork

	walletRepo    *repositories.WalletRepository
	currencyRepo  *repositories.CurrencyRepository
	userRepo      *repositories.UserRepository
	txnRepo       *repositories.TransactionRepository
	loanRepo      *repositories.LoanRepository
	loanProducts  *repositories.LoanProductRepository
	scoreRepo     *repositories.CreditScoreRepository
	investRepo    *repositories.InvestmentRepository
	investProds   *repositories.InvestmentProductRepository
	billRepo      *repositories.BillRepository
	cardRepo      *repositories.CardRepository
	merchantRepo  *repositories.MerchantRepository
	kycRepo       *repositories.KYCRepository
	notifRepo     *repositories.NotificationRepository

	jwtService  *jwt.Service
	notifier    *NotificationUsecase
	ledger      *LedgerUsecase
	txns        *TransactionUsecase
	transfers   *TransferUsecase
	scores      *CreditScoreUsecase
	loans       *LoanUsecase
	investments *InvestmentUsecase
	bills       *BillUsecase
	cards       *CardUsecase
	merchants   *MerchantUsecase
	withdrawals *WithdrawalUsecase
	compliance  *ComplianceUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFactory(t, providers.NewFactory(config.ProvidersConfig{
		UseInternal: true,
		Timeout:     5 * time.Second,
	}))
}

func newTestEnvWithFactory(t *testing.T, factory *providers.Factory) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:           db,
		uow:          repositories.NewUnitOfWork(db),
		walletRepo:   repositories.NewWalletRepository(db),
		currencyRepo: repositories.NewCurrencyRepository(db),
		userRepo:     repositories.NewUserRepository(db),
		txnRepo:      repositories.NewTransactionRepository(db),
		loanRepo:     repositories.NewLoanRepository(db),
		loanProducts: repositories.NewLoanProductRepository(db),
		scoreRepo:    repositories.NewCreditScoreRepository(db),
		investRepo:   repositories.NewInvestmentRepository(db),
		investProds:  repositories.NewInvestmentProductRepository(db),
		billRepo:     repositories.NewBillRepository(db),
		cardRepo:     repositories.NewCardRepository(db),
		merchantRepo: repositories.NewMerchantRepository(db),
		kycRepo:      repositories.NewKYCRepository(db),
		notifRepo:    repositories.NewNotificationRepository(db),
	}
	env.jwtService = jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour, 90*24*time.Hour)
	env.notifier = NewNotificationUsecase(env.notifRepo, nil, nil)
	env.ledger = NewLedgerUsecase(env.walletRepo, env.currencyRepo, env.uow)
	env.txns = NewTransactionUsecase(env.txnRepo, env.walletRepo, env.ledger, env.uow, 24*time.Hour)
	env.compliance = NewComplianceUsecase(env.kycRepo, env.ledger, env.notifier, nil, nil, "NGN")
	env.transfers = NewTransferUsecase(env.walletRepo, env.currencyRepo, env.userRepo, env.txnRepo, env.ledger, env.txns, env.notifier, env.compliance, env.jwtService, env.uow)
	env.scores = NewCreditScoreUsecase(env.scoreRepo, env.loanRepo, env.userRepo)
	env.loans = NewLoanUsecase(env.loanRepo, env.loanProducts, env.walletRepo, env.currencyRepo, env.userRepo, env.txnRepo, env.ledger, env.txns, env.scores, env.notifier, env.uow)
	env.investments = NewInvestmentUsecase(env.investRepo, env.investProds, env.walletRepo, env.currencyRepo, env.ledger, env.txns, env.notifier, env.uow)
	env.bills = NewBillUsecase(env.billRepo, env.walletRepo, env.currencyRepo, env.ledger, env.txns, env.notifier, factory, env.uow)
	env.cards = NewCardUsecase(env.cardRepo, env.walletRepo, env.currencyRepo, env.userRepo, env.txnRepo, env.ledger, env.txns, env.notifier, factory, env.uow)
	env.merchants = NewMerchantUsecase(env.merchantRepo, env.walletRepo, env.currencyRepo, env.ledger, env.txns, env.notifier, env.uow)
	env.withdrawals = NewWithdrawalUsecase(env.walletRepo, env.currencyRepo, env.txnRepo, env.ledger, env.txns, env.compliance, factory, env.uow)
	return env
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

// reloadWallet fetches the current row state after a usecase mutation
func reloadWallet(t *testing.T, db *gorm.DB, id uuid.UUID) *entities.Wallet {
	t.Helper()
	var w entities.Wallet
	require.NoError(t, db.First(&w, "id = ?", id).Error, "reload wallet")
	return &w
}

// seedApprovedKYC records an approved verification so compliance
// gates pass for the user
func seedApprovedKYC(t *testing.T, db *gorm.DB, userID uuid.UUID, level entities.KYCLevel) {
	t.Helper()
	now := time.Now()
	v := &entities.KYCVerification{
		ID:         uuid.New(),
		UserID:     userID,
		Level:      level,
		Status:     entities.KYCStatusApproved,
		ApprovedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, db.Create(v).Error, "seed kyc verification")
}
