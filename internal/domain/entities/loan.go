package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// RepaymentFrequency determines installment cadence
type RepaymentFrequency string

const (
	FrequencyDaily     RepaymentFrequency = "daily"
	FrequencyWeekly    RepaymentFrequency = "weekly"
	FrequencyBiWeekly  RepaymentFrequency = "bi_weekly"
	FrequencyMonthly   RepaymentFrequency = "monthly"
	FrequencyQuarterly RepaymentFrequency = "quarterly"
)

// InstallmentCount returns the number of installments for a tenure in
// months under this frequency.
func (f RepaymentFrequency) InstallmentCount(tenureMonths int) int {
	switch f {
	case FrequencyDaily:
		return tenureMonths * 30
	case FrequencyWeekly:
		return tenureMonths * 4
	case FrequencyBiWeekly:
		return tenureMonths * 2
	case FrequencyQuarterly:
		n := tenureMonths / 3
		if n < 1 {
			n = 1
		}
		return n
	default:
		return tenureMonths
	}
}

// NextDueDate steps a due date forward by one installment period.
// Monthly and quarterly use calendar-relative offsets, the rest use
// fixed day counts.
func (f RepaymentFrequency) NextDueDate(from time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiWeekly:
		return from.AddDate(0, 0, 14)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// CollateralType classifies loan collateral
type CollateralType string

const (
	CollateralNone     CollateralType = "none"
	CollateralVehicle  CollateralType = "vehicle"
	CollateralProperty CollateralType = "property"
	CollateralSavings  CollateralType = "savings"
	CollateralOther    CollateralType = "other"
)

// LoanProduct is catalog reference data for a loan offering
type LoanProduct struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string          `json:"name" gorm:"type:varchar(255);not null"`
	Description        null.String     `json:"description,omitempty" gorm:"type:varchar(1000)"`
	CurrencyID         uuid.UUID       `json:"currencyId" gorm:"type:uuid;not null"`
	InterestRate       decimal.Decimal `json:"interestRate" gorm:"type:decimal(8,4);not null"`
	MinAmount          decimal.Decimal `json:"minAmount" gorm:"type:decimal(24,8);not null"`
	MaxAmount          decimal.Decimal `json:"maxAmount" gorm:"type:decimal(24,8);not null"`
	MinTenureMonths    int             `json:"minTenureMonths" gorm:"not null"`
	MaxTenureMonths    int             `json:"maxTenureMonths" gorm:"not null"`
	AllowedFrequencies string          `json:"allowedFrequencies" gorm:"type:varchar(255);not null;default:'monthly'"`
	MinCreditScore     int             `json:"minCreditScore" gorm:"not null;default:300"`
	MinAccountAgeDays  int             `json:"minAccountAgeDays" gorm:"not null;default:0"`
	RequiresCollateral bool            `json:"requiresCollateral" gorm:"default:false"`
	RequiresGuarantor  bool            `json:"requiresGuarantor" gorm:"default:false"`
	LateFeeRate        decimal.Decimal `json:"lateFeeRate" gorm:"type:decimal(8,4);not null;default:1"`
	IsActive           bool            `json:"isActive" gorm:"default:true"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
}

// AllowsFrequency checks the comma-separated allow list
func (p *LoanProduct) AllowsFrequency(f RepaymentFrequency) bool {
	for _, item := range strings.Split(p.AllowedFrequencies, ",") {
		if RepaymentFrequency(strings.TrimSpace(item)) == f {
			return true
		}
	}
	return false
}

// LoanStatus is the application lifecycle state
type LoanStatus string

const (
	LoanStatusPending     LoanStatus = "pending"
	LoanStatusUnderReview LoanStatus = "under_review"
	LoanStatusApproved    LoanStatus = "approved"
	LoanStatusRejected    LoanStatus = "rejected"
	LoanStatusDisbursed   LoanStatus = "disbursed"
	LoanStatusActive      LoanStatus = "active"
	LoanStatusPaid        LoanStatus = "paid"
	LoanStatusOverdue     LoanStatus = "overdue"
	LoanStatusDefaulted   LoanStatus = "defaulted"
	LoanStatusCancelled   LoanStatus = "cancelled"
)

// IsOpen reports whether the loan still blocks a new application. A
// user may hold at most one non-terminal loan at a time.
func (s LoanStatus) IsOpen() bool {
	switch s {
	case LoanStatusPending, LoanStatusUnderReview, LoanStatusApproved,
		LoanStatusDisbursed, LoanStatusActive, LoanStatusOverdue:
		return true
	}
	return false
}

// LoanApplication tracks a loan from application through payoff
type LoanApplication struct {
	ID                uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID           `json:"userId" gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID           `json:"productId" gorm:"type:uuid;not null"`
	WalletID          uuid.UUID           `json:"walletId" gorm:"type:uuid;not null"`
	Status            LoanStatus          `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Amount            decimal.Decimal     `json:"amount" gorm:"type:decimal(24,8);not null"`
	ApprovedAmount    decimal.NullDecimal `json:"approvedAmount,omitempty" gorm:"type:decimal(24,8)"`
	InterestRate      decimal.Decimal     `json:"interestRate" gorm:"type:decimal(8,4);not null"`
	TenureMonths      int                 `json:"tenureMonths" gorm:"not null"`
	Frequency         RepaymentFrequency  `json:"frequency" gorm:"type:varchar(20);not null;default:'monthly'"`
	Purpose           null.String         `json:"purpose,omitempty" gorm:"type:varchar(500)"`
	TotalInterest     decimal.Decimal     `json:"totalInterest" gorm:"type:decimal(24,8);not null;default:0"`
	TotalRepayable    decimal.Decimal     `json:"totalRepayable" gorm:"type:decimal(24,8);not null;default:0"`
	InstallmentAmount decimal.Decimal     `json:"installmentAmount" gorm:"type:decimal(24,8);not null;default:0"`
	AmountRepaid      decimal.Decimal     `json:"amountRepaid" gorm:"type:decimal(24,8);not null;default:0"`
	CollateralType    CollateralType      `json:"collateralType" gorm:"type:varchar(20);default:'none'"`
	CollateralValue   decimal.NullDecimal `json:"collateralValue,omitempty" gorm:"type:decimal(24,8)"`
	GuarantorName     null.String         `json:"guarantorName,omitempty" gorm:"type:varchar(255)"`
	GuarantorPhone    null.String         `json:"guarantorPhone,omitempty" gorm:"type:varchar(50)"`
	GuarantorEmail    null.String         `json:"guarantorEmail,omitempty" gorm:"type:varchar(255)"`
	RejectionReason   null.String         `json:"rejectionReason,omitempty" gorm:"type:varchar(500)"`
	ApprovedAt        *time.Time          `json:"approvedAt,omitempty"`
	DisbursedAt       *time.Time          `json:"disbursedAt,omitempty"`
	PaidAt            *time.Time          `json:"paidAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`

	Product *LoanProduct `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// ScheduleStatus is the state of a single installment
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "pending"
	ScheduleStatusPartial ScheduleStatus = "partial"
	ScheduleStatusPaid    ScheduleStatus = "paid"
	ScheduleStatusOverdue ScheduleStatus = "overdue"
)

// LoanRepaymentSchedule is one installment row, unique per
// (loan, installment_number)
type LoanRepaymentSchedule struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	LoanID            uuid.UUID       `json:"loanId" gorm:"type:uuid;not null;index:idx_loan_installment,unique"`
	InstallmentNumber int             `json:"installmentNumber" gorm:"not null;index:idx_loan_installment,unique"`
	DueDate           time.Time       `json:"dueDate" gorm:"not null;index"`
	PrincipalAmount   decimal.Decimal `json:"principalAmount" gorm:"type:decimal(24,8);not null"`
	InterestAmount    decimal.Decimal `json:"interestAmount" gorm:"type:decimal(24,8);not null"`
	TotalAmount       decimal.Decimal `json:"totalAmount" gorm:"type:decimal(24,8);not null"`
	AmountPaid        decimal.Decimal `json:"amountPaid" gorm:"type:decimal(24,8);not null;default:0"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount" gorm:"type:decimal(24,8);not null"`
	LateFee           decimal.Decimal `json:"lateFee" gorm:"type:decimal(24,8);not null;default:0"`
	Status            ScheduleStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// LoanRepayment records one repayment allocated to a schedule row.
// principal_paid + interest_paid + late_fee_paid = amount.
type LoanRepayment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	LoanID        uuid.UUID       `json:"loanId" gorm:"type:uuid;not null;index"`
	ScheduleID    uuid.UUID       `json:"scheduleId" gorm:"type:uuid;not null"`
	TransactionID *uuid.UUID      `json:"transactionId,omitempty" gorm:"type:uuid"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(24,8);not null"`
	PrincipalPaid decimal.Decimal `json:"principalPaid" gorm:"type:decimal(24,8);not null"`
	InterestPaid  decimal.Decimal `json:"interestPaid" gorm:"type:decimal(24,8);not null"`
	LateFeePaid   decimal.Decimal `json:"lateFeePaid" gorm:"type:decimal(24,8);not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// RiskLevel bands a credit score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// CreditScore is a FICO-style 300-850 summary computed from in-system
// borrowing history
type CreditScore struct {
	ID                     uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                 uuid.UUID   `json:"userId" gorm:"type:uuid;not null;index"`
	Score                  int         `json:"score" gorm:"not null"`
	PaymentHistoryScore    int         `json:"paymentHistoryScore" gorm:"not null"`
	CreditUtilizationScore int         `json:"creditUtilizationScore" gorm:"not null"`
	AccountAgeScore        int         `json:"accountAgeScore" gorm:"not null"`
	LoanHistoryScore       int         `json:"loanHistoryScore" gorm:"not null"`
	RiskLevel              RiskLevel   `json:"riskLevel" gorm:"type:varchar(20);not null"`
	Recommendations        null.String `json:"recommendations,omitempty" gorm:"type:varchar(2000)"`
	ComputedAt             time.Time   `json:"computedAt"`
	CreatedAt              time.Time   `json:"createdAt"`
}

// LoanApplicationInput represents input for applying for a loan
type LoanApplicationInput struct {
	ProductID       uuid.UUID          `json:"productId" binding:"required"`
	WalletID        uuid.UUID          `json:"walletId" binding:"required"`
	Amount          decimal.Decimal    `json:"amount" binding:"required"`
	TenureMonths    int                `json:"tenureMonths" binding:"required"`
	Frequency       RepaymentFrequency `json:"frequency"`
	Purpose         string             `json:"purpose"`
	CollateralType  CollateralType     `json:"collateralType"`
	CollateralValue decimal.Decimal    `json:"collateralValue"`
	GuarantorName   string             `json:"guarantorName"`
	GuarantorPhone  string             `json:"guarantorPhone"`
	GuarantorEmail  string             `json:"guarantorEmail"`
}

// LoanSummary aggregates a user's borrowing position
type LoanSummary struct {
	ActiveLoan       *LoanApplication `json:"activeLoan,omitempty"`
	TotalBorrowed    decimal.Decimal  `json:"totalBorrowed"`
	TotalRepaid      decimal.Decimal  `json:"totalRepaid"`
	OutstandingDebt  decimal.Decimal  `json:"outstandingDebt"`
	CompletedLoans   int              `json:"completedLoans"`
	CreditScore      int              `json:"creditScore"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
	NextDueDate      *time.Time       `json:"nextDueDate,omitempty"`
	NextDueAmount    decimal.Decimal  `json:"nextDueAmount"`
}
