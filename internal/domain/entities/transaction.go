package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// TransactionType enumerates the kinds of value movement
type TransactionType string

const (
	TxnTypeTransfer         TransactionType = "transfer"
	TxnTypeDeposit          TransactionType = "deposit"
	TxnTypeWithdrawal       TransactionType = "withdrawal"
	TxnTypePayment          TransactionType = "payment"
	TxnTypeRefund           TransactionType = "refund"
	TxnTypeFee              TransactionType = "fee"
	TxnTypeReversal         TransactionType = "reversal"
	TxnTypeCardPurchase     TransactionType = "card_purchase"
	TxnTypeCardFunding      TransactionType = "card_funding"
	TxnTypeCardWithdrawal   TransactionType = "card_withdrawal"
	TxnTypeBillPayment      TransactionType = "bill_payment"
	TxnTypeLoanDisbursement TransactionType = "loan_disbursement"
	TxnTypeLoanRepayment    TransactionType = "loan_repayment"
	TxnTypeInvestment       TransactionType = "investment"
	TxnTypeInvestmentReturn TransactionType = "investment_return"
	TxnTypeInvestmentPayout TransactionType = "investment_payout"
	TxnTypeMerchantPayment  TransactionType = "merchant_payment"
	TxnTypeInvoicePayment   TransactionType = "invoice_payment"
)

// TransactionStatus is the lifecycle state of a transaction record
type TransactionStatus string

const (
	TxnStatusPending    TransactionStatus = "pending"
	TxnStatusProcessing TransactionStatus = "processing"
	TxnStatusCompleted  TransactionStatus = "completed"
	TxnStatusFailed     TransactionStatus = "failed"
	TxnStatusCancelled  TransactionStatus = "cancelled"
	TxnStatusReversed   TransactionStatus = "reversed"
	TxnStatusExpired    TransactionStatus = "expired"
)

// txnTransitions defines the monotonic status machine. Re-entering a
// prior state is forbidden; every allowed transition is recorded in a
// TransactionLog row.
var txnTransitions = map[TransactionStatus][]TransactionStatus{
	TxnStatusPending:    {TxnStatusProcessing, TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled, TxnStatusExpired},
	TxnStatusProcessing: {TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled},
	TxnStatusCompleted:  {TxnStatusReversed},
	TxnStatusFailed:     {TxnStatusReversed},
}

// CanTransition reports whether moving from -> to is allowed
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	for _, next := range txnTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transition
// other than reversal
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TxnStatusCompleted, TxnStatusFailed, TxnStatusCancelled, TxnStatusReversed, TxnStatusExpired:
		return true
	}
	return false
}

// TransactionDirection classifies the movement relative to the system
type TransactionDirection string

const (
	DirectionInbound  TransactionDirection = "inbound"
	DirectionOutbound TransactionDirection = "outbound"
	DirectionInternal TransactionDirection = "internal"
)

// Transaction is the immutable record paired with every balance
// mutation. Balance snapshots are written once when the transaction
// completes and never updated afterwards.
type Transaction struct {
	ID                uuid.UUID            `json:"id" gorm:"type:uuid;primaryKey"`
	Type              TransactionType      `json:"type" gorm:"type:varchar(30);not null;index"`
	Status            TransactionStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	Direction         TransactionDirection `json:"direction" gorm:"type:varchar(10);not null"`
	Amount            decimal.Decimal      `json:"amount" gorm:"type:decimal(24,8);not null"`
	FeeAmount         decimal.Decimal      `json:"feeAmount" gorm:"type:decimal(24,8);not null;default:0"`
	NetAmount         decimal.Decimal      `json:"netAmount" gorm:"type:decimal(24,8);not null"`
	CurrencyCode      string               `json:"currencyCode" gorm:"type:varchar(10)"`
	FromUserID        *uuid.UUID           `json:"fromUserId,omitempty" gorm:"type:uuid;index"`
	FromWalletID      *uuid.UUID           `json:"fromWalletId,omitempty" gorm:"type:uuid;index"`
	ToUserID          *uuid.UUID           `json:"toUserId,omitempty" gorm:"type:uuid;index"`
	ToWalletID        *uuid.UUID           `json:"toWalletId,omitempty" gorm:"type:uuid;index"`
	FromBalanceBefore decimal.NullDecimal  `json:"fromBalanceBefore,omitempty" gorm:"type:decimal(24,8)"`
	FromBalanceAfter  decimal.NullDecimal  `json:"fromBalanceAfter,omitempty" gorm:"type:decimal(24,8)"`
	ToBalanceBefore   decimal.NullDecimal  `json:"toBalanceBefore,omitempty" gorm:"type:decimal(24,8)"`
	ToBalanceAfter    decimal.NullDecimal  `json:"toBalanceAfter,omitempty" gorm:"type:decimal(24,8)"`
	Reference         string               `json:"reference" gorm:"type:varchar(28);uniqueIndex;not null"`
	ExternalReference null.String          `json:"externalReference,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Description       null.String          `json:"description,omitempty" gorm:"type:varchar(500)"`
	Metadata          null.String          `json:"metadata,omitempty" gorm:"type:jsonb"`
	CardID            *uuid.UUID           `json:"cardId,omitempty" gorm:"type:uuid;index"`
	BillPaymentID     *uuid.UUID           `json:"billPaymentId,omitempty" gorm:"type:uuid"`
	LoanID            *uuid.UUID           `json:"loanId,omitempty" gorm:"type:uuid"`
	InvestmentID      *uuid.UUID           `json:"investmentId,omitempty" gorm:"type:uuid"`
	ReversalOfID      *uuid.UUID           `json:"reversalOfId,omitempty" gorm:"type:uuid"`
	MerchantName      null.String          `json:"merchantName,omitempty" gorm:"type:varchar(255)"`
	InitiatedAt       time.Time            `json:"initiatedAt"`
	ProcessedAt       *time.Time           `json:"processedAt,omitempty"`
	CompletedAt       *time.Time           `json:"completedAt,omitempty"`
	FailedAt          *time.Time           `json:"failedAt,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`

	// Joins
	Fees []TransactionFee `json:"fees,omitempty" gorm:"foreignKey:TransactionID"`
}

// TransactionFee is one constituent fee line of a transaction. The sum
// of fee rows equals the parent's fee_amount.
type TransactionFee struct {
	ID            uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID           `json:"transactionId" gorm:"type:uuid;not null;index"`
	FeeType       string              `json:"feeType" gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal     `json:"amount" gorm:"type:decimal(24,8);not null"`
	Percentage    decimal.NullDecimal `json:"percentage,omitempty" gorm:"type:decimal(8,4)"`
	Description   string              `json:"description" gorm:"type:varchar(255)"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// TransactionHold tracks funds reserved for a pending transaction.
// Remaining hold = amount_held - released_amount.
type TransactionHold struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID  uuid.UUID       `json:"transactionId" gorm:"type:uuid;uniqueIndex;not null"`
	WalletID       uuid.UUID       `json:"walletId" gorm:"type:uuid;not null;index"`
	AmountHeld     decimal.Decimal `json:"amountHeld" gorm:"type:decimal(24,8);not null"`
	ReleasedAmount decimal.Decimal `json:"releasedAmount" gorm:"type:decimal(24,8);not null;default:0"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Remaining returns the outstanding hold amount
func (h *TransactionHold) Remaining() decimal.Decimal {
	return h.AmountHeld.Sub(h.ReleasedAmount)
}

// TransactionLog is the append-only audit trail of status transitions
type TransactionLog struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionID  uuid.UUID         `json:"transactionId" gorm:"type:uuid;not null;index"`
	PreviousStatus TransactionStatus `json:"previousStatus" gorm:"type:varchar(20)"`
	NewStatus      TransactionStatus `json:"newStatus" gorm:"type:varchar(20);not null"`
	Actor          string            `json:"actor" gorm:"type:varchar(100)"`
	Reason         null.String       `json:"reason,omitempty" gorm:"type:varchar(500)"`
	Metadata       null.String       `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// TransactionStats is an aggregate row for the stats endpoint
type TransactionStats struct {
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Type      TransactionType
	Status    TransactionStatus
	WalletID  *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}
