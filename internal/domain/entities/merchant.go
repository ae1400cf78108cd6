package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// PaymentLinkStatus is the link lifecycle state
type PaymentLinkStatus string

const (
	LinkStatusActive    PaymentLinkStatus = "active"
	LinkStatusCompleted PaymentLinkStatus = "completed"
	LinkStatusExpired   PaymentLinkStatus = "expired"
	LinkStatusDisabled  PaymentLinkStatus = "disabled"
)

// PaymentLink is a shareable collection point for a merchant wallet
type PaymentLink struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantUserID uuid.UUID           `json:"merchantUserId" gorm:"type:uuid;not null;index"`
	WalletID       uuid.UUID           `json:"walletId" gorm:"type:uuid;not null"`
	Slug           string              `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Title          string              `json:"title" gorm:"type:varchar(255);not null"`
	Description    null.String         `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Status         PaymentLinkStatus   `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	// no column default: GORM would drop an explicit false on insert
	IsAmountFixed  bool                `json:"isAmountFixed"`
	Amount         decimal.NullDecimal `json:"amount,omitempty" gorm:"type:decimal(24,8)"`
	MinAmount      decimal.NullDecimal `json:"minAmount,omitempty" gorm:"type:decimal(24,8)"`
	MaxAmount      decimal.NullDecimal `json:"maxAmount,omitempty" gorm:"type:decimal(24,8)"`
	IsSingleUse    bool                `json:"isSingleUse" gorm:"default:false"`
	PaymentsCount  int                 `json:"paymentsCount" gorm:"not null;default:0"`
	TotalCollected decimal.Decimal     `json:"totalCollected" gorm:"type:decimal(24,8);not null;default:0"`
	ExpiresAt      *time.Time          `json:"expiresAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// InvoiceStatus is the invoice lifecycle state
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// Invoice is an itemized bill issued by a merchant
type Invoice struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantUserID uuid.UUID       `json:"merchantUserId" gorm:"type:uuid;not null;index"`
	WalletID       uuid.UUID       `json:"walletId" gorm:"type:uuid;not null"`
	InvoiceNumber  string          `json:"invoiceNumber" gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerEmail  string          `json:"customerEmail" gorm:"type:varchar(255)"`
	CustomerName   string          `json:"customerName" gorm:"type:varchar(255)"`
	Status         InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(24,8);not null"`
	AmountPaid     decimal.Decimal `json:"amountPaid" gorm:"type:decimal(24,8);not null;default:0"`
	AmountDue      decimal.Decimal `json:"amountDue" gorm:"type:decimal(24,8);not null"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	SentAt         *time.Time      `json:"sentAt,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	Items []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// InvoiceItem is one invoice line
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `json:"invoiceId" gorm:"type:uuid;not null;index"`
	Description string          `json:"description" gorm:"type:varchar(500);not null"`
	Quantity    int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(24,8);not null"`
	Total       decimal.Decimal `json:"total" gorm:"type:decimal(24,8);not null"`
}

// MerchantPayment binds a collected payment to its link or invoice and
// the underlying transaction
type MerchantPayment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	LinkID        *uuid.UUID      `json:"linkId,omitempty" gorm:"type:uuid;index"`
	InvoiceID     *uuid.UUID      `json:"invoiceId,omitempty" gorm:"type:uuid;index"`
	TransactionID uuid.UUID       `json:"transactionId" gorm:"type:uuid;not null"`
	PayerUserID   uuid.UUID       `json:"payerUserId" gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(24,8);not null"`
	Fee           decimal.Decimal `json:"fee" gorm:"type:decimal(24,8);not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// MerchantAPIKey authenticates server-to-server merchant calls
type MerchantAPIKey struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantUserID uuid.UUID   `json:"merchantUserId" gorm:"type:uuid;not null;index"`
	Name           string      `json:"name" gorm:"type:varchar(100);not null"`
	KeyPrefix      string      `json:"keyPrefix" gorm:"type:varchar(12);not null"`
	KeyHash        string      `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	LastUsedAt     *time.Time  `json:"lastUsedAt,omitempty"`
	RevokedAt      *time.Time  `json:"revokedAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// CreatePaymentLinkInput represents input for creating a payment link
type CreatePaymentLinkInput struct {
	WalletID      uuid.UUID       `json:"walletId" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	IsAmountFixed bool            `json:"isAmountFixed"`
	Amount        decimal.Decimal `json:"amount"`
	MinAmount     decimal.Decimal `json:"minAmount"`
	MaxAmount     decimal.Decimal `json:"maxAmount"`
	IsSingleUse   bool            `json:"isSingleUse"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
}

// PayLinkInput represents input for paying a payment link
type PayLinkInput struct {
	WalletID uuid.UUID       `json:"walletId" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	PIN      string          `json:"pin"`
}

// CreateInvoiceInput represents input for creating an invoice
type CreateInvoiceInput struct {
	WalletID      uuid.UUID          `json:"walletId" binding:"required"`
	CustomerEmail string             `json:"customerEmail" binding:"required,email"`
	CustomerName  string             `json:"customerName"`
	DueDate       *time.Time         `json:"dueDate"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1"`
}

// InvoiceItemInput is one invoice line in the create request
type InvoiceItemInput struct {
	Description string          `json:"description" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}
