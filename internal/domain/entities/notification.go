package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// NotificationEventType is a typed business event fanned out by the
// dispatcher
type NotificationEventType string

const (
	EventKYCApproved        NotificationEventType = "KYC_APPROVED"
	EventWalletCreated      NotificationEventType = "WALLET_CREATED"
	EventTransferSuccess    NotificationEventType = "TRANSFER_SUCCESS"
	EventPaymentSuccess     NotificationEventType = "PAYMENT_SUCCESS"
	EventPaymentReceived    NotificationEventType = "PAYMENT_RECEIVED"
	EventLoanApproved       NotificationEventType = "LOAN_APPROVED"
	EventLoanDisbursed      NotificationEventType = "LOAN_DISBURSED"
	EventLoanRepayment      NotificationEventType = "LOAN_REPAYMENT"
	EventInvestmentCreated  NotificationEventType = "INVESTMENT_CREATED"
	EventInvestmentMatured  NotificationEventType = "INVESTMENT_MATURED"
	EventCardIssued         NotificationEventType = "CARD_ISSUED"
	EventBillPaymentSuccess NotificationEventType = "BILL_PAYMENT_SUCCESS"
)

// NotificationChannel is a delivery channel
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
	ChannelPush  NotificationChannel = "push"
	ChannelEmail NotificationChannel = "email"
)

// NotificationPriority orders in-app display
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is the in-app record
type Notification struct {
	ID                uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID             `json:"userId" gorm:"type:uuid;not null;index"`
	EventType         NotificationEventType `json:"eventType" gorm:"type:varchar(50);not null"`
	Title             string                `json:"title" gorm:"type:varchar(255);not null"`
	Message           string                `json:"message" gorm:"type:varchar(1000);not null"`
	Priority          NotificationPriority  `json:"priority" gorm:"type:varchar(10);not null;default:'normal'"`
	IsRead            bool                  `json:"isRead" gorm:"default:false;index"`
	RelatedObjectType null.String           `json:"relatedObjectType,omitempty" gorm:"type:varchar(50)"`
	RelatedObjectID   *uuid.UUID            `json:"relatedObjectId,omitempty" gorm:"type:uuid"`
	ActionURL         null.String           `json:"actionUrl,omitempty" gorm:"type:varchar(500)"`
	ReadAt            *time.Time            `json:"readAt,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
}

// NotificationPreference holds a user's per-channel opt-ins. The
// channel flags carry no column defaults so an explicit false survives
// the first insert.
type NotificationPreference struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	InAppEnabled bool      `json:"inAppEnabled"`
	PushEnabled  bool      `json:"pushEnabled"`
	EmailEnabled bool      `json:"emailEnabled"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NotificationEvent is the dispatch payload emitted by domain engines
// after their transaction commits
type NotificationEvent struct {
	UserID            uuid.UUID
	Type              NotificationEventType
	Title             string
	Message           string
	Priority          NotificationPriority
	Channels          []NotificationChannel
	RelatedObjectType string
	RelatedObjectID   *uuid.UUID
	ActionURL         string
}
