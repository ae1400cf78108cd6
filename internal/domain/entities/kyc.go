package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// KYCLevel is a verification tier. Levels are totally ordered; a
// higher-tier approval implies all lower tiers.
type KYCLevel string

const (
	KYCTier1 KYCLevel = "tier_1"
	KYCTier2 KYCLevel = "tier_2"
	KYCTier3 KYCLevel = "tier_3"
)

var kycLevelRank = map[KYCLevel]int{
	KYCTier1: 1,
	KYCTier2: 2,
	KYCTier3: 3,
}

// Rank returns the ordinal position of the tier, 0 for unknown levels
func (l KYCLevel) Rank() int {
	return kycLevelRank[l]
}

// Covers reports whether approval at this level satisfies the required
// level
func (l KYCLevel) Covers(required KYCLevel) bool {
	return l.Rank() >= required.Rank()
}

// KYCStatus is the verification outcome
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
	KYCStatusExpired  KYCStatus = "expired"
)

// KYCVerification is consumed read-only by the core as an
// approved / not-approved gate for a (user, level) pair
type KYCVerification struct {
	ID         uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID   `json:"userId" gorm:"type:uuid;not null;index"`
	Level      KYCLevel    `json:"level" gorm:"type:varchar(10);not null"`
	Status     KYCStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes      null.String `json:"notes,omitempty" gorm:"type:varchar(1000)"`
	ApprovedAt *time.Time  `json:"approvedAt,omitempty"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	DeletedAt  *time.Time  `json:"-" gorm:"index"`
}

// IsApproved reports whether the verification currently gates open
func (k *KYCVerification) IsApproved(now time.Time) bool {
	if k.Status != KYCStatusApproved {
		return false
	}
	if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// AMLRiskLevel is the outcome of an AML risk check
type AMLRiskLevel string

const (
	AMLRiskLow      AMLRiskLevel = "low"
	AMLRiskMedium   AMLRiskLevel = "medium"
	AMLRiskHigh     AMLRiskLevel = "high"
	AMLRiskVeryHigh AMLRiskLevel = "very_high"
)

// Blocks reports whether the core blocks outbound transfers pending
// manual review
func (r AMLRiskLevel) Blocks() bool {
	return r == AMLRiskHigh || r == AMLRiskVeryHigh
}

// SanctionsResult is the outcome of sanctions screening
type SanctionsResult string

const (
	SanctionsClear         SanctionsResult = "clear"
	SanctionsMatch         SanctionsResult = "match"
	SanctionsFalsePositive SanctionsResult = "false_positive"
)
