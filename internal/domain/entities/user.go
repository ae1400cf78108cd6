package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// User is the authenticated identity consumed by the core. Credential
// management, OTP delivery and registration live in the identity
// subsystem; the core reads this record for ownership checks, account
// age and notification targeting.
type User struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string      `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone        null.String `json:"phone,omitempty" gorm:"type:varchar(50)"`
	FirstName    string      `json:"firstName" gorm:"type:varchar(100)"`
	LastName     string      `json:"lastName" gorm:"type:varchar(100)"`
	PasswordHash string      `json:"-" gorm:"type:varchar(255)"`
	IsActive     bool        `json:"isActive" gorm:"default:true"`
	DeviceTokens null.String `json:"-" gorm:"type:varchar(2000)"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	DeletedAt    *time.Time  `json:"-" gorm:"index"`
}

// FullName joins first and last name for display and provider calls
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AccountAgeDays returns whole days since the account was created
func (u *User) AccountAgeDays(now time.Time) int {
	return int(now.Sub(u.CreatedAt).Hours() / 24)
}
