package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// KYCRepository defines the read-only verification gate queries plus
// the write path used by the identity subsystem on approval
type KYCRepository interface {
	// GetApproved returns the highest-tier approved, unexpired
	// verification for the user, or ErrNotFound.
	GetApproved(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.KYCVerification, error)
	Create(ctx context.Context, verification *entities.KYCVerification) error
	Update(ctx context.Context, verification *entities.KYCVerification) error
}

// NotificationRepository defines in-app notification storage and
// per-user channel preferences
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*entities.NotificationPreference, error)
	UpsertPreferences(ctx context.Context, prefs *entities.NotificationPreference) error
}
