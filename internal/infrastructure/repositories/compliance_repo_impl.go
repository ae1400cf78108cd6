package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

// KYCRepository implements verification storage
type KYCRepository struct {
	db *gorm.DB
}

// NewKYCRepository creates a new KYC repository
func NewKYCRepository(db *gorm.DB) *KYCRepository {
	return &KYCRepository{db: db}
}

// GetApproved returns the highest-tier currently valid approval. Tier
// ordering is resolved in memory since tiers are strings in storage.
func (r *KYCRepository) GetApproved(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	var rows []*entities.KYCVerification
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, entities.KYCStatusApproved).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var best *entities.KYCVerification
	for _, v := range rows {
		if !v.IsApproved(now) {
			continue
		}
		if best == nil || v.Level.Rank() > best.Level.Rank() {
			best = v
		}
	}
	if best == nil {
		return nil, domainerrors.ErrNotFound
	}
	return best, nil
}

func (r *KYCRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.KYCVerification, error) {
	var verification entities.KYCVerification
	err := GetDB(ctx, r.db).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *KYCRepository) Create(ctx context.Context, verification *entities.KYCVerification) error {
	if verification.ID == uuid.Nil {
		verification.ID = uuid.New()
	}
	now := time.Now()
	verification.CreatedAt = now
	verification.UpdatedAt = now
	return GetDB(ctx, r.db).Create(verification).Error
}

func (r *KYCRepository) Update(ctx context.Context, verification *entities.KYCVerification) error {
	verification.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.KYCVerification{}).Where("id = ?", verification.ID).Updates(map[string]interface{}{
		"status":      verification.Status,
		"notes":       verification.Notes,
		"approved_at": verification.ApprovedAt,
		"expires_at":  verification.ExpiresAt,
		"updated_at":  verification.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// NotificationRepository implements in-app notification and preference
// storage
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notification.CreatedAt = time.Now()
	return GetDB(ctx, r.db).Create(notification).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*entities.Notification, error) {
	q := GetDB(ctx, r.db).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []*entities.Notification
	err := q.Order("created_at DESC").Limit(100).Find(&out).Error
	return out, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	now := time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*entities.NotificationPreference, error) {
	var p entities.NotificationPreference
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *NotificationRepository) UpsertPreferences(ctx context.Context, prefs *entities.NotificationPreference) error {
	prefs.UpdatedAt = time.Now()
	if prefs.ID == uuid.Nil {
		var existing entities.NotificationPreference
		err := GetDB(ctx, r.db).Where("user_id = ?", prefs.UserID).First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			prefs.ID = uuid.New()
			return GetDB(ctx, r.db).Create(prefs).Error
		}
		prefs.ID = existing.ID
	}
	return GetDB(ctx, r.db).Model(&entities.NotificationPreference{}).Where("id = ?", prefs.ID).Updates(map[string]interface{}{
		"in_app_enabled": prefs.InAppEnabled,
		"push_enabled":   prefs.PushEnabled,
		"email_enabled":  prefs.EmailEnabled,
		"updated_at":     prefs.UpdatedAt,
	}).Error
}
