package usecases

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/pkg/logger"
)

// PushSender delivers a push notification to the user's registered
// devices
type PushSender interface {
	SendPush(ctx context.Context, userID uuid.UUID, title, message string) error
}

// EmailSender delivers a notification email
type EmailSender interface {
	SendEmail(ctx context.Context, userID uuid.UUID, subject, body string) error
}

// NotificationUsecase fans business events out across channels.
// The in-app record is written synchronously so callers can rely on
// it existing; push and email go out on background goroutines because
// their failure must never fail the originating operation.
type NotificationUsecase struct {
	repo  domainRepos.NotificationRepository
	push  PushSender
	email EmailSender
	wg    sync.WaitGroup
}

// NewNotificationUsecase creates a new notification usecase. push and
// email may be nil when those channels are not configured.
func NewNotificationUsecase(repo domainRepos.NotificationRepository, push PushSender, email EmailSender) *NotificationUsecase {
	return &NotificationUsecase{repo: repo, push: push, email: email}
}

// Dispatch delivers the event on every requested channel the user has
// enabled. Errors are logged, never returned; notification delivery
// is best effort.
func (uc *NotificationUsecase) Dispatch(ctx context.Context, event entities.NotificationEvent) {
	prefs, err := uc.repo.GetPreferences(ctx, event.UserID)
	if err != nil {
		// no stored preferences means everything enabled
		prefs = &entities.NotificationPreference{
			UserID:       event.UserID,
			InAppEnabled: true,
			PushEnabled:  true,
			EmailEnabled: true,
		}
	}
	if event.Priority == "" {
		event.Priority = entities.PriorityNormal
	}

	for _, channel := range event.Channels {
		switch channel {
		case entities.ChannelInApp:
			if !prefs.InAppEnabled {
				continue
			}
			notification := &entities.Notification{
				UserID:          event.UserID,
				EventType:       event.Type,
				Title:           event.Title,
				Message:         event.Message,
				Priority:        event.Priority,
				RelatedObjectID: event.RelatedObjectID,
			}
			if event.RelatedObjectType != "" {
				notification.RelatedObjectType = null.StringFrom(event.RelatedObjectType)
			}
			if event.ActionURL != "" {
				notification.ActionURL = null.StringFrom(event.ActionURL)
			}
			if err := uc.repo.Create(ctx, notification); err != nil {
				logger.Error(ctx, "failed to store in-app notification",
					zap.String("userId", event.UserID.String()),
					zap.String("eventType", string(event.Type)),
					zap.Error(err))
			}
		case entities.ChannelPush:
			if !prefs.PushEnabled || uc.push == nil {
				continue
			}
			uc.sendAsync(ctx, event, channel, func(bg context.Context) error {
				return uc.push.SendPush(bg, event.UserID, event.Title, event.Message)
			})
		case entities.ChannelEmail:
			if !prefs.EmailEnabled || uc.email == nil {
				continue
			}
			uc.sendAsync(ctx, event, channel, func(bg context.Context) error {
				return uc.email.SendEmail(bg, event.UserID, event.Title, event.Message)
			})
		}
	}
}

// sendAsync runs a delivery on its own goroutine, detached from the
// caller's context so an aborted request does not cancel delivery
func (uc *NotificationUsecase) sendAsync(ctx context.Context, event entities.NotificationEvent, channel entities.NotificationChannel, send func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if err := send(bg); err != nil {
			logger.Error(bg, "notification delivery failed",
				zap.String("channel", string(channel)),
				zap.String("userId", event.UserID.String()),
				zap.String("eventType", string(event.Type)),
				zap.Error(err))
		}
	}()
}

// Wait blocks until all in-flight async deliveries finish. Used on
// shutdown and in tests.
func (uc *NotificationUsecase) Wait() {
	uc.wg.Wait()
}

// List returns the user's notifications, newest first
func (uc *NotificationUsecase) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*entities.Notification, error) {
	return uc.repo.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead marks one notification as read. Only the owner can mark it.
func (uc *NotificationUsecase) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := uc.repo.MarkRead(ctx, userID, notificationID); err != nil {
		return errors.NotFound("notification not found")
	}
	return nil
}

// GetPreferences returns the user's channel preferences, defaulting
// to all enabled when none are stored
func (uc *NotificationUsecase) GetPreferences(ctx context.Context, userID uuid.UUID) (*entities.NotificationPreference, error) {
	prefs, err := uc.repo.GetPreferences(ctx, userID)
	if err != nil {
		return &entities.NotificationPreference{
			UserID:       userID,
			InAppEnabled: true,
			PushEnabled:  true,
			EmailEnabled: true,
		}, nil
	}
	return prefs, nil
}

// UpdatePreferences stores the user's channel preferences
func (uc *NotificationUsecase) UpdatePreferences(ctx context.Context, userID uuid.UUID, inApp, push, email bool) (*entities.NotificationPreference, error) {
	prefs := &entities.NotificationPreference{
		UserID:       userID,
		InAppEnabled: inApp,
		PushEnabled:  push,
		EmailEnabled: email,
	}
	if err := uc.repo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
