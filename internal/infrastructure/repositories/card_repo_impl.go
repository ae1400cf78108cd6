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

// CardRepository implements issued-card storage
type CardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *entities.Card) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now
	return GetDB(ctx, r.db).Create(card).Error
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Card, error) {
	var c entities.Card
	if err := GetDB(ctx, r.db).Where("id = ? AND deleted_at IS NULL", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByProviderCardID resolves the card named in a provider webhook
func (r *CardRepository) GetByProviderCardID(ctx context.Context, providerCardID string) (*entities.Card, error) {
	var c entities.Card
	if err := GetDB(ctx, r.db).Where("provider_card_id = ? AND deleted_at IS NULL", providerCardID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Card, error) {
	var out []*entities.Card
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *CardRepository) Update(ctx context.Context, card *entities.Card) error {
	card.UpdatedAt = time.Now()
	res := GetDB(ctx, r.db).Model(&entities.Card{}).Where("id = ?", card.ID).Updates(map[string]interface{}{
		"status":        card.Status,
		"is_frozen":     card.IsFrozen,
		"total_spent":   card.TotalSpent,
		"daily_spent":   card.DailySpent,
		"monthly_spent": card.MonthlySpent,
		"last_used_at":  card.LastUsedAt,
		"deleted_at":    card.DeletedAt,
		"updated_at":    card.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}
