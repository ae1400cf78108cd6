package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// CardRepository defines issued-card data operations
type CardRepository interface {
	Create(ctx context.Context, card *entities.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Card, error)
	GetByProviderCardID(ctx context.Context, providerCardID string) (*entities.Card, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Card, error)
	Update(ctx context.Context, card *entities.Card) error
}
