package repositories

import (
	"context"
)

// UnitOfWork scopes repository calls to one database transaction.
// Every value-bearing operation in the core runs inside Do; the
// transaction is the unit of atomicity.
type UnitOfWork interface {
	// Do executes fn within a transaction. An error return rolls the
	// transaction back; nil commits it.
	Do(ctx context.Context, fn func(ctx context.Context) error) error

	// WithLock marks the context so that subsequent row reads inside
	// the transaction take exclusive row locks (SELECT ... FOR UPDATE).
	WithLock(ctx context.Context) context.Context
}
