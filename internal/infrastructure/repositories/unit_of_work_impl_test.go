package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	uow := NewUnitOfWork(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	err := uow.Do(ctx, func(txCtx context.Context) error {
		return users.Create(txCtx, &entities.User{Email: "committed@test.local"})
	})
	require.NoError(t, err)

	_, err = users.GetByEmail(ctx, "committed@test.local")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = uow.Do(ctx, func(txCtx context.Context) error {
		if err := users.Create(txCtx, &entities.User{Email: "rolledback@test.local"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = users.GetByEmail(ctx, "rolledback@test.local")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUnitOfWork_NestedDoReusesTransaction(t *testing.T) {
	db := newTestDB(t)
	uow := NewUnitOfWork(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	boom := errors.New("inner failure")
	err := uow.Do(ctx, func(outerCtx context.Context) error {
		if err := users.Create(outerCtx, &entities.User{Email: "outer@test.local"}); err != nil {
			return err
		}
		return uow.Do(outerCtx, func(innerCtx context.Context) error {
			if err := users.Create(innerCtx, &entities.User{Email: "inner@test.local"}); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	// The inner Do joined the outer transaction, so both writes rolled
	// back together.
	_, err = users.GetByEmail(ctx, "outer@test.local")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = users.GetByEmail(ctx, "inner@test.local")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUnitOfWork_WithLockOnSqliteIsHarmless(t *testing.T) {
	db := newTestDB(t)
	uow := NewUnitOfWork(db)
	wallets := NewWalletRepository(db)
	ctx := context.Background()

	ngn := seedCurrency(t, db, "NGN", "0.00066", 2)
	user := seedUser(t, db, "lock@test.local")
	w := seedWallet(t, db, user.ID, ngn.ID, "100")

	err := uow.Do(ctx, func(txCtx context.Context) error {
		got, err := wallets.GetByID(uow.WithLock(txCtx), w.ID)
		if err != nil {
			return err
		}
		require.Equal(t, w.ID, got.ID)
		return nil
	})
	require.NoError(t, err)
}
