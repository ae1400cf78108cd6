package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func TestCompliance_KYCLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "applicant@example.com")

	// nothing approved yet
	require.ErrorIs(t, env.compliance.RequireKYC(ctx, user.ID, entities.KYCTier1), domainerrors.ErrKYCRequired)

	verification, err := env.compliance.SubmitKYC(ctx, user.ID, entities.KYCTier2)
	require.NoError(t, err)
	require.Equal(t, entities.KYCStatusPending, verification.Status)

	// pending does not satisfy the gate
	require.ErrorIs(t, env.compliance.RequireKYC(ctx, user.ID, entities.KYCTier1), domainerrors.ErrKYCRequired)

	expires := time.Now().AddDate(1, 0, 0)
	require.NoError(t, env.compliance.ApproveKYC(ctx, verification, &expires))
	require.Equal(t, entities.KYCStatusApproved, verification.Status)
	require.NotNil(t, verification.ApprovedAt)

	// tier 2 approval covers tier 1 and 2 but not 3
	require.NoError(t, env.compliance.RequireKYC(ctx, user.ID, entities.KYCTier1))
	require.NoError(t, env.compliance.RequireKYC(ctx, user.ID, entities.KYCTier2))
	require.ErrorIs(t, env.compliance.RequireKYC(ctx, user.ID, entities.KYCTier3), domainerrors.ErrKYCRequired)

	// approval provisions the default local fiat wallet
	wallets, err := env.walletRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	require.True(t, wallets[0].IsDefault)
}

func TestCompliance_SubmitUnknownLevelRejected(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env.db, "applicant@example.com")

	_, err := env.compliance.SubmitKYC(context.Background(), user.ID, entities.KYCLevel("tier_9"))
	require.ErrorContains(t, err, "unknown kyc level")
}

func TestCompliance_RejectOnlyPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "applicant@example.com")

	verification, err := env.compliance.SubmitKYC(ctx, user.ID, entities.KYCTier1)
	require.NoError(t, err)

	require.NoError(t, env.compliance.RejectKYC(ctx, verification, "document unreadable"))
	require.Equal(t, entities.KYCStatusRejected, verification.Status)
	require.Equal(t, "document unreadable", verification.Notes.String)

	// a settled verification cannot be rejected again
	require.ErrorContains(t, env.compliance.RejectKYC(ctx, verification, "again"), "not pending")
}

func TestCompliance_HooksDefaultPermissive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "applicant@example.com")

	risk, err := env.compliance.RunAMLCheck(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, entities.AMLRiskLow, risk)
	require.False(t, risk.Blocks())

	result, err := env.compliance.RunSanctionsScreening(ctx, "Ada Eze", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC), "NG")
	require.NoError(t, err)
	require.Equal(t, entities.SanctionsClear, result)
}

func TestCompliance_FuncHooks(t *testing.T) {
	var checkedUser uuid.UUID
	aml := AMLCheckerFunc(func(_ context.Context, userID uuid.UUID, _ *uuid.UUID) (entities.AMLRiskLevel, error) {
		checkedUser = userID
		return entities.AMLRiskHigh, nil
	})
	screener := SanctionsScreenerFunc(func(_ context.Context, fullName string, _ time.Time, _ string) (entities.SanctionsResult, error) {
		if fullName == "Listed Person" {
			return entities.SanctionsMatch, nil
		}
		return entities.SanctionsClear, nil
	})

	env := newTestEnv(t)
	ctx := context.Background()
	uc := NewComplianceUsecase(env.kycRepo, env.ledger, env.notifier, aml, screener, "NGN")
	user := seedUser(t, env.db, "applicant@example.com")

	risk, err := uc.RunAMLCheck(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, entities.AMLRiskHigh, risk)
	require.True(t, risk.Blocks())
	require.Equal(t, user.ID, checkedUser)

	dob := time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC)
	result, err := uc.RunSanctionsScreening(ctx, "Listed Person", dob, "NG")
	require.NoError(t, err)
	require.Equal(t, entities.SanctionsMatch, result)

	result, err = uc.RunSanctionsScreening(ctx, "Ada Eze", dob, "NG")
	require.NoError(t, err)
	require.Equal(t, entities.SanctionsClear, result)
}
