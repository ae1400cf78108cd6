package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
)

// AMLChecker scores a user (optionally in the context of a specific
// transaction) for money-laundering risk. Implementations plug in
// external scoring engines; the default is permissive.
type AMLChecker interface {
	RunAMLCheck(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error)
}

// SanctionsScreener screens identity attributes against sanctions
// lists
type SanctionsScreener interface {
	Screen(ctx context.Context, fullName string, dateOfBirth time.Time, nationality string) (entities.SanctionsResult, error)
}

// AMLCheckerFunc adapts a function to AMLChecker
type AMLCheckerFunc func(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error)

func (f AMLCheckerFunc) RunAMLCheck(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error) {
	return f(ctx, userID, transactionID)
}

// SanctionsScreenerFunc adapts a function to SanctionsScreener
type SanctionsScreenerFunc func(ctx context.Context, fullName string, dateOfBirth time.Time, nationality string) (entities.SanctionsResult, error)

func (f SanctionsScreenerFunc) Screen(ctx context.Context, fullName string, dateOfBirth time.Time, nationality string) (entities.SanctionsResult, error) {
	return f(ctx, fullName, dateOfBirth, nationality)
}

// ComplianceUsecase exposes the verification gates the rest of the
// core consults before money moves or accounts open
type ComplianceUsecase struct {
	kycRepo   domainRepos.KYCRepository
	ledger    *LedgerUsecase
	notifier  *NotificationUsecase
	aml       AMLChecker
	sanctions SanctionsScreener
	localFiat string
	now       func() time.Time
}

// NewComplianceUsecase creates a new compliance usecase. aml and
// sanctions may be nil; absent hooks resolve to low risk and clear.
func NewComplianceUsecase(
	kycRepo domainRepos.KYCRepository,
	ledger *LedgerUsecase,
	notifier *NotificationUsecase,
	aml AMLChecker,
	sanctions SanctionsScreener,
	localFiat string,
) *ComplianceUsecase {
	return &ComplianceUsecase{
		kycRepo:   kycRepo,
		ledger:    ledger,
		notifier:  notifier,
		aml:       aml,
		sanctions: sanctions,
		localFiat: localFiat,
		now:       time.Now,
	}
}

// HasApprovedKYC reports whether the user holds an approved,
// unexpired verification at or above the required tier
func (uc *ComplianceUsecase) HasApprovedKYC(ctx context.Context, userID uuid.UUID, required entities.KYCLevel) (bool, error) {
	best, err := uc.kycRepo.GetApproved(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return best.Level.Covers(required), nil
}

// RequireKYC is the gate form of HasApprovedKYC used inline by other
// usecases
func (uc *ComplianceUsecase) RequireKYC(ctx context.Context, userID uuid.UUID, required entities.KYCLevel) error {
	ok, err := uc.HasApprovedKYC(ctx, userID, required)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrKYCRequired
	}
	return nil
}

// RunAMLCheck scores the user. High and very high risk block outbound
// transfers pending manual review.
func (uc *ComplianceUsecase) RunAMLCheck(ctx context.Context, userID uuid.UUID, transactionID *uuid.UUID) (entities.AMLRiskLevel, error) {
	if uc.aml == nil {
		return entities.AMLRiskLow, nil
	}
	return uc.aml.RunAMLCheck(ctx, userID, transactionID)
}

// RunSanctionsScreening screens identity attributes at onboarding. A
// match blocks the user unless later flagged a false positive.
func (uc *ComplianceUsecase) RunSanctionsScreening(ctx context.Context, fullName string, dateOfBirth time.Time, nationality string) (entities.SanctionsResult, error) {
	if uc.sanctions == nil {
		return entities.SanctionsClear, nil
	}
	return uc.sanctions.Screen(ctx, fullName, dateOfBirth, nationality)
}

// SubmitKYC records a pending verification for review
func (uc *ComplianceUsecase) SubmitKYC(ctx context.Context, userID uuid.UUID, level entities.KYCLevel) (*entities.KYCVerification, error) {
	if level.Rank() == 0 {
		return nil, errors.BadRequest("unknown kyc level")
	}
	verification := &entities.KYCVerification{
		UserID: userID,
		Level:  level,
		Status: entities.KYCStatusPending,
	}
	if err := uc.kycRepo.Create(ctx, verification); err != nil {
		return nil, err
	}
	return verification, nil
}

// ApproveKYC flips a verification to approved and ensures the user
// has a default wallet in the local fiat currency
func (uc *ComplianceUsecase) ApproveKYC(ctx context.Context, verification *entities.KYCVerification, expiresAt *time.Time) error {
	now := uc.now()
	verification.Status = entities.KYCStatusApproved
	verification.ApprovedAt = &now
	verification.ExpiresAt = expiresAt
	if err := uc.kycRepo.Update(ctx, verification); err != nil {
		return err
	}
	if _, err := uc.ledger.EnsureDefaultWallet(ctx, verification.UserID, uc.localFiat); err != nil {
		return err
	}
	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:   verification.UserID,
			Type:     entities.EventKYCApproved,
			Title:    "Identity verified",
			Message:  "Your identity verification was approved",
			Priority: entities.PriorityHigh,
			Channels: []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush, entities.ChannelEmail},
		})
	}
	return nil
}

// GetVerification loads a verification by id
func (uc *ComplianceUsecase) GetVerification(ctx context.Context, id uuid.UUID) (*entities.KYCVerification, error) {
	return uc.kycRepo.GetByID(ctx, id)
}

// RejectKYC records a rejected verification with a reviewer note
func (uc *ComplianceUsecase) RejectKYC(ctx context.Context, verification *entities.KYCVerification, reason string) error {
	if verification.Status != entities.KYCStatusPending {
		return errors.BadRequest("verification is not pending")
	}
	verification.Status = entities.KYCStatusRejected
	verification.Notes = null.StringFrom(reason)
	return uc.kycRepo.Update(ctx, verification)
}
