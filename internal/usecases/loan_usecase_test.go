package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
)

func seedLoanProduct(t *testing.T, env *testEnv, currencyID uuid.UUID) *entities.LoanProduct {
	t.Helper()
	p := &entities.LoanProduct{
		ID:                 uuid.New(),
		Name:               "Quick Cash",
		CurrencyID:         currencyID,
		InterestRate:       decimal.NewFromInt(15),
		MinAmount:          decimal.NewFromInt(10000),
		MaxAmount:          decimal.NewFromInt(500000),
		MinTenureMonths:    1,
		MaxTenureMonths:    12,
		AllowedFrequencies: "weekly,monthly",
		MinCreditScore:     300,
		LateFeeRate:        decimal.NewFromInt(1),
		IsActive:           true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, env.db.Create(p).Error, "seed loan product")
	return p
}

func TestLoan_FullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "20000")
	product := seedLoanProduct(t, env, ngn.ID)

	loan, err := env.loans.Apply(ctx, user.ID, entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(100000),
		TenureMonths: 6,
		Frequency:    entities.FrequencyMonthly,
		Purpose:      "inventory restock",
	})
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusPending, loan.Status)

	// simple interest: 100000 * 15% * 6/12
	require.True(t, loan.TotalInterest.Equal(decimal.NewFromInt(7500)), "interest %s", loan.TotalInterest)
	require.True(t, loan.TotalRepayable.Equal(decimal.NewFromInt(107500)), "repayable %s", loan.TotalRepayable)
	require.True(t, loan.InstallmentAmount.Equal(decimal.RequireFromString("17916.66666667")), "installment %s", loan.InstallmentAmount)

	loan, err = env.loans.Approve(ctx, loan.ID, nil)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusApproved, loan.Status)
	require.NotNil(t, loan.ApprovedAt)

	// cannot disburse twice or from a non-approved state
	loan, err = env.loans.Disburse(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusActive, loan.Status)
	_, err = env.loans.Disburse(ctx, loan.ID)
	require.ErrorIs(t, err, domainerrors.ErrLoanNotApproved)

	funded := reloadWallet(t, env.db, wallet.ID)
	require.True(t, funded.Balance.Equal(decimal.NewFromInt(120000)), "disbursed balance %s", funded.Balance)

	schedules, err := env.loanRepo.ListSchedules(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 6)
	sum := decimal.Zero
	for _, s := range schedules {
		sum = sum.Add(s.TotalAmount)
	}
	require.True(t, sum.Equal(decimal.NewFromInt(107500)), "schedule sums to the repayable total, got %s", sum)
	// rounding residue lands on the final installment
	require.True(t, schedules[0].TotalAmount.Equal(decimal.RequireFromString("17916.66666667")))
	require.True(t, schedules[5].TotalAmount.Equal(decimal.RequireFromString("17916.66666665")))

	// first repayment splits by the row's interest/principal ratio
	repayment, err := env.loans.Repay(ctx, user.ID, loan.ID, decimal.NewFromInt(20000))
	require.NoError(t, err)
	require.True(t, repayment.Amount.Equal(decimal.RequireFromString("17916.66666667")), "capped at the installment, got %s", repayment.Amount)
	require.True(t, repayment.InterestPaid.Equal(decimal.NewFromInt(1250)), "interest %s", repayment.InterestPaid)
	require.True(t, repayment.PrincipalPaid.Equal(decimal.RequireFromString("16666.66666667")), "principal %s", repayment.PrincipalPaid)

	for i := 0; i < 5; i++ {
		_, err = env.loans.Repay(ctx, user.ID, loan.ID, decimal.NewFromInt(20000))
		require.NoError(t, err)
	}

	settled, err := env.loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusPaid, settled.Status)
	require.NotNil(t, settled.PaidAt)
	require.True(t, settled.AmountRepaid.Equal(decimal.NewFromInt(107500)), "repaid %s", settled.AmountRepaid)

	final := reloadWallet(t, env.db, wallet.ID)
	require.True(t, final.Balance.Equal(decimal.NewFromInt(12500)), "final balance %s", final.Balance)

	// payoff triggers a fresh credit score
	score, err := env.scoreRepo.GetLatest(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 850, score.PaymentHistoryScore)
	require.Equal(t, 850, score.LoanHistoryScore)

	_, err = env.loans.Repay(ctx, user.ID, loan.ID, decimal.NewFromInt(100))
	require.Error(t, err, "a paid loan accepts no further repayments")
}

func TestLoan_ApplyEligibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	base := entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(100000),
		TenureMonths: 6,
		Frequency:    entities.FrequencyMonthly,
	}

	tooSmall := base
	tooSmall.Amount = decimal.NewFromInt(500)
	_, err := env.loans.Apply(ctx, user.ID, tooSmall)
	require.Error(t, err)

	tooLong := base
	tooLong.TenureMonths = 24
	_, err = env.loans.Apply(ctx, user.ID, tooLong)
	require.Error(t, err)

	badFrequency := base
	badFrequency.Frequency = entities.FrequencyDaily
	_, err = env.loans.Apply(ctx, user.ID, badFrequency)
	require.Error(t, err)

	_, err = env.loans.Apply(ctx, user.ID, base)
	require.NoError(t, err)

	// one open loan at a time
	_, err = env.loans.Apply(ctx, user.ID, base)
	require.ErrorIs(t, err, domainerrors.ErrDuplicateLoan)
}

func TestLoan_ApproveWithOverrideRecomputesTerms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	loan, err := env.loans.Apply(ctx, user.ID, entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(100000),
		TenureMonths: 12,
		Frequency:    entities.FrequencyMonthly,
	})
	require.NoError(t, err)

	reduced := decimal.NewFromInt(60000)
	loan, err = env.loans.Approve(ctx, loan.ID, &reduced)
	require.NoError(t, err)
	require.True(t, loan.ApprovedAmount.Decimal.Equal(reduced))
	// 60000 * 15% over a full year
	require.True(t, loan.TotalInterest.Equal(decimal.NewFromInt(9000)), "interest %s", loan.TotalInterest)
	require.True(t, loan.TotalRepayable.Equal(decimal.NewFromInt(69000)), "repayable %s", loan.TotalRepayable)

	loan, err = env.loans.Disburse(ctx, loan.ID)
	require.NoError(t, err)
	funded := reloadWallet(t, env.db, wallet.ID)
	require.True(t, funded.Balance.Equal(reduced), "the approved amount is what disburses, got %s", funded.Balance)
}

func TestLoan_RejectClosesApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	input := entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(50000),
		TenureMonths: 3,
		Frequency:    entities.FrequencyMonthly,
	}
	loan, err := env.loans.Apply(ctx, user.ID, input)
	require.NoError(t, err)

	loan, err = env.loans.Reject(ctx, loan.ID, "income not verifiable")
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusRejected, loan.Status)
	require.Equal(t, "income not verifiable", loan.RejectionReason.String)

	_, err = env.loans.Disburse(ctx, loan.ID)
	require.ErrorIs(t, err, domainerrors.ErrLoanNotApproved)

	// a rejected loan no longer blocks new applications
	_, err = env.loans.Apply(ctx, user.ID, input)
	require.NoError(t, err)
}

func TestLoan_WeeklyScheduleCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	loan, err := env.loans.Apply(ctx, user.ID, entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(48000),
		TenureMonths: 3,
		Frequency:    entities.FrequencyWeekly,
	})
	require.NoError(t, err)
	loan, err = env.loans.Approve(ctx, loan.ID, nil)
	require.NoError(t, err)
	loan, err = env.loans.Disburse(ctx, loan.ID)
	require.NoError(t, err)

	schedules, err := env.loanRepo.ListSchedules(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 12, "3 months at weekly cadence")
	require.WithinDuration(t, time.Now().AddDate(0, 0, 7), schedules[0].DueDate, time.Minute)
}

func TestLoan_CancelPendingApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	stranger := seedUser(t, env.db, "stranger@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	input := entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(50000),
		TenureMonths: 3,
		Frequency:    entities.FrequencyMonthly,
	}
	loan, err := env.loans.Apply(ctx, user.ID, input)
	require.NoError(t, err)

	_, err = env.loans.Cancel(ctx, stranger.ID, loan.ID)
	require.Error(t, err, "only the borrower can cancel")

	loan, err = env.loans.Cancel(ctx, user.ID, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusCancelled, loan.Status)

	_, err = env.loans.Cancel(ctx, user.ID, loan.ID)
	require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	_, err = env.loans.Approve(ctx, loan.ID, nil)
	require.Error(t, err, "a cancelled application cannot be approved")

	// a cancelled loan no longer blocks new applications
	_, err = env.loans.Apply(ctx, user.ID, input)
	require.NoError(t, err)
}

func TestLoan_ApprovedApplicationCannotBeCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	loan, err := env.loans.Apply(ctx, user.ID, entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(50000),
		TenureMonths: 3,
		Frequency:    entities.FrequencyMonthly,
	})
	require.NoError(t, err)
	loan, err = env.loans.Approve(ctx, loan.ID, nil)
	require.NoError(t, err)

	_, err = env.loans.Cancel(ctx, user.ID, loan.ID)
	require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
}

func TestLoan_OverdueAccruesLateFeeAndEscalatesToDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ngn := seedCurrency(t, env.db, "NGN", "0.00066", 2)
	user := seedUser(t, env.db, "borrower@example.com")
	wallet := seedWallet(t, env.db, user.ID, ngn.ID, "0")
	product := seedLoanProduct(t, env, ngn.ID)

	loan, err := env.loans.Apply(ctx, user.ID, entities.LoanApplicationInput{
		ProductID:    product.ID,
		WalletID:     wallet.ID,
		Amount:       decimal.NewFromInt(60000),
		TenureMonths: 3,
		Frequency:    entities.FrequencyMonthly,
	})
	require.NoError(t, err)
	loan, err = env.loans.Approve(ctx, loan.ID, nil)
	require.NoError(t, err)
	loan, err = env.loans.Disburse(ctx, loan.ID)
	require.NoError(t, err)

	// first installment is a week past due: overdue, not defaulted
	env.loans.now = func() time.Time { return time.Now().AddDate(0, 0, 37) }
	marked, err := env.loans.MarkOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	overdue, err := env.loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusOverdue, overdue.Status)

	schedules, err := env.loanRepo.ListSchedules(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.ScheduleStatusOverdue, schedules[0].Status)
	require.True(t, schedules[0].LateFee.IsPositive(), "late fee accrued")

	// the same installment past the default window drags the loan down
	env.loans.now = func() time.Time { return time.Now().AddDate(0, 0, 30+91) }
	_, err = env.loans.MarkOverdue(ctx)
	require.NoError(t, err)

	defaulted, err := env.loanRepo.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, entities.LoanStatusDefaulted, defaulted.Status)
}
