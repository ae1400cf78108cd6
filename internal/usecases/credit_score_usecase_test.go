package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zichdan/paycore/internal/domain/entities"
)

func TestCreditScore_NewUserBaseline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "fresh@example.com")

	score, err := env.scores.Compute(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 650, score.PaymentHistoryScore)
	require.Equal(t, 650, score.CreditUtilizationScore)
	require.Equal(t, 300, score.AccountAgeScore, "brand new account lands in the youngest bucket")
	require.Equal(t, 650, score.LoanHistoryScore)
	// .35*650 + .30*650 + .15*300 + .20*650
	require.Equal(t, 598, score.Score)
	require.Equal(t, entities.RiskHigh, score.RiskLevel)
	require.Contains(t, score.Recommendations.String, "Complete a loan successfully")

	// GetLatest returns the stored score without recomputing
	latest, err := env.scores.GetLatest(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, score.ID, latest.ID)
}

func TestCreditScore_AccountAgeBuckets(t *testing.T) {
	env := newTestEnv(t)
	day := 24 * time.Hour

	cases := []struct {
		days int
		want int
	}{
		{10, 300},
		{45, 450},
		{100, 550},
		{200, 650},
		{400, 750},
		{800, 850},
	}
	for _, tc := range cases {
		got := env.scores.accountAgeScore(time.Duration(tc.days) * day)
		require.Equal(t, tc.want, got, "age %d days", tc.days)
	}
}

func TestCreditScore_DefaultRatesVeryHigh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "defaulter@example.com")

	loan := &entities.LoanApplication{
		ID:                uuid.New(),
		UserID:            user.ID,
		ProductID:         uuid.New(),
		WalletID:          uuid.New(),
		Status:            entities.LoanStatusDefaulted,
		Amount:            decimal.NewFromInt(50000),
		InterestRate:      decimal.NewFromInt(15),
		TenureMonths:      6,
		Frequency:         entities.FrequencyMonthly,
		TotalInterest:     decimal.NewFromInt(3750),
		TotalRepayable:    decimal.NewFromInt(53750),
		InstallmentAmount: decimal.NewFromInt(8958),
		AmountRepaid:      decimal.Zero,
	}
	require.NoError(t, env.db.Create(loan).Error)

	score, err := env.scores.Compute(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, entities.RiskVeryHigh, score.RiskLevel, "a default always rates very high")
	require.Contains(t, score.Recommendations.String, "Settle defaulted loans")
	require.GreaterOrEqual(t, score.Score, 300)
	require.LessOrEqual(t, score.Score, 850)
}
