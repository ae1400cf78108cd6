package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/zichdan/paycore/internal/domain/entities"
	"github.com/zichdan/paycore/internal/domain/errors"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
)

// LoanUsecase handles the loan lifecycle from application through
// payoff
type LoanUsecase struct {
	loanRepo     domainRepos.LoanRepository
	productRepo  domainRepos.LoanProductRepository
	walletRepo   domainRepos.WalletRepository
	currencyRepo domainRepos.CurrencyRepository
	userRepo     domainRepos.UserRepository
	txnRepo      domainRepos.TransactionRepository
	ledger       *LedgerUsecase
	txns         *TransactionUsecase
	creditScores *CreditScoreUsecase
	notifier     *NotificationUsecase
	uow          domainRepos.UnitOfWork
	now          func() time.Time
}

// NewLoanUsecase creates a new loan usecase
func NewLoanUsecase(
	loanRepo domainRepos.LoanRepository,
	productRepo domainRepos.LoanProductRepository,
	walletRepo domainRepos.WalletRepository,
	currencyRepo domainRepos.CurrencyRepository,
	userRepo domainRepos.UserRepository,
	txnRepo domainRepos.TransactionRepository,
	ledger *LedgerUsecase,
	txns *TransactionUsecase,
	creditScores *CreditScoreUsecase,
	notifier *NotificationUsecase,
	uow domainRepos.UnitOfWork,
) *LoanUsecase {
	return &LoanUsecase{
		loanRepo:     loanRepo,
		productRepo:  productRepo,
		walletRepo:   walletRepo,
		currencyRepo: currencyRepo,
		userRepo:     userRepo,
		txnRepo:      txnRepo,
		ledger:       ledger,
		txns:         txns,
		creditScores: creditScores,
		notifier:     notifier,
		uow:          uow,
		now:          time.Now,
	}
}

// loanTerms holds the amortization outputs for a principal under
// simple interest
type loanTerms struct {
	totalInterest     decimal.Decimal
	totalRepayable    decimal.Decimal
	installments      int
	installmentAmount decimal.Decimal
}

// computeLoanTerms applies simple interest: interest = P * (R/100) * T/12
func computeLoanTerms(principal, annualRate decimal.Decimal, tenureMonths int, frequency entities.RepaymentFrequency) loanTerms {
	interest := principal.
		Mul(annualRate.Div(decimal.NewFromInt(100))).
		Mul(decimal.NewFromInt(int64(tenureMonths))).
		Div(decimal.NewFromInt(12)).
		RoundBank(8)
	repayable := principal.Add(interest)
	n := frequency.InstallmentCount(tenureMonths)
	return loanTerms{
		totalInterest:     interest,
		totalRepayable:    repayable,
		installments:      n,
		installmentAmount: repayable.Div(decimal.NewFromInt(int64(n))).RoundBank(8),
	}
}

// ListProducts returns the active loan catalog
func (uc *LoanUsecase) ListProducts(ctx context.Context) ([]*entities.LoanProduct, error) {
	return uc.productRepo.ListActive(ctx)
}

// Apply validates eligibility and records a pending application
func (uc *LoanUsecase) Apply(ctx context.Context, userID uuid.UUID, input entities.LoanApplicationInput) (*entities.LoanApplication, error) {
	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, errors.NotFound("loan product not found")
	}
	if !product.IsActive {
		return nil, errors.BadRequest("loan product is not available")
	}
	if input.Amount.LessThan(product.MinAmount) || input.Amount.GreaterThan(product.MaxAmount) {
		return nil, errors.BadRequest(fmt.Sprintf("amount must be between %s and %s", product.MinAmount, product.MaxAmount))
	}
	if input.TenureMonths < product.MinTenureMonths || input.TenureMonths > product.MaxTenureMonths {
		return nil, errors.BadRequest(fmt.Sprintf("tenure must be between %d and %d months", product.MinTenureMonths, product.MaxTenureMonths))
	}
	frequency := input.Frequency
	if frequency == "" {
		frequency = entities.FrequencyMonthly
	}
	if !product.AllowsFrequency(frequency) {
		return nil, errors.BadRequest("repayment frequency not allowed for this product")
	}

	wallet, err := uc.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, errors.NotFound("wallet not found")
	}
	if wallet.UserID != userID {
		return nil, errors.Forbidden("wallet does not belong to user")
	}
	if wallet.CurrencyID != product.CurrencyID {
		return nil, errors.BadRequest("wallet currency does not match product currency")
	}

	if product.RequiresCollateral {
		if input.CollateralType == "" || input.CollateralType == entities.CollateralNone || !input.CollateralValue.IsPositive() {
			return nil, errors.BadRequest("this product requires collateral")
		}
	}
	if product.RequiresGuarantor {
		if input.GuarantorName == "" || input.GuarantorPhone == "" || input.GuarantorEmail == "" {
			return nil, errors.BadRequest("this product requires guarantor name, phone and email")
		}
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	accountAgeDays := int(uc.now().Sub(user.CreatedAt).Hours() / 24)
	if accountAgeDays < product.MinAccountAgeDays {
		return nil, errors.BadRequest(fmt.Sprintf("account must be at least %d days old", product.MinAccountAgeDays))
	}

	score, err := uc.creditScores.GetLatest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if score.Score < product.MinCreditScore {
		return nil, errors.BadRequest(fmt.Sprintf("credit score %d is below the required %d", score.Score, product.MinCreditScore))
	}

	hasOpen, err := uc.loanRepo.HasOpenLoan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasOpen {
		return nil, errors.ErrDuplicateLoan
	}

	terms := computeLoanTerms(input.Amount, product.InterestRate, input.TenureMonths, frequency)
	loan := &entities.LoanApplication{
		UserID:            userID,
		ProductID:         product.ID,
		WalletID:          wallet.ID,
		Status:            entities.LoanStatusPending,
		Amount:            input.Amount,
		InterestRate:      product.InterestRate,
		TenureMonths:      input.TenureMonths,
		Frequency:         frequency,
		TotalInterest:     terms.totalInterest,
		TotalRepayable:    terms.totalRepayable,
		InstallmentAmount: terms.installmentAmount,
		AmountRepaid:      decimal.Zero,
		CollateralType:    entities.CollateralNone,
	}
	if input.Purpose != "" {
		loan.Purpose = null.StringFrom(input.Purpose)
	}
	if input.CollateralType != "" {
		loan.CollateralType = input.CollateralType
		loan.CollateralValue = decimal.NewNullDecimal(input.CollateralValue)
	}
	if input.GuarantorName != "" {
		loan.GuarantorName = null.StringFrom(input.GuarantorName)
		loan.GuarantorPhone = null.StringFrom(input.GuarantorPhone)
		loan.GuarantorEmail = null.StringFrom(input.GuarantorEmail)
	}
	if err := uc.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Approve moves a pending or under-review application to approved,
// recomputing terms if the reviewer overrides the amount
func (uc *LoanUsecase) Approve(ctx context.Context, loanID uuid.UUID, approvedAmount *decimal.Decimal) (*entities.LoanApplication, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, errors.NotFound("loan not found")
	}
	if loan.Status != entities.LoanStatusPending && loan.Status != entities.LoanStatusUnderReview {
		return nil, errors.ErrInvalidTransition
	}

	amount := loan.Amount
	if approvedAmount != nil {
		if !approvedAmount.IsPositive() {
			return nil, errors.BadRequest("approved amount must be positive")
		}
		amount = *approvedAmount
	}
	terms := computeLoanTerms(amount, loan.InterestRate, loan.TenureMonths, loan.Frequency)

	now := uc.now()
	loan.Status = entities.LoanStatusApproved
	loan.ApprovedAmount = decimal.NewNullDecimal(amount)
	loan.TotalInterest = terms.totalInterest
	loan.TotalRepayable = terms.totalRepayable
	loan.InstallmentAmount = terms.installmentAmount
	loan.ApprovedAt = &now
	if err := uc.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            loan.UserID,
			Type:              entities.EventLoanApproved,
			Title:             "Loan approved",
			Message:           fmt.Sprintf("Your loan application for %s was approved", amount),
			Priority:          entities.PriorityHigh,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush, entities.ChannelEmail},
			RelatedObjectType: "loan",
			RelatedObjectID:   &loan.ID,
		})
	}
	return loan, nil
}

// Reject declines a pending or under-review application
func (uc *LoanUsecase) Reject(ctx context.Context, loanID uuid.UUID, reason string) (*entities.LoanApplication, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, errors.NotFound("loan not found")
	}
	if loan.Status != entities.LoanStatusPending && loan.Status != entities.LoanStatusUnderReview {
		return nil, errors.ErrInvalidTransition
	}
	loan.Status = entities.LoanStatusRejected
	if reason != "" {
		loan.RejectionReason = null.StringFrom(reason)
	}
	if err := uc.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Cancel withdraws an application that has not yet been approved.
// Only the borrower can cancel, and only while the application is
// still pending or under review.
func (uc *LoanUsecase) Cancel(ctx context.Context, userID, loanID uuid.UUID) (*entities.LoanApplication, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, errors.NotFound("loan not found")
	}
	if loan.UserID != userID {
		return nil, errors.Forbidden("loan does not belong to user")
	}
	if loan.Status != entities.LoanStatusPending && loan.Status != entities.LoanStatusUnderReview {
		return nil, errors.ErrInvalidTransition
	}
	loan.Status = entities.LoanStatusCancelled
	if err := uc.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Disburse credits the borrower's wallet with the approved amount,
// generates the full repayment schedule and activates the loan
func (uc *LoanUsecase) Disburse(ctx context.Context, loanID uuid.UUID) (*entities.LoanApplication, error) {
	var loan *entities.LoanApplication
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		loan, err = uc.loanRepo.GetByID(txCtx, loanID)
		if err != nil {
			return errors.NotFound("loan not found")
		}
		if loan.Status != entities.LoanStatusApproved {
			return errors.ErrLoanNotApproved
		}
		principal := loan.Amount
		if loan.ApprovedAmount.Valid {
			principal = loan.ApprovedAmount.Decimal
		}

		wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), loan.WalletID)
		if err != nil {
			return err
		}
		if !wallet.IsActive() {
			return errors.ErrWalletNotActive
		}
		currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
		if err != nil {
			return err
		}

		schedules := uc.buildSchedule(loan, principal)
		if err := uc.loanRepo.CreateSchedules(txCtx, schedules); err != nil {
			return err
		}

		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, principal, entities.BalanceOpCredit); err != nil {
			return err
		}

		txn := &entities.Transaction{
			Type:            entities.TxnTypeLoanDisbursement,
			Status:          entities.TxnStatusPending,
			Direction:       entities.DirectionInbound,
			Amount:          principal,
			NetAmount:       principal,
			CurrencyCode:    currency.Code,
			ToUserID:        &loan.UserID,
			ToWalletID:      &wallet.ID,
			Description:     null.StringFrom("loan disbursement"),
			ToBalanceBefore: decimal.NewNullDecimal(before),
			ToBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
			return err
		}

		now := uc.now()
		loan.Status = entities.LoanStatusActive
		loan.DisbursedAt = &now
		return uc.loanRepo.Update(txCtx, loan)
	})
	if err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            loan.UserID,
			Type:              entities.EventLoanDisbursed,
			Title:             "Loan disbursed",
			Message:           "Your loan has been credited to your wallet",
			Priority:          entities.PriorityHigh,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp, entities.ChannelPush},
			RelatedObjectType: "loan",
			RelatedObjectID:   &loan.ID,
		})
	}
	return loan, nil
}

// buildSchedule generates all installment rows. Division residue from
// rounding lands on the final installment so the schedule sums exactly
// to the repayable total.
func (uc *LoanUsecase) buildSchedule(loan *entities.LoanApplication, principal decimal.Decimal) []*entities.LoanRepaymentSchedule {
	terms := computeLoanTerms(principal, loan.InterestRate, loan.TenureMonths, loan.Frequency)
	n := terms.installments

	principalPer := principal.Div(decimal.NewFromInt(int64(n))).RoundBank(8)
	interestPer := terms.totalInterest.Div(decimal.NewFromInt(int64(n))).RoundBank(8)

	schedules := make([]*entities.LoanRepaymentSchedule, 0, n)
	dueDate := uc.now()
	sumPrincipal := decimal.Zero
	sumInterest := decimal.Zero
	for i := 1; i <= n; i++ {
		dueDate = loan.Frequency.NextDueDate(dueDate)
		p, in := principalPer, interestPer
		if i == n {
			p = principal.Sub(sumPrincipal)
			in = terms.totalInterest.Sub(sumInterest)
		}
		sumPrincipal = sumPrincipal.Add(p)
		sumInterest = sumInterest.Add(in)
		total := p.Add(in)
		schedules = append(schedules, &entities.LoanRepaymentSchedule{
			LoanID:            loan.ID,
			InstallmentNumber: i,
			DueDate:           dueDate,
			PrincipalAmount:   p,
			InterestAmount:    in,
			TotalAmount:       total,
			AmountPaid:        decimal.Zero,
			OutstandingAmount: total,
			LateFee:           decimal.Zero,
			Status:            entities.ScheduleStatusPending,
		})
	}
	return schedules
}

// Repay debits the borrower's wallet and allocates the amount to the
// next unpaid installment: late fee first, the rest split between
// interest and principal by the row's original ratio
func (uc *LoanUsecase) Repay(ctx context.Context, userID, loanID uuid.UUID, amount decimal.Decimal) (*entities.LoanRepayment, error) {
	if !amount.IsPositive() {
		return nil, errors.BadRequest("amount must be positive")
	}

	var repayment *entities.LoanRepayment
	var loanPaidOff bool
	var loan *entities.LoanApplication
	err := uc.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		loan, err = uc.loanRepo.GetByID(txCtx, loanID)
		if err != nil {
			return errors.NotFound("loan not found")
		}
		if loan.UserID != userID {
			return errors.Forbidden("loan does not belong to user")
		}
		if loan.Status != entities.LoanStatusActive && loan.Status != entities.LoanStatusOverdue {
			return errors.BadRequest("loan is not open for repayment")
		}

		schedule, err := uc.loanRepo.NextUnpaidSchedule(txCtx, loan.ID)
		if err != nil {
			return errors.BadRequest("no outstanding installments")
		}

		// cap at what this installment still needs
		due := schedule.OutstandingAmount.Add(schedule.LateFee)
		if amount.GreaterThan(due) {
			amount = due
		}

		wallet, err := uc.walletRepo.GetByID(uc.uow.WithLock(txCtx), loan.WalletID)
		if err != nil {
			return err
		}
		currency, err := uc.currencyRepo.GetByID(txCtx, wallet.CurrencyID)
		if err != nil {
			return err
		}
		if err := uc.ledger.CanSpend(wallet, amount); err != nil {
			return err
		}
		before := wallet.Balance
		if err := uc.ledger.UpdateBalance(txCtx, wallet, amount, entities.BalanceOpDebit); err != nil {
			return err
		}

		txn := &entities.Transaction{
			Type:              entities.TxnTypeLoanRepayment,
			Status:            entities.TxnStatusPending,
			Direction:         entities.DirectionOutbound,
			Amount:            amount,
			NetAmount:         amount,
			CurrencyCode:      currency.Code,
			FromUserID:        &loan.UserID,
			FromWalletID:      &wallet.ID,
			Description:       null.StringFrom(fmt.Sprintf("loan repayment, installment %d", schedule.InstallmentNumber)),
			FromBalanceBefore: decimal.NewNullDecimal(before),
			FromBalanceAfter:  decimal.NewNullDecimal(wallet.Balance),
		}
		if err := uc.txns.Create(txCtx, txn); err != nil {
			return err
		}
		if err := uc.txns.Transition(txCtx, txn, entities.TxnStatusCompleted, "system", ""); err != nil {
			return err
		}

		lateFeePaid := decimal.Min(amount, schedule.LateFee)
		remaining := amount.Sub(lateFeePaid)
		interestPaid := decimal.Zero
		principalPaid := decimal.Zero
		if schedule.TotalAmount.IsPositive() && remaining.IsPositive() {
			interestPaid = remaining.Mul(schedule.InterestAmount).Div(schedule.TotalAmount).RoundBank(8)
			principalPaid = remaining.Sub(interestPaid)
		}

		now := uc.now()
		schedule.AmountPaid = schedule.AmountPaid.Add(amount)
		schedule.OutstandingAmount = schedule.OutstandingAmount.Sub(remaining)
		schedule.LateFee = schedule.LateFee.Sub(lateFeePaid)
		if !schedule.OutstandingAmount.IsPositive() {
			schedule.Status = entities.ScheduleStatusPaid
			schedule.PaidAt = &now
		} else if schedule.AmountPaid.IsPositive() {
			schedule.Status = entities.ScheduleStatusPartial
		}
		if err := uc.loanRepo.UpdateSchedule(txCtx, schedule); err != nil {
			return err
		}

		repayment = &entities.LoanRepayment{
			LoanID:        loan.ID,
			ScheduleID:    schedule.ID,
			TransactionID: &txn.ID,
			Amount:        amount,
			PrincipalPaid: principalPaid,
			InterestPaid:  interestPaid,
			LateFeePaid:   lateFeePaid,
		}
		if err := uc.loanRepo.CreateRepayment(txCtx, repayment); err != nil {
			return err
		}

		loan.AmountRepaid = loan.AmountRepaid.Add(amount)
		unpaid, err := uc.loanRepo.CountUnpaidSchedules(txCtx, loan.ID)
		if err != nil {
			return err
		}
		if unpaid == 0 {
			loan.Status = entities.LoanStatusPaid
			loan.PaidAt = &now
			loanPaidOff = true
		} else if loan.Status == entities.LoanStatusOverdue {
			// overdue clears once the delinquent installment settles
			overdue, err := uc.loanRepo.ListSchedulesDueBefore(txCtx, loan.ID, now)
			if err != nil {
				return err
			}
			if len(overdue) == 0 {
				loan.Status = entities.LoanStatusActive
			}
		}
		return uc.loanRepo.Update(txCtx, loan)
	})
	if err != nil {
		return nil, err
	}

	if loanPaidOff {
		if _, err := uc.creditScores.Compute(ctx, userID); err != nil {
			return repayment, nil
		}
	}
	if uc.notifier != nil {
		uc.notifier.Dispatch(ctx, entities.NotificationEvent{
			UserID:            userID,
			Type:              entities.EventLoanRepayment,
			Title:             "Repayment received",
			Message:           fmt.Sprintf("Your loan repayment of %s was applied", repayment.Amount),
			Priority:          entities.PriorityNormal,
			Channels:          []entities.NotificationChannel{entities.ChannelInApp},
			RelatedObjectType: "loan",
			RelatedObjectID:   &loan.ID,
		})
	}
	return repayment, nil
}

// Get returns a loan owned by the user, with its schedule
func (uc *LoanUsecase) Get(ctx context.Context, userID, loanID uuid.UUID) (*entities.LoanApplication, []*entities.LoanRepaymentSchedule, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, nil, errors.NotFound("loan not found")
	}
	if loan.UserID != userID {
		return nil, nil, errors.Forbidden("loan does not belong to user")
	}
	schedules, err := uc.loanRepo.ListSchedules(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	return loan, schedules, nil
}

// Summary aggregates the user's borrowing position
func (uc *LoanUsecase) Summary(ctx context.Context, userID uuid.UUID) (*entities.LoanSummary, error) {
	loans, err := uc.loanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &entities.LoanSummary{
		TotalBorrowed:   decimal.Zero,
		TotalRepaid:     decimal.Zero,
		OutstandingDebt: decimal.Zero,
		NextDueAmount:   decimal.Zero,
	}
	for _, loan := range loans {
		switch loan.Status {
		case entities.LoanStatusPending, entities.LoanStatusUnderReview,
			entities.LoanStatusApproved, entities.LoanStatusRejected,
			entities.LoanStatusCancelled:
			continue
		}
		principal := loan.Amount
		if loan.ApprovedAmount.Valid {
			principal = loan.ApprovedAmount.Decimal
		}
		summary.TotalBorrowed = summary.TotalBorrowed.Add(principal)
		summary.TotalRepaid = summary.TotalRepaid.Add(loan.AmountRepaid)
		if loan.Status == entities.LoanStatusPaid {
			summary.CompletedLoans++
			continue
		}
		if loan.Status == entities.LoanStatusDefaulted {
			continue
		}
		summary.ActiveLoan = loan
		summary.OutstandingDebt = summary.OutstandingDebt.Add(loan.TotalRepayable.Sub(loan.AmountRepaid))
		if next, err := uc.loanRepo.NextUnpaidSchedule(ctx, loan.ID); err == nil {
			due := next.DueDate
			summary.NextDueDate = &due
			summary.NextDueAmount = next.OutstandingAmount.Add(next.LateFee)
		}
	}

	score, err := uc.creditScores.GetLatest(ctx, userID)
	if err == nil {
		summary.CreditScore = score.Score
		summary.RiskLevel = score.RiskLevel
	}
	return summary, nil
}

// MarkOverdue scans open loans for installments past due, marks them
// overdue and accrues the product's late fee on each delinquent row.
// An installment delinquent past the default window escalates the
// whole loan to defaulted. Invoked by the daily job.
func (uc *LoanUsecase) MarkOverdue(ctx context.Context) (int, error) {
	marked := 0
	for _, status := range []entities.LoanStatus{entities.LoanStatusActive, entities.LoanStatusOverdue} {
		loans, err := uc.loanRepo.ListByStatus(ctx, status)
		if err != nil {
			return marked, err
		}
		for _, loan := range loans {
			n, err := uc.markLoanOverdue(ctx, loan)
			if err != nil {
				return marked, err
			}
			marked += n
		}
	}
	return marked, nil
}

// loanDefaultAfterDays is how long an installment may stay delinquent
// before the whole loan escalates from overdue to defaulted
const loanDefaultAfterDays = 90

func (uc *LoanUsecase) markLoanOverdue(ctx context.Context, loan *entities.LoanApplication) (int, error) {
	product, err := uc.productRepo.GetByID(ctx, loan.ProductID)
	if err != nil {
		return 0, err
	}
	marked := 0
	err = uc.uow.Do(ctx, func(txCtx context.Context) error {
		now := uc.now()
		overdue, err := uc.loanRepo.ListSchedulesDueBefore(txCtx, loan.ID, now)
		if err != nil {
			return err
		}
		defaulted := false
		defaultCutoff := now.AddDate(0, 0, -loanDefaultAfterDays)
		for _, schedule := range overdue {
			if schedule.Status != entities.ScheduleStatusOverdue {
				schedule.Status = entities.ScheduleStatusOverdue
				fee := schedule.OutstandingAmount.
					Mul(product.LateFeeRate).
					Div(decimal.NewFromInt(100)).
					RoundBank(8)
				schedule.LateFee = schedule.LateFee.Add(fee)
				if err := uc.loanRepo.UpdateSchedule(txCtx, schedule); err != nil {
					return err
				}
				marked++
			}
			if schedule.DueDate.Before(defaultCutoff) {
				defaulted = true
			}
		}
		switch {
		case defaulted && loan.Status != entities.LoanStatusDefaulted:
			loan.Status = entities.LoanStatusDefaulted
			return uc.loanRepo.Update(txCtx, loan)
		case marked > 0 && loan.Status == entities.LoanStatusActive:
			loan.Status = entities.LoanStatusOverdue
			return uc.loanRepo.Update(txCtx, loan)
		}
		return nil
	})
	return marked, err
}
