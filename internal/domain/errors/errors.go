package errors

import (
	"errors"
	"net/http"
)

// Business-rule sentinel errors. Usecases return these (possibly
// wrapped) and handlers map them onto HTTP responses.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrAlreadyExists         = errors.New("resource already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrKYCRequired           = errors.New("kyc approval required")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrDailyLimitExceeded    = errors.New("daily spending limit exceeded")
	ErrMonthlyLimitExceeded  = errors.New("monthly spending limit exceeded")
	ErrWalletNotActive       = errors.New("wallet is not active")
	ErrInvalidPIN            = errors.New("invalid wallet pin")
	ErrPINNotSet             = errors.New("wallet pin not set")
	ErrInvalidBiometric      = errors.New("invalid biometric token")
	ErrDuplicateLoan         = errors.New("user already has an open loan")
	ErrLoanNotApproved       = errors.New("loan is not approved")
	ErrSlotExhausted         = errors.New("investment product has no slots available")
	ErrInvestmentNotMatured  = errors.New("investment has not matured")
	ErrLiquidationNotAllowed = errors.New("early liquidation not allowed")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrMissingSignature      = errors.New("missing webhook signature")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrProviderFailure       = errors.New("external provider failure")
	ErrComplianceBlocked     = errors.New("blocked pending compliance review")
)

// Stable error codes surfaced to clients
const (
	CodeValidation            = "validation_error"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeKYCRequired           = "kyc_required"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeInsufficientBalance   = "insufficient_balance"
	CodeDailyLimitExceeded    = "daily_limit_exceeded"
	CodeMonthlyLimitExceeded  = "monthly_limit_exceeded"
	CodeWalletNotActive       = "wallet_not_active"
	CodeInvalidPIN            = "invalid_pin"
	CodePINNotSet             = "pin_not_set"
	CodeInvalidBiometric      = "invalid_biometric"
	CodeDuplicateLoan         = "duplicate_active_loan"
	CodeLoanNotApproved       = "loan_not_approved"
	CodeSlotExhausted         = "slot_exhausted"
	CodeInvestmentNotMatured  = "investment_not_matured"
	CodeLiquidationNotAllowed = "early_liquidation_not_allowed"
	CodeInvalidTransition     = "invalid_status_transition"
	CodeMissingSignature      = "missing_signature"
	CodeInvalidSignature      = "invalid_signature"
	CodeProviderFailure       = "external_service_error"
	CodeComplianceBlocked     = "compliance_blocked"
	CodeInternal              = "internal_error"
)

// AppError carries an HTTP status, a stable machine code and a human
// message across the usecase/handler boundary
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError
func New(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeValidation, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func UnprocessableEntity(code, message string, err error) *AppError {
	return New(http.StatusUnprocessableEntity, code, message, err)
}

func InternalError(err error) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// IsNotFound reports whether err resolves to ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// businessCodes maps sentinel errors to their stable code and status
var businessCodes = map[error]struct {
	code   string
	status int
}{
	ErrInsufficientBalance:   {CodeInsufficientBalance, http.StatusUnprocessableEntity},
	ErrDailyLimitExceeded:    {CodeDailyLimitExceeded, http.StatusUnprocessableEntity},
	ErrMonthlyLimitExceeded:  {CodeMonthlyLimitExceeded, http.StatusUnprocessableEntity},
	ErrWalletNotActive:       {CodeWalletNotActive, http.StatusUnprocessableEntity},
	ErrInvalidPIN:            {CodeInvalidPIN, http.StatusUnauthorized},
	ErrPINNotSet:             {CodePINNotSet, http.StatusUnauthorized},
	ErrInvalidBiometric:      {CodeInvalidBiometric, http.StatusUnauthorized},
	ErrDuplicateLoan:         {CodeDuplicateLoan, http.StatusConflict},
	ErrLoanNotApproved:       {CodeLoanNotApproved, http.StatusUnprocessableEntity},
	ErrSlotExhausted:         {CodeSlotExhausted, http.StatusConflict},
	ErrInvestmentNotMatured:  {CodeInvestmentNotMatured, http.StatusUnprocessableEntity},
	ErrLiquidationNotAllowed: {CodeLiquidationNotAllowed, http.StatusUnprocessableEntity},
	ErrInvalidTransition:     {CodeInvalidTransition, http.StatusConflict},
	ErrMissingSignature:      {CodeMissingSignature, http.StatusUnauthorized},
	ErrInvalidSignature:      {CodeInvalidSignature, http.StatusUnauthorized},
	ErrProviderFailure:       {CodeProviderFailure, http.StatusBadGateway},
	ErrComplianceBlocked:     {CodeComplianceBlocked, http.StatusForbidden},
	ErrKYCRequired:           {CodeKYCRequired, http.StatusForbidden},
	ErrNotFound:              {CodeNotFound, http.StatusNotFound},
	ErrAlreadyExists:         {CodeConflict, http.StatusConflict},
	ErrInvalidInput:          {CodeValidation, http.StatusBadRequest},
	ErrUnauthorized:          {CodeUnauthorized, http.StatusUnauthorized},
	ErrForbidden:             {CodeForbidden, http.StatusForbidden},
}

// FromError normalizes any error into an AppError. Sentinels map to
// their stable codes; everything else becomes a 500 without leaking
// internals.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for sentinel, m := range businessCodes {
		if errors.Is(err, sentinel) {
			return New(m.status, m.code, sentinel.Error(), err)
		}
	}
	return InternalError(err)
}
