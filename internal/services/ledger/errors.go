package ledger

import (
	"errors"
	"fmt"
)

// Code classifies a ledger failure. Callers use the class to decide whether
// a retry is safe: infrastructure failures may be retried, validation and
// consistency failures must not be.
type Code string

const (
	CodeInvalidAccount        Code = "invalid_account"
	CodeTenantNotConfigured   Code = "tenant_not_configured"
	CodeTenantConnection      Code = "tenant_connection_failed"
	CodeOperatorMaintain      Code = "operator_maintain"
	CodeOperatorDecommission  Code = "operator_decommission"
	CodeProductNotEnabled     Code = "product_not_enabled"
	CodeCurrencyRateMissing   Code = "currency_rate_missing"
	CodeSeamlessMisconfigured Code = "seamless_misconfigured"
	CodeWalletInitFailed      Code = "wallet_init_failed"
	CodeInvalidAmount         Code = "invalid_amount"
	CodeInsufficientBalance   Code = "insufficient_balance"
	CodeTransactionFailed     Code = "wallet_transaction_failed"
	CodeRemoteUnavailable     Code = "remote_wallet_unavailable"
	CodeWalletNotFound        Code = "wallet_not_found"
)

// Class groups codes by retry semantics.
type Class string

const (
	ClassConfiguration  Class = "configuration"
	ClassValidation     Class = "validation"
	ClassConsistency    Class = "consistency"
	ClassInfrastructure Class = "infrastructure"
)

// Error is a classified ledger failure.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("ledger %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Class reports the failure class for e.Code.
func (e *Error) Class() Class {
	switch e.Code {
	case CodeInvalidAccount, CodeInvalidAmount:
		return ClassValidation
	case CodeInsufficientBalance:
		return ClassConsistency
	case CodeTenantConnection, CodeTransactionFailed, CodeRemoteUnavailable:
		return ClassInfrastructure
	default:
		return ClassConfiguration
	}
}

// Retryable reports whether a caller may safely retry the operation.
func (e *Error) Retryable() bool {
	return e.Class() == ClassInfrastructure && e.Code != CodeTransactionFailed
}

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf extracts the ledger code from err, or empty if err is not a ledger
// error.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
