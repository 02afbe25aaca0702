package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
)

// Validation errors (local input, never sent to the network)
var (
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrMissingData   = errors.New("purchase data is incomplete")
)

// ErrNetwork marks a failed request or non-success status from the backend
var ErrNetwork = errors.New("backend request failed")

// Purchase flow errors
var (
	ErrNotAllowed         = errors.New("purchase not allowed for this club")
	ErrFlowNotFound       = errors.New("flow session not found")
	ErrWrongStep          = errors.New("operation not valid in current step")
	ErrWalletNotConnected = errors.New("no verified wallet connected")
)

// Wallet protocol errors
var (
	ErrChallengeUnavailable = errors.New("wallet challenge unavailable")
	ErrProofRejected        = errors.New("wallet proof rejected")
)

// Payment submission errors
var (
	ErrInstructionUnavailable = errors.New("deposit instruction unavailable")
	ErrTransferRejected       = errors.New("transfer declined by wallet")
	ErrTransferFailed         = errors.New("transfer failed")
)

// NotAllowedError carries the server's human reason and club contacts for the
// shared error display state.
type NotAllowedError struct {
	Reason   string
	Contacts []Contact
}

func (e *NotAllowedError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return ErrNotAllowed.Error()
}

func (e *NotAllowedError) Unwrap() error { return ErrNotAllowed }
