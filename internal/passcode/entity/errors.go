package entity

import "errors"

var (
	ErrInvalidIdentifier  = errors.New("passcode: invalid identifier")
	ErrMalformedCode      = errors.New("passcode: malformed code")
	ErrNotFoundOrExpired  = errors.New("passcode: not found or expired")
	ErrInvalidCode        = errors.New("passcode: invalid code")
	ErrDeliveryFailed     = errors.New("passcode: delivery failed")
	ErrStorageUnavailable = errors.New("passcode: storage unavailable")
	ErrAccountConflict    = errors.New("passcode: account conflict")
	ErrThrottled          = errors.New("passcode: throttled")
)
