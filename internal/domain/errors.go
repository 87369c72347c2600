package domain

import "errors"

var (
	ErrDecode             = errors.New("invalid instruction data")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotConfigured      = errors.New("not configured")
	ErrUntrustedSource    = errors.New("untrusted price source")
	ErrMalformedFeed      = errors.New("malformed price feed")
	ErrStalePrice         = errors.New("stale price")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrNegativeResult     = errors.New("negative result")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrMissingAccount     = errors.New("missing account")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrDecode, "invalid_instruction"},
	{ErrUnauthorized, "unauthorized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrNotConfigured, "not_configured"},
	{ErrUntrustedSource, "untrusted_source"},
	{ErrMalformedFeed, "malformed_feed"},
	{ErrStalePrice, "stale_price"},
	{ErrArithmeticOverflow, "arithmetic_overflow"},
	{ErrNegativeResult, "negative_result"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrMissingAccount, "missing_account"},
}

// Code returns the stable wire code of a processor rejection, or "" when err
// is not one of the sentinels above.
func Code(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}
