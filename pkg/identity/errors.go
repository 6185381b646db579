package identity

import (
	"errors"
	"fmt"
)

// Terminal device-code polling outcomes.
var (
	ErrDeclined            = errors.New("sign-in was declined")
	ErrBadVerificationCode = errors.New("bad verification code")
	ErrExpiredToken        = errors.New("device code expired")
)

// ErrNetwork wraps transport failures and non-2xx responses from any
// identity endpoint.
var ErrNetwork = errors.New("identity service unreachable")

// ErrNoAccount is returned by Accounts when no matching user is stored.
var ErrNoAccount = errors.New("no stored account")

// terminalErrors maps token endpoint error codes that end polling.
var terminalErrors = map[string]error{
	"authorizing_declined":  ErrDeclined,
	"bad_verification_code": ErrBadVerificationCode,
	"expired_token":         ErrExpiredToken,
}

// ExchangeError is returned when an exchange endpoint answers with a non-2xx
// status. It unwraps to ErrNetwork.
type ExchangeError struct {
	Step   string
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Step, e.Status, e.Body)
}

func (e *ExchangeError) Unwrap() error { return ErrNetwork }
