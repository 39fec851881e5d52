package loginguard

import "errors"

// Rejection reasons returned by Authenticate. ErrInvalidCredentials and
// ErrAccountLocked must be rendered identically to clients.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	// ErrPersistence means the ledger or the account store could not be
	// reached. Authentication fails closed.
	ErrPersistence = errors.New("login guard persistence failure")
	// ErrUserNotFound is returned by Unlock for an unknown user id.
	ErrUserNotFound = errors.New("user not found")
)

// persistence wraps a storage fault so callers can match ErrPersistence while
// logs keep the cause.
type persistenceError struct {
	op  string
	err error
}

func (e *persistenceError) Error() string {
	return "login guard: " + e.op + ": " + e.err.Error()
}

func (e *persistenceError) Unwrap() []error { return []error{ErrPersistence, e.err} }

func persistence(op string, err error) error {
	return &persistenceError{op: op, err: err}
}
