package core

import (
	"errors"
	"fmt"
)

// ErrNoUpstreamSession is returned when a user has no upstream session or the
// session carries no usable access token. The user has to authenticate with
// the upstream identity provider first.
var ErrNoUpstreamSession = errors.New("no upstream session for user")

// ExchangeError indicates the downstream token-exchange call failed or
// returned an unusable token. It carries the underlying cause for diagnostics;
// callers must not expose the cause verbatim to end users.
type ExchangeError struct {
	Cause error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Cause)
}

func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

func NewExchangeError(cause error) *ExchangeError {
	return &ExchangeError{Cause: cause}
}
