package cli

import "errors"

// Common CLI errors
var (
	ErrScriptFailed = errors.New("script failed")
	ErrNoMessages   = errors.New("no messages to send: use --send or --send-binary")
)

// exitError carries an exit status for a failure that has already been
// reported to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }
