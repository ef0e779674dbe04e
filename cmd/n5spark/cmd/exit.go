package cmd

import (
	"errors"
	"io"
)

// Exit codes of the launcher itself. A propagated wrapper exit code is
// passed through unchanged.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries a specific exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

func exitCode(prog string, err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printErr(stderr, prog, ee.err)
		}
		return ee.code
	}

	printErr(stderr, prog, err)
	return exitFailure
}
