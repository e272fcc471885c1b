package main

import "fmt"

const (
	exitCodeFailure  = 1
	exitCodeCanceled = 130
)

// exitError carries a process exit code. A silent error has already been
// reported to the user and is not printed again.
type exitError struct {
	code   int
	err    error
	silent bool
}

func silentExit(code int, err error) *exitError {
	return &exitError{code: code, err: err, silent: true}
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
