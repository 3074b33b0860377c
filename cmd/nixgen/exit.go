package main

import "errors"

// exitError carries a process exit code through cobra. An empty message
// means the details were already printed.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// errDiagnostics is returned when the build reported errors.
var errDiagnostics = &exitError{code: 1}

func exitCodeOf(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
