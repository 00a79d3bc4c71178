package main

import (
	"errors"
	"io"
	"strconv"

	"github.com/blinders/blinders-cli/internal/domain/report"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitAborted = 2
	exitUsage   = 3
)

// exitError carries a specific exit code out of a command. A nil err means
// the command already reported its outcome.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCodeFor maps an overall deployment status to an exit code.
func exitCodeFor(status report.OverallStatus) int {
	switch status {
	case report.OverallSuccess:
		return exitOK
	case report.OverallAborted:
		return exitAborted
	default:
		return exitFailed
	}
}

// exitCode prints err to w and returns the process exit code for it.
// Errors without an explicit code are argument, validation, configuration
// or plan errors.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printErrorTo(w, ee.err)
		}
		return ee.code
	}

	printErrorTo(w, err)
	return exitUsage
}
