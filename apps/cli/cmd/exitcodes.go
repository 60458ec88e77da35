package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/chitose/packages/http"
	"github.com/spf13/cobra"
)

// Exit codes for chitose CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitFailure indicates the request or a check on its response failed
	ExitFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for err. reported is set when the
// error has already been printed.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func reported(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		ee.reported = true
		return err
	}
	return &exitError{code: exitCodeFor(err), err: err, reported: true}
}

// exitCodeFor maps err to an exit code. Call failures map by kind: bad
// input is a usage error, transport failures are network errors.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch http.KindOf(err) {
	case http.KindInvalidURL, http.KindInvalidHeader, http.KindInvalidQueryPayload:
		return ExitUsageError
	case http.KindNetwork:
		return ExitNetworkError
	}
	return ExitFailure
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExitCode(ExitUsageError, fn(cmd, args))
	}
}
