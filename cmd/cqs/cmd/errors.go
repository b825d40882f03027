package cmd

import (
	"errors"
	"fmt"
)

// usageError marks an error as a usage mistake (spec §6 exit code 2,
// e.g. `--tokens 0`), distinct from a runtime/user error (exit code 1).
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func newUsageError(msg string) error {
	return usageError{errors.New(msg)}
}

func isUsageError(err error) bool {
	var u usageError
	return errors.As(err, &u)
}

// errAnotherProcess is the standard message when an index lock is held
// by a different process, shared by every command that writes the
// index (index, watch, gc).
func errAnotherProcess(projectRoot string) error {
	return fmt.Errorf("another cqs process is indexing %s", projectRoot)
}
