package gitvcs

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is().

// ErrNotRepository is returned when no repository contains the working directory.
var ErrNotRepository = errors.New("not a git repository")

// ErrAlreadyUpToDate is returned when a push has nothing to send. For a
// version bump that means the commit did not land on the pushed branch.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrNotFastForward is returned when the remote branch has commits the local
// branch does not.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrTagMissing is returned when a tag cannot be found, even after fetching.
var ErrTagMissing = errors.New("tag does not exist")

// ErrInvalidRef is returned for empty or malformed arguments.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision or remote cannot be resolved.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrEmptyCommit is returned when nothing is staged.
var ErrEmptyCommit = errors.New("nothing staged for commit")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
