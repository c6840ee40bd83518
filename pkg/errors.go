package relbump

import (
	"errors"
	"fmt"
)

// Sentinel errors for each way a release run can fail.
// Every error returned by Orchestrator.Run matches exactly one of these with errors.Is.

// ErrInvalidInput is returned when the bump kind (or another caller supplied
// value) is missing or not allowed.
var ErrInvalidInput = errors.New("invalid input")

// ErrUpstreamQuery is returned when the release host cannot report the latest
// release tag.
var ErrUpstreamQuery = errors.New("release host query failed")

// ErrParse is returned when a version string is not valid semver.
var ErrParse = errors.New("unparseable version")

// ErrNoChanges is returned when the main line has not moved since the latest
// release tag.
var ErrNoChanges = errors.New("no changes since release")

// ErrVersionMismatch is returned when a validated file edit cannot find the
// previous version string.
var ErrVersionMismatch = errors.New("version mismatch")

// ErrFileEdit is returned when a target file cannot be read, scanned or written.
var ErrFileEdit = errors.New("file edit failed")

// ErrVCS is returned when a version-control operation fails or is rejected.
var ErrVCS = errors.New("version control failure")

// ErrReleaseCreation is returned when the release host refuses the new release.
// The version bump commit has already been pushed at that point.
var ErrReleaseCreation = errors.New("release creation failed")

// ErrNotification is returned when the package index could not be notified.
// The release has already been created at that point.
var ErrNotification = errors.New("package index notification failed")

// VersionMismatchError names the file and the substring a validated edit
// expected to find.
type VersionMismatchError struct {
	Path    string
	Missing string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("not the correct version: could not find %q in %s", e.Missing, e.Path)
}

// Is reports whether target is ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// StepError records which pipeline step failed.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

// Unwrap exposes both the error kind and the underlying cause to errors.Is and errors.As.
func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stepErr(step Step, kind, err error) error {
	return &StepError{Step: step, Kind: kind, Err: err}
}
