package relbump

import "context"

// VCS is the version-control collaborator.
type VCS interface {
	// HeadCommit returns the commit hash at the tip of the main line.
	HeadCommit(ctx context.Context) (string, error)
	// TagCommit returns the commit hash the given tag points to.
	TagCommit(ctx context.Context, tag string) (string, error)
	// Stage adds a file to the pending change set.
	Stage(ctx context.Context, path string) error
	// Commit records the staged files and returns the new commit hash.
	Commit(ctx context.Context, message string) (string, error)
	// Push publishes the main line to the shared remote.
	Push(ctx context.Context) error
}

// Release is what gets submitted to the release host.
type Release struct {
	Tag           string
	GenerateNotes bool
}

// ReleaseHost is the release-hosting collaborator.
type ReleaseHost interface {
	// LatestTag returns the tag name of the most recent published release.
	LatestTag(ctx context.Context) (string, error)
	// CreateRelease publishes a release for r.Tag.
	CreateRelease(ctx context.Context, r Release) error
}

// PackageIndex is the package-index collaborator.
type PackageIndex interface {
	// Name is used in operator messages.
	Name() string
	// Notify asks the index to pick up version tag of modulePath.
	Notify(ctx context.Context, modulePath, tag string) error
}
