// Package main implements the relbump CLI tool.
//
// relbump automates the release of a versioned library hosted on GitHub. Given a
// bump kind it reads the latest published release, computes the next semantic
// version, refuses to continue when main has not moved since that release,
// rewrites the version in the project's files, commits and pushes the change,
// creates a GitHub release with generated notes and finally asks the package
// index (pkg.go.dev by default) to fetch the new version.
//
// Command Usage:
//
//	relbump release --bump major|minor [flags]
//	relbump plan --bump major|minor [flags]
//	relbump version
//
// Flags:
//
//	--bump:      The bump kind, major or minor. Required.
//	--profile:   The release profile, go (default) or java.
//	--dry-run:   Compute the release and list the files that would change without
//	             writing, committing or publishing anything.
//	--dir:       The project directory (default ".").
//	--config:    A config file (default .relbump.yaml in the project directory,
//	             the working directory or $HOME).
//	--log-level: debug, info, warn, error or none.
//
// Every configuration key can also be set through a RELBUMP_ environment
// variable, e.g. RELBUMP_HOST_BACKEND=api or RELBUMP_GIT_BRANCH=trunk.
// GITHUB_TOKEN is used for pushing and for the REST backend when no token is
// configured.
//
// Examples:
//
//	# Release the next minor version of a Go library (v2.5.1 → v2.6.0)
//	relbump release --bump minor
//
//	# Release a new major version; go.mod, README and every self import move to /v3
//	relbump release --bump major
//
//	# Show what a major release would change
//	relbump release --bump major --dry-run
//
//	# Release a Java library, bumping README.md and build.gradle with the semver tool
//	relbump release --bump minor --profile java
//
//	# Use the GitHub REST API instead of the gh CLI
//	RELBUMP_HOST_BACKEND=api RELBUMP_HOST_REPO=seatsio/seatsio-go relbump release --bump minor
//
// If creating the release fails after the bump was pushed, relbump prints a
// reminder to revert the version change; nothing is rolled back automatically.
//
// For more detailed API documentation, please see the documentation in the "pkg" package
// or visit [PkgGoDev](https://pkg.go.dev/github.com/bcomnes/relbump).
package main
