package relbump

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"

	"github.com/bcomnes/relbump/internal/executor"
)

// BumpKind selects which component of the version is incremented.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
)

// ParseBumpKind accepts exactly "major" or "minor". There is no default.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(s) {
	case BumpMajor, BumpMinor:
		return BumpKind(s), nil
	case "":
		return "", fmt.Errorf("%w: please specify the bump kind (major or minor)", ErrInvalidInput)
	default:
		return "", fmt.Errorf("%w: unknown bump kind %q, expected major or minor", ErrInvalidInput, s)
	}
}

// Normalize strips a single leading "v" from a tag name. Anything else is
// passed through unchanged.
func Normalize(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// TagName returns the tag for a version ("2.6.0" -> "v2.6.0").
func TagName(version string) string {
	return "v" + version
}

// Major returns the major component of a version with or without the "v" prefix.
func Major(version string) (int, error) {
	v := TagName(Normalize(version))
	if !modsemver.IsValid(v) {
		return 0, fmt.Errorf("%w: %q is not valid semver", ErrParse, version)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(modsemver.Major(v), "v"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrParse, version, err)
	}
	return n, nil
}

// parseRelease parses a version without "v". Prerelease and build metadata
// are rejected; release tags never carry them.
func parseRelease(version string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParse, version, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return nil, fmt.Errorf("%w: %q is not a release version", ErrParse, version)
	}
	return v, nil
}

// Bumper computes the next version from the current one.
type Bumper interface {
	Bump(ctx context.Context, current string, kind BumpKind) (string, error)
}

// LibraryBumper increments versions in process with Masterminds/semver.
type LibraryBumper struct{}

// Bump implements Bumper.
func (LibraryBumper) Bump(_ context.Context, current string, kind BumpKind) (string, error) {
	v, err := parseRelease(current)
	if err != nil {
		return "", err
	}
	var next semver.Version
	switch kind {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	default:
		return "", fmt.Errorf("%w: unknown bump kind %q", ErrInvalidInput, kind)
	}
	return next.String(), nil
}

// CommandBumper delegates the arithmetic to an external semver CLI
// (`semver -i <kind> <version>`) and validates what it prints.
type CommandBumper struct {
	Exec executor.Executor
	Path string
}

// Bump implements Bumper.
func (b CommandBumper) Bump(ctx context.Context, current string, kind BumpKind) (string, error) {
	if _, err := parseRelease(current); err != nil {
		return "", err
	}
	path := b.Path
	if path == "" {
		path = "semver"
	}
	res, err := b.Exec.Execute(ctx, path, []string{"-i", string(kind), current})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	next := Normalize(strings.TrimSpace(res.Stdout))
	if _, err := parseRelease(next); err != nil {
		return "", fmt.Errorf("%s printed %q: %w", path, res.Stdout, err)
	}
	return next, nil
}
