// Package github implements the release-host collaborator for GitHub, either
// through the gh CLI or directly against the REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	relbump "github.com/bcomnes/relbump/pkg"
	"github.com/bcomnes/relbump/internal/executor"
)

// ErrNoRelease is returned when the repository has no published release.
var ErrNoRelease = errors.New("no published release")

// ErrMalformedResponse is returned when the host answers with something that
// cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// CLI talks to GitHub through the gh command line tool, which brings its own
// authentication.
type CLI struct {
	Exec executor.Executor
	// Path to the gh binary, "gh" by default.
	Path string
	// Repo is an optional "owner/name"; gh infers it from the git remote otherwise.
	Repo string
	// Dir is the working directory gh runs in.
	Dir    string
	Logger *zap.Logger
}

var _ relbump.ReleaseHost = (*CLI)(nil)

func (c *CLI) run(ctx context.Context, args ...string) (*executor.Result, error) {
	path := c.Path
	if path == "" {
		path = "gh"
	}
	if c.Repo != "" {
		args = append(args, "--repo", c.Repo)
	}
	var opts []executor.Option
	if c.Dir != "" {
		opts = append(opts, executor.WithWorkingDir(c.Dir))
	}
	return c.Exec.Execute(ctx, path, args, opts...)
}

type releaseView struct {
	TagName string `json:"tagName"`
}

// LatestTag runs `gh release view --json tagName`.
func (c *CLI) LatestTag(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "release", "view", "--json", "tagName")
	if err != nil {
		if res != nil && strings.Contains(res.Stderr, "release not found") {
			return "", ErrNoRelease
		}
		return "", err
	}
	var view releaseView
	if err := json.Unmarshal([]byte(res.Stdout), &view); err != nil {
		return "", fmt.Errorf("%w: gh release view: %v", ErrMalformedResponse, err)
	}
	if view.TagName == "" {
		return "", fmt.Errorf("%w: gh release view returned no tagName", ErrMalformedResponse)
	}
	return view.TagName, nil
}

// CreateRelease runs `gh release create <tag> --generate-notes`.
func (c *CLI) CreateRelease(ctx context.Context, r relbump.Release) error {
	args := []string{"release", "create", r.Tag}
	if r.GenerateNotes {
		args = append(args, "--generate-notes")
	}
	if _, err := c.run(ctx, args...); err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.Debug("gh release created", zap.String("tag", r.Tag))
	}
	return nil
}
