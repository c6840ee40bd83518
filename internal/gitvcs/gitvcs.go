// Package gitvcs implements the release orchestrator's version-control
// collaborator on top of go-git. No git binary is required.
package gitvcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

const (
	// DefaultRemoteName is the remote pushed to and fetched from.
	DefaultRemoteName = "origin"

	// DefaultBranch is the main line of history.
	DefaultBranch = "main"
)

// Options configures a Repo.
type Options struct {
	// Dir is where relative paths are resolved from. Parent directories are
	// searched for .git.
	Dir    string
	Remote string
	Branch string
	// Token enables HTTP basic auth against https remotes. When empty
	// go-git's defaults apply (ssh-agent for ssh remotes).
	Token string
	// AuthorName and AuthorEmail override the identity from git config.
	AuthorName  string
	AuthorEmail string
	// FetchTags fetches a tag from Remote before resolving it. Release tags
	// are created by the release host, so they are usually not local yet.
	FetchTags bool
	// ForceTags lets the fetch overwrite a local tag that differs from the
	// remote one. Without it a tag that already exists locally is used as is.
	ForceTags bool
	Logger    *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.Remote == "" {
		o.Remote = DefaultRemoteName
	}
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Repo is a git working tree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	options  Options
	log      *zap.Logger
}

// Open opens the repository containing opts.Dir.
func Open(opts Options) (*Repo, error) {
	opts.applyDefaults()
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, WrapErrorf(err, "failed to resolve %s", opts.Dir)
	}
	opts.Dir = dir
	repo, err := git.PlainOpenWithOptions(opts.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, WrapErrorf(ErrNotRepository, "%s", opts.Dir)
		}
		return nil, WrapErrorf(err, "failed to open repository at %s", opts.Dir)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}
	return &Repo{repo: repo, worktree: wt, options: opts, log: opts.Logger}, nil
}

// Root returns the absolute worktree root.
func (r *Repo) Root() string {
	return r.worktree.Filesystem.Root()
}

func (r *Repo) auth() transport.AuthMethod {
	if r.options.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: r.options.Token}
}

// HeadCommit returns the commit hash HEAD points to.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}
	r.log.Debug("git rev-parse", zap.String("rev", "HEAD"), zap.String("hash", ref.Hash().String()))
	return ref.Hash().String(), nil
}

// TagCommit returns the commit hash tag points to. Annotated tags are peeled.
func (r *Repo) TagCommit(ctx context.Context, tag string) (string, error) {
	if tag == "" {
		return "", WrapError(ErrInvalidRef, "tag cannot be empty")
	}
	if r.options.FetchTags {
		if err := r.fetchTag(ctx, tag); err != nil {
			return "", err
		}
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(plumbing.NewTagReferenceName(tag).String()))
	if err != nil {
		return "", WrapErrorf(ErrTagMissing, "%s", tag)
	}
	r.log.Debug("git rev-list", zap.String("tag", tag), zap.String("hash", hash.String()))
	return hash.String(), nil
}

func (r *Repo) fetchTag(ctx context.Context, tag string) error {
	ref := plumbing.NewTagReferenceName(tag)
	spec := config.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))
	if !r.options.ForceTags {
		if _, err := r.repo.Reference(ref, false); err == nil {
			r.log.Debug("git fetch tag skipped", zap.String("tag", tag))
			return nil
		}
		spec = config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	}
	start := time.Now()
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: r.options.Remote,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       r.auth(),
		Tags:       git.NoTags,
	})
	r.log.Debug("git fetch tag", zap.String("remote", r.options.Remote), zap.String("refspec", spec.String()),
		zap.Duration("took", time.Since(start)), zap.Error(err))
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.NoMatchingRefSpecError{}):
		// Not on the remote; resolving reports the missing tag.
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		return WrapErrorf(ErrResolveFailed, "remote %s not found", r.options.Remote)
	default:
		return WrapErrorf(err, "failed to fetch tag %s", tag)
	}
}

// Stage adds path to the index. Relative paths are taken from Options.Dir;
// every path must lie inside the worktree.
func (r *Repo) Stage(ctx context.Context, path string) error {
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(r.options.Dir, path)
	}
	rel, err := filepath.Rel(r.Root(), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return WrapErrorf(ErrInvalidRef, "path %s is outside the worktree", path)
	}
	if _, err := r.worktree.Add(filepath.ToSlash(rel)); err != nil {
		return WrapErrorf(err, "failed to add path %q", path)
	}
	r.log.Debug("git add", zap.String("path", rel))
	return nil
}

// Commit records the staged changes and returns the new commit hash.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}
	opts := &git.CommitOptions{}
	if r.options.AuthorName != "" && r.options.AuthorEmail != "" {
		sig := &object.Signature{Name: r.options.AuthorName, Email: r.options.AuthorEmail, When: time.Now()}
		opts.Author = sig
		opts.Committer = sig
	}
	hash, err := r.worktree.Commit(message, opts)
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}
	r.log.Debug("git commit", zap.String("message", message), zap.String("hash", hash.String()))
	return hash.String(), nil
}

// Push pushes the main line branch to the remote.
// Returns ErrNotFastForward if the remote has moved on.
func (r *Repo) Push(ctx context.Context) error {
	branch := plumbing.NewBranchReferenceName(r.options.Branch)
	start := time.Now()
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.options.Remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", branch, branch))},
		Auth:       r.auth(),
	})
	r.log.Debug("git push", zap.String("remote", r.options.Remote), zap.String("branch", r.options.Branch),
		zap.Duration("took", time.Since(start)), zap.Error(err))
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return WrapErrorf(ErrResolveFailed, "remote %s not found", r.options.Remote)
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, git.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return WrapError(err, "failed to push to remote")
	}
	return nil
}
