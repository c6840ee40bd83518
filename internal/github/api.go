package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"

	relbump "github.com/bcomnes/relbump/pkg"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("github api returned %d: %s", e.StatusCode, e.Message)
}

// API talks to the GitHub REST API.
type API struct {
	client *req.Client
	owner  string
	name   string
	branch string
	log    *zap.Logger
}

var _ relbump.ReleaseHost = (*API)(nil)

// APIOption customises the underlying req client.
type APIOption func(client *req.Client)

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(url string) APIOption {
	return func(client *req.Client) {
		client.SetBaseURL(url)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) APIOption {
	return func(client *req.Client) {
		client.SetTimeout(d)
	}
}

// NewAPI creates a REST release host for repo ("owner/name"). branch is the
// commitish new releases are cut from.
func NewAPI(repo, token, branch string, logger *zap.Logger, opts ...APIOption) (*API, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: repository must be owner/name, got %q", relbump.ErrInvalidInput, repo)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := req.C().
		SetBaseURL(DefaultAPIURL).
		SetTimeout(30*time.Second).
		SetCommonHeader("Accept", "application/vnd.github+json").
		SetCommonHeader("X-GitHub-Api-Version", "2022-11-28").
		SetUserAgent("relbump")
	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}
	for _, opt := range opts {
		opt(client)
	}
	return &API{client: client, owner: owner, name: name, branch: branch, log: logger}, nil
}

func (a *API) path(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s/%s", a.owner, a.name, suffix)
}

// assertOk turns transport errors and non-2xx answers into errors.
func assertOk(resp *req.Response, err error, apiErr *APIError) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccessState() {
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	return nil
}

type releaseTO struct {
	TagName              string `json:"tag_name"`
	TargetCommitish      string `json:"target_commitish,omitempty"`
	GenerateReleaseNotes bool   `json:"generate_release_notes,omitempty"`
	HTMLURL              string `json:"html_url,omitempty"`
}

// LatestTag fetches the latest published release.
func (a *API) LatestTag(ctx context.Context) (string, error) {
	var latest releaseTO
	var apiErr APIError
	start := time.Now()
	resp, err := a.client.R().
		SetContext(ctx).
		SetSuccessResult(&latest).
		SetErrorResult(&apiErr).
		Get(a.path("releases/latest"))
	a.log.Debug("github get latest release", zap.String("repo", a.owner+"/"+a.name), zap.Duration("took", time.Since(start)))
	if err := assertOk(resp, err, &apiErr); err != nil {
		if apiErr.StatusCode == http.StatusNotFound {
			return "", ErrNoRelease
		}
		return "", err
	}
	if latest.TagName == "" {
		return "", fmt.Errorf("%w: latest release has no tag_name", ErrMalformedResponse)
	}
	return latest.TagName, nil
}

// CreateRelease creates and publishes a release for r.Tag.
func (a *API) CreateRelease(ctx context.Context, r relbump.Release) error {
	var created releaseTO
	var apiErr APIError
	start := time.Now()
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(&releaseTO{
			TagName:              r.Tag,
			TargetCommitish:      a.branch,
			GenerateReleaseNotes: r.GenerateNotes,
		}).
		SetSuccessResult(&created).
		SetErrorResult(&apiErr).
		Post(a.path("releases"))
	a.log.Debug("github create release", zap.String("tag", r.Tag), zap.Duration("took", time.Since(start)))
	if err := assertOk(resp, err, &apiErr); err != nil {
		return err
	}
	a.log.Info("release published", zap.String("url", created.HTMLURL))
	return nil
}
