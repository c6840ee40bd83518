// Package pkgindex asks a Go package index to pick up a freshly tagged
// module version.
package pkgindex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	relbump "github.com/bcomnes/relbump/pkg"
)

const (
	DefaultPkgsiteURL = "https://pkg.go.dev"
	DefaultProxyURL   = "https://proxy.golang.org"
	DefaultTimeout    = 30 * time.Second
)

// StatusError is returned when the index answers with a non-2xx status.
type StatusError struct {
	Index      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s returned %d", e.Index, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Index, e.StatusCode, body)
}

// Options configures an index client.
type Options struct {
	// URL overrides the index base URL.
	URL     string
	Timeout time.Duration
	Logger  *zap.Logger
}

func newClient(baseURL string, opts Options) (*req.Client, *zap.Logger) {
	if opts.URL != "" {
		baseURL = opts.URL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := req.C().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetUserAgent("relbump")
	return client, logger
}

func check(name string, resp *req.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccessState() {
		return &StatusError{Index: name, StatusCode: resp.StatusCode, Body: resp.String()}
	}
	return nil
}

func validate(modulePath, tag string) error {
	if modulePath == "" {
		return fmt.Errorf("%w: empty module path", relbump.ErrInvalidInput)
	}
	if !semver.IsValid(tag) {
		return fmt.Errorf("%w: %q is not a semantic version tag", relbump.ErrInvalidInput, tag)
	}
	return nil
}

// Pkgsite requests a fetch from pkg.go.dev.
type Pkgsite struct {
	client *req.Client
	log    *zap.Logger
}

var _ relbump.PackageIndex = (*Pkgsite)(nil)

// NewPkgsite returns a pkg.go.dev client.
func NewPkgsite(opts Options) *Pkgsite {
	client, logger := newClient(DefaultPkgsiteURL, opts)
	return &Pkgsite{client: client, log: logger}
}

func (p *Pkgsite) Name() string { return "pkg.go.dev" }

// Notify posts to /fetch/<module>@<tag>.
func (p *Pkgsite) Notify(ctx context.Context, modulePath, tag string) error {
	if err := validate(modulePath, tag); err != nil {
		return err
	}
	path := "/fetch/" + modulePath + "@" + tag
	start := time.Now()
	resp, err := p.client.R().SetContext(ctx).Post(path)
	p.log.Debug("pkgsite fetch", zap.String("path", path), zap.Duration("took", time.Since(start)))
	return check(p.Name(), resp, err)
}

// Proxy warms the Go module proxy by requesting the version's .info file.
type Proxy struct {
	client *req.Client
	log    *zap.Logger
}

var _ relbump.PackageIndex = (*Proxy)(nil)

// NewProxy returns a module proxy client.
func NewProxy(opts Options) *Proxy {
	client, logger := newClient(DefaultProxyURL, opts)
	return &Proxy{client: client, log: logger}
}

func (p *Proxy) Name() string { return "proxy.golang.org" }

// Notify requests /<escaped module>/@v/<escaped tag>.info.
func (p *Proxy) Notify(ctx context.Context, modulePath, tag string) error {
	if err := validate(modulePath, tag); err != nil {
		return err
	}
	escPath, err := module.EscapePath(modulePath)
	if err != nil {
		return fmt.Errorf("%w: %v", relbump.ErrInvalidInput, err)
	}
	escVersion, err := module.EscapeVersion(tag)
	if err != nil {
		return fmt.Errorf("%w: %v", relbump.ErrInvalidInput, err)
	}
	path := "/" + escPath + "/@v/" + escVersion + ".info"
	start := time.Now()
	resp, err := p.client.R().SetContext(ctx).Get(path)
	p.log.Debug("proxy info", zap.String("path", path), zap.Duration("took", time.Since(start)))
	return check(p.Name(), resp, err)
}

// New returns the index named kind, or nil for relbump.IndexNone.
func New(kind string, opts Options) (relbump.PackageIndex, error) {
	switch kind {
	case relbump.IndexNone:
		return nil, nil
	case relbump.IndexPkgsite:
		return NewPkgsite(opts), nil
	case relbump.IndexProxy:
		return NewProxy(opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown package index %q", relbump.ErrInvalidInput, kind)
	}
}
