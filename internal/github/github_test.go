package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/relbump/internal/executor"
	relbump "github.com/bcomnes/relbump/pkg"
)

type call struct {
	program string
	args    []string
}

type scriptedExec struct {
	calls  []call
	stdout string
	stderr string
	err    error
}

func (s *scriptedExec) Execute(_ context.Context, program string, args []string, _ ...executor.Option) (*executor.Result, error) {
	s.calls = append(s.calls, call{program: program, args: args})
	return &executor.Result{Stdout: s.stdout, Stderr: s.stderr, Err: s.err}, s.err
}

func TestCLILatestTag(t *testing.T) {
	ex := &scriptedExec{stdout: `{"tagName":"v2.5.1"}` + "\n"}
	c := &CLI{Exec: ex}

	tag, err := c.LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.5.1", tag)
	require.Len(t, ex.calls, 1)
	assert.Equal(t, "gh", ex.calls[0].program)
	assert.Equal(t, []string{"release", "view", "--json", "tagName"}, ex.calls[0].args)
}

func TestCLILatestTagFailures(t *testing.T) {
	t.Run("no release", func(t *testing.T) {
		c := &CLI{Exec: &scriptedExec{stderr: "release not found\n", err: errors.New("exit status 1")}}
		_, err := c.LatestTag(context.Background())
		assert.ErrorIs(t, err, ErrNoRelease)
	})
	t.Run("command fails", func(t *testing.T) {
		boom := errors.New("gh: authentication required")
		c := &CLI{Exec: &scriptedExec{err: boom}}
		_, err := c.LatestTag(context.Background())
		assert.ErrorIs(t, err, boom)
	})
	t.Run("not json", func(t *testing.T) {
		c := &CLI{Exec: &scriptedExec{stdout: "v2.5.1"}}
		_, err := c.LatestTag(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
	t.Run("empty tag", func(t *testing.T) {
		c := &CLI{Exec: &scriptedExec{stdout: `{}`}}
		_, err := c.LatestTag(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestCLICreateRelease(t *testing.T) {
	ex := &scriptedExec{}
	c := &CLI{Exec: ex, Path: "/opt/gh", Repo: "seatsio/seatsio-go"}

	require.NoError(t, c.CreateRelease(context.Background(), relbump.Release{Tag: "v2.6.0", GenerateNotes: true}))
	require.Len(t, ex.calls, 1)
	assert.Equal(t, "/opt/gh", ex.calls[0].program)
	assert.Equal(t, []string{"release", "create", "v2.6.0", "--generate-notes", "--repo", "seatsio/seatsio-go"}, ex.calls[0].args)

	ex.err = errors.New("exit status 1")
	assert.Error(t, c.CreateRelease(context.Background(), relbump.Release{Tag: "v2.6.0"}))
}

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api, err := NewAPI("seatsio/seatsio-go", "secret", "main", nil, WithBaseURL(srv.URL))
	require.NoError(t, err)
	return api
}

func TestNewAPIRejectsBadRepo(t *testing.T) {
	for _, repo := range []string{"", "seatsio", "/seatsio-go", "seatsio/", "a/b/c"} {
		_, err := NewAPI(repo, "", "main", nil)
		assert.ErrorIs(t, err, relbump.ErrInvalidInput, repo)
	}
}

func TestAPILatestTag(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/seatsio/seatsio-go/releases/latest", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v2.5.1","name":"v2.5.1"}`))
	})

	tag, err := api.LatestTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.5.1", tag)
}

func TestAPILatestTagFailures(t *testing.T) {
	t.Run("no release", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		})
		_, err := api.LatestTag(context.Background())
		assert.ErrorIs(t, err, ErrNoRelease)
	})
	t.Run("server error", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
		})
		_, err := api.LatestTag(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "upstream down")
	})
	t.Run("empty tag", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		})
		_, err := api.LatestTag(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestAPICreateRelease(t *testing.T) {
	var got map[string]any
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/seatsio/seatsio-go/releases", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"tag_name":"v2.6.0","html_url":"https://github.com/seatsio/seatsio-go/releases/tag/v2.6.0"}`))
	})

	require.NoError(t, api.CreateRelease(context.Background(), relbump.Release{Tag: "v2.6.0", GenerateNotes: true}))
	assert.Equal(t, "v2.6.0", got["tag_name"])
	assert.Equal(t, "main", got["target_commitish"])
	assert.Equal(t, true, got["generate_release_notes"])
}

func TestAPICreateReleaseRejected(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	})

	err := api.CreateRelease(context.Background(), relbump.Release{Tag: "v2.6.0", GenerateNotes: true})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}
