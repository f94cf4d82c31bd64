package bitbucket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for repository lookups
var (
	// ErrNoDefaultBranch indicates the repository has neither a main nor a master branch
	ErrNoDefaultBranch = errors.New("repository has no main or master branch")
	// ErrNoCommits indicates the branch has no commits
	ErrNoCommits = errors.New("branch has no commits")
)

// Branch represents a repository branch.
type Branch struct {
	Name   string `json:"name"`
	Target struct {
		Hash string    `json:"hash"`
		Date time.Time `json:"date"`
	} `json:"target"`
}

// Commit represents a repository commit.
type Commit struct {
	Hash    string    `json:"hash"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// DefaultBranch returns the name of the repository's default branch,
// preferring main over master when both exist.
func (c *Client) DefaultBranch(ctx context.Context, repoSlug string) (string, error) {
	params := url.Values{}
	params.Set("q", `name="main" OR name="master"`)

	var resp struct {
		Values []Branch `json:"values"`
	}

	err := c.do(ctx, http.MethodGet, c.repoPath(repoSlug, "/refs/branches"), params, nil, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Values) == 0 {
		return "", ErrNoDefaultBranch
	}

	for _, branch := range resp.Values {
		if branch.Name == "main" {
			return branch.Name, nil
		}
	}

	return resp.Values[0].Name, nil
}

// LatestCommit returns the most recent commit on a branch.
func (c *Client) LatestCommit(ctx context.Context, repoSlug, branch string) (*Commit, error) {
	params := url.Values{}
	params.Set("pagelen", "1")

	var resp struct {
		Values []Commit `json:"values"`
	}

	path := c.repoPath(repoSlug, "/commits/"+url.PathEscape(branch))
	if err := c.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Values) == 0 {
		return nil, ErrNoCommits
	}

	return &resp.Values[0], nil
}
