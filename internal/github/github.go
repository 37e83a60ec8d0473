// Package github posts review reports as pull request comments using the
// go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"
)

// Client posts comments to a pull request.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// NewClient creates a client for the "owner/repo" repository using a
// personal access token.
func NewClient(token, repoFullName string) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}
	return &Client{
		gh:    gh.NewClient(nil).WithAuthToken(token),
		owner: owner,
		repo:  repo,
	}, nil
}

// NewClientWithHTTPClient creates a Client against a custom base URL. This
// constructor exists for tests, which point it at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, repoFullName string) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	return &Client{gh: client, owner: owner, repo: repo}, nil
}

// PostReviewComment publishes the report body as an issue comment on the
// pull request. Pull requests share the issue comment endpoint, which keeps
// the report as one ordinary top-level comment.
func (c *Client) PostReviewComment(ctx context.Context, prNumber int, body string) error {
	if prNumber <= 0 {
		return fmt.Errorf("invalid pull request number %d", prNumber)
	}
	comment := &gh.IssueComment{Body: gh.Ptr(body)}
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, prNumber, comment)
	if err != nil {
		return fmt.Errorf("posting review comment on %s/%s#%d: %w", c.owner, c.repo, prNumber, err)
	}
	return nil
}

func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
