package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v60/github"

	"github.com/agentops/pdpguard/pkg/spec"
)

// GitHubDispatcher files an issue in the action's repository with the
// rendered alert. Useful when an on-call rotation tracks PDP breakage as
// repository issues rather than chat messages.
type GitHubDispatcher struct {
	client *gh.Client
}

// NewGitHubDispatcher creates a dispatcher for github actions.
func NewGitHubDispatcher(token string) (*GitHubDispatcher, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}
	return &GitHubDispatcher{client: gh.NewClient(httpClient)}, nil
}

// tokenTransport adds Bearer token auth to HTTP requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

func (d *GitHubDispatcher) Type() string { return spec.ActionGitHub }

// Send creates one issue per dispatch. The issue title carries the
// summary; the body is the alert text plus per-target evidence.
func (d *GitHubDispatcher) Send(ctx context.Context, action spec.Action, payload Payload) error {
	owner, name, err := splitRepo(action.Repo)
	if err != nil {
		return fmt.Errorf("github: %w", err)
	}

	title := fmt.Sprintf("%s: %d/%d targets failed", issueTitle(payload), payload.Summary.Failed, payload.Summary.Total)
	body := payload.AlertText()

	req := &gh.IssueRequest{
		Title:  gh.String(title),
		Body:   gh.String(body),
		Labels: &[]string{"pdp-guard"},
	}
	_, _, err = d.client.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return fmt.Errorf("github: create issue in %s/%s: %w", owner, name, err)
	}
	return nil
}

func issueTitle(payload Payload) string {
	if payload.SpecName != "" {
		return payload.SpecName
	}
	if payload.Title != "" {
		return payload.Title
	}
	return "PDP Guard"
}

// splitRepo parses "owner/name".
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q (expected owner/name)", repo)
	}
	return parts[0], parts[1], nil
}
