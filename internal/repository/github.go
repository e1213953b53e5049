package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHubProvider implements CodeHost for GitHub and GitHub Enterprise.
type GitHubProvider struct {
	client *gogithub.Client
}

// NewGitHub creates a GitHubProvider authenticated with token. apiURL selects
// a GitHub Enterprise API endpoint when non-empty.
func NewGitHub(ctx context.Context, token, apiURL string) (*GitHubProvider, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := gogithub.NewClient(tc)

	if apiURL != "" {
		base := strings.TrimRight(apiURL, "/") + "/"
		upload := strings.Replace(base, "/api/v3/", "/api/uploads/", 1)
		var err error
		client, err = client.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub enterprise URLs: %w", err)
		}
	}
	return &GitHubProvider{client: client}, nil
}

// NewGitHubFromClient wraps an existing go-github client.
func NewGitHubFromClient(client *gogithub.Client) *GitHubProvider {
	return &GitHubProvider{client: client}
}

func (g *GitHubProvider) ArchiveURL(ctx context.Context, owner, repo, ref string) (string, error) {
	slog.Debug("Fetching archive link", "owner", owner, "repo", repo, "ref", ref)
	u, _, err := g.client.Repositories.GetArchiveLink(ctx, owner, repo, gogithub.Tarball,
		&gogithub.RepositoryContentGetOptions{Ref: ref}, 1)
	if err != nil {
		return "", fmt.Errorf("getting tarball link for %s/%s@%s: %w", owner, repo, ref, err)
	}
	return u.String(), nil
}

func (g *GitHubProvider) AddLabel(ctx context.Context, owner, repo string, number int, label string) error {
	if _, _, err := g.client.Issues.AddLabelsToIssue(ctx, owner, repo, number, []string{label}); err != nil {
		return fmt.Errorf("adding label %q to %s/%s#%d: %w", label, owner, repo, number, err)
	}
	return nil
}

func (g *GitHubProvider) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, &gogithub.IssueComment{
		Body: gogithub.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("commenting on %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// Authenticated returns the login of the token's owner. Used by doctor.
func (g *GitHubProvider) Authenticated(ctx context.Context) (string, error) {
	u, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("getting authenticated GitHub user: %w", err)
	}
	return u.GetLogin(), nil
}
