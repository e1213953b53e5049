package reviewapp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CosmoTheDev/reviewapp-agent/internal/heroku"
	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// CreateRequest describes the review app to provision.
type CreateRequest struct {
	RepoOwner  string
	RepoName   string
	Branch     string
	CommitRef  string
	PipelineID string
	// ForkRepoID is set only when the PR comes from a fork.
	ForkRepoID *int64
	PRNumber   int
	RepoURL    string
}

// Provisioner creates and deletes review apps. It never updates one in
// place: the platform cannot change the source or branch of an existing app.
type Provisioner struct {
	platform Platform
	archives ArchiveSource
}

func NewProvisioner(platform Platform, archives ArchiveSource) *Provisioner {
	return &Provisioner{platform: platform, archives: archives}
}

// Create requests a new review app built from a tarball of req.CommitRef and
// returns the platform's immediate, usually not-ready, answer.
func (p *Provisioner) Create(ctx context.Context, req CreateRequest) (*models.ReviewApp, error) {
	archiveURL, err := p.archives.ArchiveURL(ctx, req.RepoOwner, req.RepoName, req.CommitRef)
	if err != nil {
		return nil, fmt.Errorf("fetching source archive: %w", err)
	}
	slog.Info("Fetched source archive", "ref", req.CommitRef)

	opts := heroku.CreateReviewAppOptions{
		Branch:   req.Branch,
		Pipeline: req.PipelineID,
		SourceBlob: heroku.SourceBlob{
			URL:     archiveURL,
			Version: req.CommitRef,
		},
		ForkRepoID:  req.ForkRepoID,
		PRNumber:    req.PRNumber,
		Environment: map[string]string{"GIT_REPO_URL": req.RepoURL},
	}
	slog.Debug("Creating review app", "branch", opts.Branch, "pipeline", opts.Pipeline, "pr", opts.PRNumber, "version", req.CommitRef)

	app, err := p.platform.CreateReviewApp(ctx, opts)
	if err != nil {
		return nil, err
	}
	slog.Info("Created review app", "review_app_id", app.ID, "status", app.Status)
	return app, nil
}

// Delete removes the review app. A rejection (including "already gone") is
// reported as ErrDeleteFailed and not retried.
func (p *Provisioner) Delete(ctx context.Context, app *models.ReviewApp) error {
	if err := p.platform.DeleteReviewApp(ctx, app.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	slog.Info("Deleted review app", "review_app_id", app.ID, "pr", app.PRNumber)
	return nil
}
