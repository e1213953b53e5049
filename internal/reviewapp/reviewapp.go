// Package reviewapp locates, provisions and waits on the review app that
// belongs to a pull request. It only observes platform state; every state
// transition happens remotely.
package reviewapp

import (
	"context"
	"errors"

	"github.com/CosmoTheDev/reviewapp-agent/internal/heroku"
	"github.com/CosmoTheDev/reviewapp-agent/models"
)

var (
	ErrAppBeingDeleted       = errors.New("review app is being deleted")
	ErrUnexpectedAppStatus   = errors.New("unexpected review app status")
	ErrBuildNotFound         = errors.New("no build matches the expected commit")
	ErrUnexpectedBuildStatus = errors.New("unexpected build status")
	ErrDeleteFailed          = errors.New("deleting review app failed")
	// ErrReviewAppMissing is returned when an app that was expected to exist
	// (because this run just created it) is absent or errored.
	ErrReviewAppMissing = errors.New("review app disappeared")
)

// Platform is the subset of the deployment platform used here.
// *heroku.Client implements it.
type Platform interface {
	ListReviewApps(ctx context.Context, pipelineID string) ([]models.ReviewApp, error)
	CreateReviewApp(ctx context.Context, opts heroku.CreateReviewAppOptions) (*models.ReviewApp, error)
	DeleteReviewApp(ctx context.Context, reviewAppID string) error
	GetApp(ctx context.Context, appID string) (*models.App, error)
	ListBuilds(ctx context.Context, appID string) ([]models.Build, error)
}

// ArchiveSource hands out downloadable source archives.
// repository.GitHubProvider implements it.
type ArchiveSource interface {
	ArchiveURL(ctx context.Context, owner, repo, ref string) (string, error)
}
