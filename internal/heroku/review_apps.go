package heroku

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// ListReviewApps returns every review app of a pipeline (GET /pipelines/{id}/review-apps).
func (c *Client) ListReviewApps(ctx context.Context, pipelineID string) ([]models.ReviewApp, error) {
	path := "/pipelines/" + url.PathEscape(pipelineID) + "/review-apps"
	slog.Debug("Listing review apps", "path", path)

	b, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing review apps: %w", err)
	}
	resources, err := decodeList[reviewAppResource](b, "review apps")
	if err != nil {
		return nil, err
	}

	apps := make([]models.ReviewApp, 0, len(resources))
	for _, r := range resources {
		apps = append(apps, r.toModel())
	}
	return apps, nil
}

// CreateReviewApp requests a new review app (POST /review-apps). The returned
// app is the platform's immediate answer and is usually not ready yet.
func (c *Client) CreateReviewApp(ctx context.Context, opts CreateReviewAppOptions) (*models.ReviewApp, error) {
	b, err := c.do(ctx, http.MethodPost, "/review-apps", opts)
	if err != nil {
		return nil, fmt.Errorf("creating review app: %w", err)
	}
	r, err := decodeObject[reviewAppResource](b, "review app")
	if err != nil {
		return nil, err
	}
	app := r.toModel()
	return &app, nil
}

// DeleteReviewApp removes a review app by its review-app id (DELETE /review-apps/{id}).
func (c *Client) DeleteReviewApp(ctx context.Context, reviewAppID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/review-apps/"+url.PathEscape(reviewAppID), nil); err != nil {
		return fmt.Errorf("deleting review app %s: %w", reviewAppID, err)
	}
	return nil
}

// GetApp returns the details of a platform app (GET /apps/{id}).
func (c *Client) GetApp(ctx context.Context, appID string) (*models.App, error) {
	b, err := c.do(ctx, http.MethodGet, "/apps/"+url.PathEscape(appID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting app %s: %w", appID, err)
	}
	r, err := decodeObject[appResource](b, "app")
	if err != nil {
		return nil, err
	}
	return &models.App{ID: r.ID, Name: r.Name, WebURL: r.WebURL}, nil
}

// ListBuilds returns the builds of a platform app (GET /apps/{id}/builds).
func (c *Client) ListBuilds(ctx context.Context, appID string) ([]models.Build, error) {
	b, err := c.do(ctx, http.MethodGet, "/apps/"+url.PathEscape(appID)+"/builds", nil)
	if err != nil {
		return nil, fmt.Errorf("listing builds for app %s: %w", appID, err)
	}
	resources, err := decodeList[buildResource](b, "builds")
	if err != nil {
		return nil, err
	}

	builds := make([]models.Build, 0, len(resources))
	for _, r := range resources {
		build := r.toModel()
		if build.AppID == "" {
			build.AppID = appID
		}
		builds = append(builds, build)
	}
	return builds, nil
}
