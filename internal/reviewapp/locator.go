package reviewapp

import (
	"context"
	"log/slog"
	"slices"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// Locator resolves the single authoritative review app of a pull request.
type Locator struct {
	platform Platform
}

func NewLocator(p Platform) *Locator {
	return &Locator{platform: p}
}

// Locate returns the most recently updated review app for prNumber, or nil
// when there is none. An errored app counts as absent so it gets recreated.
//
// A returned app may not be Ready yet: the platform allocates the backing app
// asynchronously, and callers that need it must wait (see Poller).
func (l *Locator) Locate(ctx context.Context, pipelineID string, prNumber int) (*models.ReviewApp, error) {
	apps, err := l.platform.ListReviewApps(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	slog.Debug("Listed review apps", "pipeline", pipelineID, "count", len(apps))

	app := latestForPR(apps, prNumber)
	if app == nil {
		slog.Info("No review app found", "pr", prNumber)
		return nil, nil
	}
	if app.Status == models.ReviewAppStatusErrored {
		slog.Warn("Found review app but its status is errored; treating as absent",
			"pr", prNumber,
			"review_app_id", app.ID,
			"error_status", app.ErrorStatus,
			"message", app.Message,
		)
		return nil, nil
	}
	slog.Info("Found review app", "pr", prNumber, "review_app_id", app.ID, "status", app.Status, "ready", app.Ready())
	return app, nil
}

// latestForPR picks the entry with the greatest UpdatedAt among those for
// prNumber. Stale duplicates left by retried creations lose the tie-break.
func latestForPR(apps []models.ReviewApp, prNumber int) *models.ReviewApp {
	var matching []models.ReviewApp
	for _, a := range apps {
		if a.PRNumber == prNumber {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		return nil
	}
	latest := slices.MaxFunc(matching, func(a, b models.ReviewApp) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return &latest
}
