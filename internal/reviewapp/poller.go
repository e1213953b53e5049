package reviewapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// DefaultPollInterval is the pause between two inspections of a review app.
const DefaultPollInterval = 5 * time.Second

// Poller waits for a review app to reach a usable state. It retries without
// limit; the hosting workflow's timeout bounds the total wait.
type Poller struct {
	locator  *Locator
	platform Platform
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithInterval overrides DefaultPollInterval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithSleep replaces the wait between polls. Tests use it to avoid sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) { p.sleep = fn }
}

func NewPoller(platform Platform, locator *Locator, opts ...PollerOption) *Poller {
	p := &Poller{
		locator:  locator,
		platform: platform,
		interval: DefaultPollInterval,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AwaitReady blocks until the review app of prNumber has a succeeded build
// for exactly commitRef, and returns that app. Pending states are retried;
// anything terminal fails immediately.
func (p *Poller) AwaitReady(ctx context.Context, pipelineID string, prNumber int, commitRef string) (*models.ReviewApp, error) {
	for attempt := 1; ; attempt++ {
		app, err := p.locator.Locate(ctx, pipelineID, prNumber)
		if err != nil {
			return nil, err
		}
		if app == nil {
			return nil, fmt.Errorf("%w: PR #%d", ErrReviewAppMissing, prNumber)
		}

		done, err := p.checkBuild(ctx, app, commitRef)
		if err != nil {
			return nil, err
		}
		if done {
			slog.Info("Review app is up to date", "pr", prNumber, "app_id", app.RemoteApp.ID, "version", commitRef, "attempts", attempt)
			return app, nil
		}

		slog.Debug("Review app not finished, waiting", "pr", prNumber, "status", app.Status, "attempt", attempt, "interval", p.interval)
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}
}

// AwaitAssigned blocks until the platform has allocated the backing app for
// the review app of prNumber, without looking at builds.
func (p *Poller) AwaitAssigned(ctx context.Context, pipelineID string, prNumber int) (*models.ReviewApp, error) {
	for {
		app, err := p.locator.Locate(ctx, pipelineID, prNumber)
		if err != nil {
			return nil, err
		}
		if app == nil {
			return nil, fmt.Errorf("%w: PR #%d", ErrReviewAppMissing, prNumber)
		}
		if err := checkAppStatus(app); err != nil {
			return nil, err
		}
		if app.Ready() {
			return app, nil
		}

		slog.Debug("Review app has no app id yet, waiting", "pr", prNumber, "status", app.Status)
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}
}

// checkBuild runs one inspection. It returns true once the matching build
// succeeded, false when another poll is needed.
func (p *Poller) checkBuild(ctx context.Context, app *models.ReviewApp, commitRef string) (bool, error) {
	if err := checkAppStatus(app); err != nil {
		return false, err
	}
	if app.Status == models.ReviewAppStatusPending || app.Status == models.ReviewAppStatusCreating {
		return false, nil
	}
	if !app.Ready() {
		return false, nil
	}

	appID := app.RemoteApp.ID
	builds, err := p.platform.ListBuilds(ctx, appID)
	if err != nil {
		return false, err
	}
	slog.Debug("Fetched latest builds", "app_id", appID, "count", len(builds))

	build := matchBuild(builds, commitRef)
	if build == nil {
		return false, fmt.Errorf("%w: no existing build for app ID %s matches version %s (app status %q)",
			ErrBuildNotFound, appID, commitRef, app.Status)
	}
	slog.Info("Found build matching version", "build_id", build.ID, "version", commitRef, "status", build.Status)

	switch build.Status {
	case models.BuildStatusSucceeded:
		return true, nil
	case models.BuildStatusPending:
		return false, nil
	default:
		status := string(build.Status)
		if build.RawStatus != "" {
			status = build.RawStatus
		}
		detail := build.ErrorStatus
		if detail == "" {
			detail = app.ErrorStatus
		}
		return false, fmt.Errorf("%w: %q for build %s: %s", ErrUnexpectedBuildStatus, status, build.ID, orNone(detail))
	}
}

// checkAppStatus fails on states no amount of polling can leave: deletion,
// errors and statuses this client does not recognise.
func checkAppStatus(app *models.ReviewApp) error {
	switch app.Status {
	case models.ReviewAppStatusDeleting, models.ReviewAppStatusDeleted:
		return fmt.Errorf("%w: %s", ErrAppBeingDeleted, describeApp(app))
	case models.ReviewAppStatusErrored, models.ReviewAppStatusUnknown:
		return fmt.Errorf("%w: %s", ErrUnexpectedAppStatus, describeApp(app))
	}
	return nil
}

func describeApp(app *models.ReviewApp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q", statusText(app))
	if app.Message != "" {
		b.WriteString(" - " + app.Message)
	}
	fmt.Fprintf(&b, " (error status: %s)", orNone(app.ErrorStatus))
	return b.String()
}

// matchBuild returns the newest build whose source version is commitRef.
func matchBuild(builds []models.Build, commitRef string) *models.Build {
	var found *models.Build
	for i := range builds {
		b := &builds[i]
		if b.SourceVersion != commitRef {
			continue
		}
		if found == nil || b.CreatedAt.After(found.CreatedAt) {
			found = b
		}
	}
	return found
}

func statusText(app *models.ReviewApp) string {
	if app.RawStatus != "" {
		return app.RawStatus
	}
	return string(app.Status)
}

func orNone(s string) string {
	if s == "" {
		return "no error provided"
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
