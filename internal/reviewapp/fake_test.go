package reviewapp

import (
	"context"
	"sync"
	"time"

	"github.com/CosmoTheDev/reviewapp-agent/internal/heroku"
	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// fakePlatform serves scripted answers. Each list call consumes the next
// entry of its script; the last entry repeats once the script runs out.
type fakePlatform struct {
	mu sync.Mutex

	reviewApps [][]models.ReviewApp
	builds     [][]models.Build
	listErr    error
	deleteErr  error

	listCalls   int
	buildCalls  int
	deleted     []string
	created     []heroku.CreateReviewAppOptions
	createReply *models.ReviewApp
}

func (f *fakePlatform) ListReviewApps(ctx context.Context, pipelineID string) ([]models.ReviewApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return step(f.reviewApps, f.listCalls), nil
}

func (f *fakePlatform) CreateReviewApp(ctx context.Context, opts heroku.CreateReviewAppOptions) (*models.ReviewApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, opts)
	if f.createReply != nil {
		return f.createReply, nil
	}
	return &models.ReviewApp{ID: "ra-new", PRNumber: opts.PRNumber, Status: models.ReviewAppStatusPending}, nil
}

func (f *fakePlatform) DeleteReviewApp(ctx context.Context, reviewAppID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, reviewAppID)
	return nil
}

func (f *fakePlatform) GetApp(ctx context.Context, appID string) (*models.App, error) {
	return &models.App{ID: appID, WebURL: "https://" + appID + ".example.com"}, nil
}

func (f *fakePlatform) ListBuilds(ctx context.Context, appID string) ([]models.Build, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buildCalls++
	return step(f.builds, f.buildCalls), nil
}

func step[T any](script [][]T, call int) []T {
	if len(script) == 0 {
		return nil
	}
	if call > len(script) {
		return script[len(script)-1]
	}
	return script[call-1]
}

// countingSleep records waits instead of sleeping.
type countingSleep struct {
	n int
}

func (s *countingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.n++
	return ctx.Err()
}

type fakeArchives struct {
	url  string
	err  error
	refs []string
}

func (a *fakeArchives) ArchiveURL(ctx context.Context, owner, repo, ref string) (string, error) {
	a.refs = append(a.refs, owner+"/"+repo+"@"+ref)
	return a.url, a.err
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func readyApp(id string, pr int, status models.ReviewAppStatus) models.ReviewApp {
	return models.ReviewApp{
		ID:        id,
		PRNumber:  pr,
		Status:    status,
		UpdatedAt: t0,
		RemoteApp: &models.RemoteApp{ID: "app-" + id},
	}
}
