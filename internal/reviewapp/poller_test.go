package reviewapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

func newTestPoller(f *fakePlatform) (*Poller, *countingSleep) {
	s := &countingSleep{}
	return NewPoller(f, NewLocator(f), WithSleep(s.sleep)), s
}

func TestAwaitReadyReturnsOnFirstSucceededBuild(t *testing.T) {
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds:     [][]models.Build{{{ID: "b-1", SourceVersion: "abc", Status: models.BuildStatusSucceeded}}},
	}
	p, s := newTestPoller(f)

	app, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, "ra-1", app.ID)
	assert.Equal(t, 0, s.n)
	assert.Equal(t, 1, f.listCalls)
}

func TestAwaitReadyWaitsWhileCreatingWithoutFetchingBuilds(t *testing.T) {
	creating := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusCreating, UpdatedAt: t0}
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{
			{creating},
			{creating},
			{readyApp("ra-1", 42, models.ReviewAppStatusCreated)},
		},
		builds: [][]models.Build{{{SourceVersion: "abc", Status: models.BuildStatusSucceeded}}},
	}
	p, s := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, s.n)
	assert.Equal(t, 3, f.listCalls)
	assert.Equal(t, 1, f.buildCalls, "builds are only fetched once the app exists")
}

func TestAwaitReadyWaitsForAppIDEvenWhenCreated(t *testing.T) {
	noRef := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusCreated, UpdatedAt: t0}
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{noRef}, {readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds:     [][]models.Build{{{SourceVersion: "abc", Status: models.BuildStatusSucceeded}}},
	}
	p, s := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, s.n)
	assert.Equal(t, 1, f.buildCalls)
}

func TestAwaitReadyRetriesPendingBuild(t *testing.T) {
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds: [][]models.Build{
			{{SourceVersion: "abc", Status: models.BuildStatusPending}},
			{{SourceVersion: "abc", Status: models.BuildStatusPending}},
			{{SourceVersion: "abc", Status: models.BuildStatusSucceeded}},
		},
	}
	p, s := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, s.n)
	assert.Equal(t, 3, f.buildCalls)
}

func TestAwaitReadyFailsWhenNoBuildMatches(t *testing.T) {
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds:     [][]models.Build{{{SourceVersion: "old", Status: models.BuildStatusPending}}},
	}
	p, s := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.ErrorIs(t, err, ErrBuildNotFound)
	assert.Equal(t, 0, s.n, "a missing build is never treated as still building")
	assert.Contains(t, err.Error(), "abc")
}

func TestAwaitReadyFailsOnTerminalBuildStatuses(t *testing.T) {
	for _, b := range []models.Build{
		{ID: "b-1", SourceVersion: "abc", Status: models.BuildStatusFailed, ErrorStatus: "compile error"},
		{ID: "b-2", SourceVersion: "abc", Status: models.BuildStatusOther, RawStatus: "canceled"},
	} {
		t.Run(string(b.Status), func(t *testing.T) {
			f := &fakePlatform{
				reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
				builds:     [][]models.Build{{b}},
			}
			p, _ := newTestPoller(f)

			_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
			require.ErrorIs(t, err, ErrUnexpectedBuildStatus)
			assert.Contains(t, err.Error(), b.ID)
		})
	}
}

func TestAwaitReadyBuildErrorCarriesPlatformDetail(t *testing.T) {
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds:     [][]models.Build{{{SourceVersion: "abc", Status: models.BuildStatusFailed, ErrorStatus: "compile error"}}},
	}
	p, _ := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile error")
}

func TestAwaitReadyFailsWhenAppIsBeingDeleted(t *testing.T) {
	for _, status := range []models.ReviewAppStatus{models.ReviewAppStatusDeleting, models.ReviewAppStatusDeleted} {
		t.Run(string(status), func(t *testing.T) {
			app := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: status, UpdatedAt: t0, Message: "bye"}
			f := &fakePlatform{reviewApps: [][]models.ReviewApp{{app}}}
			p, s := newTestPoller(f)

			_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
			require.ErrorIs(t, err, ErrAppBeingDeleted)
			assert.Equal(t, 0, s.n)
			assert.Equal(t, 0, f.buildCalls)
		})
	}
}

func TestAwaitReadyFailsOnUnknownAppStatus(t *testing.T) {
	app := readyApp("ra-1", 42, models.ReviewAppStatusUnknown)
	app.RawStatus = "hibernating"
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{app}}}
	p, _ := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	require.ErrorIs(t, err, ErrUnexpectedAppStatus)
	assert.Contains(t, err.Error(), "hibernating")
}

func TestAwaitReadyFailsWhenAppDisappears(t *testing.T) {
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{}}}
	p, _ := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	assert.ErrorIs(t, err, ErrReviewAppMissing)
}

func TestAwaitReadyPicksNewestMatchingBuild(t *testing.T) {
	f := &fakePlatform{
		reviewApps: [][]models.ReviewApp{{readyApp("ra-1", 42, models.ReviewAppStatusCreated)}},
		builds: [][]models.Build{{
			{ID: "b-old", SourceVersion: "abc", Status: models.BuildStatusFailed, CreatedAt: t0},
			{ID: "b-new", SourceVersion: "abc", Status: models.BuildStatusSucceeded, CreatedAt: t0.Add(time.Minute)},
		}},
	}
	p, _ := newTestPoller(f)

	_, err := p.AwaitReady(t.Context(), "pipe", 42, "abc")
	assert.NoError(t, err)
}

func TestAwaitReadyStopsWhenContextEnds(t *testing.T) {
	creating := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusPending, UpdatedAt: t0}
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{creating}}}
	p := NewPoller(f, NewLocator(f), WithInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := p.AwaitReady(ctx, "pipe", 42, "abc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitAssigned(t *testing.T) {
	pending := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusPending, UpdatedAt: t0}
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{pending}, {pending}, {readyApp("ra-1", 42, models.ReviewAppStatusPending)}}}
	p, s := newTestPoller(f)

	app, err := p.AwaitAssigned(t.Context(), "pipe", 42)
	require.NoError(t, err)
	assert.True(t, app.Ready())
	assert.Equal(t, 2, s.n)
	assert.Equal(t, 0, f.buildCalls)
}

func TestAwaitAssignedFailsWhenDeleting(t *testing.T) {
	app := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusDeleting, UpdatedAt: t0}
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{app}}}
	p, _ := newTestPoller(f)

	_, err := p.AwaitAssigned(t.Context(), "pipe", 42)
	assert.ErrorIs(t, err, ErrAppBeingDeleted)
}

func TestAwaitAssignedFailsOnUnknownStatus(t *testing.T) {
	app := models.ReviewApp{ID: "ra-1", PRNumber: 42, Status: models.ReviewAppStatusUnknown, RawStatus: "hibernating", UpdatedAt: t0}
	f := &fakePlatform{reviewApps: [][]models.ReviewApp{{app}}}
	p, s := newTestPoller(f)

	_, err := p.AwaitAssigned(t.Context(), "pipe", 42)
	require.ErrorIs(t, err, ErrUnexpectedAppStatus)
	assert.Contains(t, err.Error(), "hibernating")
	assert.Equal(t, 0, s.n)
	assert.Equal(t, 1, f.listCalls)
}

func TestAppStatusErrorOmitsEmptyMessage(t *testing.T) {
	app := &models.ReviewApp{Status: models.ReviewAppStatusUnknown, RawStatus: "hibernating"}
	err := checkAppStatus(app)
	require.ErrorIs(t, err, ErrUnexpectedAppStatus)
	assert.Equal(t, `unexpected review app status: "hibernating" (error status: no error provided)`, err.Error())

	app.Message = "stuck"
	app.ErrorStatus = "quota"
	assert.Equal(t, `unexpected review app status: "hibernating" - stuck (error status: quota)`, checkAppStatus(app).Error())
}
