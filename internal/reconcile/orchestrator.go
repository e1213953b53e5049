// Package reconcile drives a pull request's review app toward the state its
// latest event asks for.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CosmoTheDev/reviewapp-agent/internal/config"
	"github.com/CosmoTheDev/reviewapp-agent/internal/event"
	"github.com/CosmoTheDev/reviewapp-agent/internal/repository"
	"github.com/CosmoTheDev/reviewapp-agent/internal/reviewapp"
	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// Step outputs read by the hosting workflow.
const (
	OutputAppID     = "app_id"
	OutputAppWebURL = "app_web_url"
)

// ErrNoAppToDelete is returned for a closed PR that has no review app.
var ErrNoAppToDelete = errors.New("no existing review app to delete")

// Reporter publishes progress and outputs to the hosting automation.
// *githubactions.Action satisfies it.
type Reporter interface {
	Group(title string)
	EndGroup()
	Noticef(msg string, args ...any)
	SetOutput(name, value string)
}

// Result summarises what a run did.
type Result struct {
	Desired   event.DesiredAction
	Skipped   bool
	Deleted   *models.ReviewApp
	ReviewApp *models.ReviewApp
	App       *models.App
}

// Orchestrator sequences locate, delete, create and wait for one event.
type Orchestrator struct {
	cfg         *config.Config
	platform    reviewapp.Platform
	code        repository.CodeHost
	report      Reporter
	locator     *reviewapp.Locator
	poller      *reviewapp.Poller
	provisioner *reviewapp.Provisioner
}

// New wires an Orchestrator. pollerOpts are forwarded to the build poller.
func New(cfg *config.Config, platform reviewapp.Platform, code repository.CodeHost, report Reporter, pollerOpts ...reviewapp.PollerOption) *Orchestrator {
	locator := reviewapp.NewLocator(platform)
	return &Orchestrator{
		cfg:         cfg,
		platform:    platform,
		code:        code,
		report:      report,
		locator:     locator,
		poller:      reviewapp.NewPoller(platform, locator, pollerOpts...),
		provisioner: reviewapp.NewProvisioner(platform, code),
	}
}

// Reconcile acts on evt. Fork PRs are skipped before any platform call.
func (o *Orchestrator) Reconcile(ctx context.Context, evt *event.PullRequestEvent) (*Result, error) {
	slog.Debug("Deploy info",
		"action", evt.Action,
		"desired", evt.Desired,
		"branch", evt.Branch,
		"version", evt.CommitRef,
		"repo_id", evt.RepoID,
		"fork", evt.Fork,
		"repo_url", evt.RepoURL,
		"pr", evt.PRNumber,
		"issue", evt.IssueNumber,
		"repo_owner", evt.RepoOwner,
		"added_label", evt.AddedLabel,
	)
	res := &Result{Desired: evt.Desired}

	if evt.Fork {
		o.report.Noticef("No secrets are available for PRs in forked repos.")
		res.Skipped = true
		return res, nil
	}

	switch evt.Desired {
	case event.DesiredDelete:
		return res, o.remove(ctx, evt, res)
	case event.DesiredCreate, event.DesiredResync:
		return res, o.deploy(ctx, evt, res)
	default:
		if evt.Action == event.ActionLabeled {
			slog.Info("Checked PR label, no action required", "label", evt.AddedLabel)
		} else {
			slog.Info("Nothing to do for pull request action", "action", evt.Action)
		}
		res.Skipped = true
		return res, nil
	}
}

// remove deletes the review app of a closed PR.
func (o *Orchestrator) remove(ctx context.Context, evt *event.PullRequestEvent, res *Result) error {
	o.report.Group("Delete review app")
	defer o.report.EndGroup()

	app, err := o.locator.Locate(ctx, o.cfg.HerokuPipelineID, evt.PRNumber)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("%w: action %q, yet no existing review app for PR #%d", ErrNoAppToDelete, evt.Action, evt.PRNumber)
	}
	if err := o.provisioner.Delete(ctx, app); err != nil {
		return err
	}
	res.Deleted = app
	slog.Info("PR closed, deleted review app", "pr", evt.PRNumber)
	return nil
}

// deploy replaces any existing review app with a fresh one built from the
// head commit. The platform has no update for source and branch, so an
// existing app is always deleted first.
func (o *Orchestrator) deploy(ctx context.Context, evt *event.PullRequestEvent, res *Result) error {
	if err := o.recreate(ctx, evt, res); err != nil {
		return err
	}

	ready, err := o.awaitApp(ctx, evt)
	if err != nil {
		return err
	}
	res.ReviewApp = ready

	app, err := o.platform.GetApp(ctx, ready.RemoteApp.ID)
	if err != nil {
		return err
	}
	res.App = app
	o.outputAppDetails(app)

	if err := o.labelPR(ctx, evt); err != nil {
		return err
	}
	return o.commentPR(ctx, evt, app)
}

func (o *Orchestrator) recreate(ctx context.Context, evt *event.PullRequestEvent, res *Result) error {
	o.report.Group("Create review app")
	defer o.report.EndGroup()

	existing, err := o.locator.Locate(ctx, o.cfg.HerokuPipelineID, evt.PRNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Debug("A review app already exists, deleting it first", "review_app_id", existing.ID)
		if err := o.provisioner.Delete(ctx, existing); err != nil {
			return err
		}
		res.Deleted = existing
	}

	_, err = o.provisioner.Create(ctx, reviewapp.CreateRequest{
		RepoOwner:  evt.RepoOwner,
		RepoName:   evt.RepoName,
		Branch:     evt.Branch,
		CommitRef:  evt.CommitRef,
		PipelineID: o.cfg.HerokuPipelineID,
		ForkRepoID: evt.ForkRepoID(),
		PRNumber:   evt.PRNumber,
		RepoURL:    evt.RepoURL,
	})
	return err
}

func (o *Orchestrator) awaitApp(ctx context.Context, evt *event.PullRequestEvent) (*models.ReviewApp, error) {
	slog.Debug("Resolving review app", "should_wait_for_build", o.cfg.WaitForBuild)
	if !o.cfg.WaitForBuild {
		return o.poller.AwaitAssigned(ctx, o.cfg.HerokuPipelineID, evt.PRNumber)
	}

	o.report.Group("Ensure review app is up to date")
	defer o.report.EndGroup()
	return o.poller.AwaitReady(ctx, o.cfg.HerokuPipelineID, evt.PRNumber, evt.CommitRef)
}

func (o *Orchestrator) outputAppDetails(app *models.App) {
	o.report.Group("Output app details")
	defer o.report.EndGroup()

	slog.Info("Review app ready", "app_id", app.ID, "web_url", app.WebURL)
	o.report.SetOutput(OutputAppID, app.ID)
	o.report.SetOutput(OutputAppWebURL, app.WebURL)
}

func (o *Orchestrator) labelPR(ctx context.Context, evt *event.PullRequestEvent) error {
	label := o.cfg.TriggerLabel()
	if label == "" {
		slog.Debug("No label specified; will not label PR")
		return nil
	}
	if evt.AddedLabel == label {
		slog.Debug("PR already carries the label", "label", label)
		return nil
	}

	o.report.Group("Label PR")
	defer o.report.EndGroup()
	if err := o.code.AddLabel(ctx, evt.RepoOwner, evt.RepoName, evt.IssueNumber, label); err != nil {
		return err
	}
	slog.Info("Added label to PR", "label", label, "pr", evt.IssueNumber)
	return nil
}

func (o *Orchestrator) commentPR(ctx context.Context, evt *event.PullRequestEvent, app *models.App) error {
	if !o.cfg.CommentPullRequest {
		slog.Debug("should_comment_pull_request is not set; will not comment on PR")
		return nil
	}

	o.report.Group("Comment on PR")
	defer o.report.EndGroup()
	if err := o.code.CreateComment(ctx, evt.RepoOwner, evt.RepoName, evt.IssueNumber, commentBody(o.cfg.WaitForBuild, app)); err != nil {
		return err
	}
	slog.Info("Added comment to PR", "pr", evt.IssueNumber)
	return nil
}

func commentBody(waited bool, app *models.App) string {
	if waited {
		return "Review app deployed to " + app.WebURL
	}
	return "Review app is being deployed to " + app.WebURL
}
