package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CosmoTheDev/reviewapp-agent/internal/config"
	"github.com/CosmoTheDev/reviewapp-agent/internal/event"
	"github.com/CosmoTheDev/reviewapp-agent/internal/heroku"
	"github.com/CosmoTheDev/reviewapp-agent/internal/reconcile"
	"github.com/CosmoTheDev/reviewapp-agent/internal/repository"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create, recreate or delete the review app for the triggering pull request",
	Long: `Reads the pull_request event that triggered the workflow and drives the
review app toward the state it implies:

  opened / reopened / synchronize   delete any existing app, create a fresh one
  labeled (with github_label)       same as opened
  closed                            delete the app

Forked pull requests are skipped because the workflow has no secrets for them.
Sets the step outputs app_id and app_web_url.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	action := githubactions.New()

	cfg, err := loadActionConfig()
	if err != nil {
		return fail(action, fmt.Errorf("loading config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return fail(action, err)
	}

	raw, err := event.FromEnvironment(os.Getenv)
	if err != nil {
		return fail(action, err)
	}
	evt, err := event.Classify(raw, cfg.TriggerLabel())
	if err != nil {
		return fail(action, err)
	}

	gh, err := repository.NewGitHub(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return fail(action, err)
	}
	platform := newPlatform(cfg)

	res, err := reconcile.New(cfg, platform, gh, action).Reconcile(ctx, evt)
	if err != nil {
		return fail(action, err)
	}
	slog.Info("Reconcile finished", "desired", res.Desired, "skipped", res.Skipped, "pr", evt.PRNumber)
	return nil
}

// loadActionConfig reads inputs from the runner environment and the optional
// --config file only. The workspace .env belongs to the repository under
// review and is never merged.
func loadActionConfig() (*config.Config, error) {
	return config.Load(cfgFile, "")
}

func newPlatform(cfg *config.Config) *heroku.Client {
	return heroku.New(heroku.Options{
		BaseURL:  cfg.HerokuAPIURL,
		Token:    cfg.HerokuAPIToken,
		RetryMax: cfg.HTTPRetryMax,
		Logger:   slog.Default(),
	})
}

// fail annotates the workflow run with err before handing it back to cobra.
func fail(action *githubactions.Action, err error) error {
	slog.Error("Reconcile failed", "error", err)
	action.Errorf("%s", err)
	return err
}
