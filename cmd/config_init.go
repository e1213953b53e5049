package cmd

import (
	"fmt"
	"strings"

	"github.com/CosmoTheDev/reviewapp-agent/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a config file for local runs",
	Long: `Prompts for credentials and options and writes them to the config file,
so that status and doctor can be used outside of GitHub Actions.
Existing values are offered as defaults.`,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadLocalConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println(headerStyle.Render("  reviewapp — configuration"))

	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", name)
			}
			return nil
		}
	}

	var save bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Heroku pipeline ID").
				Value(&cfg.HerokuPipelineID).
				Validate(required("pipeline ID")),
			huh.NewInput().
				Title("Heroku API token").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.HerokuAPIToken).
				Validate(required("Heroku API token")),
			huh.NewInput().
				Title("GitHub token").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.GitHubToken).
				Validate(required("GitHub token")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Trigger label").
				Description("Leave empty to disable label triggers and labelling.").
				Value(&cfg.Label),
			huh.NewConfirm().
				Title("Wait for the build to finish?").
				Value(&cfg.WaitForBuild),
			huh.NewConfirm().
				Title("Comment the review app URL on the pull request?").
				Value(&cfg.CommentPullRequest),
			huh.NewConfirm().
				Title("Save configuration?").
				Value(&save),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}
	if !save {
		fmt.Println(dimStyle.Render("Nothing saved."))
		return nil
	}

	if err := config.Save(cfg, cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	p, _ := config.ConfigPath(cfgFile)
	fmt.Println(successStyle.Render("Saved " + p))
	return nil
}
