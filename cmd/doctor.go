package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/CosmoTheDev/reviewapp-agent/internal/repository"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify configuration and credentials",
	Long: `Checks that the required inputs are set, that the GitHub token is valid,
and that the Heroku token can list review apps of the configured pipeline.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadLocalConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true

	fmt.Println("=== reviewapp doctor ===")
	fmt.Println()

	fmt.Print("Configuration ............ ")
	if err := cfg.Validate(); err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		return fmt.Errorf("configuration incomplete")
	}
	fmt.Printf("OK (pipeline %s)\n", cfg.HerokuPipelineID)

	fmt.Print("GitHub token ............. ")
	gh, err := repository.NewGitHub(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
	if err == nil {
		var login string
		if login, err = gh.Authenticated(ctx); err == nil {
			fmt.Printf("OK (%s)\n", login)
		}
	}
	if err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	}

	fmt.Print("Heroku pipeline .......... ")
	apps, err := newPlatform(cfg).ListReviewApps(ctx, cfg.HerokuPipelineID)
	if err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	} else {
		fmt.Printf("OK (%d review apps)\n", len(apps))
	}

	fmt.Print("Trigger label ............ ")
	if label := cfg.TriggerLabel(); label != "" {
		fmt.Printf("%q\n", label)
	} else {
		fmt.Println("disabled")
	}
	fmt.Printf("Wait for build ........... %t\n", cfg.WaitForBuild)
	fmt.Printf("Comment on PR ............ %t\n", cfg.CommentPullRequest)

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("All checks passed — reviewapp is ready!"))
		return nil
	}
	fmt.Println(warnStyle.Render("Some checks failed — fix the credentials above and retry."))
	return fmt.Errorf("doctor checks failed")
}
