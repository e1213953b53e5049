package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/CosmoTheDev/reviewapp-agent/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	envFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviewapp",
	Short: "Keep a Heroku review app in step with its pull request",
	Long: `reviewapp creates, recreates and deletes the Heroku review app that belongs
to a GitHub pull request, and can block until the build of the pushed commit
has finished.

It is meant to run as a GitHub Actions step:
  reviewapp reconcile   Act on the pull_request event that triggered the workflow
  reviewapp status      Show the review app and builds of a pull request
  reviewapp doctor      Verify configuration and credentials
  reviewapp config      View and manage configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.reviewapp/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		reconcileCmd,
		statusCmd,
		doctorCmd,
		configCmd,
	)
	addEnvFileFlag(statusCmd, doctorCmd, configCmd)
}

// addEnvFileFlag registers --env-file on commands meant for local use.
// reconcile never reads one: its working directory is the PR's checkout.
func addEnvFileFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile,
			"dotenv file merged under the environment (empty to skip)")
	}
}

// loadLocalConfig loads the config for commands run from a developer shell.
func loadLocalConfig() (*config.Config, error) {
	return config.Load(cfgFile, envFile)
}

func initLogging() {
	level := slog.LevelInfo
	// RUNNER_DEBUG is set when a workflow is re-run with debug logging.
	if verbose || os.Getenv("RUNNER_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("Verbose logging enabled")
}
