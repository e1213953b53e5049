package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/CosmoTheDev/reviewapp-agent/internal/reviewapp"
	"github.com/CosmoTheDev/reviewapp-agent/models"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var (
	statusPR     int
	statusOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the review app and builds of a pull request",
	Long: `Locates the authoritative review app of a pull request in the configured
pipeline (the most recently updated one) and lists the builds of its app.
Nothing is changed on the platform.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusPR, "pr", 0, "pull request number")
	statusCmd.Flags().StringVar(&statusOutput, "output", "table", "Output format: table|json|yaml")
	_ = statusCmd.MarkFlagRequired("pr")
}

// statusReport is what status prints.
type statusReport struct {
	PRNumber  int               `json:"pr_number"            yaml:"pr_number"`
	ReviewApp *models.ReviewApp `json:"review_app,omitempty" yaml:"review_app,omitempty"`
	App       *models.App       `json:"app,omitempty"        yaml:"app,omitempty"`
	Builds    []models.Build    `json:"builds,omitempty"     yaml:"builds,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := loadLocalConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	platform := newPlatform(cfg)

	report := statusReport{PRNumber: statusPR}
	app, err := reviewapp.NewLocator(platform).Locate(ctx, cfg.HerokuPipelineID, statusPR)
	if err != nil {
		return err
	}
	report.ReviewApp = app
	if app != nil && app.Ready() {
		if report.App, err = platform.GetApp(ctx, app.RemoteApp.ID); err != nil {
			return err
		}
		if report.Builds, err = platform.ListBuilds(ctx, app.RemoteApp.ID); err != nil {
			return err
		}
	}

	return printStatus(os.Stdout, statusOutput, report)
}

func printStatus(w io.Writer, format string, r statusReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(r)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Review app for PR #%d", r.PRNumber)))
	if r.ReviewApp == nil {
		fmt.Fprintln(w, warnStyle.Render("No review app (or only an errored one) found."))
		return nil
	}

	ra := r.ReviewApp
	fmt.Fprintf(w, "  Review app:  %s\n", ra.ID)
	fmt.Fprintf(w, "  Branch:      %s\n", ra.Branch)
	fmt.Fprintf(w, "  Status:      %s\n", ra.Status)
	fmt.Fprintf(w, "  Updated:     %s\n", ra.UpdatedAt.Format(time.RFC3339))
	if ra.ErrorStatus != "" {
		fmt.Fprintf(w, "  Error:       %s\n", ra.ErrorStatus)
	}
	if r.App == nil {
		fmt.Fprintln(w, dimStyle.Render("  The platform has not assigned an app yet."))
		return nil
	}
	fmt.Fprintf(w, "  App:         %s (%s)\n", r.App.ID, r.App.Name)
	fmt.Fprintf(w, "  Web URL:     %s\n\n", successStyle.Render(r.App.WebURL))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUILD\tVERSION\tSTATUS\tCREATED")
	for _, b := range r.Builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.SourceVersion, b.Status, b.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
