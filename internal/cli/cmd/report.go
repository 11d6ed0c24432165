package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/api"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/config"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	reportTemplate string
	reportWindow   string
	reportDonor    string
	reportOut      string
)

var reportCmd = &cobra.Command{
	Use:   "report <story-id>...",
	Short: "Generate a PDF impact report",
	Long: `Generate a branded PDF report covering the given stories.
Templates: executive, impact-showcase, strategic.
Windows: all-time, last-quarter, last-6-months, last-year.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		rep, err := client.GenerateReport(cmd.Context(), api.ReportRequest{
			DonorID:  reportDonor,
			Template: reportTemplate,
			Window:   reportWindow,
			StoryIDs: args,
		})
		if err != nil {
			return err
		}

		dir := reportOut
		if dir == "" {
			dir = config.GetString("output.report_dir")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		path := filepath.Join(dir, filepath.Base(rep.Filename))
		if err := os.WriteFile(path, rep.Data, 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		output.Success("Saved %s (%s pages, %d KB)", path, rep.Pages, len(rep.Data)/1024)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the impactctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(api.UserAgent)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportTemplate, "template", "executive", "Report template")
	reportCmd.Flags().StringVar(&reportWindow, "window", "", "Analytics window")
	reportCmd.Flags().StringVar(&reportDonor, "donor", "", "Donor ID (platform admins only)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Output directory (default: output.report_dir)")
}
