package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	analyticsDonor string
	analyticsDays  int
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Donor engagement analytics",
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline totals and aggregated impact",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		s, err := client.Summary(cmd.Context(), analyticsDonor, analyticsDays)
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.JSON(s)
		}
		output.Heading(fmt.Sprintf("Last %d days", s.Days))
		output.KeyValues([][2]string{
			{"Views", strconv.FormatInt(s.Window.Views, 10)},
			{"Unique visitors", strconv.FormatInt(s.Window.UniqueVisitors, 10)},
			{"Likes", strconv.FormatInt(s.Window.Likes, 10)},
			{"Shares", strconv.FormatInt(s.Window.Shares, 10)},
			{"Comments", strconv.FormatInt(s.Window.Comments, 10)},
			{"Published stories", fmt.Sprintf("%d of %d", s.PublishedStories, s.Stories)},
			{"Total investment", fmt.Sprintf("%.2f", s.TotalInvestment)},
		})
		if len(s.ImpactMetrics) > 0 {
			output.Heading("Impact")
			keys := make([]string, 0, len(s.ImpactMetrics))
			for k := range s.ImpactMetrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, strconv.FormatFloat(s.ImpactMetrics[k], 'f', -1, 64)})
			}
			output.Table([]string{"METRIC", "TOTAL"}, rows)
		}
		return nil
	},
}

var analyticsTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Per-day engagement",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		t, err := client.Timeline(cmd.Context(), analyticsDonor, analyticsDays)
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.JSON(t)
		}
		if len(t.Points) == 0 {
			output.Info("No activity in the last %d days.", t.Days)
			return nil
		}
		rows := make([][]string, 0, len(t.Points))
		for _, p := range t.Points {
			rows = append(rows, []string{
				p.Date,
				strconv.FormatInt(p.Views, 10),
				strconv.FormatInt(p.Likes, 10),
				strconv.FormatInt(p.Shares, 10),
				strconv.FormatInt(p.Comments, 10),
			})
		}
		output.Table([]string{"DATE", "VIEWS", "LIKES", "SHARES", "COMMENTS"}, rows)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{analyticsSummaryCmd, analyticsTimelineCmd} {
		c.Flags().StringVar(&analyticsDonor, "donor", "", "Donor ID (platform admins only; defaults to your donor)")
		c.Flags().IntVar(&analyticsDays, "days", 0, "Window in days (server default when 0)")
	}
	analyticsCmd.AddCommand(analyticsSummaryCmd, analyticsTimelineCmd)
}
