package cmd

import (
	"fmt"
	"strings"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagReason  string
	queueStatus string
)

var flaggedCmd = &cobra.Command{
	Use:   "flagged",
	Short: "List flagged stories and comments (platform admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		flagged, err := client.Flagged(cmd.Context())
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.JSON(flagged)
		}
		if len(flagged.Stories)+len(flagged.Comments) == 0 {
			output.Info("Nothing is flagged.")
			return nil
		}
		if len(flagged.Stories) > 0 {
			output.Heading(fmt.Sprintf("Stories (%d)", len(flagged.Stories)))
			rows := make([][]string, 0, len(flagged.Stories))
			for _, s := range flagged.Stories {
				rows = append(rows, []string{s.ID, output.Truncate(s.Title, 40), s.CharityName, s.Status, output.Truncate(s.Reason, 40)})
			}
			output.Table([]string{"ID", "TITLE", "CHARITY", "STATUS", "REASON"}, rows)
		}
		if len(flagged.Comments) > 0 {
			output.Heading(fmt.Sprintf("Comments (%d)", len(flagged.Comments)))
			rows := make([][]string, 0, len(flagged.Comments))
			for _, c := range flagged.Comments {
				rows = append(rows, []string{c.ID, c.AuthorName, output.Truncate(c.Content, 40), c.Status, output.Truncate(c.Reason, 40)})
			}
			output.Table([]string{"ID", "AUTHOR", "CONTENT", "STATUS", "REASON"}, rows)
		}
		return nil
	},
}

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Flag, review and remove content",
}

// kindArg maps "story"/"comment" to the admin route segment
func kindArg(s string) (string, error) {
	switch strings.ToLower(s) {
	case "story", "stories":
		return "stories", nil
	case "comment", "comments":
		return "comments", nil
	}
	return "", fmt.Errorf("unknown kind %q, expected story or comment", s)
}

var moderateFlagCmd = &cobra.Command{
	Use:   "flag <story|comment> <id>",
	Short: "Flag content for review",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(flagReason) == "" {
			return fmt.Errorf("--reason is required")
		}
		if err := client.Flag(cmd.Context(), kind, args[1], flagReason); err != nil {
			return err
		}
		output.Success("Flagged %s %s", args[0], args[1])
		return nil
	},
}

var moderateUnflagCmd = &cobra.Command{
	Use:   "unflag <story|comment> <id>",
	Short: "Clear a flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		if err := client.Unflag(cmd.Context(), kind, args[1]); err != nil {
			return err
		}
		output.Success("Unflagged %s %s", args[0], args[1])
		return nil
	},
}

var moderateRemoveCmd = &cobra.Command{
	Use:   "remove <story|comment> <id>",
	Short: "Permanently delete content (platform admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		if err := client.Remove(cmd.Context(), kind, args[1]); err != nil {
			return err
		}
		output.Success("Deleted %s %s", args[0], args[1])
		return nil
	},
}

// moderationScope is "admin" for platform admins and "charity" otherwise
func moderationScope() string {
	if creds != nil && creds.Role == "PLATFORM_ADMIN" {
		return "admin"
	}
	return "charity"
}

var moderateQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List comments awaiting moderation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		comments, err := client.Queue(cmd.Context(), moderationScope(), queueStatus)
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.JSON(comments)
		}
		if len(comments) == 0 {
			output.Info("The queue is empty.")
			return nil
		}
		rows := make([][]string, 0, len(comments))
		for _, c := range comments {
			rows = append(rows, []string{c.ID, output.Truncate(c.StoryTitle, 30), c.AuthorName, output.Truncate(c.Content, 50), c.CreatedAt.Format("2006-01-02 15:04")})
		}
		output.Table([]string{"ID", "STORY", "AUTHOR", "CONTENT", "SUBMITTED"}, rows)
		return nil
	},
}

func statusCommand(use, status, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <comment-id>...",
		Short: verb + " comments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			scope := moderationScope()
			for _, id := range args {
				if err := client.SetCommentStatus(cmd.Context(), scope, id, status); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				output.Success("%s %s", verb, id)
			}
			return nil
		},
	}
}

func init() {
	moderateFlagCmd.Flags().StringVar(&flagReason, "reason", "", "Why the content is flagged")
	moderateQueueCmd.Flags().StringVar(&queueStatus, "status", "", "PENDING (default), APPROVED, REJECTED or SPAM")

	moderateCmd.AddCommand(moderateFlagCmd, moderateUnflagCmd, moderateRemoveCmd, moderateQueueCmd)
	moderateCmd.AddCommand(
		statusCommand("approve", "APPROVED", "Approved"),
		statusCommand("reject", "REJECTED", "Rejected"),
		statusCommand("spam", "SPAM", "Marked as spam"),
	)
}
