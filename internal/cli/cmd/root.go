// Package cmd holds the impactctl cobra command tree.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/api"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/config"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	baseURL    string

	client *api.Client
	creds  *config.Credentials
)

var rootCmd = &cobra.Command{
	Use:   "impactctl",
	Short: "ImpactUsAll operator CLI",
	Long: `impactctl talks to the ImpactUsAll API: review flagged content,
moderate comments, check donor analytics and download impact reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		logger.Init(config.GetString("log.file"), verbose)
		if cmd.Flags().Changed("output") {
			config.Set("output.format", outputFmt)
		}
		output.SetFormat(config.GetString("output.format"))
		if baseURL != "" {
			config.Set("api.base_url", baseURL)
		}

		client = api.New(config.GetString("api.base_url"), time.Duration(config.GetInt("api.timeout"))*time.Second)
		var err error
		creds, err = config.LoadCredentials()
		if err != nil {
			logger.Warn("Could not read credentials", "err", err)
		}
		if creds.IsValid() {
			client.SetToken(creds.Token)
		}
		return nil
	},
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if api.IsUnauthorized(err) {
			output.Error("Not logged in or session expired. Run: impactctl login")
		} else {
			output.Error("%v", err)
		}
		os.Exit(1)
	}
}

// requireLogin fails early with a helpful message when no session exists
func requireLogin() error {
	if !creds.IsValid() {
		return fmt.Errorf("not logged in, run: impactctl login")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/impactusall/cli/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text or json")
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", "", "API base URL (overrides api.base_url)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(flaggedCmd, moderateCmd)
	rootCmd.AddCommand(analyticsCmd, reportCmd)
	rootCmd.AddCommand(versionCmd)
}
