package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/analytics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cache"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/report"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/seed"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/storage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cliActor is recorded as the actor of changes made from this tool
const cliActor = "admin-cli"

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := connect(); err != nil {
			return err
		}
		fmt.Println("✓ Migrations complete")
		return nil
	},
}

var (
	seedOpts  seed.Options
	seedClean bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo tenants, stories and analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.IsProduction() {
			return errors.New("refusing to seed a production database")
		}
		db, err := connect()
		if err != nil {
			return err
		}
		s := seed.NewSeeder(db)
		if seedClean {
			fmt.Println("🧹 Removing existing data...")
			if err := s.Clean(cmd.Context()); err != nil {
				return err
			}
		}
		res, err := s.Seed(cmd.Context(), seedOpts)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Seeded %d charities, %d donors, %d users, %d stories, %d comments, %d analytics rows\n",
			res.Charities, res.Donors, res.Users, res.Stories, res.Comments, res.Analytics)
		fmt.Printf("  Platform admin: %s\n", seed.AdminEmail)
		return nil
	},
}

var (
	rollupDate string
	rollupDays int
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Recompute daily analytics from engagement rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		end := time.Now().UTC()
		if rollupDate != "" {
			d, err := time.Parse("2006-01-02", rollupDate)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			end = d
		}
		if rollupDays <= 0 {
			rollupDays = 1
		}
		db, err := connect()
		if err != nil {
			return err
		}
		r := analytics.NewRollup(db, summaryInvalidator(db))
		total := 0
		for i := rollupDays - 1; i >= 0; i-- {
			day := end.AddDate(0, 0, -i)
			n, err := r.RollupDay(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("rollup %s: %w", day.Format("2006-01-02"), err)
			}
			total += n
		}
		fmt.Printf("✓ Rolled up %d day(s), %d rows written\n", rollupDays, total)
		return nil
	},
}

// summaryInvalidator reaches the API's summary cache when Redis is
// configured; otherwise cached summaries simply expire.
func summaryInvalidator(db *gorm.DB) analytics.SummaryInvalidator {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil
	}
	rc, err := cache.NewRedisClient(addr, cfg.RedisPassword)
	if err != nil {
		fmt.Printf("⚠ Redis unavailable, cached summaries will expire on their own: %v\n", err)
		return nil
	}
	return analytics.NewService(db, rc, analytics.Options{DefaultWindowDays: cfg.AnalyticsWindowDays})
}

var promoteRevoke bool

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant or revoke platform admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		role, err := setPlatformAdmin(cmd.Context(), db, args[0], !promoteRevoke)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s is now %s\n", args[0], role)
		return nil
	},
}

// setPlatformAdmin changes the user's role and records who did it. Revoking
// returns the account to PUBLIC.
func setPlatformAdmin(ctx context.Context, db *gorm.DB, email string, grant bool) (identity.Role, error) {
	users := repository.NewUserRepository(db)
	user, err := users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return "", err
	}

	current := identity.ParseRole(user.Role)
	target := identity.RolePublic
	if grant {
		target = identity.RolePlatformAdmin
	} else if current != identity.RolePlatformAdmin {
		return "", fmt.Errorf("%s is not a platform admin", email)
	}
	if current == target {
		return target, nil
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"role": string(target), "charity_id": nil, "donor_id": nil, "donor_role": ""}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    cliActor,
			Action:     activity.ActionUserRoleChanged,
			EntityType: activity.EntityUser,
			EntityID:   user.ID,
			Details:    map[string]interface{}{"from": string(current), "to": string(target)},
		})
	})
	return target, err
}

var (
	reportDonor    string
	reportStories  []string
	reportTemplate string
	reportWindow   string
	reportOut      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a donor PDF report to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}

		var donor models.Donor
		if err := db.Where("id = ? OR slug = ?", reportDonor, reportDonor).Take(&donor).Error; err != nil {
			return fmt.Errorf("donor %q: %w", reportDonor, err)
		}
		ids := reportStories
		if len(ids) == 0 {
			if err := db.Model(&models.Story{}).
				Where("donor_id = ? AND status = ?", donor.ID, models.StoryStatusPublished).
				Order("published_at DESC").
				Pluck("id", &ids).Error; err != nil {
				return err
			}
		}

		var blobs storage.BlobStore
		if cfg.S3Bucket != "" {
			s3Store, err := storage.NewS3Store(cmd.Context(), cfg.AWSRegion, cfg.S3Bucket, cfg.CDNBaseURL)
			if err != nil {
				return err
			}
			blobs = s3Store
		}
		gen := report.NewGenerator(db, blobs, report.NewHTTPImageFetcher(), report.Options{
			Heuristics: report.Heuristics{
				ReachPerEngagement:       cfg.ReachMultiplier,
				ImpressionsPerEngagement: cfg.ImpressionMultiplier,
			},
			URLExpiry: cfg.SignedURLTTL,
		})
		operator := &identity.Principal{UserID: cliActor, Role: identity.RolePlatformAdmin}
		doc, err := gen.Generate(cmd.Context(), operator, report.Request{
			DonorID:  donor.ID,
			Template: reportTemplate,
			Window:   reportWindow,
			StoryIDs: ids,
		})
		if err != nil {
			return err
		}

		path := reportOut
		if path == "" {
			path = doc.Filename
		} else if strings.HasSuffix(path, "/") {
			path += doc.Filename
		}
		if err := os.WriteFile(path, doc.Data, 0644); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s (%d pages, %d stories)\n", path, doc.Pages, len(ids))
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Charities, "charities", 4, "Charities to create")
	seedCmd.Flags().IntVar(&seedOpts.Donors, "donors", 3, "Donors to create")
	seedCmd.Flags().IntVar(&seedOpts.StoriesPerCharity, "stories", 5, "Stories per charity")
	seedCmd.Flags().IntVar(&seedOpts.Days, "days", 30, "Days of analytics history")
	seedCmd.Flags().StringVar(&seedOpts.Password, "password", "password123", "Password for every seeded account")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", 0, "Random seed for reproducible data")
	seedCmd.Flags().BoolVar(&seedClean, "clean", false, "Delete existing rows first")

	rollupCmd.Flags().StringVar(&rollupDate, "date", "", "Last day to roll up, YYYY-MM-DD (default today, UTC)")
	rollupCmd.Flags().IntVar(&rollupDays, "days", 1, "Number of days ending at --date")

	promoteCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke platform admin instead")

	reportCmd.Flags().StringVar(&reportDonor, "donor", "", "Donor ID or slug")
	reportCmd.Flags().StringSliceVar(&reportStories, "story", nil, "Story IDs (default: all published stories of the donor)")
	reportCmd.Flags().StringVar(&reportTemplate, "template", string(report.TemplateExecutive), "executive, impact-showcase or strategic")
	reportCmd.Flags().StringVar(&reportWindow, "window", "", "all-time, last-quarter, last-6-months or last-year")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file or directory ending in /")
	_ = reportCmd.MarkFlagRequired("donor")
}
