package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medshift/comp-engine/amion"
	"github.com/medshift/comp-engine/store/sqlite"
)

var (
	scrapeStart string
	scrapeEnd   string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the Amion schedule and persist the snapshot",
	Long: `Drives a headless browser against amion.com for the date range and
replaces the stored schedule snapshot. Credentials come from the
environment variables named in the configuration file.`,
	RunE: scrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeStart, "start", "", "range start (YYYY-MM-DD)")
	scrapeCmd.Flags().StringVar(&scrapeEnd, "end", "", "range end (YYYY-MM-DD, inclusive)")
}

func scrape(cmd *cobra.Command, args []string) error {
	start, end, err := resolveRange(scrapeStart, scrapeEnd)
	if err != nil {
		return err
	}

	cfg, _, _, err := loadEngines()
	if err != nil {
		return err
	}
	creds := amion.Credentials{
		Username: cfg.Amion.Username(),
		Password: cfg.Amion.Password(),
	}
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("amion credentials not set (%s, %s)",
			cfg.Amion.UsernameEnv, cfg.Amion.PasswordEnv)
	}

	client := amion.NewClient(cfg.Amion.BaseURL, creds)
	logger.Info("scraping schedule",
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
	)
	schedule, err := client.FetchSchedule(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	logger.Info("schedule fetched", zap.Int("entries", len(schedule)))

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ReplaceSchedule(cmd.Context(), start, end, schedule); err != nil {
		return fmt.Errorf("persisting schedule: %w", err)
	}
	logger.Info("schedule snapshot replaced")
	return nil
}
