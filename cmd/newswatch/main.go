package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"newswatch/internal/collect"
	"newswatch/internal/config"
	"newswatch/internal/ledger"
	"newswatch/internal/notify"
	"newswatch/internal/pipeline"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newswatch",
	Short:   "Keyword news alerts over Telegram",
	Long:    "newswatch searches Naver News for configured keywords, filters the results, and delivers anything not yet sent to a Telegram chat.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newswatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newswatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set keywords, the Telegram chat, and credential env vars.")
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pipeline pass: search -> filter -> dedup -> notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger()
		if err != nil {
			return err
		}
		defer led.Close()

		clientID, clientSecret, err := cfg.NaverCredentials()
		if err != nil {
			return err
		}
		searcher := collect.NewNaverClient(clientID, clientSecret, cfg.Fetch.Timeout.Std())

		var feeds pipeline.FeedSource
		if len(cfg.Sources.Feeds) > 0 {
			feedConfigs := make([]collect.FeedConfig, len(cfg.Sources.Feeds))
			for i, f := range cfg.Sources.Feeds {
				feedConfigs[i] = collect.FeedConfig{URL: f.URL, Name: f.Name}
			}
			feeds = collect.NewFeedParser(feedConfigs)
		}

		opts := pipeline.Options{
			Keywords:        cfg.Filter.Keywords,
			ExcludeKeywords: cfg.Filter.ExcludeKeywords,
			Display:         cfg.Naver.Display,
			Pace:            cfg.Fetch.Pace.Std(),
			RecordPolicy:    pipeline.RecordPolicy(cfg.Delivery.RecordPolicy),
		}
		ctx := context.Background()

		if dryRun {
			pipe := pipeline.New(searcher, feeds, nil, led, opts)
			pending, result, err := pipe.DryRun(ctx)
			if err != nil {
				return fmt.Errorf("dry run aborted: %w", err)
			}
			fmt.Printf("[dry-run] %d fetched, %d after filtering, %d already sent\n",
				result.Fetched, result.Filtered, result.Skipped)
			if len(pending) == 0 {
				fmt.Println("[dry-run] nothing to deliver")
				return nil
			}
			fmt.Printf("[dry-run] would deliver %d items:\n", len(pending))
			for _, item := range pending {
				fmt.Printf("  - %s\n    %s\n", notify.CleanTitle(item.Title), item.Link)
			}
			return nil
		}

		botToken, chatID, err := cfg.TelegramCredentials()
		if err != nil {
			return err
		}
		sink := notify.NewTelegram(botToken, chatID, cfg.Fetch.Timeout.Std())

		pipe := pipeline.New(searcher, feeds, sink, led, opts)
		result, err := pipe.Run(ctx)
		if err != nil {
			return fmt.Errorf("run aborted: %w", err)
		}

		fmt.Println("Run complete:")
		fmt.Printf("  Fetched: %d (%d distinct)\n", result.Fetched, result.Merged)
		if result.FetchErrors > 0 {
			fmt.Printf("  Fetch errors: %d\n", result.FetchErrors)
		}
		fmt.Printf("  After filtering: %d\n", result.Filtered)
		fmt.Printf("  Delivered: %d\n", result.Delivered)
		fmt.Printf("  Already sent: %d\n", result.Skipped)
		if result.SendFailures > 0 {
			fmt.Printf("  Delivery failures (retried next run): %d\n", result.SendFailures)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect and filter, but send and record nothing")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger()
		if err != nil {
			return err
		}
		defer led.Close()

		stats, err := led.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Ledger: %s\n", led.Path())
		fmt.Printf("  Articles delivered: %d\n", stats.Total)
		if !stats.LastSent.IsZero() {
			fmt.Printf("  Last delivery: %s\n", stats.LastSent.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Println("\nFilter:")
		fmt.Printf("  Keywords: %d\n", len(cfg.Filter.Keywords))
		fmt.Printf("  Exclude keywords: %d\n", len(cfg.Filter.ExcludeKeywords))
		fmt.Printf("  Feeds: %d\n", len(cfg.Sources.Feeds))
		return nil
	},
}

// --- history command ---

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger()
		if err != nil {
			return err
		}
		defer led.Close()

		records, err := led.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No deliveries yet.")
			return nil
		}

		for _, r := range records {
			fmt.Printf("%s  %s\n    %s\n", r.SentAt.Local().Format("2006-01-02 15:04"), r.Title, r.Link)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of records to show")
}

func openLedger() (*ledger.Ledger, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return ledger.Open(filepath.Join(dataDir, "sent_news.db"))
}
