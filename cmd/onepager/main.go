// One-Pager: a financial one-page company report.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/onepager/internal/config"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "onepager",
	Short: "One-Pager: a company's financial picture on one page",
	Long: `One-Pager
Search a company catalog, then read its financial overview, news
sentiment, earnings call, competitive position, revenue, profitability,
financial health, risks and outlook as ten navigable sections.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("One-Pager %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Sections Command ---

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the report sections in navigation order",
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range navigator.Catalog() {
			fmt.Printf("  %2d. %-22s %3.0f%%\n", s.ID, s.Title, navigator.Progress(s.ID)*100)
		}
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  One-Pager — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus(now))
		fmt.Printf("  Time:          %s\n", utils.FormatTimestamp(now))
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    Catalog:       %s\n", cfg.Data.Catalog)
		fmt.Printf("    News Provider: %s (limit %d)\n", cfg.News.Provider, cfg.News.Limit)
		fmt.Printf("    Search:        debounce %dms, timeout %dms, max %d\n",
			cfg.Search.DebounceMS, cfg.Search.TimeoutMS, cfg.Search.MaxResults)
		fmt.Printf("    Export Format: %s\n", cfg.Report.Format)
		fmt.Printf("    API Server:    %s:%d\n", cfg.Server.Host, cfg.Server.Port)
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
