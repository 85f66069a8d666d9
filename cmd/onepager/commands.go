package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/onepager/api"
	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/report"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/pkg/utils"
)

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the company catalog by symbol or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := buildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := search.New(st.catalog, search.Options{
			Timeout:    cfg.Search.Timeout(),
			MaxResults: cfg.Search.MaxResults,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		defer engine.Close()

		resolved := make(chan search.State, 1)
		engine.OnChange(func(s search.State) {
			if s.Display == search.DisplayResolved {
				select {
				case resolved <- s:
				default:
				}
			}
		})
		engine.Search(args[0])
		if engine.State().Display == search.DisplayHidden {
			fmt.Println("Type a company name or symbol to search.")
			return nil
		}

		var state search.State
		select {
		case state = <-resolved:
		case <-ctx.Done():
			return ctx.Err()
		}

		switch {
		case state.TimedOut:
			fmt.Println("⚠️  Search timed out.")
		case state.NoResults():
			fmt.Printf("No companies match %q.\n", args[0])
		default:
			for _, c := range state.Results {
				fmt.Printf("  %-6s %-28s %10s  %s\n", c.Symbol, c.Name, utils.FormatPrice(c.Price),
					utils.FormatChangePercent(c.Change, c.ChangePercent))
			}
		}
		return nil
	},
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [symbol]",
	Short: "Print one section or the whole one-pager for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetInt("section")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		st, err := buildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		rs, err := st.agg.Load(ctx, args[0])
		if err != nil {
			return err
		}

		var payloads []report.Payload
		if section != 0 {
			p, err := report.Compose(navigator.SectionID(section), rs)
			if err != nil {
				return err
			}
			payloads = []report.Payload{p}
		} else {
			payloads = report.ComposeAll(rs)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if section != 0 {
				return enc.Encode(payloads[0])
			}
			return enc.Encode(payloads)
		}

		if section == 0 {
			return report.Export(os.Stdout, rs, report.ExportOptions{Format: report.FormatText})
		}
		fmt.Printf("%s (%s)\n", rs.Company.Name, rs.Company.Symbol)
		return report.WriteSection(os.Stdout, payloads[0])
	},
}

func init() {
	reportCmd.Flags().Int("section", 0, "section number 1-10 (default: all sections)")
	reportCmd.Flags().Bool("json", false, "print composed payloads as JSON")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export [symbol]",
	Short: "Export the full one-pager as HTML or text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		if name == "" {
			name = cfg.Report.Format
		}
		format, err := report.ParseFormat(name)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		noCharts, _ := cmd.Flags().GetBool("no-charts")

		ctx := cmd.Context()
		st, err := buildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		rs, err := st.agg.Load(ctx, args[0])
		if err != nil {
			return err
		}

		opts := report.DefaultExportOptions()
		opts.Format = format
		opts.Charts = !noCharts
		opts.GeneratedAt = time.Now()

		if out == "" || out == "-" {
			return report.Export(os.Stdout, rs, opts)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := report.Export(f, rs, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "📄 Wrote %s one-pager to %s\n", strings.ToUpper(string(format)), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "", "export format: html or text (default: report.format)")
	exportCmd.Flags().String("out", "", "output file (default: stdout)")
	exportCmd.Flags().Bool("no-charts", false, "omit SVG charts from HTML exports")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		idle, _ := cmd.Flags().GetDuration("session-idle")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := buildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		go st.agg.RunJanitor(ctx, time.Minute)

		srv, err := api.NewServer(cfg, api.Deps{
			Catalog:     st.catalog,
			Loader:      st.agg,
			Trending:    st.store,
			Favorites:   favorites.New(logger),
			Logger:      logger,
			Version:     version,
			SessionIdle: idle,
		})
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		fmt.Printf("🌐 Starting One-Pager API server on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: server.port)")
	serveCmd.Flags().Duration("session-idle", 30*time.Minute, "close sessions idle for longer than this (0 keeps them)")
}
