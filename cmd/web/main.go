package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tech-insights/internal/config"
	"tech-insights/internal/export"
	"tech-insights/internal/observability"
	"tech-insights/internal/server"
	"tech-insights/internal/services"
	"tech-insights/internal/ui/templates"
)

const csvLoadTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tech-insights",
		Short:        "Sales, churn and inventory dashboard for the electronics niche",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP dashboard",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		newSummaryCmd(),
		newRestockCmd(),
	)
	return root
}

func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return nil, nil, err
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// loadAnalytics reads both CSV files. A failed load is logged and kept on the
// returned service so pages can show the missing-data banner.
func loadAnalytics(ctx context.Context, cfg *config.Config, logger *slog.Logger) *services.Analytics {
	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCacheDir(cfg.Data.CacheDir),
	)

	ctx, cancel := context.WithTimeout(ctx, csvLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, cfg.Data.SalesFile, cfg.Data.ChurnFile); err != nil {
		logger.Error("failed to load CSV data", "error", err)
		return analytics
	}
	logger.Info("CSV data loaded successfully", "duration", time.Since(start))
	return analytics
}

func recordDatasetMetrics(m *observability.Metrics, analytics *services.Analytics) {
	stats := analytics.Stats()
	gauge := func(v any) float64 {
		n, _ := v.(int)
		return float64(n)
	}
	m.DatasetRows.WithLabelValues("sales").Set(gauge(stats["sales_records"]))
	m.DatasetRows.WithLabelValues("churn").Set(gauge(stats["churn_records"]))
	m.SkippedRows.WithLabelValues("sales").Set(gauge(stats["skipped_sales"]))
	m.SkippedRows.WithLabelValues("churn").Set(gauge(stats["skipped_churn"]))
}

type app struct {
	httpServer *http.Server
	graceful   *server.GracefulServer
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (*app, error) {
	tracing, err := observability.NewTracing(cfg.Telemetry, traceOut)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	metrics := observability.NewMetrics()
	analytics := loadAnalytics(ctx, cfg, logger)
	recordDatasetMetrics(metrics, analytics)

	srv := server.NewServer(server.Dependencies{
		Config:    cfg,
		Analytics: analytics,
		Inventory: services.NewInventory(),
		Orders:    services.NewOrderBook(),
		Metrics:   metrics,
		Tracer:    tracing.Tracer(),
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	graceful := server.NewGracefulServer(httpServer, logger, cfg.Server)
	graceful.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing traces")
		return tracing.Shutdown(ctx)
	})

	return &app{httpServer: httpServer, graceful: graceful}, nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	logger.Info("starting application",
		"version", observability.ServiceVersion,
		"addr", cfg.Address(),
		"sales_file", cfg.Data.SalesFile,
		"churn_file", cfg.Data.ChurnFile,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		return err
	}

	if err := a.graceful.Run(ctx); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func newSummaryCmd() *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard KPIs for a set of states",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			analytics := loadAnalytics(cmd.Context(), cfg, logger)
			if err := analytics.Err(); err != nil {
				return fmt.Errorf("%s: %w", templates.MissingDataMessage, err)
			}

			if len(states) == 0 {
				states = analytics.DefaultSelection(cfg.Data.DefaultStates)
			}
			for i, st := range states {
				states[i] = strings.ToUpper(strings.TrimSpace(st))
			}

			sel := analytics.Filter(states)
			if sel.Empty() {
				return errors.New(templates.MissingDataMessage)
			}
			return printSummary(cmd.OutOrStdout(), sel)
		},
	}

	cmd.Flags().StringSliceVar(&states, "states", nil, "state codes to include, e.g. SP,RJ (default: DATA_DEFAULT_STATES)")
	return cmd
}

func printSummary(w io.Writer, sel services.Selection) error {
	sum := sel.Summary()
	insight := sel.Insight()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "States:\t%s\n", strings.Join(sel.States, ", "))
	fmt.Fprintf(tw, "Total revenue:\t%s\n", templates.FormatMoney(sum.TotalRevenue))
	fmt.Fprintf(tw, "Average ticket:\t%s\n", templates.FormatMoney(sum.AverageTicket))
	fmt.Fprintf(tw, "Estimated churn rate:\t%s\n", templates.FormatPercent(sum.ChurnRate))
	fmt.Fprintf(tw, "Accessory/core ratio:\t%s\n", templates.FormatRatio(sum.CrossSellRatio))
	fmt.Fprintf(tw, "Insight:\t%s\n", insight.Headline)
	if insight.Action != "" {
		fmt.Fprintf(tw, "Suggested action:\t%s\n", insight.Action)
	}
	return tw.Flush()
}

func newRestockCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "restock",
		Short: "Write a restock order workbook for every critical category",
		RunE: func(cmd *cobra.Command, args []string) error {
			order := services.NewInventory().NewRestockOrder(time.Now())

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.Restock(f, order); err != nil {
				f.Close()
				return fmt.Errorf("write restock order: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote order %s (%s units across %d categories) to %s\n",
				order.ID, templates.FormatUnits(order.TotalUnits()), len(order.Lines), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "restock.xlsx", "path of the workbook to write")
	return cmd
}
