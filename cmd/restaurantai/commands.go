package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restaurantai/internal/api"
	"restaurantai/internal/api/handlers"
	"restaurantai/internal/service"
	"restaurantai/pkg/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "restaurantai",
		Short:         "Incremental tag analytics for restaurant feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newIngestCmd(false),
		newIngestCmd(true),
		newSummaryCmd(),
		newExportCmd(),
		newCatalogCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// withApp wires the application for the lifetime of one command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application) error {
				cfg := app.cfg
				jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
				source := handlers.FeedbackSource{CSVPath: cfg.Pipeline.CSVPath}

				router := api.SetupRouter(api.Handlers{
					Auth:      handlers.NewAuthHandler(service.NewAuthService(cfg.Admin, jwtManager, app.logger), app.logger),
					Dashboard: handlers.NewDashboardHandler(app.dashboard, app.legacy, source, app.logger),
					Pipeline:  handlers.NewPipelineHandler(app.pipeline, app.catalog, source, app.logger),
					Catalog:   handlers.NewCatalogHandler(app.catalog, app.logger),
					Leads:     handlers.NewLeadsHandler(app.leads, source, app.logger),
				}, jwtManager, app.logger)

				errCh := make(chan error, 1)
				go func() {
					addr := ":" + cfg.Server.Port
					app.logger.Info("Server starting", zap.String("address", addr))
					errCh <- router.Listen(addr)
				}()

				select {
				case err := <-errCh:
					return fmt.Errorf("server failed: %w", err)
				case <-ctx.Done():
				}

				app.logger.Info("Shutting down server")
				if err := router.Shutdown(); err != nil {
					app.logger.Error("Server shutdown error", zap.Error(err))
				}
				return nil
			})
		},
	}
}

// newIngestCmd builds "ingest" or, with reset, "reprocess".
func newIngestCmd(reset bool) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Classify feedback rows that were not processed yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application) error {
				rows, err := app.loadRows(csvPath)
				if err != nil {
					return err
				}
				catalog, err := app.catalog.Snapshot(ctx)
				if err != nil {
					return err
				}

				run := app.pipeline.Run
				if reset {
					run = app.pipeline.Reprocess
				}
				report, err := run(ctx, catalog, rows)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	if reset {
		cmd.Use = "reprocess"
		cmd.Short = "Clear derived data and classify every row again"
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "feedback CSV (defaults to FEEDBACK_CSV_PATH)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var metricsOnly bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print aggregated metrics and the executive summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application) error {
				if metricsOnly {
					metrics, _, err := app.dashboard.Metrics(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, metrics)
				}
				dashboard, err := app.dashboard.Build(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, dashboard)
			})
		},
	}
	cmd.Flags().BoolVar(&metricsOnly, "metrics-only", false, "skip the executive summary")
	return cmd
}

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write events, index, cache and catalog tables as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application) error {
				files, err := app.exporter.Export(ctx, dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/export", "output directory")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Seed the tag catalog and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application) error {
				if file != "" {
					if err := app.seedCatalog(ctx, file); err != nil {
						return err
					}
				}
				catalog, err := app.catalog.Snapshot(ctx)
				if err != nil {
					return err
				}
				pending, err := app.catalog.Pending(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"signature": catalog.Signature(),
					"entries":   catalog.Entries(),
					"pending":   pending,
				})
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog whose missing entries are added")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
