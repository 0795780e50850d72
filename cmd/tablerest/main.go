package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/tablerest/internal/app"
	"github.com/rebeliceyang/tablerest/internal/config"
	"github.com/rebeliceyang/tablerest/internal/db/connection"
	"github.com/rebeliceyang/tablerest/internal/export"
	"github.com/rebeliceyang/tablerest/internal/history"
	"github.com/rebeliceyang/tablerest/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "tablerest",
	Short:         "Serve database tables over a REST API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	rootCmd.AddCommand(serveCmd(), migrateCmd(), historyCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logger := logging.New(cfg.Debug, cfg.Log.Format)
			if !cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				level.Error(logger).Log("msg", "failed to start", "err", err)
				return err
			}
			defer func() { _ = a.Close() }()

			return a.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides PORT)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations from db.migrations_path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.DB.MigrationsPath == "" {
				return fmt.Errorf("db.migrations_path is not set")
			}

			logger := logging.New(cfg.Debug, cfg.Log.Format)
			if err := connection.Migrate(cfg.Connection(), cfg.DB.MigrationsPath); err != nil {
				return err
			}
			level.Info(logger).Log("msg", "migrations applied", "path", cfg.DB.MigrationsPath)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var (
		format string
		out    string
		table  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export recorded statements from history.path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" || cfg.History.Path == ":memory:" {
				return fmt.Errorf("history.path must name a database file")
			}

			logger := logging.New(cfg.Debug, cfg.Log.Format)
			store, err := history.NewStore(cfg.History.Path, 0, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var entries []history.Entry
			if table != "" {
				entries, err = store.Search(table, limit)
			} else {
				entries, err = store.GetRecent(limit)
			}
			if err != nil {
				return err
			}

			if out == "" {
				return export.To(cmd.OutOrStdout(), entries, format)
			}
			return export.ToFile(entries, format, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&table, "table", "", "Only statements against this table")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of statements")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
