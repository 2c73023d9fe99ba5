package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "ticktask-backend/cmd/api"
	"ticktask-backend/internal/schema"
	"ticktask-backend/pkg/config"
	"ticktask-backend/pkg/database"
	"ticktask-backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ticktask",
		Short:        "TickTask task tracking backend",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newRemindCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			log := logger.New(cfg.LogLevel, cfg.LogEncoding)
			defer log.Sync() //nolint:errcheck

			app, err := api.NewApp(cmd.Context(), cfg, log, api.Options{})
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := app.Close(closeCtx); err != nil {
					log.Error("shutdown failed", zap.Error(err))
				}
			}()

			if cfg.AutoMigrate {
				if err := schema.Migrate(app.DB); err != nil {
					return fmt.Errorf("failed to migrate database: %w", err)
				}
			}
			if err := app.StartBackground(); err != nil {
				return err
			}

			return api.NewHandler(app).Start(cmd.Context(), ":"+cfg.Port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel, cfg.LogEncoding)
			defer log.Sync() //nolint:errcheck

			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			if err := schema.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Info("database migrated", zap.String("driver", cfg.DBDriver))
			return nil
		},
	}
}

func newRemindCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "remind-deadlines",
		Short: "E-mail assignees of open tasks due in N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if days > 0 {
				cfg.ReminderDaysAhead = days
			}
			log := logger.New(cfg.LogLevel, cfg.LogEncoding)
			defer log.Sync() //nolint:errcheck

			app, err := api.NewApp(cmd.Context(), cfg, log, api.Options{Direct: true})
			if err != nil {
				return err
			}
			defer app.Close(context.Background()) //nolint:errcheck

			sent, err := app.Reminder.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d reminder(s)\n", sent)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "days ahead (overrides REMINDER_DAYS_AHEAD)")
	return cmd
}
