package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amanex/amanex/internal/bot"
	"github.com/amanex/amanex/internal/chat/telegram"
	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/dashboard"
	"github.com/amanex/amanex/internal/db"
	"github.com/amanex/amanex/internal/flow"
	"github.com/amanex/amanex/internal/notify"
	"github.com/amanex/amanex/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the marketplace bot",
		Long:  "Connects to Telegram and serves the marketplace until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	// .env is optional; real env vars win either way.
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	st, err := store.New(store.Opts{DB: gormDB})
	if err != nil {
		return err
	}

	adapter, err := telegram.New(telegram.Opts{Token: cfg.Token})
	if err != nil {
		return err
	}

	notifier, err := notify.New(notify.Opts{
		Adapter:     adapter,
		OperatorID:  cfg.AdminID,
		MethodLabel: methodLabeler(cfg),
	})
	if err != nil {
		return err
	}

	engine, err := flow.NewEngine(flow.EngineOpts{
		Store:    st,
		Adapter:  adapter,
		Notifier: notifier,
		Config:   cfg,
		Backup:   func() (string, error) { return db.Backup(cfg.Database) },
	})
	if err != nil {
		return err
	}

	daemon, err := bot.New(bot.Opts{
		Adapter:  adapter,
		Engine:   engine,
		Store:    st,
		Notifier: notifier,
		Config:   cfg,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Dashboard.Enabled {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				Store: st,
				Port:  cfg.Dashboard.Port,
				Out:   cmd.OutOrStdout(),
			}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dashboard: %v\n", err)
			}
		}()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Amanex serving — press Ctrl+C to stop")
	return daemon.Run(ctx)
}

// methodLabeler resolves payment keys against the configured catalog.
func methodLabeler(cfg *config.Config) func(string) string {
	return func(key string) string {
		if m, ok := cfg.PaymentByKey(key); ok {
			return m.Label
		}
		return key
	}
}
