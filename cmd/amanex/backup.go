package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amanex/amanex/internal/config"
	"github.com/amanex/amanex/internal/db"
)

func newBackupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the SQLite database to a timestamped backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, err := db.Backup(cfg.Database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}
