package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qs3c/idea_go_server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "同步数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}

		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		log.Info().Msg("migration finished")
		return nil
	},
}
