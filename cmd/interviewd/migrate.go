package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/interviewcoach-backend/internal/app"
	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the session tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		svc, err := db.Open(cfg.Storage, log)
		if err != nil {
			return err
		}
		if svc == nil {
			return errors.New("storage driver is none; set INTERVIEW_STORAGE_DRIVER")
		}
		defer svc.Close()
		if err := svc.AutoMigrate(); err != nil {
			return err
		}
		log.Info("migration complete", "driver", cfg.Storage.Driver)
		return nil
	},
}
