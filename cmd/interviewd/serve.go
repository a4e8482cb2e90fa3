package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/interviewcoach-backend/internal/app"
	"github.com/yungbote/interviewcoach-backend/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and realtime API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize app", "error", err)
			log.Sync()
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		log.Info("interviewd starting", "addr", cfg.HTTP.Addr, "env", cfg.Env)
		if err := a.Run(ctx); err != nil {
			log.Error("server exited", "error", err)
			return err
		}
		log.Info("interviewd stopped")
		return nil
	},
}
