package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/interviewcoach-backend/internal/platform/shutdown"
)

var rootCmd = &cobra.Command{
	Use:           "interviewd",
	Short:         "Interview simulation backend",
	Long:          `Runs mock interview sessions: turn coordination for the simulated interviewer and live coaching for the candidate.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, simulateCmd, migrateCmd)
}

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
