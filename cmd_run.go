package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"digest-backend/internal/pipeline"

	"github.com/spf13/cobra"
)

var runSchedule string

// runCmd performs one invocation and exits, for OS-level cron
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all schedules due today, or one schedule with --schedule",
	Long: `Runs one invocation and prints the per-schedule outcome as JSON.

Examples:
  digest run                       # everything due today (UTC)
  digest run --schedule <id>       # one schedule now, ignoring recurrence`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runSchedule, "schedule", "", "Run this schedule id manually")
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var out interface{}
	if runSchedule != "" {
		out, err = a.service.RunManual(ctx, runSchedule)
	} else {
		out, err = a.service.RunDue(ctx, pipeline.TriggerCLI)
	}
	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
