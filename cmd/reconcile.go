package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.uber.org/zap"
)

var reconcileLimit int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Retry CRM forwards for records that were written but not synced",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Reconcile(ctx, reconcileLimit)
		if err != nil {
			return err
		}

		zap.L().Info("reconcile complete",
			zap.Int("attempted", result.Attempted),
			zap.Int("recovered", result.Recovered),
			zap.Int("remaining", result.Remaining),
		)
		fmt.Printf("Attempted %d, recovered %d, %d still parked\n",
			result.Attempted, result.Recovered, result.Remaining)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 50, "max parked leads to retry")
	rootCmd.AddCommand(reconcileCmd)
}
