package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/leadfile"
)

var (
	batchFile   string
	batchSource string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a file of leads through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := leadfile.Load(batchFile)
		if err != nil {
			return eris.Wrap(err, "batch: load leads")
		}
		if batchSource != "" {
			for i := range leads {
				leads[i].Source = batchSource
			}
		}

		zap.L().Info("starting batch", zap.Int("leads", len(leads)), zap.String("file", batchFile))

		result, err := env.Pipeline.RunBatch(ctx, leads, cfg.Pipeline.ItemInterval())
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d leads (%d failed)\n", result.Processed, result.Failed)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "lead file (.csv, .json, or .xlsx)")
	batchCmd.Flags().StringVar(&batchSource, "source", "", "override source tool tag for every lead")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
