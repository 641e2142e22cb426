package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/yobot/leadflow/internal/model"
)

var intakeLead model.Lead

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Process a single lead through the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, intakeLead)
		if result != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(result)
		}
		return err
	},
}

func init() {
	intakeCmd.Flags().StringVar(&intakeLead.FirstName, "first", "", "first name")
	intakeCmd.Flags().StringVar(&intakeLead.LastName, "last", "", "last name")
	intakeCmd.Flags().StringVar(&intakeLead.Company, "company", "", "company name")
	intakeCmd.Flags().StringVar(&intakeLead.Domain, "domain", "", "company domain (bare hostname)")
	intakeCmd.Flags().StringVar(&intakeLead.Email, "email", "", "email, if already known")
	intakeCmd.Flags().StringVar(&intakeLead.Phone, "phone", "", "phone, if already known")
	intakeCmd.Flags().StringVar(&intakeLead.Source, "source", "manual", "source tool tag")
	rootCmd.AddCommand(intakeCmd)
}
