package main

import (
	"github.com/blinders/blinders-cli/internal/app"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the registered deployment steps",
	Long: `Steps loads the step registry (the built-in Terraform steps, or the
file named by deploy.registry) and prints every step with its
preconditions, rollback and command template.

Use it to check a custom steps file: duplicate names, unknown
references and malformed entries are reported as errors.`,
	Args: cobra.NoArgs,
	RunE: runSteps,
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}

func runSteps(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := app.LoadRegistry(cfg)
	if err != nil {
		return err
	}

	app.NewPrinter(cmd.OutOrStdout()).PrintSteps(reg)
	return nil
}
