package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinders/blinders-cli/internal/app"
	"github.com/blinders/blinders-cli/internal/domain/execution"
	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <action> --env <name>",
	Short: "Run a deployment action against an environment",
	Long: `Deploy builds a plan for the action, resolving every precondition
step, and runs it against the environment.

Actions:
  plan     init, validate and plan
  apply    plan, then apply (reverted on failure)
  destroy  init, then destroy (asks for confirmation)
  echo     connectivity smoke step

A failing step stops the run; later steps are skipped. Ctrl-C stops
dispatch and gives running steps the configured grace period.

Exit codes: 0 success, 1 failed or partially failed, 2 aborted,
3 invalid arguments or configuration.`,
	Example: `  blinders deploy plan --env staging
  blinders deploy apply --env production --dry-run
  blinders deploy destroy --env dev --yes --output json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: actionCompletions(),
	RunE:      runDeploy,
}

var (
	deployEnv    string
	deployDryRun bool
	deployOutput string
	deployYes    bool
)

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVarP(&deployEnv, "env", "e", "", "Target environment (required)")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Validate every step without changing infrastructure")
	deployCmd.Flags().StringVarP(&deployOutput, "output", "o", app.FormatText, "Report format: text, json or yaml")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "Skip the destroy confirmation prompt")
	_ = deployCmd.MarkFlagRequired("env")

	_ = deployCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{app.FormatText, app.FormatJSON, app.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runDeploy(cmd *cobra.Command, args []string) error {
	if !app.ValidFormat(deployOutput) {
		return fmt.Errorf("%w: %q", app.ErrUnknownFormat, deployOutput)
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	plan, err := env.deployer.Plan(app.Request{
		Environment: deployEnv,
		Action:      args[0],
		DryRun:      deployDryRun,
	})
	if err != nil {
		return err
	}

	printer := app.NewPrinter(cmd.OutOrStdout())
	req := plan.Request()

	if req.Action().IsDestructive() && !req.DryRun() && !deployYes {
		app.NewPrinter(cmd.ErrOrStderr()).PrintPlan(plan)
		prompt := fmt.Sprintf("Destroy all infrastructure in %s?", req.Environment())
		if !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt) {
			return errors.New("destroy cancelled, nothing was executed")
		}
	} else if deployOutput == app.FormatText {
		printer.PrintPlan(plan)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := env.deployer.Run(ctx, plan)
	if err != nil {
		return err
	}

	if err := printer.WriteReport(deployOutput, plan, result.Report); err != nil {
		return err
	}

	if code := exitCodeFor(result.Report.OverallStatus()); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

var deployHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded deployments",
	Long: `History lists finished deployments, newest first.

Every deploy run, dry runs included, is recorded in the SQLite database
at history.dsn (default ~/.blinders/history.db).`,
	Example: `  blinders deploy history
  blinders deploy history --env production --limit 5
  blinders deploy history --json`,
	Args: cobra.NoArgs,
	RunE: runDeployHistory,
}

var (
	historyLimit int
	historyEnv   string
	historyJSON  bool
)

func init() {
	deployCmd.AddCommand(deployHistoryCmd)

	deployHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	deployHistoryCmd.Flags().StringVarP(&historyEnv, "env", "e", "", "Only show this environment")
	deployHistoryCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
}

func runDeployHistory(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", historyLimit)
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	records, err := env.deployer.History(cmd.Context(), ports.HistoryFilter{
		Environment: historyEnv,
		Limit:       historyLimit,
	})
	if errors.Is(err, app.ErrHistoryDisabled) {
		return fmt.Errorf("%w; set history.enabled: true to record deployments", err)
	}
	if err != nil {
		return err
	}

	format := app.FormatText
	if historyJSON {
		format = app.FormatJSON
	}
	return app.NewPrinter(cmd.OutOrStdout()).WriteHistory(format, records)
}

// actionCompletions lists the built-in actions for shell completion.
func actionCompletions() []string {
	actions := execution.Actions()
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.String())
	}
	return names
}
