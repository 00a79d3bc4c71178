package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/blinders/blinders-cli/internal/adapters/awsprofile"
	"github.com/blinders/blinders-cli/internal/adapters/command"
	"github.com/blinders/blinders-cli/internal/adapters/history"
	"github.com/blinders/blinders-cli/internal/adapters/logging"
	"github.com/blinders/blinders-cli/internal/adapters/tool"
	"github.com/blinders/blinders-cli/internal/app"
	"github.com/blinders/blinders-cli/internal/domain/config"
	"github.com/blinders/blinders-cli/internal/domain/registry"
	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "blinders",
	Short: "Wrapped commands to deploy on AWS with Terraform",
	Long: `Blinders sequences infrastructure-provisioning steps with proper
failure handling: preconditions run first, a failing step stops the run
and triggers its rollback, and every run ends in a single report.

  blinders deploy plan --env staging
  blinders deploy apply --env staging --dry-run`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./blinders.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and streamed tool output")

	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	rootCmd.AddCommand(versionCmd)
}

var loadConfig = func() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newToolAdapter builds the adapter steps run through. Replaced in tests.
var newToolAdapter = func(cfg *config.Config, echo io.Writer) ports.ToolAdapter {
	opts := []tool.Option{tool.WithShell(cfg.Deploy.Shell)}
	if echo != nil {
		opts = append(opts, tool.WithEcho(echo))
	}
	return tool.New(command.NewRealRunner(), opts...)
}

func newLogger(cfg *config.Config, w io.Writer) (ports.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(w, level, cfg.Log.Format)
	if err != nil {
		return nil, &config.UserError{
			Code:       config.ErrCodeConfigInvalid,
			Message:    err.Error(),
			Context:    "log",
			Suggestion: "Use log.level debug|info|warn|error and log.format text|json.",
		}
	}
	return logger, nil
}

// environment bundles what every command needs after startup.
type environment struct {
	cfg      *config.Config
	logger   ports.Logger
	deployer *app.Deployer
	close    func()
}

// setup loads configuration and the registry and wires the deployer.
func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	reg, err := app.LoadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	var echo io.Writer
	if verbose {
		echo = cmd.ErrOrStderr()
	}

	d := app.NewDeployer(cfg, reg, newToolAdapter(cfg, echo)).WithLogger(logger)
	if cfg.AWS.CheckProfile {
		d = d.WithProfileChecker(awsprofile.NewChecker(cfg.AWS.ConfigFile))
	}

	env := &environment{cfg: cfg, logger: logger, deployer: d, close: func() {}}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DSN)
		if err != nil {
			logger.Warn(cmd.Context(), "deployment history unavailable", ports.F("dsn", cfg.History.DSN), ports.F("error", err))
		} else {
			d.WithHistory(store)
			env.close = func() { _ = store.Close() }
		}
	}

	logger.Debug(cmd.Context(), "configuration loaded",
		ports.F("file", cfg.File),
		ports.F("steps", reg.Len()),
		ports.F("environments", cfg.EnvironmentNames()),
	)

	return env, nil
}

// formatError returns a user-friendly error message: the message and
// suggestion, or with --verbose the full coded report including the cause.
func formatError(err error) string {
	var list *config.ErrorList
	if verbose && errors.As(err, &list) {
		return list.Format()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		if verbose {
			return userErr.Format()
		}
		msg := userErr.Error()
		if userErr.Suggestion != "" {
			msg += "\n\nSuggestion: " + userErr.Suggestion
		}
		return msg
	}

	var regErr *registry.Error
	if errors.As(err, &regErr) {
		if verbose {
			return regErr.Format()
		}
		if regErr.Suggestion != "" {
			return fmt.Sprintf("%s\n\nSuggestion: %s", regErr.Error(), regErr.Suggestion)
		}
	}

	return err.Error()
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
