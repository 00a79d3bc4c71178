package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/blinders/blinders-cli/internal/domain/config"
	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/blinders/blinders-cli/internal/testutil"
	"github.com/blinders/blinders-cli/internal/testutil/mocks"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliResult is what one CLI invocation produced.
type cliResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes the root command with args and stdin, returning its
// output and exit code. Commands share package state, so callers must not
// run in parallel.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	code := exitCode(rootCmd.Execute(), &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// useToolAdapter makes every command run steps through adapter.
func useToolAdapter(t *testing.T, adapter *mocks.ToolAdapter) {
	t.Helper()

	orig := newToolAdapter
	newToolAdapter = func(*config.Config, io.Writer) ports.ToolAdapter { return adapter }
	t.Cleanup(func() { newToolAdapter = orig })
}

// writeConfig writes a blinders.yaml allowing dev and staging, with history
// stored under the test's temp dir, and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()

	return testutil.NewConfig().
		Environment("dev", "infra/dev").
		Environment("staging", "infra/staging").
		Set("deploy", "step_timeout", "5s").
		Set("deploy", "grace_period", "1s").
		History(testutil.TempHistoryDSN(t)).
		Write(t)
}
