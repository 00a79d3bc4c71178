// Package tool adapts the infrastructure-automation CLI to ports.ToolAdapter.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"text/template"

	"github.com/blinders/blinders-cli/internal/ports"
)

// DefaultShell interprets rendered command lines.
const DefaultShell = "sh"

// Data is the value command templates are executed against.
type Data struct {
	RequestID   string
	Environment string
	Action      string
	Step        string
	WorkDir     string
	Vars        map[string]string
}

// Adapter renders a step's command template and runs it through a shell.
// The work directory is only a template value; commands run from the
// current directory so templates decide how to use it (e.g. -chdir).
type Adapter struct {
	runner   ports.CommandRunner
	shell    string
	echo     io.Writer
	lookPath func(string) (string, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithShell sets the shell used to run rendered commands.
func WithShell(shell string) Option {
	return func(a *Adapter) {
		if shell != "" {
			a.shell = shell
		}
	}
}

// WithEcho streams tool output lines to w as they are produced.
func WithEcho(w io.Writer) Option {
	return func(a *Adapter) {
		a.echo = w
	}
}

// WithLookPath overrides how simulate mode resolves executables.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(a *Adapter) {
		a.lookPath = fn
	}
}

// New creates an Adapter that runs commands with runner.
func New(runner ports.CommandRunner, opts ...Option) *Adapter {
	a := &Adapter{
		runner:   runner,
		shell:    DefaultShell,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute renders commandTemplate with tc and runs it.
//
// In simulate mode nothing is executed: the template must render and its
// executable must resolve, and the result is synthesized from that check.
func (a *Adapter) Execute(ctx context.Context, commandTemplate string, tc ports.ToolContext) (ports.ToolResult, error) {
	rendered, err := Render(tc.Step, commandTemplate, tc)
	if err != nil {
		if tc.Simulate {
			return ports.ToolResult{ExitCode: 1, Stderr: err.Error() + "\n", Simulated: true}, nil
		}
		return ports.ToolResult{ExitCode: -1}, err
	}

	if tc.Simulate {
		return a.simulate(rendered), nil
	}

	if err := ctx.Err(); err != nil {
		return ports.ToolResult{ExitCode: -1}, err
	}

	res, err := a.runner.Run(ctx, ports.CommandSpec{
		Command: a.shell,
		Args:    []string{"-c", rendered},
		Env:     environ(tc.Env),
		Echo:    a.echo,
	})

	return ports.ToolResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}, err
}

func (a *Adapter) simulate(rendered string) ports.ToolResult {
	fields := strings.Fields(rendered)
	if len(fields) == 0 {
		return ports.ToolResult{ExitCode: 1, Stderr: "rendered command is empty\n", Simulated: true}
	}

	if _, err := a.lookPath(fields[0]); err != nil {
		return ports.ToolResult{
			ExitCode:  127,
			Stderr:    fmt.Sprintf("%s: executable not found\n", fields[0]),
			Simulated: true,
		}
	}

	return ports.ToolResult{
		Stdout:    "[dry-run] " + rendered + "\n",
		Simulated: true,
	}
}

// Render executes a command template against tc. Missing keys are errors.
func Render(name, commandTemplate string, tc ports.ToolContext) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(commandTemplate)
	if err != nil {
		return "", fmt.Errorf("parse command template: %w", err)
	}

	vars := tc.Vars
	if vars == nil {
		vars = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Data{
		RequestID:   tc.RequestID,
		Environment: tc.Environment,
		Action:      tc.Action,
		Step:        tc.Step,
		WorkDir:     workDirOrDot(tc.WorkDir),
		Vars:        vars,
	}); err != nil {
		return "", fmt.Errorf("render command template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

func workDirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// environ converts env to sorted KEY=VALUE pairs.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Ensure Adapter implements ports.ToolAdapter.
var _ ports.ToolAdapter = (*Adapter)(nil)
