package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blinders/blinders-cli/internal/domain/execution"
	"github.com/blinders/blinders-cli/internal/domain/registry"
	"github.com/blinders/blinders-cli/internal/domain/report"
	"github.com/blinders/blinders-cli/internal/ports"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by WriteReport and WriteHistory.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = fmt.Errorf("unknown output format (expected %s, %s or %s)", FormatText, FormatJSON, FormatYAML)

// Theme colors.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
)

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(colorPrimary),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

// Printer renders plans, reports, history and registries.
type Printer struct {
	out    io.Writer
	styles styles
	title  cases.Caser
}

// NewPrinter creates a Printer writing to out. Colors are used only when
// out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		styles: newStyles(out),
		title:  cases.Title(language.English),
	}
}

// ValidFormat reports whether format is a supported output format.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// PrintPlan outputs the resolved steps of a plan.
func (p *Printer) PrintPlan(plan *execution.Plan) {
	req := plan.Request()
	mode := ""
	if plan.Simulated() {
		mode = p.styles.warning.Render(" [dry run]")
	}

	p.printf("%s%s\n", p.styles.title.Render(fmt.Sprintf("Plan %s: %s on %s", plan.RequestID(), req.Action(), req.Environment())), mode)
	for i, entry := range plan.Entries() {
		line := fmt.Sprintf("  %d. %s", i+1, entry.Name())
		if rb, ok := entry.Rollback(); ok {
			line += p.styles.muted.Render(fmt.Sprintf(" (rollback: %s)", rb.Name()))
		}
		p.printf("%s\n", line)
	}
	p.printf("\n")
}

// WriteReport renders rep in format.
func (p *Printer) WriteReport(format string, plan *execution.Plan, rep *report.DeploymentReport) error {
	switch format {
	case FormatText:
		p.PrintReport(plan, rep)
		return nil
	case FormatJSON:
		return p.writeJSON(rep.ToMap())
	case FormatYAML:
		return p.writeYAML(rep.ToMap())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// PrintReport outputs a line per step result and the overall status.
func (p *Printer) PrintReport(plan *execution.Plan, rep *report.DeploymentReport) {
	req := plan.Request()
	results := rep.Results()

	width := len("STEP")
	for _, r := range results {
		if w := runewidth.StringWidth(r.StepName()); w > width {
			width = w
		}
	}

	header := fmt.Sprintf("Deployment %s: %s on %s", rep.RequestID(), req.Action(), req.Environment())
	if req.DryRun() {
		header += " (dry run)"
	}
	p.printf("%s\n\n", p.styles.title.Render(header))

	for _, r := range results {
		line := fmt.Sprintf("  %s %s  %s  exit=%d  %s",
			p.symbol(r.Status()),
			padRight(r.StepName(), width),
			padRight(r.Status().String(), len("rolled-back")),
			r.ExitCode(),
			formatDuration(time.Duration(r.DurationMs())*time.Millisecond),
		)
		if r.IsRollback() {
			line += p.styles.muted.Render(" rollback for " + r.RollbackFor())
		} else if r.Cause() != report.CauseNone {
			line += p.styles.muted.Render(" (" + r.Cause().String() + ")")
		}
		p.printf("%s\n", line)

		if err := r.Error(); err != nil && r.Status() == report.StatusFailed {
			p.printf("      %s\n", p.styles.failure.Render(err.Error()))
		}
	}

	s := rep.Summary()
	p.printf("\nOverall: %s\n", p.overall(rep.OverallStatus()))
	p.printf("Summary: %d succeeded, %d failed, %d skipped, %d rolled back, %d aborted\n",
		s.Succeeded, s.Failed, s.Skipped, s.RolledBack, s.Aborted)
}

// WriteHistory renders history records in format.
func (p *Printer) WriteHistory(format string, records []ports.DeploymentRecord) error {
	switch format {
	case FormatText:
		p.PrintHistory(records)
		return nil
	case FormatJSON:
		if records == nil {
			records = []ports.DeploymentRecord{}
		}
		return p.writeJSON(records)
	case FormatYAML:
		return p.writeYAML(records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// PrintHistory outputs one line per recorded deployment.
func (p *Printer) PrintHistory(records []ports.DeploymentRecord) {
	if len(records) == 0 {
		p.printf("No deployments recorded.\n")
		return
	}

	cols := []int{len("STARTED"), len("REQUEST"), len("ENVIRONMENT"), len("ACTION"), len("STATUS")}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		action := r.Action
		if r.DryRun {
			action += " (dry run)"
		}
		row := []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.RequestID,
			r.Environment,
			action,
			r.OverallStatus,
		}
		for i, v := range row {
			if w := runewidth.StringWidth(v); w > cols[i] {
				cols[i] = w
			}
		}
		rows = append(rows, row)
	}

	p.printf("%s  %s  %s  %s  %s  %s\n",
		padRight("STARTED", cols[0]), padRight("REQUEST", cols[1]), padRight("ENVIRONMENT", cols[2]),
		padRight("ACTION", cols[3]), padRight("STATUS", cols[4]), "DURATION")
	for i, row := range rows {
		p.printf("%s  %s  %s  %s  %s  %s\n",
			padRight(row[0], cols[0]), padRight(row[1], cols[1]), padRight(row[2], cols[2]),
			padRight(row[3], cols[3]), padRight(row[4], cols[4]),
			formatDuration(records[i].Duration()))
	}
}

// PrintSteps outputs the registry in declaration order.
func (p *Printer) PrintSteps(reg *registry.Registry) {
	width := len("STEP")
	for _, name := range reg.Names() {
		if w := runewidth.StringWidth(name); w > width {
			width = w
		}
	}

	p.printf("%s\n\n", p.styles.title.Render(fmt.Sprintf("%d steps registered", reg.Len())))
	for _, def := range reg.Definitions() {
		p.printf("  %s  %s\n", padRight(def.Name(), width), def.CommandTemplate())
		if pre := def.Preconditions(); len(pre) > 0 {
			p.printf("  %s  %s\n", strings.Repeat(" ", width), p.styles.muted.Render("requires: "+strings.Join(pre, ", ")))
		}
		if def.HasRollback() {
			p.printf("  %s  %s\n", strings.Repeat(" ", width), p.styles.muted.Render("rollback: "+def.RollbackStep()))
		}
		if t := def.Timeout(); t > 0 {
			p.printf("  %s  %s\n", strings.Repeat(" ", width), p.styles.muted.Render("timeout: "+t.String()))
		}
	}
}

func (p *Printer) symbol(s report.StepStatus) string {
	switch s {
	case report.StatusSuccess:
		return p.styles.success.Render("✓")
	case report.StatusFailed:
		return p.styles.failure.Render("✗")
	case report.StatusRolledBack:
		return p.styles.warning.Render("↺")
	case report.StatusAborted:
		return p.styles.failure.Render("!")
	default:
		return p.styles.muted.Render("-")
	}
}

func (p *Printer) overall(s report.OverallStatus) string {
	label := p.title.String(s.String())
	switch s {
	case report.OverallSuccess:
		return p.styles.success.Render(label)
	case report.OverallPartialFailure:
		return p.styles.warning.Render(label)
	default:
		return p.styles.failure.Render(label)
	}
}

func (p *Printer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) writeYAML(v interface{}) error {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (p *Printer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
