package driver

import (
	"fmt"
	"strings"
	"time"

	"github.com/asmkit/multik/internal/collect"
	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/pass"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Report describes a finished or aborted run.
type Report struct {
	RunID      string
	Requested  kmer.Schedule
	Effective  kmer.Schedule
	ReadLength int
	Removed    kmer.Schedule
	Passes     []PassReport
	Latest     string
	Published  []collect.Copy
	StartedAt  time.Time
	FinishedAt time.Time
}

// PassReport is one row of the report.
type PassReport struct {
	K        int
	Decision pass.Decision
	Terminal bool
	ExitCode int
	Duration time.Duration
	Ran      bool
}

func (r *Report) add(out *pass.Outcome) {
	pr := PassReport{K: out.K, Decision: out.Decision, Terminal: out.Terminal}
	if out.Result != nil {
		pr.Ran = true
		pr.ExitCode = out.Result.ExitCode
		pr.Duration = out.Result.Duration
	}
	r.Passes = append(r.Passes, pr)
}

// Invocations returns the number of engine runs.
func (r *Report) Invocations() int {
	n := 0
	for _, p := range r.Passes {
		if p.Ran {
			n++
		}
	}
	return n
}

var summaryHeader = table.Row{
	"Run ID",
	"Requested K",
	"Effective K",
	"Read Length",
	"Removed",
	"Result",
}

var passHeader = table.Row{
	"#",
	"K",
	"Decision",
	"Terminal",
	"Exit Code",
	"Duration",
}

// Render returns the report as text tables.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("\nSummary ->\n")

	summary := table.NewWriter()
	summary.AppendHeader(summaryHeader)
	summary.AppendRow(table.Row{
		r.RunID,
		formatSchedule(r.Requested),
		formatSchedule(r.Effective),
		formatCount(r.ReadLength),
		formatSchedule(r.Removed),
		r.Latest,
	})
	b.WriteString(summary.Render())

	b.WriteString("\n\nPasses ->\n")
	passes := table.NewWriter()
	passes.AppendHeader(passHeader)
	for i, p := range r.Passes {
		row := table.Row{i + 1, p.K, p.Decision.String(), p.Terminal, "-", "-"}
		if p.Ran {
			row[4] = p.ExitCode
			row[5] = p.Duration.Round(time.Millisecond).String()
		}
		passes.AppendRow(row)
	}
	b.WriteString(passes.Render())
	b.WriteString("\n")
	return b.String()
}

func formatSchedule(s kmer.Schedule) string {
	if len(s) == 0 {
		return "-"
	}
	return fmt.Sprint([]int(s))
}

func formatCount(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprint(n)
}
