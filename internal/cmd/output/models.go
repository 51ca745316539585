package output

import (
	"io"
	"strconv"
	"time"

	"github.com/agentstation/storesync/internal/cmd/table"
	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/differ"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// resultKeys orders the properties of a run in the table view.
var resultKeys = []string{"run_id", "started_at", "duration", "dry_run", "truncated", "supplied", "listed"}

// FormatResult writes a run result. Table formats render a report of counts,
// failures and (wide) skipped inputs; other formats encode the result as is.
func FormatResult(w io.Writer, result *pkgsync.Result, format Format) error {
	formatter := NewFormatter(format)
	if !format.IsTable() {
		return formatter.Format(w, result)
	}
	return formatter.Format(w, ResultReport(result, format == FormatWide))
}

// ResultReport builds the table view of a run.
func ResultReport(result *pkgsync.Result, wide bool) Report {
	props := map[string]string{
		"run_id":     result.RunID,
		"started_at": result.StartedAt.Format(constants.TimeFormatHuman),
		"duration":   result.Duration().Round(time.Millisecond).String(),
		"dry_run":    strconv.FormatBool(result.DryRun),
		"truncated":  strconv.FormatBool(result.Truncated),
		"supplied":   strconv.Itoa(result.Supplied),
		"listed":     strconv.Itoa(result.Listed),
	}

	report := Report{
		Summary: result.Summary(),
		Sections: []Section{
			{Title: "run", Data: KeyValue(resultKeys, props)},
			{Title: "operations", Data: table.ResultToTableData(result)},
			{Title: "failures", Data: table.FailuresToTableData(result.Failures)},
		},
	}
	if wide {
		report.Sections = append(report.Sections, Section{Title: "skipped_inputs", Data: table.SkippedToTableData(result.Skipped)})
	}
	return report
}

// planView is the structured form of a plan command's output.
type planView struct {
	Plan   *differ.Plan    `json:"plan" yaml:"plan"`
	Result *pkgsync.Result `json:"result" yaml:"result"`
}

// FormatPlan writes a change plan together with the result of the run that
// produced it. plan is nil when the run aborted before diffing.
func FormatPlan(w io.Writer, plan *differ.Plan, result *pkgsync.Result, format Format) error {
	formatter := NewFormatter(format)
	if !format.IsTable() {
		return formatter.Format(w, planView{Plan: plan, Result: result})
	}

	if plan == nil {
		return formatter.Format(w, Report{Summary: result.Summary()})
	}

	report := Report{
		Summary:  plan.String(),
		Sections: []Section{{Title: "plan", Data: table.PlanToTableData(plan, format == FormatWide)}},
	}
	if format == FormatWide {
		report.Sections = append(report.Sections, Section{Title: "skipped_inputs", Data: table.SkippedToTableData(result.Skipped)})
	}
	return formatter.Format(w, report)
}
