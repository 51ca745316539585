// Package table converts run results and change plans into table data for
// CLI output.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/storesync/internal/cmd/emoji"
	"github.com/agentstation/storesync/pkg/differ"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// IsEmpty reports whether the table has no rows.
func (d Data) IsEmpty() bool {
	return len(d.Rows) == 0
}

// maxChangeWidth bounds the change column of a plan table.
const maxChangeWidth = 60

// ResultToTableData converts the per-operation counts of a run into a table
// with a totals row.
func ResultToTableData(result *pkgsync.Result) Data {
	headers := []string{"Operation", "Planned", "Succeeded", "Failed", "Not Attempted"}
	rows := make([][]string, 0, len(differ.Ops())+1)
	for _, op := range differ.Ops() {
		rows = append(rows, countsRow(string(op), result.ByOp[op]))
	}
	rows = append(rows, countsRow("total", result.Totals()))

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

func countsRow(label string, c pkgsync.Counts) []string {
	return []string{
		label,
		strconv.Itoa(c.Planned),
		strconv.Itoa(c.Succeeded),
		strconv.Itoa(c.Failed),
		strconv.Itoa(c.NotAttempted),
	}
}

// FailuresToTableData lists the failed operations of a run.
func FailuresToTableData(failures []pkgsync.Outcome) Data {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{
			emoji.Error + " " + string(f.Op),
			string(f.SKU),
			orDash(f.StorefrontID),
			strconv.Itoa(f.Attempts),
			orDash(string(f.ErrorKind)),
			Truncate(f.Message, maxChangeWidth),
		})
	}
	return Data{
		Headers: []string{"Operation", "SKU", "Storefront ID", "Attempts", "Kind", "Message"},
		Rows:    rows,
	}
}

// SkippedToTableData lists the inputs a run skipped.
func SkippedToTableData(skipped []pkgsync.Skip) Data {
	rows := make([][]string, 0, len(skipped))
	for _, s := range skipped {
		rows = append(rows, []string{s.Source, strconv.Itoa(s.Index), orDash(string(s.SKU)), s.Reason})
	}
	return Data{
		Headers:         []string{"Source", "Index", "SKU", "Reason"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}

// PlanToTableData lists the operations of a change plan. The wide form
// includes one line per changed field.
func PlanToTableData(plan *differ.Plan, wide bool) Data {
	headers := []string{"Operation", "SKU", "Storefront ID", "Fields"}
	if wide {
		headers = append(headers, "Changes")
	}

	rows := make([][]string, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		row := []string{
			opSymbol(op.Op) + " " + string(op.Op),
			string(op.SKU),
			orDash(op.StorefrontID),
			fieldList(op),
		}
		if wide {
			row = append(row, changeList(op.Changes))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

func opSymbol(op differ.Op) string {
	switch op {
	case differ.OpCreate:
		return emoji.Create
	case differ.OpUpdate:
		return emoji.Update
	}
	return emoji.Delete
}

func fieldList(op differ.Operation) string {
	if op.Op != differ.OpUpdate {
		return "-"
	}
	fields := make([]string, 0, len(op.Changes))
	for _, c := range op.Changes {
		fields = append(fields, c.Path)
	}
	return orDash(strings.Join(fields, ", "))
}

func changeList(changes []differ.FieldChange) string {
	if len(changes) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("%s: %s → %s",
			c.Path, Truncate(c.OldValue, maxChangeWidth/2), Truncate(c.NewValue, maxChangeWidth/2)))
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit || limit < 4 {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
