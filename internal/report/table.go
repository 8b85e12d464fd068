package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// statusOrder fixes the column order of verdict counts.
var statusOrder = []string{"killed", "alive", "still-born", "timed-out", "equivalent", "redundant"}

// WriteVerdictTable renders one row per mutant with a totals footer.
func WriteVerdictTable(w io.Writer, s Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Operator", "Status", "Description"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, v := range s.Verdicts {
		table.Append([]string{strconv.Itoa(v.ID), v.Operator, v.Status, v.Description})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d", s.Mutants),
		"",
		fmt.Sprintf("%d killed", s.Counts["killed"]),
		fmt.Sprintf("score %.2f%%", s.Score*100),
	})
	table.Render()
}

// WriteRunsTable renders one row per run summary.
func WriteRunsTable(w io.Writer, runs []Summary) {
	table := tablewriter.NewWriter(w)
	header := []string{"Run", "Schema", "DB", "Technique", "Coverage", "Mutants"}
	header = append(header, statusOrder...)
	header = append(header, "Score")
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	for _, run := range runs {
		row := []string{shortID(run.RunID), run.Schema, run.DBKind, run.Technique,
			fmt.Sprintf("%.1f%%", run.Coverage*100), strconv.Itoa(run.Mutants)}
		for _, status := range statusOrder {
			row = append(row, strconv.Itoa(run.Counts[status]))
		}
		row = append(row, fmt.Sprintf("%.2f%%", run.Score*100))
		table.Append(row)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
