package application

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/csvmaster/internal/core"
	"github.com/JonMunkholm/csvmaster/internal/table"
)

// FormatResult renders an action result as plain text: its message, the
// files an export wrote, and at most limit rows of any resulting table.
func FormatResult(res core.Result, limit int) string {
	var b strings.Builder
	b.WriteString(res.Message)
	b.WriteString("\n")

	if res.Export != nil {
		for _, f := range res.Export.Files {
			b.WriteString("  " + f + "\n")
		}
	}
	if res.Table != nil {
		b.WriteString("\n")
		b.WriteString(FormatTable(res.Table, limit))
	}
	return b.String()
}

// FormatTable lays out the header and up to limit rows in aligned columns.
// limit <= 0 shows every row.
func FormatTable(t *table.Table, limit int) string {
	if t.ColumnCount() == 0 {
		return "(no columns)\n"
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers(), "\t"))

	rows := t.Rows()
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	for _, r := range shown {
		fmt.Fprintln(tw, strings.Join(cleanCells(r), "\t"))
	}
	tw.Flush()

	if more := len(rows) - len(shown); more > 0 {
		fmt.Fprintf(&b, "... %d more rows\n", more)
	}
	return b.String()
}

// cleanCells keeps embedded tabs and line breaks from breaking the layout.
func cleanCells(r table.Row) []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(c)
	}
	return out
}
