package backtest

import (
	"fmt"
	"strings"
)

// Summarize renders a per-group text report: the four aggregate statistics
// at the final horizon day, then the single best and worst observation cell
// across the whole day grid.
func Summarize(res *Result) string {
	var b strings.Builder

	maxes := res.MaxByGroup()
	mins := res.MinByGroup()

	for _, group := range res.Groups {
		fmt.Fprintf(&b, "## GROUP_%s RESULT ##\n", group)
		fmt.Fprintf(&b, "AFTER %d DAYS\n", res.Horizon)

		for _, code := range statCodes {
			row, ok := res.StatRow(group, code)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%-8s: %.3f\n", code, row.Days[res.Horizon-1])
		}

		writeExtremum(&b, "max", maxes, group)
		writeExtremum(&b, "min", mins, group)
	}

	return b.String()
}

func writeExtremum(b *strings.Builder, label string, table map[string]Extremum, group string) {
	ext, ok := table[group]
	if !ok {
		fmt.Fprintf(b, "%s val > no priced observations\n\n", label)
		return
	}

	base := Observation{ID: ext.Code}.BaseCode()
	fmt.Fprintf(b, "%s val > code : %s\n", label, base)
	fmt.Fprintf(b, "          date : %s\n", ext.Date.Format("2006-01-02"))
	fmt.Fprintf(b, "          days : %d\n", ext.Day)
	fmt.Fprintf(b, "          prof : %.3f\n\n", ext.Value)
}
