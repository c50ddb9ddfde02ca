package culler

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"imageculler/types"
)

// RenderStats writes the end-of-run summary table to w.
func RenderStats(w io.Writer, stats types.CullStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Cull Summary")

	tw.AppendRows([]table.Row{
		{"Strategy", stats.Strategy},
		{"Threshold", fmt.Sprintf("%.2f", stats.Threshold)},
		{"Images processed", stats.TotalImages},
		{"Duplicates found", fmt.Sprintf("%d across %d sets", stats.Duplicates, stats.DuplicateSets)},
		{"Images culled", stats.Culled},
		{"Images kept", stats.Kept},
		{"Percent culled", fmt.Sprintf("%.0f%%", stats.PercentCulled())},
	})

	tw.Render()
}
