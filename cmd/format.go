package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/bhtree/bvh"
	"github.com/achilleasa/bhtree/types"
	"github.com/olekukonko/tablewriter"
)

func fmtVec(v types.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

func fmtBBox(b types.BBox) string {
	if b.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s - %s", fmtVec(b.Min), fmtVec(b.Max))
}

// Render rows as a table with the look shared by all commands.
func renderTable(header []string, rows [][]string, footer []string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	table.AppendBulk(rows)
	if footer != nil {
		table.SetFooter(footer)
	}
	table.Render()
	return buf.String()
}

func treeStatsTable(stats bvh.Stats, root types.BBox) string {
	return renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Leaves", fmt.Sprintf("%d", stats.Leaves)},
			{"Internal nodes", fmt.Sprintf("%d", stats.Internals)},
			{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)},
			{"Avg leaf depth", fmt.Sprintf("%.2f", stats.AverageLeafDepth)},
			{"Root hull", fmtBBox(root)},
		},
		nil,
	)
}
