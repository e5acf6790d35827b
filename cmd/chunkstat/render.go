package main

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"pkg.jsn.cam/chunkstat/pkg/chunkstat"
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func renderTable(w io.Writer, t chunkstat.Table) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Min", "Mean", "Max", "Count"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, r := range t {
		table.Append([]string{
			r.Key,
			formatValue(r.Min),
			formatValue(r.Mean),
			formatValue(r.Max),
			humanize.Comma(int64(r.Count)),
		})
	}
	table.Render()
}

func renderRuns(w io.Writer, reports []chunkstat.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run ID", "Started", "Source", "Lines", "Keys", "Duration"})
	table.SetAutoFormatHeaders(false)

	for _, r := range reports {
		table.Append([]string{
			r.RunID,
			humanize.Time(r.StartedAt),
			r.SourcePath,
			humanize.Comma(int64(r.LinesRead)),
			strconv.Itoa(r.Keys),
			r.Duration.Round(1e6).String(),
		})
	}
	table.Render()
}
