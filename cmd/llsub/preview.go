package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MimeLyc/llsub/internal/service"
	"github.com/MimeLyc/llsub/internal/subtitle"
)

const previewColumnWidth = 48

// renderPreview renders the first n cue pairs of res as a table.
func renderPreview(res *service.Result, n int) string {
	rows := min(n, len(res.Original), len(res.Translated))
	if rows <= 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Time", strings.ToUpper(res.Source.String()), strings.ToUpper(res.Target.String())})

	for i := 0; i < rows; i++ {
		orig := res.Original[i]
		tw.AppendRow(table.Row{
			i + 1,
			subtitle.FormatTimestamp(orig.Start) + " → " + subtitle.FormatTimestamp(orig.End),
			strings.Join(orig.Lines, "\n"),
			strings.Join(res.Translated[i].Lines, "\n"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: previewColumnWidth},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: previewColumnWidth},
	})

	return tw.Render()
}
