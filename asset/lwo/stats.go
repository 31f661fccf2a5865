package lwo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Generate a table with a summary of the document chunks grouped by id.
func (d *Document) Stats() string {
	type chunkStats struct {
		count int
		bytes int
	}

	order := make([]string, 0)
	byID := make(map[string]*chunkStats)
	for _, chunk := range d.Chunks() {
		stats, exists := byID[chunk.ID]
		if !exists {
			stats = &chunkStats{}
			byID[chunk.ID] = stats
			order = append(order, chunk.ID)
		}
		stats.count++
		stats.bytes += chunk.Size()
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Chunk", "Count", "Size"})
	for _, id := range order {
		stats := byID[id]
		table.Append([]string{id, fmt.Sprint(stats.count), fmtSize(int64(stats.bytes))})
	}
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Layers", fmt.Sprint(len(d.Objects)), strings.Join(d.Objects, ", ")})
	table.Append([]string{"Surfaces", fmt.Sprint(len(d.SurfaceNames)), strings.Join(d.SurfaceNames, ", ")})
	table.Append([]string{"Clips", fmt.Sprint(len(d.Clips)), ""})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(d.Size()), " ")})

	table.Render()
	return buf.String()
}

// Format a byte count using the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int64) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float64(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float64(totalBytes)/1e6)
}
