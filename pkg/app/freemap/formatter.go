package freemap

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// FormatOutput formats freemap statistics according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(w io.Writer, response *Response) error {
	fmt.Fprintln(w, response.Path)
	for i := range response.Zones {
		fmt.Fprintln(w, response.Zones[i].Summary())
	}
	fmt.Fprintln(w)
	for _, line := range response.Report {
		fmt.Fprintln(w, line)
	}
	for _, line := range response.Diagnostics {
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"State", "16KB Granules", "64KB Chunks"})
	table.SetAutoWrapText(false)
	for _, row := range response.States() {
		table.Append([]string{row.State, humanize.IBytes(row.Bytes16), humanize.IBytes(row.Bytes64)})
	}
	table.Render()
	return nil
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	return fmt.Sprintf("Scanned %s freemap leaves (%s blockrefs) in %v",
		humanize.Comma(int64(response.Stats.Leaves)), humanize.Comma(int64(response.Blockrefs)), response.Elapsed)
}
