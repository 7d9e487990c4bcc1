package fsck

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// indent is the width of one listing level.
const indent = "    "

// FormatOutput formats verification results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable prints the pass listing followed by a summary table
func formatTable(w io.Writer, response *Response) error {
	for _, pass := range response.Passes {
		fmt.Fprintln(w, pass.Name)
		for _, zone := range pass.Zones {
			writeZone(w, &zone)
		}
	}
	if len(response.Passes) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pass", "Zone", "Blockrefs", "Bytes", "Diagnostics", "Cache Hits"})
	table.SetAutoWrapText(false)
	for _, row := range summaryRows(response) {
		table.Append(row)
	}
	table.Render()

	if response.Failed {
		fmt.Fprintf(w, "Verification failed: %s\n", response.Error)
	}
	return nil
}

func writeZone(w io.Writer, zone *Zone) {
	fmt.Fprintln(w, zone.Heading)
	for _, p := range zone.Problems {
		fmt.Fprintln(w, indent+p)
	}
	for _, pfs := range zone.PFS {
		if pfs.Stats == nil {
			fmt.Fprintln(w, indent+pfs.Line)
			continue
		}
		fmt.Fprintln(w, indent+pfs.Name)
		writeWalk(w, pfs.Stats, pfs.Diagnostics)
	}
	if zone.Stats != nil {
		writeWalk(w, zone.Stats, zone.Diagnostics)
	}
}

func writeWalk(w io.Writer, stats *Stats, diags []Diagnostic) {
	fmt.Fprintln(w, indent+stats.Summary)
	for _, d := range diags {
		fmt.Fprintln(w, indent+d.Line)
		for _, m := range d.Media {
			fmt.Fprintln(w, indent+indent+m)
		}
	}
}

// summaryRows returns one row per walk of the response.
func summaryRows(response *Response) [][]string {
	var rows [][]string
	row := func(pass, zone string, stats *Stats, diags int) []string {
		return []string{
			pass,
			zone,
			humanize.Comma(int64(stats.TotalBlockref)),
			humanize.IBytes(stats.TotalBytes),
			strconv.Itoa(diags),
			humanize.Comma(int64(stats.CacheHits)),
		}
	}
	for _, pass := range response.Passes {
		for _, zone := range pass.Zones {
			label := strconv.Itoa(zone.Zone)
			if zone.Stats != nil {
				rows = append(rows, row(pass.Name, label, zone.Stats, len(zone.Diagnostics)))
			}
			for _, pfs := range zone.PFS {
				if pfs.Stats != nil {
					rows = append(rows, row(pass.Name, label+" "+pfs.Name, pfs.Stats, len(pfs.Diagnostics)))
				}
			}
			if zone.Stats == nil && len(zone.PFS) == 0 && !zone.Exceeds {
				rows = append(rows, []string{pass.Name, label, "-", "-", strconv.Itoa(len(zone.Problems)), "-"})
			}
		}
	}
	return rows
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	var walks, diags int
	var blockrefs uint64
	for _, pass := range response.Passes {
		for _, zone := range pass.Zones {
			if zone.Stats != nil {
				walks++
				blockrefs += zone.Stats.TotalBlockref
				diags += len(zone.Diagnostics)
			}
			for _, pfs := range zone.PFS {
				if pfs.Stats != nil {
					walks++
					blockrefs += pfs.Stats.TotalBlockref
					diags += len(pfs.Diagnostics)
				}
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Verified %s blockrefs in %d walk", humanize.Comma(int64(blockrefs)), walks)
	if walks != 1 {
		sb.WriteString("s")
	}
	if diags > 0 {
		fmt.Fprintf(&sb, " with %d diagnostic", diags)
		if diags != 1 {
			sb.WriteString("s")
		}
	}
	fmt.Fprintf(&sb, " in %v", response.Elapsed)
	return sb.String()
}
