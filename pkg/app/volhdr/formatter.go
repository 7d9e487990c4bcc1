package volhdr

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

const volumeSeparator = "---------------------------------------------"

// FormatOutput formats decoded volume headers according to output format
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
	for i, vol := range response.Volumes {
		if i > 0 {
			fmt.Fprintln(w, volumeSeparator)
		}
		fmt.Fprintln(w, vol.Path)
		for _, zone := range vol.Zones {
			fmt.Fprintln(w, zone.Summary)
			if zone.Header == nil {
				continue
			}
			fmt.Fprintln(w)
			for _, line := range zone.Header.Lines {
				fmt.Fprintln(w, line)
			}
		}
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Volume", "Zone", "Mirror TID", "Size", "Status"})
	table.SetAutoWrapText(false)
	for _, vol := range response.Volumes {
		for _, zone := range vol.Zones {
			size := "-"
			if zone.Header != nil {
				size = humanize.IBytes(zone.Header.VoluSize)
			}
			status := "OK"
			if len(zone.Problems) > 0 {
				status = strings.Join(zone.Problems, ", ")
			}
			if zone.Zone == vol.BestZone {
				status += " (best)"
			}
			table.Append([]string{
				strconv.Itoa(int(vol.ID)),
				strconv.Itoa(zone.Zone),
				fmt.Sprintf("%016x", zone.MirrorTID),
				size,
				status,
			})
		}
	}
	table.Render()
	return nil
}
