package volumes

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-hammer2/internal/types"
)

// FormatOutput formats the volume set according to output format
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
	fmt.Fprintf(w, "fsid       %s\n", response.FSID)
	fmt.Fprintf(w, "version    %d\n", response.Version)
	fmt.Fprintf(w, "total_size 0x%016x (%s)\n\n", response.TotalSize, types.SizeString(response.TotalSize))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Path", "Offset", "Size", "Device Size", "Best Zone"})
	table.SetAutoWrapText(false)
	for _, vol := range response.Volumes {
		table.Append([]string{
			strconv.Itoa(int(vol.ID)),
			vol.Path,
			fmt.Sprintf("%016x", vol.Offset),
			humanize.IBytes(vol.Size),
			humanize.IBytes(vol.DeviceSize),
			strconv.Itoa(vol.BestZone),
		})
	}
	table.Render()
	return nil
}
