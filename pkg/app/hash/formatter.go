package hash

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats hashed names according to output format. The table
// format is the plain listing, one "key name" line per entry.
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
		for _, e := range response.Entries {
			fmt.Fprintf(w, "%016x %s\n", e.Hash, e.Name)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
