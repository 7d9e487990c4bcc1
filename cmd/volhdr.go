package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hammer2/pkg/app"
	"github.com/deploymenttheory/go-hammer2/pkg/app/volhdr"
)

var volhdrAllZones bool

var volhdrCmd = &cobra.Command{
	Use:   "volhdr [volume[:volume...]]",
	Short: "Decode and print the volume headers",
	Long: `Print the header summary of every zone of every volume, and the decoded
fields with their CRC state for the best zone (or every zone with --all).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext(cmd)
		defer cancel()
		paths, err := app.ParseVolumePaths(args)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid volume argument", err)
		}

		response, err := volhdr.Handle(ctx, &volhdr.Request{VolumePaths: paths, AllZones: volhdrAllZones})
		if err != nil {
			return err
		}
		return volhdr.FormatOutput(ctx.Out, response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(volhdrCmd)
	volhdrCmd.Flags().BoolVarP(&volhdrAllZones, "all", "a", false, "decode every header zone")
}
