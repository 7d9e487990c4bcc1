package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hammer2/pkg/app"
	"github.com/deploymenttheory/go-hammer2/pkg/app/volumes"
)

var volumesCmd = &cobra.Command{
	Use:   "volumes [volume[:volume...]]",
	Short: "Print how the volume set is mapped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext(cmd)
		defer cancel()
		paths, err := app.ParseVolumePaths(args)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid volume argument", err)
		}

		response, err := volumes.Handle(ctx, &volumes.Request{VolumePaths: paths})
		if err != nil {
			return err
		}
		return volumes.FormatOutput(ctx.Out, response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(volumesCmd)
}
