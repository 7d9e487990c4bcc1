package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hammer2/pkg/app"
	"github.com/deploymenttheory/go-hammer2/pkg/app/freemap"
)

var freemapAllZones bool

var freemapCmd = &cobra.Command{
	Use:   "freemap [volume[:volume...]]",
	Short: "Print the allocation totals of the freemap",
	Long: `Walk the freemap tree and total the allocation state of every 16KB
granule and 64KB chunk it describes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := newContext(cmd)
		defer cancel()
		paths, err := app.ParseVolumePaths(args)
		if err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid volume argument", err)
		}

		response, err := freemap.Handle(ctx, &freemap.Request{
			VolumePaths: paths,
			AllZones:    freemapAllZones,
			Strict:      cfg.Fsck.Strict,
		})
		if err != nil {
			return err
		}
		if err := freemap.FormatOutput(ctx.Out, response, ctx.OutputFormat); err != nil {
			return err
		}
		ctx.Log(freemap.FormatSummary(response))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(freemapCmd)
	freemapCmd.Flags().BoolVarP(&freemapAllZones, "all", "a", false, "walk the freemap of every zone")
}
