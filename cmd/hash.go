package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hammer2/pkg/app/hash"
)

var hashCmd = &cobra.Command{
	Use:   "hash name...",
	Short: "Print directory hash keys of names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHash(cmd, args, hash.ModeDirent)
	},
}

var dhashCmd = &cobra.Command{
	Use:   "dhash name...",
	Short: "Print extended directory record hashes of names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHash(cmd, args, hash.ModeData)
	},
}

func init() {
	rootCmd.AddCommand(hashCmd, dhashCmd)
}

func runHash(cmd *cobra.Command, names []string, mode hash.Mode) error {
	ctx, cancel := newContext(cmd)
	defer cancel()
	response, err := hash.Handle(ctx, &hash.Request{Names: names, Mode: mode})
	if err != nil {
		return err
	}
	return hash.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}
