package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-hammer2/pkg/app"
	"github.com/deploymenttheory/go-hammer2/pkg/app/fsck"
)

var (
	// Walk behaviour
	fsckForce        bool
	fsckMaxDepth     int
	fsckMinMirrorTID uint64
	fsckMinModifyTID uint64
	fsckShowMedia    bool

	// Zone and PFS selection
	fsckScanBest bool
	fsckScanPFS  bool
	fsckPrintPFS bool
	fsckPFSNames []string
)

var fsckCmd = &cobra.Command{
	Use:   "fsck [volume[:volume...]]",
	Short: "Verify the volume headers, freemap and volume trees",
	Long: `Verify a HAMMER2 filesystem without modifying it.

Every header zone is checked in three passes: the volume header CRCs, the
freemap tree and the volume tree. Each blockref is verified against its
check code, and failures are listed by physical offset.

Examples:
  # Verify every zone of an image
  hammer2 fsck hammer2.img

  # Verify only the best zone, walking each PFS separately
  hammer2 fsck --scan-best --scan-pfs /dev/da0s1d

  # List the PFSs of a two-volume filesystem
  hammer2 fsck --print-pfs /dev/da0s1d:/dev/da1s1d`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFsck(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)

	flags := fsckCmd.Flags()
	flags.BoolVarP(&fsckForce, "force", "f", false, "continue after errors that are not integrity failures")
	flags.BoolP("count-empty", "e", false, "count empty blockrefs")
	flags.BoolVarP(&fsckScanBest, "scan-best", "b", false, "only verify the best zone")
	flags.BoolVarP(&fsckScanPFS, "scan-pfs", "p", false, "walk each PFS separately")
	flags.BoolVarP(&fsckPrintPFS, "print-pfs", "P", false, "list PFSs and skip the tree walks")
	flags.StringSliceVarP(&fsckPFSNames, "pfs", "l", nil, "only consider the named PFSs")
	flags.IntP("cache-count", "c", 0, "cache subtrees of at least this many blockrefs (0 disables)")
	flags.Int("cache-size", 1<<16, "maximum number of cached subtrees")
	flags.Bool("strict", false, "treat unknown check algorithms as unsupported")
	flags.Bool("verify-data", false, "verify DATA blocks against their check code")
	flags.Bool("reset-cache-per-zone", false, "start every zone with an empty subtree cache")
	flags.IntVar(&fsckMaxDepth, "max-depth", 0, "stop descending below this depth (0 is unlimited)")
	flags.Uint64Var(&fsckMinMirrorTID, "min-mirror-tid", 0, "skip blockrefs with a lower mirror_tid")
	flags.Uint64Var(&fsckMinModifyTID, "min-modify-tid", 0, "skip blockrefs with a lower modify_tid")
	flags.BoolVar(&fsckShowMedia, "show-media", false, "decode the block behind every diagnostic")

	mustBind(v.BindPFlag("fsck.count_empty", flags.Lookup("count-empty")))
	mustBind(v.BindPFlag("fsck.cache_count", flags.Lookup("cache-count")))
	mustBind(v.BindPFlag("fsck.cache_size", flags.Lookup("cache-size")))
	mustBind(v.BindPFlag("fsck.strict", flags.Lookup("strict")))
	mustBind(v.BindPFlag("fsck.verify_data", flags.Lookup("verify-data")))
	mustBind(v.BindPFlag("fsck.reset_cache_per_zone", flags.Lookup("reset-cache-per-zone")))

	fsckCmd.MarkFlagsMutuallyExclusive("scan-pfs", "print-pfs")
}

func runFsck(cmd *cobra.Command, volumeArg string) error {
	// Create application context
	ctx, cancel := newContext(cmd)
	defer cancel()

	paths, err := app.ParseVolumePaths([]string{volumeArg})
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume argument", err)
	}

	request := &fsck.Request{
		VolumePaths:       paths,
		Force:             fsckForce,
		Strict:            cfg.Fsck.Strict,
		CountEmpty:        cfg.Fsck.CountEmpty,
		VerifyData:        cfg.Fsck.VerifyData,
		MaxDepth:          fsckMaxDepth,
		MinMirrorTID:      fsckMinMirrorTID,
		MinModifyTID:      fsckMinModifyTID,
		ScanBest:          fsckScanBest,
		ScanPFS:           fsckScanPFS,
		PrintPFS:          fsckPrintPFS,
		PFSNames:          fsckPFSNames,
		CacheCount:        cfg.Fsck.CacheCount,
		CacheSize:         cfg.Fsck.CacheSize,
		ResetCachePerZone: cfg.Fsck.ResetCachePerZone,
		ShowMedia:         fsckShowMedia,
	}
	if ctx.Verbose {
		ctx.SetProgress(func(update app.ProgressUpdate) {
			ctx.Log(fmt.Sprintf("%s: %d blockrefs in %v (%.0f/s)",
				update.Message, update.Completed, update.ElapsedTime.Round(time.Millisecond), update.Rate()))
		})
	}

	// Handle the request through application layer
	response, err := fsck.Handle(ctx, request)
	if response == nil {
		return err
	}

	// Results are printed even when verification failed
	if ferr := fsck.FormatOutput(ctx.Out, response, ctx.OutputFormat); ferr != nil {
		return ferr
	}
	ctx.Log(fsck.FormatSummary(response))
	return err
}
