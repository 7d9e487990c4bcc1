package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-hammer2/internal/config"
	"github.com/deploymenttheory/go-hammer2/internal/logging"
	"github.com/deploymenttheory/go-hammer2/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
	logLevel     string
	timeout      time.Duration

	// Loaded by the root pre-run hook
	v      = config.New()
	cfg    = &config.Config{Output: "table"}
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "hammer2",
	Short: "Read-only HAMMER2 filesystem inspection and verification",
	Long: `hammer2 is a userspace, read-only tool for inspecting and verifying
HAMMER2 filesystem images and devices without mounting them.

Volumes of a multi-volume filesystem are given as one argument separated
by colons, for example /dev/da0s1d:/dev/da1s1d.

Commands:
  fsck        Verify the volume headers, freemap and volume trees
  freemap     Print the allocation totals of the freemap
  volhdr      Decode and print the volume headers
  volumes     Print how the volume set is mapped
  hash        Print directory hash keys of names
  dhash       Print extended record hashes of names`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default searches ./hammer2-config.yaml, $HOME/.hammer2, /etc/hammer2)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "abort the command after this long (0 waits forever)")

	mustBind(v.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	mustBind(v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	mustBind(v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout")))
}

// loadConfig merges the config file, environment and flags, then builds the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, configPath)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to load configuration", err)
	}
	cfg = loaded

	log, err := logging.New(logging.ForVerbosity(cfg.LogLevel, verbose, quiet))
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "failed to configure logging", err)
	}
	logger = log.With(zap.String("command", cmd.Name()))
	return nil
}

// newContext creates the application context for a command invocation. The
// returned cancel function must be called once the command finishes.
func newContext(cmd *cobra.Command) (*app.Context, context.CancelFunc) {
	ctx := app.NewContext()
	if c := cmd.Context(); c != nil {
		ctx.Context = c
	}
	ctx.OutputFormat = cfg.Output
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.Out = cmd.OutOrStdout()
	ctx.Stderr = cmd.ErrOrStderr()
	ctx.Logger = logger
	ctx.DefaultTimeout = cfg.Timeout
	if ctx.DefaultTimeout > 0 {
		return ctx.WithTimeout(ctx.DefaultTimeout)
	}
	return ctx.WithCancel()
}

// mustBind panics when a flag could not be bound into viper.
func mustBind(err error) {
	if err != nil {
		panic(err)
	}
}

// exitCode maps an application error onto the process exit status.
func exitCode(err error) int {
	var ce *app.CommonError
	if !errors.As(err, &ce) {
		return 1
	}
	switch ce.Code {
	case app.ErrCodeInvalidInput:
		return 2
	case app.ErrCodeCancelled, app.ErrCodeTimeout:
		return 130
	default:
		return 1
	}
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return cfg.Output
}
