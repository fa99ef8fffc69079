package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/dfu-packager/internal/config"
	"github.com/oshokin/dfu-packager/internal/logger"
	"github.com/oshokin/dfu-packager/internal/service/packager"
	"github.com/oshokin/dfu-packager/internal/version"
)

var (
	// configPath to the optional YAML settings file.
	configPath string
	// verbose enables debug output.
	verbose bool

	// rootCmd represents the base command that builds a DFU archive from a firmware binary.
	rootCmd = &cobra.Command{
		Use:   "dfu-packager [flags] <input-binary>",
		Short: "Package a firmware binary into a DFU zip archive",
		Long: "Computes the CRC-32 of the firmware binary, writes the 16-byte init packet and manifest.json " +
			"into the staging directory (build/dfu by default) and bundles all three into build/<name>_dfu.zip.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid from here on, runtime failures should not print usage.
			cmd.SilenceUsage = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			options := &packager.Options{
				InputPath: args[0],
				Config:    cfg,
			}

			_, err = packager.Run(ctx, options)

			switch {
			case errors.Is(err, packager.ErrInputNotFound):
				// The plain message replaces cobra's generic error line.
				cmd.SilenceErrors = true

				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "File not found: %s\n", args[0])

				return err
			case err != nil:
				logger.ErrorKV(ctx, "Packaging failed", "input", args[0], "error", err)
				return err
			}

			return nil
		},
	}
)

// Execute runs the dfu-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads settings and applies the log level, --verbose taking precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, _ := logger.ParseLogLevel(cfg.LogLevel)
	if verbose {
		level = zapcore.DebugLevel
	}

	logger.SetLevel(level)

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to settings file (default "+config.DefaultConfigFilename+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(inspectCmd)
}
