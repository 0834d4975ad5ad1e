package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/tracematch/internal/app"
	"github.com/ayusman/tracematch/internal/config"
	"github.com/ayusman/tracematch/internal/store"
)

var (
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracematch",
	Short: "Single-stroke gesture recognition and WiFi fingerprint location",
	Long: `tracematch recognizes single-stroke gestures with the Protractor algorithm and
works out which room you are in by matching the WiFi access points in range against
fingerprints recorded earlier.

Settings come from TRACEMATCH_* environment variables, optionally loaded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		if cfg, err = config.Load(envFile); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an optional .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// newLogger returns a development logger when verbose, otherwise a production logger
// that only reports warnings and above.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

// openApp opens the fingerprint database and builds an App with templates loaded and
// the scanner plugin selected. The returned function closes the database.
func openApp() (*app.App, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	a := app.New(app.Config{
		Store:              st,
		TemplatePath:       cfg.TemplatePath,
		PluginDir:          cfg.PluginDir,
		ScannerName:        cfg.Scanner,
		PluginTimeout:      cfg.PluginTimeout,
		ScanPeriod:         cfg.ScanPeriod,
		K:                  cfg.K,
		Locations:          cfg.Locations,
		Gestures:           cfg.Gestures,
		ExamplesPerGesture: cfg.ExamplesPerGesture,
		Logger:             logger,
	})

	if err := a.LoadTemplates(); err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := a.DiscoverPlugins(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to discover plugins: %w", err)
	}

	return a, func() { st.Close() }, nil
}
