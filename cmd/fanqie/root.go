package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kerbaras/fanqie/pkg/config"
)

var (
	cfgFile     string
	verbose     bool
	flagWorkers int
	flagMode    string
	flagOut     string
	flagDataDir string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fanqie",
	Short: "Download novels from fanqienovel.com",
	Long:  "Fetch, de-obfuscate and archive web novels, with resumable downloads and multiple output formats",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "parallel chapter downloads")
	rootCmd.PersistentFlags().StringVarP(&flagMode, "mode", "m", "", "output format: txt, split, epub, html, latex")
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "output directory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "state directory (bookstore, library, cookie)")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger keeps the console quiet unless asked; the progress bar owns
// stdout during downloads.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// loadConfig layers the config file (when given) over defaults and command
// line flags over both.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg = cfg.Merge(config.Config{
		DataDir:  flagDataDir,
		SavePath: flagOut,
		SaveMode: config.SaveMode(flagMode),
		Workers:  flagWorkers,
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
