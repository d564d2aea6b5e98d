package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/calumj/fardb/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	outputDir  string
	dbPath     string
	files      []string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "fardb",
	Short: "The Sims FAR archive inspection and extraction tool",
	Long: `fardb is a tool for reading FAR v1 archives (.far files) used by
The Sims to bundle game assets.

It can list an archive's manifest, extract entries to disk, and scan
archives into a SQLite catalog so their contents can be searched with
plain SQL.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("output") {
			cfg.Output = outputDir
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("files") {
			cfg.Files = files
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"output", cfg.Output,
			"database", cfg.Database,
			"files", cfg.Files,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is fardb.yaml in pwd)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for extracted files")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringSliceVar(&files, "files", []string{}, "comma-separated list of entry names to extract")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
