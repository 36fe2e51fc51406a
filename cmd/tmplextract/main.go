// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tmplextract CLI. Run with no
// arguments it extracts the embedded templates from the generator source
// into the templates directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/tmplextract/internal/extractor"
	"github.com/pdiddy/tmplextract/internal/history"
	"github.com/pdiddy/tmplextract/internal/manifest"
	"github.com/pdiddy/tmplextract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE once --verbose is known.
var logger = zap.NewNop()

// rootCmd extracts templates when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "tmplextract",
	Short: "Extract embedded templates from a generator source file",
	Long: `tmplextract copies the templates embedded as raw strings in a generator
source file out to their own files, so they can be loaded with embed.FS.

Each job names a start marker, an end delimiter, and an output file. The
first line starting with the marker opens the template; the text after the
first back-tick on that line is the first template line. Lines are copied
verbatim until one that, trimmed, equals the end delimiter. Jobs whose
marker is absent are skipped.

With --check nothing is written; the command fails if any output is stale.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = logger.Sync() }()
		return runExtraction(cmd.Context(), extractorConfig(), os.Stdout, logger)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default: ./tmplextract.yaml or ~/.config/tmplextract/tmplextract.yaml)")
	f.String("source", manifest.DefaultSource, "generator source file holding the embedded templates")
	f.String("output-dir", manifest.DefaultOutputDir, "directory that receives the extracted templates")
	f.String("jobs", "", "YAML job manifest replacing the built-in contract, deploy, and test jobs")
	f.String("delimiter", types.DefaultMarkerDelimiter, "character separating the marker from the first template line")
	f.Bool("create-dirs", false, "create the output directory if it does not exist")
	f.Bool("check", false, "compare outputs with the source without writing; fail if any are stale")
	f.String("history-db", "", "SQLite database recording each run (disabled when empty)")
	f.BoolP("verbose", "v", false, "log diagnostics to stderr")

	for key, flag := range map[string]string{
		"source":           "source",
		"output_dir":       "output-dir",
		"jobs_file":        "jobs",
		"marker_delimiter": "delimiter",
		"create_dirs":      "create-dirs",
		"check":            "check",
		"history_db":       "history-db",
		"verbose":          "verbose",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tmplextract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tmplextract"))
		}
	}

	viper.SetEnvPrefix("TMPLEXTRACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// extractorConfig resolves the run settings from flags, config file, and
// environment.
func extractorConfig() types.ExtractorConfig {
	return types.ExtractorConfig{
		SourcePath:      viper.GetString("source"),
		OutputDir:       viper.GetString("output_dir"),
		JobsFile:        viper.GetString("jobs_file"),
		MarkerDelimiter: viper.GetString("marker_delimiter"),
		CreateDirs:      viper.GetBool("create_dirs"),
		Check:           viper.GetBool("check"),
		HistoryDB:       viper.GetString("history_db"),
	}
}

// loadJobs returns the manifest jobs when cfg names a manifest, otherwise
// the built-in jobs.
func loadJobs(cfg types.ExtractorConfig) ([]types.ExtractionJob, error) {
	if cfg.JobsFile == "" {
		return manifest.DefaultJobs(), nil
	}
	return manifest.Load(cfg.JobsFile)
}

// runExtraction loads the source once, runs every job against it, and
// records the run when history is enabled.
func runExtraction(ctx context.Context, cfg types.ExtractorConfig, w io.Writer, log *zap.Logger) error {
	jobs, err := loadJobs(cfg)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	doc, err := extractor.LoadDocument(cfg.SourcePath)
	if err != nil {
		return err
	}
	log.Debug("source loaded", zap.String("path", doc.Path()), zap.Int("lines", doc.Len()), zap.Int("jobs", len(jobs)))

	ex := extractor.New(extractor.Options{
		OutputDir:       cfg.OutputDir,
		MarkerDelimiter: cfg.MarkerDelimiter,
		CreateDirs:      cfg.CreateDirs,
		Check:           cfg.Check,
	}, log)
	result := ex.Run(doc, jobs, w)

	if cfg.HistoryDB != "" {
		if err := recordRun(ctx, cfg, history.NewRun(startedAt, doc, cfg.RunMode(), result), log); err != nil {
			log.Warn("recording run history failed", zap.Error(err))
		}
	}

	return result.Err()
}

func recordRun(ctx context.Context, cfg types.ExtractorConfig, run history.Run, log *zap.Logger) error {
	store, err := history.Open(cfg.HistoryDB, log)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(ctx, run)
	return err
}

// newLogger returns a console logger on stderr. Warnings are always shown;
// --verbose adds debug output.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.DisableCaller = false
	} else {
		cfg.DisableCaller = true
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
