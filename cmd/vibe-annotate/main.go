// Package main provides the vibe-annotate command-line tool.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-annotate/internal/annotate"
	"github.com/inodb/vibe-annotate/internal/datasource/exac"
	"github.com/inodb/vibe-annotate/internal/datasource/vep"
	"github.com/inodb/vibe-annotate/internal/duckdb"
	"github.com/inodb/vibe-annotate/internal/output"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "vibe-annotate -i <input.vcf> -o <output.tsv>",
		Short: "Annotate variants with effects and population allele frequencies",
		Long: `vibe-annotate reads a VCF file, enriches each variant with its most
severe consequence (Ensembl VEP) and its population allele frequency
(ExAC), and writes a tab-separated report.

Variants are submitted to both services in batches; service endpoints,
batch size and the optional result cache are configured via
~/.vibe-annotate.yaml or VIBE_ANNOTATE_* environment variables.`,
		Example: `  vibe-annotate -i input.vcf -o output.tsv
  cat input.vcf | vibe-annotate -i - -o output.tsv
  VIBE_ANNOTATE_CACHE_PATH=~/.vibe-annotate.duckdb vibe-annotate -i input.vcf.gz -o output.tsv`,
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(inputPath, outputPath)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input VCF file ('-' for stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output TSV file")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig wires defaults, the optional ~/.vibe-annotate.yaml file and
// VIBE_ANNOTATE_* environment variables into viper.
func initConfig() {
	viper.SetDefault("vep.url", vep.DefaultBaseURL)
	viper.SetDefault("exac.url", exac.DefaultBaseURL)
	viper.SetDefault("batch.size", annotate.DefaultBatchSize)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("cache.path", "")
	viper.SetDefault("log.level", "info")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-annotate")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_ANNOTATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is not an error; defaults and env cover it.
	_ = viper.ReadInConfig()
}

func runAnnotate(inputPath, outputPath string) error {
	logger, err := newLogger(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.With(zap.String("run_id", uuid.NewString()))

	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		log.Error("cannot open input", zap.String("input", inputPath), zap.Error(err))
		return err
	}
	defer parser.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		log.Error("cannot create output", zap.String("output", outputPath), zap.Error(err))
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	timeout := viper.GetDuration("http.timeout")
	effects := vep.NewClient(viper.GetString("vep.url"), timeout)
	freqs := exac.NewClient(viper.GetString("exac.url"), timeout)

	coordinator := annotate.NewCoordinator(effects, freqs)
	coordinator.SetBatchSize(viper.GetInt("batch.size"))
	coordinator.SetLogger(log)

	if cachePath := viper.GetString("cache.path"); cachePath != "" {
		store, err := duckdb.Open(cachePath)
		if err != nil {
			log.Warn("annotation cache unavailable",
				zap.String("path", cachePath),
				zap.Error(err))
		} else {
			defer store.Close()
			coordinator.SetCache(store)
			log.Info("annotation cache enabled", zap.String("path", cachePath))
		}
	}

	pipeline := annotate.NewPipeline(coordinator)
	pipeline.SetLogger(log)

	log.Info("annotation started",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.String("vep_url", viper.GetString("vep.url")),
		zap.String("exac_url", viper.GetString("exac.url")),
		zap.Int("batch_size", viper.GetInt("batch.size")))

	start := time.Now()
	stats, err := pipeline.Run(parser, output.NewTabWriter(out))
	if err != nil {
		log.Error("annotation failed",
			zap.Int("line", parser.LineNumber()),
			zap.Error(err))
		return err
	}

	log.Info("annotation finished",
		zap.Int("variants", stats.Variants),
		zap.Int("batches", stats.Batches),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("comment_lines", parser.CommentLines()),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}

// newLogger builds a production logger at the configured level, writing to
// stderr so the report on stdout or disk stays clean.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
