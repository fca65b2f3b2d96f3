// Command zmh-build runs the offline index builder (spec.md §6's "CLI
// surface (builder)"): reads rows from a JSONL file or a Postgres table
// and writes meta/dict/index/tags/manifest artifacts to an output
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpl-au/zmh/build"
	"github.com/jpl-au/zmh/internal/config"
	"github.com/jpl-au/zmh/internal/logging"
	"github.com/jpl-au/zmh/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("zmh-build", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	src := fs.String("source", "", "path to a JSONL source file; if empty, reads the Postgres config")
	out := fs.String("out", "", "output directory for build artifacts")
	clean := fs.Bool("clean", false, "purge recognized artifact prefixes from --out before writing")
	generatedAt := fs.String("generated-at", "", "override manifest.generatedAt (RFC 3339); defaults to now")
	metaShardDocs := fs.Int("meta-shard-docs", build.DefaultMetaShardDocs, "docs per meta shard; 0 disables sharding")
	indexShardCount := fs.Int("index-shard-count", 0, "index shard count; 0 selects the bytes-target default policy")
	logLevel := fs.String("log-level", "info", "debug, info, warn, or error")
	logFormat := fs.String("log-format", "text", "text or json")
	metricsAddr := fs.String("metrics-addr", "", "address to serve /metrics on; empty disables it")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadBuildConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *out == "" {
		*out = cfg.Out
	}
	if *out == "" {
		fmt.Fprintln(os.Stderr, "zmh-build: --out is required")
		return 2
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if !setFlags["meta-shard-docs"] && cfg.MetaShardDocs != 0 {
		*metaShardDocs = cfg.MetaShardDocs
	}
	if !setFlags["index-shard-count"] && cfg.IndexShardCount != 0 {
		*indexShardCount = cfg.IndexShardCount
	}
	if !setFlags["log-level"] && cfg.Logging.Level != "" {
		*logLevel = cfg.Logging.Level
	}
	if !setFlags["log-format"] && cfg.Logging.Format != "" {
		*logFormat = cfg.Logging.Format
	}
	logging.Setup(*logLevel, *logFormat)
	logger := logging.For("builder")

	reg := prometheus.NewRegistry()
	m := metrics.NewBuild(reg)
	if *metricsAddr == "" && cfg.Metrics.Enabled {
		*metricsAddr = cfg.Metrics.Addr
	}
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, reg, logger)
	}

	rowSource, closeSource, err := openSource(*src, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeSource()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	opts := build.Options{
		Clean:           *clean,
		GeneratedAt:     *generatedAt,
		MetaShardDocs:   *metaShardDocs,
		IndexShardCount: *indexShardCount,
	}
	manifest, err := build.Build(ctx, rowSource, *out, opts, logger, m)
	m.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("build failed", "error", err)
		return 1
	}

	fmt.Printf("built %d docs, %d unique tokens, %d index shards (%s), %d meta shards -> %s\n",
		manifest.Stats.Count, manifest.Stats.UniqueTokens, manifest.Stats.IndexShardCount,
		manifest.Stats.IndexShardMode, manifest.Stats.MetaShardCount, *out)
	return 0
}

func openSource(path string, cfg config.BuildConfig) (build.RowSource, func(), error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, func() {}, fmt.Errorf("zmh-build: opening %s: %w", path, err)
		}
		return build.NewJSONLSource(f), func() { f.Close() }, nil
	}
	if cfg.Postgres.DSN == "" {
		return nil, func() {}, fmt.Errorf("zmh-build: no --source file and no postgres DSN configured")
	}
	ctx := context.Background()
	pgSrc, err := build.OpenPostgresSource(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	if err != nil {
		return nil, func() {}, fmt.Errorf("zmh-build: %w", err)
	}
	return pgSrc, func() { pgSrc.Close() }, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	if err := http.ListenAndServe(addr, mux); err != nil && !strings.Contains(err.Error(), "closed") {
		logger.Error("metrics listener stopped", "error", err)
	}
}
