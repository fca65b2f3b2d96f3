// Command zmh-query is a demo client for the runtime search engine: it
// loads a local artifact directory (as produced by zmh-build) and runs
// one query against it, printing ranked results to stdout. It exists so
// the engine package can be exercised without a browser or an HTTP host
// (spec.md §6's engine is a library, not a server).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jpl-au/zmh/engine"
	"github.com/jpl-au/zmh/internal/config"
	"github.com/jpl-au/zmh/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("zmh-query", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	dir := fs.String("dir", "", "directory containing build artifacts (manifest.json etc.)")
	cachePath := fs.String("cache", "", "path to the local artifact cache; empty disables caching")
	query := fs.String("q", "", "query string")
	page := fs.Int("page", 1, "result page (1-based)")
	size := fs.Int("size", 20, "results per page")
	sortMode := fs.String("sort", "relevance", "relevance, id_asc, or id_desc")
	logLevel := fs.String("log-level", "info", "debug, info, warn, or error")
	logFormat := fs.String("log-format", "text", "text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *dir == "" {
		*dir = cfg.ArtifactDir
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "zmh-query: --dir is required")
		return 2
	}
	if *cachePath == "" {
		*cachePath = cfg.CachePath
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if !setFlags["log-level"] && cfg.Logging.Level != "" {
		*logLevel = cfg.Logging.Level
	}
	if !setFlags["log-format"] && cfg.Logging.Format != "" {
		*logFormat = cfg.Logging.Format
	}
	logging.Setup(*logLevel, *logFormat)
	logger := logging.For("query")

	var cache *engine.Cache
	if *cachePath != "" {
		cache, err = engine.OpenCache(*cachePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer cache.Close()
	}

	eng := engine.New(&engine.LocalFetcher{Dir: *dir}, cache, nil, logger)
	ctx := context.Background()
	if err := eng.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "zmh-query: init:", err)
		return 1
	}

	req := engine.SearchRequest{Query: *query, Page: *page, Size: *size, Sort: parseSort(*sortMode)}
	result, err := eng.Search(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zmh-query: search:", err)
		return 1
	}

	fmt.Printf("%d results (page %d, size %d, more=%v)\n", result.Total, result.Page, result.Size, result.HasMore)
	for _, d := range result.Docs {
		fmt.Printf("  #%d  %s\n", d.ExternalID, d.Title)
	}
	return 0
}

func parseSort(s string) engine.SortMode {
	switch s {
	case "id_asc":
		return engine.SortIDAsc
	case "id_desc":
		return engine.SortIDDesc
	default:
		return engine.SortRelevance
	}
}
