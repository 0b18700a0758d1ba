package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/sigcache"
	"github.com/rknightion/paperless-dedupe/internal/store"
	"github.com/rknightion/paperless-dedupe/internal/upstream"
)

// commonOptions holds flags shared by the sync and analyze subcommands:
// where the local store lives, how to reach the upstream backend, and how
// chatty to be.
type commonOptions struct {
	dbPath       string
	cacheFile    string
	baseURL      string
	bearerToken  string
	basicUser    string
	basicPass    string
	noProgress   bool
	verbose      bool
}

func bindCommonFlags(flags *pflag.FlagSet, opts *commonOptions) {
	flags.StringVar(&opts.dbPath, "db", "dedupe-core.db", "Path to the local SQLite store")
	flags.StringVar(&opts.cacheFile, "cache-file", "", "Path to MinHash signature cache file (enables caching)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Upstream document backend base URL")
	flags.StringVar(&opts.bearerToken, "token", "", "Upstream bearer token")
	flags.StringVar(&opts.basicUser, "basic-user", "", "Upstream HTTP basic auth username")
	flags.StringVar(&opts.basicPass, "basic-pass", "", "Upstream HTTP basic auth password")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose structured logging")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func openStore(opts *commonOptions) (*store.Store, error) {
	st, err := store.Open(opts.dbPath, clock.Real{})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", opts.dbPath, err)
	}
	return st, nil
}

// openCache opens the signature cache when --cache-file is set, returning
// nil (disabled) otherwise, matching internal/analysis's nil-safe cache
// contract.
func openCache(opts *commonOptions) (*sigcache.Cache, error) {
	if opts.cacheFile == "" {
		return nil, nil
	}
	cache, err := sigcache.Open(opts.cacheFile)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", opts.cacheFile, err)
	}
	return cache, nil
}

func newUpstreamClient(opts *commonOptions, logger *zap.Logger) *upstream.Client {
	return upstream.New(upstream.Config{
		BaseURL:       opts.baseURL,
		BearerToken:   opts.bearerToken,
		BasicUsername: opts.basicUser,
		BasicPassword: opts.basicPass,
		Logger:        logger,
	})
}

// drainErrors writes a result's reported errors to stderr, clearing the
// progress bar's line first.
func drainErrors(errs []string) {
	for _, msg := range errs {
		fmt.Fprintf(os.Stderr, "\r\033[Kerror: %s\n", msg)
	}
}
