package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/progress"
	syncengine "github.com/rknightion/paperless-dedupe/internal/sync"
)

type syncOptions struct {
	commonOptions
	fullSync        bool
	purgeBeforeSync bool
	pageSize        int
	maxOCRLength    int
	concurrency     int
}

// newSyncCmd creates the sync subcommand.
func newSyncCmd() *cobra.Command {
	opts := &syncOptions{
		pageSize:     100,
		maxOCRLength: 50000,
		concurrency:  10,
	}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the upstream document backend into the local store",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSync(opts)
		},
	}

	bindCommonFlags(cmd.Flags(), &opts.commonOptions)
	cmd.Flags().BoolVar(&opts.fullSync, "full", false, "Force a full sync instead of incremental")
	cmd.Flags().BoolVar(&opts.purgeBeforeSync, "purge", false, "Delete all locally stored documents before syncing")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", opts.pageSize, "Upstream document list page size")
	cmd.Flags().IntVar(&opts.maxOCRLength, "max-ocr-length", opts.maxOCRLength, "Maximum characters of OCR text stored per document")
	cmd.Flags().IntVar(&opts.concurrency, "metadata-concurrency", opts.concurrency, "Concurrent metadata fetch requests")

	return cmd
}

func runSync(opts *syncOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(&opts.commonOptions)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	client := newUpstreamClient(&opts.commonOptions, logger)
	engine := syncengine.New(st.DB(), client, clock.Real{}, logger)

	bar := progress.New(!opts.noProgress)
	result, err := engine.Run(context.Background(), model.SyncOptions{
		ForceFullSync:       opts.fullSync,
		PageSize:            opts.pageSize,
		MaxOCRLength:        opts.maxOCRLength,
		MetadataConcurrency: opts.concurrency,
		PurgeBeforeSync:     opts.purgeBeforeSync,
		OnProgress:          bar.Reporter(),
	})
	bar.Finish("sync complete")
	drainErrors(result.Errors)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("synced: %s inserted, %s updated, %s skipped, %s deleted in %s\n",
		humanize.Comma(int64(result.Inserted)), humanize.Comma(int64(result.Updated)),
		humanize.Comma(int64(result.Skipped)), humanize.Comma(int64(result.Deleted)),
		time.Duration(result.DurationMS)*time.Millisecond,
	)
	return nil
}
