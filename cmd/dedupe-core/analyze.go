package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rknightion/paperless-dedupe/internal/analysis"
	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/model"
	"github.com/rknightion/paperless-dedupe/internal/progress"
)

type analyzeOptions struct {
	commonOptions
	force bool
}

// newAnalyzeCmd creates the analyze subcommand.
func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find and group near-duplicate documents in the local store",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAnalyze(opts)
		},
	}

	bindCommonFlags(cmd.Flags(), &opts.commonOptions)
	cmd.Flags().BoolVar(&opts.force, "force", false, "Re-examine every document, not only those pending analysis")

	return cmd
}

func runAnalyze(opts *analyzeOptions) error {
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

	cache, err := openCache(&opts.commonOptions)
	if err != nil {
		return err
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	orch := analysis.New(st.DB(), cache, clock.Real{}, logger)

	bar := progress.New(!opts.noProgress)
	result, err := orch.Run(context.Background(), model.AnalysisOptions{
		Force:      opts.force,
		OnProgress: bar.Reporter(),
	})
	bar.Finish("analysis complete")
	drainErrors(result.Errors)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	fmt.Printf("analyzed %s documents: %s signatures generated, %s reused, %s candidates scored, "+
		"%s groups created, %s updated, %s removed in %s\n",
		humanize.Comma(int64(result.DocumentsAnalyzed)),
		humanize.Comma(int64(result.SignaturesGenerated)), humanize.Comma(int64(result.SignaturesReused)),
		humanize.Comma(int64(result.CandidatePairsScored)),
		humanize.Comma(int64(result.GroupsCreated)), humanize.Comma(int64(result.GroupsUpdated)),
		humanize.Comma(int64(result.GroupsRemoved)),
		time.Duration(result.DurationMS)*time.Millisecond,
	)
	return nil
}
