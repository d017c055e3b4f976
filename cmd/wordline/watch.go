package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/internal/config"
	"github.com/shivavenkatesh/wordline/internal/extract"
	"github.com/shivavenkatesh/wordline/internal/watch"
)

var watchSkipExisting bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest transcripts as they appear in a directory",
	Long: `Watch a directory tree and ingest supported transcript files when they
are created or changed. Bursts of writes to the same file are debounced
(watch.debounce, default 500ms). Existing files are ingested at startup
unless --skip-existing is set; already stored content is skipped.

Examples:
  wordline watch ./inbox --project study-2024
  wordline watch ~/Transcripts --skip-existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addChunkFlags(watchCmd)
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", false, "Only ingest files changed after startup")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	proj := getProject()
	opts := chunkOptions(cmd)

	handle := func(path string) {
		t, err := svc.IngestFile(ctx, path, proj, opts)
		switch {
		case errors.Is(err, extract.ErrEmptyDocument):
			logger.Debug("skipping empty document", "path", path)
		case err != nil:
			logger.Warn("failed to ingest file", "path", path, "error", err)
		default:
			fmt.Printf("Ingested %s (%d turns, %d chunks) -> %s\n", t.Name, t.TurnsCount, t.ChunksCount, t.ID)
		}
	}

	w := watch.New(watch.Config{
		Root:         config.ExpandHome(args[0]),
		Debounce:     cfg.Watch.Debounce,
		Ignore:       cfg.Ingest.Ignore,
		ScanExisting: !watchSkipExisting,
	}, handle, logger)

	fmt.Printf("Watching %s (project '%s'). Press Ctrl+C to stop\n", args[0], proj)
	return w.Run(ctx)
}
