package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Store a transcript file or directory",
	Long: `Segment and store a transcript file, or every supported file under a
directory. Files already stored in the project (same content) are skipped.

Supported file types:
  .txt, .md, .docx, .pdf, .html

Ignored by default:
  .git, node_modules, vendor, __pycache__, .venv

Examples:
  wordline ingest ./interview.docx
  wordline ingest ./interviews --project study-2024
  wordline ingest . --target 6000`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	addChunkFlags(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Printf("Ingesting %s...\n", path)

	resp, err := svc.Index(ctx, types.IndexRequest{
		Path:    path,
		Project: getProject(),
		Options: chunkOptions(cmd),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	elapsed := time.Duration(resp.Timing) * time.Millisecond
	fmt.Printf("Ingested %d, skipped %d, failed %d in %s\n",
		resp.Ingested, resp.Skipped, len(resp.Failed), elapsed)
	for _, f := range resp.Failed {
		fmt.Printf("  failed: %s\n", f)
	}
	return nil
}
