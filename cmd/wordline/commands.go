package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored transcripts",
	Long: `List stored transcripts in the current project, newest first.

Examples:
  wordline list
  wordline list --speaker 张三
  wordline list --format docx --limit 20`,
	RunE: runList,
}

var (
	listLimit   int
	listFormat  string
	listSpeaker string
	listAll     bool
)

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum results")
	listCmd.Flags().StringVar(&listFormat, "format", "", "Filter by source format")
	listCmd.Flags().StringVar(&listSpeaker, "speaker", "", "Only transcripts with this speaker")
	listCmd.Flags().BoolVar(&listAll, "all-projects", false, "List across all projects")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := store.ListOptions{
		Project:    getProject(),
		Format:     listFormat,
		Speaker:    listSpeaker,
		Limit:      listLimit,
		Descending: true,
		OrderBy:    "created_at",
	}
	if listAll {
		opts.Project = ""
	}

	transcripts, err := svc.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}

	if len(transcripts) == 0 {
		fmt.Println("No transcripts found")
		return nil
	}

	if listAll {
		fmt.Print("Transcripts in all projects:\n\n")
	} else {
		fmt.Printf("Transcripts in project '%s':\n\n", opts.Project)
	}
	for _, t := range transcripts {
		fmt.Printf("  %s  [%s] %d turns, %d chunks\n", t.Name, t.Format, t.TurnsCount, t.ChunksCount)
		if len(t.Speakers) > 0 {
			fmt.Printf("    Speakers: %s\n", truncate(strings.Join(t.Speakers, ", "), 70))
		}
		fmt.Printf("    ID: %s\n\n", t.ID)
	}

	return nil
}

var showChunks bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored transcript",
	Long: `Show a stored transcript's details and chunk layout.

Examples:
  wordline show 3f2c...
  wordline show 3f2c... --chunks`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showChunks, "chunks", false, "Print chunk text")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	t, err := svc.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get transcript: %w", err)
	}
	chunks, err := svc.Chunks(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	fmt.Printf("%s\n", t.Name)
	fmt.Printf("  ID:       %s\n", t.ID)
	fmt.Printf("  Project:  %s\n", t.Project)
	fmt.Printf("  Format:   %s\n", t.Format)
	if t.SourcePath != "" {
		fmt.Printf("  Source:   %s\n", t.SourcePath)
	}
	fmt.Printf("  Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Turns:    %d\n", t.TurnsCount)
	fmt.Printf("  Chars:    %d\n", t.TotalChars)
	fmt.Printf("  Speakers: %s\n", strings.Join(t.Speakers, ", "))
	fmt.Printf("  Headers:  %s\n", strings.Join(t.HeaderPatternsUsed, ", "))
	if t.NameOnlyHeadersUsed > 0 {
		fmt.Printf("  Lone-name headers: %d\n", t.NameOnlyHeadersUsed)
	}
	if t.Preamble != "" {
		fmt.Printf("  Preamble: %s\n", truncate(t.Preamble, 60))
	}
	fmt.Println()

	fmt.Printf("Chunks (%d):\n", len(chunks))
	for _, c := range chunks {
		fmt.Printf("  [%d] %s  %d chars\n", c.Index, turnSpan(c.ChunkMeta), c.CharCount)
		if showChunks {
			fmt.Println(indent(c.Text, "      "))
			fmt.Println()
		}
	}
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored transcript",
	Long: `Delete a stored transcript and its chunks by ID.

Examples:
  wordline delete 3f2c...
  wordline delete --all  # Delete all transcripts in project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

var deleteAll bool

func init() {
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete all transcripts in project")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if deleteAll {
		n, err := svc.DeleteByProject(ctx, getProject())
		if err != nil {
			return fmt.Errorf("failed to delete transcripts: %w", err)
		}
		fmt.Printf("Deleted %d transcripts in project '%s'\n", n, getProject())
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("transcript ID required (or use --all)")
	}

	id := args[0]
	if err := svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	fmt.Printf("Deleted: %s\n", id)
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics",
	Long: `Show statistics about stored transcripts.

Examples:
  wordline stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Println("wordline Statistics")
	fmt.Println("───────────────────")
	fmt.Printf("Transcripts:   %d\n", stats.TotalTranscripts)
	fmt.Printf("Turns:         %d\n", stats.TotalTurns)
	fmt.Printf("Chunks:        %d\n", stats.TotalChunks)
	fmt.Printf("Characters:    %d\n", stats.TotalChars)
	fmt.Printf("Projects:      %d\n", stats.ProjectCount)
	fmt.Printf("Storage size:  %.2f MB\n", float64(stats.StorageBytes)/1024/1024)
	fmt.Println()

	if len(stats.TranscriptsByFormat) > 0 {
		formats := make([]string, 0, len(stats.TranscriptsByFormat))
		for f := range stats.TranscriptsByFormat {
			formats = append(formats, f)
		}
		sort.Strings(formats)

		fmt.Println("By format:")
		for _, f := range formats {
			fmt.Printf("  %-8s %d\n", f, stats.TranscriptsByFormat[f])
		}
	}

	return nil
}
