package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

var (
	segTarget     int
	segMinTurns   int
	segWindow     int
	segOverlap    int
	segNoNameOnly bool
	segJSON       bool
	segShowChunks bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file|-]",
	Short: "Split a transcript into turns and chunks",
	Long: `Segment a transcript into speaker turns and pack them into chunks.
Nothing is stored. Reads stdin when no file (or "-") is given.

Supported file types: .txt, .md, .docx, .pdf, .html

Examples:
  wordline segment interview.txt
  wordline segment interview.docx --target 4000 --min-turns 2
  cat notes.txt | wordline segment - --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSegment,
}

func init() {
	addChunkFlags(segmentCmd)
	segmentCmd.Flags().BoolVar(&segJSON, "json", false, "Output the full result as JSON")
	segmentCmd.Flags().BoolVar(&segShowChunks, "chunks", false, "Print chunk text")
}

// addChunkFlags registers the chunking overrides shared by several commands
func addChunkFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&segTarget, "target", chunking.DefaultTargetChunkChars, "Target chunk size in characters")
	cmd.Flags().IntVar(&segMinTurns, "min-turns", chunking.DefaultMinTurnsPerChunk, "Minimum turns before a chunk may close")
	cmd.Flags().IntVar(&segWindow, "window", chunking.DefaultFallbackChunkChars, "Fallback window size when no speakers are found")
	cmd.Flags().IntVar(&segOverlap, "overlap", chunking.DefaultFallbackOverlapChars, "Fallback window overlap")
	cmd.Flags().BoolVar(&segNoNameOnly, "no-name-only", false, "Disable lone-name speaker headers")
}

// chunkOptions returns only the overrides the user set explicitly
func chunkOptions(cmd *cobra.Command) types.SegmentOptions {
	var opts types.SegmentOptions
	flags := cmd.Flags()
	if flags.Changed("target") {
		target := segTarget
		opts.TargetChunkChars = &target
	}
	if flags.Changed("min-turns") {
		minTurns := segMinTurns
		opts.MinTurnsPerChunk = &minTurns
	}
	if flags.Changed("window") {
		window := segWindow
		opts.FallbackChunkChars = &window
	}
	if flags.Changed("overlap") {
		overlap := segOverlap
		opts.FallbackOverlapChars = &overlap
	}
	if flags.Changed("no-name-only") {
		allow := !segNoNameOnly
		opts.AllowNameOnlyHeader = &allow
	}
	return opts
}

func runSegment(cmd *cobra.Command, args []string) error {
	name, text, err := readInput(args)
	if err != nil {
		return err
	}

	opts := cfg.ChunkingOptions().Apply(chunkOptions(cmd))
	result := chunking.NewSegmenter(logger).Segment(text, opts)

	if segJSON {
		return printJSON(result)
	}

	fmt.Printf("%s\n", name)
	fmt.Printf("  Turns:    %d\n", result.TurnsCount)
	fmt.Printf("  Chunks:   %d\n", result.ChunksCount)
	fmt.Printf("  Chars:    %d\n", result.TotalChars)
	if len(result.Speakers) > 0 {
		fmt.Printf("  Speakers: %s\n", strings.Join(result.Speakers, ", "))
	}
	if len(result.HeaderPatternsUsed) > 0 {
		fmt.Printf("  Headers:  %s\n", strings.Join(result.HeaderPatternsUsed, ", "))
	} else if result.ChunksCount > 0 {
		fmt.Println("  Headers:  none (fallback windows)")
	}
	if result.Preamble != "" {
		fmt.Printf("  Preamble: %s\n", truncate(result.Preamble, 60))
	}
	fmt.Println()

	for i, m := range result.ChunkMeta {
		fmt.Printf("  [%d] %s  %d chars\n", i, turnSpan(m), m.CharCount)
		if segShowChunks {
			fmt.Println(indent(result.Chunks[i], "      "))
			fmt.Println()
		}
	}
	return nil
}

// turnSpan describes the turns a chunk covers
func turnSpan(m types.ChunkMeta) string {
	if m.FromTurnIndex == nil || m.ToTurnIndex == nil {
		return "window"
	}
	return fmt.Sprintf("turns %d-%d", *m.FromTurnIndex, *m.ToTurnIndex)
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
