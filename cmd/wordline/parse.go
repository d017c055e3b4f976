package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/render"
	"github.com/shivavenkatesh/wordline/internal/rules"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

var (
	parseRules    bool
	parseMarkdown bool
	parseTitle    string
	parseJSON     bool
	parseNoName   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a transcript into speaker blocks",
	Long: `Parse a transcript into speaker blocks (speaker, timestamp, content).

With --rules each block is normalized: half-width punctuation becomes
full-width, filler words (嗯, 啊, 然后, 就是, ...) are removed and sentences
get a closing mark. With --markdown the blocks are rendered as a Markdown
document instead of listed.

Examples:
  wordline parse interview.txt
  wordline parse interview.docx --rules --markdown --title "用户访谈 3"
  wordline parse - --json < interview.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseRules, "rules", false, "Apply rule-based text cleanup")
	parseCmd.Flags().BoolVar(&parseMarkdown, "markdown", false, "Render as Markdown")
	parseCmd.Flags().StringVar(&parseTitle, "title", "", "Markdown document title (default: file name)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output blocks as JSON")
	parseCmd.Flags().BoolVar(&parseNoName, "no-name-only", false, "Disable lone-name speaker headers")
}

func runParse(cmd *cobra.Command, args []string) error {
	name, text, err := readInput(args)
	if err != nil {
		return err
	}

	allowNameOnly := cfg.Chunking.AllowNameOnlyHeader && !parseNoName
	blocks := chunking.NewSegmenter(logger).Parse(text, allowNameOnly)
	if parseRules {
		blocks = rules.ProcessBlocks(blocks)
	}

	if parseMarkdown {
		title := parseTitle
		if title == "" && name != "stdin" {
			title = name
		}
		fmt.Print(render.Markdown(blocks, title))
		return nil
	}

	if parseJSON {
		return printJSON(types.ParseResponse{Blocks: blocks, Speakers: chunking.BlockSpeakers(blocks)})
	}

	fmt.Printf("%d blocks, speakers: %s\n\n", len(blocks), strings.Join(chunking.BlockSpeakers(blocks), ", "))
	for _, b := range blocks {
		speaker := b.Speaker
		if speaker == "" {
			speaker = "(unknown)"
		}
		if b.Timestamp != "" {
			speaker += " [" + b.Timestamp + "]"
		}
		content := b.Content
		if b.Processed != "" {
			content = b.Processed
		}
		fmt.Printf("%s\n%s\n\n", speaker, indent(content, "  "))
	}
	return nil
}

var renderRules bool

var renderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Render a stored transcript as Markdown",
	Long: `Render a stored transcript as Markdown, one quoted section per speaker turn.

Examples:
  wordline render 3f2c...
  wordline render 3f2c... --rules > interview.md`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderRules, "rules", false, "Apply rule-based text cleanup")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	md, err := svc.Markdown(ctx, args[0], renderRules)
	if err != nil {
		return fmt.Errorf("failed to render transcript: %w", err)
	}
	fmt.Print(md)
	return nil
}
