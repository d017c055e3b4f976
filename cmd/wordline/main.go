// wordline - interview transcript segmentation and storage
// Splits noisy transcripts into speaker turns and packs them into chunks
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	cfgFile string
	dataDir string
	project string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wordline",
	Short: "Interview transcript segmentation",
	Long: `wordline turns interview transcripts into labeled speaker turns and packs
those turns into size-bounded chunks for downstream processing.

It recognizes "name time", "name: text", "name [time]: text" and lone-name
speaker headers, falls back to overlapping windows when no headers exist,
and keeps processed transcripts in a local SQLite database.

Examples:
  # Segment a transcript and print a summary
  wordline segment interview.txt

  # Parse into speaker blocks and render Markdown with rule cleanup
  wordline parse interview.docx --rules --markdown

  # Store every transcript in a directory
  wordline ingest ./interviews --project study-2024

  # Start the HTTP API
  wordline serve`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./wordline.yaml or ~/.wordline/wordline.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.wordline)")
	rootCmd.PersistentFlags().StringVarP(&project, "project", "p", "", "Project name (default: current directory name)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
