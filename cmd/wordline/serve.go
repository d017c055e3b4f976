package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/wordline/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

The server exposes a REST API for:
  - Segmenting and parsing transcript text
  - Uploading documents (.txt, .md, .docx, .pdf, .html)
  - Storing, listing and rendering transcripts

Examples:
  wordline serve
  wordline serve --port 3457
  wordline serve --host 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port, 3457)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host, 127.0.0.1)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	svc, err := initService()
	if err != nil {
		return err
	}

	srv := server.New(svc, server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Version:     Version,
	}, logger)

	// Handle graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-done
		fmt.Println("\nShutting down...")
		srv.Shutdown()
		svc.Close()
	}()

	fmt.Printf("wordline server listening on http://%s\n", cfg.Addr())
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST   /segment                 - Segment text into chunks")
	fmt.Println("  POST   /parse                   - Parse text into speaker blocks")
	fmt.Println("  POST   /reassemble              - Join per-chunk outputs in turn order")
	fmt.Println("  POST   /upload                  - Upload a document (store=true to keep)")
	fmt.Println("  POST   /transcripts             - Store a transcript")
	fmt.Println("  GET    /transcripts             - List transcripts")
	fmt.Println("  GET    /transcripts/:id         - Get a transcript")
	fmt.Println("  GET    /transcripts/:id/chunks  - Get its chunks")
	fmt.Println("  GET    /transcripts/:id/markdown - Render as Markdown")
	fmt.Println("  DELETE /transcripts/:id         - Delete a transcript")
	fmt.Println("  POST   /index                   - Ingest a file or directory")
	fmt.Println("  GET    /stats                   - Get statistics")
	fmt.Println("  GET    /health                  - Health check")

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
