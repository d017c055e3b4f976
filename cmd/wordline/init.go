package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shivavenkatesh/wordline/internal/cache"
	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/config"
	"github.com/shivavenkatesh/wordline/internal/extract"
	"github.com/shivavenkatesh/wordline/internal/logging"
	"github.com/shivavenkatesh/wordline/internal/store/sqlite"
	"github.com/shivavenkatesh/wordline/internal/transcript"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

// loadConfig reads configuration and applies global flag overrides
func loadConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		c.DataDir = config.ExpandHome(dataDir)
	}
	if verbose {
		c.Log.Level = "debug"
	}

	cfg = c
	logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return nil
}

// initService creates and initializes the transcript service
func initService() (transcript.Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := sqlite.New(sqlite.Config{Path: cfg.DBPath()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	svc := transcript.NewService(
		store,
		chunking.NewSegmenter(logger),
		cache.NewResultCache(cfg.Cache.Size),
		cfg.Service(getProject()),
		logger,
	)

	logger.Debug("service ready", "data_dir", cfg.DataDir, "database", cfg.DBPath())
	return svc, nil
}

// readInput returns the text of a document path, or stdin for "-" or no args
func readInput(args []string) (name, text string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "stdin", string(data), nil
	}

	doc, err := extract.ExtractFile(args[0])
	if err != nil {
		return "", "", err
	}
	return doc.Name, doc.Text, nil
}

func getProject() string {
	if project != "" {
		return project
	}
	// Default to current directory name
	dir, err := os.Getwd()
	if err != nil {
		return "default"
	}
	parts := strings.Split(dir, string(os.PathSeparator))
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return "default"
}

// truncate shortens s to maxLen characters
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
