// Package transcript provides the core transcript service
package transcript

import (
	"context"
	"errors"

	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

// ErrInvalidRequest is returned when a request is missing required input
var ErrInvalidRequest = errors.New("invalid request")

// Service orchestrates transcript operations
type Service interface {
	// Segment splits text into turns and chunks without storing anything
	Segment(ctx context.Context, req types.SegmentRequest) (*types.SegmentResult, error)

	// Parse converts text into speaker blocks, optionally normalized and rendered
	Parse(ctx context.Context, req types.ParseRequest) (*types.ParseResponse, error)

	// Reassemble joins per-chunk outputs back into document order
	Reassemble(ctx context.Context, req types.ReassembleRequest) (*types.ReassembleResponse, error)

	// Ingest segments and stores a transcript. Identical text in the same
	// project returns the existing transcript.
	Ingest(ctx context.Context, req types.IngestRequest) (*types.Transcript, error)

	// IngestFile extracts a document from disk and ingests it
	IngestFile(ctx context.Context, path, project string, opts types.SegmentOptions) (*types.Transcript, error)

	// Index ingests a file or every supported file under a directory
	Index(ctx context.Context, req types.IndexRequest) (*types.IndexResponse, error)

	// Get retrieves a single transcript by ID
	Get(ctx context.Context, id string) (*types.Transcript, error)

	// Chunks returns a transcript's stored chunks
	Chunks(ctx context.Context, id string) ([]types.StoredChunk, error)

	// Markdown renders a stored transcript
	Markdown(ctx context.Context, id string, applyRules bool) (string, error)

	// Delete removes a transcript by ID
	Delete(ctx context.Context, id string) error

	// DeleteByProject removes all transcripts for a project
	DeleteByProject(ctx context.Context, project string) (int, error)

	// List returns transcripts with filtering
	List(ctx context.Context, opts store.ListOptions) ([]*types.Transcript, error)

	// Stats returns system statistics
	Stats(ctx context.Context) (*types.StatsResponse, error)

	// Close releases resources
	Close() error
}

// Config configures the transcript service
type Config struct {
	DataDir        string          // Directory for data storage
	DefaultProject string          // Default project name if not specified
	IndexIgnore    []string        // Glob patterns to ignore during indexing
	MaxParallel    int             // Files ingested concurrently by Index
	Defaults       chunking.Options // Chunking parameters when a request leaves them unset
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DataDir:        "~/.wordline",
		DefaultProject: "default",
		IndexIgnore:    []string{".git", "node_modules", "vendor", "__pycache__", ".venv"},
		MaxParallel:    4,
		Defaults:       chunking.DefaultOptions(),
	}
}
