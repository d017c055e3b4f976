// Package store defines the transcript storage interface
package store

import (
	"context"
	"errors"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

// ErrNotFound is returned when a transcript does not exist
var ErrNotFound = errors.New("transcript not found")

// Store handles persistence of transcripts and their chunks
type Store interface {
	// Add saves a transcript together with its chunks
	Add(ctx context.Context, t *types.Transcript, chunks []types.StoredChunk) error

	// Get retrieves a transcript by ID
	Get(ctx context.Context, id string) (*types.Transcript, error)

	// GetByHash finds a transcript in a project by content hash
	GetByHash(ctx context.Context, project, hash string) (*types.Transcript, error)

	// Chunks returns a transcript's chunks in document order
	Chunks(ctx context.Context, id string) ([]types.StoredChunk, error)

	// Delete removes a transcript and its chunks
	Delete(ctx context.Context, id string) error

	// DeleteByProject removes all transcripts for a project
	DeleteByProject(ctx context.Context, project string) (int, error)

	// List returns transcripts with filtering and pagination
	List(ctx context.Context, opts ListOptions) ([]*types.Transcript, error)

	// Count returns the number of transcripts, optionally filtered by project
	Count(ctx context.Context, project string) (int, error)

	// Stats returns storage statistics
	Stats(ctx context.Context) (*types.StatsResponse, error)

	// Compact optimizes storage (VACUUM)
	Compact(ctx context.Context) error

	// Close releases resources
	Close() error
}

// ListOptions configures listing queries
type ListOptions struct {
	Project    string
	Format     string
	Speaker    string // Only transcripts where this speaker appears
	Limit      int
	Offset     int
	OrderBy    string // "created_at", "updated_at", "name", "total_chars"
	Descending bool
}
