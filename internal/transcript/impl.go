// Package transcript provides the core transcript service implementation
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shivavenkatesh/wordline/internal/cache"
	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/extract"
	"github.com/shivavenkatesh/wordline/internal/logging"
	"github.com/shivavenkatesh/wordline/internal/render"
	"github.com/shivavenkatesh/wordline/internal/rules"
	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	store     store.Store
	segmenter *chunking.Segmenter
	results   *cache.ResultCache
	config    Config
	logger    *slog.Logger
}

// NewService creates a new transcript service
func NewService(st store.Store, seg *chunking.Segmenter, rc *cache.ResultCache, cfg Config, logger *slog.Logger) Service {
	if cfg.DefaultProject == "" {
		cfg.DefaultProject = "default"
	}
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	if cfg.Defaults == (chunking.Options{}) {
		cfg.Defaults = chunking.DefaultOptions()
	}
	cfg.Defaults = cfg.Defaults.Normalize()

	if logger == nil {
		logger = logging.Discard()
	}
	if seg == nil {
		seg = chunking.NewSegmenter(logger)
	}
	if rc == nil {
		rc = cache.NewResultCache(256)
	}

	return &serviceImpl{
		store:     st,
		segmenter: seg,
		results:   rc,
		config:    cfg,
		logger:    logger,
	}
}

// Segment splits text into turns and chunks, serving repeats from the cache
func (s *serviceImpl) Segment(ctx context.Context, req types.SegmentRequest) (*types.SegmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.segment(req.Text, s.config.Defaults.Apply(req.Options)), nil
}

func (s *serviceImpl) segment(text string, opts chunking.Options) *types.SegmentResult {
	if result, ok := s.results.Get(text, opts); ok {
		return result
	}
	result := s.segmenter.Segment(text, opts)
	s.results.Put(text, opts, result)
	return result
}

// Parse converts text into speaker blocks
func (s *serviceImpl) Parse(ctx context.Context, req types.ParseRequest) (*types.ParseResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allowNameOnly := s.config.Defaults.AllowNameOnlyHeader
	if req.AllowNameOnlyHeader != nil {
		allowNameOnly = *req.AllowNameOnlyHeader
	}

	blocks := s.segmenter.Parse(req.Text, allowNameOnly)
	if req.ApplyRules {
		blocks = rules.ProcessBlocks(blocks)
	}

	resp := &types.ParseResponse{
		Blocks:   blocks,
		Speakers: chunking.BlockSpeakers(blocks),
	}
	if req.Markdown {
		resp.Markdown = render.Markdown(blocks, req.Title)
	}
	return resp, nil
}

// Reassemble validates chunk coverage and joins the outputs in turn order
func (s *serviceImpl) Reassemble(ctx context.Context, req types.ReassembleRequest) (*types.ReassembleResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := chunking.Reassemble(req.ChunkMeta, req.Outputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &types.ReassembleResponse{Text: text}, nil
}

// Ingest segments and stores a transcript
func (s *serviceImpl) Ingest(ctx context.Context, req types.IngestRequest) (*types.Transcript, error) {
	t, _, err := s.ingest(ctx, req)
	return t, err
}

// ingest reports whether a new transcript was created
func (s *serviceImpl) ingest(ctx context.Context, req types.IngestRequest) (*types.Transcript, bool, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, false, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	project := req.Project
	if project == "" {
		project = s.config.DefaultProject
	}

	hash := cache.ContentHash(req.Text)
	existing, err := s.store.GetByHash(ctx, project, hash)
	if err == nil {
		s.logger.Debug("transcript already ingested", "id", existing.ID, "project", project)
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check for duplicate: %w", err)
	}

	name := req.Name
	if name == "" {
		name = "untitled"
	}
	format := req.Format
	if format == "" {
		format = string(extract.FormatText)
	}

	result := s.segment(req.Text, s.config.Defaults.Apply(req.Options))

	t := &types.Transcript{
		ID:                  uuid.New().String(),
		Name:                name,
		Project:             project,
		SourcePath:          req.SourcePath,
		Format:              format,
		ContentHash:         hash,
		Text:                req.Text,
		Preamble:            result.Preamble,
		Speakers:            result.Speakers,
		HeaderPatternsUsed:  result.HeaderPatternsUsed,
		NameOnlyHeadersUsed: result.NameOnlyHeadersUsed,
		TurnsCount:          result.TurnsCount,
		ChunksCount:         result.ChunksCount,
		TotalChars:          result.TotalChars,
		Options:             req.Options,
		CreatedAt:           time.Now(),
	}

	chunks := make([]types.StoredChunk, len(result.Chunks))
	for i, text := range result.Chunks {
		chunks[i] = types.StoredChunk{
			TranscriptID: t.ID,
			Index:        i,
			Text:         text,
			ChunkMeta:    result.ChunkMeta[i],
		}
	}

	if err := s.store.Add(ctx, t, chunks); err != nil {
		return nil, false, fmt.Errorf("failed to store transcript: %w", err)
	}

	s.logger.Info("ingested transcript",
		"id", t.ID,
		"name", t.Name,
		"project", project,
		"turns", t.TurnsCount,
		"chunks", t.ChunksCount)
	return t, true, nil
}

// IngestFile extracts a document from disk and ingests it
func (s *serviceImpl) IngestFile(ctx context.Context, path, project string, opts types.SegmentOptions) (*types.Transcript, error) {
	t, _, err := s.ingestFile(ctx, path, project, opts)
	return t, err
}

func (s *serviceImpl) ingestFile(ctx context.Context, path, project string, opts types.SegmentOptions) (*types.Transcript, bool, error) {
	doc, err := extract.ExtractFile(path)
	if err != nil {
		return nil, false, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return s.ingest(ctx, types.IngestRequest{
		Name:       doc.Name,
		Project:    project,
		Text:       doc.Text,
		Format:     string(doc.Format),
		SourcePath: abs,
		Options:    opts,
	})
}

// Index ingests a file or every supported file under a directory
func (s *serviceImpl) Index(ctx context.Context, req types.IndexRequest) (*types.IndexResponse, error) {
	start := time.Now()

	if req.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}

	project := req.Project
	if project == "" {
		project = s.config.DefaultProject
	}

	path := expandHome(req.Path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	resp := &types.IndexResponse{}
	if !info.IsDir() {
		_, created, err := s.ingestFile(ctx, path, project, req.Options)
		if err != nil {
			return nil, err
		}
		if created {
			resp.Ingested = 1
		} else {
			resp.Skipped = 1
		}
		resp.Timing = time.Since(start).Milliseconds()
		return resp, nil
	}

	files, skipped, err := s.collectFiles(path)
	if err != nil {
		return nil, err
	}
	resp.Skipped = skipped

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxParallel)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, created, err := s.ingestFile(gctx, file, project, req.Options)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				// keep going with the other files
				s.logger.Warn("failed to ingest file", "path", file, "error", err)
				resp.Failed = append(resp.Failed, fmt.Sprintf("%s: %v", file, err))
			case created:
				resp.Ingested++
			default:
				resp.Skipped++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.Timing = time.Since(start).Milliseconds()
	s.logger.Info("indexed directory",
		"path", path,
		"ingested", resp.Ingested,
		"skipped", resp.Skipped,
		"failed", len(resp.Failed),
		"ms", resp.Timing)
	return resp, nil
}

// collectFiles walks dir and returns the files worth ingesting, plus the
// number of files passed over as unsupported or temporary
func (s *serviceImpl) collectFiles(dir string) ([]string, int, error) {
	var files []string
	var skipped int

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if path != dir && s.ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !extract.IsSupported(path) || extract.IsTemporary(path) {
			skipped++
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to walk directory: %w", err)
	}
	return files, skipped, nil
}

func (s *serviceImpl) ignored(name string) bool {
	for _, pattern := range s.config.IndexIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Get retrieves a single transcript by ID
func (s *serviceImpl) Get(ctx context.Context, id string) (*types.Transcript, error) {
	return s.store.Get(ctx, id)
}

// Chunks returns a transcript's stored chunks
func (s *serviceImpl) Chunks(ctx context.Context, id string) ([]types.StoredChunk, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Chunks(ctx, id)
}

// Markdown re-parses a stored transcript and renders it
func (s *serviceImpl) Markdown(ctx context.Context, id string, applyRules bool) (string, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	opts := s.config.Defaults.Apply(t.Options)
	resp, err := s.Parse(ctx, types.ParseRequest{
		Text:                t.Text,
		Title:               t.Name,
		AllowNameOnlyHeader: &opts.AllowNameOnlyHeader,
		ApplyRules:          applyRules,
		Markdown:            true,
	})
	if err != nil {
		return "", err
	}
	return resp.Markdown, nil
}

// Delete removes a transcript by ID
func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// DeleteByProject removes all transcripts for a project
func (s *serviceImpl) DeleteByProject(ctx context.Context, project string) (int, error) {
	return s.store.DeleteByProject(ctx, project)
}

// List returns transcripts with filtering
func (s *serviceImpl) List(ctx context.Context, opts store.ListOptions) ([]*types.Transcript, error) {
	return s.store.List(ctx, opts)
}

// Stats returns system statistics
func (s *serviceImpl) Stats(ctx context.Context) (*types.StatsResponse, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	_, _, stats.CacheHitRate = s.results.Stats()
	return stats, nil
}

// Close releases resources
func (s *serviceImpl) Close() error {
	return s.store.Close()
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
