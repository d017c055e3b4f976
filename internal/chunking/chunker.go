// Package chunking splits interview transcripts into speaker turns and packs
// them into size-bounded chunks
package chunking

import (
	"io"
	"log/slog"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

const (
	DefaultTargetChunkChars     = 10000
	DefaultMinTurnsPerChunk     = 3
	DefaultFallbackChunkChars   = 3500
	DefaultFallbackOverlapChars = 200
)

// Options configures segmentation and packing
type Options struct {
	TargetChunkChars     int  // Soft ceiling on packed chunk size
	MinTurnsPerChunk     int  // Turns a chunk must hold before it may close early
	FallbackChunkChars   int  // Window size when no headers are found
	FallbackOverlapChars int  // Window overlap when no headers are found
	AllowNameOnlyHeader  bool // Enable the lone-name header heuristic
}

// DefaultOptions returns the standard chunking parameters
func DefaultOptions() Options {
	return Options{
		TargetChunkChars:     DefaultTargetChunkChars,
		MinTurnsPerChunk:     DefaultMinTurnsPerChunk,
		FallbackChunkChars:   DefaultFallbackChunkChars,
		FallbackOverlapChars: DefaultFallbackOverlapChars,
		AllowNameOnlyHeader:  true,
	}
}

// Normalize coerces out-of-range values instead of rejecting them
func (o Options) Normalize() Options {
	if o.TargetChunkChars <= 0 {
		o.TargetChunkChars = DefaultTargetChunkChars
	}
	if o.MinTurnsPerChunk < 1 {
		o.MinTurnsPerChunk = 1
	}
	if o.FallbackChunkChars <= 0 {
		o.FallbackChunkChars = DefaultFallbackChunkChars
	}
	if o.FallbackOverlapChars < 0 {
		o.FallbackOverlapChars = 0
	}
	return o
}

// Apply overlays request options on top of o. Nil request fields keep o's
// values; anything set goes through Normalize.
func (o Options) Apply(req types.SegmentOptions) Options {
	if req.TargetChunkChars != nil {
		o.TargetChunkChars = *req.TargetChunkChars
	}
	if req.MinTurnsPerChunk != nil {
		o.MinTurnsPerChunk = *req.MinTurnsPerChunk
	}
	if req.FallbackChunkChars != nil {
		o.FallbackChunkChars = *req.FallbackChunkChars
	}
	if req.FallbackOverlapChars != nil {
		o.FallbackOverlapChars = *req.FallbackOverlapChars
	}
	if req.AllowNameOnlyHeader != nil {
		o.AllowNameOnlyHeader = *req.AllowNameOnlyHeader
	}
	return o.Normalize()
}

// Segmenter runs the detect -> build -> pack pipeline.
// It holds no mutable state and is safe for concurrent use.
type Segmenter struct {
	logger *slog.Logger
}

// NewSegmenter creates a segmenter that reports diagnostics to logger.
// A nil logger discards them.
func NewSegmenter(logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Segmenter{logger: logger}
}

// Segment splits text into turns and packs them into chunks. It never fails:
// empty input yields an empty result and headerless input uses fallback windows.
func (s *Segmenter) Segment(text string, opts Options) *types.SegmentResult {
	opts = opts.Normalize()
	text = NormalizeText(text)

	result := &types.SegmentResult{
		Chunks:             []string{},
		Speakers:           []string{},
		ChunkMeta:          []types.ChunkMeta{},
		HeaderPatternsUsed: []string{},
	}
	if isBlank(text) {
		return result
	}

	lines := SplitLines(text)
	headers := DetectHeaders(lines, opts.AllowNameOnlyHeader)
	if len(headers) == 0 {
		windows := FallbackWindows(text, opts.FallbackChunkChars, opts.FallbackOverlapChars)
		for _, w := range windows {
			n := runeLen(w)
			result.Chunks = append(result.Chunks, w)
			result.ChunkMeta = append(result.ChunkMeta, types.ChunkMeta{CharCount: n})
			result.TotalChars += n
		}
		result.ChunksCount = len(result.Chunks)
		s.logger.Debug("no headers detected, using fallback windows",
			"windows", result.ChunksCount,
			"window_chars", opts.FallbackChunkChars,
			"overlap_chars", opts.FallbackOverlapChars)
		return result
	}

	turns := BuildTurns(lines, headers)
	chunks, meta := Pack(turns, opts.TargetChunkChars, opts.MinTurnsPerChunk)

	result.Chunks = chunks
	result.ChunkMeta = meta
	result.ChunksCount = len(chunks)
	result.TurnsCount = len(turns)
	for _, m := range meta {
		result.TotalChars += m.CharCount
	}
	result.Speakers = Speakers(turns)
	result.Preamble = Preamble(lines, headers)
	result.HeaderPatternsUsed = patternsUsed(headers)
	for _, h := range headers {
		if h.Kind == types.KindNameOnlyHeader {
			result.NameOnlyHeadersUsed++
		}
	}

	s.logger.Debug("segmented transcript",
		"headers", len(headers),
		"name_only", result.NameOnlyHeadersUsed,
		"turns", result.TurnsCount,
		"chunks", result.ChunksCount)

	return result
}

// Parse converts text into structured speaker/content blocks
func (s *Segmenter) Parse(text string, allowNameOnly bool) []types.Block {
	blocks := ParseBlocks(text, allowNameOnly)
	s.logger.Debug("parsed transcript blocks", "blocks", len(blocks))
	return blocks
}

// SegmentAndChunk segments text with a silent segmenter
func SegmentAndChunk(text string, opts Options) *types.SegmentResult {
	return NewSegmenter(nil).Segment(text, opts)
}

// Speakers returns the distinct non-empty speakers in first-appearance order
func Speakers(turns []types.Turn) []string {
	seen := make(map[string]bool)
	speakers := []string{}
	for _, t := range turns {
		if t.Speaker == "" || seen[t.Speaker] {
			continue
		}
		seen[t.Speaker] = true
		speakers = append(speakers, t.Speaker)
	}
	return speakers
}

// patternKinds fixes the reporting order of header kinds
var patternKinds = []types.HeaderKind{
	types.KindTimeHeader,
	types.KindTimeHeaderInline,
	types.KindInlineHeader,
	types.KindNameOnlyHeader,
}

func patternsUsed(headers []types.HeaderCandidate) []string {
	used := make(map[types.HeaderKind]bool)
	for _, h := range headers {
		used[h.Kind] = true
	}
	patterns := []string{}
	for _, k := range patternKinds {
		if used[k] {
			patterns = append(patterns, string(k))
		}
	}
	return patterns
}
