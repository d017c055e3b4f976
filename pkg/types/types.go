// Package types defines the core data structures for wordline
package types

import "time"

// HeaderKind records which header grammar recognized a turn boundary
type HeaderKind string

const (
	KindTimeHeader       HeaderKind = "time_header"        // name + clock time
	KindTimeHeaderInline HeaderKind = "time_header_inline" // name + clock time + colon + content
	KindInlineHeader     HeaderKind = "inline_header"      // name + optional [time] + colon + content
	KindNameOnlyHeader   HeaderKind = "name_only_header"   // lone name line between blank and content
)

// IsInline reports whether the header line carries same-line content
func (k HeaderKind) IsInline() bool {
	return k == KindTimeHeaderInline || k == KindInlineHeader
}

// HeaderCandidate is a line recognized as the start of a new turn
type HeaderCandidate struct {
	LineIndex  int        `json:"line_index"`
	Speaker    string     `json:"speaker"`
	Time       string     `json:"time,omitempty"`
	Kind       HeaderKind `json:"kind"`
	InlineRest string     `json:"inline_rest,omitempty"`
}

// Turn is one speaker's contiguous utterance
type Turn struct {
	Index      int        `json:"index"`
	Speaker    string     `json:"speaker"`
	Time       string     `json:"time,omitempty"`
	Kind       HeaderKind `json:"kind"`
	HeaderLine string     `json:"header_line"`
	Content    string     `json:"content"`    // inline rest (if any) followed by the turn's lines
	BlockText  string     `json:"block_text"` // header line plus content lines
	CharCount  int        `json:"char_count"`
}

// ChunkMeta describes one packed chunk. Turn fields are nil for fallback windows.
type ChunkMeta struct {
	FromTurnIndex *int `json:"from_turn_index"`
	ToTurnIndex   *int `json:"to_turn_index"`
	CharCount     int  `json:"char_count"`
	TurnsCount    *int `json:"turns_count"`
}

// SegmentResult is the output of segmenting and chunking one document
type SegmentResult struct {
	Chunks              []string    `json:"chunks"`
	ChunksCount         int         `json:"chunks_count"`
	TurnsCount          int         `json:"turns_count"`
	TotalChars          int         `json:"total_chars"`
	Speakers            []string    `json:"speakers"`
	ChunkMeta           []ChunkMeta `json:"chunk_meta"`
	Preamble            string      `json:"preamble"`
	HeaderPatternsUsed  []string    `json:"header_patterns_used"`
	NameOnlyHeadersUsed int         `json:"name_only_headers_used"`
}

// SegmentOptions carries caller-supplied chunking parameters.
// Nil fields fall back to configured defaults; set values, including zero,
// are coerced into range.
type SegmentOptions struct {
	TargetChunkChars     *int  `json:"target_chunk_chars,omitempty"`
	MinTurnsPerChunk     *int  `json:"min_turns_per_chunk,omitempty"`
	FallbackChunkChars   *int  `json:"fallback_chunk_chars,omitempty"`
	FallbackOverlapChars *int  `json:"fallback_overlap_chars,omitempty"`
	AllowNameOnlyHeader  *bool `json:"allow_name_only_header,omitempty"`
}

// Block is a structured speaker/content pair from the document-parsing path
type Block struct {
	ID        string `json:"id"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp,omitempty"`
	Content   string `json:"content"`
	Processed string `json:"processed,omitempty"`
}

// Transcript is a stored, segmented document
type Transcript struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Project             string         `json:"project"`
	SourcePath          string         `json:"source_path,omitempty"`
	Format              string         `json:"format"`
	ContentHash         string         `json:"content_hash"`
	Text                string         `json:"text,omitempty"`
	Preamble            string         `json:"preamble,omitempty"`
	Speakers            []string       `json:"speakers"`
	HeaderPatternsUsed  []string       `json:"header_patterns_used"`
	NameOnlyHeadersUsed int            `json:"name_only_headers_used"`
	TurnsCount          int            `json:"turns_count"`
	ChunksCount         int            `json:"chunks_count"`
	TotalChars          int            `json:"total_chars"`
	Options             SegmentOptions `json:"options"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// StoredChunk is a persisted chunk of a transcript
type StoredChunk struct {
	TranscriptID string `json:"transcript_id"`
	Index        int    `json:"index"`
	Text         string `json:"text"`
	ChunkMeta
}

// SegmentRequest is the request payload for segmenting text
type SegmentRequest struct {
	Text    string         `json:"text"`
	Options SegmentOptions `json:"options"`
}

// ParseRequest is the request payload for parsing text into blocks
type ParseRequest struct {
	Text                string `json:"text"`
	Title               string `json:"title,omitempty"`
	AllowNameOnlyHeader *bool  `json:"allow_name_only_header,omitempty"`
	ApplyRules          bool   `json:"apply_rules,omitempty"`
	Markdown            bool   `json:"markdown,omitempty"`
}

// ParseResponse is the response payload for parsing
type ParseResponse struct {
	Blocks   []Block  `json:"blocks"`
	Speakers []string `json:"speakers"`
	Markdown string   `json:"markdown,omitempty"`
}

// IngestRequest is the request payload for storing a transcript
type IngestRequest struct {
	Name       string         `json:"name"`
	Project    string         `json:"project"`
	Text       string         `json:"text"`
	Format     string         `json:"format,omitempty"`
	SourcePath string         `json:"source_path,omitempty"`
	Options    SegmentOptions `json:"options"`
}

// IndexRequest is the request payload for ingesting a file or directory
type IndexRequest struct {
	Path    string         `json:"path"`
	Project string         `json:"project"`
	Options SegmentOptions `json:"options"`
}

// IndexResponse summarizes an index run
type IndexResponse struct {
	Ingested int      `json:"ingested"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
	Timing   int64    `json:"timing_ms"`
}

// ReassembleRequest carries per-chunk outputs to join back into one document.
// Outputs[i] belongs to ChunkMeta[i], as returned by segmentation.
type ReassembleRequest struct {
	ChunkMeta []ChunkMeta `json:"chunk_meta"`
	Outputs   []string    `json:"outputs"`
}

// ReassembleResponse is the rejoined document
type ReassembleResponse struct {
	Text string `json:"text"`
}

// StatsResponse contains statistics about the transcript store
type StatsResponse struct {
	TotalTranscripts    int            `json:"total_transcripts"`
	TotalChunks         int            `json:"total_chunks"`
	TotalTurns          int            `json:"total_turns"`
	TotalChars          int            `json:"total_chars"`
	TranscriptsByFormat map[string]int `json:"transcripts_by_format"`
	ProjectCount        int            `json:"project_count"`
	StorageBytes        int64          `json:"storage_bytes"`
	CacheHitRate        float64        `json:"cache_hit_rate"`
}
