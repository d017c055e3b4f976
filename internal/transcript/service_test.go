package transcript

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/wordline/internal/cache"
	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/internal/store/sqlite"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

const interview = "张三 00:01\n你好，今天聊聊。\n李四：嗯 我觉得可以\n张三 00:05\n那我们开始。\n"

func TestService_Segment(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	result, err := svc.Segment(ctx, types.SegmentRequest{Text: interview})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TurnsCount)
	assert.Equal(t, []string{"张三", "李四"}, result.Speakers)
	assert.Equal(t, []string{"time_header", "inline_header"}, result.HeaderPatternsUsed)

	again, err := svc.Segment(ctx, types.SegmentRequest{Text: interview})
	require.NoError(t, err)
	assert.Same(t, result, again, "repeat segmentation should be served from cache")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, stats.CacheHitRate, 0.001)
}

func TestService_Segment_Options(t *testing.T) {
	svc := newTestService(t, DefaultConfig())

	target, minTurns := 1, 1
	result, err := svc.Segment(context.Background(), types.SegmentRequest{
		Text:    interview,
		Options: types.SegmentOptions{TargetChunkChars: &target, MinTurnsPerChunk: &minTurns},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksCount, "tiny target with min 1 turn gives one chunk per turn")

	result, err = svc.Segment(context.Background(), types.SegmentRequest{Text: ""})
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.NotNil(t, result.Chunks)
}

func TestService_Segment_Cancelled(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Segment(ctx, types.SegmentRequest{Text: interview})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Reassemble(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	target, minTurns := 1, 1
	seg, err := svc.Segment(ctx, types.SegmentRequest{
		Text:    interview,
		Options: types.SegmentOptions{TargetChunkChars: &target, MinTurnsPerChunk: &minTurns},
	})
	require.NoError(t, err)

	resp, err := svc.Reassemble(ctx, types.ReassembleRequest{ChunkMeta: seg.ChunkMeta, Outputs: seg.Chunks})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(seg.Chunks, "\n"), resp.Text)

	_, err = svc.Reassemble(ctx, types.ReassembleRequest{ChunkMeta: seg.ChunkMeta})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_Parse(t *testing.T) {
	svc := newTestService(t, DefaultConfig())

	resp, err := svc.Parse(context.Background(), types.ParseRequest{
		Text:       interview,
		Title:      "访谈",
		ApplyRules: true,
		Markdown:   true,
	})
	require.NoError(t, err)

	require.Len(t, resp.Blocks, 3)
	assert.Equal(t, []string{"张三", "李四"}, resp.Speakers)
	assert.Equal(t, "00:01", resp.Blocks[0].Timestamp)
	assert.Equal(t, "嗯 我觉得可以", resp.Blocks[1].Content)
	assert.Equal(t, "我觉得可以。", resp.Blocks[1].Processed)

	assert.True(t, strings.HasPrefix(resp.Markdown, "# 访谈\n"))
	assert.Contains(t, resp.Markdown, "### 李四\n\n> 我觉得可以。")
	assert.NotContains(t, resp.Markdown, "嗯")
}

func TestService_Parse_Plain(t *testing.T) {
	svc := newTestService(t, DefaultConfig())

	resp, err := svc.Parse(context.Background(), types.ParseRequest{Text: interview})
	require.NoError(t, err)
	assert.Empty(t, resp.Markdown)
	assert.Empty(t, resp.Blocks[0].Processed)
}

func TestService_Ingest(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	tr, err := svc.Ingest(ctx, types.IngestRequest{Name: "first.txt", Text: interview})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "default", tr.Project)
	assert.Equal(t, "txt", tr.Format)
	assert.Equal(t, cache.ContentHash(interview), tr.ContentHash)
	assert.Equal(t, 3, tr.TurnsCount)

	got, err := svc.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, interview, got.Text)

	chunks, err := svc.Chunks(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, chunks, tr.ChunksCount)
	assert.Equal(t, 0, *chunks[0].FromTurnIndex)

	// same text, same project: existing transcript
	dup, err := svc.Ingest(ctx, types.IngestRequest{Name: "copy.txt", Text: interview})
	require.NoError(t, err)
	assert.Equal(t, tr.ID, dup.ID)

	// same text, other project: new transcript
	other, err := svc.Ingest(ctx, types.IngestRequest{Project: "other", Text: interview})
	require.NoError(t, err)
	assert.NotEqual(t, tr.ID, other.ID)
	assert.Equal(t, "untitled", other.Name)
}

func TestService_Ingest_Invalid(t *testing.T) {
	svc := newTestService(t, DefaultConfig())

	_, err := svc.Ingest(context.Background(), types.IngestRequest{Text: "  \n "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_IngestFile(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	path := writeFile(t, t.TempDir(), "interview.md", interview)

	tr, err := svc.IngestFile(context.Background(), path, "research", types.SegmentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "interview.md", tr.Name)
	assert.Equal(t, "md", tr.Format)
	assert.Equal(t, "research", tr.Project)
	assert.Equal(t, path, tr.SourcePath)
}

func TestService_Index(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxParallel = 1
	svc := newTestService(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", interview)
	writeFile(t, dir, "b.md", "王五：第二份访谈\n")
	// duplicate of a.txt
	writeFile(t, dir, "sub/c.txt", interview)
	// skipped: unsupported, temporary
	writeFile(t, dir, "notes.doc", "legacy")
	writeFile(t, dir, "~$a.txt", "lock file")
	// fails extraction
	writeFile(t, dir, "empty.txt", "   \n")
	// not walked
	writeFile(t, dir, "node_modules/x.txt", "忽略：内容")

	resp, err := svc.Index(ctx, types.IndexRequest{Path: dir, Project: "batch"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Ingested)
	assert.Equal(t, 3, resp.Skipped)
	require.Len(t, resp.Failed, 1)
	assert.Contains(t, resp.Failed[0], "empty.txt")

	list, err := svc.List(ctx, store.ListOptions{Project: "batch"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_Index_Errors(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	_, err := svc.Index(ctx, types.IndexRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Index(ctx, types.IndexRequest{Path: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := writeFile(t, t.TempDir(), "one.txt", interview)
	resp, err := svc.Index(ctx, types.IndexRequest{Path: file})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Ingested)

	resp, err = svc.Index(ctx, types.IndexRequest{Path: file})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Skipped)
}

func TestService_Markdown(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	tr, err := svc.Ingest(ctx, types.IngestRequest{Name: "访谈一", Text: interview})
	require.NoError(t, err)

	md, err := svc.Markdown(ctx, tr.ID, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# 访谈一\n"))
	assert.Contains(t, md, "> 嗯 我觉得可以")

	md, err = svc.Markdown(ctx, tr.ID, true)
	require.NoError(t, err)
	assert.Contains(t, md, "> 我觉得可以。")

	_, err = svc.Markdown(ctx, "missing", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_DeleteAndStats(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	a, err := svc.Ingest(ctx, types.IngestRequest{Project: "p1", Text: interview})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, types.IngestRequest{Project: "p2", Text: interview})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, types.IngestRequest{Project: "p2", Text: "赵六：另一段"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTranscripts)
	assert.Equal(t, 2, stats.ProjectCount)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Chunks(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := svc.DeleteByProject(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTranscripts)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, nil, nil, Config{}, nil).(*serviceImpl)

	assert.Equal(t, "default", svc.config.DefaultProject)
	assert.Equal(t, 1, svc.config.MaxParallel)
	assert.Equal(t, chunking.DefaultOptions(), svc.config.Defaults)
	assert.NotNil(t, svc.segmenter)
	assert.NotNil(t, svc.results)
}

// Helper functions

func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	st, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	svc := NewService(st, chunking.NewSegmenter(nil), cache.NewResultCache(16), cfg, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
