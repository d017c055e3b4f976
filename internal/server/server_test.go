package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/internal/store/sqlite"
	"github.com/shivavenkatesh/wordline/internal/transcript"
	"github.com/shivavenkatesh/wordline/pkg/types"
)

const interview = "访谈说明\n张三 00:01\n你好。\n李四：好的\n张三 00:09\n谢谢。\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	svc := transcript.NewService(st, nil, nil, transcript.DefaultConfig(), nil)
	t.Cleanup(func() { svc.Close() })

	return New(svc, Config{Port: 3457, MaxUploadMB: 1, Version: "test"}, nil)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func upload(t *testing.T, s *Server, name string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodOptions, "/segment", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSegment(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/segment", types.SegmentRequest{Text: interview})
	require.Equal(t, http.StatusOK, w.Code)

	result := decode[types.SegmentResult](t, w)
	assert.Equal(t, 3, result.TurnsCount)
	assert.Equal(t, 1, result.ChunksCount)
	assert.Equal(t, "访谈说明", result.Preamble)
	assert.Equal(t, []string{"张三", "李四"}, result.Speakers)

	// JSON keys are part of the contract
	raw := decode[map[string]any](t, w)
	for _, key := range []string{"chunks", "chunks_count", "turns_count", "total_chars", "speakers",
		"chunk_meta", "preamble", "header_patterns_used", "name_only_headers_used"} {
		assert.Contains(t, raw, key)
	}
}

func TestSegment_Fallback(t *testing.T) {
	s := newTestServer(t)

	size, overlap := 4, 1
	w := do(t, s, http.MethodPost, "/segment", types.SegmentRequest{
		Text:    "abcdefghij",
		Options: types.SegmentOptions{FallbackChunkChars: &size, FallbackOverlapChars: &overlap},
	})
	require.Equal(t, http.StatusOK, w.Code)

	raw := decode[map[string]any](t, w)
	assert.Equal(t, []any{"abcd", "defg", "ghij"}, raw["chunks"])
	meta := raw["chunk_meta"].([]any)
	first := meta[0].(map[string]any)
	assert.Nil(t, first["from_turn_index"])
	assert.Nil(t, first["turns_count"])
	assert.Equal(t, float64(4), first["char_count"])
}

func TestSegment_BadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/segment", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "invalid")
}

func TestReassemble(t *testing.T) {
	s := newTestServer(t)

	target, minTurns := 1, 1
	w := do(t, s, http.MethodPost, "/segment", types.SegmentRequest{
		Text:    interview,
		Options: types.SegmentOptions{TargetChunkChars: &target, MinTurnsPerChunk: &minTurns},
	})
	require.Equal(t, http.StatusOK, w.Code)
	seg := decode[types.SegmentResult](t, w)
	require.Len(t, seg.ChunkMeta, 3)

	// outputs arrive out of order, paired with their metadata
	meta := []types.ChunkMeta{seg.ChunkMeta[2], seg.ChunkMeta[0], seg.ChunkMeta[1]}
	w = do(t, s, http.MethodPost, "/reassemble", types.ReassembleRequest{
		ChunkMeta: meta,
		Outputs:   []string{"third", "first", "second"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "first\nsecond\nthird", decode[types.ReassembleResponse](t, w).Text)

	w = do(t, s, http.MethodPost, "/reassemble", types.ReassembleRequest{
		ChunkMeta: seg.ChunkMeta,
		Outputs:   []string{"only one"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/reassemble", types.ReassembleRequest{
		ChunkMeta: []types.ChunkMeta{seg.ChunkMeta[0], seg.ChunkMeta[2]},
		Outputs:   []string{"first", "third"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "does not cover")
}

func TestParse(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/parse", types.ParseRequest{Text: interview, Markdown: true, Title: "t"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[types.ParseResponse](t, w)
	require.Len(t, resp.Blocks, 3)
	assert.Equal(t, "好的", resp.Blocks[1].Content)
	assert.True(t, strings.HasPrefix(resp.Markdown, "# t\n"))
}

func TestTranscriptLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/transcripts", types.IngestRequest{Name: "one", Project: "p", Text: interview})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[types.Transcript](t, w)
	require.NotEmpty(t, created.ID)

	w = do(t, s, http.MethodGet, "/transcripts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, interview, decode[types.Transcript](t, w).Text)

	w = do(t, s, http.MethodGet, "/transcripts/"+created.ID+"/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	chunks := decode[struct {
		Chunks []types.StoredChunk `json:"chunks"`
		Count  int                 `json:"count"`
	}](t, w)
	assert.Equal(t, 1, chunks.Count)
	assert.Equal(t, 2, *chunks.Chunks[0].ToTurnIndex)

	w = do(t, s, http.MethodGet, "/transcripts/"+created.ID+"/markdown", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "### 李四")

	w = do(t, s, http.MethodGet, "/transcripts?project=p&speaker="+url.QueryEscape("李四"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = do(t, s, http.MethodGet, "/transcripts?project=none", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["transcripts"])

	w = do(t, s, http.MethodDelete, "/transcripts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/transcripts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/transcripts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngest_EmptyText(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/transcripts", types.IngestRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	w := upload(t, s, "interview.txt", []byte(interview), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Name   string              `json:"name"`
		Format string              `json:"format"`
		Result types.SegmentResult `json:"result"`
	}](t, w)
	assert.Equal(t, "interview.txt", resp.Name)
	assert.Equal(t, "txt", resp.Format)
	assert.Equal(t, 3, resp.Result.TurnsCount)

	w = upload(t, s, "interview.txt", []byte(interview), map[string]string{"store": "true", "project": "up"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "up", decode[types.Transcript](t, w).Project)
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t)

	w := upload(t, s, "", nil, map[string]string{"store": "true"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, s, "legacy.doc", []byte("binary"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "unsupported")

	w = upload(t, s, "blank.txt", []byte("  \n"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := bytes.Repeat([]byte("a"), 2<<20)
	w = upload(t, s, "big.txt", big, nil)
	assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
}

func TestIndexAndStats(t *testing.T) {
	s := newTestServer(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(interview), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("王五：第二份\n"), 0644))

	w := do(t, s, http.MethodPost, "/index", types.IndexRequest{Path: dir, Project: "batch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[types.IndexResponse](t, w).Ingested)

	w = do(t, s, http.MethodPost, "/index", types.IndexRequest{Path: filepath.Join(dir, "missing")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[types.StatsResponse](t, w)
	assert.Equal(t, 2, stats.TotalTranscripts)
	assert.Equal(t, 1, stats.ProjectCount)
	assert.Equal(t, 4, stats.TotalTurns)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("get: %w", store.ErrNotFound)))
	assert.Equal(t, http.StatusBadRequest, statusFor(transcript.ErrInvalidRequest))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
