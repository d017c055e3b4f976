// Package sqlite provides the SQLite storage implementation
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shivavenkatesh/wordline/internal/store"
	"github.com/shivavenkatesh/wordline/pkg/types"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements store.Store using SQLite
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Config configures the SQLite store
type Config struct {
	Path string // Path to database file
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the database and applies the schema
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",       // 16MB cache
		"PRAGMA temp_store = MEMORY",       // temp tables in memory
		"PRAGMA auto_vacuum = INCREMENTAL", // gradual space reclaim
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project TEXT NOT NULL,
		source_path TEXT,
		format TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		text TEXT NOT NULL,
		preamble TEXT,
		speakers TEXT,        -- JSON array, first-appearance order
		header_patterns TEXT, -- JSON array
		name_only_headers INTEGER NOT NULL DEFAULT 0,
		turns_count INTEGER NOT NULL DEFAULT 0,
		chunks_count INTEGER NOT NULL DEFAULT 0,
		total_chars INTEGER NOT NULL DEFAULT 0,
		options TEXT,         -- JSON
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_project ON transcripts(project);
	CREATE INDEX IF NOT EXISTS idx_transcripts_hash ON transcripts(project, content_hash);
	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);

	CREATE TABLE IF NOT EXISTS chunks (
		transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		from_turn INTEGER, -- NULL for fallback windows
		to_turn INTEGER,
		char_count INTEGER NOT NULL,
		turns_count INTEGER,
		PRIMARY KEY (transcript_id, idx)
	);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

const transcriptColumns = `id, name, project, source_path, format, content_hash, text, preamble,
	speakers, header_patterns, name_only_headers, turns_count, chunks_count, total_chars,
	options, created_at, updated_at`

// listColumns skips the document body
const listColumns = `id, name, project, source_path, format, content_hash, '' AS text, preamble,
	speakers, header_patterns, name_only_headers, turns_count, chunks_count, total_chars,
	options, created_at, updated_at`

// Add saves a transcript and its chunks in one transaction
func (s *Store) Add(ctx context.Context, t *types.Transcript, chunks []types.StoredChunk) error {
	speakers, err := encodeStrings(t.Speakers)
	if err != nil {
		return fmt.Errorf("failed to encode speakers: %w", err)
	}
	patterns, err := encodeStrings(t.HeaderPatternsUsed)
	if err != nil {
		return fmt.Errorf("failed to encode header patterns: %w", err)
	}
	options, err := encodeOptions(t.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (`+transcriptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Name, t.Project, t.SourcePath, t.Format, t.ContentHash, t.Text, t.Preamble,
		speakers, patterns, t.NameOnlyHeadersUsed, t.TurnsCount, t.ChunksCount, t.TotalChars,
		options, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (transcript_id, idx, text, from_turn, to_turn, char_count, turns_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		c.TranscriptID = t.ID
		_, err = stmt.ExecContext(ctx, t.ID, c.Index, c.Text,
			nullInt(c.FromTurnIndex), nullInt(c.ToTurnIndex), c.CharCount, nullInt(c.TurnsCount))
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

// Get retrieves a transcript by ID
func (s *Store) Get(ctx context.Context, id string) (*types.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`, id)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return t, err
}

// GetByHash finds a transcript in a project by content hash
func (s *Store) GetByHash(ctx context.Context, project, hash string) (*types.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transcriptColumns+` FROM transcripts
		WHERE project = ? AND content_hash = ?
		ORDER BY created_at LIMIT 1
	`, project, hash)
	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: hash %s", store.ErrNotFound, hash)
	}
	return t, err
}

// Chunks returns a transcript's chunks in document order
func (s *Store) Chunks(ctx context.Context, id string) ([]types.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript_id, idx, text, from_turn, to_turn, char_count, turns_count
		FROM chunks WHERE transcript_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []types.StoredChunk{}
	for rows.Next() {
		var c types.StoredChunk
		var from, to, turns sql.NullInt64
		if err := rows.Scan(&c.TranscriptID, &c.Index, &c.Text, &from, &to, &c.CharCount, &turns); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.FromTurnIndex = intPtr(from)
		c.ToTurnIndex = intPtr(to)
		c.TurnsCount = intPtr(turns)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Delete removes a transcript and its chunks
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE transcript_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM transcripts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return tx.Commit()
}

// DeleteByProject removes all transcripts for a project and returns how many were removed
func (s *Store) DeleteByProject(ctx context.Context, project string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM chunks WHERE transcript_id IN (SELECT id FROM transcripts WHERE project = ?)
	`, project)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for project: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM transcripts WHERE project = ?", project)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transcripts for project: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), tx.Commit()
}

var orderColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"total_chars": true,
}

// List returns transcripts (without their text) with filtering and pagination
func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]*types.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conditions := []string{"1=1"}
	args := []interface{}{}

	if opts.Project != "" {
		conditions = append(conditions, "project = ?")
		args = append(args, opts.Project)
	}
	if opts.Format != "" {
		conditions = append(conditions, "format = ?")
		args = append(args, opts.Format)
	}
	if opts.Speaker != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(transcripts.speakers) WHERE value = ?)")
		args = append(args, opts.Speaker)
	}

	orderBy := "created_at"
	if orderColumns[opts.OrderBy] {
		orderBy = opts.OrderBy
	}
	order := "ASC"
	if opts.Descending {
		order = "DESC"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transcripts
		WHERE %s
		ORDER BY %s %s, id
		LIMIT ? OFFSET ?
	`, listColumns, strings.Join(conditions, " AND "), orderBy, order)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []*types.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, rows.Err()
}

// Count returns the number of transcripts
func (s *Store) Count(ctx context.Context, project string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	var err error
	if project == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcripts").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transcripts WHERE project = ?", project).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count transcripts: %w", err)
	}
	return count, nil
}

// Stats returns storage statistics
func (s *Store) Stats(ctx context.Context) (*types.StatsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &types.StatsResponse{TranscriptsByFormat: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(chunks_count), 0), COALESCE(SUM(turns_count), 0),
		       COALESCE(SUM(total_chars), 0), COUNT(DISTINCT project)
		FROM transcripts
	`).Scan(&stats.TotalTranscripts, &stats.TotalChunks, &stats.TotalTurns, &stats.TotalChars, &stats.ProjectCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT format, COUNT(*) FROM transcripts GROUP BY format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var format string
		var count int
		if err := rows.Scan(&format, &count); err != nil {
			return nil, fmt.Errorf("failed to scan format count: %w", err)
		}
		stats.TranscriptsByFormat[format] = count
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.StorageBytes = info.Size()
	}
	return stats, rows.Err()
}

// Compact optimizes storage
func (s *Store) Compact(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Close releases resources
func (s *Store) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTranscript(row rowScanner) (*types.Transcript, error) {
	var t types.Transcript
	var sourcePath, preamble, speakers, patterns, options sql.NullString

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Project,
		&sourcePath,
		&t.Format,
		&t.ContentHash,
		&t.Text,
		&preamble,
		&speakers,
		&patterns,
		&t.NameOnlyHeadersUsed,
		&t.TurnsCount,
		&t.ChunksCount,
		&t.TotalChars,
		&options,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.SourcePath = sourcePath.String
	t.Preamble = preamble.String
	t.Speakers = decodeStrings(speakers)
	t.HeaderPatternsUsed = decodeStrings(patterns)
	t.Options = decodeOptions(options)
	return &t, nil
}
