// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs tracks pipeline runs in a local SQLite database. It records
// one job row per processed bookmark, keeps processed markers that suppress
// reprocessing for a retention window, and caches bookmark listings so
// repeated fetches within a short window do not hit the source API.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const (
	defaultDBFile       = "bookmark-engine.db"
	defaultCacheTTL     = 5 * time.Minute
	defaultProcessedTTL = 24 * time.Hour
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one tracked pipeline run.
type Job struct {
	ID             string
	BookmarkID     string
	Status         string
	ProcessingType types.ProcessingType
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store manages the job-tracking SQLite database.
type Store struct {
	db           *sql.DB
	cacheTTL     time.Duration
	processedTTL time.Duration

	// now is replaced in tests to control TTL expiry.
	now func() time.Time
}

// NewStore opens or creates the database and its schema.
func NewStore(cfg types.JobsConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBFile
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:           db,
		cacheTTL:     cfg.CacheTTL,
		processedTTL: cfg.ProcessedTTL,
		now:          time.Now,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.processedTTL <= 0 {
		s.processedTTL = defaultProcessedTTL
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			bookmark_id TEXT NOT NULL,
			status TEXT NOT NULL,
			processing_type TEXT,
			error TEXT,
			note_id TEXT,
			note_url TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_bookmark_id ON jobs(bookmark_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE TABLE IF NOT EXISTS processed (
			bookmark_id TEXT PRIMARY KEY,
			processed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bookmark_cache (
			cache_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateJob records a new pending job for a bookmark.
func (s *Store) CreateJob(ctx context.Context, bookmarkID string) (Job, error) {
	if bookmarkID == "" {
		return Job{}, fmt.Errorf("bookmark id required")
	}

	job := Job{
		ID:         uuid.NewString(),
		BookmarkID: bookmarkID,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
		UpdatedAt:  s.now().UTC(),
	}

	query, args, err := sq.Insert("jobs").
		Columns("id", "bookmark_id", "status", "created_at", "updated_at").
		Values(job.ID, job.BookmarkID, job.Status,
			job.CreatedAt.Format(time.RFC3339Nano), job.UpdatedAt.Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return Job{}, fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return Job{}, fmt.Errorf("inserting job: %w", err)
	}
	return job, nil
}

// StartJob moves a job to running.
func (s *Store) StartJob(ctx context.Context, jobID string) error {
	return s.setStatus(ctx, jobID, StatusRunning, sq.Eq{})
}

// CompleteJob records a finished run and its report outcome. The processed
// marker for the bookmark is written in the same call.
func (s *Store) CompleteJob(ctx context.Context, jobID string, report types.PipelineReport) error {
	status := StatusCompleted
	if !report.Success {
		status = StatusFailed
	}
	extra := sq.Eq{
		"processing_type": string(report.ProcessingType),
		"error":           report.Error,
	}
	if err := s.setStatus(ctx, jobID, status, extra); err != nil {
		return err
	}
	if report.Success {
		return s.MarkProcessed(ctx, report.BookmarkID)
	}
	return nil
}

// AttachNote records where the synthesized note was persisted.
func (s *Store) AttachNote(ctx context.Context, jobID, noteID, noteURL string) error {
	query, args, err := sq.Update("jobs").
		Set("note_id", noteID).
		Set("note_url", noteURL).
		Set("updated_at", s.now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"id": jobID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("attaching note to job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) setStatus(ctx context.Context, jobID, status string, extra sq.Eq) error {
	builder := sq.Update("jobs").
		Set("status", status).
		Set("updated_at", s.now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"id": jobID})
	for col, val := range extra {
		builder = builder.Set(col, val)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}

// GetJob fetches one job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (Job, error) {
	query, args, err := sq.Select("id", "bookmark_id", "status", "processing_type", "error", "created_at", "updated_at").
		From("jobs").
		Where(sq.Eq{"id": jobID}).
		ToSql()
	if err != nil {
		return Job{}, fmt.Errorf("building select: %w", err)
	}
	return s.scanJob(s.db.QueryRowContext(ctx, query, args...))
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := sq.Select("id", "bookmark_id", "status", "processing_type", "error", "created_at", "updated_at").
		From("jobs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanJob(row scanner) (Job, error) {
	var job Job
	var processingType, errMsg sql.NullString
	var created, updated string

	if err := row.Scan(&job.ID, &job.BookmarkID, &job.Status, &processingType, &errMsg, &created, &updated); err != nil {
		return Job{}, fmt.Errorf("scanning job: %w", err)
	}
	job.ProcessingType = types.ProcessingType(processingType.String)
	job.Error = errMsg.String
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	job.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return job, nil
}

// MarkProcessed records that a bookmark completed the pipeline.
func (s *Store) MarkProcessed(ctx context.Context, bookmarkID string) error {
	query, args, err := sq.Insert("processed").
		Columns("bookmark_id", "processed_at").
		Values(bookmarkID, s.now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(bookmark_id) DO UPDATE SET processed_at=excluded.processed_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking bookmark %s processed: %w", bookmarkID, err)
	}
	return nil
}

// WasProcessed reports whether a bookmark was processed within the retention
// window. Expired markers read as not processed.
func (s *Store) WasProcessed(ctx context.Context, bookmarkID string) (bool, error) {
	query, args, err := sq.Select("processed_at").
		From("processed").
		Where(sq.Eq{"bookmark_id": bookmarkID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building select: %w", err)
	}

	var stamp string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&stamp)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading processed marker: %w", err)
	}

	processedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return false, fmt.Errorf("parsing processed marker: %w", err)
	}
	return s.now().UTC().Sub(processedAt) < s.processedTTL, nil
}

// CacheBookmarks stores a bookmark listing under a cache key.
func (s *Store) CacheBookmarks(ctx context.Context, key string, bookmarks []types.Bookmark) error {
	payload, err := json.Marshal(bookmarks)
	if err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}

	query, args, err := sq.Insert("bookmark_cache").
		Columns("cache_key", "payload", "fetched_at").
		Values(key, string(payload), s.now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(cache_key) DO UPDATE SET payload=excluded.payload, fetched_at=excluded.fetched_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("caching bookmarks: %w", err)
	}
	return nil
}

// CachedBookmarks returns a fresh cached listing, or ok=false when the entry
// is missing or older than the cache TTL.
func (s *Store) CachedBookmarks(ctx context.Context, key string) ([]types.Bookmark, bool, error) {
	query, args, err := sq.Select("payload", "fetched_at").
		From("bookmark_cache").
		Where(sq.Eq{"cache_key": key}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building select: %w", err)
	}

	var payload, stamp string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload, &stamp)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading bookmark cache: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, false, fmt.Errorf("parsing cache entry: %w", err)
	}
	if s.now().UTC().Sub(fetchedAt) >= s.cacheTTL {
		return nil, false, nil
	}

	var bookmarks []types.Bookmark
	if err := json.Unmarshal([]byte(payload), &bookmarks); err != nil {
		return nil, false, fmt.Errorf("decoding cached bookmarks: %w", err)
	}
	return bookmarks, true, nil
}
