package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"storyforge/internal/artifact"
)

const artifactsSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
    id TEXT NOT NULL,
    work_item_id TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    full_content TEXT NOT NULL,
    content_type TEXT NOT NULL,
    belt_levels TEXT,
    difficulty_level TEXT,
    time_required TEXT,
    payload TEXT NOT NULL,
    quality_score REAL NOT NULL,
    generation_method TEXT,
    source_provider TEXT,
    source_episode TEXT,
    source_url TEXT,
    processed_at TEXT NOT NULL,
    PRIMARY KEY (id, work_item_id)
);
CREATE INDEX IF NOT EXISTS idx_artifacts_content_type ON artifacts(content_type);
CREATE INDEX IF NOT EXISTS idx_artifacts_processed_at ON artifacts(processed_at);
`

// Store persists validated artifacts. It is the hand-off point to the
// publishing side; nothing in the generation core reads artifacts back
// except for reporting.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the artifacts database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open artifacts db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(artifactsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply artifacts schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts every artifact in the list under the originating work item.
func (s *Store) Save(ctx context.Context, workItemID string, artifacts []artifact.Artifact) error {
	for _, a := range artifacts {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal artifact %s: %w", a.ID, err)
		}
		belts, err := json.Marshal(a.BeltLevels)
		if err != nil {
			return fmt.Errorf("marshal belt levels for %s: %w", a.ID, err)
		}

		_, err = sq.Replace("artifacts").
			Columns("id", "work_item_id", "title", "summary", "full_content", "content_type",
				"belt_levels", "difficulty_level", "time_required", "payload", "quality_score",
				"generation_method", "source_provider", "source_episode", "source_url", "processed_at").
			Values(
				a.ID,
				workItemID,
				a.Title,
				a.Summary,
				a.FullContent,
				a.ContentType,
				string(belts),
				a.DifficultyLevel,
				a.TimeRequired,
				string(payload),
				a.QualityScore,
				a.GenerationMethod,
				a.SourceProvider,
				a.SourceEpisode,
				a.SourceURL,
				a.ProcessedAt.UTC().Format(time.RFC3339Nano),
			).
			RunWith(s.db).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("save artifact %s: %w", a.ID, err)
		}
	}
	return nil
}

// Count returns the number of stored artifacts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := sq.Select("COUNT(1)").
		From("artifacts").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return count, nil
}

// CountByContentType groups stored artifacts by their content-category tag.
func (s *Store) CountByContentType(ctx context.Context) (map[string]int, error) {
	rows, err := sq.Select("content_type", "COUNT(1)").
		From("artifacts").
		GroupBy("content_type").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("group artifacts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var contentType string
		var count int
		if err := rows.Scan(&contentType, &count); err != nil {
			return nil, err
		}
		counts[contentType] = count
	}
	return counts, rows.Err()
}
