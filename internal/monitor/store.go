package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    work_item_id TEXT NOT NULL,
    path TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    artifact_count INTEGER NOT NULL,
    quality_scores TEXT NOT NULL,
    avg_quality REAL NOT NULL,
    error_occurred INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_path ON sessions(path);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
`

// Store persists session records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the sessions database.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sessions db: %w", err)
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
	if _, err := db.Exec(sessionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sessions schema: %w", err)
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

// Insert appends one session record.
func (s *Store) Insert(ctx context.Context, session Session) error {
	scores, err := json.Marshal(session.QualityScores)
	if err != nil {
		return fmt.Errorf("marshal quality scores: %w", err)
	}

	_, err = sq.Insert("sessions").
		Columns("id", "work_item_id", "path", "duration_ms", "artifact_count",
			"quality_scores", "avg_quality", "error_occurred", "created_at").
		Values(
			session.ID,
			session.WorkItemID,
			string(session.Path),
			session.Duration.Milliseconds(),
			session.ArtifactCount,
			string(scores),
			session.AvgQuality,
			boolToInt(session.ErrorOccurred),
			session.CreatedAt.UTC().Format(time.RFC3339Nano),
		).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// PathStats aggregates the sessions recorded for one or more paths.
type PathStats struct {
	Count        int
	MeanQuality  float64
	MeanDuration time.Duration
	ErrorRate    float64
}

// StatsForPaths aggregates count, mean quality, mean duration, and error
// rate (percent) across the supplied paths.
func (s *Store) StatsForPaths(ctx context.Context, paths ...Path) (PathStats, error) {
	var stats PathStats
	if len(paths) == 0 {
		return stats, nil
	}
	values := make([]string, len(paths))
	for i, path := range paths {
		values[i] = string(path)
	}

	row := sq.Select(
		"COUNT(1)",
		"COALESCE(AVG(avg_quality), 0)",
		"COALESCE(AVG(duration_ms), 0)",
		"COALESCE(AVG(error_occurred), 0) * 100",
	).
		From("sessions").
		Where(sq.Eq{"path": values}).
		RunWith(s.db).
		QueryRowContext(ctx)

	var meanDurationMS float64
	if err := row.Scan(&stats.Count, &stats.MeanQuality, &meanDurationMS, &stats.ErrorRate); err != nil {
		return stats, fmt.Errorf("aggregate sessions: %w", err)
	}
	stats.MeanDuration = time.Duration(meanDurationMS * float64(time.Millisecond))
	return stats, nil
}

// Recent returns the newest sessions across all paths, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Session, error) {
	query := sq.Select("id", "work_item_id", "path", "duration_ms", "artifact_count",
		"quality_scores", "avg_quality", "error_occurred", "created_at").
		From("sessions").
		OrderBy("created_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Prune deletes sessions created before the cutoff and returns the number
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := sq.Delete("sessions").
		Where(sq.Lt{"created_at": cutoff.UTC().Format(time.RFC3339Nano)}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (Session, error) {
	var (
		session    Session
		pathStr    string
		durationMS int64
		scoresRaw  string
		errorFlag  int
		createdRaw string
	)
	if err := scanner.Scan(
		&session.ID,
		&session.WorkItemID,
		&pathStr,
		&durationMS,
		&session.ArtifactCount,
		&scoresRaw,
		&session.AvgQuality,
		&errorFlag,
		&createdRaw,
	); err != nil {
		return session, fmt.Errorf("scan session: %w", err)
	}

	session.Path = Path(pathStr)
	session.Duration = time.Duration(durationMS) * time.Millisecond
	session.ErrorOccurred = errorFlag != 0
	if err := json.Unmarshal([]byte(scoresRaw), &session.QualityScores); err != nil {
		return session, fmt.Errorf("unmarshal quality scores: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	return session, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
