package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mbecker/study/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sessionColumns = `id, topic, planned_minutes, actual_minutes, start_time, end_time,
	breaks, notes, self_rating, ai_summary, topic_relevance_score, focus_score,
	focus_feedback, completed, drift_detected, drift_details, drift_severity,
	overconfidence_detected, overconfidence_details, confidence_gap,
	revision_tasks, next_session_plan, created_at, updated_at`

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// marshalJSON encodes a value for a JSON text column, degrading to an
// empty array on error.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = newULID()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.StartTime = session.StartTime.UTC()
	session.EndTime = session.EndTime.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Topic, session.PlannedMinutes, session.ActualMinutes,
		session.StartTime, session.EndTime,
		marshalJSON(session.Breaks), marshalJSON(session.Notes), session.SelfRating,
		session.AISummary, session.TopicRelevanceScore, session.FocusScore,
		session.FocusFeedback, boolToInt(session.Completed),
		boolToInt(session.TopicDriftDetected), session.DriftDetails, string(session.DriftSeverity),
		boolToInt(session.OverconfidenceDetected), session.OverconfidenceDetails, session.ConfidenceGap,
		marshalJSON(session.RevisionTasks), session.NextSessionPlan,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var conditions []string
	var args []any

	if filter.Topic != "" {
		conditions = append(conditions, "topic = ?")
		args = append(args, filter.Topic)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.To.UTC())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET topic=?, planned_minutes=?, actual_minutes=?, start_time=?, end_time=?,
		breaks=?, notes=?, self_rating=?, ai_summary=?, topic_relevance_score=?, focus_score=?,
		focus_feedback=?, completed=?, drift_detected=?, drift_details=?, drift_severity=?,
		overconfidence_detected=?, overconfidence_details=?, confidence_gap=?,
		revision_tasks=?, next_session_plan=?, updated_at=?
		WHERE id=?`,
		session.Topic, session.PlannedMinutes, session.ActualMinutes,
		session.StartTime.UTC(), session.EndTime.UTC(),
		marshalJSON(session.Breaks), marshalJSON(session.Notes), session.SelfRating,
		session.AISummary, session.TopicRelevanceScore, session.FocusScore,
		session.FocusFeedback, boolToInt(session.Completed),
		boolToInt(session.TopicDriftDetected), session.DriftDetails, string(session.DriftSeverity),
		boolToInt(session.OverconfidenceDetected), session.OverconfidenceDetails, session.ConfidenceGap,
		marshalJSON(session.RevisionTasks), session.NextSessionPlan,
		session.UpdatedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountSessionsForTopic counts sessions on a topic that started before the
// given time. Feeds the planner's times-studied input.
func (s *SQLiteStore) CountSessionsForTopic(ctx context.Context, topic string, before time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE topic = ? AND start_time < ?",
		topic, before.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions for topic: %w", err)
	}
	return count, nil
}

// ActiveDays counts distinct days with at least one session in [from, to).
// Feeds the focus scorer's consistency input.
func (s *SQLiteStore) ActiveDays(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT substr(start_time, 1, 10)) FROM sessions
		WHERE start_time >= ? AND start_time < ?`,
		from.UTC(), to.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active days: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	session := &models.Session{}
	var breaksJSON, notesJSON, tasksJSON, severity string
	var selfRating sql.NullInt64
	var completed, driftDetected, overconfDetected int

	err := row.Scan(&session.ID, &session.Topic, &session.PlannedMinutes, &session.ActualMinutes,
		&session.StartTime, &session.EndTime,
		&breaksJSON, &notesJSON, &selfRating,
		&session.AISummary, &session.TopicRelevanceScore, &session.FocusScore,
		&session.FocusFeedback, &completed,
		&driftDetected, &session.DriftDetails, &severity,
		&overconfDetected, &session.OverconfidenceDetails, &session.ConfidenceGap,
		&tasksJSON, &session.NextSessionPlan,
		&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal([]byte(breaksJSON), &session.Breaks)
	_ = json.Unmarshal([]byte(notesJSON), &session.Notes)
	_ = json.Unmarshal([]byte(tasksJSON), &session.RevisionTasks)
	if selfRating.Valid {
		rating := int(selfRating.Int64)
		session.SelfRating = &rating
	}
	session.DriftSeverity = models.Severity(severity)
	session.Completed = completed != 0
	session.TopicDriftDetected = driftDetected != 0
	session.OverconfidenceDetected = overconfDetected != 0

	return session, nil
}
