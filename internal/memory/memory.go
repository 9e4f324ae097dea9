// Package memory persists sessions, per-stage interaction logs, human
// feedback, and learning examples in SQLite. Every pipeline stage writes
// its output here before the next stage runs, so a crash or a human halt
// always leaves an inspectable trail.
package memory

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	meta_info   TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS hitl_feedback (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	interaction_id  INTEGER NOT NULL,
	feedback_type   TEXT NOT NULL,
	original_value  TEXT,
	corrected_value TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (interaction_id) REFERENCES interactions(id)
);

CREATE TABLE IF NOT EXISTS learning_examples (
	example_id  TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	problem     TEXT NOT NULL,
	answer      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region types

// Interaction is one logged pipeline step.
type Interaction struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	Meta      map[string]any
	CreatedAt time.Time
}

// LearningExample is a solved (or corrected) problem recorded for reuse.
type LearningExample struct {
	ExampleID string
	SessionID string
	Problem   string
	Answer    string
	Outcome   string // "success", "human_corrected", "failure"
	Detail    string
	CreatedAt time.Time
}

// #endregion

// #region store

// Store manages the session log in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region sessions

// CreateSession registers a session ID. Re-creating is a no-op.
func (s *Store) CreateSession(sessionID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, now, now,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// touchSession bumps updated_at inside an existing transaction.
func touchSession(tx *sql.Tx, sessionID string) error {
	_, err := tx.Exec(
		`UPDATE sessions SET updated_at = ? WHERE session_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	return err
}

// #endregion sessions

// #region interactions

// LogInteraction appends one pipeline step and returns its row ID.
func (s *Store) LogInteraction(sessionID, role, content string, meta map[string]any) (int64, error) {
	var metaPtr interface{}
	if len(meta) > 0 {
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return 0, fmt.Errorf("marshal meta: %w", err)
		}
		metaPtr = string(metaJSON)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO interactions (session_id, role, content, meta_info, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, metaPtr, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := touchSession(tx, sessionID); err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// History returns a session's interactions in insertion order.
func (s *Store) History(sessionID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, meta_info, created_at
		 FROM interactions WHERE session_id = ? ORDER BY id ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var metaJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Role, &it.Content, &metaJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &it.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal meta: %w", err)
			}
		}
		it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, it)
	}
	return out, rows.Err()
}

// #endregion interactions

// #region feedback

// LogFeedback records a human correction against an interaction.
func (s *Store) LogFeedback(interactionID int64, feedbackType, original, corrected string) error {
	_, err := s.db.Exec(
		`INSERT INTO hitl_feedback (interaction_id, feedback_type, original_value, corrected_value, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		interactionID, feedbackType, nullIfEmpty(original), nullIfEmpty(corrected),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log feedback: %w", err)
	}
	return nil
}

// #endregion feedback

// #region learning

// RecordLearningExample stores a confirmed outcome. The example ID is
// derived from the session so re-recording overwrites rather than piles up.
func (s *Store) RecordLearningExample(ex LearningExample) error {
	if ex.ExampleID == "" {
		ex.ExampleID = LearningExampleID(ex.SessionID)
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO learning_examples (example_id, session_id, problem, answer, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(example_id) DO UPDATE SET
		   answer = excluded.answer, outcome = excluded.outcome, detail = excluded.detail`,
		ex.ExampleID, ex.SessionID, ex.Problem, ex.Answer, ex.Outcome,
		nullIfEmpty(ex.Detail), ex.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record learning example: %w", err)
	}
	return nil
}

// ListLearningExamples returns the most recent recorded outcomes.
func (s *Store) ListLearningExamples(limit int) ([]LearningExample, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT example_id, session_id, problem, answer, outcome, detail, created_at
		 FROM learning_examples ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list learning examples: %w", err)
	}
	defer rows.Close()

	var out []LearningExample
	for rows.Next() {
		var ex LearningExample
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&ex.ExampleID, &ex.SessionID, &ex.Problem, &ex.Answer, &ex.Outcome, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if detail.Valid {
			ex.Detail = detail.String
		}
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// LearningExampleID derives the stable example ID for a session.
func LearningExampleID(sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "learn_" + short
}

// #endregion learning

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
