package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// SearchOptions holds filters for history queries.
type SearchOptions struct {
	Project string `json:"project,omitempty"`
	Event   string `json:"event,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Stats holds aggregate history statistics.
type Stats struct {
	TotalEvents    int      `json:"total_events"`
	Corrections    int      `json:"corrections"`
	BatchDecisions int      `json:"batch_decisions"`
	TitlesAccepted int      `json:"titles_accepted"`
	Projects       []string `json:"projects"`
}

// MaxSearchResults caps a single query.
const MaxSearchResults = 50

// ─── Index ───────────────────────────────────────────────────────────────────

// Index mirrors history records into SQLite with an FTS5 table over the
// title and project columns.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return idx, nil
}

// Close closes the underlying database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			seq               INTEGER PRIMARY KEY AUTOINCREMENT,
			id                TEXT    NOT NULL UNIQUE,
			ts                TEXT    NOT NULL,
			event             TEXT    NOT NULL,
			task_id           TEXT,
			original_title    TEXT    NOT NULL,
			suggested_title   TEXT,
			final_title       TEXT    NOT NULL,
			suggested_project TEXT,
			final_project     TEXT,
			title_accepted    INTEGER,
			project_accepted  INTEGER,
			source            TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_events_ts      ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_project ON events(final_project);
		CREATE INDEX IF NOT EXISTS idx_events_event   ON events(event);

		CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
			original_title,
			final_title,
			final_project,
			content='events',
			content_rowid='seq'
		);
	`
	if _, err := x.db.Exec(schema); err != nil {
		return err
	}

	var name string
	err := x.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='events_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		if _, err := x.db.Exec(`
			CREATE TRIGGER events_fts_insert AFTER INSERT ON events BEGIN
				INSERT INTO events_fts(rowid, original_title, final_title, final_project)
				VALUES (new.seq, new.original_title, new.final_title, new.final_project);
			END;
		`); err != nil {
			return err
		}
		return nil
	}
	return err
}

// Append inserts rec. Replaying a record with the same ID is a no-op.
func (x *Index) Append(rec Record) error {
	rec = stamp(rec)
	_, err := x.db.Exec(
		`INSERT OR IGNORE INTO events
			(id, ts, event, task_id, original_title, suggested_title, final_title,
			 suggested_project, final_project, title_accepted, project_accepted, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Event,
		nullableString(rec.TaskID), rec.OriginalTitle, rec.SuggestedTitle, rec.FinalTitle,
		rec.SuggestedProject, rec.FinalProject, rec.TitleAccepted, rec.ProjectAccepted,
		nullableString(rec.Source),
	)
	if err != nil {
		return fmt.Errorf("history: insert event: %w", err)
	}
	return nil
}

const selectColumns = `e.id, e.ts, e.event, e.task_id, e.original_title, e.suggested_title, e.final_title,
	e.suggested_project, e.final_project, e.title_accepted, e.project_accepted, e.source`

// Search runs a full-text query over titles and projects. An empty query
// returns the most recent records.
func (x *Index) Search(query string, opts SearchOptions) ([]Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	var (
		sqlStr string
		args   []any
	)
	if ftsQuery := sanitizeFTS(query); ftsQuery != "" {
		sqlStr = `SELECT ` + selectColumns + `
			FROM events_fts fts
			JOIN events e ON e.seq = fts.rowid
			WHERE events_fts MATCH ?`
		args = append(args, ftsQuery)
	} else {
		sqlStr = `SELECT ` + selectColumns + ` FROM events e WHERE 1 = 1`
	}

	if opts.Project != "" {
		sqlStr += " AND e.final_project = ?"
		args = append(args, opts.Project)
	}
	if opts.Event != "" {
		sqlStr += " AND e.event = ?"
		args = append(args, opts.Event)
	}
	sqlStr += " ORDER BY e.ts DESC, e.seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := x.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Record
	for rows.Next() {
		var (
			r              Record
			ts             string
			taskID, source *string
		)
		if err := rows.Scan(
			&r.ID, &ts, &r.Event, &taskID, &r.OriginalTitle, &r.SuggestedTitle, &r.FinalTitle,
			&r.SuggestedProject, &r.FinalProject, &r.TitleAccepted, &r.ProjectAccepted, &source,
		); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		r.TaskID = derefString(taskID)
		r.Source = derefString(source)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats returns aggregate counts over the whole index.
func (x *Index) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = x.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents)
	_ = x.db.QueryRow("SELECT COUNT(*) FROM events WHERE event = ?", EventCorrection).Scan(&stats.Corrections)
	_ = x.db.QueryRow("SELECT COUNT(*) FROM events WHERE event = ?", EventDecision).Scan(&stats.BatchDecisions)
	_ = x.db.QueryRow("SELECT COUNT(*) FROM events WHERE title_accepted = 1").Scan(&stats.TitlesAccepted)

	rows, err := x.db.Query(
		"SELECT final_project FROM events WHERE final_project IS NOT NULL AND final_project != '' GROUP BY final_project ORDER BY MAX(ts) DESC",
	)
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err == nil {
			stats.Projects = append(stats.Projects, p)
		}
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "login bug" → `"login" "bug"`
func sanitizeFTS(query string) string {
	var quoted []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}
