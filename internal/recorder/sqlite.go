package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists served results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
	// now is replaceable in tests.
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS return_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			chat_id    INTEGER,
			start_date TEXT,
			end_date   TEXT,
			normalize  INTEGER,
			ranked     INTEGER,
			omitted    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_return_runs_ts ON return_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS return_entries (
			run_id  INTEGER NOT NULL REFERENCES return_runs(id),
			rank    INTEGER NOT NULL,
			symbol  TEXT NOT NULL,
			ret_pct REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_return_entries_run ON return_entries(run_id)`,

		`CREATE TABLE IF NOT EXISTS plot_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			chat_id    INTEGER,
			symbols    TEXT,
			start_date TEXT,
			end_date   TEXT,
			normalize  INTEGER,
			omitted    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plot_runs_ts ON plot_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS command_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			chat_id   INTEGER,
			command   TEXT,
			outcome   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_command_log_ts ON command_log(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordReturns(run *ReturnRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO return_runs
		(timestamp, chat_id, start_date, end_date, normalize, ranked, omitted)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), run.ChatID, run.Start.Format(dateLayout), run.End.Format(dateLayout),
		run.Normalize, run.Table.Len(), strings.Join(run.Omitted, ","),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO return_entries (run_id, rank, symbol, ret_pct) VALUES (?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, e := range run.Table.Entries() {
		if _, err := stmt.Exec(id, i+1, e.Symbol, e.Return); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordPlot(run *PlotRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO plot_runs
		(timestamp, chat_id, symbols, start_date, end_date, normalize, omitted)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), run.ChatID, strings.Join(run.Symbols, ","),
		run.Start.Format(dateLayout), run.End.Format(dateLayout), run.Normalize,
		strings.Join(run.Omitted, ","),
	)
	return err
}

func (r *SQLiteRecorder) RecordCommand(evt *CommandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO command_log (timestamp, chat_id, command, outcome) VALUES (?,?,?,?)`,
		r.now().Unix(), evt.ChatID, evt.Command, evt.Outcome,
	)
	return err
}

// History lists the most recent return runs, newest first, each with its
// best-ranked symbol.
func (r *SQLiteRecorder) History(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT rr.id, rr.timestamp, rr.chat_id, rr.start_date, rr.end_date, rr.ranked, rr.omitted,
			COALESCE((SELECT symbol FROM return_entries WHERE run_id = rr.id ORDER BY rank DESC LIMIT 1), ''),
			COALESCE((SELECT ret_pct FROM return_entries WHERE run_id = rr.id ORDER BY rank DESC LIMIT 1), 0)
		FROM return_runs rr ORDER BY rr.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.ChatID, &s.Start, &s.End, &s.Ranked, &s.Omitted, &s.Best, &s.BestRet); err != nil {
			return nil, err
		}
		s.Timestamp = time.Unix(ts, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Prune(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ts := cutoff.Unix()
	if _, err := tx.Exec(`DELETE FROM return_entries WHERE run_id IN (SELECT id FROM return_runs WHERE timestamp < ?)`, ts); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM return_runs WHERE timestamp < ?`, ts)
	if err != nil {
		return 0, err
	}
	runs, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	res, err = tx.Exec(`DELETE FROM plot_runs WHERE timestamp < ?`, ts)
	if err != nil {
		return 0, err
	}
	plots, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM command_log WHERE timestamp < ?`, ts); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runs + plots, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

var _ Recorder = (*SQLiteRecorder)(nil)
var _ Recorder = (*NoopRecorder)(nil)

