package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"screener-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// WriterConfig configures the SQLite signal journal.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Writer journals confirmed signals to SQLite, one transaction per scan.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id     TEXT    NOT NULL,
			symbol      TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			signal_date INTEGER NOT NULL,
			detail      TEXT    NOT NULL,
			created_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_signals_symbol_date ON signals (symbol, signal_date);
		CREATE INDEX IF NOT EXISTS idx_signals_scan ON signals (scan_id);

		CREATE TABLE IF NOT EXISTS scans (
			scan_id      TEXT    PRIMARY KEY,
			as_of        INTEGER NOT NULL,
			symbols      INTEGER NOT NULL,
			signals      INTEGER NOT NULL,
			completed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`)
	return err
}

// SaveScan journals one scan's confirmed signals and its summary row in a
// single transaction, so a scan is either fully recorded or not at all.
func (w *Writer) SaveScan(scanID string, asOf time.Time, results map[string][]model.Signal) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO signals (scan_id, symbol, kind, signal_date, detail)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	total := 0
	for symbol, signals := range results {
		for _, s := range signals {
			if _, err := stmt.Exec(scanID, symbol, string(s.Kind), s.Date.Unix(), string(s.JSON())); err != nil {
				tx.Rollback()
				return err
			}
			total++
		}
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO scans (scan_id, as_of, symbols, signals) VALUES (?, ?, ?, ?)`,
		scanID, asOf.Unix(), len(results), total,
	)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[sqlite] journaled %d signals for scan %s", total, scanID)
	return nil
}

// SignalRow is a journaled signal as read back from SQLite.
type SignalRow struct {
	Symbol    string
	Kind      model.SignalKind
	Date      time.Time
	Detail    string
	CreatedAt time.Time
}

// RecentSignals returns the most recent journaled signals for a symbol,
// newest first. limit <= 0 defaults to 20.
func (w *Writer) RecentSignals(symbol string, limit int) ([]SignalRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := w.db.Query(`
		SELECT symbol, kind, signal_date, detail, created_at
		FROM signals WHERE symbol = ?
		ORDER BY signal_date DESC, id DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRow
	for rows.Next() {
		var r SignalRow
		var dateUnix, createdUnix int64
		var kind string
		if err := rows.Scan(&r.Symbol, &kind, &dateUnix, &r.Detail, &createdUnix); err != nil {
			return nil, err
		}
		r.Kind = model.SignalKind(kind)
		r.Date = time.Unix(dateUnix, 0).UTC()
		r.CreatedAt = time.Unix(createdUnix, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
