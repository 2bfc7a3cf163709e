// Package sqlite persists uploaded candle datasets so a user can reload a
// practice series without re-uploading the vendor file. Trade history is
// deliberately not persisted; each replay starts clean.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/ingest"
	"github.com/rising-stones13/chart-trade-trainer/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// StoreConfig configures the dataset store.
type StoreConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/datasets.db"
}

// Store is a single-writer SQLite dataset store.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens (or creates) the dataset database with WAL mode and schema.
func New(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened dataset store at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS datasets (
			name       TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			bars       INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS candles (
			dataset TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  INTEGER NOT NULL,
			PRIMARY KEY (dataset, ts)
		);

		CREATE INDEX IF NOT EXISTS idx_candles_dataset ON candles(dataset, ts);
	`)
	return err
}

// DatasetInfo describes one stored dataset.
type DatasetInfo struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Bars      int    `json:"bars"`
	CreatedAt string `json:"created_at"`
}

// Save stores a dataset under name, replacing any previous version, in a
// single transaction.
func (s *Store) Save(ctx context.Context, name string, ds ingest.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candles WHERE dataset = ?`, name); err != nil {
		return fmt.Errorf("sqlite clear candles: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, title, bars) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET title = excluded.title, bars = excluded.bars`,
		name, ds.Title, len(ds.Candles)); err != nil {
		return fmt.Errorf("sqlite upsert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candles (dataset, ts, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range ds.Candles {
		if _, err := stmt.ExecContext(ctx,
			name, c.Time.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("sqlite insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	log.Printf("[sqlite] saved dataset %q (%d bars)", name, len(ds.Candles))
	return nil
}

// List returns stored datasets, newest first.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, title, bars, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list datasets: %w", err)
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		var d DatasetInfo
		if err := rows.Scan(&d.Name, &d.Title, &d.Bars, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan dataset: %w", err)
		}
		infos = append(infos, d)
	}
	return infos, rows.Err()
}

// Load reads a stored dataset. Candles come back ordered ascending, ready
// for LoadData.
func (s *Store) Load(ctx context.Context, name string) (ingest.Dataset, error) {
	var ds ingest.Dataset
	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM datasets WHERE name = ?`, name).Scan(&ds.Title)
	if err != nil {
		return ingest.Dataset{}, fmt.Errorf("sqlite dataset %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, open, high, low, close, volume FROM candles
		 WHERE dataset = ? ORDER BY ts ASC`, name)
	if err != nil {
		return ingest.Dataset{}, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		if err := rows.Scan(&tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return ingest.Dataset{}, fmt.Errorf("sqlite scan candle: %w", err)
		}
		c.Time = time.Unix(tsUnix, 0).UTC()
		ds.Candles = append(ds.Candles, c)
	}
	return ds, rows.Err()
}

// Close closes the dataset database.
func (s *Store) Close() error {
	return s.db.Close()
}
