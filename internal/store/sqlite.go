package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"promosweep/internal/model"
)

// SQLiteStore is the decision journal: an append-only log of what the
// operator decided for each sender. It holds no message content.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases alive and matches the single
	// writer of a triage run.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	sender     TEXT NOT NULL,
	decision   TEXT NOT NULL,
	trashed    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS decisions_created_at ON decisions (created_at);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type decisionRow struct {
	ID        string `db:"id"`
	Sender    string `db:"sender"`
	Decision  string `db:"decision"`
	Trashed   int    `db:"trashed"`
	CreatedAt string `db:"created_at"`
}

func (s *SQLiteStore) RecordDecision(ctx context.Context, e model.JournalEntry) error {
	row := decisionRow{
		ID:        e.ID,
		Sender:    e.Sender,
		Decision:  e.Decision.String(),
		Trashed:   e.Trashed,
		CreatedAt: e.CreatedAt.UTC().Format(timeLayout),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO decisions (id, sender, decision, trashed, created_at)
		VALUES (:id, :sender, :decision, :trashed, :created_at)
	`, row)
	if err != nil {
		return fmt.Errorf("record decision for %s: %w", e.Sender, err)
	}
	return nil
}

// Decisions returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Decisions(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	query := "SELECT id, sender, decision, trashed, created_at FROM decisions ORDER BY created_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []decisionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}

	out := make([]model.JournalEntry, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(timeLayout, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse decision time %q: %w", r.CreatedAt, err)
		}
		out = append(out, model.JournalEntry{
			ID:        r.ID,
			Sender:    r.Sender,
			Decision:  model.ParseDecisionName(r.Decision),
			Trashed:   r.Trashed,
			CreatedAt: ts,
		})
	}
	return out, nil
}

func (s *SQLiteStore) CountDecisions(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM decisions")
	return count, err
}
