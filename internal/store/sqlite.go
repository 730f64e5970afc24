package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
)

// SQLiteBackend keeps leaderboards in a local file, one row per kind
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database and runs migrations
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps INSERT OR REPLACE atomic without busy retries
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS leaderboards (
		kind        TEXT PRIMARY KEY,
		entries     TEXT NOT NULL,
		valid_until INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`)
	return err
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Get(ctx context.Context, kind contracts.Kind) (*leaderboard.Record, error) {
	var entries string
	var validUntil int64
	err := b.db.QueryRowContext(ctx,
		`SELECT entries, valid_until FROM leaderboards WHERE kind = ?`, string(kind),
	).Scan(&entries, &validUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	doc := document{Kind: string(kind), ValidUntil: time.Unix(0, validUntil).UTC()}
	if err := json.Unmarshal([]byte(entries), &doc.Entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return fromDocument(doc)
}

func (b *SQLiteBackend) Put(ctx context.Context, rec *leaderboard.Record) error {
	doc := toDocument(rec)
	entries, err := json.Marshal(doc.Entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO leaderboards (kind, entries, valid_until, updated_at) VALUES (?, ?, ?, ?)`,
		doc.Kind, string(entries), doc.ValidUntil.UnixNano(), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, kind contracts.Kind) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM leaderboards WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("delete leaderboard: %w", err)
	}
	return nil
}
