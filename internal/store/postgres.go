package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/pkg/database"
)

const postgresSchema = `
	CREATE SCHEMA IF NOT EXISTS movers;

	CREATE TABLE IF NOT EXISTS movers.leaderboards (
		kind        TEXT PRIMARY KEY,
		valid_until TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS movers.leaderboard_entries (
		kind    TEXT NOT NULL REFERENCES movers.leaderboards(kind) ON DELETE CASCADE,
		symbol  TEXT NOT NULL,
		rank    INT  NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (kind, symbol)
	);
`

// PostgresBackend keeps one header row per kind and its ranked entries.
// Put rewrites both inside one transaction.
type PostgresBackend struct {
	db *database.DB
}

// DB exposes the pool for health checks
func (b *PostgresBackend) DB() *database.DB {
	return b.db
}

// NewPostgresBackend creates the backend and ensures its schema exists
func NewPostgresBackend(ctx context.Context, db *database.DB) (*PostgresBackend, error) {
	if _, err := db.Pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to migrate leaderboard schema: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

// Get reads the header and its entries from one snapshot, so a concurrent
// Put is seen entirely or not at all
func (b *PostgresBackend) Get(ctx context.Context, kind contracts.Kind) (*leaderboard.Record, error) {
	var doc *document

	err := b.db.WithReadTx(ctx, func(tx pgx.Tx) error {
		var validUntil time.Time
		err := tx.QueryRow(ctx,
			`SELECT valid_until FROM movers.leaderboards WHERE kind = $1`, string(kind),
		).Scan(&validUntil)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query leaderboard: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT payload FROM movers.leaderboard_entries WHERE kind = $1 ORDER BY rank`, string(kind),
		)
		if err != nil {
			return fmt.Errorf("failed to query entries: %w", err)
		}
		defer rows.Close()

		d := document{Kind: string(kind), ValidUntil: validUntil}
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				return fmt.Errorf("failed to scan entry: %w", err)
			}
			var e entryDocument
			if err := json.Unmarshal(payload, &e); err != nil {
				return fmt.Errorf("failed to decode entry: %w", err)
			}
			d.Entries = append(d.Entries, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate entries: %w", err)
		}

		doc = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	return fromDocument(*doc)
}

func (b *PostgresBackend) Put(ctx context.Context, rec *leaderboard.Record) error {
	doc := toDocument(rec)

	return b.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO movers.leaderboards (kind, valid_until, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (kind) DO UPDATE SET
				valid_until = EXCLUDED.valid_until,
				updated_at = NOW()
		`, doc.Kind, doc.ValidUntil)
		if err != nil {
			return fmt.Errorf("failed to upsert leaderboard: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM movers.leaderboard_entries WHERE kind = $1`, doc.Kind); err != nil {
			return fmt.Errorf("failed to delete old entries: %w", err)
		}

		batch := &pgx.Batch{}
		for i, e := range doc.Entries {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", e.Symbol, err)
			}
			batch.Queue(
				`INSERT INTO movers.leaderboard_entries (kind, symbol, rank, payload) VALUES ($1, $2, $3, $4)`,
				doc.Kind, e.Symbol, i+1, payload,
			)
		}
		if batch.Len() == 0 {
			return nil
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert entries: %w", err)
		}
		return nil
	})
}

func (b *PostgresBackend) Delete(ctx context.Context, kind contracts.Kind) error {
	if _, err := b.db.Pool.Exec(ctx, `DELETE FROM movers.leaderboards WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("failed to delete leaderboard: %w", err)
	}
	return nil
}
