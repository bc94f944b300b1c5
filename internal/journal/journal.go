// Package journal persists every emitted trade and risk decision to
// Postgres, giving replay-determinism something to diff: two replay
// runs over the same bar feed must append identical journal rows.
// INSERT...RETURNING plus JSONB-encoded attribute columns and a
// pq.Error 23505 duplicate-key check give idempotent re-insertion
// during replay.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/risk"
)

// Entry is one journaled trade decision: the accepted Trade plus the
// full ordered gate trail that produced it, keyed by the trade's own
// UUID for idempotent re-insertion on replay.
type Entry struct {
	ID        int64
	Trade     domain.Trade
	Checks    []risk.CheckResult
	CreatedAt time.Time
}

// Journal appends Entry rows and supports fetching everything recorded
// for a symbol so a second replay run's output can be diffed against
// the first.
type Journal struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New wraps an already-opened sqlx.DB (postgres driver) with the
// per-call timeout applied to every query.
func New(db *sqlx.DB, timeout time.Duration) *Journal {
	return &Journal{db: db, timeout: timeout}
}

// Open dials postgres via lib/pq and wraps it in sqlx.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect journal database: %w", err)
	}
	return db, nil
}

// Append inserts one journaled decision, returning the row id assigned
// by RETURNING. A duplicate trade id (re-submission during replay) is
// reported as a distinguishable error rather than a generic DB failure.
func (j *Journal) Append(ctx context.Context, trade domain.Trade, checks []risk.CheckResult) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	checksJSON, err := json.Marshal(checks)
	if err != nil {
		return 0, fmt.Errorf("marshal checks: %w", err)
	}
	metaJSON, err := json.Marshal(trade.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal trade metadata: %w", err)
	}

	const query = `
		INSERT INTO trade_journal
		(trade_id, symbol, timeframe, ts, action, entry, sl, tp, score,
			confidence_modifier, volume, metadata, checks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	var id int64
	err = j.db.QueryRowxContext(ctx, query,
		trade.ID, trade.Symbol, string(trade.Timeframe), trade.Timestamp, string(trade.Action),
		trade.Entry, trade.SL, trade.TP, trade.Score,
		trade.ConfidenceModifier, trade.Volume, metaJSON, checksJSON).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, fmt.Errorf("duplicate trade journal entry for id %s: %w", trade.ID, err)
		}
		return 0, fmt.Errorf("insert trade journal entry: %w", err)
	}
	return id, nil
}

// AppendBatch journals multiple trades atomically in one transaction.
func (j *Journal) AppendBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout*time.Duration(len(entries)/100+1))
	defer cancel()

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_journal
		(trade_id, symbol, timeframe, ts, action, entry, sl, tp, score,
			confidence_modifier, volume, metadata, checks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		checksJSON, err := json.Marshal(e.Checks)
		if err != nil {
			return fmt.Errorf("marshal checks for trade %s: %w", e.Trade.ID, err)
		}
		metaJSON, err := json.Marshal(e.Trade.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for trade %s: %w", e.Trade.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			e.Trade.ID, e.Trade.Symbol, string(e.Trade.Timeframe), e.Trade.Timestamp, string(e.Trade.Action),
			e.Trade.Entry, e.Trade.SL, e.Trade.TP, e.Trade.Score,
			e.Trade.ConfidenceModifier, e.Trade.Volume, metaJSON, checksJSON); err != nil {
			return fmt.Errorf("insert trade %s in batch: %w", e.Trade.ID, err)
		}
	}

	return tx.Commit()
}

// ListBySymbol returns journaled entries for a symbol in chronological
// order, the shape a replay-determinism comparison iterates over.
func (j *Journal) ListBySymbol(ctx context.Context, symbol string, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	const query = `
		SELECT id, trade_id, symbol, timeframe, ts, action, entry, sl, tp, score,
		confidence_modifier, volume, metadata, checks, created_at
		FROM trade_journal
		WHERE symbol = $1
		ORDER BY ts ASC
		LIMIT $2`

	rows, err := j.db.QueryxContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal by symbol: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountBySymbol reports how many decisions have been journaled for a
// symbol.
func (j *Journal) CountBySymbol(ctx context.Context, symbol string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var count int64
	err := j.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM trade_journal WHERE symbol = $1`, symbol)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return count, nil
}

func scanEntry(rows *sqlx.Rows) (Entry, error) {
	var e Entry
	var tf, action string
	var metaJSON, checksJSON []byte

	err := rows.Scan(&e.ID, &e.Trade.ID, &e.Trade.Symbol, &tf, &e.Trade.Timestamp, &action,
		&e.Trade.Entry, &e.Trade.SL, &e.Trade.TP, &e.Trade.Score,
		&e.Trade.ConfidenceModifier, &e.Trade.Volume, &metaJSON, &checksJSON, &e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("scan journal row: %w", err)
	}
	e.Trade.Timeframe = domain.Timeframe(tf)
	e.Trade.Action = domain.Action(action)

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &e.Trade.Metadata); err != nil {
			return Entry{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(checksJSON) > 0 {
		if err := json.Unmarshal(checksJSON, &e.Checks); err != nil {
			return Entry{}, fmt.Errorf("unmarshal checks: %w", err)
		}
	}
	return e, nil
}
