// Package store's snapshot mirroring supports warm restarts: a
// restarted engine reloads recent bars from Redis instead of
// cold-starting the GARCH/Hurst lookback window, using JSON-encoded
// cache entries under a keyPrefix with a TTL-based Set and
// context-scoped calls.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Matswm86/Core/internal/domain"
)

// SnapshotMirror periodically persists a Registry's bar rings to Redis
// and can repopulate a fresh Registry from the last persisted state on
// startup, avoiding a cold analyzer lookback window after a restart.
type SnapshotMirror struct {
	client *redis.Client
	keyPrefix string
	ttl time.Duration
}

// NewSnapshotMirror wraps an already-dialed redis.Client. keyPrefix
// namespaces keys (e.g. "tradecore:bars:"); ttl bounds how long a
// mirrored ring survives without being refreshed.
func NewSnapshotMirror(client *redis.Client, keyPrefix string, ttl time.Duration) *SnapshotMirror {
	return &SnapshotMirror{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Dial constructs a redis.Client from addr/password/db with the pool
// tuning below.
func Dial(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
			Addr: addr,
			Password: password,
			DB: db,
			PoolSize: 10,
			MinIdleConns: 2,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
}

func (m *SnapshotMirror) key(symbol string, tf domain.Timeframe) string {
	return fmt.Sprintf("%s%s:%s", m.keyPrefix, symbol, tf)
}

// Save writes the slot's current bar ring to Redis as a JSON array,
// oldest first, matching BarRing.Snapshot()'s chronological ordering.
func (m *SnapshotMirror) Save(ctx context.Context, slot *Slot) error {
	bars := slot.Bars.Snapshot()
	payload, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("marshal bar snapshot for %s/%s: %w", slot.Symbol, slot.Timeframe, err)
	}
	if err := m.client.Set(ctx, m.key(slot.Symbol, slot.Timeframe), payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("write bar snapshot for %s/%s: %w", slot.Symbol, slot.Timeframe, err)
	}
	return nil
}

// SaveAll mirrors every known symbol's slots for the given timeframes,
// intended to run on a background timer (e.g. once per completed bar).
func (m *SnapshotMirror) SaveAll(ctx context.Context, reg *Registry, timeframes []domain.Timeframe) error {
	for _, symbol := range reg.Symbols() {
		for _, tf := range timeframes {
			if err := m.Save(ctx, reg.Slot(symbol, tf)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Restore replays a previously mirrored bar ring into a freshly created
// slot's ring so the analyzer lookback window (default 500) is warm
// immediately after process start. A cache miss is not an error; the
// slot simply starts cold, matching normal first-observation behavior.
func (m *SnapshotMirror) Restore(ctx context.Context, reg *Registry, symbol string, tf domain.Timeframe) (int, error) {
	raw, err := m.client.Get(ctx, m.key(symbol, tf)).Bytes()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read bar snapshot for %s/%s: %w", symbol, tf, err)
	}

	var bars []domain.Bar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return 0, fmt.Errorf("unmarshal bar snapshot for %s/%s: %w", symbol, tf, err)
	}

	slot := reg.Slot(symbol, tf)
	restored := 0
	for _, b := range bars {
		if res := slot.Bars.Push(b); res.Accepted {
			restored++
		}
	}
	return restored, nil
}

// Close releases the underlying Redis connection pool.
func (m *SnapshotMirror) Close() error {
	return m.client.Close()
}
