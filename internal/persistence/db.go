// Package persistence provides SQLite-backed snapshot storage. A snapshot is
// written as one header row plus one compressed payload row per entity
// component, all inside a single transaction.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for snapshot persistence.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path. Use ":memory:"
// for an ephemeral store in tests.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		time_scale REAL NOT NULL,
		paused INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_components (
		snapshot_id TEXT NOT NULL,
		entity INTEGER NOT NULL,
		component TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (snapshot_id, entity, component)
	);

	CREATE TABLE IF NOT EXISTS snapshot_totals (
		snapshot_id TEXT NOT NULL,
		resource TEXT NOT NULL,
		amount INTEGER NOT NULL,
		PRIMARY KEY (snapshot_id, resource)
	);

	CREATE INDEX IF NOT EXISTS idx_components_snapshot ON snapshot_components(snapshot_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot writes a snapshot. A missing id or timestamp is filled in.
func (db *DB) SaveSnapshot(s *Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.Version = Version

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, version, tick, seed, time_scale, paused, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Version, s.Tick, s.Seed, s.TimeScale, s.Paused, s.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, rec := range s.Entities {
		for name, payload := range rec.Components {
			blob := db.enc.EncodeAll(payload, nil)
			_, err = tx.Exec(
				`INSERT INTO snapshot_components (snapshot_id, entity, component, payload)
				 VALUES (?, ?, ?, ?)`,
				s.ID, rec.Entity, name, blob)
			if err != nil {
				return fmt.Errorf("insert component %s: %w", name, err)
			}
		}
	}

	for resource, amount := range s.Totals {
		_, err = tx.Exec(
			`INSERT INTO snapshot_totals (snapshot_id, resource, amount) VALUES (?, ?, ?)`,
			s.ID, resource, amount)
		if err != nil {
			return fmt.Errorf("insert totals: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("snapshot saved", "id", s.ID, "tick", s.Tick, "entities", len(s.Entities))
	return nil
}

// LoadLatest returns the most recent snapshot, or (nil, nil) when the store
// is empty. A snapshot newer than the supported format version fails with
// ErrUnsupportedVersion and nothing is loaded.
func (db *DB) LoadLatest() (*Snapshot, error) {
	var header struct {
		ID        string  `db:"id"`
		Version   int     `db:"version"`
		Tick      uint64  `db:"tick"`
		Seed      int64   `db:"seed"`
		TimeScale float64 `db:"time_scale"`
		Paused    bool    `db:"paused"`
		CreatedAt string  `db:"created_at"`
	}
	err := db.conn.Get(&header,
		`SELECT id, version, tick, seed, time_scale, paused, created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot header: %w", err)
	}
	if header.Version > Version {
		return nil, fmt.Errorf("%w: found %d, supported %d",
			ErrUnsupportedVersion, header.Version, Version)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, header.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot timestamp: %w", err)
	}

	s := &Snapshot{
		ID:        header.ID,
		Version:   header.Version,
		Tick:      header.Tick,
		Seed:      header.Seed,
		TimeScale: header.TimeScale,
		Paused:    header.Paused,
		CreatedAt: createdAt,
		Totals:    make(map[string]int),
	}

	rows, err := db.conn.Queryx(
		`SELECT entity, component, payload FROM snapshot_components
		 WHERE snapshot_id = ? ORDER BY entity`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}
	defer rows.Close()

	byEntity := make(map[uint64]*EntityRecord)
	var order []uint64
	for rows.Next() {
		var (
			entity    uint64
			component string
			blob      []byte
		)
		if err := rows.Scan(&entity, &component, &blob); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		payload, err := db.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress component %s: %w", component, err)
		}
		rec, ok := byEntity[entity]
		if !ok {
			rec = &EntityRecord{Entity: entity, Components: make(map[string]json.RawMessage)}
			byEntity[entity] = rec
			order = append(order, entity)
		}
		rec.Components[component] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range order {
		s.Entities = append(s.Entities, *byEntity[e])
	}

	totals, err := db.conn.Queryx(
		`SELECT resource, amount FROM snapshot_totals WHERE snapshot_id = ?`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}
	defer totals.Close()
	for totals.Next() {
		var (
			resource string
			amount   int
		)
		if err := totals.Scan(&resource, &amount); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		s.Totals[resource] = amount
	}
	return s, totals.Err()
}

// HasSnapshot reports whether any snapshot has been saved.
func (db *DB) HasSnapshot() (bool, error) {
	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM snapshots`); err != nil {
		return false, err
	}
	return n > 0, nil
}
