package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tallridge/backroom/internal/mutate"
	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/tree"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added record_count column and per-kind version index
// 2 - Added shape column distinguishing flat and tree payloads
const currentSchemaVersion = 2

// Snapshot payload shapes. Flat snapshots hold one record array; tree
// snapshots keep the category structure around the item records.
const (
	shapeFlat = "flat"
	shapeTree = "tree"
)

// Store provides durable snapshot storage for raw record collections.
// Uses SQLite with WAL mode for concurrent read access.
//
// The store is a collaborator, not the source of truth while the engine
// runs: the in-memory raw collection is authoritative, the store receives
// a full snapshot after each applied mutation and replays the latest one
// at startup.
type Store struct {
	db    *sql.DB
	clock mutate.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for snapshot timestamps.
// Tests pass a deterministic clock for stable golden output.
func WithClock(clock mutate.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, clock: mutate.SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot appends a new flat snapshot of one kind's raw collection.
// Versions are dense per kind: the new snapshot gets max(version)+1.
// Implements the session package's SnapshotSink.
func (s *Store) SaveSnapshot(ctx context.Context, kind string, records []record.Record) error {
	payload, err := marshalRecords(records)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", kind, err)
	}
	return s.save(ctx, kind, shapeFlat, len(records), payload)
}

// SaveTree appends a new snapshot of one kind's category tree, keeping
// the category structure around the item records. The snapshot's record
// count is the number of items across all branches.
func (s *Store) SaveTree(ctx context.Context, kind string, cats []tree.Category) error {
	payload, err := marshalTree(cats)
	if err != nil {
		return fmt.Errorf("marshal tree snapshot for %s: %w", kind, err)
	}
	return s.save(ctx, kind, shapeTree, len(tree.Items(cats)), payload)
}

// save inserts one snapshot row with the kind's next dense version.
func (s *Store) save(ctx context.Context, kind, shape string, count int, payload string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE kind = ?`, kind,
	).Scan(&version)
	if err != nil {
		return fmt.Errorf("next snapshot version for %s: %w", kind, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (kind, version, saved_at, record_count, shape, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		kind, version, s.clock.Now().UTC().Format(time.RFC3339Nano), count, shape, payload,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s v%d: %w", kind, version, err)
	}
	return tx.Commit()
}

// LoadLatest returns the most recent snapshot of a kind, decoded against
// the kind's schema. A tree snapshot is flattened to its item collection
// in branch order. A kind with no snapshots yields an empty collection
// and version 0, not an error: a fresh database is a normal startup state.
func (s *Store) LoadLatest(ctx context.Context, sc record.Schema) ([]record.Record, int64, error) {
	version, shape, payload, err := s.latestRow(ctx, sc.Kind)
	if err != nil || version == 0 {
		return nil, 0, err
	}

	if shape == shapeTree {
		cats, err := unmarshalTree(sc, payload)
		if err != nil {
			return nil, 0, fmt.Errorf("decode tree snapshot %s v%d: %w", sc.Kind, version, err)
		}
		return tree.Items(cats), version, nil
	}

	records, err := unmarshalRecords(sc, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("decode snapshot %s v%d: %w", sc.Kind, version, err)
	}
	return records, version, nil
}

// LoadLatestTree returns the most recent snapshot of a kind decoded as a
// category tree. A flat latest snapshot is an error: the caller asked
// for structure the snapshot never had. A kind with no snapshots yields
// a nil tree and version 0.
func (s *Store) LoadLatestTree(ctx context.Context, sc record.Schema) ([]tree.Category, int64, error) {
	version, shape, payload, err := s.latestRow(ctx, sc.Kind)
	if err != nil || version == 0 {
		return nil, 0, err
	}
	if shape != shapeTree {
		return nil, 0, fmt.Errorf("snapshot %s v%d is flat, not a tree", sc.Kind, version)
	}

	cats, err := unmarshalTree(sc, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("decode tree snapshot %s v%d: %w", sc.Kind, version, err)
	}
	return cats, version, nil
}

// latestRow fetches the newest snapshot row of a kind. Version 0 with a
// nil error means the kind has no snapshots.
func (s *Store) latestRow(ctx context.Context, kind string) (int64, string, string, error) {
	var (
		version int64
		shape   string
		payload string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, shape, payload FROM snapshots
		 WHERE kind = ? ORDER BY version DESC LIMIT 1`, kind,
	).Scan(&version, &shape, &payload)
	if err == sql.ErrNoRows {
		return 0, "", "", nil
	}
	if err != nil {
		return 0, "", "", fmt.Errorf("load latest snapshot for %s: %w", kind, err)
	}
	return version, shape, payload, nil
}

// Version describes one stored snapshot.
type Version struct {
	Version     int64
	SavedAt     time.Time
	RecordCount int
}

// Versions lists a kind's snapshots, newest first.
func (s *Store) Versions(ctx context.Context, kind string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, saved_at, record_count FROM snapshots
		 WHERE kind = ? ORDER BY version DESC`, kind)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", kind, err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var (
			v     Version
			saved string
		)
		if err := rows.Scan(&v.Version, &saved, &v.RecordCount); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if v.SavedAt, err = time.Parse(time.RFC3339Nano, saved); err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", saved, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots of a kind.
func (s *Store) Prune(ctx context.Context, kind string, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune: keep must be >= 1, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE kind = ? AND version NOT IN (
			SELECT version FROM snapshots WHERE kind = ?
			ORDER BY version DESC LIMIT ?
		)`, kind, kind, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots for %s: %w", kind, err)
	}
	return res.RowsAffected()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 backfills the record_count column for databases created
// before it existed. New databases get it from schema.sql directly.
func migrateToV1(db *sql.DB) error {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('snapshots') WHERE name = 'record_count'`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE snapshots ADD COLUMN record_count INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return nil
}

// migrateToV2 adds the shape column for databases created before tree
// snapshots existed. Every pre-existing snapshot is flat by definition.
func migrateToV2(db *sql.DB) error {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('snapshots') WHERE name = 'shape'`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE snapshots ADD COLUMN shape TEXT NOT NULL DEFAULT 'flat'`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}
	return nil
}
