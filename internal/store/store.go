package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no cgo

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// PoolSize is the default connection-pool size from spec §4.2 ("a
// connection pool of size P (default 4)").
const PoolSize = 4

// BusyTimeoutMS is the SQLite busy_timeout pragma value (spec: "busy
// timeout ≥ 5 s").
const BusyTimeoutMS = 5000

// maxMmapSize caps PRAGMA mmap_size at 256 MB per connection (spec §5:
// "mmap min(2×db, 256 MB)/conn").
const maxMmapSize = 256 * 1024 * 1024

// Store is a single SQLite database in WAL mode holding chunks, notes,
// function_calls, and metadata, with FTS5 mirrors for name/content
// search. Grounded on the teacher's SQLiteBM25Index (WAL pragmas,
// corruption-on-open handling, PRAGMA wal_checkpoint on close) but
// generalised from one FTS5 virtual table to the full relational +
// FTS5 schema spec §6 specifies.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	path     string
	readOnly bool
	closed   bool
}

// Open opens (creating if absent) the database at path, runs schema
// init/migration in one transaction, and verifies integrity via
// PRAGMA quick_check (spec §4.2: "On open, runs PRAGMA quick_check
// (writable open) to surface corruption").
func Open(path string) (*Store, error) {
	if path == "" {
		return openDSN(":memory:", "", false)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "create index directory", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)"
	s, err := openDSN(dsn, path, false)
	if err != nil {
		return nil, err
	}
	s.path = path

	if err := s.quickCheck(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens path in read-only, single-connection mode (spec
// §4.2: "uses mode=ro, single connection, no WAL checkpoint, and does
// not mutate").
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindIO, "open index read-only", err)
	}
	dsn := path + "?mode=ro&_pragma=busy_timeout(5000)"
	return openDSN(dsn, path, true)
}

// mmapSizeFor computes the PRAGMA mmap_size value for the database at
// path: min(2×current file size, maxMmapSize). A missing or in-memory
// path (filePath == "") maps to 0, SQLite's "no mmap" value.
func mmapSizeFor(filePath string) int64 {
	if filePath == "" {
		return 0
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	size := 2 * info.Size()
	if size > maxMmapSize {
		return maxMmapSize
	}
	return size
}

func openDSN(dsn, filePath string, readOnly bool) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "open database", err)
	}

	if readOnly {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(PoolSize)
		db.SetMaxIdleConns(PoolSize)
	}
	db.SetConnMaxLifetime(0)

	mmapSize := mmapSizeFor(filePath)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16384", // 16 MB/conn, per spec §5 resource policy
		"PRAGMA temp_store = MEMORY",
		fmt.Sprintf("PRAGMA mmap_size = %d", mmapSize),
	}
	if readOnly {
		pragmas = []string{
			fmt.Sprintf("PRAGMA busy_timeout = %d", BusyTimeoutMS),
			fmt.Sprintf("PRAGMA mmap_size = %d", mmapSize),
		}
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, cqserrors.Wrap(cqserrors.KindStore, "set pragma", err)
		}
	}

	s := &Store{db: db, readOnly: readOnly}

	if !readOnly {
		if err := s.initSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) quickCheck() error {
	var result string
	if err := s.db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "quick_check", err)
	}
	if result != "ok" {
		return cqserrors.New(cqserrors.KindStore, "database failed integrity check: "+result)
	}
	return nil
}

// initSchema creates every table, index, and FTS5 mirror in a single
// transaction (spec §4.2: "Schema init itself runs in a transaction"),
// then seeds schema_version/created_at/dimensions metadata rows.
func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "begin schema init", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "apply schema", err)
	}

	var version string
	err = tx.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, MetaSchemaVersion).Scan(&version)
	if err == sql.ErrNoRows {
		now := nowMillis()
		seed := []struct{ key, value string }{
			{MetaSchemaVersion, fmt.Sprintf("%d", CurrentSchemaVersion)},
			{MetaCreatedAt, fmt.Sprintf("%d", now)},
			{MetaUpdatedAt, fmt.Sprintf("%d", now)},
		}
		for _, kv := range seed {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO metadata(key, value) VALUES (?, ?)`, kv.key, kv.value); err != nil {
				return cqserrors.Wrap(cqserrors.KindStore, "seed metadata", err)
			}
		}
	} else if err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "read schema_version", err)
	}

	return tx.Commit()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY,
	origin       TEXT NOT NULL,
	name         TEXT NOT NULL,
	signature    TEXT NOT NULL,
	content      TEXT NOT NULL,
	doc          TEXT NOT NULL,
	chunk_kind   TEXT NOT NULL,
	language     TEXT NOT NULL,
	line_start   INTEGER NOT NULL,
	line_end     INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	parent_id    TEXT,
	source_mtime INTEGER NOT NULL,
	embedding    BLOB
);
CREATE INDEX IF NOT EXISTS idx_chunks_origin ON chunks(origin);
CREATE INDEX IF NOT EXISTS idx_chunks_name ON chunks(name);
CREATE INDEX IF NOT EXISTS idx_chunks_content_hash ON chunks(content_hash);
CREATE INDEX IF NOT EXISTS idx_chunks_parent_id ON chunks(parent_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	id UNINDEXED,
	name,
	content,
	tokenize = 'unicode61'
);

CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	sentiment   REAL NOT NULL,
	mentions    TEXT NOT NULL,
	source_file TEXT NOT NULL,
	mtime       INTEGER NOT NULL,
	embedding   BLOB
);

CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	id UNINDEXED,
	text,
	tokenize = 'unicode61'
);

CREATE TABLE IF NOT EXISTS function_calls (
	caller_name TEXT NOT NULL,
	callee_name TEXT NOT NULL,
	caller_file TEXT NOT NULL,
	caller_line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_caller_name ON function_calls(caller_name);
CREATE INDEX IF NOT EXISTS idx_calls_callee_name ON function_calls(callee_name);
CREATE INDEX IF NOT EXISTS idx_calls_caller_file ON function_calls(caller_file);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Close checkpoints the WAL and closes the underlying connection pool.
// Idempotent, matching the teacher's BM25 index lifecycle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.readOnly {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return cqserrors.New(cqserrors.KindStore, "store is closed")
	}
	return nil
}

func logLargeEdgeCount(count int) {
	const warnCap = 500_000
	if count > warnCap {
		slog.Warn("call_graph_large", slog.Int("edge_count", count), slog.Int("cap", warnCap))
	}
}
