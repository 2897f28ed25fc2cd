package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"figmatext/internal/domain"

	_ "modernc.org/sqlite"
)

// DB wraps a SQL connection to the snapshot database.
type DB struct {
	conn   *sql.DB
	driver domain.DatabaseDriver
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(domain.DatabaseDriverSQLite, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
}

// Open connects to a SQL database with an already-built DSN and runs the
// migrations. The driver packages for postgres and mysql are registered by
// dbclient.
func Open(driver domain.DatabaseDriver, dsn string) (*DB, error) {
	driverName, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == domain.DatabaseDriverSQLite {
		// SQLite only supports one writer; a single connection prevents SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func sqlDriverName(driver domain.DatabaseDriver) (string, error) {
	switch driver {
	case domain.DatabaseDriverSQLite:
		return "sqlite", nil
	case domain.DatabaseDriverPostgres:
		return "postgres", nil
	case domain.DatabaseDriverMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported sql driver: %s", driver)
	}
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the dialect the database was opened with.
func (db *DB) Driver() domain.DatabaseDriver {
	return db.driver
}

// readTxOptions returns the options of a read spanning several statements
// that must all see one committed state. SQLite transactions are serializable
// already; Postgres and MySQL need repeatable read for that.
func (db *DB) readTxOptions() *sql.TxOptions {
	if db.driver == domain.DatabaseDriverSQLite {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// rebind rewrites '?' placeholders into the dialect's form.
func (db *DB) rebind(query string) string {
	if db.driver != domain.DatabaseDriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// column types per dialect, substituted into the migrations below
var dialectTypes = map[domain.DatabaseDriver]*strings.Replacer{
	domain.DatabaseDriverSQLite: strings.NewReplacer(
		"{key}", "TEXT", "{text}", "TEXT", "{blob}", "TEXT",
		"{ts}", "DATETIME", "{float}", "REAL", "{bool}", "INTEGER",
	),
	domain.DatabaseDriverPostgres: strings.NewReplacer(
		"{key}", "VARCHAR(255)", "{text}", "TEXT", "{blob}", "TEXT",
		"{ts}", "TIMESTAMPTZ", "{float}", "DOUBLE PRECISION", "{bool}", "BOOLEAN",
	),
	domain.DatabaseDriverMySQL: strings.NewReplacer(
		"{key}", "VARCHAR(255)", "{text}", "TEXT", "{blob}", "LONGTEXT",
		"{ts}", "DATETIME(6)", "{float}", "DOUBLE", "{bool}", "BOOLEAN",
	),
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS figma_snapshots (
			file_key {key} PRIMARY KEY,
			last_updated {ts} NOT NULL,
			checksum {key} NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS figma_pages (
			id {key} PRIMARY KEY,
			page_id {key} NOT NULL,
			page_name {text} NOT NULL,
			file_key {key} NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			json_data {blob} NOT NULL,
			last_updated {ts} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_figma_pages_file ON figma_pages(file_key)`,
		`CREATE TABLE IF NOT EXISTS figma_texts (
			id {key} PRIMARY KEY,
			page_id {key} NOT NULL,
			page_name {text} NOT NULL,
			screen_id {key} NOT NULL,
			screen_name {text} NOT NULL,
			text_name {text} NOT NULL,
			text_content {text} NOT NULL,
			axis_x {float} NOT NULL DEFAULT 0,
			axis_y {float} NOT NULL DEFAULT 0,
			file_key {key} NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			last_updated {ts} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_figma_texts_file ON figma_texts(file_key)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id {key} PRIMARY KEY,
			file_key {key} NOT NULL,
			source_type {key} NOT NULL DEFAULT '',
			started_at {ts} NOT NULL,
			finished_at {ts} NOT NULL,
			success {bool} NOT NULL DEFAULT FALSE,
			pages_updated INTEGER NOT NULL DEFAULT 0,
			texts_updated INTEGER NOT NULL DEFAULT 0,
			message {text} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_file ON sync_runs(file_key, started_at)`,
	}

	types := dialectTypes[db.driver]
	for _, m := range migrations {
		stmt := types.Replace(m)
		if db.driver == domain.DatabaseDriverMySQL {
			// MySQL has no CREATE INDEX IF NOT EXISTS
			stmt = strings.Replace(stmt, "INDEX IF NOT EXISTS", "INDEX", 1)
		}
		if _, err := db.conn.Exec(stmt); err != nil {
			// re-creating an existing index fails on MySQL; safe to ignore
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
