// Package storage persists documents and their snapshot journal in SQL
// (sqlite, postgres, mysql) or MongoDB.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect is the SQL flavour of an open database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DB wraps a database/sql connection and its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the database described by driver and dsn and runs the
// migrations. For sqlite, dsn is a file path whose directory is created.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch Dialect(driver) {
	case SQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		conn, err = sql.Open("sqlite", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	case Postgres:
		conn, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	case MySQL:
		cfg, perr := mysql.ParseDSN(dsn)
		if perr != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", perr)
		}
		cfg.ParseTime = true
		conn, err = sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	default:
		return nil, fmt.Errorf("open storage: unsupported driver %q", driver)
	}

	if Dialect(driver) != SQLite {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, dialect: Dialect(driver)}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns the SQL flavour.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, q sqlExecer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, db.rebind(query), args...)
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) migrations() []string {
	text, big, ts := "TEXT", "TEXT", "DATETIME"
	switch db.dialect {
	case Postgres:
		ts = "TIMESTAMPTZ"
	case MySQL:
		text, big, ts = "VARCHAR(255)", "LONGTEXT", "DATETIME(6)"
	}

	ms := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) PRIMARY KEY,
			name ` + text + ` NOT NULL,
			value_json ` + big + ` NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id VARCHAR(64) PRIMARY KEY,
			document_id VARCHAR(64) NOT NULL,
			seq BIGINT NOT NULL,
			label ` + text + ` NOT NULL,
			value_json ` + big + ` NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate index error is
	// ignored by migrate instead.
	ms = append(ms, `CREATE INDEX `+ifNotExists(db.dialect)+`idx_snapshots_document ON snapshots(document_id, seq)`)
	return ms
}

func ifNotExists(d Dialect) string {
	if d == MySQL {
		return ""
	}
	return "IF NOT EXISTS "
}

func (db *DB) migrate(ctx context.Context) error {
	for _, m := range db.migrations() {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// MySQL error 1061: duplicate key name
			if db.dialect == MySQL && strings.Contains(err.Error(), "1061") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
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
