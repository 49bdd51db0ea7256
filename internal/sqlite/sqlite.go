package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaDefinition string

// Database holds a single-connection writer and a pool of query-only readers against the same file.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to the database at url, migrates it to the embedded schema, and starts the periodic
// optimizer, which stops when ctx is done.
//
// url is a file path or ":memory:" for a private in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}
	go db.startDatabaseOptimizer(ctx)
	return db, nil
}

//nolint:gochecknoglobals // the driver may only be registered once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3_liftcoach"

func registerOptimizedDriver() {
	sql.Register(optimizedDriver, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// Temporary tables and indices in memory, pages through memory-mapped I/O.
			if _, err := conn.Exec("PRAGMA temp_store = memory; PRAGMA mmap_size = 268435456;", nil); err != nil {
				return fmt.Errorf("exec connection pragmas: %w", err)
			}
			return nil
		},
	})
}

// dsnOptions are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open.
//
//nolint:gochecknoglobals // constant option list.
var dsnOptions = []string{
	"_loc=auto",
	"_defer_foreign_keys=1",
	"_journal_mode=wal",
	"_busy_timeout=5000",
	"_synchronous=normal",
	"_foreign_keys=on",
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	common := strings.Join(dsnOptions, "&")
	writerMode, readerMode := "mode=rwc", "mode=ro"
	// Every in-memory database gets a random name so that parallel tests never share data. Shared cache lets
	// the reader and writer pools see the same memory database.
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		writerMode = "mode=memory&cache=shared"
		readerMode = writerMode
	}
	writerDSN := fmt.Sprintf("file:%s?%s&_txlock=immediate&%s", url, writerMode, common)
	readerDSN := fmt.Sprintf("file:%s?%s&_txlock=deferred&_query_only=true&%s", url, readerMode, common)

	registerDriver.Do(registerOptimizedDriver)

	writer, err := openPool(ctx, writerDSN, 1)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("dsn", writerDSN))

	const readers = 10
	reader, err := openPool(ctx, readerDSN, readers)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read-only database: %w", err), writer.Close())
	}

	return &Database{
		ReadWrite: writer,
		ReadOnly:  reader,
		logger:    logger,
	}, nil
}

// openPool opens and pings a pool so that configuration errors surface immediately instead of on first use.
func openPool(ctx context.Context, dsn string, conns int) (*sql.DB, error) {
	db, err := sql.Open(optimizedDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping: %w", err), db.Close())
	}
	return db, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}

// WithTx runs fn in a read-write transaction and commits when fn returns nil.
func (db *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
