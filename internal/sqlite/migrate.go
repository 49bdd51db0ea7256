package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo makes the live schema match target, keeping the data of every column that survives.
//
// The target schema is created in an attached in-memory database and diffed against the live one. Removed
// tables are dropped, added tables created, and changed tables rebuilt with the procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter. Indexes and triggers are synchronised last because
// rebuilding a table drops them. See https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, target string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// The pragma is a no-op inside a transaction, so it wraps it.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		m := migration{tx: tx, logger: db.logger}
		steps := []struct {
			name string
			run  func(context.Context) error
		}{
			{"drop removed tables", m.dropRemovedTables},
			{"create added tables", m.createAddedTables},
			{"rebuild changed tables", m.rebuildChangedTables},
			{"sync indexes", func(ctx context.Context) error { return m.syncObjects(ctx, objectIndex) }},
			{"sync triggers", func(ctx context.Context) error { return m.syncObjects(ctx, objectTrigger) }},
			{"check foreign keys", m.checkForeignKeys},
		}
		for _, step := range steps {
			if stepErr := step.run(ctx); stepErr != nil {
				return fmt.Errorf("%s: %w", step.name, stepErr)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTarget creates target in a fresh in-memory database attached as schemaTarget.
func (db *Database) attachTarget(ctx context.Context, target string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	// Keeps the memory database alive until it is attached.
	targetDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if closeErr := targetDB.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close target schema database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = targetDB.ExecContext(ctx, target); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx),
			"DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target schema", slog.Any("error", detachErr))
		}
	}, nil
}

type objectType string

const (
	objectTable   objectType = "table"
	objectIndex   objectType = "index"
	objectTrigger objectType = "trigger"
)

// migration runs the schema diff inside one transaction.
type migration struct {
	tx     *sql.Tx
	logger *slog.Logger
}

type schemaChange struct {
	name    string
	liveSQL string
	newSQL  string
}

func (m migration) exec(ctx context.Context, query string) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "migration statement", slog.String("query", query))
	if _, err := m.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

// removed lists the names of live objects missing from the target.
func (m migration) removed(ctx context.Context, typ objectType) ([]string, error) {
	return m.strings(ctx, `SELECT name FROM main.sqlite_schema
WHERE type = :type AND name NOT LIKE 'sqlite_%'
  AND name NOT IN (SELECT name FROM schemaTarget.sqlite_schema WHERE type = :type)`,
		sql.Named("type", string(typ)))
}

// added lists the definitions of target objects missing from the live schema.
func (m migration) added(ctx context.Context, typ objectType) ([]string, error) {
	return m.strings(ctx, `SELECT sql FROM schemaTarget.sqlite_schema
WHERE type = :type AND name NOT LIKE 'sqlite_%'
  AND name NOT IN (SELECT name FROM main.sqlite_schema WHERE type = :type)`,
		sql.Named("type", string(typ)))
}

// changed lists objects whose definition differs. Renaming a table quotes its name, so quotes are ignored.
func (m migration) changed(ctx context.Context, typ objectType) ([]schemaChange, error) {
	rows, err := m.tx.QueryContext(ctx, `SELECT live.name, live.sql, target.sql
FROM main.sqlite_schema AS live
JOIN schemaTarget.sqlite_schema AS target USING (type, name)
WHERE live.type = ? AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("query changed %s: %w", typ, err)
	}
	defer rows.Close()

	var changes []schemaChange
	for rows.Next() {
		var c schemaChange
		if err = rows.Scan(&c.name, &c.liveSQL, &c.newSQL); err != nil {
			return nil, fmt.Errorf("scan changed %s: %w", typ, err)
		}
		changes = append(changes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed %s: %w", typ, err)
	}
	return changes, nil
}

func (m migration) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := m.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

func (m migration) dropRemovedTables(ctx context.Context) error {
	tables, err := m.removed(ctx, objectTable)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err = m.exec(ctx, fmt.Sprintf("DROP TABLE %q", table)); err != nil {
			return err
		}
	}
	return nil
}

func (m migration) createAddedTables(ctx context.Context) error {
	definitions, err := m.added(ctx, objectTable)
	if err != nil {
		return err
	}
	for _, definition := range definitions {
		if err = m.exec(ctx, definition); err != nil {
			return err
		}
	}
	return nil
}

// rebuildChangedTables creates each changed table under a temporary name, copies the shared columns, and
// swaps it in place of the old one.
func (m migration) rebuildChangedTables(ctx context.Context) error {
	changes, err := m.changed(ctx, objectTable)
	if err != nil {
		return err
	}
	for _, c := range changes {
		m.logger.LogAttrs(ctx, slog.LevelInfo, "rebuilding table",
			slog.String("table", c.name), slog.String("live_sql", c.liveSQL), slog.String("new_sql", c.newSQL))

		temp := c.name + "_migration_temp"
		var columns []string
		if columns, err = m.sharedColumns(ctx, c.name); err != nil {
			return err
		}
		shared := strings.Join(columns, ", ")
		statements := []string{
			strings.Replace(c.newSQL, c.name, temp, 1),
			fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM %q", temp, shared, shared, c.name),
			fmt.Sprintf("DROP TABLE %q", c.name),
			fmt.Sprintf("ALTER TABLE %q RENAME TO %q", temp, c.name),
		}
		for _, statement := range statements {
			if err = m.exec(ctx, statement); err != nil {
				return err
			}
		}
	}
	return nil
}

// sharedColumns returns the quoted names of the columns table has in both schemas.
func (m migration) sharedColumns(ctx context.Context, table string) ([]string, error) {
	columns, err := m.strings(ctx, `SELECT '"' || live.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS live
JOIN PRAGMA_TABLE_INFO(:table, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("shared columns of %s: %w", table, err)
	}
	return columns, nil
}

// syncObjects drops, creates, and replaces indexes or triggers to match the target.
func (m migration) syncObjects(ctx context.Context, typ objectType) error {
	keyword := strings.ToUpper(string(typ))

	removed, err := m.removed(ctx, typ)
	if err != nil {
		return err
	}
	for _, name := range removed {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %q", keyword, name)); err != nil {
			return err
		}
	}

	changes, err := m.changed(ctx, typ)
	if err != nil {
		return err
	}
	for _, c := range changes {
		if err = m.exec(ctx, fmt.Sprintf("DROP %s %q", keyword, c.name)); err != nil {
			return err
		}
		if err = m.exec(ctx, c.newSQL); err != nil {
			return err
		}
	}

	added, err := m.added(ctx, typ)
	if err != nil {
		return err
	}
	for _, definition := range added {
		if err = m.exec(ctx, definition); err != nil {
			return err
		}
	}
	return nil
}

func (m migration) checkForeignKeys(ctx context.Context) error {
	rows, err := m.tx.QueryContext(ctx, "PRAGMA main.foreign_key_check")
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var violations int
	for rows.Next() {
		violations++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("%d foreign key violations", violations)
	}
	return nil
}
