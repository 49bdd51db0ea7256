package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

const (
	// ownerTable holds one row per lifter. Every exported row is reachable from it through foreign keys.
	ownerTable  = "profiles"
	ownerColumn = "user_id"
)

// ErrNoOwnerTable is returned by CreateUserDB when the schema has no profiles table to export from.
var ErrNoOwnerTable = errors.New("profiles table does not exist")

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// CreateUserDB copies every row belonging to userID into a new SQLite file in dir and returns its path. An
// earlier export of the same user is replaced.
//
// The lifter can open the file with any SQLite client, which makes it the answer to a request for all of
// their data.
func (db *Database) CreateUserDB(ctx context.Context, userID, dir string) (_ string, err error) {
	if err = os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd // owner only.
		return "", fmt.Errorf("create export directory: %w", err)
	}
	exportPath := filepath.Join(dir, fmt.Sprintf("user-%s.sqlite3", unsafeFileChars.ReplaceAllString(userID, "_")))
	if err = os.Remove(exportPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove previous export: %w", err)
	}

	// Tables are copied in discovery order, which is not always parent first, so foreign keys stay off during
	// the copy. The pragma is a no-op inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return "", fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS export", "file:"+exportPath+"?mode=rwc"); err != nil {
		return "", fmt.Errorf("attach export database: %w", err)
	}
	defer func() {
		if _, detachErr := db.ReadWrite.ExecContext(context.WithoutCancel(ctx), "DETACH DATABASE export"); detachErr != nil {
			err = errors.Join(err, fmt.Errorf("detach export database: %w", detachErr))
		}
	}()

	var tables []userTable
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if tables, err = findUserTables(ctx, tx); err != nil {
			return fmt.Errorf("find user tables: %w", err)
		}
		for _, table := range tables {
			if err = copyUserTable(ctx, tx, table, userID); err != nil {
				return fmt.Errorf("copy table %s: %w", table.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "exported user database",
		slog.String("user_id", userID),
		slog.String("path", exportPath),
		slog.Int("tables", len(tables)))
	return exportPath, nil
}

// userTable is a table whose rows belong to a lifter. filter is a WHERE clause with a single placeholder for
// the user id, e.g. `session_id IN (SELECT id FROM main.workout_sessions WHERE user_id = ?)`.
type userTable struct {
	name   string
	filter string
}

// findUserTables walks foreign keys outwards from the owner table. A table referencing a user table is a
// user table itself, filtered through the referenced rows.
func findUserTables(ctx context.Context, tx *sql.Tx) ([]userTable, error) {
	names, err := tableNames(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, ownerTable) {
		return nil, ErrNoOwnerTable
	}

	found := []userTable{{name: ownerTable, filter: ownerColumn + " = ?"}}
	filters := map[string]string{ownerTable: found[0].filter}
	for changed := true; changed; {
		changed = false
		for _, name := range names {
			if _, ok := filters[name]; ok {
				continue
			}
			filter, ok, fkErr := userFilter(ctx, tx, name, filters)
			if fkErr != nil {
				return nil, fmt.Errorf("foreign keys of %s: %w", name, fkErr)
			}
			if ok {
				filters[name] = filter
				found = append(found, userTable{name: name, filter: filter})
				changed = true
			}
		}
	}
	return found, nil
}

func tableNames(ctx context.Context, tx *sql.Tx) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT name FROM main.sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var names []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

// userFilter returns the filter of table if one of its foreign keys points at a table already in filters. A key
// to the owner table wins over keys to other user tables, since those may be nullable like a session's template.
func userFilter(ctx context.Context, tx *sql.Tx, table string, filters map[string]string) (
	_ string, _ bool, err error) {
	rows, err := tx.QueryContext(ctx, `SELECT "table", "from", "to" FROM pragma_foreign_key_list(?)`, table)
	if err != nil {
		return "", false, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var indirect string
	for rows.Next() {
		var (
			referenced, from string
			to               sql.NullString
		)
		if err = rows.Scan(&referenced, &from, &to); err != nil {
			return "", false, fmt.Errorf("scan foreign key: %w", err)
		}
		parent, ok := filters[referenced]
		if !ok || !to.Valid {
			continue
		}
		if referenced == ownerTable && to.String == ownerColumn {
			return fmt.Sprintf("%q = ?", from), true, nil
		}
		if indirect == "" {
			indirect = fmt.Sprintf("%q IN (SELECT %q FROM main.%q WHERE %s)", from, to.String, referenced, parent)
		}
	}
	if err = rows.Err(); err != nil {
		return "", false, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return indirect, indirect != "", nil
}

// copyUserTable recreates table in the export database and copies the rows of userID into it.
func copyUserTable(ctx context.Context, tx *sql.Tx, table userTable, userID string) error {
	var createSQL string
	if err := tx.QueryRowContext(ctx, `SELECT sql FROM main.sqlite_schema WHERE type = 'table' AND name = ?`,
		table.name).Scan(&createSQL); err != nil {
		return fmt.Errorf("get schema: %w", err)
	}
	// The definition may name the table quoted or not, so everything before the column list is replaced.
	columns := strings.Index(createSQL, "(")
	if columns < 0 {
		return fmt.Errorf("unexpected table definition %q", createSQL)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE export.%q %s", table.name, createSQL[columns:])); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO export.%q SELECT * FROM main.%q WHERE %s", table.name, table.name, table.filter)
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}
	return nil
}
