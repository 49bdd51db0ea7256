package sqlite

import (
	"log/slog"
	"testing"

	"github.com/myrjola/liftcoach/internal/testhelpers"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()

	const (
		sessions        = "CREATE TABLE sessions (id INTEGER PRIMARY KEY, notes TEXT)"
		sessionsNoNotes = "CREATE TABLE sessions (id INTEGER PRIMARY KEY)"
		sessionsIndexed = sessions + "; CREATE INDEX sessions_notes ON sessions (notes)"
		rejectInserts   = sessions + `; CREATE TRIGGER sessions_reject AFTER INSERT ON sessions
BEGIN SELECT RAISE(FAIL, 'rejected'); END;`
	)

	tests := []struct {
		name     string
		schemas  []string
		queries  []string
		wantErrs bool
	}{
		{
			name:    "empty schema",
			schemas: []string{""},
			queries: []string{"SELECT * FROM sqlite_schema"},
		},
		{
			name:    "create table",
			schemas: []string{sessions},
			queries: []string{"INSERT INTO sessions (notes) VALUES ('squat day')", "SELECT * FROM sessions"},
		},
		{
			name:     "drop table",
			schemas:  []string{sessions, ""},
			queries:  []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
			wantErrs: true,
		},
		{
			name:    "add column",
			schemas: []string{sessionsNoNotes, sessions},
			queries: []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
		},
		{
			name:     "remove column",
			schemas:  []string{sessionsNoNotes, sessions, sessionsNoNotes},
			queries:  []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
			wantErrs: true,
		},
		{
			name:    "create index",
			schemas: []string{sessionsIndexed},
			queries: []string{"DROP INDEX sessions_notes"},
		},
		{
			name:     "drop index",
			schemas:  []string{sessionsIndexed, sessions},
			queries:  []string{"DROP INDEX sessions_notes"},
			wantErrs: true,
		},
		{
			name:    "index survives table rebuild",
			schemas: []string{sessionsNoNotes, sessionsIndexed},
			queries: []string{"DROP INDEX sessions_notes"},
		},
		{
			name:    "change index",
			schemas: []string{sessionsIndexed, sessions + "; CREATE INDEX sessions_notes ON sessions (id, notes)"},
			queries: []string{"DROP INDEX sessions_notes"},
		},
		{
			name:     "create trigger",
			schemas:  []string{rejectInserts},
			queries:  []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
			wantErrs: true,
		},
		{
			name:    "drop trigger",
			schemas: []string{rejectInserts, sessions},
			queries: []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
		},
		{
			name: "change trigger",
			schemas: []string{rejectInserts, sessions + `; CREATE TRIGGER sessions_reject AFTER INSERT ON sessions
BEGIN SELECT 1; END;`},
			queries: []string{"INSERT INTO sessions (notes) VALUES ('squat day')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("connect: %v", err)
			}
			t.Cleanup(func() {
				if err := db.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			})

			for _, schema := range tt.schemas {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schema))
				if err = db.migrateTo(ctx, schema); err != nil {
					t.Fatalf("migrateTo: %v", err)
				}
			}

			for _, query := range tt.queries {
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErrs && err == nil {
					t.Errorf("query %q succeeded, want error", query)
				}
				if !tt.wantErrs && err != nil {
					t.Errorf("query %q: %v", query, err)
				}
			}
		})
	}
}

func TestDatabase_migrateTo_KeepsData(t *testing.T) {
	ctx := t.Context()
	db, err := connect(ctx, ":memory:", testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = db.migrateTo(ctx, "CREATE TABLE sets (id INTEGER PRIMARY KEY, reps INTEGER)"); err != nil {
		t.Fatalf("migrateTo: %v", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO sets (reps) VALUES (8), (10)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err = db.migrateTo(ctx, "CREATE TABLE sets (id INTEGER PRIMARY KEY, reps INTEGER, rpe REAL)"); err != nil {
		t.Fatalf("migrateTo: %v", err)
	}

	var total int
	if err = db.ReadOnly.QueryRowContext(ctx, "SELECT sum(reps) FROM sets WHERE rpe IS NULL").Scan(&total); err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 18 { //nolint:mnd // 8 + 10.
		t.Errorf("sum(reps) = %d, want 18", total)
	}
}
