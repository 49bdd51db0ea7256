package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftcoach/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// querier is satisfied by both connection pools and transactions so that reads can join a write transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// repository groups the per-table repositories behind the service.
type repository struct {
	db        *sqlite.Database
	profiles  *sqliteProfileRepository
	volume    *sqliteVolumeRepository
	strength  *sqliteStrengthRepository
	templates *sqliteTemplateRepository
	sessions  *sqliteSessionRepository
}

func newRepository(db *sqlite.Database, logger *slog.Logger) *repository {
	base := newBaseRepository(db, logger)
	return &repository{
		db:        db,
		profiles:  &sqliteProfileRepository{baseRepository: base},
		volume:    &sqliteVolumeRepository{baseRepository: base},
		strength:  &sqliteStrengthRepository{baseRepository: base},
		templates: &sqliteTemplateRepository{baseRepository: base},
		sessions:  &sqliteSessionRepository{baseRepository: base},
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// encodeList stores a list column as a JSON array. A nil list is stored as [].
func encodeList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}

// decodeList reads a JSON array column. An empty array decodes to nil.
func decodeList[T any](column string) ([]T, error) {
	var values []T
	if err := json.Unmarshal([]byte(column), &values); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// week identifies an ISO 8601 week. Volume is accumulated per week and starts from zero in a new one.
type week struct {
	year int
	week int
}

func isoWeek(t time.Time) week {
	y, w := t.UTC().ISOWeek()
	return week{year: y, week: w}
}
