package training

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/myrjola/liftcoach/internal/coach"
)

// sqliteStrengthRepository stores pattern strength and the e1RM history used for plateau detection.
type sqliteStrengthRepository struct {
	baseRepository
}

const strengthColumns = `exercise_id, estimated_one_rep_max, last_weight, last_reps, last_rpe, exposures, trend,
	updated_at`

func scanStrength(scan func(dest ...any) error) (coach.PatternStrength, error) {
	var (
		ps        coach.PatternStrength
		lastRPE   sql.NullFloat64
		updatedAt string
	)
	if err := scan(&ps.ExerciseID, &ps.EstimatedOneRepMax, &ps.LastWeight, &ps.LastReps, &lastRPE,
		&ps.Exposures, &ps.Trend, &updatedAt); err != nil {
		return coach.PatternStrength{}, err //nolint:wrapcheck // wrapped by the callers.
	}
	ps.LastRPE = nullFloatPtr(lastRPE)
	var err error
	if ps.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return coach.PatternStrength{}, err
	}
	return ps, nil
}

// Get returns the strength state of one exercise or ErrNotFound.
func (r *sqliteStrengthRepository) Get(ctx context.Context, q querier, userID, exerciseID string) (
	coach.PatternStrength, error) {
	row := q.QueryRowContext(ctx, `SELECT `+strengthColumns+`
		FROM pattern_strength
		WHERE user_id = ? AND exercise_id = ?`, userID, exerciseID)
	ps, err := scanStrength(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return coach.PatternStrength{}, fmt.Errorf("strength of %s: %w", exerciseID, ErrNotFound)
	}
	if err != nil {
		return coach.PatternStrength{}, fmt.Errorf("query pattern strength: %w", err)
	}
	return ps, nil
}

// List returns the strength state of every exercise the user has logged, keyed by exercise ID.
func (r *sqliteStrengthRepository) List(ctx context.Context, q querier, userID string) (
	map[string]coach.PatternStrength, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+strengthColumns+`
		FROM pattern_strength
		WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query pattern strength: %w", err)
	}
	defer rows.Close()

	strength := map[string]coach.PatternStrength{}
	for rows.Next() {
		var ps coach.PatternStrength
		if ps, err = scanStrength(rows.Scan); err != nil {
			return nil, fmt.Errorf("scan pattern strength: %w", err)
		}
		strength[ps.ExerciseID] = ps
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pattern strength: %w", err)
	}
	return strength, nil
}

// Save creates or replaces the strength state of ps.ExerciseID.
func (r *sqliteStrengthRepository) Save(ctx context.Context, q querier, userID string, ps coach.PatternStrength) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pattern_strength (user_id, `+strengthColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, exercise_id) DO UPDATE SET
			estimated_one_rep_max = excluded.estimated_one_rep_max,
			last_weight = excluded.last_weight,
			last_reps = excluded.last_reps,
			last_rpe = excluded.last_rpe,
			exposures = excluded.exposures,
			trend = excluded.trend,
			updated_at = excluded.updated_at`,
		userID, ps.ExerciseID, ps.EstimatedOneRepMax, ps.LastWeight, ps.LastReps, ps.LastRPE,
		ps.Exposures, ps.Trend, formatTimestamp(ps.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save pattern strength of %s: %w", ps.ExerciseID, err)
	}
	return nil
}

// AppendE1RM records a session's best e1RM for an exercise.
func (r *sqliteStrengthRepository) AppendE1RM(ctx context.Context, q querier, userID, exerciseID string,
	e1rm float64, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO e1rm_history (user_id, exercise_id, e1rm, recorded_at) VALUES (?, ?, ?, ?)`,
		userID, exerciseID, e1rm, formatTimestamp(at))
	if err != nil {
		return fmt.Errorf("append e1rm history: %w", err)
	}
	return nil
}

// E1RMHistory returns up to limit of the most recent e1RM samples, oldest first.
func (r *sqliteStrengthRepository) E1RMHistory(ctx context.Context, q querier, userID, exerciseID string,
	limit int) ([]float64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e1rm FROM (
			SELECT id, e1rm, recorded_at
			FROM e1rm_history
			WHERE user_id = ? AND exercise_id = ?
			ORDER BY recorded_at DESC, id DESC
			LIMIT ?
		) ORDER BY recorded_at, id`, userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("query e1rm history: %w", err)
	}
	defer rows.Close()

	var history []float64
	for rows.Next() {
		var e1rm float64
		if err = rows.Scan(&e1rm); err != nil {
			return nil, fmt.Errorf("scan e1rm history: %w", err)
		}
		history = append(history, e1rm)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate e1rm history: %w", err)
	}
	return history, nil
}
