package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftcoach/internal/coach"
)

// sqliteSessionRepository stores performed sessions and their sets.
type sqliteSessionRepository struct {
	baseRepository
}

// storedSession is one row of workout_sessions with its sets in logged order.
type storedSession struct {
	ID          string
	UserID      string
	TemplateID  string
	PerformedAt time.Time
	Readiness   *int
	Score       coach.SessionScore
	Exercises   []coach.LoggedExercise
}

// Create stores the session and its sets.
func (r *sqliteSessionRepository) Create(ctx context.Context, q querier, s storedSession) error {
	var templateID *string
	if s.TemplateID != "" {
		templateID = &s.TemplateID
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO workout_sessions (id, user_id, template_id, performed_at, readiness, total_volume, total_sets)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, templateID, formatTimestamp(s.PerformedAt), s.Readiness,
		s.Score.TotalVolume, s.Score.TotalSets)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for position, le := range s.Exercises {
		for i, set := range le.Sets {
			_, err = q.ExecContext(ctx, `
				INSERT INTO logged_sets (
					session_id, position, exercise_id, set_number, weight, reps, rpe, is_warmup, is_drop_set
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, position, le.Exercise.ID, i+1, set.Weight, set.Reps, set.RPE,
				boolToInt(set.IsWarmup), boolToInt(set.IsDropSet))
			if err != nil {
				return fmt.Errorf("insert set %d of %s: %w", i+1, le.Exercise.ID, err)
			}
		}
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "stored session",
		slog.String("session_id", s.ID),
		slog.Int("exercises", len(s.Exercises)))
	return nil
}

// RecentExerciseIDs lists the distinct exercises logged since the given time, most recent first.
func (r *sqliteSessionRepository) RecentExerciseIDs(ctx context.Context, q querier, userID string,
	since time.Time) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ls.exercise_id
		FROM logged_sets ls
		JOIN workout_sessions ws ON ws.id = ls.session_id
		WHERE ws.user_id = ? AND ws.performed_at >= ?
		GROUP BY ls.exercise_id
		ORDER BY max(ws.performed_at) DESC, ls.exercise_id`, userID, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("query recent exercises: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent exercise: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent exercises: %w", err)
	}
	return ids, nil
}
