package training

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/myrjola/liftcoach/internal/coach"
)

// sqliteProfileRepository stores user profiles with list fields as JSON arrays.
type sqliteProfileRepository struct {
	baseRepository
}

// Get retrieves the profile of userID or returns ErrNotFound.
func (r *sqliteProfileRepository) Get(ctx context.Context, q querier, userID string) (coach.UserProfile, error) {
	var (
		p                                                   coach.UserProfile
		equipment, excludedExercises, excludedMovements     string
		injuries, preferences                               string
		bodyweight, maxBench, maxSquat, maxDeadlift, maxOHP sql.NullFloat64
	)
	err := q.QueryRowContext(ctx, `
		SELECT user_id, goal, experience, training_days_per_week, session_duration_minutes,
		       equipment, excluded_exercises, excluded_movements, injuries, preferences,
		       bodyweight, max_bench, max_squat, max_deadlift, max_overhead_press
		FROM profiles
		WHERE user_id = ?`, userID).Scan(
		&p.UserID, &p.Goal, &p.Experience, &p.TrainingDaysPerWeek, &p.SessionDurationMinutes,
		&equipment, &excludedExercises, &excludedMovements, &injuries, &preferences,
		&bodyweight, &maxBench, &maxSquat, &maxDeadlift, &maxOHP,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return coach.UserProfile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return coach.UserProfile{}, fmt.Errorf("query profile: %w", err)
	}

	if p.Equipment, err = decodeList[coach.Equipment](equipment); err != nil {
		return coach.UserProfile{}, fmt.Errorf("decode equipment: %w", err)
	}
	if p.Constraints.ExcludedExercises, err = decodeList[string](excludedExercises); err != nil {
		return coach.UserProfile{}, fmt.Errorf("decode excluded exercises: %w", err)
	}
	if p.Constraints.ExcludedMovements, err = decodeList[coach.MovementPattern](excludedMovements); err != nil {
		return coach.UserProfile{}, fmt.Errorf("decode excluded movements: %w", err)
	}
	if p.Constraints.Injuries, err = decodeList[string](injuries); err != nil {
		return coach.UserProfile{}, fmt.Errorf("decode injuries: %w", err)
	}
	if p.Constraints.Preferences, err = decodeList[string](preferences); err != nil {
		return coach.UserProfile{}, fmt.Errorf("decode preferences: %w", err)
	}
	p.Bodyweight = nullFloatPtr(bodyweight)
	p.EstimatedMaxes = coach.EstimatedMaxes{
		Bench:         nullFloatPtr(maxBench),
		Squat:         nullFloatPtr(maxSquat),
		Deadlift:      nullFloatPtr(maxDeadlift),
		OverheadPress: nullFloatPtr(maxOHP),
	}
	return p, nil
}

// Exists reports whether userID has a profile.
func (r *sqliteProfileRepository) Exists(ctx context.Context, q querier, userID string) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = ?)",
		userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query profile exists: %w", err)
	}
	return exists, nil
}

// Save creates or replaces the profile.
func (r *sqliteProfileRepository) Save(ctx context.Context, p coach.UserProfile) error {
	lists := make([]string, 0, 5) //nolint:mnd // five list columns.
	for _, encode := range []func() (string, error){
		func() (string, error) { return encodeList(p.Equipment) },
		func() (string, error) { return encodeList(p.Constraints.ExcludedExercises) },
		func() (string, error) { return encodeList(p.Constraints.ExcludedMovements) },
		func() (string, error) { return encodeList(p.Constraints.Injuries) },
		func() (string, error) { return encodeList(p.Constraints.Preferences) },
	} {
		encoded, err := encode()
		if err != nil {
			return err
		}
		lists = append(lists, encoded)
	}

	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, goal, experience, training_days_per_week, session_duration_minutes,
			equipment, excluded_exercises, excluded_movements, injuries, preferences,
			bodyweight, max_bench, max_squat, max_deadlift, max_overhead_press
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			goal = excluded.goal,
			experience = excluded.experience,
			training_days_per_week = excluded.training_days_per_week,
			session_duration_minutes = excluded.session_duration_minutes,
			equipment = excluded.equipment,
			excluded_exercises = excluded.excluded_exercises,
			excluded_movements = excluded.excluded_movements,
			injuries = excluded.injuries,
			preferences = excluded.preferences,
			bodyweight = excluded.bodyweight,
			max_bench = excluded.max_bench,
			max_squat = excluded.max_squat,
			max_deadlift = excluded.max_deadlift,
			max_overhead_press = excluded.max_overhead_press`,
		p.UserID, p.Goal, p.Experience, p.TrainingDaysPerWeek, p.SessionDurationMinutes,
		lists[0], lists[1], lists[2], lists[3], lists[4],
		p.Bodyweight, p.EstimatedMaxes.Bench, p.EstimatedMaxes.Squat,
		p.EstimatedMaxes.Deadlift, p.EstimatedMaxes.OverheadPress,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func nullFloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
