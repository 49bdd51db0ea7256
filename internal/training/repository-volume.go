package training

import (
	"context"
	"fmt"

	"github.com/myrjola/liftcoach/internal/coach"
)

// sqliteVolumeRepository stores effective sets per muscle and ISO week.
type sqliteVolumeRepository struct {
	baseRepository
}

// Get returns the volume userID has accumulated in w. Muscles without sets are absent from the map.
func (r *sqliteVolumeRepository) Get(ctx context.Context, q querier, userID string, w week) (coach.MuscleVolume, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT muscle, effective_sets
		FROM weekly_muscle_volume
		WHERE user_id = ? AND iso_year = ? AND iso_week = ?`, userID, w.year, w.week)
	if err != nil {
		return nil, fmt.Errorf("query muscle volume: %w", err)
	}
	defer rows.Close()

	volume := coach.MuscleVolume{}
	for rows.Next() {
		var (
			muscle coach.MuscleGroup
			sets   float64
		)
		if err = rows.Scan(&muscle, &sets); err != nil {
			return nil, fmt.Errorf("scan muscle volume: %w", err)
		}
		volume[muscle] = sets
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate muscle volume: %w", err)
	}
	return volume, nil
}

// Add increments the weekly volume by delta.
func (r *sqliteVolumeRepository) Add(ctx context.Context, q querier, userID string, w week,
	delta coach.MuscleVolume) error {
	for muscle, sets := range delta {
		if sets <= 0 {
			continue
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO weekly_muscle_volume (user_id, iso_year, iso_week, muscle, effective_sets)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id, iso_year, iso_week, muscle) DO UPDATE SET
				effective_sets = effective_sets + excluded.effective_sets`,
			userID, w.year, w.week, muscle, sets)
		if err != nil {
			return fmt.Errorf("add volume for %s: %w", muscle, err)
		}
	}
	return nil
}
