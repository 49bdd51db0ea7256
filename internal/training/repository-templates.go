package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/liftcoach/internal/coach"
)

// sqliteTemplateRepository stores generated templates. The searchable fields are columns and the full
// template is kept as a JSON body.
type sqliteTemplateRepository struct {
	baseRepository
}

// Create stores a new template.
func (r *sqliteTemplateRepository) Create(ctx context.Context, t coach.WorkoutTemplate) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_templates (
			id, user_id, name, intensity, equipment_context, duration_minutes,
			is_locked, is_minimal_dose, generated_at, body
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.Intensity, t.EquipmentContext, t.EstimatedDuration,
		boolToInt(t.IsLocked), boolToInt(t.IsMinimalDose), formatTimestamp(t.GeneratedAt), string(body))
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// Get retrieves a template or returns ErrNotFound.
func (r *sqliteTemplateRepository) Get(ctx context.Context, q querier, id string) (coach.WorkoutTemplate, error) {
	var (
		body     string
		isLocked bool
	)
	err := q.QueryRowContext(ctx, `SELECT body, is_locked FROM workout_templates WHERE id = ?`, id).
		Scan(&body, &isLocked)
	if errors.Is(err, sql.ErrNoRows) {
		return coach.WorkoutTemplate{}, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return coach.WorkoutTemplate{}, fmt.Errorf("query template: %w", err)
	}
	var t coach.WorkoutTemplate
	if err = json.Unmarshal([]byte(body), &t); err != nil {
		return coach.WorkoutTemplate{}, fmt.Errorf("unmarshal template: %w", err)
	}
	// The column is authoritative for the only field that changes after generation.
	t.IsLocked = isLocked
	return t, nil
}

// Lock marks a template of userID as locked or returns ErrNotFound.
func (r *sqliteTemplateRepository) Lock(ctx context.Context, userID, id string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx,
		`UPDATE workout_templates SET is_locked = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("lock template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "no template to lock",
			slog.String("user_id", userID),
			slog.String("template_id", id))
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}
