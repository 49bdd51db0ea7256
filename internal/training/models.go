package training

import (
	"time"

	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/errors"
)

var (
	// ErrNotFound is returned when a profile, template, or strength record does not exist.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrUnknownExercise is returned when an exercise ID is not in the catalog.
	ErrUnknownExercise = errors.NewSentinel("unknown exercise")
	// ErrInvalidSession is returned when a logged session cannot be scored.
	ErrInvalidSession = errors.NewSentinel("invalid session")
)

// SessionLog is a performed session as reported by the lifter.
type SessionLog struct {
	// TemplateID is the template the session followed, if any.
	TemplateID string `json:"template_id,omitempty"`
	// PerformedAt defaults to the current time.
	PerformedAt time.Time     `json:"performed_at"`
	Readiness   *int          `json:"readiness,omitempty"`
	Exercises   []ExerciseLog `json:"exercises"`
}

// ExerciseLog is the sets performed for one catalog exercise.
type ExerciseLog struct {
	ExerciseID string            `json:"exercise_id"`
	Sets       []coach.LoggedSet `json:"sets"`
}

// PlateauReport names an exercise that has stalled and what to do about it.
type PlateauReport struct {
	ExerciseID   string             `json:"exercise_id"`
	Reason       string             `json:"reason"`
	Intervention coach.Intervention `json:"intervention"`
}

// SessionResult is what logging a session produced.
type SessionResult struct {
	SessionID string                  `json:"session_id"`
	Score     coach.SessionScore      `json:"score"`
	Strength  []coach.PatternStrength `json:"strength"`
	Plateaus  []PlateauReport         `json:"plateaus,omitempty"`
}
