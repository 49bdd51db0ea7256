package coach

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// WorkoutExercise is one prescribed exercise in a template.
type WorkoutExercise struct {
	ID           string   `json:"id"`
	ExerciseID   string   `json:"exercise_id"`
	Exercise     Exercise `json:"exercise"`
	Order        int      `json:"order"`
	Sets         int      `json:"sets"`
	TargetReps   RepRange `json:"target_reps"`
	TargetRPE    float64  `json:"target_rpe"`
	TargetWeight *float64 `json:"target_weight,omitempty"`
	RestSeconds  int      `json:"rest_seconds"`
	Notes        string   `json:"notes,omitempty"`
	IsWarmup     bool     `json:"is_warmup"`
}

// WorkoutTemplate is a generated workout. It is not modified after generation except for the lock flag.
type WorkoutTemplate struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Exercises         []WorkoutExercise `json:"exercises"`
	EstimatedDuration int               `json:"estimated_duration"`
	TargetMuscles     []MuscleGroup     `json:"target_muscles"`
	MovementPatterns  []MovementPattern `json:"movement_patterns"`
	EquipmentContext  EquipmentContext  `json:"equipment_context"`
	Intensity         Intensity         `json:"intensity"`
	Rationale         []string          `json:"rationale"`
	Warnings          []string          `json:"warnings,omitempty"`
	GeneratedAt       time.Time         `json:"generated_at"`
	IsLocked          bool              `json:"is_locked"`
	IsMinimalDose     bool              `json:"is_minimal_dose"`
}

// Warmups returns the warmup exercises of the template.
func (t WorkoutTemplate) Warmups() []WorkoutExercise {
	var out []WorkoutExercise
	for _, we := range t.Exercises {
		if we.IsWarmup {
			out = append(out, we)
		}
	}
	return out
}

// prescription computes sets, RPE, and rest for one exercise.
type prescription struct {
	tuning    *Tuning
	intensity Intensity
	strength  map[string]PatternStrength
}

func (p prescription) workoutExercise(id string, e Exercise, order int, isWarmup bool) WorkoutExercise {
	factors := p.tuning.Intensity[p.intensity]
	we := WorkoutExercise{
		ID:           id,
		ExerciseID:   e.ID,
		Exercise:     e,
		Order:        order,
		Sets:         1,
		TargetReps:   e.DefaultReps,
		TargetRPE:    p.tuning.WarmupRPE,
		TargetWeight: nil,
		RestSeconds:  p.tuning.RestSeconds.Warmup,
		Notes:        "",
		IsWarmup:     isWarmup,
	}
	if !isWarmup {
		we.Sets = int(math.Round(float64(e.DefaultSets) * factors.Volume))
		we.TargetRPE = math.Min(10, math.Round(e.DefaultRPE*factors.Volume)) //nolint:mnd // RPE scale tops at 10.
		baseRest := p.tuning.RestSeconds.Other
		if e.Category == CategoryCompound {
			baseRest = p.tuning.RestSeconds.Compound
		}
		we.RestSeconds = int(math.Round(float64(baseRest) * factors.Rest))
	}
	if ps, ok := p.strength[e.ID]; ok {
		weight := ps.LastWeight
		we.TargetWeight = &weight
	}
	return we
}

// WorkoutName names a workout after its first three focus muscles.
func WorkoutName(focus []MuscleGroup) string {
	const maxNamed = 3
	if len(focus) == 0 {
		return "Full Body Workout"
	}
	names := make([]string, 0, maxNamed)
	for _, m := range focus[:min(len(focus), maxNamed)] {
		names = append(names, m.DisplayName())
	}
	switch len(names) {
	case 1:
		return names[0] + " Focus"
	case 2: //nolint:mnd // pair.
		return names[0] + " & " + names[1]
	default:
		return names[0] + ", " + names[1] + " & " + names[2]
	}
}

// Rationale explains the generated workout in order: focus, undertrained muscles, readiness, intensity.
func Rationale(focus, undertrained []MuscleGroup, readiness int, intensity Intensity) []string {
	var lines []string
	if len(focus) > 0 {
		lines = append(lines, fmt.Sprintf("Targeting %s based on your training balance.",
			joinMuscles(focus[:min(len(focus), 3)], ", "))) //nolint:mnd // three named muscles.
	}
	if len(undertrained) > 0 {
		lines = append(lines, fmt.Sprintf("Prioritizing undertrained muscles: %s.",
			joinMuscles(undertrained[:min(len(undertrained), 2)], ", "))) //nolint:mnd // two named muscles.
	}
	switch {
	case readiness <= lowReadiness:
		lines = append(lines, "Reduced intensity due to lower readiness score.")
	case readiness >= highReadiness:
		lines = append(lines, "You're well-recovered - optimizing for progress.")
	}
	lines = append(lines, fmt.Sprintf("%s intensity to match your current state.", intensity.Title()))
	return lines
}

func joinMuscles(muscles []MuscleGroup, sep string) string {
	s := make([]string, len(muscles))
	for i, m := range muscles {
		s[i] = string(m)
	}
	return strings.Join(s, sep)
}

// targetMusclesOf collects primary muscles in order of first appearance.
func targetMusclesOf(exercises []WorkoutExercise) []MuscleGroup {
	var out []MuscleGroup
	for _, we := range exercises {
		for _, m := range we.Exercise.PrimaryMuscles {
			if !containsMuscle(out, m) {
				out = append(out, m)
			}
		}
	}
	return out
}

// movementPatternsOf collects distinct movement patterns in order of first appearance.
func movementPatternsOf(exercises []WorkoutExercise) []MovementPattern {
	var out []MovementPattern
	seen := make(map[MovementPattern]bool)
	for _, we := range exercises {
		if p := we.Exercise.MovementPattern; !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
