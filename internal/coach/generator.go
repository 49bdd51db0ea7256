package coach

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Minimal dose sessions are short bodyweight sessions for busy days.
const (
	MinimalDoseDurationMinutes = 20
	MinimalDoseContext         = ContextMinimal
	MinimalDoseIntensity       = IntensityModerate
)

// Options are the per-request generation parameters.
type Options struct {
	DurationMinutes  int
	EquipmentContext EquipmentContext
	// Intensity is the requested tier before readiness adjustment. Empty means moderate.
	Intensity Intensity
	// TargetMuscles overrides the undertrained focus when not empty.
	TargetMuscles    []MuscleGroup
	ExcludeExercises []string
	IsMinimalDose    bool
}

// Context is the lifter's state at generation time. It is read but never modified.
type Context struct {
	Profile         UserProfile
	MuscleVolume    MuscleVolume
	PatternStrength map[string]PatternStrength
	RecentExercises []string
	ReadinessScore  int
}

// Generator builds workout templates from a catalog and tuning tables.
type Generator struct {
	catalog  *Catalog
	tuning   *Tuning
	shuffler Shuffler
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithClock sets the timestamp source for GeneratedAt.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithIDGenerator sets the identifier source for templates and their exercises.
func WithIDGenerator(newID func() string) GeneratorOption {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator constructs a Generator. Identifiers default to random UUIDs and timestamps to time.Now.
func NewGenerator(
	catalog *Catalog,
	tuning *Tuning,
	shuffler Shuffler,
	logger *slog.Logger,
	opts ...GeneratorOption,
) *Generator {
	g := &Generator{
		catalog:  catalog,
		tuning:   tuning,
		shuffler: shuffler,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the exercise catalog the generator selects from.
func (g *Generator) Catalog() *Catalog {
	return g.catalog
}

// Tuning returns the tables the generator is parameterised with.
func (g *Generator) Tuning() *Tuning {
	return g.tuning
}

// Generate builds a workout template.
//
// Generation never fails. Blocks the catalog cannot fill are left short, and unsupported durations fall back
// to the default budget. Both are reported in the template's Warnings.
func (g *Generator) Generate(ctx context.Context, opts Options, gc Context) WorkoutTemplate {
	var warnings []string

	budget, supported := g.tuning.Budget(opts.DurationMinutes)
	if !supported {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "unsupported workout duration, using fallback budget",
			slog.Int("duration", opts.DurationMinutes),
			slog.Int("fallback", g.tuning.FallbackDuration))
		warnings = append(warnings, fmt.Sprintf("Unsupported duration of %d minutes, using the %d-minute plan.",
			opts.DurationMinutes, g.tuning.FallbackDuration))
	}

	requested := opts.Intensity
	if requested == "" {
		requested = IntensityModerate
	}
	if !requested.Valid() {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "unknown intensity, using moderate",
			slog.String("intensity", string(requested)))
		warnings = append(warnings, fmt.Sprintf("Unknown intensity %q, using moderate.", requested))
		requested = IntensityModerate
	}
	if !opts.EquipmentContext.Valid() {
		warnings = append(warnings, fmt.Sprintf("Unknown equipment context %q.", opts.EquipmentContext))
	}

	undertrained := RankUndertrainedMuscles(gc.MuscleVolume, gc.Profile.TrainingDaysPerWeek, g.tuning)
	focus := opts.TargetMuscles
	if len(focus) == 0 {
		focus = undertrained[:min(len(undertrained), g.tuning.FocusMuscleCount)]
	}
	intensity := AdjustIntensity(requested, gc.ReadinessScore)

	sel := &selector{
		tuning:     g.tuning,
		shuffler:   g.shuffler,
		pool:       g.candidates(opts, gc.Profile),
		focus:      focus,
		recent:     gc.RecentExercises,
		experience: gc.Profile.Experience,
	}
	selection := sel.selectAll(budget)
	warnings = append(warnings, shortfallWarnings(selection, budget)...)

	exercises := g.prescribe(selection, intensity, gc.PatternStrength)

	template := WorkoutTemplate{
		ID:                g.newID(),
		UserID:            gc.Profile.UserID,
		Name:              WorkoutName(focus),
		Description:       fmt.Sprintf("%s intensity %d-minute workout", intensity.Title(), opts.DurationMinutes),
		Exercises:         exercises,
		EstimatedDuration: opts.DurationMinutes,
		TargetMuscles:     targetMusclesOf(exercises),
		MovementPatterns:  movementPatternsOf(exercises),
		EquipmentContext:  opts.EquipmentContext,
		Intensity:         intensity,
		Rationale:         Rationale(focus, undertrained, gc.ReadinessScore, intensity),
		Warnings:          warnings,
		GeneratedAt:       g.now(),
		IsLocked:          false,
		IsMinimalDose:     opts.IsMinimalDose,
	}

	g.logger.LogAttrs(ctx, slog.LevelDebug, "generated workout",
		slog.String("template_id", template.ID),
		slog.String("name", template.Name),
		slog.String("intensity", string(intensity)),
		slog.Int("exercises", len(exercises)),
		slog.Int("warnings", len(warnings)))

	return template
}

// GenerateMinimalDose builds a 20-minute moderate bodyweight session.
func (g *Generator) GenerateMinimalDose(ctx context.Context, gc Context) WorkoutTemplate {
	return g.Generate(ctx, Options{
		DurationMinutes:  MinimalDoseDurationMinutes,
		EquipmentContext: MinimalDoseContext,
		Intensity:        MinimalDoseIntensity,
		TargetMuscles:    nil,
		ExcludeExercises: nil,
		IsMinimalDose:    true,
	}, gc)
}

// candidates filters the catalog by equipment, difficulty, and the lifter's exclusions.
func (g *Generator) candidates(opts Options, profile UserProfile) []Exercise {
	var pool []Exercise
	for _, e := range g.catalog.ByEquipment(g.tuning.AvailableEquipment(opts.EquipmentContext)) {
		switch {
		case !g.tuning.admits(profile.Experience, e.Difficulty):
		case slices.Contains(opts.ExcludeExercises, e.ID):
		case slices.Contains(profile.Constraints.ExcludedExercises, e.ID):
		case slices.Contains(profile.Constraints.ExcludedMovements, e.MovementPattern):
		default:
			pool = append(pool, e)
		}
	}
	return pool
}

// prescribe orders the selection as warmups, mains, accessories, then core and attaches the prescription.
func (g *Generator) prescribe(sel Selection, intensity Intensity, strength map[string]PatternStrength) []WorkoutExercise {
	p := prescription{tuning: g.tuning, intensity: intensity, strength: strength}
	out := make([]WorkoutExercise, 0, sel.Len())
	add := func(exercises []Exercise, isWarmup bool) {
		for _, e := range exercises {
			out = append(out, p.workoutExercise(g.newID(), e, len(out), isWarmup))
		}
	}
	add(sel.Warmups, true)
	add(sel.Mains, false)
	add(sel.Accessories, false)
	add(sel.Core, false)
	return out
}

func shortfallWarnings(sel Selection, budget Budget) []string {
	blocks := []struct {
		name string
		got  int
		want int
	}{
		{"warmup", len(sel.Warmups), budget.Warmup},
		{"main", len(sel.Mains), budget.Main},
		{"accessory", len(sel.Accessories), budget.Accessory},
		{"core", len(sel.Core), budget.Core},
	}
	var warnings []string
	for _, b := range blocks {
		if b.got < b.want {
			warnings = append(warnings, fmt.Sprintf("Only %d of %d %s exercises available with this equipment.",
				b.got, b.want, b.name))
		}
	}
	return warnings
}
