// Package coach implements the strength coaching engine: exercise selection, workout assembly,
// muscle volume accounting, and progressive overload.
//
// Everything in this package is a pure function of its inputs. Storage, clocks, and randomness are supplied by
// the caller so that generation can be reproduced in tests.
package coach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/myrjola/liftcoach/internal/errors"
	"gopkg.in/yaml.v3"
)

// MuscleGroup is a trackable muscle group.
type MuscleGroup string

// Muscle groups in canonical order. Ranking ties are broken by this order.
const (
	MuscleChest      MuscleGroup = "chest"
	MuscleFrontDelts MuscleGroup = "front_delts"
	MuscleSideDelts  MuscleGroup = "side_delts"
	MuscleRearDelts  MuscleGroup = "rear_delts"
	MuscleTriceps    MuscleGroup = "triceps"
	MuscleBiceps     MuscleGroup = "biceps"
	MuscleForearms   MuscleGroup = "forearms"
	MuscleUpperBack  MuscleGroup = "upper_back"
	MuscleLats       MuscleGroup = "lats"
	MuscleLowerBack  MuscleGroup = "lower_back"
	MuscleTraps      MuscleGroup = "traps"
	MuscleAbs        MuscleGroup = "abs"
	MuscleObliques   MuscleGroup = "obliques"
	MuscleQuads      MuscleGroup = "quads"
	MuscleHamstrings MuscleGroup = "hamstrings"
	MuscleGlutes     MuscleGroup = "glutes"
	MuscleCalves     MuscleGroup = "calves"
	MuscleHipFlexors MuscleGroup = "hip_flexors"
	MuscleAdductors  MuscleGroup = "adductors"
)

// AllMuscleGroups returns every muscle group in canonical order.
func AllMuscleGroups() []MuscleGroup {
	return []MuscleGroup{
		MuscleChest, MuscleFrontDelts, MuscleSideDelts, MuscleRearDelts,
		MuscleTriceps, MuscleBiceps, MuscleForearms,
		MuscleUpperBack, MuscleLats, MuscleLowerBack, MuscleTraps,
		MuscleAbs, MuscleObliques,
		MuscleQuads, MuscleHamstrings, MuscleGlutes, MuscleCalves, MuscleHipFlexors, MuscleAdductors,
	}
}

// Valid reports whether m is a known muscle group.
func (m MuscleGroup) Valid() bool {
	for _, known := range AllMuscleGroups() {
		if m == known {
			return true
		}
	}
	return false
}

// DisplayName is the title used in workout names. Abs are presented as Core.
func (m MuscleGroup) DisplayName() string {
	if m == MuscleAbs {
		return "Core"
	}
	words := strings.Split(string(m), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MovementPattern classifies the joint action of an exercise.
type MovementPattern string

const (
	PatternHorizontalPush MovementPattern = "horizontal_push"
	PatternHorizontalPull MovementPattern = "horizontal_pull"
	PatternVerticalPush   MovementPattern = "vertical_push"
	PatternVerticalPull   MovementPattern = "vertical_pull"
	PatternSquat          MovementPattern = "squat"
	PatternHinge          MovementPattern = "hinge"
	PatternLunge          MovementPattern = "lunge"
	PatternCarry          MovementPattern = "carry"
	PatternCore           MovementPattern = "core"
	PatternIsolation      MovementPattern = "isolation"
)

// Valid reports whether p is a known movement pattern.
func (p MovementPattern) Valid() bool {
	switch p {
	case PatternHorizontalPush, PatternHorizontalPull, PatternVerticalPush, PatternVerticalPull,
		PatternSquat, PatternHinge, PatternLunge, PatternCarry, PatternCore, PatternIsolation:
		return true
	}
	return false
}

// Equipment is a category of training equipment.
type Equipment string

const (
	EquipmentFullGym     Equipment = "full_gym"
	EquipmentBarbell     Equipment = "barbell"
	EquipmentDumbbells   Equipment = "dumbbells"
	EquipmentKettlebells Equipment = "kettlebells"
	EquipmentMachines    Equipment = "machines"
	EquipmentCables      Equipment = "cables"
	EquipmentBands       Equipment = "bands"
	EquipmentBodyweight  Equipment = "bodyweight"
)

// Valid reports whether e is a known equipment category.
func (e Equipment) Valid() bool {
	switch e {
	case EquipmentFullGym, EquipmentBarbell, EquipmentDumbbells, EquipmentKettlebells,
		EquipmentMachines, EquipmentCables, EquipmentBands, EquipmentBodyweight:
		return true
	}
	return false
}

// EquipmentContext is where the workout takes place.
type EquipmentContext string

const (
	ContextGym     EquipmentContext = "gym"
	ContextHome    EquipmentContext = "home"
	ContextTravel  EquipmentContext = "travel"
	ContextMinimal EquipmentContext = "minimal"
)

// Valid reports whether c is a known equipment context.
func (c EquipmentContext) Valid() bool {
	switch c {
	case ContextGym, ContextHome, ContextTravel, ContextMinimal:
		return true
	}
	return false
}

// Difficulty is the technical demand of an exercise and also the experience tier of a lifter.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Category is the role an exercise plays in a session.
type Category string

const (
	CategoryCompound  Category = "compound"
	CategoryIsolation Category = "isolation"
	CategoryWarmup    Category = "warmup"
	CategoryCore      Category = "core"
	CategoryCardio    Category = "cardio"
	CategoryMobility  Category = "mobility"
)

// Valid reports whether c is a known exercise category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCompound, CategoryIsolation, CategoryWarmup, CategoryCore, CategoryCardio, CategoryMobility:
		return true
	}
	return false
}

// Goal is the lifter's primary training goal.
type Goal string

const (
	GoalStrength       Goal = "strength"
	GoalHypertrophy    Goal = "hypertrophy"
	GoalGeneralFitness Goal = "general_fitness"
)

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	switch g {
	case GoalStrength, GoalHypertrophy, GoalGeneralFitness:
		return true
	}
	return false
}

// ErrInvalidRepRange is returned when a rep range cannot be parsed.
var ErrInvalidRepRange = errors.NewSentinel("invalid rep range")

// RepRange is an inclusive target repetition range such as 8-12.
type RepRange struct {
	Min int
	Max int
}

// ParseRepRange parses "min-max" or a single number meaning min == max.
func ParseRepRange(s string) (RepRange, error) {
	s = strings.TrimSpace(s)
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}
	minReps, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return RepRange{}, fmt.Errorf("%w: %q", ErrInvalidRepRange, s)
	}
	maxReps, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return RepRange{}, fmt.Errorf("%w: %q", ErrInvalidRepRange, s)
	}
	if minReps <= 0 || minReps > maxReps {
		return RepRange{}, fmt.Errorf("%w: %q", ErrInvalidRepRange, s)
	}
	return RepRange{Min: minReps, Max: maxReps}, nil
}

func (r RepRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// MarshalText encodes the range in its "min-max" form for JSON payloads.
func (r RepRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes the "min-max" form.
func (r *RepRange) UnmarshalText(text []byte) error {
	parsed, err := ParseRepRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML decodes the "min-max" form used in catalog files.
func (r *RepRange) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("decode rep range: %w", err)
	}
	return r.UnmarshalText([]byte(s))
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID                   string          `json:"id"                          yaml:"id"`
	Name                 string          `json:"name"                        yaml:"name"`
	PrimaryMuscles       []MuscleGroup   `json:"primary_muscles"             yaml:"primary_muscles"`
	SecondaryMuscles     []MuscleGroup   `json:"secondary_muscles"           yaml:"secondary_muscles"`
	MovementPattern      MovementPattern `json:"movement_pattern"            yaml:"movement_pattern"`
	Equipment            []Equipment     `json:"equipment"                   yaml:"equipment"`
	Difficulty           Difficulty      `json:"difficulty"                  yaml:"difficulty"`
	Category             Category        `json:"category"                    yaml:"category"`
	Instructions         string          `json:"instructions,omitempty"      yaml:"instructions"`
	Cues                 []string        `json:"cues,omitempty"              yaml:"cues"`
	Variations           []string        `json:"variations,omitempty"        yaml:"variations"`
	Regressions          []string        `json:"regressions,omitempty"       yaml:"regressions"`
	Progressions         []string        `json:"progressions,omitempty"      yaml:"progressions"`
	Contraindications    []string        `json:"contraindications,omitempty" yaml:"contraindications"`
	DefaultSets          int             `json:"default_sets"                yaml:"default_sets"`
	DefaultReps          RepRange        `json:"default_reps"                yaml:"default_reps"`
	DefaultRPE           float64         `json:"default_rpe"                 yaml:"default_rpe"`
	EstimatedTimeSeconds int             `json:"estimated_time_seconds"      yaml:"estimated_time_seconds"`
}

// HasMuscle reports whether the exercise trains m as a primary or secondary muscle.
func (e Exercise) HasMuscle(m MuscleGroup) bool {
	return containsMuscle(e.PrimaryMuscles, m) || containsMuscle(e.SecondaryMuscles, m)
}

// UsableWith reports whether at least one of the exercise's equipment alternatives is available.
func (e Exercise) UsableWith(available []Equipment) bool {
	for _, eq := range e.Equipment {
		for _, a := range available {
			if eq == a {
				return true
			}
		}
	}
	return false
}

func containsMuscle(muscles []MuscleGroup, m MuscleGroup) bool {
	for _, x := range muscles {
		if x == m {
			return true
		}
	}
	return false
}

// countShared returns how many muscles in a are also in b.
func countShared(a, b []MuscleGroup) int {
	n := 0
	for _, m := range a {
		if containsMuscle(b, m) {
			n++
		}
	}
	return n
}

// ErrInvalidProfile is returned when a user profile has out-of-range fields.
var ErrInvalidProfile = errors.NewSentinel("invalid profile")

// Constraints restrict what the generator may pick for a lifter.
type Constraints struct {
	ExcludedExercises []string          `json:"excluded_exercises"`
	ExcludedMovements []MovementPattern `json:"excluded_movements"`
	Injuries          []string          `json:"injuries"`
	Preferences       []string          `json:"preferences"`
}

// EstimatedMaxes are self-reported one-rep maxes captured at onboarding.
type EstimatedMaxes struct {
	Bench         *float64 `json:"bench,omitempty"`
	Squat         *float64 `json:"squat,omitempty"`
	Deadlift      *float64 `json:"deadlift,omitempty"`
	OverheadPress *float64 `json:"overhead_press,omitempty"`
}

// Training days and session length bounds accepted by [UserProfile.Validate].
const (
	MinTrainingDays = 2
	MaxTrainingDays = 6
)

// UserProfile describes the lifter. The engine only reads it.
type UserProfile struct {
	UserID                 string         `json:"user_id"`
	Goal                   Goal           `json:"goal"`
	Experience             Difficulty     `json:"experience"`
	TrainingDaysPerWeek    int            `json:"training_days_per_week"`
	SessionDurationMinutes int            `json:"session_duration_minutes"`
	Equipment              []Equipment    `json:"equipment"`
	Constraints            Constraints    `json:"constraints"`
	Bodyweight             *float64       `json:"bodyweight,omitempty"`
	EstimatedMaxes         EstimatedMaxes `json:"estimated_maxes"`
}

// Validate reports every out-of-range field as one joined error wrapping [ErrInvalidProfile].
func (p UserProfile) Validate() error {
	var errs []error
	if !p.Goal.Valid() {
		errs = append(errs, fmt.Errorf("%w: goal %q", ErrInvalidProfile, p.Goal))
	}
	if !p.Experience.Valid() {
		errs = append(errs, fmt.Errorf("%w: experience %q", ErrInvalidProfile, p.Experience))
	}
	if p.TrainingDaysPerWeek < MinTrainingDays || p.TrainingDaysPerWeek > MaxTrainingDays {
		errs = append(errs, fmt.Errorf("%w: training days per week %d not in %d-%d",
			ErrInvalidProfile, p.TrainingDaysPerWeek, MinTrainingDays, MaxTrainingDays))
	}
	switch p.SessionDurationMinutes {
	case 20, 30, 45, 60: //nolint:mnd // supported session lengths.
	default:
		errs = append(errs, fmt.Errorf("%w: session duration %d", ErrInvalidProfile, p.SessionDurationMinutes))
	}
	for _, eq := range p.Equipment {
		if !eq.Valid() {
			errs = append(errs, fmt.Errorf("%w: equipment %q", ErrInvalidProfile, eq))
		}
	}
	for _, mp := range p.Constraints.ExcludedMovements {
		if !mp.Valid() {
			errs = append(errs, fmt.Errorf("%w: excluded movement %q", ErrInvalidProfile, mp))
		}
	}
	if p.Bodyweight != nil && *p.Bodyweight <= 0 {
		errs = append(errs, fmt.Errorf("%w: bodyweight must be positive", ErrInvalidProfile))
	}
	return errors.Join(errs...)
}
