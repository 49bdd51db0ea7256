package coach

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/myrjola/liftcoach/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// ErrInvalidTuning is returned when tuning tables are incomplete or inconsistent.
var ErrInvalidTuning = errors.NewSentinel("invalid tuning")

// MuscleTarget is the weekly effective set range for one muscle group.
type MuscleTarget struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Budget is the number of exercise slots per block of a session.
type Budget struct {
	Warmup    int `json:"warmup"    yaml:"warmup"`
	Main      int `json:"main"      yaml:"main"`
	Accessory int `json:"accessory" yaml:"accessory"`
	Core      int `json:"core"      yaml:"core"`
}

// Total is the number of exercises the budget asks for.
func (b Budget) Total() int {
	return b.Warmup + b.Main + b.Accessory + b.Core
}

// IntensityFactors scale the prescription for one intensity tier.
type IntensityFactors struct {
	Volume float64 `yaml:"volume"`
	Rest   float64 `yaml:"rest"`
}

// RestSeconds are the base rest periods before the intensity factor is applied.
type RestSeconds struct {
	Compound int `yaml:"compound"`
	Other    int `yaml:"other"`
	Warmup   int `yaml:"warmup"`
}

// Tuning holds the programming tables the engine is parameterised with.
// Use [DefaultTuning] unless an alternate table is needed.
type Tuning struct {
	MuscleTargets        map[MuscleGroup]MuscleTarget     `yaml:"muscle_targets"`
	BaselineTrainingDays float64                          `yaml:"baseline_training_days"`
	EquipmentByContext   map[EquipmentContext][]Equipment `yaml:"equipment_by_context"`
	AllowedDifficulties  map[Difficulty][]Difficulty      `yaml:"allowed_difficulties"`
	DurationBudgets      map[int]Budget                   `yaml:"duration_budgets"`
	FallbackDuration     int                              `yaml:"fallback_duration"`
	GeneralWarmups       []string                         `yaml:"general_warmups"`
	MaxGeneralWarmups    int                              `yaml:"max_general_warmups"`
	FocusMuscleCount     int                              `yaml:"focus_muscle_count"`
	Intensity            map[Intensity]IntensityFactors   `yaml:"intensity"`
	RestSeconds          RestSeconds                      `yaml:"rest_seconds"`
	WarmupRPE            float64                          `yaml:"warmup_rpe"`
	AccessoryScoreWeight float64                          `yaml:"accessory_score_weight"`
}

// LoadTuning decodes and validates a YAML tuning table.
func LoadTuning(r io.Reader) (*Tuning, error) {
	var t Tuning
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTuningFile reads a tuning table from path.
func LoadTuningFile(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning %s: %w", path, err)
	}
	t, err := LoadTuning(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// DefaultTuning returns the built-in tables.
func DefaultTuning() *Tuning {
	t, err := LoadTuning(bytes.NewReader(defaultTuningYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded tuning: %v", err))
	}
	return t
}

// Validate checks that every lookup the engine performs will succeed.
func (t *Tuning) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidTuning, fmt.Sprintf(format, args...)))
	}
	for _, m := range AllMuscleGroups() {
		target, ok := t.MuscleTargets[m]
		if !ok {
			fail("no target for muscle %q", m)
			continue
		}
		if target.Min < 0 || target.Min > target.Max {
			fail("muscle %q target %v-%v", m, target.Min, target.Max)
		}
	}
	for m := range t.MuscleTargets {
		if !m.Valid() {
			fail("unknown muscle %q", m)
		}
	}
	if t.BaselineTrainingDays <= 0 {
		fail("baseline training days must be positive")
	}
	for _, c := range []EquipmentContext{ContextGym, ContextHome, ContextTravel, ContextMinimal} {
		if len(t.EquipmentByContext[c]) == 0 {
			fail("no equipment for context %q", c)
		}
	}
	for _, d := range []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced} {
		if !slices.Contains(t.AllowedDifficulties[d], d) {
			fail("experience %q must admit its own difficulty", d)
		}
	}
	if _, ok := t.DurationBudgets[t.FallbackDuration]; !ok {
		fail("no budget for fallback duration %d", t.FallbackDuration)
	}
	for d, b := range t.DurationBudgets {
		if b.Warmup < 0 || b.Main < 0 || b.Accessory < 0 || b.Core < 0 {
			fail("negative slot count for duration %d", d)
		}
	}
	if t.MaxGeneralWarmups < 0 {
		fail("max general warmups is negative")
	}
	if t.FocusMuscleCount <= 0 {
		fail("focus muscle count must be positive")
	}
	for _, i := range []Intensity{IntensityLight, IntensityModerate, IntensityHard} {
		f, ok := t.Intensity[i]
		if !ok || f.Volume <= 0 || f.Rest <= 0 {
			fail("missing or non-positive factors for intensity %q", i)
		}
	}
	if t.RestSeconds.Compound <= 0 || t.RestSeconds.Other <= 0 || t.RestSeconds.Warmup <= 0 {
		fail("rest seconds must be positive")
	}
	if t.AccessoryScoreWeight <= 0 {
		fail("accessory score weight must be positive")
	}
	return errors.Join(errs...)
}

// Budget returns the slot budget for a session length. Unsupported lengths get the fallback budget and
// ok is false.
func (t *Tuning) Budget(durationMinutes int) (Budget, bool) {
	if b, ok := t.DurationBudgets[durationMinutes]; ok {
		return b, true
	}
	return t.DurationBudgets[t.FallbackDuration], false
}

// SupportedDurations lists the session lengths with a dedicated budget in ascending order.
func (t *Tuning) SupportedDurations() []int {
	durations := make([]int, 0, len(t.DurationBudgets))
	for d := range t.DurationBudgets {
		durations = append(durations, d)
	}
	slices.Sort(durations)
	return durations
}

// AvailableEquipment returns the equipment assumed for a context.
func (t *Tuning) AvailableEquipment(c EquipmentContext) []Equipment {
	return t.EquipmentByContext[c]
}

// admits reports whether a lifter of the given experience may be given an exercise of difficulty d.
func (t *Tuning) admits(experience, d Difficulty) bool {
	return slices.Contains(t.AllowedDifficulties[experience], d)
}

func (t *Tuning) isGeneralWarmup(id string) bool {
	return slices.Contains(t.GeneralWarmups, id)
}
