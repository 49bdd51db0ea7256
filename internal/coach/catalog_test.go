package coach_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftcoach/internal/coach"
)

func validExercise(id string) coach.Exercise {
	return coach.Exercise{
		ID:               id,
		Name:             strings.ToUpper(id),
		PrimaryMuscles:   []coach.MuscleGroup{coach.MuscleChest},
		SecondaryMuscles: []coach.MuscleGroup{coach.MuscleTriceps},
		MovementPattern:  coach.PatternHorizontalPush,
		Equipment:        []coach.Equipment{coach.EquipmentBodyweight},
		Difficulty:       coach.DifficultyBeginner,
		Category:         coach.CategoryCompound,
		DefaultSets:      3,
		DefaultReps:      coach.RepRange{Min: 8, Max: 12},
		DefaultRPE:       7,
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := coach.DefaultCatalog()
	if c.Len() == 0 {
		t.Fatal("expected exercises in default catalog")
	}

	for _, id := range coach.DefaultTuning().GeneralWarmups {
		e, ok := c.Get(id)
		if !ok {
			t.Errorf("general warmup %q missing from catalog", id)
			continue
		}
		if e.Category != coach.CategoryWarmup {
			t.Errorf("general warmup %q has category %q", id, e.Category)
		}
	}

	categories := map[coach.Category]int{}
	for _, e := range c.All() {
		categories[e.Category]++
	}
	for _, cat := range []coach.Category{
		coach.CategoryWarmup, coach.CategoryCompound, coach.CategoryIsolation, coach.CategoryCore,
	} {
		if categories[cat] == 0 {
			t.Errorf("no %s exercises in default catalog", cat)
		}
	}
}

func TestNewCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *coach.Exercise)
	}{
		{
			name:   "overlapping muscles",
			mutate: func(e *coach.Exercise) { e.SecondaryMuscles = append(e.SecondaryMuscles, coach.MuscleChest) },
		},
		{
			name:   "unknown movement pattern",
			mutate: func(e *coach.Exercise) { e.MovementPattern = "twist" },
		},
		{
			name:   "no equipment",
			mutate: func(e *coach.Exercise) { e.Equipment = nil },
		},
		{
			name:   "inverted rep range",
			mutate: func(e *coach.Exercise) { e.DefaultReps = coach.RepRange{Min: 12, Max: 8} },
		},
		{
			name:   "unknown category",
			mutate: func(e *coach.Exercise) { e.Category = "stretching" },
		},
		{
			name:   "empty variation",
			mutate: func(e *coach.Exercise) { e.Variations = []string{""} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExercise("push")
			tt.mutate(&e)
			_, err := coach.NewCatalog([]coach.Exercise{e})
			if !errors.Is(err, coach.ErrInvalidCatalog) {
				t.Errorf("NewCatalog() error = %v, want %v", err, coach.ErrInvalidCatalog)
			}
		})
	}

	t.Run("duplicate id", func(t *testing.T) {
		_, err := coach.NewCatalog([]coach.Exercise{validExercise("push"), validExercise("push")})
		if !errors.Is(err, coach.ErrInvalidCatalog) {
			t.Errorf("NewCatalog() error = %v, want %v", err, coach.ErrInvalidCatalog)
		}
	})
}

func TestCatalog_ByEquipment(t *testing.T) {
	band := validExercise("band")
	band.Equipment = []coach.Equipment{coach.EquipmentBands}
	either := validExercise("either")
	either.Equipment = []coach.Equipment{coach.EquipmentDumbbells, coach.EquipmentBodyweight}
	bar := validExercise("bar")
	bar.Equipment = []coach.Equipment{coach.EquipmentBarbell}

	c, err := coach.NewCatalog([]coach.Exercise{band, either, bar})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	tests := []struct {
		name      string
		available []coach.Equipment
		want      []string
	}{
		{"bodyweight", []coach.Equipment{coach.EquipmentBodyweight}, []string{"either"}},
		{"travel", []coach.Equipment{coach.EquipmentBands, coach.EquipmentBodyweight}, []string{"band", "either"}},
		{"nothing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range c.ByEquipment(tt.available) {
				got = append(got, e.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ByEquipment() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	const catalogYAML = `
exercises:
  - id: push-up
    name: Push-Up
    primary_muscles: [chest]
    secondary_muscles: [triceps]
    movement_pattern: horizontal_push
    equipment: [bodyweight]
    difficulty: beginner
    category: compound
    default_sets: 3
    default_reps: 8-15
    default_rpe: 7
`
	c, err := coach.LoadCatalog(strings.NewReader(catalogYAML))
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	e, ok := c.Get("push-up")
	if !ok {
		t.Fatal("push-up not found")
	}
	if diff := cmp.Diff(coach.RepRange{Min: 8, Max: 15}, e.DefaultReps); diff != "" {
		t.Errorf("DefaultReps mismatch (-want +got):\n%s", diff)
	}

	_, err = coach.LoadCatalog(strings.NewReader("exercises:\n  - id: x\n    colour: red\n"))
	if err == nil {
		t.Error("expected error for unknown field")
	}
}
