package coach

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testExercise(id string, category Category, primary, secondary []MuscleGroup) Exercise {
	return Exercise{
		ID:               id,
		Name:             id,
		PrimaryMuscles:   primary,
		SecondaryMuscles: secondary,
		MovementPattern:  PatternIsolation,
		Equipment:        []Equipment{EquipmentBodyweight},
		Difficulty:       DifficultyBeginner,
		Category:         category,
		DefaultSets:      3,
		DefaultReps:      RepRange{Min: 8, Max: 12},
		DefaultRPE:       7,
	}
}

func ids(exercises []Exercise) []string {
	out := make([]string, len(exercises))
	for i, e := range exercises {
		out[i] = e.ID
	}
	return out
}

func TestScore(t *testing.T) {
	row := testExercise("row", CategoryCompound,
		[]MuscleGroup{MuscleUpperBack}, []MuscleGroup{MuscleLats, MuscleBiceps})
	focus := []MuscleGroup{MuscleChest, MuscleUpperBack, MuscleLats}

	tests := []struct {
		name       string
		recent     []string
		experience Difficulty
		want       int
	}{
		{"all bonuses", nil, DifficultyBeginner, 10 + 3 + 5 + 3 + 2},
		{"recent", []string{"row"}, DifficultyBeginner, 10 + 3 + 5 + 2},
		{"other difficulty", nil, DifficultyAdvanced, 10 + 3 + 5 + 3},
		{"no experience", nil, "", 10 + 3 + 5 + 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Score(row, focus, tt.recent, tt.experience)
			second := Score(row, focus, tt.recent, tt.experience)
			if first != tt.want || second != tt.want {
				t.Errorf("Score() = %d, %d, want %d", first, second, tt.want)
			}
		})
	}
}

func TestSelector(t *testing.T) {
	tuning := DefaultTuning()
	chest := []MuscleGroup{MuscleChest}
	pool := []Exercise{
		testExercise("arm-circles", CategoryWarmup, []MuscleGroup{MuscleSideDelts}, nil),
		testExercise("leg-swings", CategoryWarmup, []MuscleGroup{MuscleHipFlexors}, nil),
		testExercise("hip-circles", CategoryWarmup, []MuscleGroup{MuscleHipFlexors}, nil),
		testExercise("scap-push", CategoryWarmup, []MuscleGroup{MuscleUpperBack}, chest),
		testExercise("calf-warmup", CategoryWarmup, []MuscleGroup{MuscleCalves}, nil),
		testExercise("squat", CategoryCompound, []MuscleGroup{MuscleQuads}, nil),
		testExercise("press", CategoryCompound, chest, []MuscleGroup{MuscleTriceps}),
		testExercise("fly", CategoryIsolation, chest, nil),
		testExercise("curl", CategoryIsolation, []MuscleGroup{MuscleBiceps}, nil),
		testExercise("plank", CategoryCore, []MuscleGroup{MuscleAbs}, nil),
		testExercise("side-plank", CategoryCore, []MuscleGroup{MuscleObliques}, nil),
	}
	s := &selector{
		tuning:     tuning,
		shuffler:   NewSeededShuffler(1),
		pool:       pool,
		focus:      chest,
		recent:     nil,
		experience: DifficultyBeginner,
	}

	sel := s.selectAll(Budget{Warmup: 4, Main: 1, Accessory: 2, Core: 1})

	if diff := cmp.Diff([]string{"press"}, ids(sel.Mains)); diff != "" {
		t.Errorf("mains mismatch (-want +got):\n%s", diff)
	}
	// The press is a beginner compound but already a main.
	if diff := cmp.Diff([]string{"fly", "squat"}, ids(sel.Accessories)); diff != "" {
		t.Errorf("accessories mismatch (-want +got):\n%s", diff)
	}
	// Ranked without the mains, the press would take the first accessory slot.
	if diff := cmp.Diff([]string{"press", "fly"}, ids(s.selectAccessories(2, nil))); diff != "" {
		t.Errorf("accessories without mains mismatch (-want +got):\n%s", diff)
	}
	if len(sel.Core) != 1 {
		t.Errorf("got %d core exercises, want 1", len(sel.Core))
	}

	// Two general warmups, one focus warmup. The calf warmup misses the focus.
	if len(sel.Warmups) != 3 {
		t.Fatalf("got warmups %v, want 3", ids(sel.Warmups))
	}
	var general int
	for _, w := range sel.Warmups[:2] {
		if tuning.isGeneralWarmup(w.ID) {
			general++
		}
	}
	if general != 2 {
		t.Errorf("first two warmups %v should be general", ids(sel.Warmups[:2]))
	}
	if sel.Warmups[2].ID != "scap-push" {
		t.Errorf("specific warmup = %s, want scap-push", sel.Warmups[2].ID)
	}
}

func TestSelector_TiesKeepPoolOrder(t *testing.T) {
	pool := []Exercise{
		testExercise("a", CategoryIsolation, []MuscleGroup{MuscleBiceps}, nil),
		testExercise("b", CategoryIsolation, []MuscleGroup{MuscleBiceps}, nil),
		testExercise("c", CategoryIsolation, []MuscleGroup{MuscleBiceps}, nil),
	}
	s := &selector{
		tuning:     DefaultTuning(),
		shuffler:   NewSeededShuffler(1),
		pool:       pool,
		focus:      []MuscleGroup{MuscleBiceps},
		recent:     []string{"a"},
		experience: DifficultyBeginner,
	}
	if diff := cmp.Diff([]string{"b", "c"}, ids(s.selectAccessories(2, nil))); diff != "" {
		t.Errorf("accessories mismatch (-want +got):\n%s", diff)
	}
}

func TestShuffled_DoesNotModifyInput(t *testing.T) {
	in := []Exercise{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	_ = shuffled(NewSeededShuffler(42), in) //nolint:mnd // seed.
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, ids(in)); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}

	first := ids(shuffled(NewSeededShuffler(7), in))  //nolint:mnd // seed.
	second := ids(shuffled(NewSeededShuffler(7), in)) //nolint:mnd // seed.
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("equal seeds gave different permutations (-first +second):\n%s", diff)
	}
}
