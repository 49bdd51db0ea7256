package coach_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftcoach/internal/coach"
)

func TestRankUndertrainedMuscles(t *testing.T) {
	tuning := coach.DefaultTuning()

	t.Run("empty volume at three days", func(t *testing.T) {
		got := coach.RankUndertrainedMuscles(coach.MuscleVolume{}, 3, tuning) //nolint:mnd // days.
		want := []coach.MuscleGroup{
			coach.MuscleChest, coach.MuscleUpperBack, coach.MuscleLats, coach.MuscleQuads,
			coach.MuscleSideDelts, coach.MuscleRearDelts, coach.MuscleAbs, coach.MuscleHamstrings,
			coach.MuscleGlutes, coach.MuscleCalves,
			coach.MuscleFrontDelts, coach.MuscleTriceps, coach.MuscleBiceps, coach.MuscleLowerBack, coach.MuscleTraps,
			coach.MuscleForearms, coach.MuscleObliques, coach.MuscleAdductors,
			coach.MuscleHipFlexors,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("RankUndertrainedMuscles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("muscles at target are left out", func(t *testing.T) {
		volume := coach.MuscleVolume{}
		for _, m := range coach.AllMuscleGroups() {
			volume[m] = 20
		}
		volume[coach.MuscleBiceps] = 1
		volume[coach.MuscleCalves] = 7
		got := coach.RankUndertrainedMuscles(volume, 4, tuning) //nolint:mnd // days.
		if diff := cmp.Diff([]coach.MuscleGroup{coach.MuscleBiceps, coach.MuscleCalves}, got); diff != "" {
			t.Errorf("RankUndertrainedMuscles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("more volume never ranks a muscle earlier", func(t *testing.T) {
		base := coach.MuscleVolume{coach.MuscleChest: 2, coach.MuscleQuads: 4}
		before := coach.RankUndertrainedMuscles(base, 4, tuning) //nolint:mnd // days.
		after := coach.RankUndertrainedMuscles(base.Add(coach.MuscleVolume{coach.MuscleChest: 3}), 4, tuning)

		beforeIdx := slices.Index(before, coach.MuscleChest)
		afterIdx := slices.Index(after, coach.MuscleChest)
		if afterIdx < beforeIdx {
			t.Errorf("chest moved from %d to %d after adding volume", beforeIdx, afterIdx)
		}
	})
}

func TestMuscleVolume_Add(t *testing.T) {
	base := coach.MuscleVolume{coach.MuscleChest: 2}
	got := base.Add(coach.MuscleVolume{coach.MuscleChest: 1.5, coach.MuscleTriceps: 0.5})

	want := coach.MuscleVolume{coach.MuscleChest: 3.5, coach.MuscleTriceps: 0.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Add() mismatch (-want +got):\n%s", diff)
	}
	if base[coach.MuscleChest] != 2 {
		t.Errorf("Add() modified receiver: %v", base)
	}
}

func TestMuscleBalance(t *testing.T) {
	volume := coach.MuscleVolume{
		coach.MuscleChest:      12,
		coach.MuscleTriceps:    6,
		coach.MuscleBiceps:     2,
		coach.MuscleForearms:   9,
		coach.MuscleHipFlexors: 1.5,
	}
	levels := map[coach.MuscleGroup]int{}
	for _, e := range coach.MuscleBalance(volume, coach.DefaultTuning()) {
		levels[e.Muscle] = e.Level
	}

	tests := map[coach.MuscleGroup]int{
		coach.MuscleChest:      3,
		coach.MuscleTriceps:    2,
		coach.MuscleBiceps:     1,
		coach.MuscleForearms:   coach.BalanceOver,
		coach.MuscleHipFlexors: 0,
		coach.MuscleCalves:     0,
	}
	for m, want := range tests {
		if got := levels[m]; got != want {
			t.Errorf("level of %s = %d, want %d", m, got, want)
		}
	}
	if len(levels) != len(coach.AllMuscleGroups()) {
		t.Errorf("got %d entries, want one per muscle group", len(levels))
	}
}
