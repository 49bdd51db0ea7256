package coach

import (
	"slices"
)

// MuscleVolume maps a muscle group to effective sets accumulated in the current week.
// Missing muscle groups have zero volume.
type MuscleVolume map[MuscleGroup]float64

// Add returns a new volume with delta added. Neither receiver nor delta is modified.
func (v MuscleVolume) Add(delta MuscleVolume) MuscleVolume {
	out := make(MuscleVolume, len(v)+len(delta))
	for m, sets := range v {
		out[m] = sets
	}
	for m, sets := range delta {
		out[m] += sets
	}
	return out
}

// RankUndertrainedMuscles orders muscles below their weekly minimum by deficit, largest first.
//
// The minimum is scaled linearly by trainingDaysPerWeek relative to the baseline split. Muscles at or above
// the scaled minimum are left out. Equal deficits keep canonical muscle order.
func RankUndertrainedMuscles(volume MuscleVolume, trainingDaysPerWeek int, tuning *Tuning) []MuscleGroup {
	weeklyFactor := float64(trainingDaysPerWeek) / tuning.BaselineTrainingDays

	type deficit struct {
		muscle MuscleGroup
		sets   float64
	}
	var deficits []deficit
	for _, m := range AllMuscleGroups() {
		target, ok := tuning.MuscleTargets[m]
		if !ok {
			continue
		}
		adjustedMin := target.Min * weeklyFactor
		if done := volume[m]; done < adjustedMin {
			deficits = append(deficits, deficit{muscle: m, sets: adjustedMin - done})
		}
	}

	slices.SortStableFunc(deficits, func(a, b deficit) int {
		switch {
		case a.sets > b.sets:
			return -1
		case a.sets < b.sets:
			return 1
		default:
			return 0
		}
	})

	ranked := make([]MuscleGroup, len(deficits))
	for i, d := range deficits {
		ranked[i] = d.muscle
	}
	return ranked
}

// BalanceOver marks a muscle trained beyond its weekly maximum.
const BalanceOver = -1

// Effective set thresholds for the balance levels 1, 2, and 3.
const (
	balanceLowSets    = 2
	balanceMediumSets = 6
	balanceHighSets   = 10
)

// MuscleBalanceEntry summarises one muscle group's weekly volume.
type MuscleBalanceEntry struct {
	Muscle        MuscleGroup  `json:"muscle"`
	EffectiveSets float64      `json:"effective_sets"`
	Target        MuscleTarget `json:"target"`
	// Level is 0-3 by effective sets or BalanceOver when above the target maximum.
	Level int `json:"level"`
}

// Over reports whether the muscle exceeded its weekly maximum.
func (e MuscleBalanceEntry) Over() bool {
	return e.Level == BalanceOver
}

// MuscleBalance returns one entry per muscle group in canonical order.
func MuscleBalance(volume MuscleVolume, tuning *Tuning) []MuscleBalanceEntry {
	entries := make([]MuscleBalanceEntry, 0, len(AllMuscleGroups()))
	for _, m := range AllMuscleGroups() {
		sets := volume[m]
		target := tuning.MuscleTargets[m]
		entries = append(entries, MuscleBalanceEntry{
			Muscle:        m,
			EffectiveSets: sets,
			Target:        target,
			Level:         balanceLevel(sets, target),
		})
	}
	return entries
}

func balanceLevel(sets float64, target MuscleTarget) int {
	switch {
	case sets > target.Max:
		return BalanceOver
	case sets >= balanceHighSets:
		return 3 //nolint:mnd // top level.
	case sets >= balanceMediumSets:
		return 2 //nolint:mnd // middle level.
	case sets >= balanceLowSets:
		return 1
	default:
		return 0
	}
}
