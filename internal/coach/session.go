package coach

// LoggedSet is one performed set.
type LoggedSet struct {
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	RPE       *float64 `json:"rpe,omitempty"`
	IsWarmup  bool     `json:"is_warmup"`
	IsDropSet bool     `json:"is_drop_set"`
}

// LoggedExercise is an exercise with the sets performed for it.
type LoggedExercise struct {
	Exercise Exercise    `json:"exercise"`
	Sets     []LoggedSet `json:"sets"`
}

// WorkingSets returns the non-warmup sets.
func (le LoggedExercise) WorkingSets() []LoggedSet {
	var out []LoggedSet
	for _, s := range le.Sets {
		if !s.IsWarmup {
			out = append(out, s)
		}
	}
	return out
}

// RecordType is what kind of personal record was set.
type RecordType string

// RecordE1RM is a new best estimated one-rep max.
const RecordE1RM RecordType = "e1rm"

// PersonalRecord is a best performance beaten in a session.
type PersonalRecord struct {
	ExerciseID    string     `json:"exercise_id"`
	Type          RecordType `json:"type"`
	Value         float64    `json:"value"`
	PreviousValue float64    `json:"previous_value"`
}

// SessionScore summarises a performed session.
type SessionScore struct {
	// TotalVolume is the sum of weight times reps over working sets.
	TotalVolume float64 `json:"total_volume"`
	// TotalSets counts every logged set including warmups.
	TotalSets int `json:"total_sets"`
	// MuscleVolumeDelta is the effective sets to add to the weekly volume.
	MuscleVolumeDelta MuscleVolume     `json:"muscle_volume_delta"`
	PersonalRecords   []PersonalRecord `json:"personal_records,omitempty"`
}

// secondaryCredit is the effective set credit a secondary muscle gets per working set.
const secondaryCredit = 0.5

// ScoreSession computes volume, effective sets per muscle, and e1RM records against strength, which may be nil.
func ScoreSession(exercises []LoggedExercise, strength map[string]PatternStrength) SessionScore {
	score := SessionScore{
		TotalVolume:       0,
		TotalSets:         0,
		MuscleVolumeDelta: MuscleVolume{},
		PersonalRecords:   nil,
	}

	for _, le := range exercises {
		score.TotalSets += len(le.Sets)
		working := le.WorkingSets()

		var best float64
		for _, s := range working {
			score.TotalVolume += s.Weight * float64(s.Reps)
			best = max(best, CalculateE1RM(s.Weight, s.Reps))
		}

		n := float64(len(working))
		if n > 0 {
			for _, m := range le.Exercise.PrimaryMuscles {
				score.MuscleVolumeDelta[m] += n
			}
			for _, m := range le.Exercise.SecondaryMuscles {
				score.MuscleVolumeDelta[m] += n * secondaryCredit
			}
		}

		if ps, ok := strength[le.Exercise.ID]; ok && ps.EstimatedOneRepMax > 0 && best > ps.EstimatedOneRepMax {
			score.PersonalRecords = append(score.PersonalRecords, PersonalRecord{
				ExerciseID:    le.Exercise.ID,
				Type:          RecordE1RM,
				Value:         best,
				PreviousValue: ps.EstimatedOneRepMax,
			})
		}
	}
	return score
}
