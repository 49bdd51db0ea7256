package coach_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftcoach/internal/coach"
)

func TestWorkoutName(t *testing.T) {
	tests := []struct {
		focus []coach.MuscleGroup
		want  string
	}{
		{nil, "Full Body Workout"},
		{[]coach.MuscleGroup{coach.MuscleAbs}, "Core Focus"},
		{[]coach.MuscleGroup{coach.MuscleChest, coach.MuscleUpperBack}, "Chest & Upper Back"},
		{
			[]coach.MuscleGroup{coach.MuscleQuads, coach.MuscleGlutes, coach.MuscleHamstrings, coach.MuscleCalves},
			"Quads, Glutes & Hamstrings",
		},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := coach.WorkoutName(tt.focus); got != tt.want {
				t.Errorf("WorkoutName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRationale(t *testing.T) {
	tests := []struct {
		name         string
		focus        []coach.MuscleGroup
		undertrained []coach.MuscleGroup
		readiness    int
		intensity    coach.Intensity
		want         []string
	}{
		{
			name:      "low readiness",
			focus:     []coach.MuscleGroup{coach.MuscleChest},
			readiness: 2,
			intensity: coach.IntensityLight,
			want: []string{
				"Targeting chest based on your training balance.",
				"Reduced intensity due to lower readiness score.",
				"Light intensity to match your current state.",
			},
		},
		{
			name:         "well recovered",
			focus:        []coach.MuscleGroup{coach.MuscleQuads, coach.MuscleGlutes, coach.MuscleCalves, coach.MuscleAbs},
			undertrained: []coach.MuscleGroup{coach.MuscleQuads, coach.MuscleUpperBack, coach.MuscleCalves},
			readiness:    5,
			intensity:    coach.IntensityHard,
			want: []string{
				"Targeting quads, glutes, calves based on your training balance.",
				"Prioritizing undertrained muscles: quads, upper_back.",
				"You're well-recovered - optimizing for progress.",
				"Hard intensity to match your current state.",
			},
		},
		{
			name:      "no focus",
			readiness: 3,
			intensity: coach.IntensityModerate,
			want:      []string{"Moderate intensity to match your current state."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coach.Rationale(tt.focus, tt.undertrained, tt.readiness, tt.intensity)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rationale() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
