package coach_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/ptr"
)

func TestParseRepRange(t *testing.T) {
	tests := []struct {
		in      string
		want    coach.RepRange
		wantErr bool
	}{
		{in: "8-12", want: coach.RepRange{Min: 8, Max: 12}},
		{in: " 5 - 5 ", want: coach.RepRange{Min: 5, Max: 5}},
		{in: "10", want: coach.RepRange{Min: 10, Max: 10}},
		{in: "12-8", wantErr: true},
		{in: "0-5", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := coach.ParseRepRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, coach.ErrInvalidRepRange) {
					t.Errorf("ParseRepRange(%q) error = %v, want %v", tt.in, err, coach.ErrInvalidRepRange)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepRange(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepRange(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepRange_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Reps coach.RepRange `json:"reps"`
	}{coach.RepRange{Min: 6, Max: 10}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"reps":"6-10"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestMuscleGroup_DisplayName(t *testing.T) {
	tests := map[coach.MuscleGroup]string{
		coach.MuscleChest:      "Chest",
		coach.MuscleUpperBack:  "Upper Back",
		coach.MuscleAbs:        "Core",
		coach.MuscleHipFlexors: "Hip Flexors",
	}
	for m, want := range tests {
		if got := m.DisplayName(); got != want {
			t.Errorf("%s.DisplayName() = %q, want %q", m, got, want)
		}
	}
}

func TestUserProfile_Validate(t *testing.T) {
	valid := coach.UserProfile{
		UserID:                 "u1",
		Goal:                   coach.GoalHypertrophy,
		Experience:             coach.DifficultyIntermediate,
		TrainingDaysPerWeek:    4,
		SessionDurationMinutes: 45,
		Equipment:              []coach.Equipment{coach.EquipmentDumbbells},
		Bodyweight:             ptr.Ref(80.0),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *coach.UserProfile)
	}{
		{"goal", func(p *coach.UserProfile) { p.Goal = "bulk" }},
		{"experience", func(p *coach.UserProfile) { p.Experience = "elite" }},
		{"too few days", func(p *coach.UserProfile) { p.TrainingDaysPerWeek = 1 }},
		{"too many days", func(p *coach.UserProfile) { p.TrainingDaysPerWeek = 7 }},
		{"duration", func(p *coach.UserProfile) { p.SessionDurationMinutes = 90 }},
		{"equipment", func(p *coach.UserProfile) { p.Equipment = []coach.Equipment{"rowing_boat"} }},
		{"movement", func(p *coach.UserProfile) {
			p.Constraints.ExcludedMovements = []coach.MovementPattern{"cartwheel"}
		}},
		{"bodyweight", func(p *coach.UserProfile) { p.Bodyweight = ptr.Ref(0.0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, coach.ErrInvalidProfile) {
				t.Errorf("Validate() error = %v, want %v", err, coach.ErrInvalidProfile)
			}
		})
	}
}

func TestEnumsValid(t *testing.T) {
	if diff := cmp.Diff(19, len(coach.AllMuscleGroups())); diff != "" {
		t.Errorf("muscle group count mismatch (-want +got):\n%s", diff)
	}
	for _, m := range coach.AllMuscleGroups() {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if coach.MuscleGroup("neck").Valid() {
		t.Error("neck should not be valid")
	}
	if coach.EquipmentContext("office").Valid() {
		t.Error("office should not be valid")
	}
}
