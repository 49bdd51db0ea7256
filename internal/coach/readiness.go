package coach

import (
	"math"
	"strings"
)

// Intensity is the session intensity tier.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityHard     Intensity = "hard"
)

// Valid reports whether i is a known tier.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityLight, IntensityModerate, IntensityHard:
		return true
	}
	return false
}

// Title returns the tier with an upper-case first letter, e.g. "Moderate".
func (i Intensity) Title() string {
	if i == "" {
		return ""
	}
	return strings.ToUpper(string(i[:1])) + string(i[1:])
}

// Readiness bounds and the thresholds of the adjustment table.
const (
	MinReadiness     = 1
	MaxReadiness     = 5
	DefaultReadiness = 4

	lowReadiness  = 2
	highReadiness = 4
	fairReadiness = 3
)

// AdjustIntensity overrides the requested tier based on readiness:
//
//   - readiness <= 2 always gives light,
//   - readiness >= 4 escalates moderate to hard,
//   - readiness <= 3 de-escalates hard to moderate.
//
// Everything else passes through unchanged.
func AdjustIntensity(requested Intensity, readiness int) Intensity {
	switch {
	case readiness <= lowReadiness:
		return IntensityLight
	case readiness >= highReadiness && requested == IntensityModerate:
		return IntensityHard
	case readiness <= fairReadiness && requested == IntensityHard:
		return IntensityModerate
	default:
		return requested
	}
}

// ReadinessCheck is a pre-workout self-report. All fields are 1-5. Higher soreness and stress are worse.
type ReadinessCheck struct {
	SleepQuality int `json:"sleep_quality"`
	EnergyLevel  int `json:"energy_level"`
	Soreness     int `json:"soreness"`
	StressLevel  int `json:"stress_level"`
}

// Score folds the check into a 1-5 readiness score.
func (c ReadinessCheck) Score() int {
	inverse := MaxReadiness + 1
	sum := clampReadiness(c.SleepQuality) +
		clampReadiness(c.EnergyLevel) +
		(inverse - clampReadiness(c.Soreness)) +
		(inverse - clampReadiness(c.StressLevel))
	mean := float64(sum) / 4                           //nolint:mnd // four signals.
	return clampReadiness(int(math.Floor(mean + 0.5))) //nolint:mnd // round half up.
}

func clampReadiness(v int) int {
	return min(max(v, MinReadiness), MaxReadiness)
}
