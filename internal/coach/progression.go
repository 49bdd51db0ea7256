package coach

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Progression constants.
const (
	// Reps at max within the range at or below this RPE earns a weight increase.
	ProgressionMaxRPE = 8
	// At or above this RPE the weight is held.
	GrindRPE = 9.5

	HeavyWeightThreshold = 100
	StandardIncrement    = 2.5
	LargeIncrement       = 5.0

	// PlateauWindow is how many e1RM samples plateau detection looks at.
	PlateauWindow = 4
	// PlateauThreshold is the coefficient of variation below which the window counts as flat.
	PlateauThreshold = 0.02

	// trendTolerance is the relative e1RM change treated as noise when classifying a trend.
	trendTolerance = 0.01
)

// Trend classifies the direction of an exercise's estimated strength.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendPlateau   Trend = "plateau"
	TrendDeclining Trend = "declining"
)

// PatternStrength is the rolling strength state for one exercise.
type PatternStrength struct {
	ExerciseID         string    `json:"exercise_id"`
	EstimatedOneRepMax float64   `json:"estimated_one_rep_max"`
	LastWeight         float64   `json:"last_weight"`
	LastReps           int       `json:"last_reps"`
	LastRPE            *float64  `json:"last_rpe,omitempty"`
	Exposures          int       `json:"exposures"`
	Trend              Trend     `json:"trend"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Record returns the state after a working set. The estimated max keeps the best value seen and the trend
// compares the new estimate against it.
func (ps PatternStrength) Record(set LoggedSet, at time.Time) PatternStrength {
	e1rm := CalculateE1RM(set.Weight, set.Reps)
	previous := ps.EstimatedOneRepMax

	next := ps
	next.LastWeight = set.Weight
	next.LastReps = set.Reps
	next.LastRPE = nil
	if set.RPE != nil {
		rpe := *set.RPE
		next.LastRPE = &rpe
	}
	next.Exposures++
	next.UpdatedAt = at
	next.EstimatedOneRepMax = math.Max(previous, e1rm)

	switch {
	case e1rm > previous*(1+trendTolerance):
		next.Trend = TrendImproving
	case e1rm < previous*(1-trendTolerance):
		next.Trend = TrendDeclining
	default:
		next.Trend = TrendPlateau
	}
	return next
}

// CalculateE1RM estimates the one-rep max with the Epley formula. A single rep is already a one-rep max.
func CalculateE1RM(weight float64, reps int) float64 {
	if reps <= 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30) //nolint:mnd // Epley.
}

// WeightSuggestion is the load prescribed for the next exposure.
type WeightSuggestion struct {
	Weight    float64  `json:"weight"`
	Reps      RepRange `json:"reps"`
	Rationale string   `json:"rationale"`
}

// SuggestNextWeight prescribes the next load from the last set:
//
//   - reps at or above the range max at RPE 8 or lower adds 5 above 100 and 2.5 otherwise,
//   - reps below the range min or RPE 9.5 or higher holds the weight,
//   - anything else holds the weight and keeps building reps.
func SuggestNextWeight(ps PatternStrength, lastReps int, lastRPE float64, target RepRange) WeightSuggestion {
	current := ps.LastWeight

	if lastReps >= target.Max && lastRPE <= ProgressionMaxRPE {
		increase := StandardIncrement
		if current > HeavyWeightThreshold {
			increase = LargeIncrement
		}
		return WeightSuggestion{
			Weight: current + increase,
			Reps:   target,
			Rationale: fmt.Sprintf("You hit %d reps at RPE %s. Time to increase weight by %slbs.",
				lastReps, formatNumber(lastRPE), formatNumber(increase)),
		}
	}

	if lastReps < target.Min || lastRPE >= GrindRPE {
		return WeightSuggestion{
			Weight:    current,
			Reps:      target,
			Rationale: "Maintaining weight to build strength at this load before progressing.",
		}
	}

	return WeightSuggestion{
		Weight:    current,
		Reps:      target,
		Rationale: "Good progress! Continue building reps at current weight.",
	}
}

// PlateauResult is the outcome of [DetectPlateau].
type PlateauResult struct {
	IsPlateau bool   `json:"is_plateau"`
	Reason    string `json:"reason,omitempty"`
}

// DetectPlateau flags a plateau when the population standard deviation of the last four e1RM samples is
// under 2% of their mean. Fewer samples never flag.
func DetectPlateau(e1rms []float64) PlateauResult {
	if len(e1rms) < PlateauWindow {
		return PlateauResult{IsPlateau: false, Reason: ""}
	}
	recent := e1rms[len(e1rms)-PlateauWindow:]

	var sum float64
	for _, v := range recent {
		sum += v
	}
	mean := sum / float64(len(recent))
	if mean <= 0 {
		return PlateauResult{IsPlateau: false, Reason: ""}
	}

	var squared float64
	for _, v := range recent {
		squared += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(squared / float64(len(recent)))

	if stddev/mean < PlateauThreshold {
		return PlateauResult{
			IsPlateau: true,
			Reason: fmt.Sprintf("e1RM has been flat at ~%dlbs for %d sessions.",
				int(math.Round(mean)), len(recent)),
		}
	}
	return PlateauResult{IsPlateau: false, Reason: ""}
}

// InterventionType names a plateau-breaking strategy.
type InterventionType string

const (
	InterventionBackoff       InterventionType = "backoff"
	InterventionRepChange     InterventionType = "rep_change"
	InterventionVariationSwap InterventionType = "variation_swap"
	InterventionDeload        InterventionType = "deload"
)

// Intervention is a suggestion for breaking a plateau.
type Intervention struct {
	Type        InterventionType `json:"type"`
	Description string           `json:"description"`
	// Exercises names the suggested variations for a variation swap.
	Exercises []string `json:"exercises,omitempty"`
}

// GeneratePlateauIntervention cycles backoff, rep change, variation swap, and deload by exposure count.
func GeneratePlateauIntervention(e Exercise, ps PatternStrength) Intervention {
	const maxVariations = 2
	variations := e.Variations[:min(len(e.Variations), maxVariations)]

	interventions := []Intervention{
		{
			Type:        InterventionBackoff,
			Description: "Take a backoff set: reduce weight by 10-15% and do 2 extra reps.",
			Exercises:   nil,
		},
		{
			Type:        InterventionRepChange,
			Description: "Switch rep scheme: if doing 5x5, try 3x8. Different stimulus same muscle.",
			Exercises:   nil,
		},
		{
			Type:        InterventionVariationSwap,
			Description: fmt.Sprintf("Try a variation: %s.", strings.Join(variations, " or ")),
			Exercises:   append([]string(nil), variations...),
		},
		{
			Type:        InterventionDeload,
			Description: "Mini-deload: reduce volume by 40% this week, then return to normal.",
			Exercises:   nil,
		},
	}

	n := len(interventions)
	return interventions[((ps.Exposures%n)+n)%n]
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
