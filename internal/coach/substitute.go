package coach

import (
	"slices"

	"github.com/myrjola/liftcoach/internal/errors"
)

// ErrNoSubstitute is returned when no exercise can replace the requested one.
var ErrNoSubstitute = errors.NewSentinel("no substitute")

// FindSubstitute finds a replacement training the same primary muscles with the available equipment.
//
// Candidates with the same movement pattern are ranked by similarity: 2 for equal difficulty, 2 for equal
// category, and 1 per shared primary muscle. If none share the pattern, the first exercise in catalog order
// that shares a primary muscle is returned.
func (c *Catalog) FindSubstitute(original Exercise, available []Equipment, excludeIDs []string) (Exercise, error) {
	eligible := func(e Exercise) bool {
		return e.ID != original.ID &&
			!slices.Contains(excludeIDs, e.ID) &&
			countShared(e.PrimaryMuscles, original.PrimaryMuscles) > 0 &&
			e.UsableWith(available)
	}

	var (
		best      Exercise
		bestScore = -1
		fallback  *Exercise
	)
	for i, e := range c.exercises {
		if !eligible(e) {
			continue
		}
		if fallback == nil {
			fallback = &c.exercises[i]
		}
		if e.MovementPattern != original.MovementPattern {
			continue
		}
		score := countShared(e.PrimaryMuscles, original.PrimaryMuscles)
		if e.Difficulty == original.Difficulty {
			score += 2 //nolint:mnd // similarity weight.
		}
		if e.Category == original.Category {
			score += 2 //nolint:mnd // similarity weight.
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}

	switch {
	case bestScore >= 0:
		return best, nil
	case fallback != nil:
		return *fallback, nil
	default:
		return Exercise{}, ErrNoSubstitute
	}
}
