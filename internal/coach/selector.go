package coach

import (
	"slices"
)

// Relevance score weights.
const (
	primaryMatchPoints    = 10
	secondaryMatchPoints  = 3
	compoundPoints        = 5
	noveltyPoints         = 3
	difficultyMatchPoints = 2
)

// Score rates how well an exercise fits the session:
//
//	10 per primary muscle in focus
//	 3 per secondary muscle in focus
//	 5 for compounds
//	 3 when not done recently
//	 2 when its difficulty equals the lifter's experience
//
// An empty experience never earns the difficulty bonus.
func Score(e Exercise, focus []MuscleGroup, recent []string, experience Difficulty) int {
	score := primaryMatchPoints*countShared(e.PrimaryMuscles, focus) +
		secondaryMatchPoints*countShared(e.SecondaryMuscles, focus)
	if e.Category == CategoryCompound {
		score += compoundPoints
	}
	if !slices.Contains(recent, e.ID) {
		score += noveltyPoints
	}
	if experience != "" && e.Difficulty == experience {
		score += difficultyMatchPoints
	}
	return score
}

// Selection is the set of exercises picked for each block of a session.
type Selection struct {
	Warmups     []Exercise
	Mains       []Exercise
	Accessories []Exercise
	Core        []Exercise
}

// Len is the number of selected exercises.
func (s Selection) Len() int {
	return len(s.Warmups) + len(s.Mains) + len(s.Accessories) + len(s.Core)
}

type scoredExercise struct {
	exercise Exercise
	score    float64
}

// rankByScore sorts by descending score keeping input order on ties.
func rankByScore(scored []scoredExercise) {
	slices.SortStableFunc(scored, func(a, b scoredExercise) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
}

// selector picks exercises from a pool already filtered by equipment, difficulty, and exclusions.
type selector struct {
	tuning     *Tuning
	shuffler   Shuffler
	pool       []Exercise
	focus      []MuscleGroup
	recent     []string
	experience Difficulty
}

func (s *selector) selectAll(budget Budget) Selection {
	mains := s.selectMains(budget.Main)
	return Selection{
		Warmups:     s.selectWarmups(budget.Warmup),
		Mains:       mains,
		Accessories: s.selectAccessories(budget.Accessory, mains),
		Core:        s.selectCore(budget.Core),
	}
}

// selectWarmups takes up to MaxGeneralWarmups random general warmups and fills the rest with random warmups
// that touch a focus muscle.
func (s *selector) selectWarmups(count int) []Exercise {
	var general, specific []Exercise
	for _, e := range s.pool {
		if e.Category != CategoryWarmup {
			continue
		}
		if s.tuning.isGeneralWarmup(e.ID) {
			general = append(general, e)
			continue
		}
		if s.touchesFocus(e) {
			specific = append(specific, e)
		}
	}

	selected := takeFirst(shuffled(s.shuffler, general), min(s.tuning.MaxGeneralWarmups, count))
	selected = append(selected, takeFirst(shuffled(s.shuffler, specific), count-len(selected))...)
	return selected
}

func (s *selector) touchesFocus(e Exercise) bool {
	return countShared(e.PrimaryMuscles, s.focus) > 0 || countShared(e.SecondaryMuscles, s.focus) > 0
}

// selectMains greedily takes the highest scoring compounds. Movement pattern variety only enters through
// the score inputs.
func (s *selector) selectMains(count int) []Exercise {
	var scored []scoredExercise
	for _, e := range s.pool {
		if e.Category != CategoryCompound {
			continue
		}
		scored = append(scored, scoredExercise{
			exercise: e,
			score:    float64(Score(e, s.focus, s.recent, s.experience)),
		})
	}
	rankByScore(scored)
	return topExercises(scored, count)
}

// selectAccessories ranks isolations and beginner compounds that were not already picked as mains.
// Accessory scores never get the difficulty bonus.
//
// Leaving out the mains differs from taking the plain top of the ranking: a beginner compound chosen as a main
// would otherwise rank first again and appear twice in the session, so the next candidate fills its slot.
func (s *selector) selectAccessories(count int, mains []Exercise) []Exercise {
	var scored []scoredExercise
	for _, e := range s.pool {
		isAccessory := e.Category == CategoryIsolation ||
			(e.Category == CategoryCompound && e.Difficulty == DifficultyBeginner)
		if !isAccessory || containsExercise(mains, e.ID) {
			continue
		}
		scored = append(scored, scoredExercise{
			exercise: e,
			score:    float64(Score(e, s.focus, s.recent, "")) * s.tuning.AccessoryScoreWeight,
		})
	}
	rankByScore(scored)
	return topExercises(scored, count)
}

// selectCore picks core exercises at random.
func (s *selector) selectCore(count int) []Exercise {
	var core []Exercise
	for _, e := range s.pool {
		if e.Category == CategoryCore {
			core = append(core, e)
		}
	}
	return takeFirst(shuffled(s.shuffler, core), count)
}

func topExercises(scored []scoredExercise, count int) []Exercise {
	count = max(min(count, len(scored)), 0)
	out := make([]Exercise, count)
	for i := range count {
		out[i] = scored[i].exercise
	}
	return out
}

func takeFirst(exercises []Exercise, n int) []Exercise {
	n = max(min(n, len(exercises)), 0)
	return exercises[:n:n]
}

func containsExercise(exercises []Exercise, id string) bool {
	return slices.ContainsFunc(exercises, func(e Exercise) bool { return e.ID == id })
}
