package coach

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/myrjola/liftcoach/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when catalog data breaks an invariant.
var ErrInvalidCatalog = errors.NewSentinel("invalid catalog")

// Catalog is the read-only exercise library.
type Catalog struct {
	exercises []Exercise
	index     map[string]int
}

type catalogFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

// NewCatalog validates exercises and builds a catalog preserving their order.
func NewCatalog(exercises []Exercise) (*Catalog, error) {
	c := &Catalog{
		exercises: make([]Exercise, 0, len(exercises)),
		index:     make(map[string]int, len(exercises)),
	}
	var errs []error
	for _, e := range exercises {
		if err := validateExercise(e); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.index[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate exercise id %q", ErrInvalidCatalog, e.ID))
			continue
		}
		c.index[e.ID] = len(c.exercises)
		c.exercises = append(c.exercises, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func validateExercise(e Exercise) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: exercise %q: %s", ErrInvalidCatalog, e.ID, fmt.Sprintf(format, args...)))
	}
	if e.ID == "" {
		fail("missing id")
	}
	if e.Name == "" {
		fail("missing name")
	}
	if len(e.PrimaryMuscles) == 0 {
		fail("no primary muscles")
	}
	for _, m := range e.PrimaryMuscles {
		if !m.Valid() {
			fail("unknown primary muscle %q", m)
		}
		if containsMuscle(e.SecondaryMuscles, m) {
			fail("muscle %q is both primary and secondary", m)
		}
	}
	for _, m := range e.SecondaryMuscles {
		if !m.Valid() {
			fail("unknown secondary muscle %q", m)
		}
	}
	if !e.MovementPattern.Valid() {
		fail("unknown movement pattern %q", e.MovementPattern)
	}
	if !e.Category.Valid() {
		fail("unknown category %q", e.Category)
	}
	if !e.Difficulty.Valid() {
		fail("unknown difficulty %q", e.Difficulty)
	}
	if len(e.Equipment) == 0 {
		fail("no equipment alternatives")
	}
	for _, eq := range e.Equipment {
		if !eq.Valid() {
			fail("unknown equipment %q", eq)
		}
	}
	if e.DefaultSets <= 0 {
		fail("default sets must be positive")
	}
	if e.DefaultReps.Min <= 0 || e.DefaultReps.Min > e.DefaultReps.Max {
		fail("bad default reps %s", e.DefaultReps)
	}
	if e.DefaultRPE < 1 || e.DefaultRPE > 10 {
		fail("default rpe %v out of 1-10", e.DefaultRPE)
	}
	for _, v := range e.Variations {
		if v == "" {
			fail("empty variation name")
		}
	}
	return errors.Join(errs...)
}

// LoadCatalog decodes a YAML exercise catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c, err := NewCatalog(f.Exercises)
	if err != nil {
		return nil, fmt.Errorf("new catalog: %w", err)
	}
	return c, nil
}

// LoadCatalogFile reads a YAML exercise catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// DefaultCatalog returns the built-in exercise library.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// All returns a copy of every exercise in catalog order.
func (c *Catalog) All() []Exercise {
	out := make([]Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}

// Get looks up an exercise by id.
func (c *Catalog) Get(id string) (Exercise, bool) {
	i, ok := c.index[id]
	if !ok {
		return Exercise{}, false
	}
	return c.exercises[i], true
}

// ByEquipment returns the exercises usable with at least one of the available equipment categories.
func (c *Catalog) ByEquipment(available []Equipment) []Exercise {
	var out []Exercise
	for _, e := range c.exercises {
		if e.UsableWith(available) {
			out = append(out, e)
		}
	}
	return out
}
