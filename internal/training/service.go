// Package training connects the coaching engine to storage. It loads the lifter's state, runs the engine, and
// persists what the engine produced.
package training

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/ptr"
	"github.com/myrjola/liftcoach/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// recentWindow is how far back logged exercises count as recent for selection.
const recentWindow = 7 * 24 * time.Hour

// ErrInvalidReadiness is returned when a readiness score is outside 1-5.
var ErrInvalidReadiness = errors.NewSentinel("invalid readiness")

// ErrExportDisabled is returned by ExportUserData when no export directory is configured.
var ErrExportDisabled = errors.NewSentinel("user data export disabled")

// Service handles the business logic of generating, logging, and progressing workouts.
type Service struct {
	repo      *repository
	generator *coach.Generator
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	exportDir string
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithServiceClock sets the time source for session timestamps and week boundaries.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithSessionIDGenerator sets the identifier source for logged sessions.
func WithSessionIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// WithExportDirectory sets where ExportUserData writes the lifters' databases. Exports are disabled without one.
func WithExportDirectory(dir string) ServiceOption {
	return func(s *Service) { s.exportDir = dir }
}

// NewService creates a new training service.
func NewService(db *sqlite.Database, generator *coach.Generator, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      newRepository(db, logger),
		generator: generator,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveProfile validates and stores the profile.
func (s *Service) SaveProfile(ctx context.Context, p coach.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user id", coach.ErrInvalidProfile)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate profile: %w", err)
	}
	if err := s.repo.profiles.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved profile", slog.String("user_id", p.UserID))
	return nil
}

// GetProfile retrieves the profile of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (coach.UserProfile, error) {
	p, err := s.repo.profiles.Get(ctx, s.repo.db.ReadOnly, userID)
	if err != nil {
		return coach.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GenerateWorkout generates and stores a workout for userID. A nil readiness uses the default score and a
// zero duration uses the profile's session length.
func (s *Service) GenerateWorkout(ctx context.Context, userID string, opts coach.Options, readiness *int) (
	coach.WorkoutTemplate, error) {
	score := ptr.Deref(readiness, coach.DefaultReadiness)
	if err := validateReadiness(score); err != nil {
		return coach.WorkoutTemplate{}, err
	}

	gc, err := s.loadContext(ctx, userID)
	if err != nil {
		return coach.WorkoutTemplate{}, fmt.Errorf("load training context: %w", err)
	}
	gc.ReadinessScore = score
	if opts.DurationMinutes == 0 {
		opts.DurationMinutes = gc.Profile.SessionDurationMinutes
	}

	var template coach.WorkoutTemplate
	if opts.IsMinimalDose {
		template = s.generator.GenerateMinimalDose(ctx, gc)
	} else {
		template = s.generator.Generate(ctx, opts, gc)
	}

	if err = s.repo.templates.Create(ctx, template); err != nil {
		return coach.WorkoutTemplate{}, fmt.Errorf("store template: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated workout",
		slog.String("user_id", userID),
		slog.String("template_id", template.ID),
		slog.String("intensity", string(template.Intensity)),
		slog.Int("exercises", len(template.Exercises)))
	return template, nil
}

// loadContext reads the lifter's state for generation. The queries are independent and run concurrently.
func (s *Service) loadContext(ctx context.Context, userID string) (coach.Context, error) {
	var (
		gc      coach.Context
		now     = s.now()
		readers = s.repo.db.ReadOnly
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.profiles.Get(gctx, readers, userID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		gc.Profile = p
		return nil
	})
	g.Go(func() error {
		v, err := s.repo.volume.Get(gctx, readers, userID, isoWeek(now))
		if err != nil {
			return fmt.Errorf("get muscle volume: %w", err)
		}
		gc.MuscleVolume = v
		return nil
	})
	g.Go(func() error {
		ps, err := s.repo.strength.List(gctx, readers, userID)
		if err != nil {
			return fmt.Errorf("list pattern strength: %w", err)
		}
		gc.PatternStrength = ps
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.sessions.RecentExerciseIDs(gctx, readers, userID, now.Add(-recentWindow))
		if err != nil {
			return fmt.Errorf("list recent exercises: %w", err)
		}
		gc.RecentExercises = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return coach.Context{}, err //nolint:wrapcheck // wrapped inside each goroutine.
	}
	return gc, nil
}

// GetTemplate retrieves a stored template.
func (s *Service) GetTemplate(ctx context.Context, id string) (coach.WorkoutTemplate, error) {
	t, err := s.repo.templates.Get(ctx, s.repo.db.ReadOnly, id)
	if err != nil {
		return coach.WorkoutTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// LockTemplate marks a template of userID as committed to. Templates of other lifters are reported as
// ErrNotFound.
func (s *Service) LockTemplate(ctx context.Context, userID, id string) error {
	if err := s.repo.templates.Lock(ctx, userID, id); err != nil {
		return fmt.Errorf("lock template: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "locked template",
		slog.String("user_id", userID),
		slog.String("template_id", id))
	return nil
}

// ExportUserData writes everything stored about userID into a standalone SQLite database and returns its path.
func (s *Service) ExportUserData(ctx context.Context, userID string) (string, error) {
	if s.exportDir == "" {
		return "", ErrExportDisabled
	}
	exists, err := s.repo.profiles.Exists(ctx, s.repo.db.ReadOnly, userID)
	if err != nil {
		return "", fmt.Errorf("check profile: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	path, err := s.repo.db.CreateUserDB(ctx, userID, s.exportDir)
	if err != nil {
		return "", fmt.Errorf("export user data: %w", err)
	}
	return path, nil
}

// LogSession scores a performed session and applies it to the lifter's state in one transaction: the
// effective sets are added to the current week's volume, each exercise's strength and e1RM history are
// updated, and stalled exercises are reported with a plateau intervention.
func (s *Service) LogSession(ctx context.Context, userID string, log SessionLog) (SessionResult, error) {
	exercises, err := s.resolveExercises(log)
	if err != nil {
		return SessionResult{}, err
	}
	performedAt := log.PerformedAt
	if performedAt.IsZero() {
		performedAt = s.now()
	}

	result := SessionResult{
		SessionID: s.newID(),
		Score:     coach.SessionScore{},
		Strength:  nil,
		Plateaus:  nil,
	}
	err = s.repo.db.WithTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.repo.profiles.Exists(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		if log.TemplateID != "" {
			var t coach.WorkoutTemplate
			if t, err = s.repo.templates.Get(ctx, tx, log.TemplateID); err != nil {
				return err
			}
			if t.UserID != userID {
				return fmt.Errorf("template %s of user %s: %w", log.TemplateID, userID, ErrNotFound)
			}
		}

		strength, err := s.repo.strength.List(ctx, tx, userID)
		if err != nil {
			return err
		}
		result.Score = coach.ScoreSession(exercises, strength)

		err = s.repo.sessions.Create(ctx, tx, storedSession{
			ID:          result.SessionID,
			UserID:      userID,
			TemplateID:  log.TemplateID,
			PerformedAt: performedAt,
			Readiness:   log.Readiness,
			Score:       result.Score,
			Exercises:   exercises,
		})
		if err != nil {
			return err
		}
		if err = s.repo.volume.Add(ctx, tx, userID, isoWeek(performedAt), result.Score.MuscleVolumeDelta); err != nil {
			return err
		}

		for _, le := range exercises {
			if err = s.progress(ctx, tx, userID, le, strength, performedAt, &result); err != nil {
				return fmt.Errorf("progress %s: %w", le.Exercise.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return SessionResult{}, fmt.Errorf("log session: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "logged session",
		slog.String("user_id", userID),
		slog.String("session_id", result.SessionID),
		slog.Float64("total_volume", result.Score.TotalVolume),
		slog.Int("personal_records", len(result.Score.PersonalRecords)),
		slog.Int("plateaus", len(result.Plateaus)))
	return result, nil
}

// progress records an exercise's top working set into its strength state, appends the session's best e1RM to
// the history, and checks the history for a plateau. Exposures therefore count sessions, not sets.
func (s *Service) progress(ctx context.Context, tx *sql.Tx, userID string, le coach.LoggedExercise,
	strength map[string]coach.PatternStrength, at time.Time, result *SessionResult) error {
	working := le.WorkingSets()
	if len(working) == 0 {
		return nil
	}
	top := working[0]
	for _, set := range working[1:] {
		if coach.CalculateE1RM(set.Weight, set.Reps) >= coach.CalculateE1RM(top.Weight, top.Reps) {
			top = set
		}
	}

	id := le.Exercise.ID
	ps, ok := strength[id]
	if !ok {
		ps = coach.PatternStrength{ExerciseID: id} //nolint:exhaustruct // zero state before the first exposure.
	}
	ps = ps.Record(top, at)
	strength[id] = ps
	result.Strength = append(result.Strength, ps)

	if err := s.repo.strength.Save(ctx, tx, userID, ps); err != nil {
		return err
	}
	if err := s.repo.strength.AppendE1RM(ctx, tx, userID, id, coach.CalculateE1RM(top.Weight, top.Reps), at); err != nil {
		return err
	}
	history, err := s.repo.strength.E1RMHistory(ctx, tx, userID, id, coach.PlateauWindow)
	if err != nil {
		return err
	}
	if plateau := coach.DetectPlateau(history); plateau.IsPlateau {
		result.Plateaus = append(result.Plateaus, PlateauReport{
			ExerciseID:   id,
			Reason:       plateau.Reason,
			Intervention: coach.GeneratePlateauIntervention(le.Exercise, ps),
		})
		s.logger.LogAttrs(ctx, slog.LevelInfo, "plateau detected",
			slog.String("user_id", userID),
			slog.String("exercise_id", id),
			slog.Int("exposures", ps.Exposures))
	}
	return nil
}

// resolveExercises looks up logged exercises in the catalog and rejects impossible sets. Entries repeating an
// exercise are merged into its first entry so that one session is one exposure.
func (s *Service) resolveExercises(log SessionLog) ([]coach.LoggedExercise, error) {
	if len(log.Exercises) == 0 {
		return nil, fmt.Errorf("%w: no exercises", ErrInvalidSession)
	}
	if log.Readiness != nil {
		if err := validateReadiness(*log.Readiness); err != nil {
			return nil, err
		}
	}
	exercises := make([]coach.LoggedExercise, 0, len(log.Exercises))
	positions := make(map[string]int, len(log.Exercises))
	for _, el := range log.Exercises {
		e, ok := s.generator.Catalog().Get(el.ExerciseID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, el.ExerciseID)
		}
		for i, set := range el.Sets {
			switch {
			case set.Weight < 0:
				return nil, fmt.Errorf("%w: %s set %d has negative weight", ErrInvalidSession, e.ID, i+1)
			case set.Reps < 0:
				return nil, fmt.Errorf("%w: %s set %d has negative reps", ErrInvalidSession, e.ID, i+1)
			case set.RPE != nil && (*set.RPE < 1 || *set.RPE > 10):
				return nil, fmt.Errorf("%w: %s set %d has RPE outside 1-10", ErrInvalidSession, e.ID, i+1)
			}
		}
		if at, seen := positions[e.ID]; seen {
			exercises[at].Sets = append(exercises[at].Sets, el.Sets...)
			continue
		}
		positions[e.ID] = len(exercises)
		exercises = append(exercises, coach.LoggedExercise{Exercise: e, Sets: slices.Clone(el.Sets)})
	}
	return exercises, nil
}

// SuggestNextWeight prescribes the next load for an exercise from its stored strength state and the last set.
func (s *Service) SuggestNextWeight(ctx context.Context, userID, exerciseID string, lastReps int, lastRPE float64) (
	coach.WeightSuggestion, error) {
	e, ok := s.generator.Catalog().Get(exerciseID)
	if !ok {
		return coach.WeightSuggestion{}, fmt.Errorf("%w: %q", ErrUnknownExercise, exerciseID)
	}
	ps, err := s.repo.strength.Get(ctx, s.repo.db.ReadOnly, userID, exerciseID)
	if err != nil {
		return coach.WeightSuggestion{}, fmt.Errorf("get pattern strength: %w", err)
	}
	return coach.SuggestNextWeight(ps, lastReps, lastRPE, e.DefaultReps), nil
}

// MuscleBalance reports the current week's volume of userID against the weekly targets.
func (s *Service) MuscleBalance(ctx context.Context, userID string) ([]coach.MuscleBalanceEntry, error) {
	readers := s.repo.db.ReadOnly
	exists, err := s.repo.profiles.Exists(ctx, readers, userID)
	if err != nil {
		return nil, fmt.Errorf("check profile: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	volume, err := s.repo.volume.Get(ctx, readers, userID, isoWeek(s.now()))
	if err != nil {
		return nil, fmt.Errorf("get muscle volume: %w", err)
	}
	return coach.MuscleBalance(volume, s.generator.Tuning()), nil
}

// FindSubstitute finds a replacement for exerciseID usable in the equipment context.
func (s *Service) FindSubstitute(ctx context.Context, exerciseID string, equipmentContext coach.EquipmentContext,
	exclude []string) (coach.Exercise, error) {
	catalog := s.generator.Catalog()
	original, ok := catalog.Get(exerciseID)
	if !ok {
		return coach.Exercise{}, fmt.Errorf("%w: %q", ErrUnknownExercise, exerciseID)
	}
	substitute, err := catalog.FindSubstitute(original, s.generator.Tuning().AvailableEquipment(equipmentContext),
		exclude)
	if err != nil {
		return coach.Exercise{}, fmt.Errorf("find substitute for %s: %w", exerciseID, err)
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "found substitute",
		slog.String("exercise_id", exerciseID),
		slog.String("substitute_id", substitute.ID))
	return substitute, nil
}

func validateReadiness(readiness int) error {
	if readiness < coach.MinReadiness || readiness > coach.MaxReadiness {
		return fmt.Errorf("%w: %d not in %d-%d", ErrInvalidReadiness, readiness, coach.MinReadiness, coach.MaxReadiness)
	}
	return nil
}
