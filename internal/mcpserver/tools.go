package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/myrjola/liftcoach/internal/coach"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/training"
)

var errInvalidArgument = errors.NewSentinel("invalid argument")

// --- Tool definitions ---

//nolint:gochecknoglobals // shared property options.
var (
	userIDOption = mcp.WithString("user_id", mcp.Required(), mcp.Description("Identifier of the lifter"))
	stringItems  = mcp.Items(map[string]any{"type": "string"})
)

//nolint:gochecknoglobals // tool definitions.
var toolSaveProfile = mcp.NewTool("save_profile",
	mcp.WithDescription("Create or replace the lifter's profile. Workouts are generated from it."),
	userIDOption,
	mcp.WithString("goal", mcp.Required(), mcp.Enum("strength", "hypertrophy", "general_fitness")),
	mcp.WithString("experience", mcp.Required(), mcp.Enum("beginner", "intermediate", "advanced")),
	mcp.WithNumber("training_days_per_week", mcp.Required(), mcp.Min(coach.MinTrainingDays),
		mcp.Max(coach.MaxTrainingDays)),
	mcp.WithNumber("session_duration_minutes", mcp.Required(), mcp.Description("One of 20, 30, 45, or 60")),
	mcp.WithArray("equipment", mcp.Description("Owned equipment categories"), mcp.Items(map[string]any{
		"type": "string",
		"enum": []string{"full_gym", "barbell", "dumbbells", "kettlebells", "machines", "cables", "bands", "bodyweight"},
	})),
	mcp.WithObject("constraints", mcp.Description("Exercises and movements to avoid"), mcp.Properties(map[string]any{
		"excluded_exercises": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"excluded_movements": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"injuries":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"preferences":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	})),
	mcp.WithNumber("bodyweight", mcp.Description("Bodyweight in lbs")),
	mcp.WithObject("estimated_maxes", mcp.Description("Self-reported one-rep maxes in lbs"),
		mcp.Properties(map[string]any{
			"bench":          map[string]any{"type": "number"},
			"squat":          map[string]any{"type": "number"},
			"deadlift":       map[string]any{"type": "number"},
			"overhead_press": map[string]any{"type": "number"},
		})),
)

//nolint:gochecknoglobals // tool definitions.
var toolGenerateWorkout = mcp.NewTool("generate_workout",
	mcp.WithDescription("Generate a workout focused on the lifter's most undertrained muscles this week. "+
		"Readiness is either given directly or computed from the four check-in answers."),
	userIDOption,
	mcp.WithNumber("duration_minutes", mcp.Description("20, 30, 45, or 60. Defaults to the profile's session length.")),
	mcp.WithString("equipment_context", mcp.Description("Where the workout happens. Defaults to gym."),
		mcp.Enum("gym", "home", "travel", "minimal")),
	mcp.WithString("intensity", mcp.Description("Requested intensity before readiness adjustment. Defaults to moderate."),
		mcp.Enum("light", "moderate", "hard")),
	mcp.WithArray("target_muscles", mcp.Description("Muscle groups to focus instead of the undertrained ones"),
		stringItems),
	mcp.WithArray("exclude_exercises", mcp.Description("Exercise IDs to leave out"), stringItems),
	mcp.WithBoolean("minimal_dose", mcp.Description("Generate a 20-minute bodyweight session instead")),
	mcp.WithNumber("readiness", mcp.Description("Readiness score 1-5"), mcp.Min(coach.MinReadiness),
		mcp.Max(coach.MaxReadiness)),
	mcp.WithNumber("sleep_quality", mcp.Description("Check-in 1-5, higher is better")),
	mcp.WithNumber("energy_level", mcp.Description("Check-in 1-5, higher is better")),
	mcp.WithNumber("soreness", mcp.Description("Check-in 1-5, higher is worse")),
	mcp.WithNumber("stress_level", mcp.Description("Check-in 1-5, higher is worse")),
)

//nolint:gochecknoglobals // tool definitions.
var toolLockWorkout = mcp.NewTool("lock_workout",
	mcp.WithDescription("Lock a generated workout once the lifter commits to it."),
	userIDOption,
	mcp.WithString("template_id", mcp.Required(), mcp.Description("ID returned by generate_workout")),
)

//nolint:gochecknoglobals // tool definitions.
var toolLogSession = mcp.NewTool("log_session",
	mcp.WithDescription("Log a performed session. Updates weekly muscle volume and strength, and reports "+
		"personal records and plateaus."),
	userIDOption,
	mcp.WithString("template_id", mcp.Description("The workout the session followed, if any")),
	mcp.WithString("performed_at", mcp.Description("RFC 3339 timestamp. Defaults to now.")),
	mcp.WithNumber("readiness", mcp.Description("Readiness score 1-5 reported before the session")),
	mcp.WithArray("exercises", mcp.Required(), mcp.Description("Exercises in the order performed"),
		mcp.Items(map[string]any{
			"type":     "object",
			"required": []string{"exercise_id", "sets"},
			"properties": map[string]any{
				"exercise_id": map[string]any{"type": "string"},
				"sets": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"weight", "reps"},
						"properties": map[string]any{
							"weight":      map[string]any{"type": "number"},
							"reps":        map[string]any{"type": "integer"},
							"rpe":         map[string]any{"type": "number"},
							"is_warmup":   map[string]any{"type": "boolean"},
							"is_drop_set": map[string]any{"type": "boolean"},
						},
					},
				},
			},
		})),
)

//nolint:gochecknoglobals // tool definitions.
var toolSuggestNextWeight = mcp.NewTool("suggest_next_weight",
	mcp.WithDescription("Suggest the load for the next exposure of an exercise from its last working set."),
	userIDOption,
	mcp.WithString("exercise_id", mcp.Required()),
	mcp.WithNumber("last_reps", mcp.Required(), mcp.Description("Reps performed in the last working set")),
	mcp.WithNumber("last_rpe", mcp.Required(), mcp.Description("RPE of the last working set")),
)

//nolint:gochecknoglobals // tool definitions.
var toolMuscleBalance = mcp.NewTool("muscle_balance",
	mcp.WithDescription("Effective sets per muscle group this week against the weekly targets."),
	userIDOption,
)

//nolint:gochecknoglobals // tool definitions.
var toolFindSubstitute = mcp.NewTool("find_substitute",
	mcp.WithDescription("Find a replacement for an exercise that trains the same muscles with the equipment at hand."),
	mcp.WithString("exercise_id", mcp.Required()),
	mcp.WithString("equipment_context", mcp.Description("Defaults to gym."), mcp.Enum("gym", "home", "travel", "minimal")),
	mcp.WithArray("exclude", mcp.Description("Exercise IDs that must not be suggested"), stringItems),
)

//nolint:gochecknoglobals // tool definitions.
var toolExportUserData = mcp.NewTool("export_user_data",
	mcp.WithDescription("Write everything stored about the lifter into a SQLite database file and return its path."),
	userIDOption,
)

// --- Tool handlers ---

func (h *handlers) saveProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var profile coach.UserProfile
	if err := req.BindArguments(&profile); err != nil {
		return h.fail(ctx, "decode profile", fmt.Errorf("%w: %w", errInvalidArgument, err)), nil
	}
	if err := h.svc.SaveProfile(ctx, profile); err != nil {
		return h.fail(ctx, "save profile", err), nil
	}
	return jsonResult(profile)
}

func (h *handlers) generateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	opts, err := parseOptions(req)
	if err != nil {
		return h.fail(ctx, "parse options", err), nil
	}
	readiness, err := parseReadiness(req)
	if err != nil {
		return h.fail(ctx, "parse readiness", err), nil
	}

	template, err := h.svc.GenerateWorkout(ctx, userID, opts, readiness)
	if err != nil {
		return h.fail(ctx, "generate workout", err), nil
	}
	return jsonResult(template)
}

func parseOptions(req mcp.CallToolRequest) (coach.Options, error) {
	opts := coach.Options{
		DurationMinutes:  req.GetInt("duration_minutes", 0),
		EquipmentContext: coach.EquipmentContext(req.GetString("equipment_context", string(coach.ContextGym))),
		Intensity:        coach.Intensity(req.GetString("intensity", string(coach.IntensityModerate))),
		TargetMuscles:    nil,
		ExcludeExercises: req.GetStringSlice("exclude_exercises", nil),
		IsMinimalDose:    req.GetBool("minimal_dose", false),
	}
	if !opts.EquipmentContext.Valid() {
		return coach.Options{}, fmt.Errorf("%w: equipment_context %q", errInvalidArgument, opts.EquipmentContext)
	}
	if !opts.Intensity.Valid() {
		return coach.Options{}, fmt.Errorf("%w: intensity %q", errInvalidArgument, opts.Intensity)
	}
	for _, name := range req.GetStringSlice("target_muscles", nil) {
		muscle := coach.MuscleGroup(name)
		if !muscle.Valid() {
			return coach.Options{}, fmt.Errorf("%w: muscle group %q", errInvalidArgument, name)
		}
		opts.TargetMuscles = append(opts.TargetMuscles, muscle)
	}
	return opts, nil
}

// parseReadiness prefers an explicit score and otherwise scores a complete check-in. Nil means neither was
// given.
func parseReadiness(req mcp.CallToolRequest) (*int, error) {
	args := req.GetArguments()
	if _, ok := args["readiness"]; ok {
		readiness := req.GetInt("readiness", coach.DefaultReadiness)
		return &readiness, nil
	}

	answers := []string{"sleep_quality", "energy_level", "soreness", "stress_level"}
	var given int
	for _, key := range answers {
		if _, ok := args[key]; ok {
			given++
		}
	}
	switch given {
	case 0:
		return nil, nil //nolint:nilnil // no readiness reported.
	case len(answers):
		check := coach.ReadinessCheck{
			SleepQuality: req.GetInt("sleep_quality", 0),
			EnergyLevel:  req.GetInt("energy_level", 0),
			Soreness:     req.GetInt("soreness", 0),
			StressLevel:  req.GetInt("stress_level", 0),
		}
		score := check.Score()
		return &score, nil
	default:
		return nil, fmt.Errorf("%w: readiness check-in needs all of %v", errInvalidArgument, answers)
	}
}

func (h *handlers) lockWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	templateID, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError("template_id parameter is required"), nil
	}
	if err = h.svc.LockTemplate(ctx, userID, templateID); err != nil {
		return h.fail(ctx, "lock workout", err), nil
	}
	template, err := h.svc.GetTemplate(ctx, templateID)
	if err != nil {
		return h.fail(ctx, "get workout", err), nil
	}
	return jsonResult(template)
}

type logSessionArgs struct {
	UserID string `json:"user_id"`
	training.SessionLog
}

func (h *handlers) logSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args logSessionArgs
	if err := req.BindArguments(&args); err != nil {
		return h.fail(ctx, "decode session", fmt.Errorf("%w: %w", errInvalidArgument, err)), nil
	}
	if args.UserID == "" {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	result, err := h.svc.LogSession(ctx, args.UserID, args.SessionLog)
	if err != nil {
		return h.fail(ctx, "log session", err), nil
	}
	return jsonResult(result)
}

func (h *handlers) suggestNextWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	lastReps, err := req.RequireInt("last_reps")
	if err != nil {
		return mcp.NewToolResultError("last_reps parameter is required"), nil
	}
	lastRPE, err := req.RequireFloat("last_rpe")
	if err != nil {
		return mcp.NewToolResultError("last_rpe parameter is required"), nil
	}

	suggestion, err := h.svc.SuggestNextWeight(ctx, userID, exerciseID, lastReps, lastRPE)
	if err != nil {
		return h.fail(ctx, "suggest next weight", err), nil
	}
	return jsonResult(suggestion)
}

func (h *handlers) muscleBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	balance, err := h.svc.MuscleBalance(ctx, userID)
	if err != nil {
		return h.fail(ctx, "muscle balance", err), nil
	}
	return jsonResult(balance)
}

func (h *handlers) findSubstitute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	equipmentContext := coach.EquipmentContext(req.GetString("equipment_context", string(coach.ContextGym)))
	if !equipmentContext.Valid() {
		return h.fail(ctx, "find substitute",
			fmt.Errorf("%w: equipment_context %q", errInvalidArgument, equipmentContext)), nil
	}

	substitute, err := h.svc.FindSubstitute(ctx, exerciseID, equipmentContext, req.GetStringSlice("exclude", nil))
	if err != nil {
		return h.fail(ctx, "find substitute", err), nil
	}
	return jsonResult(substitute)
}

func (h *handlers) exportUserData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	path, err := h.svc.ExportUserData(ctx, userID)
	if err != nil {
		return h.fail(ctx, "export user data", err), nil
	}
	return jsonResult(map[string]string{"path": path})
}
