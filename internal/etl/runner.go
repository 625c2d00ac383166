package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/model"
	"github.com/albapepper/scoracle-etl/internal/provider"
)

var (
	// ErrUnknownAdapter is returned when Options.AdapterName is not registered.
	ErrUnknownAdapter = errors.New("unknown adapter")
	// ErrInvalidParam is returned for out-of-range run options.
	ErrInvalidParam = errors.New("invalid parameter")
)

// maxErrorMessage bounds the error_message stored on the run row.
const maxErrorMessage = 2000

// Options selects what one run fetches and whether it writes.
type Options struct {
	AdapterName string
	// Season defaults to the runner's default season when zero.
	Season int
	// Week limits weekly stats to one week; nil means every week.
	Week *int
	// DryRun transforms and validates without writing or creating a run row.
	DryRun bool
	// StatsOnly skips players, profiles and seasons and rebuilds the ID
	// maps from persisted rows.
	StatsOnly bool
}

// Runner sequences adapter fetches, transforms and loads for one run.
type Runner struct {
	registry      *provider.Registry
	loader        *Loader
	transformer   *Transformer
	defaultSeason int
	logger        *slog.Logger
}

// NewRunner creates a Runner. defaultSeason is used when Options.Season is 0.
func NewRunner(registry *provider.Registry, loader *Loader, defaultSeason int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry:      registry,
		loader:        loader,
		transformer:   NewTransformer(logger),
		defaultSeason: defaultSeason,
		logger:        logger,
	}
}

// Loader returns the runner's Loader for read-only callers such as run history.
func (r *Runner) Loader() *Loader { return r.loader }

// Registry returns the adapter registry.
func (r *Runner) Registry() *provider.Registry { return r.registry }

// Run executes one pipeline run. The returned error is non-nil only when the
// run could not start: unknown adapter, invalid options, or the run row
// could not be created. Stage failures are reported on the RunResult.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	start := time.Now()

	adapter, ok := r.registry.Get(opts.AdapterName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, opts.AdapterName)
	}
	if opts.Season == 0 {
		opts.Season = r.defaultSeason
	}
	if err := validateOptions(opts, adapter.Sport()); err != nil {
		return nil, err
	}

	ctx, span := startSpan(ctx, "etl.Runner.Run",
		attribute.String("adapter", opts.AdapterName),
		attribute.Int("season", opts.Season),
		attribute.Bool("dry_run", opts.DryRun))
	defer span.End()

	logger := r.logger.With("adapter", opts.AdapterName, "season", opts.Season)
	result := &RunResult{
		AdapterName: opts.AdapterName,
		Sport:       adapter.Sport(),
		Season:      opts.Season,
		Week:        opts.Week,
		DryRun:      opts.DryRun,
		StatsOnly:   opts.StatsOnly,
		Success:     true,
		Status:      model.RunRunning,
		Errors:      []string{},
		Stages:      []StageResult{},
	}

	var runID uuid.UUID
	if !opts.DryRun {
		var sport *model.SportID
		if s := adapter.Sport(); s != "" {
			sport = &s
		}
		id, err := r.loader.CreateRun(ctx, opts.AdapterName, sport)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		runID = id
		result.RunID = &id
	}

	logger.Info("ETL run started", "dry_run", opts.DryRun, "stats_only", opts.StatsOnly, "run_id", result.RunID)

	state := newStateTracker(logger)
	if err := r.execute(ctx, adapter, opts, result, state, logger); err != nil {
		logger.Error("ETL run aborted", "state", state.state, "error", err)
		result.fail("%v", err)
	}

	state.advance(StateFinalizing)
	if result.Success {
		result.Status = model.RunSuccess
		result.Message = "ETL run completed"
		state.advance(StateSuccess)
	} else {
		result.Status = model.RunFailed
		result.Message = fmt.Sprintf("ETL run failed with %d error(s)", len(result.Errors))
		state.advance(StateFailed)
		span.SetStatus(codes.Error, result.Message)
	}
	if opts.DryRun {
		result.Message = "Dry run: " + result.Message
	}
	result.Duration = time.Since(start)

	if !opts.DryRun {
		// The audit write must land even if the caller's context is gone.
		r.loader.UpdateRun(context.WithoutCancel(ctx), runID, result.Status, result.RecordsProcessed, errorMessage(result.Errors))
	}

	logger.Info("ETL run finished", "status", result.Status, "processed", result.RecordsProcessed,
		"errors", len(result.Errors), "elapsed", result.Duration.Round(time.Millisecond))
	return result, nil
}

// execute runs the stages in dependency order. It returns an error only for
// failures that make the remaining stages meaningless.
func (r *Runner) execute(ctx context.Context, adapter provider.Adapter, opts Options, result *RunResult, state *stateTracker, logger *slog.Logger) error {
	var (
		extMap     ExternalIDMap
		profileMap ProfileIDMap
		seasonMap  SeasonIDMap
	)

	if opts.StatsOnly {
		var err error
		if profileMap, err = r.loader.GetPlayerProfileIDMap(ctx, adapter.Sport()); err != nil {
			return err
		}
		if seasonMap, err = r.loader.GetPlayerSeasonIDMap(ctx, opts.Season); err != nil {
			return err
		}
		logger.Info("ID maps rebuilt", "profiles", len(profileMap), "seasons", len(seasonMap))
	} else {
		// 1. Players
		state.advance(StateWritingPlayers)
		logger.Info("Phase 1/4: Loading players...")
		rawPlayers, err := adapter.FetchPlayers(ctx)
		if err != nil {
			return fmt.Errorf("fetch players: %w", err)
		}
		players, ext := r.transformer.TransformPlayers(rawPlayers)
		extMap = ext
		stage := StageResult{Stage: StagePlayers, Fetched: len(rawPlayers), Transformed: len(players)}
		if opts.DryRun {
			stage.Load = newLoadResult()
			_, stage.Load.Skipped = r.loader.preparePlayers(players)
		} else {
			stage.Load = r.loader.LoadPlayers(ctx, players)
		}
		result.addStage(stage)

		// 2. Profiles
		state.advance(StateWritingProfiles)
		logger.Info("Phase 2/4: Loading profiles...")
		rawProfiles, err := fetchProfiles(ctx, adapter, rawPlayers)
		if err != nil {
			return fmt.Errorf("fetch profiles: %w", err)
		}
		profiles, skips := r.transformer.TransformPlayerProfiles(rawProfiles, extMap)
		stage = StageResult{Stage: StageProfiles, Fetched: len(rawProfiles), Transformed: len(profiles), Skips: skips}
		if opts.DryRun {
			var valid []model.PlayerProfile
			stage.Load = newLoadResult()
			valid, stage.Load.Skipped = r.loader.prepareProfiles(profiles)
			profileMap = provisionalProfileIDs(valid)
		} else {
			stage.Load, profileMap = r.loader.LoadPlayerProfiles(ctx, profiles)
		}
		result.addStage(stage)

		// 3. Season snapshots
		state.advance(StateWritingSeasons)
		logger.Info("Phase 3/4: Loading season snapshots...")
		rawSeasons, err := adapter.FetchSeasonSummary(ctx, opts.Season)
		if err != nil {
			return fmt.Errorf("fetch season summary: %w", err)
		}
		seasons, skips := r.transformer.TransformPlayerSeasons(rawSeasons, extMap, profileMap)
		stage = StageResult{Stage: StageSeasons, Fetched: len(rawSeasons), Transformed: len(seasons), Skips: skips}
		if opts.DryRun {
			var valid []model.PlayerSeason
			stage.Load = newLoadResult()
			valid, stage.Load.Skipped = r.loader.prepareSeasons(seasons)
			seasonMap = provisionalSeasonIDs(valid)
		} else {
			stage.Load, seasonMap = r.loader.LoadPlayerSeasons(ctx, seasons)
		}
		result.addStage(stage)
	}

	// 4. Weekly stats
	state.advance(StateWritingStats)
	logger.Info("Phase 4/4: Loading weekly stats...", "week", opts.Week)
	rawStats, err := adapter.FetchWeeklyStats(ctx, opts.Season, opts.Week)
	if err != nil {
		return fmt.Errorf("fetch weekly stats: %w", err)
	}
	if opts.StatsOnly {
		extMap = make(ExternalIDMap, len(rawStats))
		for _, s := range rawStats {
			extMap[s.PlayerExternalID] = NormalizePlayerID(s.PlayerExternalID)
		}
	}
	staged, skips := r.transformer.TransformWeeklyStats(rawStats, extMap, profileMap, adapter.Sport())
	stage := StageResult{Stage: StageStats, Fetched: len(rawStats), Transformed: len(staged), Skips: skips}
	if opts.DryRun {
		stage.Load = newLoadResult()
		_, skipped, misses := r.loader.prepareWeeklyStats(staged, seasonMap)
		stage.Load.Skipped = skipped
		for _, m := range misses {
			stage.Load.AddErrorf("%s", m)
		}
	} else {
		stage.Load = r.loader.LoadWeeklyStats(ctx, staged, seasonMap)
	}
	result.addStage(stage)
	return nil
}

// fetchProfiles uses the adapter's own profile feed when it has one.
func fetchProfiles(ctx context.Context, adapter provider.Adapter, players []provider.RawPlayer) ([]provider.RawPlayerProfile, error) {
	if src, ok := adapter.(provider.ProfileSource); ok {
		return src.FetchPlayerProfiles(ctx)
	}
	return provider.ProfilesFromPlayers(players, adapter.Sport()), nil
}

func validateOptions(opts Options, sport model.SportID) error {
	if opts.Season < config.MinSeason || opts.Season > config.MaxSeason {
		return fmt.Errorf("%w: season must be between %d and %d", ErrInvalidParam, config.MinSeason, config.MaxSeason)
	}
	if opts.Week != nil {
		minWeek, maxWeek, ok := config.WeekRange(sport)
		if !ok {
			minWeek, maxWeek = 1, 18
		}
		if *opts.Week < minWeek || *opts.Week > maxWeek {
			return fmt.Errorf("%w: week must be between %d and %d", ErrInvalidParam, minWeek, maxWeek)
		}
	}
	if opts.StatsOnly && sport == "" {
		return fmt.Errorf("%w: stats-only runs need a single-sport adapter", ErrInvalidParam)
	}
	return nil
}

// Dry runs never write, so profile and season IDs are derived
// deterministically from their natural keys.
var provisionalNamespace = uuid.MustParse("6f1c3a52-1d7e-4d8a-9a55-2b0f6c9e4e11")

func provisionalProfileIDs(profiles []model.PlayerProfile) ProfileIDMap {
	idMap := make(ProfileIDMap, len(profiles))
	for _, p := range profiles {
		idMap[p.PlayerID] = uuid.NewSHA1(provisionalNamespace, []byte(p.PlayerID+"/"+string(p.SportID)))
	}
	return idMap
}

func provisionalSeasonIDs(seasons []model.PlayerSeason) SeasonIDMap {
	idMap := make(SeasonIDMap, len(seasons))
	for _, s := range seasons {
		key := MakePlayerSeasonKey(s.PlayerProfileID, s.Season)
		idMap[key] = uuid.NewSHA1(provisionalNamespace, []byte(key.String()))
	}
	return idMap
}

func errorMessage(errs []string) *string {
	if len(errs) == 0 {
		return nil
	}
	msg := strings.Join(errs, "; ")
	if len(msg) > maxErrorMessage {
		n := maxErrorMessage
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n] + "..."
	}
	return &msg
}
