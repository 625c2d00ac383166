package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/albapepper/scoracle-etl/internal/api/respond"
	"github.com/albapepper/scoracle-etl/internal/cache"
	"github.com/albapepper/scoracle-etl/internal/etl"
	"github.com/albapepper/scoracle-etl/internal/model"
)

const (
	runsCachePrefix      = "etl:runs:"
	adapterHealthTimeout = 5 * time.Second
)

// triggerParams are the query parameters of POST /api/v1/etl.
type triggerParams struct {
	Adapter   string `validate:"required,max=64"`
	Season    int    `validate:"omitempty,min=2000,max=2100"`
	Week      *int   `validate:"omitempty,min=1,max=18"`
	DryRun    bool
	StatsOnly bool
}

// historyParams are the query parameters of GET /api/v1/etl.
type historyParams struct {
	Limit int    `validate:"min=1,max=100"`
	Sport string `validate:"omitempty,oneof=nfl mlb nba f1"`
}

// RunsResponse is the body of GET /api/v1/etl.
type RunsResponse struct {
	Runs  []model.EtlRun `json:"runs"`
	Count int            `json:"count"`
}

// TriggerETL runs the pipeline for one adapter.
// @Summary Trigger an ETL run
// @Description Fetches from the adapter, transforms, validates and loads players, profiles, season snapshots and weekly stats. Returns 500 with the run result when any stage failed.
// @Tags etl
// @Produce json
// @Param adapter query string true "Registered adapter name" example(bdl-nfl)
// @Param season query int false "Season year (defaults to the configured season)"
// @Param week query int false "Restrict weekly stats to one regular-season week (1-18)"
// @Param dryRun query bool false "Transform and validate without writing"
// @Param statsOnly query bool false "Refresh weekly stats only, using persisted ID maps"
// @Param Authorization header string false "Bearer <ETL_SECRET>"
// @Success 200 {object} etl.RunResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} etl.RunResult
// @Router /api/v1/etl [post]
func (h *Handler) TriggerETL(w http.ResponseWriter, r *http.Request) {
	params, err := parseTriggerParams(r.URL.Query())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid query parameter", err.Error())
		return
	}
	if err := h.validate.StructCtx(r.Context(), params); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid query parameter", describeValidation(err))
		return
	}

	opts := etl.Options{
		AdapterName: params.Adapter,
		Season:      params.Season,
		Week:        params.Week,
		DryRun:      params.DryRun,
		StatsOnly:   params.StatsOnly,
	}
	h.logger.Info("ETL run requested",
		"adapter", opts.AdapterName, "season", opts.Season,
		"dry_run", opts.DryRun, "stats_only", opts.StatsOnly)

	// A dropped client must not abort a run halfway through its writes.
	result, err := h.runner.Run(context.WithoutCancel(r.Context()), opts)
	if !opts.DryRun {
		h.cache.Invalidate(runsCachePrefix)
	}
	switch {
	case errors.Is(err, etl.ErrUnknownAdapter):
		respond.WriteErrorDetail(w, http.StatusBadRequest, "UNKNOWN_ADAPTER",
			fmt.Sprintf("Unknown adapter %q", opts.AdapterName),
			"registered: "+strings.Join(h.runner.Registry().Names(), ", "))
		return
	case errors.Is(err, etl.ErrInvalidParam):
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid run options", err.Error())
		return
	case err != nil:
		h.logger.Error("ETL run could not start", "adapter", opts.AdapterName, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "RUN_NOT_STARTED", "ETL run could not start", err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	respond.WriteJSONObject(w, status, result)
}

// ListRuns returns recent ETL runs.
// @Summary Recent ETL runs
// @Description Returns the most recent run records, newest first. Responses are cached briefly and support ETag revalidation.
// @Tags etl
// @Produce json
// @Param limit query int false "Number of runs (1-100)" default(10)
// @Param sport query string false "Filter by sport" Enums(nfl, mlb, nba, f1)
// @Param Authorization header string false "Bearer <ETL_SECRET>"
// @Success 200 {object} RunsResponse
// @Success 304
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/etl [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	params, err := parseHistoryParams(r.URL.Query())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid query parameter", err.Error())
		return
	}
	if err := h.validate.StructCtx(r.Context(), params); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid query parameter", describeValidation(err))
		return
	}

	cacheKey := fmt.Sprintf("%s%d:%s", runsCachePrefix, params.Limit, params.Sport)
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLRunHistory, true)
		return
	}

	var sport *model.SportID
	if params.Sport != "" {
		s := model.SportID(params.Sport)
		sport = &s
	}
	runs, err := h.runner.Loader().GetRecentRuns(r.Context(), params.Limit, sport)
	if err != nil {
		h.logger.Error("List runs failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load run history")
		return
	}
	if runs == nil {
		runs = []model.EtlRun{}
	}

	data, err := sonic.Marshal(RunsResponse{Runs: runs, Count: len(runs)})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode run history")
		return
	}
	etag := h.cache.Set(cacheKey, data, cache.TTLRunHistory)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLRunHistory, false)
}

// ListAdapters reports every registered adapter with its health.
// @Summary Registered adapters
// @Description Runs each adapter's health check concurrently and reports the result.
// @Tags etl
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/etl/adapters [get]
func (h *Handler) ListAdapters(w http.ResponseWriter, r *http.Request) {
	results := etl.CheckAdapters(r.Context(), h.runner.Registry(), adapterHealthTimeout)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"adapters": results,
		"count":    len(results),
	})
}

// --------------------------------------------------------------------------
// Query parsing
// --------------------------------------------------------------------------

func parseTriggerParams(q url.Values) (triggerParams, error) {
	p := triggerParams{Adapter: strings.TrimSpace(q.Get("adapter"))}
	var err error
	if p.Season, err = queryInt(q, "season", 0); err != nil {
		return p, err
	}
	if q.Get("week") != "" {
		week, err := queryInt(q, "week", 0)
		if err != nil {
			return p, err
		}
		p.Week = &week
	}
	if p.DryRun, err = queryBool(q, "dryRun"); err != nil {
		return p, err
	}
	if p.StatsOnly, err = queryBool(q, "statsOnly"); err != nil {
		return p, err
	}
	return p, nil
}

func parseHistoryParams(q url.Values) (historyParams, error) {
	limit, err := queryInt(q, "limit", etl.DefaultRunLimit)
	if err != nil {
		return historyParams{}, err
	}
	return historyParams{Limit: limit, Sport: strings.ToLower(q.Get("sport"))}, nil
}

func queryInt(q url.Values, key string, fallback int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", name, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
