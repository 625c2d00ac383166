// Package postgres implements the ETL store on pgxpool. Each batch is a
// single INSERT ... SELECT FROM UNNEST(...) ON CONFLICT DO UPDATE statement,
// so a batch either lands whole or not at all.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-etl/internal/config"
	"github.com/albapepper/scoracle-etl/internal/model"
)

// Store writes ETL rows to Postgres. The pool must have been created by
// db.New so the read and run statements are prepared.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Upserts
// --------------------------------------------------------------------------

func (s *Store) UpsertPlayers(ctx context.Context, rows []model.Player) (int, error) {
	ids := make([]string, len(rows))
	names := make([]string, len(rows))
	images := make([]*string, len(rows))
	for i, p := range rows {
		ids[i], names[i], images[i] = p.ID, p.Name, p.ImageURL
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+config.PlayersTable+` (id, name, image_url)
		SELECT * FROM UNNEST($1::text[], $2::text[], $3::text[])
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()`,
		ids, names, images,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert players: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) UpsertPlayerProfiles(ctx context.Context, rows []model.PlayerProfile) ([]model.PlayerProfile, error) {
	playerIDs := make([]string, len(rows))
	sports := make([]string, len(rows))
	positions := make([]string, len(rows))
	metas := make([]string, len(rows))
	for i, p := range rows {
		meta, err := sonic.MarshalString(nonNilMap(p.Metadata))
		if err != nil {
			return nil, fmt.Errorf("encode metadata for %s: %w", p.PlayerID, err)
		}
		playerIDs[i], sports[i], positions[i], metas[i] = p.PlayerID, string(p.SportID), p.Position, meta
	}

	pgRows, err := s.pool.Query(ctx, `
		INSERT INTO `+config.PlayerProfilesTable+` (player_id, sport_id, position, metadata)
		SELECT p, s, pos, m::jsonb
		FROM UNNEST($1::text[], $2::text[], $3::text[], $4::text[]) AS t(p, s, pos, m)
		ON CONFLICT (player_id, sport_id) DO UPDATE SET
			position = EXCLUDED.position,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id, player_id, sport_id, position, metadata`,
		playerIDs, sports, positions, metas,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert player profiles: %w", err)
	}
	out, err := collectProfiles(pgRows)
	if err != nil {
		return nil, fmt.Errorf("upsert player profiles: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertPlayerSeasons(ctx context.Context, rows []model.PlayerSeason) ([]model.PlayerSeason, error) {
	profileIDs := make([]string, len(rows))
	seasons := make([]int, len(rows))
	teams := make([]string, len(rows))
	jerseys := make([]int, len(rows))
	active := make([]bool, len(rows))
	for i, ps := range rows {
		profileIDs[i] = ps.PlayerProfileID.String()
		seasons[i], teams[i], jerseys[i], active[i] = ps.Season, ps.Team, ps.JerseyNumber, ps.IsActive
	}

	pgRows, err := s.pool.Query(ctx, `
		INSERT INTO `+config.PlayerSeasonsTable+` (player_profile_id, season, team, jersey_number, is_active)
		SELECT pid::uuid, season, team, jersey, active
		FROM UNNEST($1::text[], $2::int4[], $3::text[], $4::int4[], $5::bool[]) AS t(pid, season, team, jersey, active)
		ON CONFLICT (player_profile_id, season) DO UPDATE SET
			team = EXCLUDED.team,
			jersey_number = EXCLUDED.jersey_number,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, player_profile_id, season, team, jersey_number, is_active`,
		profileIDs, seasons, teams, jerseys, active,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert player seasons: %w", err)
	}
	out, err := collectSeasons(pgRows)
	if err != nil {
		return nil, fmt.Errorf("upsert player seasons: %w", err)
	}
	return out, nil
}

// statColumns is the column order shared by the weekly stat insert and the
// UNNEST argument list.
const statColumns = `player_season_id, week, opponent, location, result,
	pass_attempts, pass_completions, passing_yards, passing_tds, interceptions,
	rush_attempts, rushing_yards, rushing_tds, targets, receptions,
	receiving_yards, receiving_tds, fumbles_lost, two_point_conversions, fantasy_points`

func (s *Store) UpsertWeeklyStats(ctx context.Context, rows []model.WeeklyStat) (int, error) {
	n := len(rows)
	seasonIDs := make([]string, n)
	weeks := make([]int, n)
	opponents := make([]string, n)
	locations := make([]string, n)
	results := make([]*string, n)
	ints := make([][]int, 14)
	for c := range ints {
		ints[c] = make([]int, n)
	}
	points := make([]float64, n)

	for i, w := range rows {
		seasonIDs[i] = w.PlayerSeasonID.String()
		weeks[i], opponents[i], locations[i], results[i] = w.Week, w.Opponent, string(w.Location), w.Result
		for c, v := range statValues(w.StatLine) {
			ints[c][i] = v
		}
		points[i] = w.FantasyPoints
	}

	args := []interface{}{seasonIDs, weeks, opponents, locations, results}
	for _, col := range ints {
		args = append(args, col)
	}
	args = append(args, points)

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO `+config.WeeklyStatsTable+` (`+statColumns+`)
		SELECT sid::uuid, week, opponent, location, result,
			pa, pc, py, ptd, icp, ra, ry, rtd, tg, rec, recy, rectd, fl, tpc, fp
		FROM UNNEST(
			$1::text[], $2::int4[], $3::text[], $4::text[], $5::text[],
			$6::int4[], $7::int4[], $8::int4[], $9::int4[], $10::int4[],
			$11::int4[], $12::int4[], $13::int4[], $14::int4[], $15::int4[],
			$16::int4[], $17::int4[], $18::int4[], $19::int4[], $20::float8[]
		) AS u(sid, week, opponent, location, result,
			pa, pc, py, ptd, icp, ra, ry, rtd, tg, rec, recy, rectd, fl, tpc, fp)
		ON CONFLICT (player_season_id, week) DO UPDATE SET
			opponent = EXCLUDED.opponent,
			location = EXCLUDED.location,
			result = EXCLUDED.result,
			pass_attempts = EXCLUDED.pass_attempts,
			pass_completions = EXCLUDED.pass_completions,
			passing_yards = EXCLUDED.passing_yards,
			passing_tds = EXCLUDED.passing_tds,
			interceptions = EXCLUDED.interceptions,
			rush_attempts = EXCLUDED.rush_attempts,
			rushing_yards = EXCLUDED.rushing_yards,
			rushing_tds = EXCLUDED.rushing_tds,
			targets = EXCLUDED.targets,
			receptions = EXCLUDED.receptions,
			receiving_yards = EXCLUDED.receiving_yards,
			receiving_tds = EXCLUDED.receiving_tds,
			fumbles_lost = EXCLUDED.fumbles_lost,
			two_point_conversions = EXCLUDED.two_point_conversions,
			fantasy_points = EXCLUDED.fantasy_points,
			updated_at = NOW()`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert weekly stats: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// statValues lists the integer stat columns in statColumns order.
func statValues(s model.StatLine) []int {
	return []int{
		s.PassAttempts, s.PassCompletions, s.PassingYards, s.PassingTDs, s.Interceptions,
		s.RushAttempts, s.RushingYards, s.RushingTDs, s.Targets, s.Receptions,
		s.ReceivingYards, s.ReceivingTDs, s.FumblesLost, s.TwoPointConversions,
	}
}

// --------------------------------------------------------------------------
// Reads (prepared in db.registerPreparedStatements)
// --------------------------------------------------------------------------

func (s *Store) ListPlayerProfiles(ctx context.Context, sport model.SportID) ([]model.PlayerProfile, error) {
	rows, err := s.pool.Query(ctx, "player_profiles_by_sport", string(sport))
	if err != nil {
		return nil, fmt.Errorf("list player profiles: %w", err)
	}
	return collectProfiles(rows)
}

func (s *Store) ListPlayerSeasons(ctx context.Context, season int) ([]model.PlayerSeason, error) {
	rows, err := s.pool.Query(ctx, "player_seasons_by_season", season)
	if err != nil {
		return nil, fmt.Errorf("list player seasons: %w", err)
	}
	return collectSeasons(rows)
}

func collectProfiles(rows pgx.Rows) ([]model.PlayerProfile, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlayerProfile, error) {
		var p model.PlayerProfile
		var sport string
		err := row.Scan(&p.ID, &p.PlayerID, &sport, &p.Position, &p.Metadata)
		p.SportID = model.SportID(sport)
		return p, err
	})
}

func collectSeasons(rows pgx.Rows) ([]model.PlayerSeason, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlayerSeason, error) {
		var ps model.PlayerSeason
		err := row.Scan(&ps.ID, &ps.PlayerProfileID, &ps.Season, &ps.Team, &ps.JerseyNumber, &ps.IsActive)
		return ps, err
	})
}

// --------------------------------------------------------------------------
// Runs
// --------------------------------------------------------------------------

func (s *Store) CreateRun(ctx context.Context, adapterName string, sport *model.SportID) (uuid.UUID, error) {
	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, "etl_run_create", adapterName, sportParam(sport)).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("create etl run: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateRun(ctx context.Context, id uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string) error {
	tag, err := s.pool.Exec(ctx, "etl_run_update", id, string(status), recordsProcessed, errorMessage)
	if err != nil {
		return fmt.Errorf("update etl run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update etl run: %s not found or no longer running", id)
	}
	return nil
}

func (s *Store) RecentRuns(ctx context.Context, limit int, sport *model.SportID) ([]model.EtlRun, error) {
	rows, err := s.pool.Query(ctx, "etl_runs_recent", limit, sportParam(sport))
	if err != nil {
		return nil, fmt.Errorf("recent etl runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EtlRun, error) {
		var run model.EtlRun
		var sportID *string
		var status string
		err := row.Scan(&run.ID, &run.AdapterName, &sportID, &run.StartedAt, &run.CompletedAt,
			&status, &run.RecordsProcessed, &run.ErrorMessage)
		if sportID != nil {
			sid := model.SportID(*sportID)
			run.SportID = &sid
		}
		run.Status = model.RunStatus(status)
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("recent etl runs: %w", err)
	}
	return runs, nil
}

func (s *Store) FailStaleRuns(ctx context.Context, startedBefore time.Time, message string) (int, error) {
	tag, err := s.pool.Exec(ctx, "etl_runs_fail_stale", startedBefore, message)
	if err != nil {
		return 0, fmt.Errorf("fail stale etl runs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func sportParam(sport *model.SportID) *string {
	if sport == nil {
		return nil
	}
	s := string(*sport)
	return &s
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
