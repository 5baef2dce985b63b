package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"moba-mmr/internal/config"
	"moba-mmr/internal/database"
	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"
	"moba-mmr/internal/events"
	"moba-mmr/internal/exceptional"
	"moba-mmr/internal/matchmaker"
	"moba-mmr/internal/performance"
	"moba-mmr/internal/quality"
	"moba-mmr/internal/rating"
	"moba-mmr/internal/repository"
	"moba-mmr/internal/safety"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type recorder struct {
	mu   sync.Mutex
	recs []events.Record
}

func (r *recorder) Emit(rec events.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func (r *recorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.recs {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	cfg         *config.Config
	db          *sql.DB
	players     *repository.PlayerRepository
	performance *repository.PerformanceRepository
	matches     *repository.MatchRepository
	sink        *recorder
	analysis    *AnalysisService
	matchmaking *MatchmakingService
}

func testConfig() *config.Config {
	return &config.Config{
		DBPath:        "unused",
		InitialRating: 2000,
		Performance:   performance.DefaultConfig(),
		Exceptional:   exceptional.DefaultConfig(),
		Safety:        safety.DefaultConfig(),
		Quality:       quality.DefaultConfig(),
		Matchmaker:    matchmaker.DefaultConfig(),
		Rating:        rating.DefaultConfig(),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "mmr.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := testConfig()
	q := db.New(sqlDB)
	f := &fixture{
		cfg:         cfg,
		db:          sqlDB,
		players:     repository.NewPlayerRepository(sqlDB, q, logger),
		performance: repository.NewPerformanceRepository(sqlDB, q, logger),
		matches:     repository.NewMatchRepository(sqlDB, q, logger),
		sink:        &recorder{},
	}
	results := repository.NewResultRepository(sqlDB, q, logger)
	f.analysis = NewAnalysisService(cfg, NewEngine(cfg), f.players, f.performance, results, f.sink, logger)

	mm := matchmaker.New(cfg.Matchmaker, quality.NewEvaluator(cfg.Quality), matchmaker.NewPool())
	f.matchmaking = NewMatchmakingService(cfg, mm, f.players, f.matches, f.sink, logger)
	return f
}

func report(matchID string, duration float64) *domain.MatchReport {
	r := &domain.MatchReport{
		MatchID:    matchID,
		Duration:   duration,
		Winner:     "radiant",
		PlayedAt:   time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC),
		TeamFights: 10,
		Teams: map[string]domain.TeamReport{
			"radiant": {TotalDamage: 75000, Gold: 80000, Kills: 30, BuildingDamage: 10000},
			"dire":    {TotalDamage: 70000, Gold: 75000, Kills: 25, BuildingDamage: 5000},
		},
	}
	for _, side := range []string{"radiant", "dire"} {
		for _, role := range domain.AllRoles() {
			r.Players = append(r.Players, domain.PlayerReport{
				PlayerID: fmt.Sprintf("%s-%s", side, role),
				Side:     side,
				Role:     role,
				HeroID:   int(role) + 1,
				Stats: domain.PlayerStatistics{
					Kills: 5, Deaths: 3, Assists: 10, LastHits: 200, Denies: 10,
					GPM: 500, XPM: 550, HeroDamage: 15000, TowerDamage: 2000, HeroHealing: 500,
					StunDuration: 20, WardsPlaced: 5, WardsDestroyed: 2,
					TeamfightParticipation: 0.7, VisionUptime: 0.4,
				},
			})
		}
	}
	return r
}

func TestProcessMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.analysis.ProcessMatch(ctx, report("m1", 2400))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 10)

	for _, out := range res.Outcomes {
		assert.True(t, out.Created, out.PlayerID)
		assert.True(t, out.Safety.Passed, out.Safety.String())
		if out.Side == "radiant" {
			assert.Positive(t, out.Decision.Delta, out.PlayerID)
		} else if !out.Decision.Protected {
			assert.Negative(t, out.Decision.Delta, out.PlayerID)
		}
		assert.InDelta(t, max(2000, 2000+out.Decision.Delta), out.Record.RatingAfter, 1e-9)

		stored, err := f.players.Get(ctx, out.PlayerID)
		require.NoError(t, err)
		assert.InDelta(t, 2000+out.Decision.Delta, stored.RoleRating(out.Role), 1e-9)
		assert.InDelta(t, out.Record.RatingAfter, stored.Rating(), 1e-9)
		assert.Equal(t, []domain.Role{out.Role}, stored.PreferredRoles)
		assert.Equal(t, 1, stored.HeroPool[int(out.Role)+1])
		require.Len(t, stored.History(), 1)
		assert.Equal(t, "m1", stored.History()[0].MatchID)
	}

	match, err := f.matches.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "radiant", match.Winner)
	assert.Len(t, match.Team1, 5)
	require.NotNil(t, match.EndedAt)
	assert.Equal(t, 40*time.Minute, match.EndedAt.Sub(*match.StartedAt))

	assert.Equal(t, 10, f.sink.count(events.KindPerformanceAnalysis))
	assert.Equal(t, 10, f.sink.count(events.KindRatingAdjustment))
	assert.Zero(t, f.sink.count(events.KindSafetyViolation))
}

func TestProcessMatchOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.analysis.ProcessMatch(ctx, report("m1", 2400))
	require.NoError(t, err)
	_, err = f.analysis.ProcessMatch(ctx, report("m1", 2400))
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	p, err := f.players.Get(ctx, "radiant-carry")
	require.NoError(t, err)
	assert.Len(t, p.History(), 1)
}

func TestProcessMatchUsesStoredHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.analysis.ProcessMatch(ctx, report("m1", 2400))
	require.NoError(t, err)
	res, err := f.analysis.ProcessMatch(ctx, report("m2", 2400))
	require.NoError(t, err)

	for _, out := range res.Outcomes {
		assert.False(t, out.Created)
	}
	p, err := f.players.Get(ctx, "dire-mid")
	require.NoError(t, err)
	assert.Len(t, p.History(), 2)
	assert.InDelta(t, 0.4, p.TiltFactor(), 1e-9)
	assert.Equal(t, 2, p.HeroPool[int(domain.RoleMid)+1])
}

func TestConcurrentMatchesSettleSharedPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, second := report("m-a", 2400), report("m-b", 2400)
	second.PlayedAt = first.PlayedAt.Add(time.Hour)

	results := make([]*AnalysisResult, 2)
	var g errgroup.Group
	for i, r := range []*domain.MatchReport{first, second} {
		g.Go(func() error {
			res, err := f.analysis.ProcessMatch(ctx, r)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	deltas := make(map[string]float64)
	created := make(map[string]int)
	for _, res := range results {
		for _, out := range res.Outcomes {
			deltas[out.PlayerID] += out.Decision.Delta
			if out.Created {
				created[out.PlayerID]++
			}
		}
	}

	for _, pr := range first.Players {
		stored, err := f.players.Get(ctx, pr.PlayerID)
		require.NoError(t, err)
		assert.InDelta(t, 2000+deltas[pr.PlayerID], stored.RoleRating(pr.Role), 1e-9, pr.PlayerID)
		assert.Len(t, stored.History(), 2, pr.PlayerID)
		assert.Equal(t, 1, created[pr.PlayerID], pr.PlayerID)
		assert.Equal(t, 2, stored.HeroPool[pr.HeroID], pr.PlayerID)
	}
}

func TestFailedStoreLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.ExecContext(ctx, `CREATE TRIGGER reject_matches BEFORE INSERT ON matches
BEGIN SELECT RAISE(ABORT, 'matches rejected'); END`)
	require.NoError(t, err)

	_, err = f.analysis.ProcessMatch(ctx, report("m1", 2400))
	require.ErrorContains(t, err, "matches rejected")

	_, err = f.players.Get(ctx, "radiant-carry")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	processed, err := f.performance.MatchProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, f.sink.recs)

	_, err = f.db.ExecContext(ctx, `DROP TRIGGER reject_matches`)
	require.NoError(t, err)

	res, err := f.analysis.ProcessMatch(ctx, report("m1", 2400))
	require.NoError(t, err)
	for _, out := range res.Outcomes {
		assert.True(t, out.Created, out.PlayerID)
		stored, err := f.players.Get(ctx, out.PlayerID)
		require.NoError(t, err)
		assert.InDelta(t, 2000+out.Decision.Delta, stored.RoleRating(out.Role), 1e-9)
		assert.Len(t, stored.History(), 1)
	}
}

func TestStoredGamesBeyondHistoryWindowTripSafety(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := report("m-busy", 2400)

	carry := domain.NewPlayer("radiant-carry", 2000)
	carry.PreferredRoles = []domain.Role{domain.RoleCarry}
	require.NoError(t, f.players.Upsert(ctx, carry))

	var records []domain.PerformanceRecord
	for i := 0; i < f.cfg.Safety.MaxGamesInWindow; i++ {
		records = append(records, domain.PerformanceRecord{
			MatchID:     fmt.Sprintf("earlier-%d", i),
			PlayerID:    carry.ID,
			Role:        domain.RoleCarry,
			Score:       0.5,
			Tier:        domain.TierNormal,
			Victory:     true,
			RatingAfter: 2000,
			PlayedAt:    r.PlayedAt.Add(-time.Duration(i+1) * 30 * time.Minute),
		})
	}
	require.NoError(t, f.performance.InsertBatch(ctx, records))

	loaded, err := f.players.Get(ctx, carry.ID)
	require.NoError(t, err)
	require.Less(t, len(loaded.History()), f.cfg.Safety.MaxGamesInWindow)

	res, err := f.analysis.ProcessMatch(ctx, r)
	require.NoError(t, err)
	for _, out := range res.Outcomes {
		if out.PlayerID == carry.ID {
			assert.False(t, out.Safety.Passed)
			assert.Equal(t, safety.CheckHistory, out.Safety.Check)
			continue
		}
		assert.True(t, out.Safety.Passed, out.PlayerID)
	}
}

func TestShortMatchFailsSafety(t *testing.T) {
	f := newFixture(t)

	res, err := f.analysis.ProcessMatch(context.Background(), report("short", 1200))
	require.NoError(t, err)

	for _, out := range res.Outcomes {
		assert.False(t, out.Safety.Passed)
		assert.Equal(t, safety.CheckDuration, out.Safety.Check)
		assert.False(t, out.Decision.Protected)
		assert.Equal(t, 0.5, out.Decision.Input.PerformanceScore)
		assert.False(t, out.Exceptional.Eligible)
	}
	assert.Equal(t, 10, f.sink.count(events.KindSafetyViolation))
}

func TestProcessMatchRejectsInvalidReport(t *testing.T) {
	f := newFixture(t)
	bad := report("bad", 2400)
	bad.Players[3].Stats.TeamfightParticipation = 1.5

	_, err := f.analysis.ProcessMatch(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.players.Get(context.Background(), bad.Players[0].PlayerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.sink.recs)
}

func profiles(prefix string) []PlayerProfile {
	var out []PlayerProfile
	for _, role := range domain.AllRoles() {
		for i := 0; i < 2; i++ {
			out = append(out, PlayerProfile{
				ID:             fmt.Sprintf("%s-%s%d", prefix, role, i),
				Rating:         2000,
				PreferredRoles: []domain.Role{role},
			})
		}
	}
	return out
}

func TestMatchmakingFindsAndStoresMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.matchmaking.EnqueueProfiles(ctx, profiles("q")))
	assert.Equal(t, 10, f.matchmaking.PoolSize())

	out, err := f.matchmaking.FindMatch(ctx)
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Zero(t, f.matchmaking.PoolSize())

	stored, err := f.matches.Get(ctx, out.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Match.Team1.IDs(), stored.Team1)
	assert.InDelta(t, out.Quality.OverallScore, stored.Quality, 1e-12)

	p, err := f.players.Get(ctx, "q-carry0")
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleCarry}, p.PreferredRoles)
	assert.Equal(t, 1, f.sink.count(events.KindMatchCreated))

	again, err := f.matchmaking.FindMatch(ctx)
	require.NoError(t, err)
	assert.False(t, again.Found)
}

func TestEnqueueStoredPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.matchmaking.EnqueueProfiles(ctx, profiles("a")))
	_, err := f.matchmaking.FindMatch(ctx)
	require.NoError(t, err)

	var ids []string
	for _, pp := range profiles("a") {
		ids = append(ids, pp.ID)
	}
	require.NoError(t, f.matchmaking.Enqueue(ctx, ids))
	require.NoError(t, f.matchmaking.EnqueueProfiles(ctx, profiles("b")))

	found, err := f.matchmaking.Drain(ctx)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Zero(t, f.matchmaking.PoolSize())
}

func TestEnqueueRejectsDuplicatesAndEmptyIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.matchmaking.EnqueueProfiles(ctx, []PlayerProfile{{ID: ""}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.matchmaking.Enqueue(ctx, []string{"x"}))
	assert.ErrorIs(t, f.matchmaking.Enqueue(ctx, []string{"x"}), domain.ErrValidation)
}

func TestProfileApply(t *testing.T) {
	behavior := 15000
	p := domain.NewPlayer("p", 2000)
	PlayerProfile{
		Name:          "Kai",
		RoleRatings:   map[domain.Role]float64{domain.RoleMid: 2300},
		HeroPool:      map[int]int{5: 30},
		BehaviorScore: &behavior,
	}.apply(p)

	assert.Equal(t, "Kai", p.Name)
	assert.Equal(t, 2300.0, p.Rating())
	assert.Equal(t, 2000.0, p.RoleRating(domain.RoleCarry))
	assert.Equal(t, map[int]int{5: 30}, p.HeroPool)
	assert.Equal(t, domain.MaxBehaviorScore, p.BehaviorScore)
}
