package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"moba-mmr/internal/database"
	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"
	"moba-mmr/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	players     *PlayerRepository
	performance *PerformanceRepository
	matches     *MatchRepository
	events      *EventRepository
	results     *ResultRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	logger := zerolog.New(io.Discard)
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "mmr.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	q := db.New(sqlDB)
	return repos{
		players:     NewPlayerRepository(sqlDB, q, logger),
		performance: NewPerformanceRepository(sqlDB, q, logger),
		matches:     NewMatchRepository(sqlDB, q, logger),
		events:      NewEventRepository(sqlDB, q, logger),
		results:     NewResultRepository(sqlDB, q, logger),
	}
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPlayerRoundTrip(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p := domain.NewPlayer("p1", 2000)
	p.Name = "Ana"
	p.PreferredRoles = []domain.Role{domain.RoleMid, domain.RoleCarry}
	p.HeroPool = map[int]int{11: 40, 74: 12}
	p.BehaviorScore = 8700
	p.Stats = domain.PlayerStatistics{Kills: 9, GPM: 610, TeamfightParticipation: 0.7}
	ratings := p.Ratings()
	ratings[domain.RoleMid] += 150
	p.SetRatings(ratings)
	require.NoError(t, r.players.Upsert(ctx, p))

	got, err := r.players.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, p.PreferredRoles, got.PreferredRoles)
	assert.Equal(t, p.HeroPool, got.HeroPool)
	assert.Equal(t, 8700, got.BehaviorScore)
	assert.Equal(t, p.Stats, got.Stats)
	assert.Equal(t, p.Ratings(), got.Ratings())
	assert.Equal(t, 2150.0, got.Rating())
}

func TestPlayerNotFound(t *testing.T) {
	r := newRepos(t)
	_, err := r.players.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, created, err := r.players.GetOrCreate(context.Background(), "nobody", 1800)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1800.0, p.Rating())
	assert.Equal(t, domain.DefaultBehaviorScore, p.BehaviorScore)
}

func TestPlayerUpsertBatchAndList(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	var players []*domain.Player
	for i := 0; i < 5; i++ {
		players = append(players, domain.NewPlayer(fmt.Sprintf("p%d", i), 2000))
	}
	require.NoError(t, r.players.UpsertBatch(ctx, players))

	players[0].RecordMatch(domain.RoleCarry, -40, domain.PerformanceRecord{MatchID: "m1", PlayedAt: epoch})
	require.NoError(t, r.players.UpsertBatch(ctx, players[:1]))

	listed, err := r.players.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 5)
	assert.Equal(t, "p0", listed[0].ID)
	assert.Equal(t, 1960.0, listed[0].RoleRating(domain.RoleCarry))
}

func TestPerformanceHistoryWindow(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p := domain.NewPlayer("p1", 2000)
	require.NoError(t, r.players.Upsert(ctx, p))

	var records []domain.PerformanceRecord
	for i := 0; i < domain.HistoryLimit+5; i++ {
		records = append(records, domain.PerformanceRecord{
			MatchID:  fmt.Sprintf("m%02d", i),
			PlayerID: "p1",
			Role:     domain.RoleSoftSupport,
			Score:    float64(i) / 100,
			Tier:     domain.TierVeryGood,
			Victory:  i%2 == 0,
			PlayedAt: epoch.Add(time.Duration(i) * time.Hour),
		})
	}
	require.NoError(t, r.performance.InsertBatch(ctx, records))

	got, err := r.players.Get(ctx, "p1")
	require.NoError(t, err)
	history := got.History()
	require.Len(t, history, domain.HistoryLimit)
	assert.Equal(t, "m05", history[0].MatchID)
	assert.Equal(t, "m24", history[len(history)-1].MatchID)
	assert.Equal(t, domain.RoleSoftSupport, history[0].Role)
	assert.Equal(t, domain.TierVeryGood, history[0].Tier)
	assert.NotEmpty(t, history[0].ID)

	latest, err := r.performance.GetByPlayer(ctx, "p1", 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "m22", latest[0].MatchID)
	assert.True(t, latest[0].PlayedAt.Before(latest[2].PlayedAt))

	processed, err := r.performance.MatchProcessed(ctx, "m03")
	require.NoError(t, err)
	assert.True(t, processed)
	processed, err = r.performance.MatchProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestPerformanceDuplicateRollsBack(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	require.NoError(t, r.players.Upsert(ctx, domain.NewPlayer("p1", 2000)))

	rec := domain.PerformanceRecord{MatchID: "m1", PlayerID: "p1", PlayedAt: epoch}
	require.NoError(t, r.performance.InsertBatch(ctx, []domain.PerformanceRecord{rec}))

	other := rec
	other.MatchID = "m2"
	err := r.performance.InsertBatch(ctx, []domain.PerformanceRecord{other, rec})
	assert.Error(t, err)

	processed, err := r.performance.MatchProcessed(ctx, "m2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestPerformanceCountSince(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	require.NoError(t, r.players.Upsert(ctx, domain.NewPlayer("p1", 2000)))
	require.NoError(t, r.players.Upsert(ctx, domain.NewPlayer("p2", 2000)))

	var records []domain.PerformanceRecord
	for i := 0; i < 6; i++ {
		records = append(records, domain.PerformanceRecord{
			MatchID:  fmt.Sprintf("m%d", i),
			PlayerID: "p1",
			PlayedAt: epoch.Add(time.Duration(i) * 6 * time.Hour),
		})
	}
	records = append(records, domain.PerformanceRecord{MatchID: "m0", PlayerID: "p2", PlayedAt: epoch.Add(30 * time.Hour)})
	require.NoError(t, r.performance.InsertBatch(ctx, records))

	// m1..m4 fall in (epoch, epoch+24h]; m0 sits on the open bound, m5 is later
	n, err := r.performance.CountSince(ctx, "p1", epoch, epoch.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = r.performance.CountSince(ctx, "p2", epoch, epoch.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResultSave(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	a, b := domain.NewPlayer("a", 2000), domain.NewPlayer("b", 2000)
	ra := a.RecordMatch(domain.RoleMid, 25, domain.PerformanceRecord{MatchID: "m1", Victory: true, PlayedAt: epoch})
	rb := b.RecordMatch(domain.RoleMid, -25, domain.PerformanceRecord{MatchID: "m1", PlayedAt: epoch})
	m := domain.NewMatch(domain.NewTeam([]*domain.Player{a}), domain.NewTeam([]*domain.Player{b}), epoch)
	m.ID = "m1"

	players := []*domain.Player{a, b}
	require.NoError(t, r.results.Save(ctx, players, []domain.PerformanceRecord{ra, rb}, m))

	got, err := r.players.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2025.0, got.RoleRating(domain.RoleMid))
	require.Len(t, got.History(), 1)
	_, err = r.matches.Get(ctx, "m1")
	require.NoError(t, err)

	// a second save of the same records conflicts and must not touch the players
	a.RecordMatch(domain.RoleMid, 100, domain.PerformanceRecord{MatchID: "m2", PlayedAt: epoch.Add(time.Hour)})
	err = r.results.Save(ctx, players, []domain.PerformanceRecord{ra, rb}, m)
	assert.Error(t, err)

	got, err = r.players.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2025.0, got.RoleRating(domain.RoleMid))
}

func TestMatchRoundTrip(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	var t1, t2 []*domain.Player
	for i := 0; i < 2; i++ {
		t1 = append(t1, domain.NewPlayer(fmt.Sprintf("a%d", i), 2000))
		t2 = append(t2, domain.NewPlayer(fmt.Sprintf("b%d", i), 2000))
	}
	m := domain.NewMatch(domain.NewTeam(t1), domain.NewTeam(t2), epoch)
	m.Quality = 0.91
	m.AddEvent(epoch, "match_created", map[string]any{"quality": 0.91})
	require.NoError(t, r.matches.Upsert(ctx, m))

	got, err := r.matches.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a0", "a1"}, got.Team1)
	assert.Equal(t, []string{"b0", "b1"}, got.Team2)
	assert.Equal(t, 0.91, got.Quality)
	assert.Nil(t, got.StartedAt)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "match_created", got.Events[0].Type)

	require.NoError(t, m.Start(epoch.Add(time.Minute)))
	require.NoError(t, m.End("team1", epoch.Add(40*time.Minute)))
	require.NoError(t, r.matches.Upsert(ctx, m))

	got, err = r.matches.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "team1", got.Winner)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(epoch.Add(40*time.Minute)))
	assert.Len(t, got.Events, 3)

	_, err = r.matches.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventsBySubject(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	for i, kind := range []events.Kind{events.KindPerformanceAnalysis, events.KindSafetyViolation, events.KindRatingAdjustment} {
		rec := events.Record{Kind: kind, Timestamp: epoch.Add(time.Duration(i) * time.Second), Subject: "p1", Payload: map[string]int{"n": i}}
		require.NoError(t, r.events.SaveEvent(ctx, rec))
	}
	require.NoError(t, r.events.SaveEvent(ctx, events.Record{Kind: events.KindMatchCreated, Timestamp: epoch, Subject: "m1"}))

	got, err := r.events.ListBySubject(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.KindRatingAdjustment, got[0].Kind)
	assert.Equal(t, events.KindSafetyViolation, got[1].Kind)
	assert.JSONEq(t, `{"n":2}`, string(got[0].Payload.(json.RawMessage)))
}

func TestStoreSinkPersists(t *testing.T) {
	r := newRepos(t)
	sink := events.NewStoreSink(r.events, time.Second, zerolog.New(io.Discard))
	sink.Emit(events.New(events.KindMatchCreated, "m9", map[string]float64{"quality": 0.85}))

	got, err := r.events.ListBySubject(context.Background(), "m9", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events.KindMatchCreated, got[0].Kind)
}
