package safety

import (
	"testing"
	"time"

	"moba-mmr/internal/domain"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func cleanInput() Input {
	return Input{
		Stats: domain.PlayerStatistics{
			Kills:                  10,
			Deaths:                 4,
			Assists:                12,
			LastHits:               300,
			GPM:                    600,
			XPM:                    700,
			HeroDamage:             30000,
			TeamfightParticipation: 0.75,
		},
		Match: domain.MatchContext{
			Duration:        2400,
			TeamTotalDamage: 100000,
			TeamKills:       35,
			EnemyKills:      20,
		},
		Score: 0.7,
		Now:   now,
	}
}

func history(scores ...float64) []domain.PerformanceRecord {
	out := make([]domain.PerformanceRecord, len(scores))
	for i, s := range scores {
		out[i] = domain.PerformanceRecord{
			Score:    s,
			Tier:     domain.TierExcellent,
			PlayedAt: now.Add(-time.Duration(len(scores)-i) * 48 * time.Hour),
		}
	}
	return out
}

func TestCleanPerformancePasses(t *testing.T) {
	v := NewChecker(DefaultConfig()).Check(cleanInput())
	assert.True(t, v.Passed)
	assert.Equal(t, "passed", v.String())
}

func TestSuspiciouslyConsistentHighPerformance(t *testing.T) {
	in := cleanInput()
	in.History = history(0.97, 0.98, 0.96, 0.99, 0.97)
	in.Score = 0.97

	v := NewChecker(DefaultConfig()).Check(in)
	assert.False(t, v.Passed)
	assert.Equal(t, CheckPatterns, v.Check)
	assert.Equal(t, "suspiciously consistent high performance", v.Reason)
}

func TestHighRunNeedsFiveRecords(t *testing.T) {
	in := cleanInput()
	in.History = history(0.97, 0.98, 0.99, 0.97)
	in.Score = 0.99
	assert.True(t, NewChecker(DefaultConfig()).Check(in).Passed)

	in.History = history(0.97, 0.98, 0.90, 0.99, 0.97)
	assert.True(t, NewChecker(DefaultConfig()).Check(in).Passed)

	in.History = history(0.97, 0.98, 0.96, 0.99, 0.97)
	in.Score = 0.95
	assert.True(t, NewChecker(DefaultConfig()).Check(in).Passed)
}

func TestFirstFailingCheckIsReported(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		check  string
	}{
		{"short game", func(in *Input) { in.Match.Duration = 1200 }, CheckDuration},
		{"low participation", func(in *Input) { in.Stats.TeamfightParticipation = 0.5 }, CheckParticipation},
		{"tilted", func(in *Input) { in.Tilt = 0.4 }, CheckTilt},
		{"stomp", func(in *Input) { in.Match.TeamGoldDifference = -35000 }, CheckBalance},
		{"exceptional streak", func(in *Input) {
			in.History = history(0.9, 0.9, 0.9)
			for i := range in.History {
				in.History[i].Tier = domain.TierExceptional
			}
		}, CheckHistory},
		{"too many games", func(in *Input) {
			cfg := DefaultConfig()
			in.History = make([]domain.PerformanceRecord, cfg.MaxGamesInWindow)
			for i := range in.History {
				in.History[i].PlayedAt = now.Add(-time.Duration(i+1) * time.Minute)
			}
		}, CheckHistory},
		{"stored games beyond the loaded window", func(in *Input) {
			in.History = history(0.7, 0.7)
			in.GamesInWindow = DefaultConfig().MaxGamesInWindow
		}, CheckHistory},
		{"exceptional streak before high run", func(in *Input) {
			in.History = history(0.97, 0.98, 0.96, 0.99, 0.97)
			for i := range in.History {
				in.History[i].Tier = domain.TierExceptional
			}
			in.Score = 0.97
		}, CheckHistory},
		{"impossible gpm", func(in *Input) { in.Stats.GPM = 1600 }, CheckPatterns},
		{"impossible xpm", func(in *Input) { in.Stats.XPM = 2600 }, CheckPatterns},
		{"impossible cs", func(in *Input) { in.Stats.LastHits = 700 }, CheckPatterns},
		{"kda", func(in *Input) { in.Stats.Deaths = 0; in.Stats.Kills = 20; in.Stats.Assists = 25 }, CheckPatterns},
		{"kills without damage", func(in *Input) { in.Stats.HeroDamage = 0 }, CheckPatterns},
		{"damage share", func(in *Input) { in.Stats.HeroDamage = 95000 }, CheckPatterns},
		{"more kills than team", func(in *Input) { in.Match.TeamKills = 15 }, CheckPatterns},
		{"more deaths than enemy kills", func(in *Input) { in.Match.EnemyKills = 0 }, CheckPatterns},
		{"duration before tilt", func(in *Input) { in.Tilt = 1; in.Match.Duration = 600 }, CheckDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cleanInput()
			tt.mutate(&in)
			v := NewChecker(DefaultConfig()).Check(in)
			assert.False(t, v.Passed)
			assert.Equal(t, tt.check, v.Check)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestGamesOutsideWindowDoNotCount(t *testing.T) {
	in := cleanInput()
	in.History = make([]domain.PerformanceRecord, 40)
	for i := range in.History {
		in.History[i].PlayedAt = now.Add(-48 * time.Hour)
	}
	assert.True(t, NewChecker(DefaultConfig()).Check(in).Passed)
}

func TestGamesInWindowBelowLimitPasses(t *testing.T) {
	in := cleanInput()
	in.GamesInWindow = DefaultConfig().MaxGamesInWindow - 1
	assert.True(t, NewChecker(DefaultConfig()).Check(in).Passed)
}

func TestUnusualIsDisjunction(t *testing.T) {
	limits := DefaultConfig().Limits
	in := cleanInput()
	assert.Empty(t, limits.Unusual(in.Stats, in.Match))

	in.Stats.GPM = 2000
	in.Match.TeamKills = 1
	assert.Contains(t, limits.Unusual(in.Stats, in.Match), "gpm")

	in = cleanInput()
	in.Match.TeamKills = 1
	assert.Contains(t, limits.Unusual(in.Stats, in.Match), "team kills")
}
