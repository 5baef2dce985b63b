package scoring

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"moba-mmr/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carryStats() domain.PlayerStatistics {
	return domain.PlayerStatistics{
		Kills:                  15,
		Deaths:                 2,
		Assists:                20,
		LastHits:               400,
		GPM:                    700,
		XPM:                    800,
		HeroDamage:             45000,
		TowerDamage:            8000,
		StunDuration:           15,
		WardsPlaced:            3,
		WardsDestroyed:         2,
		TeamfightParticipation: 0.9,
		VisionUptime:           0.35,
	}
}

func carryMatch() domain.MatchContext {
	return domain.MatchContext{
		Duration:           2400,
		TeamTotalDamage:    100000,
		Winner:             "dire",
		Side:               "dire",
		TeamKills:          40,
		EnemyKills:         25,
		TeamBuildingDamage: 20000,
		TeamFights:         15,
	}
}

func randomStats(r *rand.Rand) domain.PlayerStatistics {
	return domain.PlayerStatistics{
		Kills:                  r.Intn(40),
		Deaths:                 r.Intn(25),
		Assists:                r.Intn(50),
		LastHits:               r.Intn(1200),
		Denies:                 r.Intn(60),
		GPM:                    r.Float64() * 1200,
		XPM:                    r.Float64() * 1500,
		HeroDamage:             r.Intn(120000),
		TowerDamage:            r.Intn(30000),
		HeroHealing:            r.Intn(20000),
		StunDuration:           r.Float64() * 200,
		WardsPlaced:            r.Intn(40),
		WardsDestroyed:         r.Intn(20),
		TeamfightParticipation: r.Float64(),
		VisionUptime:           r.Float64(),
	}
}

func randomMatch(r *rand.Rand) domain.MatchContext {
	return domain.MatchContext{
		Duration:           1 + r.Float64()*4800,
		TeamTotalDamage:    r.Float64() * 300000,
		TeamGoldDifference: (r.Float64() - 0.5) * 40000,
		TeamKills:          r.Intn(80),
		EnemyKills:         r.Intn(80),
		TeamBuildingDamage: r.Float64() * 60000,
		TeamFights:         r.Intn(30),
	}
}

func TestComputeExampleCarry(t *testing.T) {
	scores, err := Compute(carryStats(), carryMatch(), domain.RoleCarry, nil)
	require.NoError(t, err)

	expected := map[Metric]float64{
		MetricFarmEfficiency:  1.0,
		MetricDamageOutput:    1.0,
		MetricVisionControl:   0.225,
		MetricUtility:         0.35,
		MetricSurvival:        1 - (2.0/40)/0.12,
		MetricMapPresence:     0.5,
		MetricSpaceCreation:   0.21,
		MetricObjectiveFocus:  0.2,
		MetricTeamfightImpact: 0.505,
	}
	for m, want := range expected {
		assert.InDelta(t, want, scores.Get(m), 1e-9, m.String())
	}
}

func TestCalculatorsStayInRange(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		stats := randomStats(r)
		match := randomMatch(r)
		role := domain.Role(r.Intn(domain.RoleCount))

		var telemetry *domain.Telemetry
		if i%2 == 0 {
			impact := r.Float64()*2 - 1
			telemetry = &domain.Telemetry{
				TeleportsUsed:        r.Intn(30),
				LaneParticipation:    [3]float64{r.Float64(), r.Float64(), r.Float64()},
				ObjectivePresence:    r.Float64(),
				EnemyAttention:       r.Float64(),
				RotationsForced:      r.Intn(30),
				RoshanParticipation:  r.Float64(),
				ObjectiveControl:     r.Float64(),
				TeamfightDamageShare: r.Float64(),
				TotalFightDuration:   r.Float64() * 900,
				DeathImpact:          &impact,
			}
		}

		scores, err := Compute(stats, match, role, telemetry)
		require.NoError(t, err)
		for m, v := range scores {
			assert.GreaterOrEqual(t, v, 0.0, Metric(m).String())
			assert.LessOrEqual(t, v, 1.0, Metric(m).String())
		}
	}
}

func TestCalculatorsAreIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		stats := randomStats(r)
		match := randomMatch(r)
		role := domain.Role(r.Intn(domain.RoleCount))

		first, err := Compute(stats, match, role, nil)
		require.NoError(t, err)
		second, err := Compute(stats, match, role, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestFarmEfficiencyMonotonicInLastHits(t *testing.T) {
	for _, role := range domain.AllRoles() {
		t.Run(role.String(), func(t *testing.T) {
			stats := carryStats()
			stats.GPM = 300
			prev := -1.0
			for lh := 0; lh <= 800; lh += 25 {
				stats.LastHits = lh
				got, err := FarmEfficiency(stats, 1800, role)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, prev)
				prev = got
			}
		})
	}
}

func TestSurvivalMonotonicInDeaths(t *testing.T) {
	for _, role := range domain.AllRoles() {
		t.Run(role.String(), func(t *testing.T) {
			stats := carryStats()
			prev := 2.0
			for d := 0; d <= 30; d++ {
				stats.Deaths = d
				got, err := SurvivalScore(stats, 2400, role, nil)
				require.NoError(t, err)
				assert.LessOrEqual(t, got, prev)
				prev = got
			}
		})
	}
}

func TestNonPositiveDurationIsValidationError(t *testing.T) {
	stats := carryStats()
	tests := []struct {
		name string
		call func() error
	}{
		{"farm", func() error { _, err := FarmEfficiency(stats, 0, domain.RoleCarry); return err }},
		{"vision", func() error { _, err := VisionScore(stats, -60); return err }},
		{"survival", func() error { _, err := SurvivalScore(stats, 0, domain.RoleMid, nil); return err }},
		{"space", func() error { _, err := SpaceCreation(stats, 0, domain.Telemetry{}); return err }},
		{"compute", func() error {
			match := carryMatch()
			match.Duration = 0
			_, err := Compute(stats, match, domain.RoleCarry, nil)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(carryStats(), carryMatch(), domain.Role(9), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stats := carryStats()
	stats.Kills = -1
	_, err = Compute(stats, carryMatch(), domain.RoleCarry, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Compute(carryStats(), carryMatch(), domain.RoleCarry, &domain.Telemetry{EnemyAttention: 1.5})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestZeroDenominatorsAreSafe(t *testing.T) {
	match := domain.MatchContext{Duration: 60}
	scores, err := Compute(carryStats(), match, domain.RoleHardSupport, nil)
	require.NoError(t, err)
	for m, v := range scores {
		assert.False(t, math.IsNaN(v), Metric(m).String())
	}
	assert.Equal(t, 1.0, KillParticipation(carryStats(), match))
}

func TestEstimateSignals(t *testing.T) {
	signals := EstimateSignals(carryStats(), carryMatch())
	assert.InDelta(t, 0.875, signals.LaneParticipation[0], 1e-9)
	assert.Equal(t, 0.5, signals.ObjectivePresence)
	assert.Equal(t, 0.5, signals.EnemyAttention)
	assert.InDelta(t, 0.45, signals.TeamfightDamageShare, 1e-9)
	assert.Equal(t, 450.0, signals.TotalFightDuration)
	assert.Nil(t, signals.DeathImpact)
	assert.Zero(t, signals.RotationsForced)
}

func TestDeathImpactScalesSurvival(t *testing.T) {
	stats := carryStats()
	base, err := SurvivalScore(stats, 2400, domain.RoleCarry, nil)
	require.NoError(t, err)

	bonus := 0.5
	boosted, err := SurvivalScore(stats, 2400, domain.RoleCarry, &bonus)
	require.NoError(t, err)
	assert.InDelta(t, base*1.5, boosted, 1e-9)

	huge := 3.0
	capped, err := SurvivalScore(stats, 2400, domain.RoleCarry, &huge)
	require.NoError(t, err)
	assert.Equal(t, 1.0, capped)
}

func TestProfileTables(t *testing.T) {
	for _, role := range domain.AllRoles() {
		t.Run(role.String(), func(t *testing.T) {
			p, err := ProfileFor(role)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-9)

			var emphasis float64
			for _, w := range p.ExceptionalEmphasis {
				emphasis += w
			}
			assert.InDelta(t, 1.0, emphasis, 1e-9)

			for m, v := range p.StateModifiers {
				assert.Positive(t, v, Metric(m).String())
			}
			for phase, exp := range p.Phases {
				assert.Positive(t, exp.CSPerMinute, domain.GamePhase(phase).String())
				assert.Positive(t, exp.GPM, domain.GamePhase(phase).String())
			}
		})
	}

	carry, _ := ProfileFor(domain.RoleCarry)
	hard, _ := ProfileFor(domain.RoleHardSupport)
	assert.Greater(t, hard.DeathsPerMinute, carry.DeathsPerMinute)

	_, err := ProfileFor(domain.Role(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScoresJSON(t *testing.T) {
	var s Scores
	s[MetricVisionControl] = 0.25
	s[MetricTeamfightImpact] = 1

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"vision_control":0.25`)

	var back Scores
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s, back)
	assert.Equal(t, "metric(12)", Metric(12).String())
}
