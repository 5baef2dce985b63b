// Package scoring maps raw per-match statistics to normalized sub-scores in [0,1].
//
// Every calculator is a pure function. Structurally invalid input (non-positive
// duration, unknown role) is reported as a *domain.ValidationError; in-domain input
// never fails and is clamped rather than left unbounded.
package scoring

import (
	"math"

	"moba-mmr/internal/domain"
)

const (
	KDAReference            = 4.0
	HealingReference        = 5000.0
	StunPerFightReference   = 5.0  // seconds of stun per teamfight
	WardsPlacedPerMinute    = 0.5  // placement rate scoring 1.0
	WardsDestroyedPerMinute = 0.25 // destruction rate scoring 1.0
	TeleportReference       = 10.0
	RotationReference       = 10.0
	TowerDamagePerSecond    = 100.0
	AverageFightSeconds     = 30.0
)

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ratio(num, denom float64) float64 {
	return num / math.Max(1, denom)
}

func requireDuration(duration float64) error {
	if math.IsNaN(duration) || duration <= 0 {
		return &domain.ValidationError{Field: "duration", Reason: "must be positive"}
	}
	return nil
}

// FarmEfficiency averages last-hit pace and GPM against the role's expectations for
// the phase the match ended in.
func FarmEfficiency(stats domain.PlayerStatistics, duration float64, role domain.Role) (float64, error) {
	if err := requireDuration(duration); err != nil {
		return 0, err
	}
	profile, err := ProfileFor(role)
	if err != nil {
		return 0, err
	}
	minutes := duration / 60
	expected := profile.Phases[domain.PhaseFor(minutes)]

	cs := clamp01(float64(stats.LastHits) / (expected.CSPerMinute * minutes))
	gpm := clamp01(stats.GPM / expected.GPM)
	return clamp01((cs + gpm) / 2), nil
}

// CombatEfficiency is 60% damage share against the role expectation and 40% KDA
// against a KDA of 4, each term capped at 1.
func CombatEfficiency(stats domain.PlayerStatistics, teamDamage float64, role domain.Role) (float64, error) {
	profile, err := ProfileFor(role)
	if err != nil {
		return 0, err
	}
	share := ratio(float64(stats.HeroDamage), teamDamage)
	damage := clamp01(share / profile.DamageShare)
	kda := clamp01(stats.KDA() / KDAReference)
	return clamp01(damage*0.6 + kda*0.4), nil
}

func VisionScore(stats domain.PlayerStatistics, duration float64) (float64, error) {
	if err := requireDuration(duration); err != nil {
		return 0, err
	}
	minutes := duration / 60
	placed := clamp01(float64(stats.WardsPlaced) / minutes / WardsPlacedPerMinute)
	destroyed := clamp01(float64(stats.WardsDestroyed) / minutes / WardsDestroyedPerMinute)
	uptime := clamp01(stats.VisionUptime)
	return clamp01(placed*0.4 + destroyed*0.3 + uptime*0.3), nil
}

func UtilityScore(stats domain.PlayerStatistics, teamFights int) float64 {
	stun := clamp01(stats.StunDuration / (math.Max(1, float64(teamFights)) * StunPerFightReference))
	healing := clamp01(float64(stats.HeroHealing) / HealingReference)
	participation := clamp01(stats.TeamfightParticipation)
	return clamp01(stun*0.4 + healing*0.3 + participation*0.3)
}

// SurvivalScore compares the death rate with the role's ceiling. A death-impact
// adjustment, when the collector measured one, scales the result before clamping.
func SurvivalScore(stats domain.PlayerStatistics, duration float64, role domain.Role, deathImpact *float64) (float64, error) {
	if err := requireDuration(duration); err != nil {
		return 0, err
	}
	profile, err := ProfileFor(role)
	if err != nil {
		return 0, err
	}
	deathRate := float64(stats.Deaths) / (duration / 60)
	score := math.Max(0, 1-deathRate/profile.DeathsPerMinute)
	if deathImpact != nil {
		score *= 1 + *deathImpact
	}
	return clamp01(score), nil
}

func MapPresence(signals domain.Telemetry) float64 {
	tp := clamp01(float64(signals.TeleportsUsed) / TeleportReference)
	var lanes float64
	for _, lp := range signals.LaneParticipation {
		lanes += clamp01(lp)
	}
	lanes /= float64(len(signals.LaneParticipation))
	return clamp01(tp*0.3 + lanes*0.4 + clamp01(signals.ObjectivePresence)*0.3)
}

func SpaceCreation(stats domain.PlayerStatistics, duration float64, signals domain.Telemetry) (float64, error) {
	if err := requireDuration(duration); err != nil {
		return 0, err
	}
	attention := clamp01(signals.EnemyAttention)
	pressure := clamp01(float64(stats.TowerDamage) / duration / TowerDamagePerSecond)
	rotations := clamp01(float64(signals.RotationsForced) / RotationReference)
	return clamp01(attention*0.4 + pressure*0.3 + rotations*0.3), nil
}

func ObjectiveFocus(stats domain.PlayerStatistics, match domain.MatchContext, signals domain.Telemetry) float64 {
	share := clamp01(ratio(float64(stats.TowerDamage), match.TeamBuildingDamage))
	return clamp01(share*0.5 + clamp01(signals.RoshanParticipation)*0.3 + clamp01(signals.ObjectiveControl)*0.2)
}

func TeamfightImpact(stats domain.PlayerStatistics, signals domain.Telemetry) float64 {
	participation := clamp01(stats.TeamfightParticipation)
	damage := clamp01(signals.TeamfightDamageShare)
	control := clamp01(ratio(stats.StunDuration, signals.TotalFightDuration))
	return clamp01(participation*0.4 + damage*0.3 + control*0.3)
}

// KillParticipation is (kills + assists) / team kills, clamped to [0,1].
func KillParticipation(stats domain.PlayerStatistics, match domain.MatchContext) float64 {
	return clamp01(ratio(float64(stats.Kills+stats.Assists), float64(match.TeamKills)))
}

func DamageShare(stats domain.PlayerStatistics, match domain.MatchContext) float64 {
	return clamp01(ratio(float64(stats.HeroDamage), match.TeamTotalDamage))
}

// EstimateSignals derives neutral advanced signals from core statistics for matches
// whose collector did not produce telemetry.
func EstimateSignals(stats domain.PlayerStatistics, match domain.MatchContext) domain.Telemetry {
	kp := KillParticipation(stats, match)
	return domain.Telemetry{
		LaneParticipation:    [3]float64{kp, kp, kp},
		ObjectivePresence:    0.5,
		EnemyAttention:       0.5,
		TeamfightDamageShare: DamageShare(stats, match),
		TotalFightDuration:   float64(match.TeamFights) * AverageFightSeconds,
	}
}

// Compute validates the inputs and evaluates all nine calculators.
func Compute(stats domain.PlayerStatistics, match domain.MatchContext, role domain.Role, telemetry *domain.Telemetry) (SubScoreSet, error) {
	var set SubScoreSet
	if err := stats.Validate(); err != nil {
		return set, err
	}
	if err := match.Validate(); err != nil {
		return set, err
	}
	if err := telemetry.Validate(); err != nil {
		return set, err
	}
	if _, err := ProfileFor(role); err != nil {
		return set, err
	}

	signals := EstimateSignals(stats, match)
	if telemetry != nil {
		signals = *telemetry
	}

	var err error
	if set[MetricFarmEfficiency], err = FarmEfficiency(stats, match.Duration, role); err != nil {
		return set, err
	}
	if set[MetricDamageOutput], err = CombatEfficiency(stats, match.TeamTotalDamage, role); err != nil {
		return set, err
	}
	if set[MetricVisionControl], err = VisionScore(stats, match.Duration); err != nil {
		return set, err
	}
	set[MetricUtility] = UtilityScore(stats, match.TeamFights)
	if set[MetricSurvival], err = SurvivalScore(stats, match.Duration, role, signals.DeathImpact); err != nil {
		return set, err
	}
	set[MetricMapPresence] = MapPresence(signals)
	if set[MetricSpaceCreation], err = SpaceCreation(stats, match.Duration, signals); err != nil {
		return set, err
	}
	set[MetricObjectiveFocus] = ObjectiveFocus(stats, match, signals)
	set[MetricTeamfightImpact] = TeamfightImpact(stats, signals)
	return set, nil
}
