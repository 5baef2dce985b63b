// Package exceptional grades a single performance into a tier and the rating
// adjustment that tier carries.
package exceptional

import (
	"fmt"
	"math"

	"moba-mmr/internal/domain"
	"moba-mmr/internal/scoring"
)

type Config struct {
	MinDuration      float64 `mapstructure:"min_duration"` // seconds
	MinTeamfight     float64 `mapstructure:"min_teamfight"`
	MaxSpread        float64 `mapstructure:"max_spread"`
	VeryGood         float64 `mapstructure:"very_good_threshold"`
	Excellent        float64 `mapstructure:"excellent_threshold"`
	Exceptional      float64 `mapstructure:"exceptional_threshold"`
	CoreFloor        float64 `mapstructure:"core_floor"`
	MaxGain          float64 `mapstructure:"max_gain"`
	GainScale        float64 `mapstructure:"gain_scale"`
	VeryGoodScale    float64 `mapstructure:"very_good_scale"`
	VeryGoodFloor    float64 `mapstructure:"very_good_floor"`
	NormalAdjustment float64 `mapstructure:"normal_adjustment"`
}

func DefaultConfig() Config {
	return Config{
		MinDuration:      1500,
		MinTeamfight:     0.6,
		MaxSpread:        0.30,
		VeryGood:         0.70,
		Excellent:        0.80,
		Exceptional:      0.90,
		CoreFloor:        0.85,
		MaxGain:          5,
		GainScale:        50,
		VeryGoodScale:    50,
		VeryGoodFloor:    -10,
		NormalAdjustment: -25,
	}
}

// GameImpactWeights apply to combat, farm, map, objective, teamfight, vision, utility.
var GameImpactWeights = [7]float64{0.25, 0.15, 0.15, 0.15, 0.15, 0.08, 0.07}

type Bundle struct {
	Combat                float64 `json:"combat_score"`
	Farm                  float64 `json:"farm_efficiency"`
	MapImpact             float64 `json:"map_impact"`
	ObjectiveControl      float64 `json:"objective_control"`
	TeamfightContribution float64 `json:"teamfight_contribution"`
	Vision                float64 `json:"vision_control"`
	Utility               float64 `json:"utility_score"`
	GameImpact            float64 `json:"game_impact"`
}

func (b Bundle) vector() [7]float64 {
	return [7]float64{b.Combat, b.Farm, b.MapImpact, b.ObjectiveControl, b.TeamfightContribution, b.Vision, b.Utility}
}

// Spread is the population standard deviation of the five core metrics.
func (b Bundle) Spread() float64 {
	core := [5]float64{b.Combat, b.Farm, b.MapImpact, b.ObjectiveControl, b.TeamfightContribution}
	var mean float64
	for _, v := range core {
		mean += v
	}
	mean /= float64(len(core))
	var variance float64
	for _, v := range core {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(core)))
}

func weighted(w, v [7]float64) float64 {
	var total float64
	for i := range w {
		total += w[i] * v[i]
	}
	return total
}

// ComputeBundle evaluates the stricter metric set used only for tiering.
func ComputeBundle(stats domain.PlayerStatistics, match domain.MatchContext, role domain.Role, telemetry *domain.Telemetry) (Bundle, error) {
	if err := stats.Validate(); err != nil {
		return Bundle{}, err
	}
	if err := match.Validate(); err != nil {
		return Bundle{}, err
	}
	if err := telemetry.Validate(); err != nil {
		return Bundle{}, err
	}
	profile, err := scoring.ProfileFor(role)
	if err != nil {
		return Bundle{}, err
	}
	signals := scoring.EstimateSignals(stats, match)
	if telemetry != nil {
		signals = *telemetry
	}

	var b Bundle
	if b.Combat, err = scoring.CombatEfficiency(stats, match.TeamTotalDamage, role); err != nil {
		return Bundle{}, err
	}
	if b.Farm, err = scoring.FarmEfficiency(stats, match.Duration, role); err != nil {
		return Bundle{}, err
	}
	if b.Vision, err = scoring.VisionScore(stats, match.Duration); err != nil {
		return Bundle{}, err
	}
	b.Utility = scoring.UtilityScore(stats, match.TeamFights)

	b.MapImpact = clamp01(0.7*scoring.KillParticipation(stats, match) + 0.3*scoring.MapPresence(signals))

	buildingShare := float64(stats.TowerDamage) / math.Max(1, match.TeamBuildingDamage)
	b.ObjectiveControl = clamp01(0.6*min(1, buildingShare/profile.BuildingShare) +
		0.4*scoring.ObjectiveFocus(stats, match, signals))

	b.TeamfightContribution = clamp01(0.6*stats.TeamfightParticipation +
		0.4*min(1, scoring.DamageShare(stats, match)/profile.DamageShare))

	b.GameImpact = clamp01(weighted(GameImpactWeights, b.vector()))
	return b, nil
}

type Result struct {
	IsExceptional bool                   `json:"is_exceptional"`
	Tier          domain.PerformanceTier `json:"tier"`
	MMRAdjustment float64                `json:"mmr_adjustment"`
	Metrics       Bundle                 `json:"detailed_metrics"`
	OverallScore  float64                `json:"overall_score"`
	Spread        float64                `json:"spread"`
	Eligible      bool                   `json:"eligible"`
	Reason        string                 `json:"reason,omitempty"`
}

type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Classify(stats domain.PlayerStatistics, match domain.MatchContext, role domain.Role, telemetry *domain.Telemetry) (Result, error) {
	bundle, err := ComputeBundle(stats, match, role, telemetry)
	if err != nil {
		return Result{}, err
	}
	profile, err := scoring.ProfileFor(role)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Metrics:      bundle,
		OverallScore: clamp01(weighted(profile.ExceptionalEmphasis, bundle.vector())),
		Spread:       bundle.Spread(),
		Tier:         domain.TierNormal,
	}

	if reason := c.ineligible(stats, match, res.Spread); reason != "" {
		res.Reason = reason
		return res, nil
	}
	res.Eligible = true
	res.Tier, res.MMRAdjustment = c.Grade(bundle, res.OverallScore)
	res.IsExceptional = res.Tier > domain.TierNormal
	return res, nil
}

func (c *Classifier) ineligible(stats domain.PlayerStatistics, match domain.MatchContext, spread float64) string {
	switch {
	case match.Duration < c.cfg.MinDuration:
		return fmt.Sprintf("match too short: %.0fs < %.0fs", match.Duration, c.cfg.MinDuration)
	case stats.TeamfightParticipation < c.cfg.MinTeamfight:
		return fmt.Sprintf("teamfight participation %.2f below %.2f", stats.TeamfightParticipation, c.cfg.MinTeamfight)
	case spread > c.cfg.MaxSpread:
		return fmt.Sprintf("inconsistent metrics: spread %.3f above %.2f", spread, c.cfg.MaxSpread)
	}
	return ""
}

// Grade maps an overall score to a tier and adjustment. The exceptional tier also
// needs combat, teamfight and game impact at or above the core floor; otherwise the
// score falls through to excellent.
func (c *Classifier) Grade(b Bundle, overall float64) (domain.PerformanceTier, float64) {
	switch {
	case overall >= c.cfg.Exceptional && c.coreMetricsHold(b):
		return domain.TierExceptional, min(c.cfg.MaxGain, (overall-c.cfg.Exceptional)*c.cfg.GainScale)
	case overall >= c.cfg.Excellent:
		return domain.TierExcellent, 0
	case overall >= c.cfg.VeryGood:
		return domain.TierVeryGood, max(c.cfg.VeryGoodFloor, (overall-c.cfg.VeryGood)*-c.cfg.VeryGoodScale)
	default:
		return domain.TierNormal, c.cfg.NormalAdjustment
	}
}

func (c *Classifier) coreMetricsHold(b Bundle) bool {
	return b.Combat >= c.cfg.CoreFloor &&
		b.TeamfightContribution >= c.cfg.CoreFloor &&
		b.GameImpact >= c.cfg.CoreFloor
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
