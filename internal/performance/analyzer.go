package performance

import (
	"moba-mmr/internal/domain"
	"moba-mmr/internal/scoring"
)

type Config struct {
	// GoldThreshold separates an even game from a winning or losing one.
	GoldThreshold float64 `mapstructure:"gold_threshold"`
	LosingBoost   float64 `mapstructure:"losing_multiplier"`
	EvenFactor    float64 `mapstructure:"even_multiplier"`
	WinningFactor float64 `mapstructure:"winning_multiplier"`
}

func DefaultConfig() Config {
	return Config{
		GoldThreshold: 5000,
		LosingBoost:   1.2,
		EvenFactor:    1.0,
		WinningFactor: 0.9,
	}
}

func (c Config) multiplier(state domain.GameState) float64 {
	switch state {
	case domain.StateLosing:
		return c.LosingBoost
	case domain.StateWinning:
		return c.WinningFactor
	default:
		return c.EvenFactor
	}
}

type Input struct {
	Stats     domain.PlayerStatistics
	Match     domain.MatchContext
	Role      domain.Role
	Telemetry *domain.Telemetry
}

type Result struct {
	Role            domain.Role         `json:"role"`
	Phase           domain.GamePhase    `json:"phase"`
	State           domain.GameState    `json:"state"`
	BaseMetrics     scoring.SubScoreSet `json:"base_metrics"`
	AdjustedMetrics scoring.Scores      `json:"adjusted_metrics"`
	ImpactScores    scoring.SubScoreSet `json:"impact_scores"`
	OverallScore    float64             `json:"overall_score"`
}

// Analyzer is stateless; one value can serve any number of goroutines.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Analyze(in Input) (Result, error) {
	base, err := scoring.Compute(in.Stats, in.Match, in.Role, in.Telemetry)
	if err != nil {
		return Result{}, err
	}
	profile, err := scoring.ProfileFor(in.Role)
	if err != nil {
		return Result{}, err
	}

	state := domain.GameStateFor(in.Match.TeamGoldDifference, a.cfg.GoldThreshold)
	res := Result{
		Role:        in.Role,
		Phase:       domain.PhaseFor(in.Match.Minutes()),
		State:       state,
		BaseMetrics: base,
	}

	// Both factors scale the raw value once; neither compounds on the other.
	stateFactor := a.cfg.multiplier(state)
	for m, v := range base {
		res.AdjustedMetrics[m] = v * stateFactor * profile.StateModifiers[m]
		res.ImpactScores[m] = min(1, res.AdjustedMetrics[m])
	}
	res.OverallScore = clamp01(profile.Weights.Apply(res.ImpactScores))
	return res, nil
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
