package rating

import "moba-mmr/internal/domain"

type Config struct {
	Base              float64 `mapstructure:"base"`
	OutcomeWeight     float64 `mapstructure:"outcome_weight"`
	PerformanceWeight float64 `mapstructure:"performance_weight"`
	BonusScale        float64 `mapstructure:"bonus_scale"`
	LossProtection    bool    `mapstructure:"loss_protection"`
}

func DefaultConfig() Config {
	return Config{
		Base:              25,
		OutcomeWeight:     0.8,
		PerformanceWeight: 0.2,
		BonusScale:        0.1,
		LossProtection:    true,
	}
}

type Input struct {
	Victory          bool
	PerformanceScore float64
	TeamPlay         float64
	RoleExecution    float64
	Behavior         float64 // expected in (0,1], clamped to [0,1]
}

type Adjuster struct {
	cfg Config
}

func NewAdjuster(cfg Config) *Adjuster {
	return &Adjuster{cfg: cfg}
}

// Delta is (outcome + performance) * (1+teamPlay) * (1+roleExecution) * behavior.
func (a *Adjuster) Delta(in Input) float64 {
	outcome := -a.cfg.Base
	if in.Victory {
		outcome = a.cfg.Base
	}
	delta := a.cfg.OutcomeWeight*outcome + a.cfg.PerformanceWeight*(in.PerformanceScore-0.5)*a.cfg.Base
	delta *= 1 + in.TeamPlay
	delta *= 1 + in.RoleExecution
	delta *= clamp01(in.Behavior)
	return delta
}

// TeamPlayBonus centres the mean of teamfight and kill participation on 0.5.
func (a *Adjuster) TeamPlayBonus(teamfight, killParticipation float64) float64 {
	return a.cfg.BonusScale * ((teamfight+killParticipation)/2 - 0.5)
}

func (a *Adjuster) RoleExecutionBonus(overall float64) float64 {
	return a.cfg.BonusScale * (overall - 0.5)
}

func BehaviorModifier(score int) float64 {
	return clamp01(float64(score) / domain.MaxBehaviorScore)
}

// Assessment is everything known about one player's match once scoring, tiering and
// the safety gate have run.
type Assessment struct {
	Victory           bool
	Score             float64
	Teamfight         float64
	KillParticipation float64
	BehaviorScore     int
	Safe              bool
	Eligible          bool
	Tier              domain.PerformanceTier
	TierAdjustment    float64
}

type Decision struct {
	Delta     float64 `json:"delta"`
	Protected bool    `json:"protected"`
	Input     Input   `json:"-"`
}

// Settle picks the rating change for an assessed performance. A performance that
// failed the safety gate contributes nothing beyond the outcome. A trusted loss graded
// above normal is settled at the tier adjustment instead of the loss delta.
func (a *Adjuster) Settle(as Assessment) Decision {
	in := Input{
		Victory:          as.Victory,
		PerformanceScore: 0.5,
		Behavior:         BehaviorModifier(as.BehaviorScore),
	}
	if as.Safe {
		in.PerformanceScore = as.Score
		in.TeamPlay = a.TeamPlayBonus(as.Teamfight, as.KillParticipation)
		in.RoleExecution = a.RoleExecutionBonus(as.Score)
	}

	if a.cfg.LossProtection && !as.Victory && as.Safe && as.Eligible && as.Tier > domain.TierNormal {
		return Decision{Delta: as.TierAdjustment, Protected: true, Input: in}
	}
	return Decision{Delta: a.Delta(in), Input: in}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
