package quality

import (
	"fmt"
	"math"

	"moba-mmr/internal/domain"
)

type Weights struct {
	RoleBalance   float64 `mapstructure:"role_balance" json:"role_balance"`
	SkillBalance  float64 `mapstructure:"skill_balance" json:"skill_balance"`
	HeroSynergy   float64 `mapstructure:"hero_synergy" json:"hero_synergy"`
	TeamChemistry float64 `mapstructure:"team_chemistry" json:"team_chemistry"`
	Playstyle     float64 `mapstructure:"playstyle" json:"playstyle"`
}

func (w Weights) Sum() float64 {
	return w.RoleBalance + w.SkillBalance + w.HeroSynergy + w.TeamChemistry + w.Playstyle
}

type Config struct {
	TeamSize        int     `mapstructure:"team_size"`
	MaxRatingSpread float64 `mapstructure:"max_rating_spread"`
	RoleSpread      float64 `mapstructure:"role_spread"`   // per-role rating gap scoring 0
	MeanSpread      float64 `mapstructure:"mean_spread"`   // team-mean gap scoring 0
	StdDevSpread    float64 `mapstructure:"stddev_spread"` // std-dev gap scoring 0
	HeroDepthGames  int     `mapstructure:"hero_depth_games"`
	AggressionScale float64 `mapstructure:"aggression_scale"`
	Weights         Weights `mapstructure:"weights"`
}

func DefaultConfig() Config {
	return Config{
		TeamSize:        5,
		MaxRatingSpread: 1000,
		RoleSpread:      1000,
		MeanSpread:      500,
		StdDevSpread:    200,
		HeroDepthGames:  50,
		AggressionScale: 100,
		Weights: Weights{
			RoleBalance:   0.25,
			SkillBalance:  0.25,
			HeroSynergy:   0.20,
			TeamChemistry: 0.15,
			Playstyle:     0.15,
		},
	}
}

type Result struct {
	TeamBalance       float64 `json:"team_balance"`
	RoleSynergy       float64 `json:"role_synergy"`
	SkillDistribution float64 `json:"skill_distribution"`
	SkillBalance      float64 `json:"skill_balance"`
	Communication     float64 `json:"communication"`
	HeroSynergy       float64 `json:"hero_synergy"`
	Playstyle         float64 `json:"playstyle"`
	OverallScore      float64 `json:"overall_score"`
}

// Evaluator scores candidate pairings. It holds no mutable state.
type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Config() Config {
	return e.cfg
}

// ValidComposition requires exactly TeamSize players whose preferred roles together
// cover all five roles.
func (e *Evaluator) ValidComposition(team []*domain.Player) bool {
	if len(team) != e.cfg.TeamSize {
		return false
	}
	var covered domain.RoleSet
	for _, p := range team {
		covered |= p.PreferredSet()
	}
	return covered.Complete()
}

func (e *Evaluator) Evaluate(team1, team2 []*domain.Player) (Result, error) {
	if !e.ValidComposition(team1) {
		return Result{}, &domain.ValidationError{Field: "team1", Reason: e.compositionReason(team1)}
	}
	if !e.ValidComposition(team2) {
		return Result{}, &domain.ValidationError{Field: "team2", Reason: e.compositionReason(team2)}
	}
	return e.Score(team1, team2), nil
}

func (e *Evaluator) compositionReason(team []*domain.Player) string {
	if len(team) != e.cfg.TeamSize {
		return fmt.Sprintf("has %d players, want %d", len(team), e.cfg.TeamSize)
	}
	return "preferred roles do not cover every role"
}

// Score evaluates a pairing without checking compositions; callers that have not
// already filtered with ValidComposition should use Evaluate.
func (e *Evaluator) Score(team1, team2 []*domain.Player) Result {
	r1, r2 := ratings(team1), ratings(team2)
	res := Result{
		TeamBalance:       e.TeamBalance(mean(r1), mean(r2)),
		RoleSynergy:       e.roleSynergy(team1, team2),
		SkillDistribution: e.skillDistribution(r1, r2),
		Communication:     1 - math.Abs(behavior(team1)-behavior(team2)),
		HeroSynergy:       1 - math.Abs(e.heroScore(team1)-e.heroScore(team2)),
		Playstyle:         e.playstyle(team1, team2),
	}
	res.SkillBalance = (res.TeamBalance + res.SkillDistribution) / 2

	w := e.cfg.Weights
	res.OverallScore = clamp01(w.RoleBalance*res.RoleSynergy +
		w.SkillBalance*res.SkillBalance +
		w.HeroSynergy*res.HeroSynergy +
		w.TeamChemistry*res.Communication +
		w.Playstyle*res.Playstyle)
	return res
}

// TeamBalance is 1 for equal averages, falling linearly to 0 at MaxRatingSpread.
func (e *Evaluator) TeamBalance(avg1, avg2 float64) float64 {
	return max(0, 1-math.Abs(avg1-avg2)/math.Max(1, e.cfg.MaxRatingSpread))
}

func (e *Evaluator) roleSynergy(team1, team2 []*domain.Player) float64 {
	var gap float64
	for _, role := range domain.AllRoles() {
		gap += math.Abs(bestAt(team1, role) - bestAt(team2, role))
	}
	return 1 - min(1, gap/(math.Max(1, e.cfg.RoleSpread)*domain.RoleCount))
}

// bestAt is the highest rating for role among players who prefer it.
func bestAt(team []*domain.Player, role domain.Role) float64 {
	var best float64
	for _, p := range team {
		if p.Prefers(role) {
			best = max(best, p.RoleRating(role))
		}
	}
	return best
}

func (e *Evaluator) skillDistribution(r1, r2 []float64) float64 {
	meanGap := math.Abs(mean(r1)-mean(r2)) / math.Max(1, e.cfg.MeanSpread)
	stdGap := math.Abs(stddev(r1)-stddev(r2)) / math.Max(1, e.cfg.StdDevSpread)
	return 1 - min(1, (meanGap+stdGap)/2)
}

func behavior(team []*domain.Player) float64 {
	if len(team) == 0 {
		return 0
	}
	var total float64
	for _, p := range team {
		total += clamp01(float64(p.BehaviorScore) / domain.MaxBehaviorScore)
	}
	return total / float64(len(team))
}

// heroScore rewards deep hero pools and penalises teammates sharing a main hero.
func (e *Evaluator) heroScore(team []*domain.Player) float64 {
	if len(team) == 0 {
		return 0
	}
	mains := make(map[int]int, len(team))
	var depth float64
	for _, p := range team {
		hero, games := p.TopHero()
		depth += min(1, float64(games)/float64(max(1, e.cfg.HeroDepthGames)))
		if hero >= 0 {
			mains[hero]++
		}
	}
	depth /= float64(len(team))

	contested := 0
	for _, n := range mains {
		if n > 1 {
			contested += n
		}
	}
	contention := float64(contested) / float64(len(team))
	return depth * (1 - 0.5*contention)
}

type style struct {
	aggression, objective, teamfight float64
}

func (e *Evaluator) teamStyle(team []*domain.Player) style {
	var s style
	if len(team) == 0 {
		return s
	}
	for _, p := range team {
		st := p.Stats
		s.aggression += min(1, float64(st.HeroDamage)/math.Max(1, st.GPM)/math.Max(1, e.cfg.AggressionScale))
		s.objective += min(1, float64(st.TowerDamage)/math.Max(1, float64(st.HeroDamage)))
		s.teamfight += clamp01(st.TeamfightParticipation)
	}
	n := float64(len(team))
	return style{s.aggression / n, s.objective / n, s.teamfight / n}
}

func (e *Evaluator) playstyle(team1, team2 []*domain.Player) float64 {
	a, b := e.teamStyle(team1), e.teamStyle(team2)
	diff := (math.Abs(a.aggression-b.aggression) +
		math.Abs(a.objective-b.objective) +
		math.Abs(a.teamfight-b.teamfight)) / 3
	return 1 - min(1, diff)
}

func ratings(team []*domain.Player) []float64 {
	out := make([]float64, len(team))
	for i, p := range team {
		out[i] = p.Rating()
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var total float64
	for _, x := range xs {
		total += (x - m) * (x - m)
	}
	return math.Sqrt(total / float64(len(xs)))
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
