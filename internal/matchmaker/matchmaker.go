// Package matchmaker searches a player pool for the best pairing that clears the
// quality floor.
//
// The search walks every 2k-player combination of the pool in lexicographic index
// order and, for each, every split with the combination's first player pinned to
// team 1, so mirrored splits are never scored twice. Combinations in which some role
// has fewer than two willing players are skipped before any split is built. Worst
// case this is C(n, 2k) * C(2k-1, k-1) evaluations; MaxEvaluations and the context
// bound it in practice.
package matchmaker

import (
	"context"
	"sync"
	"time"

	"moba-mmr/internal/domain"
	"moba-mmr/internal/quality"
)

type Config struct {
	Threshold      float64 `mapstructure:"threshold"`
	MaxEvaluations int     `mapstructure:"max_evaluations"` // 0 means unbounded
	RecentLimit    int     `mapstructure:"recent_limit"`
}

func DefaultConfig() Config {
	return Config{
		Threshold:      0.8,
		MaxEvaluations: 250000,
		RecentLimit:    50,
	}
}

type Outcome struct {
	Match      *domain.Match
	Quality    quality.Result
	Found      bool
	Evaluated  int
	Exhaustive bool
}

type Matchmaker struct {
	cfg  Config
	eval *quality.Evaluator
	pool *Pool
	now  func() time.Time

	mu     sync.Mutex
	recent []*domain.Match
}

func New(cfg Config, eval *quality.Evaluator, pool *Pool) *Matchmaker {
	return &Matchmaker{
		cfg:  cfg,
		eval: eval,
		pool: pool,
		now:  time.Now,
	}
}

func (m *Matchmaker) Pool() *Pool {
	return m.pool
}

// Recent returns the latest created matches, oldest first.
func (m *Matchmaker) Recent() []*domain.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Match(nil), m.recent...)
}

// FindMatch selects the highest-quality pairing at or above the threshold and removes
// its players from the pool. The pool stays locked from enumeration to removal.
//
// If ctx ends or MaxEvaluations is reached first, the best qualifying pairing seen so
// far is still returned, with Exhaustive false. A cancelled search that found nothing
// returns the context error.
func (m *Matchmaker) FindMatch(ctx context.Context) (Outcome, error) {
	k := m.eval.Config().TeamSize
	if k <= 0 {
		return Outcome{}, &domain.ValidationError{Field: "team_size", Reason: "must be positive"}
	}

	m.pool.mu.Lock()
	defer m.pool.mu.Unlock()

	players := m.pool.players
	if len(players) < 2*k {
		return Outcome{Exhaustive: true}, nil
	}

	s := search{
		m:        m,
		ctx:      ctx,
		k:        k,
		team1:    make([]*domain.Player, k),
		team2:    make([]*domain.Player, k),
		bestT1:   make([]*domain.Player, k),
		bestT2:   make([]*domain.Player, k),
		selected: make([]*domain.Player, 2*k),
	}

	combo := firstCombination(2 * k)
	for {
		for i, idx := range combo {
			s.selected[i] = players[idx]
		}
		if coverable(s.selected) {
			if !s.splits() {
				break
			}
		} else if s.expired() {
			break
		}
		if !nextCombination(combo, len(players)) {
			s.exhaustive = true
			break
		}
	}

	out := Outcome{Evaluated: s.evaluated, Exhaustive: s.exhaustive}
	if !s.found {
		if !s.exhaustive && ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, nil
	}

	now := m.now()
	match := domain.NewMatch(domain.NewTeam(s.bestT1), domain.NewTeam(s.bestT2), now)
	match.Quality = s.best.OverallScore
	match.Balance = s.best.TeamBalance
	match.AddEvent(now, "match_created", map[string]any{
		"quality":   s.best.OverallScore,
		"evaluated": s.evaluated,
	})

	ids := append(match.Team1.IDs(), match.Team2.IDs()...)
	m.pool.removeLocked(ids)
	m.remember(match)

	out.Match = match
	out.Quality = s.best
	out.Found = true
	return out, nil
}

func (m *Matchmaker) remember(match *domain.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = append(m.recent, match)
	if over := len(m.recent) - m.cfg.RecentLimit; m.cfg.RecentLimit > 0 && over > 0 {
		m.recent = append([]*domain.Match(nil), m.recent[over:]...)
	}
}

type search struct {
	m   *Matchmaker
	ctx context.Context
	k   int

	selected     []*domain.Player
	team1, team2 []*domain.Player

	found          bool
	best           quality.Result
	bestT1, bestT2 []*domain.Player
	evaluated      int
	exhaustive     bool
}

const ctxCheckEvery = 256

func (s *search) expired() bool {
	if s.ctx.Err() != nil {
		return true
	}
	return s.m.cfg.MaxEvaluations > 0 && s.evaluated >= s.m.cfg.MaxEvaluations
}

// splits scores every split of selected and reports false when the search must stop.
func (s *search) splits() bool {
	if s.expired() {
		return false
	}
	n := len(s.selected)
	// team 1 is selected[0] plus k-1 members chosen from selected[1:].
	pick := firstCombination(s.k - 1)
	for {
		s.fill(pick)
		if s.m.eval.ValidComposition(s.team1) && s.m.eval.ValidComposition(s.team2) {
			res := s.m.eval.Score(s.team1, s.team2)
			s.evaluated++
			if res.OverallScore >= s.m.cfg.Threshold && (!s.found || res.OverallScore > s.best.OverallScore) {
				s.found = true
				s.best = res
				copy(s.bestT1, s.team1)
				copy(s.bestT2, s.team2)
			}
			if s.evaluated%ctxCheckEvery == 0 || s.m.cfg.MaxEvaluations > 0 {
				if s.expired() {
					return false
				}
			}
		}
		if !nextCombination(pick, n-1) {
			return true
		}
	}
}

func (s *search) fill(pick []int) {
	s.team1[0] = s.selected[0]
	in := make(map[int]bool, len(pick))
	for i, idx := range pick {
		s.team1[i+1] = s.selected[idx+1]
		in[idx+1] = true
	}
	j := 0
	for i := 1; i < len(s.selected); i++ {
		if !in[i] {
			s.team2[j] = s.selected[i]
			j++
		}
	}
}

// coverable reports whether every role has at least two willing players, which both
// teams covering every role requires.
func coverable(players []*domain.Player) bool {
	var counts [domain.RoleCount]int
	for _, p := range players {
		for _, role := range domain.AllRoles() {
			if p.Prefers(role) {
				counts[role]++
			}
		}
	}
	for _, c := range counts {
		if c < 2 {
			return false
		}
	}
	return true
}

func firstCombination(k int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// nextCombination advances idx to the next k-subset of [0,n) in lexicographic order.
func nextCombination(idx []int, n int) bool {
	k := len(idx)
	i := k - 1
	for i >= 0 && idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < k; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}
