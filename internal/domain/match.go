package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	Players    []*Player
	Assignment map[Role]*Player
}

// NewTeam fixes the player order and computes a role assignment.
func NewTeam(players []*Player) *Team {
	t := &Team{Players: append([]*Player(nil), players...)}
	t.Assignment = AssignRoles(t.Players)
	return t
}

func (t *Team) Size() int {
	return len(t.Players)
}

func (t *Team) TotalRating() float64 {
	var total float64
	for _, p := range t.Players {
		total += p.Rating()
	}
	return total
}

func (t *Team) AverageRating() float64 {
	if len(t.Players) == 0 {
		return 0
	}
	return t.TotalRating() / float64(len(t.Players))
}

func (t *Team) RoleCoverage() RoleSet {
	var s RoleSet
	for _, p := range t.Players {
		s |= p.PreferredSet()
	}
	return s
}

// RoleOf reports the role a player was assigned, if any.
func (t *Team) RoleOf(playerID string) (Role, bool) {
	for role, p := range t.Assignment {
		if p.ID == playerID {
			return role, true
		}
	}
	return 0, false
}

func (t *Team) IDs() []string {
	ids := make([]string, len(t.Players))
	for i, p := range t.Players {
		ids[i] = p.ID
	}
	return ids
}

// AssignRoles maps each role to a distinct player, maximising first the number of
// players on a preferred role and then the summed role ratings. The search is
// exhaustive; among equal assignments the first found in input order wins.
func AssignRoles(players []*Player) map[Role]*Player {
	roles := AllRoles()
	if len(players) < len(roles) {
		roles = roles[:len(players)]
	}

	used := make([]bool, len(players))
	current := make([]int, len(roles))
	best := make([]int, len(roles))
	bestPreferred, bestRating := -1, 0.0

	var walk func(depth, preferred int, rating float64)
	walk = func(depth, preferred int, rating float64) {
		if depth == len(roles) {
			if preferred > bestPreferred || (preferred == bestPreferred && rating > bestRating) {
				bestPreferred, bestRating = preferred, rating
				copy(best, current)
			}
			return
		}
		role := roles[depth]
		for i, p := range players {
			if used[i] {
				continue
			}
			used[i] = true
			current[depth] = i
			pref := preferred
			if p.Prefers(role) {
				pref++
			}
			walk(depth+1, pref, rating+p.RoleRating(role))
			used[i] = false
		}
	}
	walk(0, 0, 0)

	out := make(map[Role]*Player, len(roles))
	if bestPreferred < 0 {
		return out
	}
	for depth, idx := range best {
		out[roles[depth]] = players[idx]
	}
	return out
}

type MatchEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

type MatchMetrics struct {
	Duration time.Duration `json:"duration"`
	Quality  float64       `json:"quality"`
	Balance  float64       `json:"balance"`
}

type Match struct {
	ID        string
	Team1     *Team
	Team2     *Team
	Quality   float64
	Balance   float64
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
	Winner    string
	Events    []MatchEvent
	Metrics   MatchMetrics
}

func NewMatchID() string {
	return uuid.NewString()
}

func NewMatch(team1, team2 *Team, now time.Time) *Match {
	return &Match{
		ID:        NewMatchID(),
		Team1:     team1,
		Team2:     team2,
		CreatedAt: now,
	}
}

func (m *Match) Start(now time.Time) error {
	if m.StartedAt != nil {
		return fmt.Errorf("%w: match %s already started", ErrInvalidTransition, m.ID)
	}
	m.StartedAt = &now
	m.AddEvent(now, "match_started", nil)
	return nil
}

// End records the winner and final metrics. The match is kept as a historical record.
func (m *Match) End(winner string, now time.Time) error {
	if m.StartedAt == nil {
		return fmt.Errorf("%w: match %s not started", ErrInvalidTransition, m.ID)
	}
	if m.EndedAt != nil {
		return fmt.Errorf("%w: match %s already ended", ErrInvalidTransition, m.ID)
	}
	m.EndedAt = &now
	m.Winner = winner
	m.Metrics = MatchMetrics{
		Duration: now.Sub(*m.StartedAt),
		Quality:  m.Quality,
		Balance:  m.Balance,
	}
	m.AddEvent(now, "match_ended", map[string]any{"winner": winner})
	return nil
}

func (m *Match) AddEvent(now time.Time, kind string, data map[string]any) {
	m.Events = append(m.Events, MatchEvent{Timestamp: now, Type: kind, Data: data})
}

func (m *Match) Players() []*Player {
	out := make([]*Player, 0, m.Team1.Size()+m.Team2.Size())
	out = append(out, m.Team1.Players...)
	return append(out, m.Team2.Players...)
}
