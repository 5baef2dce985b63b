package domain

import (
	"sync"
	"time"
)

const (
	DefaultRating        = 2000.0
	DefaultBehaviorScore = 10000
	MaxBehaviorScore     = 10000

	HistoryLimit = 20
	TiltWindow   = 5
	TiltPerLoss  = 0.2
)

type RoleRatings [RoleCount]float64

// Max is the player's main rating.
func (r RoleRatings) Max() float64 {
	best := r[0]
	for _, v := range r[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// Player is owned by the matchmaking/rating subsystem. Ratings and history are
// mutated only through RecordMatch, SetRatings and SetHistory.
type Player struct {
	ID             string
	Name           string
	PreferredRoles []Role
	HeroPool       map[int]int // hero id -> games played
	BehaviorScore  int
	Stats          PlayerStatistics // recent averages, used for playstyle
	CreatedAt      time.Time
	UpdatedAt      time.Time

	mu      sync.RWMutex
	ratings RoleRatings
	history []PerformanceRecord
}

func NewPlayer(id string, initialRating float64) *Player {
	p := &Player{
		ID:            id,
		HeroPool:      map[int]int{},
		BehaviorScore: DefaultBehaviorScore,
	}
	for i := range p.ratings {
		p.ratings[i] = initialRating
	}
	return p
}

func (p *Player) Rating() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ratings.Max()
}

func (p *Player) RoleRating(role Role) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !role.Valid() {
		return 0
	}
	return p.ratings[role]
}

func (p *Player) Ratings() RoleRatings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ratings
}

func (p *Player) SetRatings(r RoleRatings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ratings = r
}

func (p *Player) Prefers(role Role) bool {
	for _, r := range p.PreferredRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Player) PreferredSet() RoleSet {
	return NewRoleSet(p.PreferredRoles...)
}

// RecordMatch applies the rating change and appends the history entry in one
// critical section so readers never observe one without the other.
func (p *Player) RecordMatch(role Role, delta float64, rec PerformanceRecord) PerformanceRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if role.Valid() {
		p.ratings[role] += delta
	}
	rec.Role = role
	rec.PlayerID = p.ID
	rec.RatingDelta = delta
	rec.RatingAfter = p.ratings.Max()
	p.appendLocked(rec)
	p.UpdatedAt = rec.PlayedAt
	return rec
}

func (p *Player) appendLocked(rec PerformanceRecord) {
	p.history = append(p.history, rec)
	if over := len(p.history) - HistoryLimit; over > 0 {
		p.history = append([]PerformanceRecord(nil), p.history[over:]...)
	}
}

// History returns a copy, oldest first.
func (p *Player) History() []PerformanceRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PerformanceRecord, len(p.history))
	copy(out, p.history)
	return out
}

// SetHistory replaces the window, keeping only the most recent HistoryLimit entries.
func (p *Player) SetHistory(records []PerformanceRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
	for _, rec := range records {
		p.appendLocked(rec)
	}
}

// TiltFactor is 0.2 per loss among the last five matches, capped at 1.
func (p *Player) TiltFactor() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return 0
	}
	start := len(p.history) - TiltWindow
	if start < 0 {
		start = 0
	}
	losses := 0
	for _, rec := range p.history[start:] {
		if !rec.Victory {
			losses++
		}
	}
	tilt := float64(losses) * TiltPerLoss
	if tilt > 1 {
		return 1
	}
	return tilt
}

// TopHero returns the most played hero id and its game count; ties go to the lower id.
func (p *Player) TopHero() (int, int) {
	hero, games := -1, 0
	for id, g := range p.HeroPool {
		if g > games || (g == games && g > 0 && id < hero) {
			hero, games = id, g
		}
	}
	return hero, games
}
