package domain

import (
	"fmt"
	"time"
)

// MatchReport is an already-parsed match as delivered by the telemetry collector or a
// JSON file: per-side totals plus one entry per player.
type MatchReport struct {
	MatchID    string                `json:"match_id"`
	Duration   float64               `json:"duration"` // seconds
	Winner     string                `json:"winner"`
	PlayedAt   time.Time             `json:"played_at"`
	TeamFights int                   `json:"team_fights"`
	Teams      map[string]TeamReport `json:"teams"` // keyed by side
	Players    []PlayerReport        `json:"players"`
}

type TeamReport struct {
	TotalDamage    float64 `json:"total_damage"`
	Gold           float64 `json:"gold"`
	Kills          int     `json:"kills"`
	BuildingDamage float64 `json:"building_damage"`
}

type PlayerReport struct {
	PlayerID  string           `json:"player_id"`
	Name      string           `json:"name"`
	Side      string           `json:"side"`
	Role      Role             `json:"role"`
	HeroID    int              `json:"hero_id"`
	Stats     PlayerStatistics `json:"stats"`
	Telemetry *Telemetry       `json:"telemetry,omitempty"`
}

func (r *MatchReport) Validate() error {
	if r.MatchID == "" {
		return invalid("match_id", "is required")
	}
	if len(r.Teams) != 2 {
		return invalid("teams", "expected 2 sides, got %d", len(r.Teams))
	}
	if _, ok := r.Teams[r.Winner]; !ok {
		return invalid("winner", "%q is not a side of the match", r.Winner)
	}
	if len(r.Players) == 0 {
		return invalid("players", "at least one player is required")
	}

	seen := make(map[string]bool, len(r.Players))
	for i, p := range r.Players {
		if p.PlayerID == "" {
			return invalid(fmt.Sprintf("players[%d].player_id", i), "is required")
		}
		if seen[p.PlayerID] {
			return invalid(fmt.Sprintf("players[%d].player_id", i), "duplicate %q", p.PlayerID)
		}
		seen[p.PlayerID] = true
		if _, ok := r.Teams[p.Side]; !ok {
			return invalid(fmt.Sprintf("players[%d].side", i), "%q is not a side of the match", p.Side)
		}
		if !p.Role.Valid() {
			return invalid(fmt.Sprintf("players[%d].role", i), "unknown role %d", int(p.Role))
		}
		if err := p.Stats.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.PlayerID, err)
		}
		if err := p.Telemetry.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.PlayerID, err)
		}
	}
	return r.ContextFor(r.Winner).Validate()
}

// ContextFor builds the match context from side's point of view.
func (r *MatchReport) ContextFor(side string) MatchContext {
	own := r.Teams[side]
	var enemy TeamReport
	for s, t := range r.Teams {
		if s != side {
			enemy = t
		}
	}
	return MatchContext{
		Duration:           r.Duration,
		TeamTotalDamage:    own.TotalDamage,
		TeamGoldDifference: own.Gold - enemy.Gold,
		Winner:             r.Winner,
		Side:               side,
		TeamKills:          own.Kills,
		EnemyKills:         enemy.Kills,
		TeamBuildingDamage: own.BuildingDamage,
		TeamFights:         r.TeamFights,
	}
}
