package domain

import (
	"math"
	"time"
)

type PlayerStatistics struct {
	Kills                  int     `json:"kills"`
	Deaths                 int     `json:"deaths"`
	Assists                int     `json:"assists"`
	LastHits               int     `json:"last_hits"`
	Denies                 int     `json:"denies"`
	GPM                    float64 `json:"gpm"`
	XPM                    float64 `json:"xpm"`
	HeroDamage             int     `json:"hero_damage"`
	TowerDamage            int     `json:"tower_damage"`
	HeroHealing            int     `json:"hero_healing"`
	StunDuration           float64 `json:"stun_duration"`
	CampsStacked           int     `json:"camps_stacked"`
	RunesCollected         int     `json:"runes_collected"`
	WardsPlaced            int     `json:"wards_placed"`
	WardsDestroyed         int     `json:"wards_destroyed"`
	TeamfightParticipation float64 `json:"teamfight_participation"` // 0-1
	VisionUptime           float64 `json:"vision_uptime"`           // 0-1
}

func (s PlayerStatistics) Validate() error {
	counters := []struct {
		name  string
		value float64
	}{
		{"kills", float64(s.Kills)},
		{"deaths", float64(s.Deaths)},
		{"assists", float64(s.Assists)},
		{"last_hits", float64(s.LastHits)},
		{"denies", float64(s.Denies)},
		{"gpm", s.GPM},
		{"xpm", s.XPM},
		{"hero_damage", float64(s.HeroDamage)},
		{"tower_damage", float64(s.TowerDamage)},
		{"hero_healing", float64(s.HeroHealing)},
		{"stun_duration", s.StunDuration},
		{"camps_stacked", float64(s.CampsStacked)},
		{"runes_collected", float64(s.RunesCollected)},
		{"wards_placed", float64(s.WardsPlaced)},
		{"wards_destroyed", float64(s.WardsDestroyed)},
	}
	for _, c := range counters {
		if math.IsNaN(c.value) || c.value < 0 {
			return invalid(c.name, "must be a non-negative number, got %v", c.value)
		}
	}
	if !isRatio(s.TeamfightParticipation) {
		return invalid("teamfight_participation", "must be within [0,1], got %v", s.TeamfightParticipation)
	}
	if !isRatio(s.VisionUptime) {
		return invalid("vision_uptime", "must be within [0,1], got %v", s.VisionUptime)
	}
	return nil
}

// KDA is (kills + assists) / max(1, deaths).
func (s PlayerStatistics) KDA() float64 {
	return float64(s.Kills+s.Assists) / math.Max(1, float64(s.Deaths))
}

type MatchContext struct {
	Duration           float64 `json:"duration"` // seconds
	TeamTotalDamage    float64 `json:"team_total_damage"`
	TeamGoldDifference float64 `json:"team_gold_difference"` // signed, subject team's view
	Winner             string  `json:"winner"`
	Side               string  `json:"side"`
	TeamKills          int     `json:"team_kills"`
	EnemyKills         int     `json:"enemy_kills"`
	TeamBuildingDamage float64 `json:"team_building_damage"`
	TeamFights         int     `json:"team_fights"`
}

func (m MatchContext) Validate() error {
	if math.IsNaN(m.Duration) || m.Duration <= 0 {
		return invalid("duration", "must be positive, got %v", m.Duration)
	}
	if math.IsNaN(m.TeamTotalDamage) || m.TeamTotalDamage < 0 {
		return invalid("team_total_damage", "must be non-negative, got %v", m.TeamTotalDamage)
	}
	if math.IsNaN(m.TeamBuildingDamage) || m.TeamBuildingDamage < 0 {
		return invalid("team_building_damage", "must be non-negative, got %v", m.TeamBuildingDamage)
	}
	if m.TeamKills < 0 || m.EnemyKills < 0 || m.TeamFights < 0 {
		return invalid("kills", "team/enemy kill and fight counts must be non-negative")
	}
	return nil
}

func (m MatchContext) Minutes() float64 {
	return m.Duration / 60
}

func (m MatchContext) Victory() bool {
	return m.Side != "" && m.Side == m.Winner
}

// Telemetry carries optional advanced signals. A nil *Telemetry means the collector
// did not produce them and neutral estimates are used instead.
type Telemetry struct {
	TeleportsUsed        int        `json:"teleports_used"`
	LaneParticipation    [3]float64 `json:"lane_participation"`
	ObjectivePresence    float64    `json:"objective_presence"`
	EnemyAttention       float64    `json:"enemy_attention"`
	RotationsForced      int        `json:"rotations_forced"`
	RoshanParticipation  float64    `json:"roshan_participation"`
	ObjectiveControl     float64    `json:"objective_control"`
	TeamfightDamageShare float64    `json:"teamfight_damage_share"`
	TotalFightDuration   float64    `json:"total_fight_duration"` // seconds
	DeathImpact          *float64   `json:"death_impact,omitempty"`
}

func (t *Telemetry) Validate() error {
	if t == nil {
		return nil
	}
	if t.TeleportsUsed < 0 || t.RotationsForced < 0 {
		return invalid("telemetry", "counters must be non-negative")
	}
	for i, lp := range t.LaneParticipation {
		if !isRatio(lp) {
			return invalid("telemetry.lane_participation", "lane %d must be within [0,1], got %v", i, lp)
		}
	}
	ratios := map[string]float64{
		"objective_presence":     t.ObjectivePresence,
		"enemy_attention":        t.EnemyAttention,
		"roshan_participation":   t.RoshanParticipation,
		"objective_control":      t.ObjectiveControl,
		"teamfight_damage_share": t.TeamfightDamageShare,
	}
	for name, v := range ratios {
		if !isRatio(v) {
			return invalid("telemetry."+name, "must be within [0,1], got %v", v)
		}
	}
	if math.IsNaN(t.TotalFightDuration) || t.TotalFightDuration < 0 {
		return invalid("telemetry.total_fight_duration", "must be non-negative")
	}
	if t.DeathImpact != nil && (math.IsNaN(*t.DeathImpact) || *t.DeathImpact < -1) {
		return invalid("telemetry.death_impact", "must be >= -1, got %v", *t.DeathImpact)
	}
	return nil
}

type PerformanceRecord struct {
	ID          string          `json:"id"`
	MatchID     string          `json:"match_id"`
	PlayerID    string          `json:"player_id"`
	Role        Role            `json:"role"`
	Score       float64         `json:"score"`
	Tier        PerformanceTier `json:"tier"`
	Victory     bool            `json:"victory"`
	RatingDelta float64         `json:"rating_delta"`
	RatingAfter float64         `json:"rating_after"`
	PlayedAt    time.Time       `json:"played_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func isRatio(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
