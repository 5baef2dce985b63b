// Package safety gates a performance before it may move a rating.
package safety

import (
	"fmt"
	"math"
	"time"

	"moba-mmr/internal/domain"
)

const (
	CheckDuration      = "game_duration"
	CheckParticipation = "teamfight_participation"
	CheckTilt          = "tilt"
	CheckBalance       = "game_balance"
	CheckHistory       = "recent_history"
	CheckPatterns      = "suspicious_patterns"
)

type Config struct {
	MinDuration       float64       `mapstructure:"min_duration"` // seconds
	MinTeamfight      float64       `mapstructure:"min_teamfight"`
	MaxTilt           float64       `mapstructure:"max_tilt"`
	MaxGoldDifference float64       `mapstructure:"max_gold_difference"`
	HistoryWindow     time.Duration `mapstructure:"history_window"`
	MaxGamesInWindow  int           `mapstructure:"max_games_in_window"`
	ExceptionalStreak int           `mapstructure:"exceptional_streak"`
	SuspiciousScore   float64       `mapstructure:"suspicious_score"`
	SuspiciousRun     int           `mapstructure:"suspicious_run"`
	Limits            Limits        `mapstructure:"limits"`
}

// Limits bound what a single player can plausibly produce in one match.
type Limits struct {
	MaxGPM         float64 `mapstructure:"max_gpm"`
	MaxXPM         float64 `mapstructure:"max_xpm"`
	MaxCSPerMinute float64 `mapstructure:"max_cs_per_minute"`
	MaxKDA         float64 `mapstructure:"max_kda"`
	MaxDamageShare float64 `mapstructure:"max_damage_share"`
	DeathSlack     int     `mapstructure:"death_slack"`
}

func DefaultConfig() Config {
	return Config{
		MinDuration:       25 * 60,
		MinTeamfight:      0.6,
		MaxTilt:           0.3,
		MaxGoldDifference: 30000,
		HistoryWindow:     24 * time.Hour,
		MaxGamesInWindow:  30,
		ExceptionalStreak: 3,
		SuspiciousScore:   0.95,
		SuspiciousRun:     5,
		Limits: Limits{
			MaxGPM:         1500,
			MaxXPM:         2500,
			MaxCSPerMinute: 15,
			MaxKDA:         40,
			MaxDamageShare: 0.9,
			DeathSlack:     3,
		},
	}
}

type Input struct {
	Stats   domain.PlayerStatistics
	Match   domain.MatchContext
	Score   float64
	Tilt    float64
	History []domain.PerformanceRecord // oldest first
	Now     time.Time

	// GamesInWindow is the stored match count inside HistoryWindow. History only
	// holds a bounded window, so callers with storage supply the full count.
	GamesInWindow int
}

type Verdict struct {
	Passed bool   `json:"passed"`
	Check  string `json:"check,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (v Verdict) String() string {
	if v.Passed {
		return "passed"
	}
	return fmt.Sprintf("%s: %s", v.Check, v.Reason)
}

type check struct {
	name string
	run  func(Input) string
}

type Checker struct {
	cfg    Config
	checks []check
}

func NewChecker(cfg Config) *Checker {
	c := &Checker{cfg: cfg}
	c.checks = []check{
		{CheckDuration, c.duration},
		{CheckParticipation, c.participation},
		{CheckTilt, c.tilt},
		{CheckBalance, c.balance},
		{CheckHistory, c.history},
		{CheckPatterns, c.patterns},
	}
	return c
}

// Check runs every gate in order and reports the first failure.
func (c *Checker) Check(in Input) Verdict {
	for _, ch := range c.checks {
		if reason := ch.run(in); reason != "" {
			return Verdict{Check: ch.name, Reason: reason}
		}
	}
	return Verdict{Passed: true}
}

func (c *Checker) duration(in Input) string {
	if in.Match.Duration < c.cfg.MinDuration {
		return fmt.Sprintf("game too short (%.1f min)", in.Match.Minutes())
	}
	return ""
}

func (c *Checker) participation(in Input) string {
	if in.Stats.TeamfightParticipation < c.cfg.MinTeamfight {
		return fmt.Sprintf("insufficient teamfight participation (%.2f)", in.Stats.TeamfightParticipation)
	}
	return ""
}

func (c *Checker) tilt(in Input) string {
	if in.Tilt > c.cfg.MaxTilt {
		return fmt.Sprintf("player tilted (%.2f)", in.Tilt)
	}
	return ""
}

func (c *Checker) balance(in Input) string {
	if math.Abs(in.Match.TeamGoldDifference) > c.cfg.MaxGoldDifference {
		return "game too one-sided"
	}
	return ""
}

func (c *Checker) history(in Input) string {
	since := in.Now.Add(-c.cfg.HistoryWindow)
	recent := 0
	for _, rec := range in.History {
		if rec.PlayedAt.After(since) {
			recent++
		}
	}
	recent = max(recent, in.GamesInWindow)
	if recent >= c.cfg.MaxGamesInWindow {
		return fmt.Sprintf("too many games in the last %s (%d)", c.cfg.HistoryWindow, recent)
	}

	streak := c.cfg.ExceptionalStreak
	if streak > 0 && len(in.History) >= streak {
		all := true
		for _, rec := range in.History[len(in.History)-streak:] {
			if rec.Tier != domain.TierExceptional {
				all = false
				break
			}
		}
		if all {
			return fmt.Sprintf("last %d performances all exceptional", streak)
		}
	}
	return ""
}

func (c *Checker) patterns(in Input) string {
	if in.Score > c.cfg.SuspiciousScore && c.highRun(in.History) {
		return "suspiciously consistent high performance"
	}
	if reason := c.cfg.Limits.Unusual(in.Stats, in.Match); reason != "" {
		return "unusual stat pattern: " + reason
	}
	return ""
}

// highRun needs a full run of SuspiciousRun records, each above the threshold.
func (c *Checker) highRun(history []domain.PerformanceRecord) bool {
	n := c.cfg.SuspiciousRun
	if n <= 0 || len(history) < n {
		return false
	}
	for _, rec := range history[len(history)-n:] {
		if rec.Score <= c.cfg.SuspiciousScore {
			return false
		}
	}
	return true
}

// Unusual returns a description of the first implausible statistic, or "".
func (l Limits) Unusual(stats domain.PlayerStatistics, match domain.MatchContext) string {
	detectors := []func(domain.PlayerStatistics, domain.MatchContext) string{
		l.impossibleStats,
		l.unusualRatios,
		l.inconsistentStats,
	}
	for _, detect := range detectors {
		if reason := detect(stats, match); reason != "" {
			return reason
		}
	}
	return ""
}

func (l Limits) impossibleStats(stats domain.PlayerStatistics, match domain.MatchContext) string {
	switch {
	case stats.GPM > l.MaxGPM:
		return fmt.Sprintf("gpm %.0f", stats.GPM)
	case stats.XPM > l.MaxXPM:
		return fmt.Sprintf("xpm %.0f", stats.XPM)
	case float64(stats.LastHits)/math.Max(1, match.Minutes()) > l.MaxCSPerMinute:
		return fmt.Sprintf("%d last hits in %.1f min", stats.LastHits, match.Minutes())
	}
	return ""
}

func (l Limits) unusualRatios(stats domain.PlayerStatistics, match domain.MatchContext) string {
	switch {
	case stats.KDA() > l.MaxKDA:
		return fmt.Sprintf("kda %.1f", stats.KDA())
	case stats.Kills > 0 && stats.HeroDamage == 0:
		return "kills without hero damage"
	}
	if share := float64(stats.HeroDamage) / math.Max(1, match.TeamTotalDamage); share > l.MaxDamageShare {
		return fmt.Sprintf("hero damage share %.2f", share)
	}
	return ""
}

func (l Limits) inconsistentStats(stats domain.PlayerStatistics, match domain.MatchContext) string {
	switch {
	case stats.Kills+stats.Assists > match.TeamKills:
		return "kill participation above team kills"
	case stats.Deaths > match.EnemyKills+l.DeathSlack:
		return "deaths exceed enemy kills"
	}
	return ""
}
