package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"moba-mmr/internal/exceptional"
	"moba-mmr/internal/matchmaker"
	"moba-mmr/internal/performance"
	"moba-mmr/internal/quality"
	"moba-mmr/internal/rating"
	"moba-mmr/internal/safety"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "MMR"

type Config struct {
	DBPath          string  `mapstructure:"db_path"`
	LogLevel        string  `mapstructure:"log_level"`
	TelemetryURL    string  `mapstructure:"telemetry_url"`
	TelemetryAPIKey string  `mapstructure:"telemetry_api_key"`
	InitialRating   float64 `mapstructure:"initial_rating"`

	Performance performance.Config `mapstructure:"performance"`
	Exceptional exceptional.Config `mapstructure:"exceptional"`
	Safety      safety.Config      `mapstructure:"safety"`
	Quality     quality.Config     `mapstructure:"quality"`
	Matchmaker  matchmaker.Config  `mapstructure:"matchmaker"`
	Rating      rating.Config      `mapstructure:"rating"`
}

// Overrides carries command-line flags; empty fields leave the loaded value alone.
type Overrides struct {
	DBPath   string
	LogLevel string
}

func Load(logger zerolog.Logger, ov Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.Debug().Str("path", path).Msg("config file loaded")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if ov.DBPath != "" {
		cfg.DBPath = ov.DBPath
	}
	if ov.LogLevel != "" {
		cfg.LogLevel = ov.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Str("telemetry_url", cfg.TelemetryURL).
		Float64("match_threshold", cfg.Matchmaker.Threshold).
		Int("team_size", cfg.Quality.TeamSize).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Quality.TeamSize <= 0 {
		return fmt.Errorf("quality.team_size must be positive, got %d", c.Quality.TeamSize)
	}
	if sum := c.Quality.Weights.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("quality.weights must sum to 1, got %v", sum)
	}
	if c.Matchmaker.Threshold < 0 || c.Matchmaker.Threshold > 1 {
		return fmt.Errorf("matchmaker.threshold must be within [0,1], got %v", c.Matchmaker.Threshold)
	}
	if c.Performance.GoldThreshold < 0 {
		return fmt.Errorf("performance.gold_threshold must be non-negative, got %v", c.Performance.GoldThreshold)
	}

	q := c.Quality
	for name, v := range map[string]float64{
		"max_rating_spread": q.MaxRatingSpread,
		"role_spread":       q.RoleSpread,
		"mean_spread":       q.MeanSpread,
		"stddev_spread":     q.StdDevSpread,
		"aggression_scale":  q.AggressionScale,
	} {
		if v <= 0 {
			return fmt.Errorf("quality.%s must be positive, got %v", name, v)
		}
	}
	if q.HeroDepthGames <= 0 {
		return fmt.Errorf("quality.hero_depth_games must be positive, got %d", q.HeroDepthGames)
	}

	e := c.Exceptional
	if !(e.VeryGood < e.Excellent && e.Excellent < e.Exceptional) {
		return fmt.Errorf("exceptional thresholds must increase: very_good %v, excellent %v, exceptional %v",
			e.VeryGood, e.Excellent, e.Exceptional)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "mmr.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("telemetry_url", "http://localhost:8080")
	v.SetDefault("telemetry_api_key", "")
	v.SetDefault("initial_rating", 2000.0)

	perf := performance.DefaultConfig()
	v.SetDefault("performance.gold_threshold", perf.GoldThreshold)
	v.SetDefault("performance.losing_multiplier", perf.LosingBoost)
	v.SetDefault("performance.even_multiplier", perf.EvenFactor)
	v.SetDefault("performance.winning_multiplier", perf.WinningFactor)

	exc := exceptional.DefaultConfig()
	v.SetDefault("exceptional.min_duration", exc.MinDuration)
	v.SetDefault("exceptional.min_teamfight", exc.MinTeamfight)
	v.SetDefault("exceptional.max_spread", exc.MaxSpread)
	v.SetDefault("exceptional.very_good_threshold", exc.VeryGood)
	v.SetDefault("exceptional.excellent_threshold", exc.Excellent)
	v.SetDefault("exceptional.exceptional_threshold", exc.Exceptional)
	v.SetDefault("exceptional.core_floor", exc.CoreFloor)
	v.SetDefault("exceptional.max_gain", exc.MaxGain)
	v.SetDefault("exceptional.gain_scale", exc.GainScale)
	v.SetDefault("exceptional.very_good_scale", exc.VeryGoodScale)
	v.SetDefault("exceptional.very_good_floor", exc.VeryGoodFloor)
	v.SetDefault("exceptional.normal_adjustment", exc.NormalAdjustment)

	saf := safety.DefaultConfig()
	v.SetDefault("safety.min_duration", saf.MinDuration)
	v.SetDefault("safety.min_teamfight", saf.MinTeamfight)
	v.SetDefault("safety.max_tilt", saf.MaxTilt)
	v.SetDefault("safety.max_gold_difference", saf.MaxGoldDifference)
	v.SetDefault("safety.history_window", saf.HistoryWindow)
	v.SetDefault("safety.max_games_in_window", saf.MaxGamesInWindow)
	v.SetDefault("safety.exceptional_streak", saf.ExceptionalStreak)
	v.SetDefault("safety.suspicious_score", saf.SuspiciousScore)
	v.SetDefault("safety.suspicious_run", saf.SuspiciousRun)
	v.SetDefault("safety.limits.max_gpm", saf.Limits.MaxGPM)
	v.SetDefault("safety.limits.max_xpm", saf.Limits.MaxXPM)
	v.SetDefault("safety.limits.max_cs_per_minute", saf.Limits.MaxCSPerMinute)
	v.SetDefault("safety.limits.max_kda", saf.Limits.MaxKDA)
	v.SetDefault("safety.limits.max_damage_share", saf.Limits.MaxDamageShare)
	v.SetDefault("safety.limits.death_slack", saf.Limits.DeathSlack)

	q := quality.DefaultConfig()
	v.SetDefault("quality.team_size", q.TeamSize)
	v.SetDefault("quality.max_rating_spread", q.MaxRatingSpread)
	v.SetDefault("quality.role_spread", q.RoleSpread)
	v.SetDefault("quality.mean_spread", q.MeanSpread)
	v.SetDefault("quality.stddev_spread", q.StdDevSpread)
	v.SetDefault("quality.hero_depth_games", q.HeroDepthGames)
	v.SetDefault("quality.aggression_scale", q.AggressionScale)
	v.SetDefault("quality.weights.role_balance", q.Weights.RoleBalance)
	v.SetDefault("quality.weights.skill_balance", q.Weights.SkillBalance)
	v.SetDefault("quality.weights.hero_synergy", q.Weights.HeroSynergy)
	v.SetDefault("quality.weights.team_chemistry", q.Weights.TeamChemistry)
	v.SetDefault("quality.weights.playstyle", q.Weights.Playstyle)

	mm := matchmaker.DefaultConfig()
	v.SetDefault("matchmaker.threshold", mm.Threshold)
	v.SetDefault("matchmaker.max_evaluations", mm.MaxEvaluations)
	v.SetDefault("matchmaker.recent_limit", mm.RecentLimit)

	r := rating.DefaultConfig()
	v.SetDefault("rating.base", r.Base)
	v.SetDefault("rating.outcome_weight", r.OutcomeWeight)
	v.SetDefault("rating.performance_weight", r.PerformanceWeight)
	v.SetDefault("rating.bonus_scale", r.BonusScale)
	v.SetDefault("rating.loss_protection", r.LossProtection)
}
