package db

import (
	"time"
)

type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

type Match struct {
	ID        string     `json:"id"`
	Team1     string     `json:"team1"`
	Team2     string     `json:"team2"`
	Quality   float64    `json:"quality"`
	Balance   float64    `json:"balance"`
	Winner    string     `json:"winner"`
	Events    string     `json:"events"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

type PerformanceHistory struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	PlayerID    string    `json:"player_id"`
	Role        string    `json:"role"`
	Score       float64   `json:"score"`
	Tier        string    `json:"tier"`
	Victory     bool      `json:"victory"`
	RatingDelta float64   `json:"rating_delta"`
	RatingAfter float64   `json:"rating_after"`
	PlayedAt    time.Time `json:"played_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type Player struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	RatingCarry       float64   `json:"rating_carry"`
	RatingMid         float64   `json:"rating_mid"`
	RatingOfflane     float64   `json:"rating_offlane"`
	RatingSoftSupport float64   `json:"rating_soft_support"`
	RatingHardSupport float64   `json:"rating_hard_support"`
	PreferredRoles    string    `json:"preferred_roles"`
	HeroPool          string    `json:"hero_pool"`
	BehaviorScore     int64     `json:"behavior_score"`
	Stats             string    `json:"stats"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
