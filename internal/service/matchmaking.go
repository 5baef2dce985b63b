package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moba-mmr/internal/config"
	"moba-mmr/internal/constants"
	"moba-mmr/internal/domain"
	"moba-mmr/internal/events"
	"moba-mmr/internal/matchmaker"
	"moba-mmr/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PlayerProfile describes a player queued from a file. Fields left empty keep the
// stored player's values.
type PlayerProfile struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Rating         float64                  `json:"rating"`
	RoleRatings    map[domain.Role]float64  `json:"role_ratings"`
	PreferredRoles []domain.Role            `json:"preferred_roles"`
	HeroPool       map[int]int              `json:"hero_pool"`
	BehaviorScore  *int                     `json:"behavior_score"`
	Stats          *domain.PlayerStatistics `json:"stats"`
}

// apply merges the profile into p.
func (pp PlayerProfile) apply(p *domain.Player) {
	if pp.Name != "" {
		p.Name = pp.Name
	}
	if pp.Rating > 0 || len(pp.RoleRatings) > 0 {
		ratings := p.Ratings()
		if pp.Rating > 0 {
			for i := range ratings {
				ratings[i] = pp.Rating
			}
		}
		for role, r := range pp.RoleRatings {
			if role.Valid() {
				ratings[role] = r
			}
		}
		p.SetRatings(ratings)
	}
	if len(pp.PreferredRoles) > 0 {
		p.PreferredRoles = append([]domain.Role(nil), pp.PreferredRoles...)
	}
	if len(pp.HeroPool) > 0 {
		p.HeroPool = make(map[int]int, len(pp.HeroPool))
		for hero, games := range pp.HeroPool {
			p.HeroPool[hero] = games
		}
	}
	if pp.BehaviorScore != nil {
		p.BehaviorScore = max(0, min(domain.MaxBehaviorScore, *pp.BehaviorScore))
	}
	if pp.Stats != nil {
		p.Stats = *pp.Stats
	}
}

type MatchmakingService struct {
	mm            *matchmaker.Matchmaker
	playerRepo    *repository.PlayerRepository
	matchRepo     *repository.MatchRepository
	sink          events.Sink
	initialRating float64
	logger        zerolog.Logger
}

func NewMatchmakingService(
	cfg *config.Config,
	mm *matchmaker.Matchmaker,
	playerRepo *repository.PlayerRepository,
	matchRepo *repository.MatchRepository,
	sink events.Sink,
	logger zerolog.Logger,
) *MatchmakingService {
	return &MatchmakingService{
		mm:            mm,
		playerRepo:    playerRepo,
		matchRepo:     matchRepo,
		sink:          sink,
		initialRating: cfg.InitialRating,
		logger:        logger,
	}
}

func (s *MatchmakingService) PoolSize() int {
	return s.mm.Pool().Len()
}

// Enqueue loads stored players (or creates them at the initial rating) and adds them
// to the pool.
func (s *MatchmakingService) Enqueue(ctx context.Context, ids []string) error {
	profiles := make([]PlayerProfile, len(ids))
	for i, id := range ids {
		profiles[i] = PlayerProfile{ID: id}
	}
	return s.EnqueueProfiles(ctx, profiles)
}

func (s *MatchmakingService) EnqueueProfiles(ctx context.Context, profiles []PlayerProfile) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	for i, pp := range profiles {
		if pp.ID == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("players[%d].id", i), Reason: "is required"}
		}
		if s.mm.Pool().Contains(pp.ID) {
			return fmt.Errorf("player %s already queued: %w", pp.ID, domain.ErrValidation)
		}
	}

	players := make([]*domain.Player, len(profiles))
	g, gCtx := errgroup.WithContext(ctx)
	for i, pp := range profiles {
		g.Go(func() error {
			p, _, err := s.playerRepo.GetOrCreate(gCtx, pp.ID, s.initialRating)
			if err != nil {
				return err
			}
			pp.apply(p)
			players[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}

	if err := s.mm.Pool().Add(players...); err != nil {
		return err
	}
	s.logger.Info().Int("queued", len(players)).Int("pool_size", s.PoolSize()).Msg("players queued")
	return nil
}

// FindMatch runs one search bounded by constants.SearchTimeout. A found match is
// stored together with its players and announced on the event sink.
func (s *MatchmakingService) FindMatch(ctx context.Context) (matchmaker.Outcome, error) {
	searchCtx, cancel := context.WithTimeout(ctx, constants.SearchTimeout)
	defer cancel()

	start := time.Now()
	out, err := s.mm.FindMatch(searchCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return out, err
	}

	s.logger.Info().
		Bool("found", out.Found).
		Int("evaluated", out.Evaluated).
		Bool("exhaustive", out.Exhaustive).
		Int("recent_matches", len(s.mm.Recent())).
		Dur("elapsed", time.Since(start)).
		Msg("matchmaking search finished")

	if !out.Found {
		return out, nil
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer dbCancel()
	if err := s.playerRepo.UpsertBatch(dbCtx, out.Match.Players()); err != nil {
		return out, fmt.Errorf("failed to store matched players: %w", err)
	}
	if err := s.matchRepo.Upsert(dbCtx, out.Match); err != nil {
		return out, err
	}

	s.sink.Emit(events.New(events.KindMatchCreated, out.Match.ID, map[string]any{
		"team1":     out.Match.Team1.IDs(),
		"team2":     out.Match.Team2.IDs(),
		"quality":   out.Quality,
		"evaluated": out.Evaluated,
	}))
	return out, nil
}

// Drain keeps searching until no further match clears the threshold.
func (s *MatchmakingService) Drain(ctx context.Context) ([]matchmaker.Outcome, error) {
	var found []matchmaker.Outcome
	for {
		out, err := s.FindMatch(ctx)
		if err != nil {
			return found, err
		}
		if !out.Found {
			return found, nil
		}
		found = append(found, out)
	}
}
