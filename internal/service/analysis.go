package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"moba-mmr/internal/config"
	"moba-mmr/internal/constants"
	"moba-mmr/internal/domain"
	"moba-mmr/internal/events"
	"moba-mmr/internal/exceptional"
	"moba-mmr/internal/performance"
	"moba-mmr/internal/rating"
	"moba-mmr/internal/repository"
	"moba-mmr/internal/safety"
	"moba-mmr/internal/scoring"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrAlreadyProcessed = errors.New("match already processed")

// Engine bundles the scoring pipeline used for every analysed player.
type Engine struct {
	Analyzer   *performance.Analyzer
	Classifier *exceptional.Classifier
	Checker    *safety.Checker
	Adjuster   *rating.Adjuster
}

func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		Analyzer:   performance.NewAnalyzer(cfg.Performance),
		Classifier: exceptional.NewClassifier(cfg.Exceptional),
		Checker:    safety.NewChecker(cfg.Safety),
		Adjuster:   rating.NewAdjuster(cfg.Rating),
	}
}

type PlayerOutcome struct {
	PlayerID    string                   `json:"player_id"`
	Side        string                   `json:"side"`
	Role        domain.Role              `json:"role"`
	Created     bool                     `json:"created"`
	Performance performance.Result       `json:"performance"`
	Exceptional exceptional.Result       `json:"exceptional"`
	Safety      safety.Verdict           `json:"safety"`
	Decision    rating.Decision          `json:"decision"`
	Record      domain.PerformanceRecord `json:"record"`
}

type AnalysisResult struct {
	MatchID  string          `json:"match_id"`
	Winner   string          `json:"winner"`
	Outcomes []PlayerOutcome `json:"outcomes"`
}

type AnalysisService struct {
	engine          *Engine
	playerRepo      *repository.PlayerRepository
	performanceRepo *repository.PerformanceRepository
	resultRepo      *repository.ResultRepository
	sink            events.Sink
	locks           *playerLocks
	initialRating   float64
	historyWindow   time.Duration
	logger          zerolog.Logger
}

func NewAnalysisService(
	cfg *config.Config,
	engine *Engine,
	playerRepo *repository.PlayerRepository,
	performanceRepo *repository.PerformanceRepository,
	resultRepo *repository.ResultRepository,
	sink events.Sink,
	logger zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		engine:          engine,
		playerRepo:      playerRepo,
		performanceRepo: performanceRepo,
		resultRepo:      resultRepo,
		sink:            sink,
		locks:           newPlayerLocks(),
		initialRating:   cfg.InitialRating,
		historyWindow:   cfg.Safety.HistoryWindow,
		logger:          logger,
	}
}

// ProcessMatch scores every player of the report, settles their rating changes and
// stores players, history and the match record in one transaction. Reports sharing
// a player are processed one after another. A report is processed at most once.
func (s *AnalysisService) ProcessMatch(ctx context.Context, report *domain.MatchReport) (*AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.AnalysisTimeout)
	defer cancel()

	if err := report.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(report.Players))
	for i, pr := range report.Players {
		ids[i] = pr.PlayerID
	}
	unlock := s.locks.lock(ids)
	defer unlock()

	processed, err := s.performanceRepo.MatchProcessed(ctx, report.MatchID)
	if err != nil {
		return nil, err
	}
	if processed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, report.MatchID)
	}

	playedAt := report.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}

	s.logger.Info().
		Str("match_id", report.MatchID).
		Int("players", len(report.Players)).
		Str("winner", report.Winner).
		Msg("processing match")

	players, created, err := s.loadPlayers(ctx, report.Players)
	if err != nil {
		return nil, err
	}
	windowGames, err := s.countWindowGames(ctx, report.Players, playedAt)
	if err != nil {
		return nil, err
	}

	outcomes := make([]PlayerOutcome, len(report.Players))
	g, gCtx := errgroup.WithContext(ctx)
	for i := range report.Players {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out, err := s.analyzePlayer(report, report.Players[i], players[i], windowGames[i], playedAt)
			if err != nil {
				return fmt.Errorf("player %s: %w", report.Players[i].PlayerID, err)
			}
			out.Created = created[i]
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("match_id", report.MatchID).Msg("failed to analyse match")
		return nil, err
	}

	records := make([]domain.PerformanceRecord, len(outcomes))
	for i := range outcomes {
		records[i] = outcomes[i].Record
	}

	match, err := buildMatch(report, players, playedAt)
	if err != nil {
		return nil, err
	}
	if err := s.resultRepo.Save(ctx, players, records, match); err != nil {
		s.logger.Error().Err(err).Str("match_id", report.MatchID).Msg("failed to store match result")
		return nil, fmt.Errorf("failed to store match result: %w", err)
	}

	for _, out := range outcomes {
		s.emit(report.MatchID, out)
	}

	s.logger.Info().Str("match_id", report.MatchID).Msg("match processed")
	return &AnalysisResult{MatchID: report.MatchID, Winner: report.Winner, Outcomes: outcomes}, nil
}

func (s *AnalysisService) loadPlayers(ctx context.Context, reports []domain.PlayerReport) ([]*domain.Player, []bool, error) {
	players := make([]*domain.Player, len(reports))
	created := make([]bool, len(reports))

	g, gCtx := errgroup.WithContext(ctx)
	for i, pr := range reports {
		g.Go(func() error {
			p, isNew, err := s.playerRepo.GetOrCreate(gCtx, pr.PlayerID, s.initialRating)
			if err != nil {
				return err
			}
			if isNew {
				p.Name = pr.Name
				p.PreferredRoles = []domain.Role{pr.Role}
			}
			players[i], created[i] = p, isNew
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load players: %w", err)
	}
	return players, created, nil
}

// countWindowGames counts each player's stored matches inside the safety history
// window ending at playedAt.
func (s *AnalysisService) countWindowGames(ctx context.Context, reports []domain.PlayerReport, playedAt time.Time) ([]int, error) {
	counts := make([]int, len(reports))
	since := playedAt.Add(-s.historyWindow)

	g, gCtx := errgroup.WithContext(ctx)
	for i, pr := range reports {
		g.Go(func() error {
			n, err := s.performanceRepo.CountSince(gCtx, pr.PlayerID, since, playedAt)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to count recent games: %w", err)
	}
	return counts, nil
}

// analyzePlayer runs the pipeline for one player. It mutates only that player.
func (s *AnalysisService) analyzePlayer(report *domain.MatchReport, pr domain.PlayerReport, player *domain.Player, windowGames int, playedAt time.Time) (PlayerOutcome, error) {
	match := report.ContextFor(pr.Side)

	perf, err := s.engine.Analyzer.Analyze(performance.Input{
		Stats:     pr.Stats,
		Match:     match,
		Role:      pr.Role,
		Telemetry: pr.Telemetry,
	})
	if err != nil {
		return PlayerOutcome{}, err
	}

	exc, err := s.engine.Classifier.Classify(pr.Stats, match, pr.Role, pr.Telemetry)
	if err != nil {
		return PlayerOutcome{}, err
	}

	verdict := s.engine.Checker.Check(safety.Input{
		Stats:   pr.Stats,
		Match:   match,
		Score:   perf.OverallScore,
		Tilt:    player.TiltFactor(),
		History: player.History(),
		Now:     playedAt,

		GamesInWindow: windowGames,
	})

	decision := s.engine.Adjuster.Settle(rating.Assessment{
		Victory:           match.Victory(),
		Score:             perf.OverallScore,
		Teamfight:         pr.Stats.TeamfightParticipation,
		KillParticipation: scoring.KillParticipation(pr.Stats, match),
		BehaviorScore:     player.BehaviorScore,
		Safe:              verdict.Passed,
		Eligible:          exc.Eligible,
		Tier:              exc.Tier,
		TierAdjustment:    exc.MMRAdjustment,
	})

	rec := player.RecordMatch(pr.Role, decision.Delta, domain.PerformanceRecord{
		MatchID:  report.MatchID,
		Score:    perf.OverallScore,
		Tier:     exc.Tier,
		Victory:  match.Victory(),
		PlayedAt: playedAt,
	})
	player.Stats = pr.Stats
	if pr.HeroID > 0 {
		player.HeroPool[pr.HeroID]++
	}

	return PlayerOutcome{
		PlayerID:    pr.PlayerID,
		Side:        pr.Side,
		Role:        pr.Role,
		Performance: perf,
		Exceptional: exc,
		Safety:      verdict,
		Decision:    decision,
		Record:      rec,
	}, nil
}

// buildMatch turns the report into a finished match with teams ordered by side name.
func buildMatch(report *domain.MatchReport, players []*domain.Player, playedAt time.Time) (*domain.Match, error) {
	sides := make([]string, 0, len(report.Teams))
	for side := range report.Teams {
		sides = append(sides, side)
	}
	sort.Strings(sides)

	teams := make(map[string][]*domain.Player, 2)
	for i, pr := range report.Players {
		teams[pr.Side] = append(teams[pr.Side], players[i])
	}

	m := domain.NewMatch(domain.NewTeam(teams[sides[0]]), domain.NewTeam(teams[sides[1]]), playedAt)
	m.ID = report.MatchID
	if err := m.Start(playedAt); err != nil {
		return nil, err
	}
	end := playedAt.Add(time.Duration(report.Duration * float64(time.Second)))
	if err := m.End(report.Winner, end); err != nil {
		return nil, err
	}
	return m, nil
}

type analysisPayload struct {
	MatchID      string                 `json:"match_id"`
	Role         domain.Role            `json:"role"`
	Phase        domain.GamePhase       `json:"phase"`
	State        domain.GameState       `json:"state"`
	OverallScore float64                `json:"overall_score"`
	Tier         domain.PerformanceTier `json:"tier"`
}

type ratingPayload struct {
	MatchID     string  `json:"match_id"`
	Delta       float64 `json:"delta"`
	Protected   bool    `json:"protected"`
	RatingAfter float64 `json:"rating_after"`
}

type violationPayload struct {
	MatchID string `json:"match_id"`
	Check   string `json:"check"`
	Reason  string `json:"reason"`
}

func (s *AnalysisService) emit(matchID string, out PlayerOutcome) {
	s.sink.Emit(events.New(events.KindPerformanceAnalysis, out.PlayerID, analysisPayload{
		MatchID:      matchID,
		Role:         out.Role,
		Phase:        out.Performance.Phase,
		State:        out.Performance.State,
		OverallScore: out.Performance.OverallScore,
		Tier:         out.Exceptional.Tier,
	}))
	if out.Exceptional.IsExceptional {
		s.sink.Emit(events.New(events.KindExceptionalPerformance, out.PlayerID, out.Exceptional))
	}
	if !out.Safety.Passed {
		s.sink.Emit(events.New(events.KindSafetyViolation, out.PlayerID, violationPayload{
			MatchID: matchID,
			Check:   out.Safety.Check,
			Reason:  out.Safety.Reason,
		}))
	}
	s.sink.Emit(events.New(events.KindRatingAdjustment, out.PlayerID, ratingPayload{
		MatchID:     matchID,
		Delta:       out.Decision.Delta,
		Protected:   out.Decision.Protected,
		RatingAfter: out.Record.RatingAfter,
	}))
}
