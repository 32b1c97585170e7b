package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/rating"
	"github.com/cardnight/tournament-system/repositories"
)

// MatchService — стейт-машина матча: scheduled -> in_progress ->
// completed -> approved, боковые ветки invalidated и cancelled.
// "completed" значит "результат заявлен, ждёт подтверждения".
type MatchService interface {
	Create(ctx context.Context, tournamentID, player1ID, player2ID string, gameType models.GameType) (*models.Match, error)
	Start(ctx context.Context, matchID string) (*models.Match, error)
	SubmitResult(ctx context.Context, matchID, reporterID string, outcome models.ReportedOutcome) (*models.MatchResult, error)
	Approve(ctx context.Context, resultID, approverID string, approved bool) (*models.Match, error)
	AdminDirectInput(ctx context.Context, matchID, winnerID, loserID, adminID string) (*models.Match, error)
	Edit(ctx context.Context, matchID string, newWinnerID *string, newGameType *models.GameType) (*models.Match, error)
	Invalidate(ctx context.Context, matchID, reason string) (*models.Match, error)
	Cancel(ctx context.Context, matchID string) (*models.Match, error)
	DeleteScheduled(ctx context.Context, matchID string) error
	GetByID(ctx context.Context, matchID string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID *string) ([]*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	badges         *BadgeService
	cache          *cache.Cache
	hub            Broadcaster
	logger         *slog.Logger
	k              int
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	badges *BadgeService,
	c *cache.Cache,
	hub Broadcaster,
	logger *slog.Logger,
	k int,
) MatchService {
	if k <= 0 {
		k = rating.DefaultK
	}
	return &matchService{
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		badges:         badges,
		cache:          c,
		hub:            hub,
		logger:         logger,
		k:              k,
	}
}

func (s *matchService) Create(ctx context.Context, tournamentID, player1ID, player2ID string, gameType models.GameType) (*models.Match, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
	if player1ID == player2ID {
		return nil, ErrSamePlayer
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	player1, err := s.playerRepo.GetByID(ctx, player1ID)
	if err != nil {
		return nil, fmt.Errorf("create match: player %s: %w", player1ID, err)
	}
	player2, err := s.playerRepo.GetByID(ctx, player2ID)
	if err != nil {
		return nil, fmt.Errorf("create match: player %s: %w", player2ID, err)
	}

	count, err := s.matchRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	match := &models.Match{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		MatchNumber:  count + 1,
		Player1ID:    player1.ID,
		Player1Name:  player1.Nickname,
		Player2ID:    player2.ID,
		Player2Name:  player2.Nickname,
		GameType:     gameType,
		Status:       models.MatchScheduled,
		CreatedAt:    time.Now(),
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) Start(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchScheduled {
		return nil, fmt.Errorf("%w: cannot start match in status %q", ErrInvalidStateTransition, match.Status)
	}
	now := time.Now()
	match.Status = models.MatchInProgress
	match.StartedAt = &now
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	s.broadcast(match.TournamentID, "MATCH_STARTED", match)
	return match, nil
}

func (s *matchService) SubmitResult(ctx context.Context, matchID, reporterID string, outcome models.ReportedOutcome) (*models.MatchResult, error) {
	if !outcome.Valid() {
		return nil, ErrOutcomeInvalid
	}
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasPlayer(reporterID) {
		return nil, fmt.Errorf("%w: player %s, match %s", ErrReporterNotInMatch, reporterID, matchID)
	}
	switch match.Status {
	case models.MatchScheduled, models.MatchInProgress, models.MatchCompleted:
	default:
		return nil, fmt.Errorf("%w: cannot report result for match in status %q", ErrInvalidStateTransition, match.Status)
	}

	now := time.Now()
	result := &models.MatchResult{
		ID:         uuid.NewString(),
		MatchID:    match.ID,
		PlayerID:   reporterID,
		OpponentID: match.OpponentOf(reporterID),
		Result:     outcome,
		Status:     models.ResultPendingApproval,
		ReportedAt: now,
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, err
	}

	// Первый отчёт переводит матч в completed: результат заявлен,
	// ждёт подтверждения админом.
	if match.Status != models.MatchCompleted {
		match.Status = models.MatchCompleted
		match.ReportedAt = &now
		if match.EndedAt == nil {
			match.EndedAt = &now
		}
		if err := s.matchRepo.Update(ctx, match); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *matchService) Approve(ctx context.Context, resultID, approverID string, approved bool) (*models.Match, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.Status != models.ResultPendingApproval {
		return nil, fmt.Errorf("%w: result %s is already %q", ErrInvalidStateTransition, resultID, result.Status)
	}
	match, err := s.matchRepo.GetByID(ctx, result.MatchID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !approved {
		result.Status = models.ResultRejected
		result.ApprovedBy = &approverID
		result.ApprovedAt = &now
		if err := s.resultRepo.Update(ctx, result); err != nil {
			return nil, err
		}
		return match, nil
	}

	if !isValidMatchTransition(match.Status, models.MatchApproved) {
		return nil, fmt.Errorf("%w: cannot approve match in status %q", ErrInvalidStateTransition, match.Status)
	}

	winnerID := result.PlayerID
	loserID := result.OpponentID
	if result.Result == models.OutcomeLoss {
		winnerID, loserID = loserID, winnerID
	}
	if err := s.applyOutcome(ctx, match, winnerID, loserID); err != nil {
		return nil, err
	}

	match.Status = models.MatchApproved
	match.ApprovedAt = &now
	if match.EndedAt == nil {
		match.EndedAt = &now
	}
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}

	result.Status = models.ResultApproved
	result.ApprovedBy = &approverID
	result.ApprovedAt = &now
	if err := s.resultRepo.Update(ctx, result); err != nil {
		return nil, err
	}

	// Конкурирующие самоотчёты по тому же матчу остаются в леджере
	// как superseded.
	if err := s.supersedePending(ctx, match.ID, result.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to supersede pending results",
			slog.String("match_id", match.ID), slog.Any("error", err))
	}

	s.grantExperience(ctx, match)
	s.invalidateReadCaches()
	s.broadcast(match.TournamentID, "MATCH_APPROVED", match)
	return match, nil
}

func (s *matchService) AdminDirectInput(ctx context.Context, matchID, winnerID, loserID, adminID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasPlayer(winnerID) || !match.HasPlayer(loserID) || winnerID == loserID {
		return nil, fmt.Errorf("%w: winner %s, loser %s, match %s", ErrWinnerNotInMatch, winnerID, loserID, matchID)
	}
	if !isValidMatchTransition(match.Status, models.MatchApproved) {
		return nil, fmt.Errorf("%w: cannot record direct result for match in status %q", ErrInvalidStateTransition, match.Status)
	}

	// Финальное решение админа перекрывает висящие самоотчёты.
	if err := s.supersedePending(ctx, match.ID, ""); err != nil {
		s.logger.WarnContext(ctx, "failed to supersede pending results",
			slog.String("match_id", match.ID), slog.Any("error", err))
	}

	if err := s.applyOutcome(ctx, match, winnerID, loserID); err != nil {
		return nil, err
	}

	now := time.Now()
	match.Status = models.MatchApproved
	match.ApprovedAt = &now
	if match.EndedAt == nil {
		match.EndedAt = &now
	}
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}

	result := &models.MatchResult{
		ID:         uuid.NewString(),
		MatchID:    match.ID,
		PlayerID:   winnerID,
		OpponentID: loserID,
		Result:     models.OutcomeWin,
		Status:     models.ResultApproved,
		ReportedAt: now,
		ApprovedBy: &adminID,
		ApprovedAt: &now,
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, err
	}

	s.grantExperience(ctx, match)
	s.invalidateReadCaches()
	s.broadcast(match.TournamentID, "MATCH_APPROVED", match)
	return match, nil
}

func (s *matchService) Edit(ctx context.Context, matchID string, newWinnerID *string, newGameType *models.GameType) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchCompleted && match.Status != models.MatchApproved {
		return nil, fmt.Errorf("%w: cannot edit match in status %q", ErrInvalidStateTransition, match.Status)
	}
	if newGameType != nil && !newGameType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, *newGameType)
	}
	if newWinnerID != nil && !match.HasPlayer(*newWinnerID) {
		return nil, fmt.Errorf("%w: winner %s, match %s", ErrWinnerNotInMatch, *newWinnerID, matchID)
	}

	priorWinner := sanitizedWinnerID(match)
	winnerChanging := newWinnerID != nil && *newWinnerID != priorWinner

	if winnerChanging {
		// Сначала откатываем прежние дельты (если прежний победитель
		// вообще был записан корректно), потом начисляем заново с
		// поменянными сторонами.
		if priorWinner != "" {
			if err := s.reverseOutcome(ctx, match, priorWinner); err != nil {
				return nil, err
			}
		}
		loserID := match.OpponentOf(*newWinnerID)
		if err := s.applyOutcome(ctx, match, *newWinnerID, loserID); err != nil {
			return nil, err
		}
		now := time.Now()
		match.Status = models.MatchApproved
		if match.ApprovedAt == nil {
			match.ApprovedAt = &now
		}

		// Правка админа — финальное решение; висящие самоотчёты
		// по матчу закрываем как superseded.
		if err := s.supersedePending(ctx, match.ID, ""); err != nil {
			s.logger.WarnContext(ctx, "failed to supersede pending results",
				slog.String("match_id", match.ID), slog.Any("error", err))
		}
	}

	if newGameType != nil {
		match.GameType = *newGameType
	}

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	s.invalidateReadCaches()
	s.broadcast(match.TournamentID, "MATCH_EDITED", match)
	return match, nil
}

func (s *matchService) Invalidate(ctx context.Context, matchID, reason string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchCompleted && match.Status != models.MatchApproved {
		return nil, fmt.Errorf("%w: cannot invalidate match in status %q", ErrInvalidStateTransition, match.Status)
	}

	if priorWinner := sanitizedWinnerID(match); priorWinner != "" {
		if err := s.reverseOutcome(ctx, match, priorWinner); err != nil {
			return nil, err
		}
	}

	match.Status = models.MatchInvalidated
	match.WinnerID = nil
	match.LoserID = nil
	match.InvalidReason = &reason
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	s.invalidateReadCaches()
	s.broadcast(match.TournamentID, "MATCH_INVALIDATED", match)
	return match, nil
}

func (s *matchService) Cancel(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !isValidMatchTransition(match.Status, models.MatchCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel match in status %q", ErrInvalidStateTransition, match.Status)
	}
	match.Status = models.MatchCancelled
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	s.broadcast(match.TournamentID, "MATCH_CANCELLED", match)
	return match, nil
}

// DeleteScheduled жёстко удаляет матч. Допустимо только до старта:
// всё, что ушло дальше scheduled, сохраняется ради аудита.
func (s *matchService) DeleteScheduled(ctx context.Context, matchID string) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchScheduled {
		return fmt.Errorf("%w: match %s is %q", ErrMatchNotDeletable, matchID, match.Status)
	}
	return s.matchRepo.Delete(ctx, matchID)
}

func (s *matchService) GetByID(ctx context.Context, matchID string) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID *string) ([]*models.Match, error) {
	matches, err := s.matchRepo.List(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

// applyOutcome начисляет рейтинг обеим сторонам и пишет before/after/
// change в слоты player1/player2 матча. В change сохраняется
// эффективное изменение (after-before), чтобы откат вычитанием
// восстанавливал точные значения и при срабатывании нижней границы.
func (s *matchService) applyOutcome(ctx context.Context, match *models.Match, winnerID, loserID string) error {
	winner, err := s.playerRepo.GetByID(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("apply result of match %s: winner %s: %w", match.ID, winnerID, err)
	}
	loser, err := s.playerRepo.GetByID(ctx, loserID)
	if err != nil {
		return fmt.Errorf("apply result of match %s: loser %s: %w", match.ID, loserID, err)
	}

	pair := rating.Pair(winner.CurrentRating, loser.CurrentRating, s.k)

	winnerBefore, loserBefore := winner.CurrentRating, loser.CurrentRating
	winner.CurrentRating = pair.WinnerRating
	loser.CurrentRating = pair.LoserRating
	winner.AnnualWins++
	winner.TotalWins++
	loser.AnnualLosses++
	loser.TotalLosses++
	now := time.Now()
	winner.LastActiveAt = &now
	loser.LastActiveAt = &now

	if err := s.playerRepo.Update(ctx, winner); err != nil {
		return fmt.Errorf("apply result of match %s: %w", match.ID, err)
	}
	if err := s.playerRepo.Update(ctx, loser); err != nil {
		return fmt.Errorf("apply result of match %s: %w", match.ID, err)
	}

	setSlot := func(playerID string, before, after int) {
		if playerID == match.Player1ID {
			match.Player1RatingBefore = before
			match.Player1RatingAfter = after
			match.Player1RatingChange = after - before
		} else {
			match.Player2RatingBefore = before
			match.Player2RatingAfter = after
			match.Player2RatingChange = after - before
		}
	}
	setSlot(winner.ID, winnerBefore, winner.CurrentRating)
	setSlot(loser.ID, loserBefore, loser.CurrentRating)

	match.WinnerID = &winner.ID
	match.LoserID = &loser.ID
	return nil
}

// reverseOutcome откатывает начисленные дельты и счётчики побед и
// поражений обеих сторон. priorWinner уже санирован вызывающим.
func (s *matchService) reverseOutcome(ctx context.Context, match *models.Match, priorWinner string) error {
	player1, err := s.playerRepo.GetByID(ctx, match.Player1ID)
	if err != nil {
		return fmt.Errorf("reverse result of match %s: player %s: %w", match.ID, match.Player1ID, err)
	}
	player2, err := s.playerRepo.GetByID(ctx, match.Player2ID)
	if err != nil {
		return fmt.Errorf("reverse result of match %s: player %s: %w", match.ID, match.Player2ID, err)
	}

	player1.CurrentRating -= match.Player1RatingChange
	player2.CurrentRating -= match.Player2RatingChange

	winner, loser := player1, player2
	if priorWinner == player2.ID {
		winner, loser = player2, player1
	}
	winner.AnnualWins = decrement(winner.AnnualWins)
	winner.TotalWins = decrement(winner.TotalWins)
	loser.AnnualLosses = decrement(loser.AnnualLosses)
	loser.TotalLosses = decrement(loser.TotalLosses)

	if err := s.playerRepo.Update(ctx, player1); err != nil {
		return fmt.Errorf("reverse result of match %s: %w", match.ID, err)
	}
	if err := s.playerRepo.Update(ctx, player2); err != nil {
		return fmt.Errorf("reverse result of match %s: %w", match.ID, err)
	}

	match.Player1RatingBefore = 0
	match.Player1RatingAfter = 0
	match.Player1RatingChange = 0
	match.Player2RatingBefore = 0
	match.Player2RatingAfter = 0
	match.Player2RatingChange = 0
	return nil
}

func (s *matchService) supersedePending(ctx context.Context, matchID, exceptResultID string) error {
	results, err := s.resultRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return err
	}
	for _, result := range results {
		if result.ID == exceptResultID || result.Status != models.ResultPendingApproval {
			continue
		}
		result.Status = models.ResultSuperseded
		if err := s.resultRepo.Update(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// grantExperience — best-effort: неудача выдачи бейджа логируется и не
// валит подтверждение матча.
func (s *matchService) grantExperience(ctx context.Context, match *models.Match) {
	for _, playerID := range []string{match.Player1ID, match.Player2ID} {
		if _, err := s.badges.RecordExperience(ctx, playerID, match.GameType); err != nil {
			s.logger.WarnContext(ctx, "failed to record rule experience",
				slog.String("player_id", playerID),
				slog.String("game_type", string(match.GameType)),
				slog.Any("error", err))
		}
	}
}

func (s *matchService) invalidateReadCaches() {
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyPlayers, cacheKeyRankings)
	}
}

func (s *matchService) broadcast(tournamentID, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	message := map[string]interface{}{"type": eventType, "payload": payload}
	s.hub.BroadcastToRoom(tournamentID, message)
	s.hub.BroadcastToRoom(rankingsRoom, message)
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
