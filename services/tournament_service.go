package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/repositories"
)

// ArchiveExporter выгружает годовой снапшот во внешнее хранилище и
// возвращает ссылку на файл. Необязательная зависимость.
type ArchiveExporter interface {
	ExportYearlySnapshot(ctx context.Context, year int, entries []models.YearlyArchive) (string, error)
}

type CreateTournamentInput struct {
	Name            string
	Date            string
	StartTime       string
	Location        *string
	Type            string
	Description     *string
	MaxParticipants int
}

type UpdateTournamentInput struct {
	Name            *string
	Date            *string
	StartTime       *string
	Location        *string
	Type            *string
	Description     *string
	MaxParticipants *int
	Status          *models.TournamentStatus
}

// DailyResetSummary — итог ночного сброса флагов участия.
type DailyResetSummary struct {
	Date     string `json:"date"`
	Archived int    `json:"archived"`
	Cleared  int    `json:"cleared"`
}

// YearEndSummary — итог годового закрытия сезона.
type YearEndSummary struct {
	Year       int    `json:"year"`
	Players    int    `json:"players"`
	ChampionID string `json:"champion_id,omitempty"`
	ExportURL  string `json:"export_url,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	End(ctx context.Context, id string) (*models.Tournament, error)
	Delete(ctx context.Context, id string) error
	ActivateParticipant(ctx context.Context, tournamentID, playerID string) error
	ResetAllTournamentActive(ctx context.Context) (*DailyResetSummary, error)
	ArchiveYear(ctx context.Context, year int) (*YearEndSummary, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	archiveRepo    repositories.ArchiveRepository
	badges         *BadgeService
	cache          *cache.Cache
	hub            Broadcaster
	exporter       ArchiveExporter
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	archiveRepo repositories.ArchiveRepository,
	badges *BadgeService,
	c *cache.Cache,
	hub Broadcaster,
	exporter ArchiveExporter,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		archiveRepo:    archiveRepo,
		badges:         badges,
		cache:          c,
		hub:            hub,
		exporter:       exporter,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	tournament := &models.Tournament{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Date:            input.Date,
		StartTime:       input.StartTime,
		Location:        input.Location,
		Status:          models.TournamentUpcoming,
		MaxParticipants: input.MaxParticipants,
		Type:            input.Type,
		Description:     input.Description,
		CreatedAt:       time.Now(),
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	s.invalidateTournamentCache()
	return tournament, nil
}

func (s *tournamentService) Update(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = strings.TrimSpace(*input.Name)
	}
	if input.Date != nil {
		tournament.Date = *input.Date
	}
	if input.StartTime != nil {
		tournament.StartTime = *input.StartTime
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.Type != nil {
		tournament.Type = *input.Type
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, ErrTournamentInvalidCapacity
		}
		tournament.MaxParticipants = *input.MaxParticipants
	}
	if input.Status != nil && *input.Status != tournament.Status {
		if !isValidTournamentTransition(tournament.Status, *input.Status) {
			return nil, fmt.Errorf("%w: %q -> %q", ErrTournamentInvalidStatusTransition, tournament.Status, *input.Status)
		}
		tournament.Status = *input.Status
		if tournament.Status == models.TournamentCompleted && tournament.EndedAt == nil {
			now := time.Now()
			tournament.EndedAt = &now
		}
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}
	s.invalidateTournamentCache()
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	return s.tournamentRepo.GetByID(ctx, id)
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	if s.cache == nil {
		return s.tournamentRepo.List(ctx)
	}
	value, err := s.cache.Get(cacheKeyTournaments, func() (interface{}, error) {
		return s.tournamentRepo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Tournament), nil
}

// End завершает турнир и снимает флаг участия со всех активных игроков.
func (s *tournamentService) End(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentCompleted {
		return nil, fmt.Errorf("%w: tournament %s is already completed", ErrTournamentInvalidStatusTransition, id)
	}

	now := time.Now()
	tournament.Status = models.TournamentCompleted
	tournament.EndedAt = &now
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}

	if _, err := s.deactivateAllParticipants(ctx); err != nil {
		return nil, fmt.Errorf("end tournament %s: %w", id, err)
	}

	s.invalidateTournamentCache()
	s.invalidatePlayerCaches()
	s.broadcast(tournament.ID, "TOURNAMENT_ENDED", tournament)
	return tournament, nil
}

// Delete удаляет турнир. Активные участники сперва деактивируются,
// чтобы не остались висящие флаги.
func (s *tournamentService) Delete(ctx context.Context, id string) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status == models.TournamentActive {
		if _, err := s.deactivateAllParticipants(ctx); err != nil {
			return fmt.Errorf("delete tournament %s: %w", id, err)
		}
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateTournamentCache()
	return nil
}

// ActivateParticipant включает игрока в турнир. Политика строгая: игрок
// может быть активен только в одном турнире одновременно.
func (s *tournamentService) ActivateParticipant(ctx context.Context, tournamentID, playerID string) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentActive {
		return fmt.Errorf("%w: tournament %s is %q", ErrTournamentNotRunning, tournamentID, tournament.Status)
	}
	if tournament.CurrentParticipants >= tournament.MaxParticipants {
		return fmt.Errorf("%w: %d/%d", ErrTournamentFull, tournament.CurrentParticipants, tournament.MaxParticipants)
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	if player.Deactivated {
		return fmt.Errorf("%w: player %s", ErrPlayerDeactivated, playerID)
	}
	if player.TournamentActive {
		return fmt.Errorf("%w: player %s", ErrPlayerAlreadyActive, playerID)
	}

	now := time.Now()
	player.TournamentActive = true
	player.LastActiveAt = &now
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return err
	}

	tournament.CurrentParticipants++
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return err
	}

	s.invalidateTournamentCache()
	s.invalidatePlayerCaches()
	s.broadcast(tournament.ID, "PARTICIPANT_JOINED", player)
	return nil
}

// ResetAllTournamentActive — ночной сброс: снапшот текущих позиций в
// дневной архив (best-effort), затем снятие флага участия со всех
// игроков. Падение архивации сброс не блокирует.
func (s *tournamentService) ResetAllTournamentActive(ctx context.Context) (*DailyResetSummary, error) {
	date := time.Now().Format("2006-01-02")
	summary := &DailyResetSummary{Date: date}

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily reset: %w", err)
	}
	entries := dailySnapshot(players, date)
	if err := s.archiveRepo.AppendDaily(ctx, entries); err != nil {
		s.logger.WarnContext(ctx, "daily archive failed, continuing with reset",
			slog.String("date", date), slog.Any("error", err))
	} else {
		summary.Archived = len(entries)
	}

	cleared, err := s.deactivateAllParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily reset: %w", err)
	}
	summary.Cleared = cleared

	s.invalidateTournamentCache()
	s.invalidatePlayerCaches()
	s.logger.InfoContext(ctx, "daily tournament reset finished",
		slog.String("date", date),
		slog.Int("archived", summary.Archived),
		slog.Int("cleared", summary.Cleared))
	return summary, nil
}

// ArchiveYear закрывает сезон: фиксирует годовой снапшот, выдаёт бейдж
// чемпиону, завершает незакрытые турниры и сбрасывает рейтинги и
// годовые счётчики. Выгрузка CSV — best-effort.
func (s *tournamentService) ArchiveYear(ctx context.Context, year int) (*YearEndSummary, error) {
	var (
		players     []*models.Player
		tournaments []*models.Tournament
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tournaments, err = s.tournamentRepo.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("archive year %d: %w", year, err)
	}

	rankings := rankPlayers(players)
	now := time.Now()
	entries := make([]models.YearlyArchive, 0, len(rankings))
	for _, entry := range rankings {
		entries = append(entries, models.YearlyArchive{
			ID:          uuid.NewString(),
			Year:        year,
			PlayerID:    entry.PlayerID,
			Nickname:    entry.Nickname,
			FinalRating: entry.CurrentRating,
			FinalRank:   entry.Rank,
			Badges:      entry.ChampionBadge,
			Wins:        entry.AnnualWins,
			Losses:      entry.AnnualLosses,
			CreatedAt:   now,
		})
	}
	// Годовой снапшот обязателен: без него сброс рейтингов необратим.
	if err := s.archiveRepo.AppendYearly(ctx, entries); err != nil {
		return nil, fmt.Errorf("archive year %d: %w", year, err)
	}

	summary := &YearEndSummary{Year: year, Players: len(entries)}

	if len(rankings) > 0 {
		championID := rankings[0].PlayerID
		token := fmt.Sprintf("champion_%d", year)
		if _, err := s.badges.AwardChampionBadge(ctx, championID, token); err != nil {
			s.logger.WarnContext(ctx, "failed to award champion badge",
				slog.String("player_id", championID), slog.Any("error", err))
		} else {
			summary.ChampionID = championID
		}
	}

	for _, tournament := range tournaments {
		if tournament.Status == models.TournamentCompleted {
			continue
		}
		tournament.Status = models.TournamentCompleted
		tournament.EndedAt = &now
		if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
			return nil, fmt.Errorf("archive year %d: close tournament %s: %w", year, tournament.ID, err)
		}
	}

	if _, err := s.playerRepo.UpdateAll(ctx, func(p *models.Player) bool {
		p.CurrentRating = models.InitialRatingAdmin
		p.AnnualWins = 0
		p.AnnualLosses = 0
		p.TournamentActive = false
		return true
	}); err != nil {
		return nil, fmt.Errorf("archive year %d: %w", year, err)
	}

	if s.exporter != nil {
		url, err := s.exporter.ExportYearlySnapshot(ctx, year, entries)
		if err != nil {
			s.logger.WarnContext(ctx, "yearly snapshot export failed",
				slog.Int("year", year), slog.Any("error", err))
		} else {
			summary.ExportURL = url
		}
	}

	s.invalidateTournamentCache()
	s.invalidatePlayerCaches()
	s.broadcast(rankingsRoom, "YEAR_ARCHIVED", summary)
	s.logger.InfoContext(ctx, "season archived",
		slog.Int("year", year), slog.Int("players", summary.Players))
	return summary, nil
}

func (s *tournamentService) deactivateAllParticipants(ctx context.Context) (int, error) {
	return s.playerRepo.UpdateAll(ctx, func(p *models.Player) bool {
		if !p.TournamentActive {
			return false
		}
		p.TournamentActive = false
		return true
	})
}

// dailySnapshot строит дневные архивные записи по активным участникам;
// игроки без флага участия в дневной архив не попадают.
func dailySnapshot(players []*models.Player, date string) []models.DailyArchive {
	active := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.TournamentActive {
			active = append(active, p)
		}
	}
	rankings := rankPlayers(active)
	now := time.Now()
	entries := make([]models.DailyArchive, 0, len(rankings))
	for _, entry := range rankings {
		entries = append(entries, models.DailyArchive{
			ID:        uuid.NewString(),
			Date:      date,
			PlayerID:  entry.PlayerID,
			Nickname:  entry.Nickname,
			Rating:    entry.CurrentRating,
			Rank:      entry.Rank,
			Badges:    entry.ChampionBadge,
			Wins:      entry.AnnualWins,
			Losses:    entry.AnnualLosses,
			CreatedAt: now,
		})
	}
	return entries
}

func (s *tournamentService) invalidateTournamentCache() {
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyTournaments)
	}
}

func (s *tournamentService) invalidatePlayerCaches() {
	if s.cache != nil {
		s.cache.Invalidate(cacheKeyPlayers, cacheKeyRankings)
	}
}

func (s *tournamentService) broadcast(roomID, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	message := map[string]interface{}{"type": eventType, "payload": payload}
	s.hub.BroadcastToRoom(roomID, message)
	if roomID != rankingsRoom {
		s.hub.BroadcastToRoom(rankingsRoom, message)
	}
}
