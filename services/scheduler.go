package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler запускает регламентные работы: ночной сброс флагов участия
// и закрытие сезона 1 января.
type Scheduler struct {
	tournaments TournamentService
	logger      *slog.Logger
	resetHour   int
	sched       gocron.Scheduler
}

func NewScheduler(tournaments TournamentService, logger *slog.Logger, resetHour int) *Scheduler {
	if resetHour < 0 || resetHour > 23 {
		resetHour = 4
	}
	return &Scheduler{
		tournaments: tournaments,
		logger:      logger,
		resetHour:   resetHour,
	}
}

func (s *Scheduler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	s.sched = sched

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(s.resetHour), 0, 0))),
		gocron.NewTask(s.runDailyReset),
	)
	if err != nil {
		return fmt.Errorf("schedule daily reset: %w", err)
	}

	_, err = sched.NewJob(
		gocron.CronJob(fmt.Sprintf("0 %d 1 1 *", s.resetHour), false),
		gocron.NewTask(s.runYearEnd),
	)
	if err != nil {
		return fmt.Errorf("schedule year-end archival: %w", err)
	}

	sched.Start()
	s.logger.Info("scheduler started", slog.Int("reset_hour", s.resetHour))
	return nil
}

func (s *Scheduler) Stop() {
	if s.sched == nil {
		return
	}
	if err := s.sched.Shutdown(); err != nil {
		s.logger.Warn("scheduler shutdown failed", slog.Any("error", err))
	}
}

func (s *Scheduler) runDailyReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	summary, err := s.tournaments.ResetAllTournamentActive(ctx)
	if err != nil {
		s.logger.Error("daily tournament reset failed", slog.Any("error", err))
		return
	}
	s.logger.Info("daily tournament reset completed",
		slog.String("date", summary.Date),
		slog.Int("archived", summary.Archived),
		slog.Int("cleared", summary.Cleared))
}

// runYearEnd закрывает только что истёкший год.
func (s *Scheduler) runYearEnd() {
	year := time.Now().Year() - 1
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	summary, err := s.tournaments.ArchiveYear(ctx, year)
	if err != nil {
		s.logger.Error("year-end archival failed",
			slog.Int("year", year), slog.Any("error", err))
		return
	}
	s.logger.Info("year-end archival completed",
		slog.Int("year", summary.Year),
		slog.Int("players", summary.Players),
		slog.String("champion_id", summary.ChampionID))
}
