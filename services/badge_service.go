package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/repositories"
)

// BadgeService выдаёт одноразовые флаги "играл по правилам" и бейджи
// чемпиона. Все операции идемпотентны: повторный вызов — no-op, не
// ошибка.
type BadgeService struct {
	playerRepo repositories.PlayerRepository
}

func NewBadgeService(playerRepo repositories.PlayerRepository) *BadgeService {
	return &BadgeService{playerRepo: playerRepo}
}

// RecordExperience отмечает, что игрок сыграл по данному варианту
// правил. Дата первой игры ставится только при первом вызове.
// Возвращает true, если флаг был выставлен именно сейчас (для
// уведомлений). Неизвестный вариант правил — no-op.
func (s *BadgeService) RecordExperience(ctx context.Context, playerID string, gameType models.GameType) (bool, error) {
	if !gameType.Valid() {
		return false, nil
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("record experience for player %s: %w", playerID, err)
	}

	now := time.Now()
	switch gameType {
	case models.GameTypeTrump:
		if player.TrumpRuleExperienced {
			return false, nil
		}
		player.TrumpRuleExperienced = true
		if player.FirstTrumpGameDate == nil {
			player.FirstTrumpGameDate = &now
		}
	case models.GameTypeCardPlus:
		if player.CardPlusRuleExperienced {
			return false, nil
		}
		player.CardPlusRuleExperienced = true
		if player.FirstCardPlusGameDate == nil {
			player.FirstCardPlusGameDate = &now
		}
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return false, fmt.Errorf("record experience for player %s: %w", playerID, err)
	}
	return true, nil
}

// AwardChampionBadge дописывает токен в свободный список бейджей игрока.
func (s *BadgeService) AwardChampionBadge(ctx context.Context, playerID, token string) (bool, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("award champion badge to player %s: %w", playerID, err)
	}
	updated, granted := appendBadgeToken(player.ChampionBadges, token)
	if !granted {
		return false, nil
	}
	player.ChampionBadges = updated
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return false, fmt.Errorf("award champion badge to player %s: %w", playerID, err)
	}
	return true, nil
}
