package services

import (
	"context"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/repositories"
)

// RankingService обслуживает дорогие массовые чтения через кэш: список
// игроков и рейтинговую таблицу спрашивают на каждый экран, хранилище —
// нет смысла дёргать чаще, чем раз в TTL.
type RankingService interface {
	GetRankings(ctx context.Context) ([]models.RankingEntry, error)
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]*models.Player, error)
	GetPlayerRank(ctx context.Context, playerID string) (int, error)
}

type rankingService struct {
	playerRepo repositories.PlayerRepository
	cache      *cache.Cache
}

func NewRankingService(playerRepo repositories.PlayerRepository, c *cache.Cache) RankingService {
	return &rankingService{playerRepo: playerRepo, cache: c}
}

func (s *rankingService) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	if s.cache == nil {
		return s.playerRepo.List(ctx)
	}
	value, err := s.cache.Get(cacheKeyPlayers, func() (interface{}, error) {
		return s.playerRepo.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Player), nil
}

func (s *rankingService) GetRankings(ctx context.Context) ([]models.RankingEntry, error) {
	if s.cache == nil {
		players, err := s.playerRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		return rankPlayers(players), nil
	}
	value, err := s.cache.Get(cacheKeyRankings, func() (interface{}, error) {
		players, err := s.playerRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		return rankPlayers(players), nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.RankingEntry), nil
}

// GetPlayer читает игрока через кэшированный список: точечное чтение
// из хранилища стоит столько же, сколько чтение всего листа.
func (s *rankingService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (s *rankingService) GetPlayerRank(ctx context.Context, playerID string) (int, error) {
	rankings, err := s.GetRankings(ctx)
	if err != nil {
		return 0, err
	}
	rank := rankOf(rankings, playerID)
	if rank == 0 {
		return 0, repositories.ErrPlayerNotFound
	}
	return rank, nil
}
