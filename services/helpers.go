package services

import (
	"sort"
	"strings"

	"github.com/cardnight/tournament-system/models"
)

// Ключи кэша для дорогих чтений. Пути записи обязаны инвалидировать
// затронутые ключи.
const (
	cacheKeyPlayers     = "players"
	cacheKeyRankings    = "rankings"
	cacheKeyTournaments = "tournaments"
)

// Broadcaster — рассылка событий подписчикам комнаты (websocket-хаб).
// Необязательная зависимость: nil отключает рассылку.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const rankingsRoom = "rankings"

// Статусы матча продвигаются только вперёд; invalidate и admin edit —
// единственные санкционированные исключения и проверяются отдельно.
var allowedMatchTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchScheduled:  {models.MatchInProgress, models.MatchCompleted, models.MatchApproved, models.MatchCancelled},
	models.MatchInProgress: {models.MatchCompleted, models.MatchApproved, models.MatchCancelled},
	models.MatchCompleted:  {models.MatchApproved, models.MatchInvalidated},
	models.MatchApproved:   {models.MatchInvalidated},
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	for _, allowed := range allowedMatchTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

var allowedTournamentTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentUpcoming:  {models.TournamentActive, models.TournamentCompleted},
	models.TournamentActive:    {models.TournamentCompleted},
	models.TournamentCompleted: {},
}

func isValidTournamentTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	for _, allowed := range allowedTournamentTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// sanitizedWinnerID возвращает ID победителя, только если он совпадает
// с одним из участников. Исторические данные изредка держат в колонке
// победителя строку статуса — такой мусор трактуется как "победителя
// не было", а не как ошибка.
func sanitizedWinnerID(m *models.Match) string {
	if m.WinnerID == nil {
		return ""
	}
	if m.HasPlayer(*m.WinnerID) {
		return *m.WinnerID
	}
	return ""
}

// rankPlayers сортирует игроков в порядке рейтинга и проставляет места.
// Деактивированные игроки в рейтинг не попадают.
func rankPlayers(players []*models.Player) []models.RankingEntry {
	ranked := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.Deactivated {
			continue
		}
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CurrentRating != ranked[j].CurrentRating {
			return ranked[i].CurrentRating > ranked[j].CurrentRating
		}
		if ranked[i].AnnualWins != ranked[j].AnnualWins {
			return ranked[i].AnnualWins > ranked[j].AnnualWins
		}
		return ranked[i].Nickname < ranked[j].Nickname
	})

	entries := make([]models.RankingEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, models.RankingEntry{
			Rank:          i + 1,
			PlayerID:      p.ID,
			Nickname:      p.Nickname,
			CurrentRating: p.CurrentRating,
			AnnualWins:    p.AnnualWins,
			AnnualLosses:  p.AnnualLosses,
			ChampionBadge: p.ChampionBadges,
		})
	}
	return entries
}

// rankOf возвращает место игрока в готовом рейтинге, 0 если не найден.
func rankOf(entries []models.RankingEntry, playerID string) int {
	for _, e := range entries {
		if e.PlayerID == playerID {
			return e.Rank
		}
	}
	return 0
}

// appendBadgeToken добавляет токен в свободный список бейджей, если его
// там ещё нет.
func appendBadgeToken(badges, token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return badges, false
	}
	for _, existing := range strings.Split(badges, ",") {
		if strings.TrimSpace(existing) == token {
			return badges, false
		}
	}
	if strings.TrimSpace(badges) == "" {
		return token, true
	}
	return badges + ", " + token, true
}
