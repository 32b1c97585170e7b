package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnight/tournament-system/cache"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/rating"
	"github.com/cardnight/tournament-system/repositories"
	"github.com/cardnight/tournament-system/sheets"
)

type testEnv struct {
	players     repositories.PlayerRepository
	tournaments repositories.TournamentRepository
	matches     repositories.MatchRepository
	results     repositories.ResultRepository
	archives    repositories.ArchiveRepository

	badges            *BadgeService
	matchService      MatchService
	tournamentService TournamentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	client := sheets.NewMemoryClient()
	ctx := context.Background()
	require.NoError(t, repositories.EnsureSheets(ctx, client))
	resolver := sheets.NewSchemaResolver(client)
	require.NoError(t, repositories.ValidateSchemas(ctx, resolver))
	store := sheets.NewRowStore(client, resolver)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	readCache := cache.New(time.Minute)

	env := &testEnv{
		players:     repositories.NewSheetPlayerRepository(store),
		tournaments: repositories.NewSheetTournamentRepository(store),
		matches:     repositories.NewSheetMatchRepository(store),
		results:     repositories.NewSheetResultRepository(store),
		archives:    repositories.NewSheetArchiveRepository(store),
	}
	env.badges = NewBadgeService(env.players)
	env.matchService = NewMatchService(
		env.matches, env.results, env.players, env.tournaments,
		env.badges, readCache, nil, logger, rating.DefaultK,
	)
	env.tournamentService = NewTournamentService(
		env.tournaments, env.players, env.archives,
		env.badges, readCache, nil, nil, logger,
	)
	return env
}

func (e *testEnv) addPlayer(t *testing.T, id, nickname string, currentRating int) *models.Player {
	t.Helper()
	player := &models.Player{
		ID:            id,
		Nickname:      nickname,
		Email:         nickname + "@example.com",
		Role:          models.RolePlayer,
		CurrentRating: currentRating,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, e.players.Create(context.Background(), player))
	return player
}

func (e *testEnv) addTournament(t *testing.T, id string, status models.TournamentStatus) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		ID:              id,
		Name:            "Friday Cards " + id,
		Date:            time.Now().Format("2006-01-02"),
		Status:          status,
		MaxParticipants: 16,
		Type:            "weekly",
		CreatedAt:       time.Now(),
	}
	require.NoError(t, e.tournaments.Create(context.Background(), tournament))
	return tournament
}

func (e *testEnv) playerRating(t *testing.T, id string) int {
	t.Helper()
	player, err := e.players.GetByID(context.Background(), id)
	require.NoError(t, err)
	return player.CurrentRating
}

func TestSanitizedWinnerID(t *testing.T) {
	match := &models.Match{Player1ID: "p1", Player2ID: "p2"}
	assert.Equal(t, "", sanitizedWinnerID(match))

	winner := "p1"
	match.WinnerID = &winner
	assert.Equal(t, "p1", sanitizedWinnerID(match))

	// В колонку победителя исторически попадали строки статуса.
	garbage := "completed"
	match.WinnerID = &garbage
	assert.Equal(t, "", sanitizedWinnerID(match))
}

func TestAppendBadgeToken(t *testing.T) {
	badges, granted := appendBadgeToken("", "champion_2025")
	assert.True(t, granted)
	assert.Equal(t, "champion_2025", badges)

	badges, granted = appendBadgeToken(badges, "champion_2026")
	assert.True(t, granted)
	assert.Equal(t, "champion_2025, champion_2026", badges)

	// Повторная выдача того же токена — no-op.
	same, granted := appendBadgeToken(badges, "champion_2025")
	assert.False(t, granted)
	assert.Equal(t, badges, same)

	_, granted = appendBadgeToken(badges, "  ")
	assert.False(t, granted)
}

func TestRankPlayers(t *testing.T) {
	players := []*models.Player{
		{ID: "p1", Nickname: "alice", CurrentRating: 1500, AnnualWins: 2},
		{ID: "p2", Nickname: "bob", CurrentRating: 1600},
		{ID: "p3", Nickname: "carol", CurrentRating: 1500, AnnualWins: 5},
		{ID: "p4", Nickname: "dave", CurrentRating: 1700, Deactivated: true},
	}

	entries := rankPlayers(players)
	require.Len(t, entries, 3)
	assert.Equal(t, "p2", entries[0].PlayerID)
	// При равном рейтинге решают годовые победы.
	assert.Equal(t, "p3", entries[1].PlayerID)
	assert.Equal(t, "p1", entries[2].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[2].Rank)

	assert.Equal(t, 2, rankOf(entries, "p3"))
	assert.Equal(t, 0, rankOf(entries, "p4"))
}
