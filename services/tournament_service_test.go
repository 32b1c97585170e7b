package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnight/tournament-system/models"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournamentService.Create(ctx, CreateTournamentInput{
		Name:            "  Friday Cards  ",
		Date:            "2026-09-04",
		StartTime:       "19:00",
		Type:            "weekly",
		MaxParticipants: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Friday Cards", tournament.Name)
	assert.Equal(t, models.TournamentUpcoming, tournament.Status)

	_, err = env.tournamentService.Create(ctx, CreateTournamentInput{MaxParticipants: 8})
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	_, err = env.tournamentService.Create(ctx, CreateTournamentInput{Name: "x"})
	assert.ErrorIs(t, err, ErrTournamentInvalidCapacity)
}

func TestUpdateTournamentStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentUpcoming)
	ctx := context.Background()

	active := models.TournamentActive
	updated, err := env.tournamentService.Update(ctx, "t1", UpdateTournamentInput{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentActive, updated.Status)

	completed := models.TournamentCompleted
	updated, err = env.tournamentService.Update(ctx, "t1", UpdateTournamentInput{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, updated.Status)
	assert.NotNil(t, updated.EndedAt)

	// Назад из completed дороги нет.
	upcoming := models.TournamentUpcoming
	_, err = env.tournamentService.Update(ctx, "t1", UpdateTournamentInput{Status: &upcoming})
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestActivateParticipant(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p1"))

	player, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, player.TournamentActive)

	tournament, err := env.tournaments.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, tournament.CurrentParticipants)

	// Игрок может быть активен только в одном турнире.
	env.addTournament(t, "t2", models.TournamentActive)
	err = env.tournamentService.ActivateParticipant(ctx, "t2", "p1")
	assert.ErrorIs(t, err, ErrPlayerAlreadyActive)
}

func TestActivateParticipantGuards(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentUpcoming)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	err := env.tournamentService.ActivateParticipant(ctx, "t1", "p1")
	assert.ErrorIs(t, err, ErrTournamentNotRunning)

	env.addTournament(t, "t2", models.TournamentActive)
	deactivated := env.addPlayer(t, "p2", "bob", 1500)
	deactivated.Deactivated = true
	require.NoError(t, env.players.Update(ctx, deactivated))
	err = env.tournamentService.ActivateParticipant(ctx, "t2", "p2")
	assert.ErrorIs(t, err, ErrPlayerDeactivated)
}

func TestActivateParticipantCapacity(t *testing.T) {
	env := newTestEnv(t)
	tournament := env.addTournament(t, "t1", models.TournamentActive)
	tournament.MaxParticipants = 1
	require.NoError(t, env.tournaments.Update(context.Background(), tournament))
	env.addPlayer(t, "p1", "alice", 1500)
	env.addPlayer(t, "p2", "bob", 1500)
	ctx := context.Background()

	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p1"))
	err := env.tournamentService.ActivateParticipant(ctx, "t1", "p2")
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestEndTournamentDeactivatesParticipants(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1500)
	env.addPlayer(t, "p2", "bob", 1500)
	ctx := context.Background()

	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p1"))
	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p2"))

	ended, err := env.tournamentService.End(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, ended.Status)
	assert.NotNil(t, ended.EndedAt)

	players, err := env.players.List(ctx)
	require.NoError(t, err)
	for _, p := range players {
		assert.False(t, p.TournamentActive, "player %s still active", p.ID)
	}

	_, err = env.tournamentService.End(ctx, "t1")
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
}

func TestDailyResetArchivesAndClears(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1620)
	env.addPlayer(t, "p2", "bob", 1480)
	env.addPlayer(t, "p3", "carol", 1555)
	ctx := context.Background()

	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p1"))
	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p2"))

	summary, err := env.tournamentService.ResetAllTournamentActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Archived)
	assert.Equal(t, 2, summary.Cleared)

	players, err := env.players.List(ctx)
	require.NoError(t, err)
	for _, p := range players {
		assert.False(t, p.TournamentActive)
	}

	// В дневной архив попадают только активные участники; carol вне турнира.
	entries, err := env.archives.ListDailyByDate(ctx, time.Now().Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1620, entries[0].Rating)
	assert.Equal(t, "p2", entries[1].PlayerID)
	assert.Equal(t, 2, entries[1].Rank)
	for _, entry := range entries {
		assert.NotEqual(t, "p3", entry.PlayerID)
	}
}

func TestArchiveYear(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	champion := env.addPlayer(t, "p1", "alice", 1700)
	champion.AnnualWins = 12
	require.NoError(t, env.players.Update(context.Background(), champion))
	env.addPlayer(t, "p2", "bob", 1450)
	ctx := context.Background()

	summary, err := env.tournamentService.ArchiveYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2026, summary.Year)
	assert.Equal(t, 2, summary.Players)
	assert.Equal(t, "p1", summary.ChampionID)

	// Снапшот зафиксирован до сброса.
	entries, err := env.archives.ListYearlyByYear(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1700, entries[0].FinalRating)
	assert.Equal(t, 1, entries[0].FinalRank)
	assert.Equal(t, 12, entries[0].Wins)

	// Рейтинги и годовые счётчики сброшены, бейдж выдан.
	players, err := env.players.List(ctx)
	require.NoError(t, err)
	for _, p := range players {
		assert.Equal(t, models.InitialRatingAdmin, p.CurrentRating)
		assert.Zero(t, p.AnnualWins)
		assert.Zero(t, p.AnnualLosses)
	}
	first, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Contains(t, first.ChampionBadges, "champion_2026")

	// Незакрытый турнир завершён.
	tournament, err := env.tournaments.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentCompleted, tournament.Status)
}

func TestDeleteTournament(t *testing.T) {
	env := newTestEnv(t)
	env.addTournament(t, "t1", models.TournamentActive)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	require.NoError(t, env.tournamentService.ActivateParticipant(ctx, "t1", "p1"))
	require.NoError(t, env.tournamentService.Delete(ctx, "t1"))

	_, err := env.tournaments.GetByID(ctx, "t1")
	require.Error(t, err)

	player, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, player.TournamentActive)
}
