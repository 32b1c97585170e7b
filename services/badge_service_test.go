package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnight/tournament-system/models"
)

func TestRecordExperienceIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	granted, err := env.badges.RecordExperience(ctx, "p1", models.GameTypeTrump)
	require.NoError(t, err)
	assert.True(t, granted)

	player, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, player.TrumpRuleExperienced)
	require.NotNil(t, player.FirstTrumpGameDate)
	firstDate := *player.FirstTrumpGameDate

	// Повторная игра не двигает дату первой.
	granted, err = env.badges.RecordExperience(ctx, "p1", models.GameTypeTrump)
	require.NoError(t, err)
	assert.False(t, granted)

	player, err = env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, firstDate, *player.FirstTrumpGameDate)
}

func TestRecordExperiencePerGameType(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	_, err := env.badges.RecordExperience(ctx, "p1", models.GameTypeTrump)
	require.NoError(t, err)

	player, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, player.TrumpRuleExperienced)
	assert.False(t, player.CardPlusRuleExperienced)
	assert.Nil(t, player.FirstCardPlusGameDate)
}

func TestRecordExperienceUnknownGameType(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(t, "p1", "alice", 1500)

	granted, err := env.badges.RecordExperience(context.Background(), "p1", models.GameType("poker"))
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestAwardChampionBadge(t *testing.T) {
	env := newTestEnv(t)
	env.addPlayer(t, "p1", "alice", 1500)
	ctx := context.Background()

	granted, err := env.badges.AwardChampionBadge(ctx, "p1", "champion_2026")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = env.badges.AwardChampionBadge(ctx, "p1", "champion_2026")
	require.NoError(t, err)
	assert.False(t, granted)

	player, err := env.players.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "champion_2026", player.ChampionBadges)
}
