package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

func newTestStore(t *testing.T) *sheets.RowStore {
	t.Helper()
	client := sheets.NewMemoryClient()
	require.NoError(t, EnsureSheets(context.Background(), client))
	resolver := sheets.NewSchemaResolver(client)
	require.NoError(t, ValidateSchemas(context.Background(), resolver))
	return sheets.NewRowStore(client, resolver)
}

func testPlayer(id, nickname string) *models.Player {
	return &models.Player{
		ID:            id,
		Nickname:      nickname,
		Email:         nickname + "@example.com",
		Role:          models.RolePlayer,
		CurrentRating: models.InitialRatingSignup,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestPlayerCreateAndGet(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	ctx := context.Background()

	player := testPlayer("p1", "alice")
	player.AnnualWins = 3
	player.TrumpRuleExperienced = true
	require.NoError(t, repo.Create(ctx, player))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Nickname)
	assert.Equal(t, models.InitialRatingSignup, got.CurrentRating)
	assert.Equal(t, 3, got.AnnualWins)
	assert.True(t, got.TrumpRuleExperienced)
	assert.False(t, got.CardPlusRuleExperienced)
}

func TestPlayerGetByEmail(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testPlayer("p1", "alice")))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerGetByConfirmationToken(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	ctx := context.Background()

	token := "tok-123"
	player := testPlayer("p1", "alice")
	player.EmailConfirmationToken = &token
	require.NoError(t, repo.Create(ctx, player))

	got, err := repo.GetByConfirmationToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	// Пустой токен не должен матчить игроков без токена.
	_, err = repo.GetByConfirmationToken(ctx, "")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerUpdate(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testPlayer("p1", "alice")))
	require.NoError(t, repo.Create(ctx, testPlayer("p2", "bob")))

	player, err := repo.GetByID(ctx, "p2")
	require.NoError(t, err)
	player.CurrentRating = 1516
	player.AnnualWins = 1
	require.NoError(t, repo.Update(ctx, player))

	got, err := repo.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1516, got.CurrentRating)
	assert.Equal(t, 1, got.AnnualWins)

	// Сосед не затронут.
	other, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.InitialRatingSignup, other.CurrentRating)
}

func TestPlayerUpdateNotFound(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	err := repo.Update(context.Background(), testPlayer("ghost", "ghost"))
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerUpdateAll(t *testing.T) {
	repo := NewSheetPlayerRepository(newTestStore(t))
	ctx := context.Background()

	active := testPlayer("p1", "alice")
	active.TournamentActive = true
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, testPlayer("p2", "bob")))

	changed, err := repo.UpdateAll(ctx, func(p *models.Player) bool {
		if !p.TournamentActive {
			return false
		}
		p.TournamentActive = false
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, got.TournamentActive)
}

// Альтернативное имя ключевой колонки (player_id вместо id) должно
// работать для чтения и записи.
func TestPlayerLegacyKeyColumn(t *testing.T) {
	client := sheets.NewMemoryClient()
	ctx := context.Background()
	require.NoError(t, client.EnsureSheetExists(ctx, SheetPlayers, []string{
		"player_id", "nickname", "email", "rating", "tournament_active",
	}))
	store := sheets.NewRowStore(client, sheets.NewSchemaResolver(client))
	repo := NewSheetPlayerRepository(store)

	player := testPlayer("p1", "alice")
	require.NoError(t, repo.Create(ctx, player))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.InitialRatingSignup, got.CurrentRating)

	got.CurrentRating = 1300
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1300, again.CurrentRating)
}
