package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
)

// Кандидаты имён для логических полей листа Players: старые выгрузки
// держали ключ в колонке player_id.
var (
	playerIDColumns = []string{"id", "player_id"}
)

type PlayerRepository interface {
	List(ctx context.Context) ([]*models.Player, error)
	GetByID(ctx context.Context, id string) (*models.Player, error)
	GetByEmail(ctx context.Context, email string) (*models.Player, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.Player, error)
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	// UpdateAll применяет мутатор к каждому игроку; мутатор возвращает
	// true, если игрок изменился. Возвращает число изменённых строк.
	UpdateAll(ctx context.Context, mutate func(*models.Player) bool) (int, error)
}

type sheetPlayerRepository struct {
	store *sheets.RowStore
}

func NewSheetPlayerRepository(store *sheets.RowStore) PlayerRepository {
	return &sheetPlayerRepository{store: store}
}

func (r *sheetPlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetPlayers)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	players := make([]*models.Player, 0, len(rows))
	for _, row := range rows {
		player := decodePlayer(schema, row)
		if player.ID == "" {
			continue
		}
		players = append(players, player)
	}
	return players, nil
}

func (r *sheetPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	return r.findBy(ctx, func(p *models.Player) bool { return p.ID == id })
}

func (r *sheetPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	return r.findBy(ctx, func(p *models.Player) bool { return p.Email == email })
}

func (r *sheetPlayerRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.Player, error) {
	if token == "" {
		return nil, ErrPlayerNotFound
	}
	return r.findBy(ctx, func(p *models.Player) bool {
		return p.EmailConfirmationToken != nil && *p.EmailConfirmationToken == token
	})
}

func (r *sheetPlayerRepository) findBy(ctx context.Context, match func(*models.Player) bool) (*models.Player, error) {
	players, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, player := range players {
		if match(player) {
			return player, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (r *sheetPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	schema, err := r.store.Schema(ctx, SheetPlayers)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	row := encodePlayer(schema, player, make(sheets.Row, len(schema.Headers())))
	if err := r.store.AppendRows(ctx, SheetPlayers, []sheets.Row{row}); err != nil {
		return fmt.Errorf("create player %s: %w", player.ID, err)
	}
	return nil
}

func (r *sheetPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	schema, err := r.store.Schema(ctx, SheetPlayers)
	if err != nil {
		return fmt.Errorf("update player %s: %w", player.ID, err)
	}
	keyColumn, err := resolveKeyColumn(schema, playerIDColumns...)
	if err != nil {
		return err
	}
	err = r.store.UpdateByKey(ctx, SheetPlayers, keyColumn, player.ID,
		func(schema *sheets.Schema, row sheets.Row) (sheets.Row, error) {
			return encodePlayer(schema, player, row), nil
		})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("player %s: %w", player.ID, ErrPlayerNotFound)
		}
		return fmt.Errorf("update player %s: %w", player.ID, err)
	}
	return nil
}

func (r *sheetPlayerRepository) UpdateAll(ctx context.Context, mutate func(*models.Player) bool) (int, error) {
	changed, err := r.store.UpdateAll(ctx, SheetPlayers,
		func(schema *sheets.Schema, row sheets.Row) (sheets.Row, bool, error) {
			player := decodePlayer(schema, row)
			if player.ID == "" {
				return row, false, nil
			}
			if !mutate(player) {
				return row, false, nil
			}
			return encodePlayer(schema, player, row), true, nil
		})
	if err != nil {
		return 0, fmt.Errorf("update all players: %w", err)
	}
	return changed, nil
}

func decodePlayer(schema *sheets.Schema, row sheets.Row) *models.Player {
	return &models.Player{
		ID:           row.Get(schema.IndexOf(playerIDColumns...)),
		Nickname:     row.Get(schema.IndexOf("nickname")),
		Email:        row.Get(schema.IndexOf("email")),
		PasswordHash: row.Get(schema.IndexOf("password_hash")),
		Role:         models.PlayerRole(row.Get(schema.IndexOf("role"))),

		CurrentRating: parseInt(row.Get(schema.IndexOf("current_rating", "rating"))),
		AnnualWins:    parseInt(row.Get(schema.IndexOf("annual_wins"))),
		AnnualLosses:  parseInt(row.Get(schema.IndexOf("annual_losses"))),
		TotalWins:     parseInt(row.Get(schema.IndexOf("total_wins"))),
		TotalLosses:   parseInt(row.Get(schema.IndexOf("total_losses"))),

		ChampionBadges: row.Get(schema.IndexOf("champion_badges")),

		TrumpRuleExperienced:    parseBool(row.Get(schema.IndexOf("trump_rule_experienced"))),
		FirstTrumpGameDate:      parseTimePtr(row.Get(schema.IndexOf("first_trump_game_date"))),
		CardPlusRuleExperienced: parseBool(row.Get(schema.IndexOf("cardplus_rule_experienced"))),
		FirstCardPlusGameDate:   parseTimePtr(row.Get(schema.IndexOf("first_cardplus_game_date"))),

		TournamentActive: parseBool(row.Get(schema.IndexOf("tournament_active"))),
		EmailVerified:    parseBool(row.Get(schema.IndexOf("email_verified"))),
		Deactivated:      parseBool(row.Get(schema.IndexOf("deactivated"))),

		EmailConfirmationToken: parseStringPtr(row.Get(schema.IndexOf("email_confirmation_token"))),

		CreatedAt:    parseTime(row.Get(schema.IndexOf("created_at"))),
		LastActiveAt: parseTimePtr(row.Get(schema.IndexOf("last_active_at"))),
	}
}

// encodePlayer пишет игрока в строку листа. Отсутствующая колонка
// (индекс -1) молча пропускается — Row.Set это гарантирует.
func encodePlayer(schema *sheets.Schema, p *models.Player, row sheets.Row) sheets.Row {
	row = row.Set(schema.IndexOf(playerIDColumns...), p.ID)
	row = row.Set(schema.IndexOf("nickname"), p.Nickname)
	row = row.Set(schema.IndexOf("email"), p.Email)
	row = row.Set(schema.IndexOf("password_hash"), p.PasswordHash)
	row = row.Set(schema.IndexOf("role"), string(p.Role))

	row = row.Set(schema.IndexOf("current_rating", "rating"), formatInt(p.CurrentRating))
	row = row.Set(schema.IndexOf("annual_wins"), formatInt(p.AnnualWins))
	row = row.Set(schema.IndexOf("annual_losses"), formatInt(p.AnnualLosses))
	row = row.Set(schema.IndexOf("total_wins"), formatInt(p.TotalWins))
	row = row.Set(schema.IndexOf("total_losses"), formatInt(p.TotalLosses))

	row = row.Set(schema.IndexOf("champion_badges"), p.ChampionBadges)

	row = row.Set(schema.IndexOf("trump_rule_experienced"), formatBool(p.TrumpRuleExperienced))
	row = row.Set(schema.IndexOf("first_trump_game_date"), formatTimePtr(p.FirstTrumpGameDate))
	row = row.Set(schema.IndexOf("cardplus_rule_experienced"), formatBool(p.CardPlusRuleExperienced))
	row = row.Set(schema.IndexOf("first_cardplus_game_date"), formatTimePtr(p.FirstCardPlusGameDate))

	row = row.Set(schema.IndexOf("tournament_active"), formatBool(p.TournamentActive))
	row = row.Set(schema.IndexOf("email_verified"), formatBool(p.EmailVerified))
	row = row.Set(schema.IndexOf("deactivated"), formatBool(p.Deactivated))

	row = row.Set(schema.IndexOf("email_confirmation_token"), derefString(p.EmailConfirmationToken))
	row = row.Set(schema.IndexOf("created_at"), formatTime(p.CreatedAt))
	row = row.Set(schema.IndexOf("last_active_at"), formatTimePtr(p.LastActiveAt))
	return row
}
