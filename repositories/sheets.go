package repositories

import (
	"context"
	"fmt"

	"github.com/cardnight/tournament-system/sheets"
)

// Имена листов хранилища.
const (
	SheetPlayers      = "Players"
	SheetTournaments  = "Tournaments"
	SheetMatches      = "TournamentMatches"
	SheetResults      = "MatchResults"
	SheetDailyArchive = "TournamentDailyArchive"
	SheetYearlyArch   = "YearlyArchive"
)

// Канонические заголовки для создания листов с нуля. Существующие листы
// могут держать колонки в другом порядке — контракт только в именах.
var sheetHeaders = map[string][]string{
	SheetPlayers: {
		"id", "nickname", "email", "password_hash", "role",
		"current_rating", "annual_wins", "annual_losses", "total_wins", "total_losses",
		"champion_badges",
		"trump_rule_experienced", "first_trump_game_date",
		"cardplus_rule_experienced", "first_cardplus_game_date",
		"tournament_active", "email_verified", "deactivated",
		"email_confirmation_token", "created_at", "last_active_at",
	},
	SheetTournaments: {
		"id", "tournament_name", "date", "start_time", "location", "status",
		"max_participants", "current_participants", "tournament_type",
		"description", "created_at", "ended_at",
	},
	SheetMatches: {
		"match_id", "tournament_id", "match_number",
		"player1_id", "player1_name", "player2_id", "player2_name",
		"game_type", "status", "winner_id", "loser_id",
		"player1_rating_before", "player1_rating_after", "player1_rating_change",
		"player2_rating_before", "player2_rating_after", "player2_rating_change",
		"invalid_reason",
		"created_at", "started_at", "ended_at", "reported_at", "approved_at",
	},
	SheetResults: {
		"result_id", "match_id", "player_id", "opponent_id", "result",
		"status", "reported_at", "approved_by", "approved_at",
	},
	SheetDailyArchive: {
		"archive_id", "date", "player_id", "nickname", "rating", "rank",
		"badges", "wins", "losses", "created_at",
	},
	SheetYearlyArch: {
		"archive_id", "year", "player_id", "nickname", "final_rating",
		"final_rank", "badges", "wins", "losses", "created_at",
	},
}

// Обязательные колонки: их отсутствие валит старт, а не возвращает -1
// посреди операции.
var requiredColumns = map[string][]string{
	SheetPlayers:      {"id", "nickname", "current_rating", "tournament_active"},
	SheetTournaments:  {"id", "tournament_name", "status"},
	SheetMatches:      {"match_id", "tournament_id", "player1_id", "player2_id", "game_type", "status"},
	SheetResults:      {"result_id", "match_id", "player_id", "status"},
	SheetDailyArchive: {"archive_id", "date", "player_id"},
	SheetYearlyArch:   {"archive_id", "year", "player_id"},
}

// EnsureSheets создаёт недостающие листы с каноническими заголовками.
func EnsureSheets(ctx context.Context, client sheets.TabularStoreClient) error {
	for sheet, headers := range sheetHeaders {
		if err := client.EnsureSheetExists(ctx, sheet, headers); err != nil {
			return fmt.Errorf("ensure sheet %q: %w", sheet, err)
		}
	}
	return nil
}

// ValidateSchemas проверяет обязательные колонки всех листов один раз
// на старте.
func ValidateSchemas(ctx context.Context, resolver *sheets.SchemaResolver) error {
	for sheet, required := range requiredColumns {
		if err := resolver.Validate(ctx, sheet, required...); err != nil {
			return err
		}
	}
	return nil
}
