package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

var ErrMatchNotFound = errors.New("match not found")

var matchIDColumns = []string{"match_id", "id"}

type MatchRepository interface {
	// List возвращает матчи, опционально отфильтрованные по турниру
	// (nil — все матчи).
	List(ctx context.Context, tournamentID *string) ([]*models.Match, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
	// Delete удаляет строку матча. Лайфсайкл допускает это только для
	// scheduled; проверка состояния лежит на сервисе.
	Delete(ctx context.Context, id string) error
}

type sheetMatchRepository struct {
	store *sheets.RowStore
}

func NewSheetMatchRepository(store *sheets.RowStore) MatchRepository {
	return &sheetMatchRepository{store: store}
}

func (r *sheetMatchRepository) List(ctx context.Context, tournamentID *string) ([]*models.Match, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetMatches)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	matches := make([]*models.Match, 0, len(rows))
	for _, row := range rows {
		m := decodeMatch(schema, row)
		if m.ID == "" {
			continue
		}
		if tournamentID != nil && m.TournamentID != *tournamentID {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *sheetMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	matches, err := r.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (r *sheetMatchRepository) Create(ctx context.Context, match *models.Match) error {
	schema, err := r.store.Schema(ctx, SheetMatches)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	row := encodeMatch(schema, match, make(sheets.Row, len(schema.Headers())))
	if err := r.store.AppendRows(ctx, SheetMatches, []sheets.Row{row}); err != nil {
		return fmt.Errorf("create match %s: %w", match.ID, err)
	}
	return nil
}

func (r *sheetMatchRepository) Update(ctx context.Context, match *models.Match) error {
	schema, err := r.store.Schema(ctx, SheetMatches)
	if err != nil {
		return fmt.Errorf("update match %s: %w", match.ID, err)
	}
	keyColumn, err := resolveKeyColumn(schema, matchIDColumns...)
	if err != nil {
		return err
	}
	err = r.store.UpdateByKey(ctx, SheetMatches, keyColumn, match.ID,
		func(schema *sheets.Schema, row sheets.Row) (sheets.Row, error) {
			return encodeMatch(schema, match, row), nil
		})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("match %s: %w", match.ID, ErrMatchNotFound)
		}
		return fmt.Errorf("update match %s: %w", match.ID, err)
	}
	return nil
}

func (r *sheetMatchRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	matches, err := r.List(ctx, &tournamentID)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (r *sheetMatchRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.store.DeleteRows(ctx, SheetMatches,
		func(schema *sheets.Schema, row sheets.Row) bool {
			return row.Get(schema.IndexOf(matchIDColumns...)) == id
		})
	if err != nil {
		return fmt.Errorf("delete match %s: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	return nil
}

func decodeMatch(schema *sheets.Schema, row sheets.Row) *models.Match {
	return &models.Match{
		ID:           row.Get(schema.IndexOf(matchIDColumns...)),
		TournamentID: row.Get(schema.IndexOf("tournament_id")),
		MatchNumber:  parseInt(row.Get(schema.IndexOf("match_number"))),
		Player1ID:    row.Get(schema.IndexOf("player1_id")),
		Player1Name:  row.Get(schema.IndexOf("player1_name")),
		Player2ID:    row.Get(schema.IndexOf("player2_id")),
		Player2Name:  row.Get(schema.IndexOf("player2_name")),
		GameType:     models.GameType(row.Get(schema.IndexOf("game_type"))),
		Status:       models.MatchStatus(row.Get(schema.IndexOf("status"))),

		// Сырые значения: в исторических данных winner_id изредка
		// содержит строку статуса. Санацию делает сервис.
		WinnerID: parseStringPtr(row.Get(schema.IndexOf("winner_id"))),
		LoserID:  parseStringPtr(row.Get(schema.IndexOf("loser_id"))),

		Player1RatingBefore: parseInt(row.Get(schema.IndexOf("player1_rating_before"))),
		Player1RatingAfter:  parseInt(row.Get(schema.IndexOf("player1_rating_after"))),
		Player1RatingChange: parseInt(row.Get(schema.IndexOf("player1_rating_change"))),
		Player2RatingBefore: parseInt(row.Get(schema.IndexOf("player2_rating_before"))),
		Player2RatingAfter:  parseInt(row.Get(schema.IndexOf("player2_rating_after"))),
		Player2RatingChange: parseInt(row.Get(schema.IndexOf("player2_rating_change"))),

		InvalidReason: parseStringPtr(row.Get(schema.IndexOf("invalid_reason"))),

		CreatedAt:  parseTime(row.Get(schema.IndexOf("created_at"))),
		StartedAt:  parseTimePtr(row.Get(schema.IndexOf("started_at"))),
		EndedAt:    parseTimePtr(row.Get(schema.IndexOf("ended_at"))),
		ReportedAt: parseTimePtr(row.Get(schema.IndexOf("reported_at"))),
		ApprovedAt: parseTimePtr(row.Get(schema.IndexOf("approved_at"))),
	}
}

func encodeMatch(schema *sheets.Schema, m *models.Match, row sheets.Row) sheets.Row {
	row = row.Set(schema.IndexOf(matchIDColumns...), m.ID)
	row = row.Set(schema.IndexOf("tournament_id"), m.TournamentID)
	row = row.Set(schema.IndexOf("match_number"), formatInt(m.MatchNumber))
	row = row.Set(schema.IndexOf("player1_id"), m.Player1ID)
	row = row.Set(schema.IndexOf("player1_name"), m.Player1Name)
	row = row.Set(schema.IndexOf("player2_id"), m.Player2ID)
	row = row.Set(schema.IndexOf("player2_name"), m.Player2Name)
	row = row.Set(schema.IndexOf("game_type"), string(m.GameType))
	row = row.Set(schema.IndexOf("status"), string(m.Status))
	row = row.Set(schema.IndexOf("winner_id"), derefString(m.WinnerID))
	row = row.Set(schema.IndexOf("loser_id"), derefString(m.LoserID))

	row = row.Set(schema.IndexOf("player1_rating_before"), formatInt(m.Player1RatingBefore))
	row = row.Set(schema.IndexOf("player1_rating_after"), formatInt(m.Player1RatingAfter))
	row = row.Set(schema.IndexOf("player1_rating_change"), formatInt(m.Player1RatingChange))
	row = row.Set(schema.IndexOf("player2_rating_before"), formatInt(m.Player2RatingBefore))
	row = row.Set(schema.IndexOf("player2_rating_after"), formatInt(m.Player2RatingAfter))
	row = row.Set(schema.IndexOf("player2_rating_change"), formatInt(m.Player2RatingChange))

	row = row.Set(schema.IndexOf("invalid_reason"), derefString(m.InvalidReason))

	row = row.Set(schema.IndexOf("created_at"), formatTime(m.CreatedAt))
	row = row.Set(schema.IndexOf("started_at"), formatTimePtr(m.StartedAt))
	row = row.Set(schema.IndexOf("ended_at"), formatTimePtr(m.EndedAt))
	row = row.Set(schema.IndexOf("reported_at"), formatTimePtr(m.ReportedAt))
	row = row.Set(schema.IndexOf("approved_at"), formatTimePtr(m.ApprovedAt))
	return row
}
