package repositories

import (
	"context"
	"fmt"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/sheets"
)

// ArchiveRepository — append-only леджер дневных и годовых снапшотов.
// Записи никогда не мутируются и не удаляются.
type ArchiveRepository interface {
	AppendDaily(ctx context.Context, entries []models.DailyArchive) error
	AppendYearly(ctx context.Context, entries []models.YearlyArchive) error
	ListDailyByDate(ctx context.Context, date string) ([]*models.DailyArchive, error)
	ListYearlyByYear(ctx context.Context, year int) ([]*models.YearlyArchive, error)
}

type sheetArchiveRepository struct {
	store *sheets.RowStore
}

func NewSheetArchiveRepository(store *sheets.RowStore) ArchiveRepository {
	return &sheetArchiveRepository{store: store}
}

func (r *sheetArchiveRepository) AppendDaily(ctx context.Context, entries []models.DailyArchive) error {
	if len(entries) == 0 {
		return nil
	}
	schema, err := r.store.Schema(ctx, SheetDailyArchive)
	if err != nil {
		return fmt.Errorf("append daily archive: %w", err)
	}
	rows := make([]sheets.Row, 0, len(entries))
	for _, entry := range entries {
		row := make(sheets.Row, len(schema.Headers()))
		row = row.Set(schema.IndexOf("archive_id"), entry.ID)
		row = row.Set(schema.IndexOf("date"), entry.Date)
		row = row.Set(schema.IndexOf("player_id"), entry.PlayerID)
		row = row.Set(schema.IndexOf("nickname"), entry.Nickname)
		row = row.Set(schema.IndexOf("rating"), formatInt(entry.Rating))
		row = row.Set(schema.IndexOf("rank"), formatInt(entry.Rank))
		row = row.Set(schema.IndexOf("badges"), entry.Badges)
		row = row.Set(schema.IndexOf("wins"), formatInt(entry.Wins))
		row = row.Set(schema.IndexOf("losses"), formatInt(entry.Losses))
		row = row.Set(schema.IndexOf("created_at"), formatTime(entry.CreatedAt))
		rows = append(rows, row)
	}
	if err := r.store.AppendRows(ctx, SheetDailyArchive, rows); err != nil {
		return fmt.Errorf("append daily archive: %w", err)
	}
	return nil
}

func (r *sheetArchiveRepository) AppendYearly(ctx context.Context, entries []models.YearlyArchive) error {
	if len(entries) == 0 {
		return nil
	}
	schema, err := r.store.Schema(ctx, SheetYearlyArch)
	if err != nil {
		return fmt.Errorf("append yearly archive: %w", err)
	}
	rows := make([]sheets.Row, 0, len(entries))
	for _, entry := range entries {
		row := make(sheets.Row, len(schema.Headers()))
		row = row.Set(schema.IndexOf("archive_id"), entry.ID)
		row = row.Set(schema.IndexOf("year"), formatInt(entry.Year))
		row = row.Set(schema.IndexOf("player_id"), entry.PlayerID)
		row = row.Set(schema.IndexOf("nickname"), entry.Nickname)
		row = row.Set(schema.IndexOf("final_rating"), formatInt(entry.FinalRating))
		row = row.Set(schema.IndexOf("final_rank"), formatInt(entry.FinalRank))
		row = row.Set(schema.IndexOf("badges"), entry.Badges)
		row = row.Set(schema.IndexOf("wins"), formatInt(entry.Wins))
		row = row.Set(schema.IndexOf("losses"), formatInt(entry.Losses))
		row = row.Set(schema.IndexOf("created_at"), formatTime(entry.CreatedAt))
		rows = append(rows, row)
	}
	if err := r.store.AppendRows(ctx, SheetYearlyArch, rows); err != nil {
		return fmt.Errorf("append yearly archive: %w", err)
	}
	return nil
}

func (r *sheetArchiveRepository) ListDailyByDate(ctx context.Context, date string) ([]*models.DailyArchive, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetDailyArchive)
	if err != nil {
		return nil, fmt.Errorf("list daily archive: %w", err)
	}
	entries := make([]*models.DailyArchive, 0)
	for _, row := range rows {
		if row.Get(schema.IndexOf("date")) != date {
			continue
		}
		entries = append(entries, &models.DailyArchive{
			ID:        row.Get(schema.IndexOf("archive_id")),
			Date:      row.Get(schema.IndexOf("date")),
			PlayerID:  row.Get(schema.IndexOf("player_id")),
			Nickname:  row.Get(schema.IndexOf("nickname")),
			Rating:    parseInt(row.Get(schema.IndexOf("rating"))),
			Rank:      parseInt(row.Get(schema.IndexOf("rank"))),
			Badges:    row.Get(schema.IndexOf("badges")),
			Wins:      parseInt(row.Get(schema.IndexOf("wins"))),
			Losses:    parseInt(row.Get(schema.IndexOf("losses"))),
			CreatedAt: parseTime(row.Get(schema.IndexOf("created_at"))),
		})
	}
	return entries, nil
}

func (r *sheetArchiveRepository) ListYearlyByYear(ctx context.Context, year int) ([]*models.YearlyArchive, error) {
	rows, schema, err := r.store.ReadAll(ctx, SheetYearlyArch)
	if err != nil {
		return nil, fmt.Errorf("list yearly archive: %w", err)
	}
	entries := make([]*models.YearlyArchive, 0)
	for _, row := range rows {
		if parseInt(row.Get(schema.IndexOf("year"))) != year {
			continue
		}
		entries = append(entries, &models.YearlyArchive{
			ID:          row.Get(schema.IndexOf("archive_id")),
			Year:        year,
			PlayerID:    row.Get(schema.IndexOf("player_id")),
			Nickname:    row.Get(schema.IndexOf("nickname")),
			FinalRating: parseInt(row.Get(schema.IndexOf("final_rating"))),
			FinalRank:   parseInt(row.Get(schema.IndexOf("final_rank"))),
			Badges:      row.Get(schema.IndexOf("badges")),
			Wins:        parseInt(row.Get(schema.IndexOf("wins"))),
			Losses:      parseInt(row.Get(schema.IndexOf("losses"))),
			CreatedAt:   parseTime(row.Get(schema.IndexOf("created_at"))),
		})
	}
	return entries, nil
}
